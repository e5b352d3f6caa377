package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"dentalhub/config"
)

const keyPrefix = "dentalhub:"

// RedisCache stores JSON values with a TTL.
type RedisCache struct {
	client *redis.Client
}

func NewRedisClient(ctx context.Context, cfg config.RedisConfig, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
	}

	return client, nil
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func Key(parts ...string) string {
	key := keyPrefix
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += p
	}
	return key
}

// GetJSON decodes the cached value into out; ok is false on a miss.
func (c *RedisCache) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ошибка чтения кеша: %w", err)
	}

	if err := json.Unmarshal(val, out); err != nil {
		// corrupt entry, treat as a miss
		_ = c.client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("ошибка сериализации значения кеша: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи кеша: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("ошибка удаления ключа кеша: %w", err)
	}
	return nil
}
