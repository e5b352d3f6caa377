package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment     string
	Name            string
	Version         string
	DefaultTimezone string
	HTTP            HTTPConfig
	Postgres        PostgresConfig
	JWT             JWTConfig
	S3              S3Config
	Redis           RedisConfig
	RabbitMQ        RabbitMQConfig
	AI              AIConfig
	Booking         BookingConfig
	Admin           AdminConfig
}

type HTTPConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxHeaderMB    int
	RateLimitRPS   int
	RateLimitBurst int
	AllowedOrigins []string
}

type PostgresConfig struct {
	Host               string
	Port               string
	Username           string
	Password           string
	DBName             string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
	MaxLifetime        time.Duration
}

type JWTConfig struct {
	SigningKey      string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type S3Config struct {
	Endpoint        string
	PublicURL       string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
}

type RedisConfig struct {
	Addr     string
	Password string
	CacheDB  int
	QueueDB  int
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type AIConfig struct {
	GeminiAPIKey string
	Model        string
	InsightsTTL  time.Duration
	Timeout      time.Duration
}

type BookingConfig struct {
	// MinLeadTime is added to "now" when filtering past slots and validating a start time.
	MinLeadTime  time.Duration
	ReminderLead time.Duration
}

// AdminConfig seeds the platform administrator on start-up when both fields are set.
type AdminConfig struct {
	Email    string
	Phone    string
	Password string
}

// NewConfig loads .env when it exists and then reads the environment.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	httpReadTimeout, err := getEnvAsDuration("HTTP_READ_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	httpWriteTimeout, err := getEnvAsDuration("HTTP_WRITE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	postgresMaxLifetime, err := getEnvAsDuration("POSTGRES_MAX_LIFETIME", "5m")
	if err != nil {
		return nil, err
	}

	jwtAccessTokenTTL, err := getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", "15m")
	if err != nil {
		return nil, err
	}

	jwtRefreshTokenTTL, err := getEnvAsDuration("JWT_REFRESH_TOKEN_TTL", "24h")
	if err != nil {
		return nil, err
	}

	insightsTTL, err := getEnvAsDuration("AI_INSIGHTS_TTL", "6h")
	if err != nil {
		return nil, err
	}

	aiTimeout, err := getEnvAsDuration("AI_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	minLeadTime, err := getEnvAsDuration("BOOKING_MIN_LEAD_TIME", "0s")
	if err != nil {
		return nil, err
	}

	reminderLead, err := getEnvAsDuration("BOOKING_REMINDER_LEAD", "24h")
	if err != nil {
		return nil, err
	}

	defaultTimezone := getEnv("APP_DEFAULT_TIMEZONE", "UTC")
	if _, err := time.LoadLocation(defaultTimezone); err != nil {
		return nil, fmt.Errorf("неизвестный часовой пояс %q: %w", defaultTimezone, err)
	}

	return &Config{
		Environment:     getEnv("APP_ENV", "development"),
		Name:            getEnv("APP_NAME", "dentalhub"),
		Version:         getEnv("APP_VERSION", "1.0.0"),
		DefaultTimezone: defaultTimezone,
		HTTP: HTTPConfig{
			Port:           getEnv("HTTP_PORT", "8080"),
			ReadTimeout:    httpReadTimeout,
			WriteTimeout:   httpWriteTimeout,
			MaxHeaderMB:    getEnvAsInt("HTTP_MAX_HEADER_MB", 1),
			RateLimitRPS:   getEnvAsInt("HTTP_RATE_LIMIT_RPS", 20),
			RateLimitBurst: getEnvAsInt("HTTP_RATE_LIMIT_BURST", 40),
			AllowedOrigins: getEnvAsList("HTTP_ALLOWED_ORIGINS", "*"),
		},
		Postgres: PostgresConfig{
			Host:               getEnv("POSTGRES_HOST", "localhost"),
			Port:               getEnv("POSTGRES_PORT", "5432"),
			Username:           getEnv("POSTGRES_USER", "postgres"),
			Password:           getEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:             getEnv("POSTGRES_DB", "dentalhub"),
			SSLMode:            getEnv("POSTGRES_SSL_MODE", "disable"),
			MaxConnections:     getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("POSTGRES_MAX_IDLE_CONNECTIONS", 5),
			MaxLifetime:        postgresMaxLifetime,
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "your_secret_key"),
			AccessTokenTTL:  jwtAccessTokenTTL,
			RefreshTokenTTL: jwtRefreshTokenTTL,
		},
		S3: S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			PublicURL:       getEnv("S3_PUBLIC_URL", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("S3_BUCKET", "dentalhub"),
			UseSSL:          getEnv("S3_USE_SSL", "true") == "true",
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			CacheDB:  getEnvAsInt("REDIS_CACHE_DB", 0),
			QueueDB:  getEnvAsInt("REDIS_QUEUE_DB", 1),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "dentalhub.events"),
		},
		AI: AIConfig{
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			Model:        getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			InsightsTTL:  insightsTTL,
			Timeout:      aiTimeout,
		},
		Booking: BookingConfig{
			MinLeadTime:  minLeadTime,
			ReminderLead: reminderLead,
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Phone:    getEnv("ADMIN_PHONE", "+70000000000"),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value := 0
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("неверное значение %s: %w", key, err)
	}
	return d, nil
}

func getEnvAsList(key, defaultValue string) []string {
	var values []string
	for _, v := range strings.Split(getEnv(key, defaultValue), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
