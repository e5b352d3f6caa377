package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	KeyAppointmentBooked = "appointment.booked"
	KeyClinicStatus      = "clinic.status"
)

// AppointmentStatusKey is the routing key of a status change, e.g. "appointment.cancelled".
func AppointmentStatusKey(status string) string {
	return "appointment." + strings.ToLower(status)
}

// RabbitPublisher publishes JSON events to a durable topic exchange.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	mu       sync.Mutex
	logger   *zap.Logger
}

func NewRabbitPublisher(url, exchange string, logger *zap.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ошибка открытия канала RabbitMQ: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("ошибка объявления exchange: %w", err)
	}

	return &RabbitPublisher{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (p *RabbitPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("ошибка сериализации события: %w", err)
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("ошибка публикации события %s: %w", key, err)
	}

	p.logger.Debug("событие опубликовано", zap.String("key", key))
	return nil
}

func (p *RabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
