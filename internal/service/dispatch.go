package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/internal/repository"
)

const dispatchTimeout = 3 * time.Second

// dispatcher fans notifications and events out to the optional sinks.
// Sink failures are logged and never reach the caller.
type dispatcher struct {
	notifications repository.NotificationRepository
	publisher     EventPublisher
	push          PushSender
	logger        *zap.Logger
}

func newDispatcher(notifications repository.NotificationRepository, publisher EventPublisher, push PushSender, logger *zap.Logger) *dispatcher {
	return &dispatcher{
		notifications: notifications,
		publisher:     publisher,
		push:          push,
		logger:        logger,
	}
}

func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
}

func (d *dispatcher) publish(ctx context.Context, key string, event any) {
	ctx, cancel := detached(ctx)
	defer cancel()

	if err := d.publisher.PublishJSON(ctx, key, event); err != nil {
		d.logger.Warn("ошибка публикации события", zap.String("key", key), zap.Error(err))
	}
}

// deliver pushes a notification that is already stored.
func (d *dispatcher) deliver(ctx context.Context, notification domain.Notification) {
	ctx, cancel := detached(ctx)
	defer cancel()

	if err := d.push.Push(ctx, notification.UserID, notification); err != nil {
		d.logger.Warn("ошибка отправки push уведомления", zap.Int64("userID", notification.UserID), zap.Error(err))
	}
}

// notify stores the notification and pushes it.
func (d *dispatcher) notify(ctx context.Context, notification domain.Notification) {
	id, err := d.notifications.Create(context.WithoutCancel(ctx), notification)
	if err != nil {
		d.logger.Warn("ошибка сохранения уведомления", zap.Int64("userID", notification.UserID), zap.Error(err))
		return
	}
	notification.ID = id

	d.deliver(ctx, notification)
}
