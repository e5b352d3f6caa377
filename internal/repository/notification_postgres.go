package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dentalhub/internal/domain"
)

type NotificationRepo struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{
		db: db,
	}
}

func insertNotification(ctx context.Context, q querier, n domain.Notification) (int64, error) {
	query := `
		INSERT INTO notifications (user_id, type, title, message, appointment_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		RETURNING id
	`

	var id int64
	if err := q.QueryRow(ctx, query, n.UserID, n.Type, n.Title, n.Message, n.AppointmentID, time.Now()).Scan(&id); err != nil {
		return 0, fmt.Errorf("ошибка создания уведомления: %w", err)
	}

	return id, nil
}

func (r *NotificationRepo) Create(ctx context.Context, notification domain.Notification) (int64, error) {
	return insertNotification(ctx, r.db, notification)
}

func notificationWhere(filter domain.NotificationFilter) *whereBuilder {
	w := &whereBuilder{}
	w.add("user_id = ?", filter.UserID)
	if filter.UnreadOnly {
		w.add("is_read = ?", false)
	}
	return w
}

func (r *NotificationRepo) List(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, error) {
	w := notificationWhere(filter)
	query := `
		SELECT id, user_id, type, title, message, appointment_id, is_read, created_at
		FROM notifications` + w.sql() + ` ORDER BY created_at DESC, id DESC` + w.page(filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса уведомлений: %w", err)
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.AppointmentID,
			&n.IsRead,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения уведомления: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обработки результатов: %w", err)
	}

	return notifications, nil
}

func (r *NotificationRepo) Count(ctx context.Context, filter domain.NotificationFilter) (int, error) {
	w := notificationWhere(filter)

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications`+w.sql(), w.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчета уведомлений: %w", err)
	}
	return count, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("ошибка обновления уведомления: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("ошибка обновления уведомлений: %w", err)
	}
	return tag.RowsAffected(), nil
}
