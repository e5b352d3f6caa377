package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dentalhub/internal/domain"
)

type senderFunc func(ctx context.Context, appointmentID int64) error

func (f senderFunc) SendReminder(ctx context.Context, appointmentID int64) error {
	return f(ctx, appointmentID)
}

func TestReminderFireAt(t *testing.T) {
	now := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)

	start := now.Add(48 * time.Hour)
	assert.Equal(t, start.Add(-24*time.Hour), ReminderFireAt(start, now, 24*time.Hour))

	soon := now.Add(2 * time.Hour)
	assert.Equal(t, now, ReminderFireAt(soon, now, 24*time.Hour))
}

func TestNewReminderTask(t *testing.T) {
	start := time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)
	task, opts, err := NewReminderTask(domain.ReminderPayload{AppointmentID: 15, StartTime: start}, start.Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, TypeAppointmentReminder, task.Type())
	assert.Len(t, opts, 3)

	var p domain.ReminderPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, int64(15), p.AppointmentID)
	assert.True(t, start.Equal(p.StartTime))
}

func TestHandleReminderTask(t *testing.T) {
	payload, _ := json.Marshal(domain.ReminderPayload{AppointmentID: 3})

	var got int64
	handler := HandleReminderTask(senderFunc(func(_ context.Context, id int64) error {
		got = id
		return nil
	}), zap.NewNop())
	require.NoError(t, handler(context.Background(), asynq.NewTask(TypeAppointmentReminder, payload)))
	assert.Equal(t, int64(3), got)

	notFound := HandleReminderTask(senderFunc(func(context.Context, int64) error {
		return domain.ErrAppointmentNotFound
	}), zap.NewNop())
	err := notFound(context.Background(), asynq.NewTask(TypeAppointmentReminder, payload))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	failing := HandleReminderTask(senderFunc(func(context.Context, int64) error {
		return errors.New("db down")
	}), zap.NewNop())
	err = failing(context.Background(), asynq.NewTask(TypeAppointmentReminder, payload))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))

	bad := HandleReminderTask(senderFunc(func(context.Context, int64) error { return nil }), zap.NewNop())
	err = bad(context.Background(), asynq.NewTask(TypeAppointmentReminder, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
