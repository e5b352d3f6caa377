package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"dentalhub/config"
	"dentalhub/internal/domain"
)

const TypeAppointmentReminder = "appointment:reminder"

// NewReminderTask builds the delayed reminder for an appointment; the task id deduplicates re-scheduling.
func NewReminderTask(payload domain.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}

	task := asynq.NewTask(TypeAppointmentReminder, b)
	opts := []asynq.Option{
		asynq.TaskID("reminder:" + strconv.FormatInt(payload.AppointmentID, 10)),
		asynq.MaxRetry(3),
		asynq.ProcessAt(fireAt),
	}

	return task, opts, nil
}

// ReminderFireAt is lead before start, or now when that moment has already passed.
func ReminderFireAt(start, now time.Time, lead time.Duration) time.Time {
	fireAt := start.Add(-lead)
	if fireAt.Before(now) {
		return now
	}
	return fireAt
}

// Scheduler enqueues reminder tasks into the asynq queue.
type Scheduler struct {
	client *asynq.Client
	lead   time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewScheduler(cfg config.RedisConfig, lead time.Duration, logger *zap.Logger) *Scheduler {
	client := asynq.NewClient(redisOpt(cfg))

	return &Scheduler{
		client: client,
		lead:   lead,
		now:    time.Now,
		logger: logger,
	}
}

func redisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.QueueDB,
	}
}

func (s *Scheduler) ScheduleReminder(ctx context.Context, appointment domain.Appointment) error {
	now := s.now()
	if !appointment.StartTime.After(now) {
		return nil
	}

	payload := domain.ReminderPayload{
		AppointmentID: appointment.ID,
		StartTime:     appointment.StartTime,
	}

	task, opts, err := NewReminderTask(payload, ReminderFireAt(appointment.StartTime, now, s.lead))
	if err != nil {
		return fmt.Errorf("ошибка создания задачи напоминания: %w", err)
	}

	info, err := s.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ошибка постановки напоминания в очередь: %w", err)
	}

	s.logger.Debug("напоминание запланировано",
		zap.Int64("appointmentID", appointment.ID),
		zap.Time("processAt", info.NextProcessAt))
	return nil
}

func (s *Scheduler) Close() error {
	return s.client.Close()
}

// ReminderSender delivers a reminder for an appointment that is still occupying its slot.
type ReminderSender interface {
	SendReminder(ctx context.Context, appointmentID int64) error
}

// Server runs the asynq worker that processes reminder tasks.
type Server struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewServer(cfg config.RedisConfig, sender ReminderSender, logger *zap.Logger) *Server {
	srv := asynq.NewServer(redisOpt(cfg), asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
		Logger: newAsynqLogger(logger),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAppointmentReminder, HandleReminderTask(sender, logger))

	return &Server{
		srv:    srv,
		mux:    mux,
		logger: logger,
	}
}

// Start launches the worker goroutines and returns immediately.
func (s *Server) Start() error {
	if err := s.srv.Start(s.mux); err != nil {
		return fmt.Errorf("ошибка запуска обработчика напоминаний: %w", err)
	}
	s.logger.Info("обработчик напоминаний запущен")
	return nil
}

func (s *Server) Shutdown() {
	s.srv.Shutdown()
}

func HandleReminderTask(sender ReminderSender, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p domain.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("некорректные данные задачи напоминания", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		err := sender.SendReminder(ctx, p.AppointmentID)
		if domain.KindOf(err) == domain.KindNotFound {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err != nil {
			logger.Error("ошибка отправки напоминания", zap.Int64("appointmentID", p.AppointmentID), zap.Error(err))
			return err
		}

		return nil
	}
}

// asynqLogger routes asynq internals into zap.
type asynqLogger struct {
	l *zap.SugaredLogger
}

func newAsynqLogger(logger *zap.Logger) *asynqLogger {
	return &asynqLogger{l: logger.Named("asynq").Sugar()}
}

func (a *asynqLogger) Debug(args ...interface{}) { a.l.Debug(args...) }
func (a *asynqLogger) Info(args ...interface{})  { a.l.Info(args...) }
func (a *asynqLogger) Warn(args ...interface{})  { a.l.Warn(args...) }
func (a *asynqLogger) Error(args ...interface{}) { a.l.Error(args...) }
func (a *asynqLogger) Fatal(args ...interface{}) { a.l.Fatal(args...) }
