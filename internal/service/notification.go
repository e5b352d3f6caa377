package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/internal/repository"
)

type NotificationServiceImpl struct {
	repo       repository.NotificationRepository
	apptRepo   repository.AppointmentRepository
	clinicRepo repository.ClinicRepository
	fanout     *dispatcher
	now        func() time.Time
	logger     *zap.Logger
}

func NewNotificationService(
	repo repository.NotificationRepository,
	apptRepo repository.AppointmentRepository,
	clinicRepo repository.ClinicRepository,
	fanout *dispatcher,
	now func() time.Time,
	logger *zap.Logger,
) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		repo:       repo,
		apptRepo:   apptRepo,
		clinicRepo: clinicRepo,
		fanout:     fanout,
		now:        now,
		logger:     logger,
	}
}

func (s *NotificationServiceImpl) List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]domain.Notification, int, error) {
	filter := domain.NotificationFilter{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Limit:      limit,
		Offset:     offset,
	}

	notifications, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка получения уведомлений", zap.Int64("userID", userID), zap.Error(err))
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка подсчета уведомлений", zap.Int64("userID", userID), zap.Error(err))
		return nil, 0, err
	}

	return notifications, total, nil
}

func (s *NotificationServiceImpl) MarkRead(ctx context.Context, userID, id int64) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *NotificationServiceImpl) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		s.logger.Error("ошибка отметки уведомлений", zap.Int64("userID", userID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

// SendReminder notifies the patient about an upcoming appointment. Appointments that
// were cancelled or already took place are skipped silently.
func (s *NotificationServiceImpl) SendReminder(ctx context.Context, appointmentID int64) error {
	appt, err := s.apptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}

	if !appt.Status.IsOccupying() || !appt.StartTime.After(s.now()) {
		s.logger.Debug("напоминание пропущено", zap.Int64("appointmentID", appointmentID), zap.String("status", string(appt.Status)))
		return nil
	}

	loc := clinicLocation(ctx, s.clinicRepo, appt.ClinicID)
	s.fanout.notify(ctx, domain.Notification{
		UserID:        appt.PatientUserID,
		Type:          domain.NotificationAppointmentReminder,
		Title:         "Напоминание о приеме",
		Message:       fmt.Sprintf("Напоминаем о записи в клинику «%s» на услугу «%s» %s", appt.ClinicName, appt.ServiceName, appt.StartTime.In(loc).Format(displayLayout)),
		AppointmentID: &appt.ID,
	})

	return nil
}
