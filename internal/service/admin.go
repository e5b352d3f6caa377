package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/internal/notify"
	"dentalhub/internal/repository"
	"dentalhub/pkg/validator"
)

const (
	defaultAnalyticsDays = 30
	maxAnalyticsDays     = 365
)

type clinicMove struct {
	from    []domain.ClinicStatus
	to      domain.ClinicStatus
	title   string
	message string
}

var (
	approveMove = clinicMove{
		from:    []domain.ClinicStatus{domain.ClinicStatusPending, domain.ClinicStatusSuspended},
		to:      domain.ClinicStatusApproved,
		title:   "Клиника одобрена",
		message: "Ваша клиника прошла модерацию и доступна пациентам",
	}
	rejectMove = clinicMove{
		from:    []domain.ClinicStatus{domain.ClinicStatusPending},
		to:      domain.ClinicStatusRejected,
		title:   "Клиника отклонена",
		message: "Заявка клиники отклонена. Причина: ",
	}
	suspendMove = clinicMove{
		from:    []domain.ClinicStatus{domain.ClinicStatusApproved},
		to:      domain.ClinicStatusSuspended,
		title:   "Клиника приостановлена",
		message: "Работа клиники на платформе приостановлена администратором",
	}
)

type AdminServiceImpl struct {
	clinicRepo repository.ClinicRepository
	userRepo   repository.UserRepository
	apptRepo   repository.AppointmentRepository
	fanout     *dispatcher
	now        func() time.Time
	logger     *zap.Logger
}

func NewAdminService(
	clinicRepo repository.ClinicRepository,
	userRepo repository.UserRepository,
	apptRepo repository.AppointmentRepository,
	fanout *dispatcher,
	now func() time.Time,
	logger *zap.Logger,
) *AdminServiceImpl {
	return &AdminServiceImpl{
		clinicRepo: clinicRepo,
		userRepo:   userRepo,
		apptRepo:   apptRepo,
		fanout:     fanout,
		now:        now,
		logger:     logger,
	}
}

func (s *AdminServiceImpl) ListClinics(ctx context.Context, filter domain.ClinicFilter) ([]domain.Clinic, int, error) {
	clinics, err := s.clinicRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка получения списка клиник", zap.Error(err))
		return nil, 0, err
	}

	total, err := s.clinicRepo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка подсчета клиник", zap.Error(err))
		return nil, 0, err
	}

	return clinics, total, nil
}

func (s *AdminServiceImpl) ApproveClinic(ctx context.Context, id int64) (*domain.Clinic, error) {
	return s.move(ctx, id, approveMove, nil)
}

func (s *AdminServiceImpl) RejectClinic(ctx context.Context, id int64, dto domain.RejectClinicDTO) (*domain.Clinic, error) {
	reason := validator.SanitizeString(dto.Reason)
	if reason == "" {
		return nil, domain.NewValidationError("укажите причину отклонения")
	}
	return s.move(ctx, id, rejectMove, &reason)
}

func (s *AdminServiceImpl) SuspendClinic(ctx context.Context, id int64) (*domain.Clinic, error) {
	return s.move(ctx, id, suspendMove, nil)
}

func (s *AdminServiceImpl) move(ctx context.Context, id int64, m clinicMove, reason *string) (*domain.Clinic, error) {
	if err := s.clinicRepo.UpdateStatus(ctx, id, m.from, m.to, reason); err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			s.logger.Error("ошибка смены статуса клиники", zap.Int64("clinicID", id), zap.Error(err))
		}
		return nil, err
	}

	clinic, err := s.clinicRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("статус клиники изменен", zap.Int64("clinicID", id), zap.String("status", string(m.to)))

	message := m.message
	if reason != nil {
		message += *reason
	}

	s.fanout.notify(ctx, domain.Notification{
		UserID:  clinic.OwnerID,
		Type:    domain.NotificationClinicStatus,
		Title:   m.title,
		Message: message,
	})
	s.fanout.publish(ctx, notify.KeyClinicStatus, domain.ClinicEvent{
		EventID:    uuid.NewString(),
		ClinicID:   clinic.ID,
		OwnerID:    clinic.OwnerID,
		Status:     clinic.Status,
		Reason:     reason,
		OccurredAt: s.now(),
	})

	return clinic, nil
}

// PlatformAnalytics aggregates platform-wide counters; bookings are bucketed by UTC day
// over the last days days, today included.
func (s *AdminServiceImpl) PlatformAnalytics(ctx context.Context, days int) (*domain.PlatformAnalytics, error) {
	if days <= 0 {
		days = defaultAnalyticsDays
	}
	if days > maxAnalyticsDays {
		days = maxAnalyticsDays
	}

	now := s.now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)

	users, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		s.logger.Error("ошибка подсчета пользователей", zap.Error(err))
		return nil, err
	}

	clinics, err := s.clinicRepo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("ошибка подсчета клиник", zap.Error(err))
		return nil, err
	}

	appointments, err := s.apptRepo.CountByStatus(ctx, nil)
	if err != nil {
		s.logger.Error("ошибка подсчета записей", zap.Error(err))
		return nil, err
	}

	revenue, err := s.apptRepo.CompletedRevenue(ctx, nil)
	if err != nil {
		s.logger.Error("ошибка подсчета выручки", zap.Error(err))
		return nil, err
	}

	perDay, err := s.apptRepo.BookingsPerDay(ctx, start, end)
	if err != nil {
		s.logger.Error("ошибка получения статистики бронирований", zap.Error(err))
		return nil, err
	}

	return &domain.PlatformAnalytics{
		UsersByRole:          users,
		ClinicsByStatus:      clinics,
		AppointmentsByStatus: appointments,
		CompletedRevenue:     revenue,
		BookingsPerDay:       fillDays(perDay, start, days),
		WindowStart:          start,
		WindowEnd:            end,
	}, nil
}

// fillDays returns one entry per day starting at start, with zero for days without bookings.
func fillDays(counts []domain.DailyCount, start time.Time, days int) []domain.DailyCount {
	byDay := make(map[string]int, len(counts))
	for _, c := range counts {
		byDay[c.Date] = c.Count
	}

	out := make([]domain.DailyCount, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format(dateLayout)
		out = append(out, domain.DailyCount{Date: day, Count: byDay[day]})
	}
	return out
}
