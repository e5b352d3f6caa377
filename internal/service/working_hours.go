package service

import (
	"context"

	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/internal/repository"
)

type WorkingHoursServiceImpl struct {
	repo       repository.WorkingHoursRepository
	clinicRepo repository.ClinicRepository
	logger     *zap.Logger
}

func NewWorkingHoursService(repo repository.WorkingHoursRepository, clinicRepo repository.ClinicRepository, logger *zap.Logger) *WorkingHoursServiceImpl {
	return &WorkingHoursServiceImpl{
		repo:       repo,
		clinicRepo: clinicRepo,
		logger:     logger,
	}
}

func (s *WorkingHoursServiceImpl) GetMine(ctx context.Context, ownerID int64) ([]domain.WorkingHours, error) {
	clinic, err := ownedClinic(ctx, s.clinicRepo, ownerID)
	if err != nil {
		return nil, err
	}

	return s.repo.GetByClinic(ctx, clinic.ID)
}

func (s *WorkingHoursServiceImpl) GetPublic(ctx context.Context, clinicID int64) ([]domain.WorkingHours, error) {
	if _, err := approvedClinic(ctx, s.clinicRepo, clinicID); err != nil {
		return nil, err
	}

	return s.repo.GetByClinic(ctx, clinicID)
}

// Replace swaps the whole weekly schedule. Weekdays missing from dto become closed days.
func (s *WorkingHoursServiceImpl) Replace(ctx context.Context, ownerID int64, dto domain.ReplaceWorkingHoursDTO) ([]domain.WorkingHours, error) {
	clinic, err := ownedClinic(ctx, s.clinicRepo, ownerID)
	if err != nil {
		return nil, err
	}

	days, err := workingHoursFromDTO(clinic.ID, dto)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Replace(ctx, clinic.ID, days); err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			s.logger.Error("ошибка сохранения рабочего времени", zap.Int64("clinicID", clinic.ID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("рабочее время клиники обновлено", zap.Int64("clinicID", clinic.ID), zap.Int("days", len(days)))

	return s.repo.GetByClinic(ctx, clinic.ID)
}

func workingHoursFromDTO(clinicID int64, dto domain.ReplaceWorkingHoursDTO) ([]domain.WorkingHours, error) {
	seen := make(map[domain.Weekday]bool, len(dto.Days))
	days := make([]domain.WorkingHours, 0, len(dto.Days))

	for _, d := range dto.Days {
		if seen[d.DayOfWeek] {
			return nil, domain.ErrDuplicateWeekday
		}
		seen[d.DayOfWeek] = true

		wh := domain.WorkingHours{
			ClinicID:            clinicID,
			DayOfWeek:           d.DayOfWeek,
			OpenTime:            d.OpenTime,
			CloseTime:           d.CloseTime,
			SlotDurationMinutes: d.SlotDurationMinutes,
			BreakStartTime:      d.BreakStartTime,
			BreakEndTime:        d.BreakEndTime,
		}
		if err := wh.Validate(); err != nil {
			return nil, err
		}
		wh, err := wh.Canonical()
		if err != nil {
			return nil, err
		}

		days = append(days, wh)
	}

	return days, nil
}
