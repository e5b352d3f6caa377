package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/internal/repository"
)

const topServicesLimit = 5

type AnalyticsServiceImpl struct {
	clinicRepo    repository.ClinicRepository
	apptRepo      repository.AppointmentRepository
	inventoryRepo repository.InventoryRepository
	now           func() time.Time
	logger        *zap.Logger
}

func NewAnalyticsService(
	clinicRepo repository.ClinicRepository,
	apptRepo repository.AppointmentRepository,
	inventoryRepo repository.InventoryRepository,
	now func() time.Time,
	logger *zap.Logger,
) *AnalyticsServiceImpl {
	return &AnalyticsServiceImpl{
		clinicRepo:    clinicRepo,
		apptRepo:      apptRepo,
		inventoryRepo: inventoryRepo,
		now:           now,
		logger:        logger,
	}
}

func (s *AnalyticsServiceImpl) ClinicAnalytics(ctx context.Context, ownerID int64) (*domain.ClinicAnalytics, error) {
	clinic, err := ownedClinic(ctx, s.clinicRepo, ownerID)
	if err != nil {
		return nil, err
	}
	return s.forClinic(ctx, clinic.ID)
}

func (s *AnalyticsServiceImpl) forClinic(ctx context.Context, clinicID int64) (*domain.ClinicAnalytics, error) {
	byStatus, err := s.apptRepo.CountByStatus(ctx, &clinicID)
	if err != nil {
		s.logger.Error("ошибка подсчета записей клиники", zap.Int64("clinicID", clinicID), zap.Error(err))
		return nil, err
	}

	upcoming, err := s.apptRepo.CountUpcoming(ctx, clinicID, s.now())
	if err != nil {
		s.logger.Error("ошибка подсчета предстоящих записей", zap.Int64("clinicID", clinicID), zap.Error(err))
		return nil, err
	}

	revenue, err := s.apptRepo.CompletedRevenue(ctx, &clinicID)
	if err != nil {
		s.logger.Error("ошибка подсчета выручки клиники", zap.Int64("clinicID", clinicID), zap.Error(err))
		return nil, err
	}

	top, err := s.apptRepo.TopServices(ctx, clinicID, topServicesLimit)
	if err != nil {
		s.logger.Error("ошибка получения популярных услуг", zap.Int64("clinicID", clinicID), zap.Error(err))
		return nil, err
	}

	lowStock, err := s.inventoryRepo.Count(ctx, domain.InventoryFilter{ClinicID: clinicID, LowStockOnly: true})
	if err != nil {
		s.logger.Error("ошибка подсчета остатков склада", zap.Int64("clinicID", clinicID), zap.Error(err))
		return nil, err
	}

	return &domain.ClinicAnalytics{
		ClinicID:             clinicID,
		AppointmentsByStatus: byStatus,
		UpcomingCount:        upcoming,
		CompletedRevenue:     revenue,
		TopServices:          top,
		LowStockItems:        lowStock,
	}, nil
}
