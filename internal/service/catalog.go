package service

import (
	"context"

	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/internal/repository"
	"dentalhub/pkg/validator"
)

type CatalogServiceImpl struct {
	repo       repository.DentalServiceRepository
	clinicRepo repository.ClinicRepository
	logger     *zap.Logger
}

func NewCatalogService(repo repository.DentalServiceRepository, clinicRepo repository.ClinicRepository, logger *zap.Logger) *CatalogServiceImpl {
	return &CatalogServiceImpl{
		repo:       repo,
		clinicRepo: clinicRepo,
		logger:     logger,
	}
}

func (s *CatalogServiceImpl) Create(ctx context.Context, ownerID int64, dto domain.CreateDentalServiceDTO) (*domain.DentalService, error) {
	clinic, err := ownedClinic(ctx, s.clinicRepo, ownerID)
	if err != nil {
		return nil, err
	}

	dto.Name = validator.SanitizeString(dto.Name)
	dto.Description = validator.SanitizeString(dto.Description)
	if dto.Name == "" {
		return nil, domain.NewValidationError("название услуги не может быть пустым")
	}

	id, err := s.repo.Create(ctx, clinic.ID, dto)
	if err != nil {
		s.logger.Error("ошибка создания услуги", zap.Int64("clinicID", clinic.ID), zap.Error(err))
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *CatalogServiceImpl) Update(ctx context.Context, ownerID, id int64, dto domain.UpdateDentalServiceDTO) (*domain.DentalService, error) {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return nil, err
	}

	if dto.Name != nil {
		dto.Name = PointerTo(validator.SanitizeString(*dto.Name))
		if *dto.Name == "" {
			return nil, domain.NewValidationError("название услуги не может быть пустым")
		}
	}
	if dto.Description != nil {
		dto.Description = PointerTo(validator.SanitizeString(*dto.Description))
	}

	if err := s.repo.Update(ctx, id, dto); err != nil {
		s.logger.Error("ошибка обновления услуги", zap.Int64("serviceID", id), zap.Error(err))
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *CatalogServiceImpl) ListMine(ctx context.Context, ownerID int64) ([]domain.DentalService, error) {
	clinic, err := ownedClinic(ctx, s.clinicRepo, ownerID)
	if err != nil {
		return nil, err
	}

	return s.repo.ListByClinic(ctx, clinic.ID, false)
}

// owned loads a service and hides services of other clinics.
func (s *CatalogServiceImpl) owned(ctx context.Context, ownerID, id int64) (*domain.DentalService, error) {
	clinic, err := ownedClinic(ctx, s.clinicRepo, ownerID)
	if err != nil {
		return nil, err
	}

	service, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if service.ClinicID != clinic.ID {
		return nil, domain.ErrServiceNotFound
	}

	return service, nil
}
