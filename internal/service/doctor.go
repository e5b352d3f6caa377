package service

import (
	"context"

	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/internal/repository"
	"dentalhub/pkg/validator"
)

type DoctorServiceImpl struct {
	repo       repository.DoctorRepository
	clinicRepo repository.ClinicRepository
	logger     *zap.Logger
}

func NewDoctorService(repo repository.DoctorRepository, clinicRepo repository.ClinicRepository, logger *zap.Logger) *DoctorServiceImpl {
	return &DoctorServiceImpl{
		repo:       repo,
		clinicRepo: clinicRepo,
		logger:     logger,
	}
}

func (s *DoctorServiceImpl) Create(ctx context.Context, ownerID int64, dto domain.CreateDoctorDTO) (*domain.Doctor, error) {
	clinic, err := ownedClinic(ctx, s.clinicRepo, ownerID)
	if err != nil {
		return nil, err
	}

	if !validator.ValidateNamePart(dto.FirstName) || !validator.ValidateNamePart(dto.LastName) {
		return nil, domain.NewValidationError("имя и фамилия врача могут содержать только буквы, пробел и дефис")
	}
	dto.FirstName = validator.FormatName(dto.FirstName)
	dto.LastName = validator.FormatName(dto.LastName)
	dto.Specialization = validator.SanitizeString(dto.Specialization)

	if dto.Phone != nil {
		if !validator.ValidatePhone(*dto.Phone) {
			return nil, domain.NewValidationError("неверный формат телефона")
		}
		dto.Phone = PointerTo(validator.FormatPhone(*dto.Phone))
	}

	id, err := s.repo.Create(ctx, clinic.ID, dto)
	if err != nil {
		s.logger.Error("ошибка создания врача", zap.Int64("clinicID", clinic.ID), zap.Error(err))
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *DoctorServiceImpl) Update(ctx context.Context, ownerID, id int64, dto domain.UpdateDoctorDTO) (*domain.Doctor, error) {
	clinic, err := ownedClinic(ctx, s.clinicRepo, ownerID)
	if err != nil {
		return nil, err
	}

	doctor, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doctor.ClinicID != clinic.ID {
		return nil, domain.ErrDoctorNotFound
	}

	if dto.FirstName != nil {
		if !validator.ValidateNamePart(*dto.FirstName) {
			return nil, domain.NewValidationError("неверный формат имени")
		}
		dto.FirstName = PointerTo(validator.FormatName(*dto.FirstName))
	}
	if dto.LastName != nil {
		if !validator.ValidateNamePart(*dto.LastName) {
			return nil, domain.NewValidationError("неверный формат фамилии")
		}
		dto.LastName = PointerTo(validator.FormatName(*dto.LastName))
	}
	if dto.Phone != nil {
		if !validator.ValidatePhone(*dto.Phone) {
			return nil, domain.NewValidationError("неверный формат телефона")
		}
		dto.Phone = PointerTo(validator.FormatPhone(*dto.Phone))
	}

	if err := s.repo.Update(ctx, id, dto); err != nil {
		s.logger.Error("ошибка обновления врача", zap.Int64("doctorID", id), zap.Error(err))
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *DoctorServiceImpl) ListMine(ctx context.Context, ownerID int64) ([]domain.Doctor, error) {
	clinic, err := ownedClinic(ctx, s.clinicRepo, ownerID)
	if err != nil {
		return nil, err
	}

	return s.repo.ListByClinic(ctx, clinic.ID, false)
}
