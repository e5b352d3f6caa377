package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/internal/repository"
	"dentalhub/pkg/validator"
)

const dateLayout = "2006-01-02"

type PatientServiceImpl struct {
	repo   repository.PatientRepository
	logger *zap.Logger
}

func NewPatientService(repo repository.PatientRepository, logger *zap.Logger) *PatientServiceImpl {
	return &PatientServiceImpl{
		repo:   repo,
		logger: logger,
	}
}

func (s *PatientServiceImpl) GetByUserID(ctx context.Context, userID int64) (*domain.Patient, error) {
	patient, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			s.logger.Error("ошибка получения профиля пациента", zap.Int64("userID", userID), zap.Error(err))
		}
		return nil, err
	}
	return patient, nil
}

func (s *PatientServiceImpl) UpdateProfile(ctx context.Context, userID int64, dto domain.PatientProfileDTO) (*domain.Patient, error) {
	patient, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated, err := patientFromProfile(*patient, dto)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		s.logger.Error("ошибка обновления профиля пациента", zap.Int64("patientID", patient.ID), zap.Error(err))
		return nil, err
	}

	return s.repo.GetByID(ctx, patient.ID)
}

// patientFromProfile applies the non-nil profile fields on top of base.
func patientFromProfile(base domain.Patient, dto domain.PatientProfileDTO) (domain.Patient, error) {
	if dto.DateOfBirth != nil {
		dob, err := time.Parse(dateLayout, *dto.DateOfBirth)
		if err != nil {
			return base, domain.ErrInvalidDate
		}
		if dob.After(time.Now()) {
			return base, domain.NewValidationError("дата рождения не может быть в будущем")
		}
		base.DateOfBirth = &dob
	}

	if dto.Gender != nil {
		base.Gender = dto.Gender
	}
	if dto.Address != nil {
		base.Address = PointerTo(validator.SanitizeString(*dto.Address))
	}
	if dto.Allergies != nil {
		base.Allergies = PointerTo(validator.SanitizeString(*dto.Allergies))
	}

	return base, nil
}
