package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/internal/repository"
	"dentalhub/internal/storage"
	"dentalhub/pkg/validator"
)

const logoFolder = "clinics"

type ClinicServiceImpl struct {
	repo        repository.ClinicRepository
	serviceRepo repository.DentalServiceRepository
	doctorRepo  repository.DoctorRepository
	fileStorage storage.FileStorage
	logger      *zap.Logger
}

func NewClinicService(
	repo repository.ClinicRepository,
	serviceRepo repository.DentalServiceRepository,
	doctorRepo repository.DoctorRepository,
	fileStorage storage.FileStorage,
	logger *zap.Logger,
) *ClinicServiceImpl {
	return &ClinicServiceImpl{
		repo:        repo,
		serviceRepo: serviceRepo,
		doctorRepo:  doctorRepo,
		fileStorage: fileStorage,
		logger:      logger,
	}
}

// ownedClinic returns the clinic of a clinic owner.
func ownedClinic(ctx context.Context, repo repository.ClinicRepository, ownerID int64) (*domain.Clinic, error) {
	return repo.GetByOwnerID(ctx, ownerID)
}

// approvedClinic hides clinics that are not APPROVED behind a not-found error.
func approvedClinic(ctx context.Context, repo repository.ClinicRepository, id int64) (*domain.Clinic, error) {
	clinic, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if clinic.Status != domain.ClinicStatusApproved {
		return nil, domain.ErrClinicNotFound
	}
	return clinic, nil
}

func (s *ClinicServiceImpl) GetMine(ctx context.Context, ownerID int64) (*domain.Clinic, error) {
	return ownedClinic(ctx, s.repo, ownerID)
}

func (s *ClinicServiceImpl) UpdateMine(ctx context.Context, ownerID int64, dto domain.UpdateClinicDTO) (*domain.Clinic, error) {
	clinic, err := ownedClinic(ctx, s.repo, ownerID)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		dto.Name = PointerTo(validator.SanitizeString(*dto.Name))
		if *dto.Name == "" {
			return nil, domain.NewValidationError("название клиники не может быть пустым")
		}
	}
	if dto.Description != nil {
		dto.Description = PointerTo(validator.SanitizeString(*dto.Description))
	}
	if dto.Address != nil {
		dto.Address = PointerTo(validator.SanitizeString(*dto.Address))
	}
	if dto.City != nil {
		dto.City = PointerTo(validator.SanitizeString(*dto.City))
	}
	if dto.Phone != nil {
		if !validator.ValidatePhone(*dto.Phone) {
			return nil, domain.NewValidationError("неверный формат телефона")
		}
		dto.Phone = PointerTo(validator.FormatPhone(*dto.Phone))
	}
	if dto.Email != nil && !validator.ValidateEmail(*dto.Email) {
		return nil, domain.NewValidationError("неверный формат email")
	}
	if dto.Timezone != nil && !validator.ValidateTimezone(*dto.Timezone) {
		return nil, domain.NewValidationError("неизвестный часовой пояс: " + *dto.Timezone)
	}

	if err := s.repo.Update(ctx, clinic.ID, dto); err != nil {
		s.logger.Error("ошибка обновления клиники", zap.Int64("clinicID", clinic.ID), zap.Error(err))
		return nil, err
	}

	return s.repo.GetByID(ctx, clinic.ID)
}

func (s *ClinicServiceImpl) UploadLogo(ctx context.Context, ownerID int64, data []byte, filename string) (string, error) {
	if s.fileStorage == nil {
		return "", domain.ErrStorageDisabled
	}

	clinic, err := ownedClinic(ctx, s.repo, ownerID)
	if err != nil {
		return "", err
	}

	url, err := s.fileStorage.UploadImage(ctx, logoFolder, data, filename)
	if err != nil {
		if errors.Is(err, storage.ErrEmptyFile) || errors.Is(err, storage.ErrNotAnImage) {
			return "", domain.NewValidationError(err.Error())
		}
		s.logger.Error("ошибка загрузки логотипа", zap.Int64("clinicID", clinic.ID), zap.Error(err))
		return "", err
	}

	if err := s.repo.UpdateLogo(ctx, clinic.ID, &url); err != nil {
		s.logger.Error("ошибка сохранения логотипа", zap.Int64("clinicID", clinic.ID), zap.Error(err))
		if delErr := s.fileStorage.DeleteFile(ctx, url); delErr != nil {
			s.logger.Warn("ошибка удаления загруженного файла", zap.String("url", url), zap.Error(delErr))
		}
		return "", err
	}

	if clinic.LogoURL != nil {
		if err := s.fileStorage.DeleteFile(ctx, *clinic.LogoURL); err != nil {
			s.logger.Warn("ошибка удаления старого логотипа", zap.String("url", *clinic.LogoURL), zap.Error(err))
		}
	}

	return url, nil
}

func (s *ClinicServiceImpl) DeleteLogo(ctx context.Context, ownerID int64) error {
	if s.fileStorage == nil {
		return domain.ErrStorageDisabled
	}

	clinic, err := ownedClinic(ctx, s.repo, ownerID)
	if err != nil {
		return err
	}
	if clinic.LogoURL == nil {
		return nil
	}

	if err := s.repo.UpdateLogo(ctx, clinic.ID, nil); err != nil {
		s.logger.Error("ошибка удаления логотипа", zap.Int64("clinicID", clinic.ID), zap.Error(err))
		return err
	}

	if err := s.fileStorage.DeleteFile(ctx, *clinic.LogoURL); err != nil {
		s.logger.Warn("ошибка удаления файла логотипа", zap.String("url", *clinic.LogoURL), zap.Error(err))
	}

	return nil
}

// Search lists APPROVED clinics only, whatever status the filter asks for.
func (s *ClinicServiceImpl) Search(ctx context.Context, filter domain.ClinicFilter) ([]domain.Clinic, int, error) {
	filter.Status = PointerTo(domain.ClinicStatusApproved)

	clinics, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка поиска клиник", zap.Error(err))
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка подсчета клиник", zap.Error(err))
		return nil, 0, err
	}

	return clinics, total, nil
}

func (s *ClinicServiceImpl) GetPublic(ctx context.Context, id int64) (*domain.ClinicDetails, error) {
	clinic, err := approvedClinic(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	services, err := s.serviceRepo.ListByClinic(ctx, id, true)
	if err != nil {
		s.logger.Error("ошибка получения услуг клиники", zap.Int64("clinicID", id), zap.Error(err))
		return nil, err
	}

	doctors, err := s.doctorRepo.ListByClinic(ctx, id, true)
	if err != nil {
		s.logger.Error("ошибка получения врачей клиники", zap.Int64("clinicID", id), zap.Error(err))
		return nil, err
	}

	return &domain.ClinicDetails{
		Clinic:   *clinic,
		Services: services,
		Doctors:  doctors,
	}, nil
}
