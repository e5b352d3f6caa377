package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/internal/repository"
	"dentalhub/pkg/validator"
)

type OnboardingServiceImpl struct {
	patientRepo     repository.PatientRepository
	clinicRepo      repository.ClinicRepository
	auth            AuthService
	defaultTimezone string
	logger          *zap.Logger
}

func NewOnboardingService(
	patientRepo repository.PatientRepository,
	clinicRepo repository.ClinicRepository,
	auth AuthService,
	defaultTimezone string,
	logger *zap.Logger,
) *OnboardingServiceImpl {
	return &OnboardingServiceImpl{
		patientRepo:     patientRepo,
		clinicRepo:      clinicRepo,
		auth:            auth,
		defaultTimezone: defaultTimezone,
		logger:          logger,
	}
}

func (s *OnboardingServiceImpl) State(ctx context.Context, identity domain.Identity) (domain.OnboardingState, error) {
	var state domain.OnboardingState

	switch identity.Role {
	case domain.UserRolePatient:
		_, err := s.patientRepo.GetByUserID(ctx, identity.UserID)
		if err != nil && domain.KindOf(err) != domain.KindNotFound {
			s.logger.Error("ошибка получения профиля пациента", zap.Int64("userID", identity.UserID), zap.Error(err))
			return state, err
		}
		state.HasPatientProfile = err == nil

	case domain.UserRoleClinicOwner:
		clinic, err := s.clinicRepo.GetByOwnerID(ctx, identity.UserID)
		if err != nil && domain.KindOf(err) != domain.KindNotFound {
			s.logger.Error("ошибка получения клиники владельца", zap.Int64("userID", identity.UserID), zap.Error(err))
			return state, err
		}
		if err == nil {
			state.ClinicStatus = PointerTo(clinic.Status)
		}
	}

	return state, nil
}

func (s *OnboardingServiceImpl) Destination(ctx context.Context, identity domain.Identity) (domain.Destination, error) {
	if identity.Anonymous() {
		return domain.DestinationLogin, nil
	}

	state, err := s.State(ctx, identity)
	if err != nil {
		return "", err
	}

	return Destination(identity, state), nil
}

func (s *OnboardingServiceImpl) OnboardPatient(ctx context.Context, identity domain.Identity, dto domain.OnboardPatientDTO, userAgent, ip string) (*domain.OnboardingResult, error) {
	if identity.Role != domain.UserRoleUnassigned {
		return nil, domain.ErrAlreadyOnboarded
	}

	patient, err := patientFromProfile(domain.Patient{}, dto.PatientProfileDTO)
	if err != nil {
		return nil, err
	}

	patientID, err := s.patientRepo.CreateForUser(ctx, identity.UserID, patient)
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			s.logger.Error("ошибка создания профиля пациента", zap.Int64("userID", identity.UserID), zap.Error(err))
		}
		return nil, err
	}

	tokens, err := s.auth.IssueTokens(ctx, identity.UserID, userAgent, ip)
	if err != nil {
		return nil, err
	}

	s.logger.Info("пользователь зарегистрирован как пациент", zap.Int64("userID", identity.UserID), zap.Int64("patientID", patientID))

	return &domain.OnboardingResult{
		Tokens:      tokens,
		Destination: domain.DestinationPatientDashboard,
		PatientID:   &patientID,
	}, nil
}

func (s *OnboardingServiceImpl) OnboardClinic(ctx context.Context, identity domain.Identity, dto domain.OnboardClinicDTO, userAgent, ip string) (*domain.OnboardingResult, error) {
	if identity.Role != domain.UserRoleUnassigned {
		return nil, domain.ErrAlreadyOnboarded
	}

	clinic, err := s.normalizeClinic(dto.CreateClinicDTO)
	if err != nil {
		return nil, err
	}

	clinicID, err := s.clinicRepo.CreateForOwner(ctx, identity.UserID, clinic)
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			s.logger.Error("ошибка создания клиники", zap.Int64("userID", identity.UserID), zap.Error(err))
		}
		return nil, err
	}

	tokens, err := s.auth.IssueTokens(ctx, identity.UserID, userAgent, ip)
	if err != nil {
		return nil, err
	}

	s.logger.Info("создана клиника на модерацию", zap.Int64("userID", identity.UserID), zap.Int64("clinicID", clinicID))

	return &domain.OnboardingResult{
		Tokens:      tokens,
		Destination: domain.DestinationClinicPending,
		ClinicID:    &clinicID,
	}, nil
}

func (s *OnboardingServiceImpl) normalizeClinic(dto domain.CreateClinicDTO) (domain.CreateClinicDTO, error) {
	dto.Name = validator.SanitizeString(dto.Name)
	dto.Description = validator.SanitizeString(dto.Description)
	dto.Address = validator.SanitizeString(dto.Address)
	dto.City = validator.SanitizeString(dto.City)

	if dto.Name == "" || dto.Address == "" || dto.City == "" {
		return dto, domain.NewValidationError("название, адрес и город клиники обязательны")
	}
	if !validator.ValidateEmail(dto.Email) {
		return dto, domain.NewValidationError("неверный формат email")
	}
	if !validator.ValidatePhone(dto.Phone) {
		return dto, domain.NewValidationError("неверный формат телефона")
	}
	dto.Phone = validator.FormatPhone(dto.Phone)

	dto.Timezone = strings.TrimSpace(dto.Timezone)
	if dto.Timezone == "" {
		dto.Timezone = s.defaultTimezone
	}
	if !validator.ValidateTimezone(dto.Timezone) {
		return dto, domain.NewValidationError("неизвестный часовой пояс: " + dto.Timezone)
	}

	return dto, nil
}
