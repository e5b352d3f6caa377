package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"dentalhub/config"
	"dentalhub/internal/domain"
	"dentalhub/internal/repository"
	"dentalhub/pkg/auth"
	"dentalhub/pkg/validator"
)

type UserServiceImpl struct {
	repo   repository.UserRepository
	logger *zap.Logger
}

func NewUserService(repo repository.UserRepository, logger *zap.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		repo:   repo,
		logger: logger,
	}
}

func (s *UserServiceImpl) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if domain.KindOf(err) != domain.KindNotFound {
			s.logger.Error("ошибка получения пользователя по ID", zap.Int64("id", id), zap.Error(err))
		}
		return nil, err
	}

	return user, nil
}

func (s *UserServiceImpl) Update(ctx context.Context, id int64, dto domain.UpdateUserDTO) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if dto.FirstName != nil {
		if !validator.ValidateNamePart(*dto.FirstName) {
			return domain.NewValidationError("неверный формат имени")
		}
		dto.FirstName = PointerTo(validator.FormatName(*dto.FirstName))
	}

	if dto.LastName != nil {
		if !validator.ValidateNamePart(*dto.LastName) {
			return domain.NewValidationError("неверный формат фамилии")
		}
		dto.LastName = PointerTo(validator.FormatName(*dto.LastName))
	}

	if dto.Email != nil {
		existingUser, err := s.repo.GetByEmail(ctx, *dto.Email)
		if err == nil && existingUser != nil && existingUser.ID != id {
			return domain.NewConflictError("пользователь с таким email уже существует")
		}
	}

	if dto.Phone != nil {
		if !validator.ValidatePhone(*dto.Phone) {
			return domain.NewValidationError("неверный формат телефона")
		}
		dto.Phone = PointerTo(validator.FormatPhone(*dto.Phone))

		existingUser, err := s.repo.GetByPhone(ctx, *dto.Phone)
		if err == nil && existingUser != nil && existingUser.ID != id {
			return domain.NewConflictError("пользователь с таким телефоном уже существует")
		}
	}

	if err := s.repo.Update(ctx, id, dto); err != nil {
		s.logger.Error("ошибка обновления пользователя", zap.Int64("id", id), zap.Error(err))
		return err
	}

	return nil
}

func (s *UserServiceImpl) UpdatePassword(ctx context.Context, id int64, dto domain.PasswordUpdateDTO) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := auth.VerifyPassword(dto.OldPassword, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return domain.NewValidationError("неверный текущий пароль")
		}
		return err
	}

	hash, err := auth.HashPassword(dto.NewPassword)
	if err != nil {
		s.logger.Error("ошибка при хешировании нового пароля", zap.Error(err))
		return err
	}

	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		s.logger.Error("ошибка обновления пароля", zap.Int64("id", id), zap.Error(err))
		return err
	}

	return nil
}

func (s *UserServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if domain.KindOf(err) != domain.KindNotFound {
			s.logger.Error("ошибка удаления пользователя", zap.Int64("id", id), zap.Error(err))
		}
		return err
	}

	return nil
}

func (s *UserServiceImpl) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, int, error) {
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка получения списка пользователей", zap.Error(err))
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка подсчета пользователей", zap.Error(err))
		return nil, 0, err
	}

	return users, total, nil
}

func (s *UserServiceImpl) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}

	existing, err := s.repo.GetByEmail(ctx, cfg.Email)
	if err == nil {
		if existing.Role == domain.UserRoleAdmin {
			return nil
		}
		s.logger.Info("пользователю назначена роль администратора", zap.Int64("userID", existing.ID))
		return s.repo.UpdateRole(ctx, existing.ID, domain.UserRoleAdmin)
	}
	if domain.KindOf(err) != domain.KindNotFound {
		return err
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	id, err := s.repo.Create(ctx, domain.CreateUserDTO{
		FirstName: "Администратор",
		LastName:  "Платформы",
		Email:     cfg.Email,
		Phone:     validator.FormatPhone(cfg.Phone),
		Password:  hash,
		Role:      domain.UserRoleAdmin,
	})
	if err != nil {
		return err
	}

	s.logger.Info("создан администратор платформы", zap.Int64("userID", id))
	return nil
}
