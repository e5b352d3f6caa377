package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/internal/repository"
	"dentalhub/pkg/auth"
	"dentalhub/pkg/validator"
)

var (
	errInvalidCredentials = &domain.Error{Kind: domain.KindUnauthorized, Message: "неверный логин или пароль"}
	errAccountDisabled    = &domain.Error{Kind: domain.KindForbidden, Message: "аккаунт деактивирован"}
	errInvalidRefresh     = &domain.Error{Kind: domain.KindUnauthorized, Message: "недействительный refresh token"}
	errRefreshExpired     = &domain.Error{Kind: domain.KindUnauthorized, Message: "refresh token истек"}
	errInvalidToken       = &domain.Error{Kind: domain.KindUnauthorized, Message: "недействительный токен"}
)

type AuthServiceImpl struct {
	authRepo repository.AuthRepository
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	now      func() time.Time
	logger   *zap.Logger
}

func NewAuthService(authRepo repository.AuthRepository, userRepo repository.UserRepository, tokens *auth.TokenManager, now func() time.Time, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		authRepo: authRepo,
		userRepo: userRepo,
		tokens:   tokens,
		now:      now,
		logger:   logger,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, dto domain.RegisterRequest) (int64, error) {
	if !validator.ValidateEmail(dto.Email) {
		return 0, domain.NewValidationError("неверный формат email")
	}
	if !validator.ValidatePhone(dto.Phone) {
		return 0, domain.NewValidationError("неверный формат телефона")
	}
	if !validator.ValidateNamePart(dto.FirstName) || !validator.ValidateNamePart(dto.LastName) {
		return 0, domain.NewValidationError("имя и фамилия могут содержать только буквы, пробел и дефис")
	}

	if existing, err := s.userRepo.GetByEmail(ctx, dto.Email); err == nil && existing != nil {
		return 0, domain.NewConflictError("пользователь с таким email уже существует")
	}

	phone := validator.FormatPhone(dto.Phone)
	if existing, err := s.userRepo.GetByPhone(ctx, phone); err == nil && existing != nil {
		return 0, domain.NewConflictError("пользователь с таким телефоном уже существует")
	}

	hash, err := auth.HashPassword(dto.Password)
	if err != nil {
		s.logger.Error("ошибка при хешировании пароля", zap.Error(err))
		return 0, err
	}

	userID, err := s.userRepo.Create(ctx, domain.CreateUserDTO{
		FirstName: validator.FormatName(dto.FirstName),
		LastName:  validator.FormatName(dto.LastName),
		Email:     dto.Email,
		Phone:     phone,
		Password:  hash,
		Role:      domain.UserRoleUnassigned,
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindConflict {
			return 0, err
		}
		s.logger.Error("ошибка при создании пользователя", zap.Error(err))
		return 0, err
	}

	s.logger.Info("зарегистрирован пользователь", zap.Int64("userID", userID))
	return userID, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, dto domain.LoginRequest, userAgent, ip string) (*domain.Tokens, error) {
	user, err := s.userRepo.GetByEmail(ctx, dto.Login)
	if err != nil {
		user, err = s.userRepo.GetByPhone(ctx, validator.FormatPhone(dto.Login))
		if err != nil {
			s.logger.Info("пользователь не найден", zap.String("login", dto.Login))
			return nil, errInvalidCredentials
		}
	}

	if err := auth.VerifyPassword(dto.Password, user.PasswordHash); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("ошибка проверки пароля", zap.Int64("userID", user.ID), zap.Error(err))
		}
		return nil, errInvalidCredentials
	}

	if !user.IsActive {
		return nil, errAccountDisabled
	}

	return s.startSession(ctx, user, userAgent, ip)
}

func (s *AuthServiceImpl) RefreshTokens(ctx context.Context, refreshToken, userAgent, ip string) (*domain.Tokens, error) {
	session, err := s.authRepo.GetSessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, errInvalidRefresh
	}

	if session.ExpiresAt.Before(s.now()) {
		if err := s.authRepo.DeleteSession(ctx, session.ID); err != nil {
			s.logger.Warn("ошибка удаления истекшей сессии", zap.Error(err))
		}
		return nil, errRefreshExpired
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		s.logger.Error("пользователь сессии не найден", zap.Int64("userID", session.UserID), zap.Error(err))
		return nil, errInvalidRefresh
	}

	if !user.IsActive {
		return nil, errAccountDisabled
	}

	if err := s.authRepo.DeleteSession(ctx, session.ID); err != nil {
		s.logger.Warn("ошибка удаления старой сессии", zap.Error(err))
	}

	return s.startSession(ctx, user, userAgent, ip)
}

func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.authRepo.GetSessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		s.logger.Info("сессия не найдена при выходе")
		return nil
	}

	if err := s.authRepo.DeleteSession(ctx, session.ID); err != nil {
		s.logger.Error("ошибка удаления сессии", zap.Error(err))
		return err
	}

	return nil
}

func (s *AuthServiceImpl) ParseToken(_ context.Context, token string) (domain.Identity, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return domain.Identity{}, errInvalidToken
	}

	role := domain.UserRole(claims.Role)
	if claims.UserID <= 0 || !role.Valid() {
		return domain.Identity{}, errInvalidToken
	}

	return domain.Identity{UserID: claims.UserID, Role: role}, nil
}

// IssueTokens drops every session of the user and starts a new one with the stored role.
func (s *AuthServiceImpl) IssueTokens(ctx context.Context, userID int64, userAgent, ip string) (*domain.Tokens, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.authRepo.DeleteSessionsByUserID(ctx, userID); err != nil {
		s.logger.Warn("ошибка удаления сессий пользователя", zap.Int64("userID", userID), zap.Error(err))
	}

	return s.startSession(ctx, user, userAgent, ip)
}

func (s *AuthServiceImpl) startSession(ctx context.Context, user *domain.User, userAgent, ip string) (*domain.Tokens, error) {
	pair, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		s.logger.Error("ошибка генерации токенов", zap.Error(err))
		return nil, err
	}

	now := s.now()
	session := domain.Session{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		RefreshToken: pair.RefreshToken,
		UserAgent:    userAgent,
		IP:           ip,
		ExpiresAt:    now.Add(s.tokens.RefreshTTL()),
		CreatedAt:    now,
	}

	if err := s.authRepo.CreateSession(ctx, session); err != nil {
		s.logger.Error("ошибка сохранения сессии", zap.Error(err))
		return nil, err
	}

	return &domain.Tokens{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}
