package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// AuthService implements registration and login.
type AuthService struct {
	userRepo ports.UserRepository
	tokens   ports.TokenIssuer
	logger   *slog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new auth service.
func NewAuthService(userRepo ports.UserRepository, tokens ports.TokenIssuer, logger *slog.Logger) ports.AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register creates a new account. Self-registration always yields the
// "user" role; elevated roles are granted elsewhere.
func (s *AuthService) Register(ctx context.Context, params domain.UserRegistrationParams) (*domain.User, error) {
	user, err := domain.NewUser(params)
	if err != nil {
		return nil, err
	}

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserExists) {
			return nil, apperrors.NewConflictError(err, "An account with this email already exists")
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", created.ID, "role", created.Role)
	return created, nil
}

// Login verifies credentials and returns the user with a session token.
// Lookup and password failures are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !user.IsActive {
		return nil, "", apperrors.ErrInvalidCredentials
	}
	if !user.CheckPassword(password) {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}
