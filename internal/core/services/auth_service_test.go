package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/mocks"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
	"github.com/lorrc/helpdesk-backend/internal/core/services"
)

func newAuthServiceFixture() (*mocks.MockUserRepository, *mocks.MockTokenIssuer, ports.AuthService) {
	userRepo := mocks.NewMockUserRepository()
	tokens := mocks.NewMockTokenIssuer()
	svc := services.NewAuthService(userRepo, tokens, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return userRepo, tokens, svc
}

func activeUser(password string) *domain.User {
	hashed, _ := domain.HashPassword(password)
	return &domain.User{
		ID:             uuid.New(),
		Name:           "Sam Okafor",
		Email:          "sam@example.com",
		HashedPassword: hashed,
		Role:           domain.RoleUser,
		IsActive:       true,
	}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		userRepo, _, svc := newAuthServiceFixture()

		userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).
			Run(func(args mock.Arguments) {
				user := args.Get(1).(*domain.User)
				assert.Equal(t, domain.RoleUser, user.Role)
				assert.True(t, user.IsActive)
				assert.NotEqual(t, "correct horse battery", user.HashedPassword)
			}).
			Return(activeUser("correct horse battery"), nil)

		created, err := svc.Register(ctx, domain.UserRegistrationParams{
			Name:     "Sam Okafor",
			Email:    "sam@example.com",
			Password: "correct horse battery",
		})

		require.NoError(t, err)
		assert.Equal(t, "sam@example.com", created.Email)
		userRepo.AssertExpectations(t)
	})

	t.Run("weak password is rejected", func(t *testing.T) {
		userRepo, _, svc := newAuthServiceFixture()

		_, err := svc.Register(ctx, domain.UserRegistrationParams{
			Name:     "Sam Okafor",
			Email:    "sam@example.com",
			Password: "short",
		})

		require.Error(t, err)
		userRepo.AssertNotCalled(t, "Create")
	})

	t.Run("duplicate email becomes a conflict", func(t *testing.T) {
		userRepo, _, svc := newAuthServiceFixture()

		userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).
			Return(nil, apperrors.ErrUserExists)

		_, err := svc.Register(ctx, domain.UserRegistrationParams{
			Name:     "Sam Okafor",
			Email:    "sam@example.com",
			Password: "correct horse battery",
		})

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 409, appErr.StatusCode)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		userRepo, tokens, svc := newAuthServiceFixture()
		user := activeUser("correct horse battery")

		userRepo.On("GetByEmail", ctx, "sam@example.com").Return(user, nil)
		tokens.On("Issue", user.ID, domain.RoleUser).Return("signed-token", nil)

		got, token, err := svc.Login(ctx, "sam@example.com", "correct horse battery")

		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "signed-token", token)
	})

	t.Run("wrong password", func(t *testing.T) {
		userRepo, tokens, svc := newAuthServiceFixture()
		user := activeUser("correct horse battery")

		userRepo.On("GetByEmail", ctx, "sam@example.com").Return(user, nil)

		_, _, err := svc.Login(ctx, "sam@example.com", "wrong password")

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		tokens.AssertNotCalled(t, "Issue")
	})

	t.Run("unknown email is indistinguishable from a bad password", func(t *testing.T) {
		userRepo, _, svc := newAuthServiceFixture()

		userRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, apperrors.ErrUserNotFound)

		_, _, err := svc.Login(ctx, "nobody@example.com", "whatever password")

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("deactivated account is rejected", func(t *testing.T) {
		userRepo, tokens, svc := newAuthServiceFixture()
		user := activeUser("correct horse battery")
		user.IsActive = false

		userRepo.On("GetByEmail", ctx, "sam@example.com").Return(user, nil)

		_, _, err := svc.Login(ctx, "sam@example.com", "correct horse battery")

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		tokens.AssertNotCalled(t, "Issue")
	})
}
