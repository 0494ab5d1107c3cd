package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/mocks"
	"github.com/lorrc/helpdesk-backend/internal/core/services"
)

func newSLAServiceFixture() (*mocks.MockSLAPolicyRepository, *services.SLAService) {
	repo := mocks.NewMockSLAPolicyRepository()
	svc := services.NewSLAService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), func() time.Time { return fixedNow })
	return repo, svc.(*services.SLAService)
}

func TestSLAService_Policy(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the stored policy", func(t *testing.T) {
		repo, svc := newSLAServiceFixture()
		stored := domain.SLAPolicy{Low: 72, Medium: 36, High: 12, Critical: 2}
		repo.On("GetOrCreate", ctx).Return(stored, nil)

		policy, err := svc.Policy(ctx)

		require.NoError(t, err)
		assert.Equal(t, stored, policy)
	})

	t.Run("repository failure propagates", func(t *testing.T) {
		repo, svc := newSLAServiceFixture()
		repo.On("GetOrCreate", ctx).Return(domain.SLAPolicy{}, errors.New("db down"))

		_, err := svc.Policy(ctx)

		require.Error(t, err)
	})
}

func TestSLAService_UpdatePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("partial patch merges into the stored policy", func(t *testing.T) {
		repo, svc := newSLAServiceFixture()
		current := domain.DefaultSLAPolicy()
		critical := 2
		expected := current
		expected.Critical = 2

		repo.On("GetOrCreate", ctx).Return(current, nil)
		repo.On("Update", ctx, expected).Return(expected, nil)

		updated, err := svc.UpdatePolicy(ctx, domain.SLAPolicyPatch{Critical: &critical})

		require.NoError(t, err)
		assert.Equal(t, expected, updated)
		repo.AssertExpectations(t)
	})

	t.Run("non-positive hours are rejected", func(t *testing.T) {
		repo, svc := newSLAServiceFixture()
		zero := 0
		negative := -4

		for field, patch := range map[string]domain.SLAPolicyPatch{
			"low":      {Low: &zero},
			"critical": {Critical: &negative},
		} {
			_, err := svc.UpdatePolicy(ctx, patch)

			var validationErrs *apperrors.ValidationErrors
			require.ErrorAs(t, err, &validationErrs)
			assert.Contains(t, validationErrs.Errors, field)
		}
		repo.AssertNotCalled(t, "Update")
	})
}

func TestSLAService_DueDateFor(t *testing.T) {
	ctx := context.Background()

	t.Run("deadline derives from the stored policy", func(t *testing.T) {
		repo, svc := newSLAServiceFixture()
		repo.On("GetOrCreate", ctx).Return(domain.SLAPolicy{Low: 48, Medium: 24, High: 8, Critical: 4}, nil)

		due, err := svc.DueDateFor(ctx, domain.PriorityCritical)

		require.NoError(t, err)
		assert.Equal(t, fixedNow.Add(4*time.Hour), due)
	})

	t.Run("unknown priority falls back", func(t *testing.T) {
		repo, svc := newSLAServiceFixture()
		repo.On("GetOrCreate", ctx).Return(domain.DefaultSLAPolicy(), nil)

		due, err := svc.DueDateFor(ctx, domain.TicketPriority("Urgent"))

		require.NoError(t, err)
		assert.Equal(t, fixedNow.Add(domain.FallbackHours*time.Hour), due)
	})

	t.Run("policy read failure propagates", func(t *testing.T) {
		repo, svc := newSLAServiceFixture()
		repo.On("GetOrCreate", ctx).Return(domain.SLAPolicy{}, errors.New("db down"))

		_, err := svc.DueDateFor(ctx, domain.PriorityLow)

		require.Error(t, err)
	})
}
