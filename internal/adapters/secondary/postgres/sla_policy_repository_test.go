package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
)

func TestSLAPolicyRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSLAPolicyRepository(testPool)

	t.Run("first read seeds the defaults", func(t *testing.T) {
		policy, err := repo.GetOrCreate(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultSLAPolicy(), policy)
	})

	t.Run("update persists and reads back", func(t *testing.T) {
		want := domain.SLAPolicy{Low: 72, Medium: 36, High: 12, Critical: 2}

		updated, err := repo.Update(ctx, want)
		require.NoError(t, err)
		assert.Equal(t, want, updated)

		again, err := repo.GetOrCreate(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, again)

		// Restore the defaults for other tests in this package.
		_, err = repo.Update(ctx, domain.DefaultSLAPolicy())
		require.NoError(t, err)
	})
}
