package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk-backend/internal/auth"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
)

func TestTokenManager(t *testing.T) {
	tm := auth.NewTokenManager("test-secret-key", time.Hour)

	t.Run("issue and validate roundtrip", func(t *testing.T) {
		userID := uuid.New()

		token, err := tm.Issue(userID, domain.RoleAgent)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := tm.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, domain.RoleAgent, claims.Role)
		assert.Equal(t, userID.String(), claims.Subject)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		short := auth.NewTokenManager("test-secret-key", -time.Minute)

		token, err := short.Issue(uuid.New(), domain.RoleUser)
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("token signed with a different secret is rejected", func(t *testing.T) {
		other := auth.NewTokenManager("another-secret", time.Hour)

		token, err := other.Issue(uuid.New(), domain.RoleUser)
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage input is rejected", func(t *testing.T) {
		_, err := tm.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}
