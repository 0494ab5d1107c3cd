package http

import (
	"encoding/json"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "github.com/lorrc/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/helpdesk-backend/internal/auth"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/services"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMeRouter() (*chi.Mux, *auth.TokenManager) {
	logger := discardLogger()
	meHandler := NewMeHandler(services.NewAuthorizationService(), NewErrorHandler(logger), logger)
	tokenManager := auth.NewTokenManager("test-secret", time.Hour)

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(mw.JWTMiddleware(tokenManager))
		r.Route("/me", meHandler.RegisterRoutes)
	})
	return router, tokenManager
}

func TestMe(t *testing.T) {
	router, tokenManager := newMeRouter()
	userID := uuid.New()
	token, err := tokenManager.Issue(userID, domain.RoleAgent)
	require.NoError(t, err)

	req := httptest.NewRequest(stdhttp.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response MeResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, userID.String(), response.UserID)
	assert.Equal(t, "agent", response.Role)
}

func TestMePermissions(t *testing.T) {
	router, tokenManager := newMeRouter()
	token, err := tokenManager.Issue(uuid.New(), domain.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(stdhttp.MethodGet, "/me/permissions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response PermissionsResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	require.NotEmpty(t, response.Permissions)
	assert.Contains(t, response.Permissions, services.PermTicketsDelete)
	assert.Contains(t, response.Permissions, services.PermSLAManage)

	sorted := append([]string(nil), response.Permissions...)
	sort.Strings(sorted)
	assert.Equal(t, sorted, response.Permissions)
}

func TestMePermissions_Unauthorized(t *testing.T) {
	router, _ := newMeRouter()

	req := httptest.NewRequest(stdhttp.MethodGet, "/me/permissions", nil)
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)
}

func TestMePermissions_BadToken(t *testing.T) {
	router, _ := newMeRouter()

	req := httptest.NewRequest(stdhttp.MethodGet, "/me/permissions", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)
}
