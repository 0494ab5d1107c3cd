package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mw "github.com/lorrc/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/helpdesk-backend/internal/auth"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/mocks"
)

func newAdminRouter(slaService *mocks.MockSLAService) (*chi.Mux, *auth.TokenManager) {
	logger := discardLogger()
	adminHandler := NewAdminHandler(slaService, mocks.NewMockDashboardService(), NewErrorHandler(logger), logger)
	tokenManager := auth.NewTokenManager("test-secret", time.Hour)

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(mw.JWTMiddleware(tokenManager))
		r.Use(mw.RequireRole(domain.RoleAdmin))
		r.Route("/admin", adminHandler.RegisterRoutes)
	})
	return router, tokenManager
}

func adminToken(t *testing.T, tokenManager *auth.TokenManager, role domain.Role) string {
	t.Helper()
	token, err := tokenManager.Issue(uuid.New(), role)
	require.NoError(t, err)
	return token
}

func TestGetSLAPolicy(t *testing.T) {
	slaService := mocks.NewMockSLAService()
	slaService.On("Policy", mock.Anything).Return(domain.DefaultSLAPolicy(), nil)
	router, tokenManager := newAdminRouter(slaService)

	req := httptest.NewRequest(stdhttp.MethodGet, "/admin/sla-policy", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, tokenManager, domain.RoleAdmin))
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response SLAPolicyDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, SLAPolicyDTO{LowHours: 48, MediumHours: 24, HighHours: 8, CriticalHours: 4}, response)
}

func TestUpdateSLAPolicy(t *testing.T) {
	t.Run("partial update", func(t *testing.T) {
		slaService := mocks.NewMockSLAService()
		slaService.On("UpdatePolicy", mock.Anything, mock.MatchedBy(func(patch domain.SLAPolicyPatch) bool {
			return patch.Critical != nil && *patch.Critical == 2 &&
				patch.Low == nil && patch.Medium == nil && patch.High == nil
		})).Return(domain.SLAPolicy{Low: 48, Medium: 24, High: 8, Critical: 2}, nil)
		router, tokenManager := newAdminRouter(slaService)

		req := httptest.NewRequest(stdhttp.MethodPut, "/admin/sla-policy", strings.NewReader(`{"criticalHours":2}`))
		req.Header.Set("Authorization", "Bearer "+adminToken(t, tokenManager, domain.RoleAdmin))
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		require.Equal(t, stdhttp.StatusOK, recorder.Code)

		var response SLAPolicyDTO
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Equal(t, 2, response.CriticalHours)
		slaService.AssertExpectations(t)
	})

	t.Run("invalid hours yield a validation error", func(t *testing.T) {
		slaService := mocks.NewMockSLAService()
		errs := apperrors.NewValidationErrors()
		errs.Add("critical", "Hours must be a positive integer")
		slaService.On("UpdatePolicy", mock.Anything, mock.Anything).Return(domain.SLAPolicy{}, errs)
		router, tokenManager := newAdminRouter(slaService)

		req := httptest.NewRequest(stdhttp.MethodPut, "/admin/sla-policy", strings.NewReader(`{"criticalHours":0}`))
		req.Header.Set("Authorization", "Bearer "+adminToken(t, tokenManager, domain.RoleAdmin))
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		require.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		slaService := mocks.NewMockSLAService()
		router, tokenManager := newAdminRouter(slaService)

		req := httptest.NewRequest(stdhttp.MethodPut, "/admin/sla-policy", strings.NewReader(`{`))
		req.Header.Set("Authorization", "Bearer "+adminToken(t, tokenManager, domain.RoleAdmin))
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
		slaService.AssertNotCalled(t, "UpdatePolicy")
	})
}

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	slaService := mocks.NewMockSLAService()
	router, tokenManager := newAdminRouter(slaService)

	req := httptest.NewRequest(stdhttp.MethodGet, "/admin/sla-policy", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, tokenManager, domain.RoleAgent))
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusForbidden, recorder.Code)
	slaService.AssertNotCalled(t, "Policy")
}
