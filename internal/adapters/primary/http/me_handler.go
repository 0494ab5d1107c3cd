package http

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// MeHandler handles HTTP requests for the authenticated user.
type MeHandler struct {
	authzService ports.AuthorizationService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewMeHandler creates a new MeHandler.
func NewMeHandler(
	authzService ports.AuthorizationService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *MeHandler {
	return &MeHandler{
		authzService: authzService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "me"),
	}
}

// RegisterRoutes registers the /me routes.
func (h *MeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleMe)
	r.Get("/permissions", h.HandlePermissions)
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// PermissionsResponse defines the JSON response for user permissions.
type PermissionsResponse struct {
	Permissions []string `json:"permissions"`
}

// HandleMe handles GET /me.
func (h *MeHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, MeResponse{
		UserID: claims.UserID.String(),
		Role:   string(claims.Role),
	})
}

// HandlePermissions handles GET /me/permissions.
func (h *MeHandler) HandlePermissions(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	permissions := h.authzService.Permissions(claims.Role)
	if permissions == nil {
		permissions = []string{}
	}

	sort.Strings(permissions)

	WriteJSON(w, http.StatusOK, PermissionsResponse{
		Permissions: permissions,
	})
}
