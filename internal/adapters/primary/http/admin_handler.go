package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// AdminHandler handles admin-only endpoints: SLA policy management and the
// dashboard overview.
type AdminHandler struct {
	slaService       ports.SLAService
	dashboardService ports.DashboardService
	errorHandler     *ErrorHandler
	logger           *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	slaService ports.SLAService,
	dashboardService ports.DashboardService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		slaService:       slaService,
		dashboardService: dashboardService,
		errorHandler:     errorHandler,
		logger:           logger.With("handler", "admin"),
	}
}

// RegisterRoutes sets up the routing for admin endpoints.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sla-policy", h.HandleGetSLAPolicy)
	r.Put("/sla-policy", h.HandleUpdateSLAPolicy)
	r.Get("/dashboard", h.HandleDashboard)
}

// SLAPolicyDTO is the JSON shape for the SLA policy.
type SLAPolicyDTO struct {
	LowHours      int `json:"lowHours"`
	MediumHours   int `json:"mediumHours"`
	HighHours     int `json:"highHours"`
	CriticalHours int `json:"criticalHours"`
}

func toSLAPolicyDTO(policy domain.SLAPolicy) SLAPolicyDTO {
	return SLAPolicyDTO{
		LowHours:      policy.Low,
		MediumHours:   policy.Medium,
		HighHours:     policy.High,
		CriticalHours: policy.Critical,
	}
}

// UpdateSLAPolicyRequest is a partial update: absent fields keep their value.
type UpdateSLAPolicyRequest struct {
	LowHours      *int `json:"lowHours"`
	MediumHours   *int `json:"mediumHours"`
	HighHours     *int `json:"highHours"`
	CriticalHours *int `json:"criticalHours"`
}

// HandleGetSLAPolicy handles GET /admin/sla-policy
func (h *AdminHandler) HandleGetSLAPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.slaService.Policy(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toSLAPolicyDTO(policy))
}

// HandleUpdateSLAPolicy handles PUT /admin/sla-policy
func (h *AdminHandler) HandleUpdateSLAPolicy(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[UpdateSLAPolicyRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	policy, err := h.slaService.UpdatePolicy(r.Context(), domain.SLAPolicyPatch{
		Low:      req.LowHours,
		Medium:   req.MediumHours,
		High:     req.HighHours,
		Critical: req.CriticalHours,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("sla policy updated", "user_id", claims.UserID)

	WriteJSON(w, http.StatusOK, toSLAPolicyDTO(policy))
}

// HandleDashboard handles GET /admin/dashboard
func (h *AdminHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	overview, err := h.dashboardService.Overview(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, overview)
}
