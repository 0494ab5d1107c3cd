package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// TaxonomyHandler handles HTTP requests for categories and departments
type TaxonomyHandler struct {
	taxonomyService ports.TaxonomyService
	errorHandler    *ErrorHandler
	logger          *slog.Logger
}

// NewTaxonomyHandler creates a new taxonomy handler
func NewTaxonomyHandler(taxonomyService ports.TaxonomyService, errorHandler *ErrorHandler, logger *slog.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{
		taxonomyService: taxonomyService,
		errorHandler:    errorHandler,
		logger:          logger.With("handler", "taxonomy"),
	}
}

// RegisterCategoryRoutes sets up the routing for category endpoints.
// Listing is open to all authenticated users; management requires admin.
func (h *TaxonomyHandler) RegisterCategoryRoutes(r chi.Router) {
	r.Get("/", h.HandleListCategories)
}

// RegisterDepartmentRoutes sets up the routing for department endpoints.
func (h *TaxonomyHandler) RegisterDepartmentRoutes(r chi.Router) {
	r.Get("/", h.HandleListDepartments)
}

// RegisterAdminRoutes sets up the admin-only taxonomy management routes.
func (h *TaxonomyHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/categories", h.HandleCreateCategory)
	r.Delete("/categories/{id}", h.HandleDeactivateCategory)
	r.Post("/departments", h.HandleCreateDepartment)
	r.Delete("/departments/{id}", h.HandleDeactivateDepartment)
}

// TaxonomyRequest defines the expected JSON body for creating a category or department
type TaxonomyRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate validates the taxonomy request
func (r *TaxonomyRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("name", r.Name).
		MaxLength("name", r.Name, 255)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// HandleListCategories handles GET /categories
func (h *TaxonomyHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	activeOnly := validation.ParseBoolQueryParam(r, "activeOnly", true)

	categories, err := h.taxonomyService.ListCategories(r.Context(), activeOnly)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	dtos := make([]TaxonomyDTO, 0, len(categories))
	for _, c := range categories {
		dtos = append(dtos, toCategoryDTO(c))
	}
	WriteList(w, dtos)
}

// HandleListDepartments handles GET /departments
func (h *TaxonomyHandler) HandleListDepartments(w http.ResponseWriter, r *http.Request) {
	activeOnly := validation.ParseBoolQueryParam(r, "activeOnly", true)

	departments, err := h.taxonomyService.ListDepartments(r.Context(), activeOnly)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	dtos := make([]TaxonomyDTO, 0, len(departments))
	for _, d := range departments {
		dtos = append(dtos, toDepartmentDTO(d))
	}
	WriteList(w, dtos)
}

// HandleCreateCategory handles POST /admin/categories
func (h *TaxonomyHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[TaxonomyRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	category, err := h.taxonomyService.CreateCategory(r.Context(), domain.TaxonomyParams{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("category created", "category_id", category.ID, "name", category.Name)

	WriteCreated(w, toCategoryDTO(category))
}

// HandleDeactivateCategory handles DELETE /admin/categories/{id}
func (h *TaxonomyHandler) HandleDeactivateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := h.parseID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.taxonomyService.DeactivateCategory(r.Context(), id); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteNoContent(w)
}

// HandleCreateDepartment handles POST /admin/departments
func (h *TaxonomyHandler) HandleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[TaxonomyRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	department, err := h.taxonomyService.CreateDepartment(r.Context(), domain.TaxonomyParams{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("department created", "department_id", department.ID, "name", department.Name)

	WriteCreated(w, toDepartmentDTO(department))
}

// HandleDeactivateDepartment handles DELETE /admin/departments/{id}
func (h *TaxonomyHandler) HandleDeactivateDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := h.parseID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.taxonomyService.DeactivateDepartment(r.Context(), id); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteNoContent(w)
}

func (h *TaxonomyHandler) parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequestError(err, "Invalid ID")
	}
	return id, nil
}
