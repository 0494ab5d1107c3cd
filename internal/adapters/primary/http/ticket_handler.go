package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/lorrc/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

const maxTicketsPerPage = 100

// TicketHandler handles HTTP requests for tickets
type TicketHandler struct {
	ticketService  ports.TicketService
	exportService  ports.ExportService
	commentHandler *CommentHandler
	errorHandler   *ErrorHandler
	logger         *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(
	ticketService ports.TicketService,
	exportService ports.ExportService,
	commentHandler *CommentHandler,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *TicketHandler {
	return &TicketHandler{
		ticketService:  ticketService,
		exportService:  exportService,
		commentHandler: commentHandler,
		errorHandler:   errorHandler,
		logger:         logger.With("handler", "ticket"),
	}
}

// RegisterRoutes sets up the routing for all ticket endpoints.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListTickets)
	r.Post("/", h.HandleCreateTicket)
	r.Get("/my", h.HandleListMyTickets)
	r.Get("/assigned", h.HandleListAssignedTickets)
	r.Get("/stats", h.HandleTicketStats)
	r.With(mw.RequireRole(domain.RoleAgent, domain.RoleAdmin)).
		Get("/export", h.HandleExportTickets)

	// Routes for a specific ticket
	r.Route("/{ticketID}", func(r chi.Router) {
		r.Get("/", h.HandleGetTicket)
		r.Patch("/", h.HandleUpdateTicket)
		r.Delete("/", h.HandleDeleteTicket)
		r.Get("/details", h.HandleGetTicketDetails)
		r.Get("/history", h.HandleListHistory)
		r.Get("/priority-log", h.HandleListPriorityLog)

		// Mount the comment routes nested under /tickets/{ticketID}
		if h.commentHandler != nil {
			r.Mount("/comments", h.commentHandler.Router())
		}
	})
}

// --- Request/Response DTOs ---

// CreateTicketRequest defines the expected JSON body for creating a ticket
type CreateTicketRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Priority     string   `json:"priority"`
	CategoryID   *int64   `json:"categoryId"`
	DepartmentID *int64   `json:"departmentId"`
	Attachments  []string `json:"attachments"`
}

// Validate validates the create ticket request
func (r *CreateTicketRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("title", r.Title).
		MaxLength("title", r.Title, domain.MaxTitleLength)

	v.Required("description", r.Description).
		MaxLength("description", r.Description, domain.MaxDescriptionLength)

	v.Required("priority", r.Priority).
		OneOf("priority", r.Priority, priorityNames())

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateTicketRequest defines the expected JSON body for a ticket update.
// Absent fields leave the corresponding ticket field untouched.
type UpdateTicketRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Status          *string `json:"status"`
	Priority        *string `json:"priority"`
	AssignedTo      *string `json:"assignedTo"`
	Unassign        bool    `json:"unassign"`
	CategoryID      *int64  `json:"categoryId"`
	DepartmentID    *int64  `json:"departmentId"`
	ClosureReason   *string `json:"closureReason"`
	ResolutionNotes *string `json:"resolutionNotes"`
}

// Validate validates the update ticket request
func (r *UpdateTicketRequest) Validate() error {
	v := validation.NewValidator()

	if r.Title != nil {
		v.Required("title", *r.Title).
			MaxLength("title", *r.Title, domain.MaxTitleLength)
	}
	if r.Description != nil {
		v.MaxLength("description", *r.Description, domain.MaxDescriptionLength)
	}
	if r.Status != nil {
		v.OneOf("status", *r.Status, statusNames())
	}
	if r.Priority != nil {
		v.OneOf("priority", *r.Priority, priorityNames())
	}
	if r.AssignedTo != nil {
		v.UUID("assignedTo", *r.AssignedTo)
	}
	if r.ClosureReason != nil {
		v.OneOf("closureReason", *r.ClosureReason, closureReasonNames())
	}
	if r.ResolutionNotes != nil {
		v.MaxLength("resolutionNotes", *r.ResolutionNotes, domain.MaxNotesLength)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// TicketDetailsResponse bundles a ticket with its related records.
type TicketDetailsResponse struct {
	Ticket      domain.TicketSnapshot    `json:"ticket"`
	History     []domain.HistorySnapshot `json:"history"`
	PriorityLog []PriorityChangeDTO      `json:"priorityLog"`
	Comments    []domain.CommentSnapshot `json:"comments"`
	Requester   *UserDTO                 `json:"requester,omitempty"`
	Assignee    *UserDTO                 `json:"assignee,omitempty"`
	Category    *TaxonomyDTO             `json:"category,omitempty"`
	Department  *TaxonomyDTO             `json:"department,omitempty"`
}

func statusNames() []string {
	names := make([]string, 0, len(domain.AllStatuses))
	for _, s := range domain.AllStatuses {
		names = append(names, string(s))
	}
	return names
}

func priorityNames() []string {
	names := make([]string, 0, len(domain.AllPriorities))
	for _, p := range domain.AllPriorities {
		names = append(names, string(p))
	}
	return names
}

func closureReasonNames() []string {
	names := make([]string, 0, len(domain.AllClosureReasons))
	for _, c := range domain.AllClosureReasons {
		names = append(names, string(c))
	}
	return names
}

// --- Handlers ---

// HandleListTickets handles GET /tickets
func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	filter, verr := h.parseTicketFilter(r)
	if verr != nil {
		h.errorHandler.Handle(w, r, verr)
		return
	}

	params := ports.ListTicketsParams{
		ViewerID:   claims.UserID,
		ViewerRole: claims.Role,
		Filter:     *filter,
	}

	tickets, total, err := h.ticketService.ListTickets(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WritePaginated(w, toTicketSnapshots(tickets), filter.Limit, filter.Offset, total)
}

// HandleListMyTickets handles GET /tickets/my
func (h *TicketHandler) HandleListMyTickets(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	filter, verr := h.parseTicketFilter(r)
	if verr != nil {
		h.errorHandler.Handle(w, r, verr)
		return
	}

	viewerID := claims.UserID
	filter.CreatedBy = &viewerID

	params := ports.ListTicketsParams{
		ViewerID:   claims.UserID,
		ViewerRole: claims.Role,
		Filter:     *filter,
	}

	tickets, total, err := h.ticketService.ListTickets(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WritePaginated(w, toTicketSnapshots(tickets), filter.Limit, filter.Offset, total)
}

// HandleListAssignedTickets handles GET /tickets/assigned
func (h *TicketHandler) HandleListAssignedTickets(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	filter, verr := h.parseTicketFilter(r)
	if verr != nil {
		h.errorHandler.Handle(w, r, verr)
		return
	}

	viewerID := claims.UserID
	filter.AssignedTo = &viewerID
	filter.Unassigned = false

	params := ports.ListTicketsParams{
		ViewerID:   claims.UserID,
		ViewerRole: claims.Role,
		Filter:     *filter,
	}

	tickets, total, err := h.ticketService.ListTickets(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WritePaginated(w, toTicketSnapshots(tickets), filter.Limit, filter.Offset, total)
}

// HandleCreateTicket handles POST /tickets
func (h *TicketHandler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[CreateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.CreateTicketParams{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     domain.TicketPriority(req.Priority),
		CategoryID:   req.CategoryID,
		DepartmentID: req.DepartmentID,
		Attachments:  req.Attachments,
		CreatedBy:    claims.UserID,
	}

	ticket, err := h.ticketService.CreateTicket(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket created",
		"ticket_id", ticket.ID,
		"ticket_code", ticket.Code,
		"user_id", claims.UserID,
	)

	WriteCreated(w, domain.NewTicketSnapshot(ticket))
}

// HandleGetTicket handles GET /tickets/{ticketID}
func (h *TicketHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.GetTicket(r.Context(), ticketID, claims.UserID, claims.Role)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, domain.NewTicketSnapshot(ticket))
}

// HandleGetTicketDetails handles GET /tickets/{ticketID}/details
func (h *TicketHandler) HandleGetTicketDetails(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	details, err := h.ticketService.GetTicketDetails(r.Context(), ticketID, claims.UserID, claims.Role)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := TicketDetailsResponse{
		Ticket:      domain.NewTicketSnapshot(details.Ticket),
		History:     toHistorySnapshots(details.History),
		PriorityLog: toPriorityChangeDTOs(details.PriorityLog),
		Comments:    toCommentSnapshots(details.Comments),
	}
	if details.Requester != nil {
		dto := toUserDTO(details.Requester)
		response.Requester = &dto
	}
	if details.Assignee != nil {
		dto := toUserDTO(details.Assignee)
		response.Assignee = &dto
	}
	if details.Category != nil {
		dto := toCategoryDTO(details.Category)
		response.Category = &dto
	}
	if details.Department != nil {
		dto := toDepartmentDTO(details.Department)
		response.Department = &dto
	}

	WriteJSON(w, http.StatusOK, response)
}

// HandleUpdateTicket handles PATCH /tickets/{ticketID}
func (h *TicketHandler) HandleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateTicketParams{
		TicketID:        ticketID,
		ActorID:         claims.UserID,
		ActorRole:       claims.Role,
		Title:           req.Title,
		Description:     req.Description,
		Unassign:        req.Unassign,
		CategoryID:      req.CategoryID,
		DepartmentID:    req.DepartmentID,
		ResolutionNotes: req.ResolutionNotes,
	}

	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		params.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TicketPriority(*req.Priority)
		params.Priority = &priority
	}
	if req.ClosureReason != nil {
		reason := domain.ClosureReason(*req.ClosureReason)
		params.ClosureReason = &reason
	}
	if req.AssignedTo != nil {
		assigneeID, parseErr := uuid.Parse(*req.AssignedTo)
		if parseErr != nil {
			h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(parseErr, "Invalid assignee ID"))
			return
		}
		params.AssignedTo = &assigneeID
	}

	ticket, err := h.ticketService.UpdateTicket(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket updated",
		"ticket_id", ticketID,
		"user_id", claims.UserID,
	)

	WriteJSON(w, http.StatusOK, domain.NewTicketSnapshot(ticket))
}

// HandleDeleteTicket handles DELETE /tickets/{ticketID}
func (h *TicketHandler) HandleDeleteTicket(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.ticketService.DeleteTicket(r.Context(), ticketID, claims.UserID, claims.Role); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket deleted",
		"ticket_id", ticketID,
		"user_id", claims.UserID,
	)

	WriteNoContent(w)
}

// HandleListHistory handles GET /tickets/{ticketID}/history
func (h *TicketHandler) HandleListHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	entries, err := h.ticketService.ListHistory(r.Context(), ticketID, claims.UserID, claims.Role)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toHistorySnapshots(entries))
}

// HandleListPriorityLog handles GET /tickets/{ticketID}/priority-log
func (h *TicketHandler) HandleListPriorityLog(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	changes, err := h.ticketService.ListPriorityLog(r.Context(), ticketID, claims.UserID, claims.Role)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toPriorityChangeDTOs(changes))
}

// HandleTicketStats handles GET /tickets/stats
func (h *TicketHandler) HandleTicketStats(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	// Regular users see stats scoped to their own tickets
	var scope *uuid.UUID
	if claims.Role == domain.RoleUser {
		userID := claims.UserID
		scope = &userID
	}

	stats, err := h.ticketService.Stats(r.Context(), scope)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}

// HandleExportTickets handles GET /tickets/export
func (h *TicketHandler) HandleExportTickets(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	filter, verr := h.parseTicketFilter(r)
	if verr != nil {
		h.errorHandler.Handle(w, r, verr)
		return
	}

	params := ports.ListTicketsParams{
		ViewerID:   claims.UserID,
		ViewerRole: claims.Role,
		Filter:     *filter,
	}

	data, filename, err := h.exportService.ExportTickets(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("tickets exported",
		"user_id", claims.UserID,
		"filename", filename,
		"bytes", len(data),
	)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// --- Helpers ---

func (h *TicketHandler) parseTicketID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "ticketID")
	ticketID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ticketID <= 0 {
		return 0, apperrors.NewBadRequestError(err, "Invalid ticket ID")
	}
	return ticketID, nil
}

func (h *TicketHandler) parseTicketFilter(r *http.Request) (*ports.TicketFilter, error) {
	pagination := validation.ParsePagination(r, maxTicketsPerPage)

	filter := ports.TicketFilter{
		CategoryID:   validation.ParseInt64QueryParam(r, "categoryId"),
		DepartmentID: validation.ParseInt64QueryParam(r, "departmentId"),
		Unassigned:   validation.ParseBoolQueryParam(r, "unassigned", false),
		Limit:        pagination.Limit,
		Offset:       pagination.Offset,
	}

	v := validation.NewValidator()

	if status := r.URL.Query().Get("status"); status != "" {
		v.OneOf("status", status, statusNames())
		value := domain.TicketStatus(status)
		filter.Status = &value
	}
	if priority := r.URL.Query().Get("priority"); priority != "" {
		v.OneOf("priority", priority, priorityNames())
		value := domain.TicketPriority(priority)
		filter.Priority = &value
	}
	if assignedTo := r.URL.Query().Get("assignedTo"); assignedTo != "" {
		assigneeID, err := uuid.Parse(assignedTo)
		if err != nil {
			v.Custom("assignedTo", false, "Must be a valid UUID")
		} else {
			filter.AssignedTo = &assigneeID
		}
	}
	if r.URL.Query().Has("breached") {
		breached := validation.ParseBoolQueryParam(r, "breached", false)
		filter.Breached = &breached
	}
	if search := r.URL.Query().Get("search"); search != "" {
		filter.Search = search
	}

	if filter.Unassigned {
		filter.AssignedTo = nil
	}

	if v.HasErrors() {
		return nil, v.Errors()
	}

	return &filter, nil
}
