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

// CommentHandler handles HTTP requests for ticket comments
type CommentHandler struct {
	commentService ports.CommentService
	errorHandler   *ErrorHandler
	logger         *slog.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentService ports.CommentService, errorHandler *ErrorHandler, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		errorHandler:   errorHandler,
		logger:         logger.With("handler", "comment"),
	}
}

// Router sets up a new chi Router for comment routes, intended to be
// mounted under /tickets/{ticketID}.
func (h *CommentHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.HandleListComments)
	r.Post("/", h.HandleCreateComment)
	return r
}

// CreateCommentRequest defines the expected JSON body for creating a comment
type CreateCommentRequest struct {
	Text        string   `json:"text"`
	Attachments []string `json:"attachments"`
	ParentID    *int64   `json:"parentId"`
}

// Validate validates the create comment request
func (r *CreateCommentRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("text", r.Text).
		MaxLength("text", r.Text, domain.MaxCommentLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// HandleListComments handles GET /tickets/{ticketID}/comments
func (h *CommentHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	comments, err := h.commentService.GetCommentsForTicket(r.Context(), ticketID, claims.UserID, claims.Role)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toCommentSnapshots(comments))
}

// HandleCreateComment handles POST /tickets/{ticketID}/comments
func (h *CommentHandler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[CreateCommentRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	comment, err := h.commentService.CreateComment(r.Context(), ports.CreateCommentParams{
		TicketID:    ticketID,
		ActorID:     claims.UserID,
		ActorRole:   claims.Role,
		Text:        req.Text,
		Attachments: req.Attachments,
		ParentID:    req.ParentID,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("comment created",
		"ticket_id", ticketID,
		"comment_id", comment.ID,
		"user_id", claims.UserID,
	)

	WriteCreated(w, domain.NewCommentSnapshot(comment))
}

func (h *CommentHandler) parseTicketID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "ticketID")
	ticketID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ticketID <= 0 {
		return 0, apperrors.NewBadRequestError(err, "Invalid ticket ID")
	}
	return ticketID, nil
}
