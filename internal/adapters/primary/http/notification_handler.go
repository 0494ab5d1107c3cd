package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/helpdesk-backend/internal/adapters/primary/validation"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

const maxNotificationsPerPage = 100

// NotificationHandler handles HTTP requests for in-app notifications
type NotificationHandler struct {
	notificationService ports.NotificationService
	errorHandler        *ErrorHandler
	logger              *slog.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(
	notificationService ports.NotificationService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		errorHandler:        errorHandler,
		logger:              logger.With("handler", "notification"),
	}
}

// RegisterRoutes sets up the routing for notification endpoints.
func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListNotifications)
	r.Get("/unread-count", h.HandleUnreadCount)
	r.Post("/read-all", h.HandleMarkAllRead)
	r.Post("/{notificationID}/read", h.HandleMarkRead)
}

// UnreadCountResponse reports the number of unread notifications.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// HandleListNotifications handles GET /notifications
func (h *NotificationHandler) HandleListNotifications(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	pagination := validation.ParsePagination(r, maxNotificationsPerPage)
	unreadOnly := validation.ParseBoolQueryParam(r, "unread", false)

	notifications, err := h.notificationService.List(r.Context(), claims.UserID, unreadOnly, pagination.Limit, pagination.Offset)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toNotificationDTOs(notifications))
}

// HandleUnreadCount handles GET /notifications/unread-count
func (h *NotificationHandler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(r.Context(), claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, UnreadCountResponse{Count: count})
}

// HandleMarkRead handles POST /notifications/{notificationID}/read
func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	raw := chi.URLParam(r, "notificationID")
	notificationID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || notificationID <= 0 {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid notification ID"))
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), notificationID, claims.UserID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteNoContent(w)
}

// HandleMarkAllRead handles POST /notifications/read-all
func (h *NotificationHandler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAllRead(r.Context(), claims.UserID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteNoContent(w)
}
