package http

import (
	"net/http"
	"time"

	mw "github.com/lorrc/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/helpdesk-backend/internal/auth"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
)

// getClaims extracts authenticated user claims from the request context,
// writing a 401 response when they are missing.
func getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := mw.ClaimsFromContext(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Authentication required",
			Code:  "UNAUTHORIZED",
		})
		return nil, false
	}
	return claims, true
}

// UserDTO is a lightweight user reference in responses.
type UserDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
}

func toUserDTO(user *domain.User) UserDTO {
	return UserDTO{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// PriorityChangeDTO is the JSON shape for one priority change log entry.
type PriorityChangeDTO struct {
	ID          int64  `json:"id"`
	TicketID    int64  `json:"ticketId"`
	ChangedBy   string `json:"changedBy"`
	OldPriority string `json:"oldPriority"`
	NewPriority string `json:"newPriority"`
	ChangedAt   string `json:"changedAt"`
}

func toPriorityChangeDTO(change *domain.PriorityChange) PriorityChangeDTO {
	return PriorityChangeDTO{
		ID:          change.ID,
		TicketID:    change.TicketID,
		ChangedBy:   change.ChangedBy.String(),
		OldPriority: string(change.OldPriority),
		NewPriority: string(change.NewPriority),
		ChangedAt:   change.ChangedAt.UTC().Format(time.RFC3339),
	}
}

// NotificationDTO is the JSON shape for one in-app notification.
type NotificationDTO struct {
	ID        int64  `json:"id"`
	TicketID  *int64 `json:"ticketId"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	IsRead    bool   `json:"isRead"`
	CreatedAt string `json:"createdAt"`
}

func toNotificationDTO(n *domain.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		TicketID:  n.TicketID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// TaxonomyDTO is the JSON shape for categories and departments.
type TaxonomyDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"isActive"`
	CreatedAt   string `json:"createdAt"`
}

func toCategoryDTO(c *domain.Category) TaxonomyDTO {
	return TaxonomyDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toDepartmentDTO(d *domain.Department) TaxonomyDTO {
	return TaxonomyDTO{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTicketSnapshots(tickets []*domain.Ticket) []domain.TicketSnapshot {
	response := make([]domain.TicketSnapshot, 0, len(tickets))
	for _, ticket := range tickets {
		response = append(response, domain.NewTicketSnapshot(ticket))
	}
	return response
}

func toHistorySnapshots(entries []*domain.HistoryEntry) []domain.HistorySnapshot {
	response := make([]domain.HistorySnapshot, 0, len(entries))
	for _, entry := range entries {
		response = append(response, domain.NewHistorySnapshot(entry))
	}
	return response
}

func toCommentSnapshots(comments []*domain.Comment) []domain.CommentSnapshot {
	response := make([]domain.CommentSnapshot, 0, len(comments))
	for _, comment := range comments {
		response = append(response, domain.NewCommentSnapshot(comment))
	}
	return response
}

func toPriorityChangeDTOs(changes []*domain.PriorityChange) []PriorityChangeDTO {
	response := make([]PriorityChangeDTO, 0, len(changes))
	for _, change := range changes {
		response = append(response, toPriorityChangeDTO(change))
	}
	return response
}

func toNotificationDTOs(notifications []*domain.Notification) []NotificationDTO {
	response := make([]NotificationDTO, 0, len(notifications))
	for _, n := range notifications {
		response = append(response, toNotificationDTO(n))
	}
	return response
}
