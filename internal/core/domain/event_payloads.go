package domain

import (
	"strconv"
	"time"
)

// CommentSnapshot matches the API response shape for comments.
type CommentSnapshot struct {
	ID          string   `json:"id"`
	TicketID    int64    `json:"ticketId"`
	AuthorID    string   `json:"authorId"`
	Text        string   `json:"text"`
	Attachments []string `json:"attachments,omitempty"`
	ParentID    *int64   `json:"parentId,omitempty"`
	CreatedAt   string   `json:"createdAt"`
}

// TicketSnapshot matches the API response shape for tickets.
type TicketSnapshot struct {
	ID              int64         `json:"id"`
	Code            string        `json:"code"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Status          string        `json:"status"`
	Priority        string        `json:"priority"`
	CategoryID      *int64        `json:"categoryId"`
	DepartmentID    *int64        `json:"departmentId"`
	Attachments     []string      `json:"attachments,omitempty"`
	CreatedBy       string        `json:"createdBy"`
	AssignedTo      *string       `json:"assignedTo"`
	SLADueDate      string        `json:"slaDueDate"`
	IsSLABreached   bool          `json:"isSlaBreached"`
	SLAReminderSent bool          `json:"slaReminderSent"`
	ClosureReason   *string       `json:"closureReason"`
	ResolutionNotes string        `json:"resolutionNotes,omitempty"`
	ClosureDate     *string       `json:"closureDate"`
	TotalTimeSpent  *int64        `json:"totalTimeSpentMs"`
	ReopenedAt      *string       `json:"reopenedAt"`
	StatusHistory   []StatusStamp `json:"statusHistory,omitempty"`
	CreatedAt       string        `json:"createdAt"`
	UpdatedAt       *string       `json:"updatedAt"`
}

// HistorySnapshot matches the API response shape for history entries.
type HistorySnapshot struct {
	ID           int64  `json:"id"`
	TicketID     int64  `json:"ticketId"`
	FieldChanged string `json:"fieldChanged"`
	OldValue     string `json:"oldValue"`
	NewValue     string `json:"newValue"`
	ChangedBy    string `json:"changedBy"`
	ChangedAt    string `json:"changedAt"`
}

// NewCommentSnapshot builds a comment snapshot from a domain comment.
func NewCommentSnapshot(comment *Comment) CommentSnapshot {
	return CommentSnapshot{
		ID:          strconv.FormatInt(comment.ID, 10),
		TicketID:    comment.TicketID,
		AuthorID:    comment.AuthorID.String(),
		Text:        comment.Text,
		Attachments: comment.Attachments,
		ParentID:    comment.ParentID,
		CreatedAt:   comment.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewTicketSnapshot builds a ticket snapshot from a domain ticket.
func NewTicketSnapshot(ticket *Ticket) TicketSnapshot {
	snap := TicketSnapshot{
		ID:              ticket.ID,
		Code:            ticket.Code,
		Title:           ticket.Title,
		Description:     ticket.Description,
		Status:          string(ticket.Status),
		Priority:        string(ticket.Priority),
		CategoryID:      ticket.CategoryID,
		DepartmentID:    ticket.DepartmentID,
		Attachments:     ticket.Attachments,
		CreatedBy:       ticket.CreatedBy.String(),
		SLADueDate:      ticket.SLADueDate.UTC().Format(time.RFC3339),
		IsSLABreached:   ticket.IsSLABreached,
		SLAReminderSent: ticket.SLAReminderSent,
		ResolutionNotes: ticket.ResolutionNotes,
		TotalTimeSpent:  ticket.TotalTimeSpentMS,
		StatusHistory:   ticket.StatusHistory,
		CreatedAt:       ticket.CreatedAt.UTC().Format(time.RFC3339),
	}

	if ticket.AssignedTo != nil {
		value := ticket.AssignedTo.String()
		snap.AssignedTo = &value
	}
	if ticket.ClosureReason != nil {
		value := string(*ticket.ClosureReason)
		snap.ClosureReason = &value
	}
	if ticket.ClosureDate != nil {
		value := ticket.ClosureDate.UTC().Format(time.RFC3339)
		snap.ClosureDate = &value
	}
	if ticket.ReopenedAt != nil {
		value := ticket.ReopenedAt.UTC().Format(time.RFC3339)
		snap.ReopenedAt = &value
	}
	if ticket.UpdatedAt != nil {
		value := ticket.UpdatedAt.UTC().Format(time.RFC3339)
		snap.UpdatedAt = &value
	}

	return snap
}

// NewHistorySnapshot builds a history snapshot from a domain entry.
func NewHistorySnapshot(entry *HistoryEntry) HistorySnapshot {
	return HistorySnapshot{
		ID:           entry.ID,
		TicketID:     entry.TicketID,
		FieldChanged: string(entry.FieldChanged),
		OldValue:     entry.OldValue,
		NewValue:     entry.NewValue,
		ChangedBy:    entry.ChangedBy.String(),
		ChangedAt:    entry.ChangedAt.UTC().Format(time.RFC3339),
	}
}
