package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
)

// MaxCommentLength bounds comment text.
const MaxCommentLength = 5000

// Comment is a threaded discussion entry on a ticket.
type Comment struct {
	ID          int64
	TicketID    int64
	AuthorID    uuid.UUID
	Text        string
	Attachments []string
	ParentID    *int64
	CreatedAt   time.Time
}

// CommentParams holds the validated input for creating a comment.
type CommentParams struct {
	TicketID    int64
	AuthorID    uuid.UUID
	Text        string
	Attachments []string
	ParentID    *int64
}

// NewComment builds a valid comment.
func NewComment(params CommentParams) (*Comment, error) {
	errs := apperrors.NewValidationErrors()

	if params.Text == "" {
		errs.Add("text", "Comment text is required")
	} else if len(params.Text) > MaxCommentLength {
		errs.Add("text", "Comment text exceeds maximum length")
	}

	if params.TicketID <= 0 {
		errs.Add("ticketId", "Ticket ID is required")
	}

	if params.AuthorID == uuid.Nil {
		errs.Add("authorId", "Author ID is required")
	}

	if errs.HasErrors() {
		return nil, errs
	}

	return &Comment{
		TicketID:    params.TicketID,
		AuthorID:    params.AuthorID,
		Text:        params.Text,
		Attachments: params.Attachments,
		ParentID:    params.ParentID,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
