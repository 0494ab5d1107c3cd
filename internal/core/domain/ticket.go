package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
)

// Validation limits for ticket fields.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 10000
	MaxNotesLength       = 5000
)

// TicketStatus represents the lifecycle state of a ticket.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "Open"
	StatusAssigned   TicketStatus = "Assigned"
	StatusInProgress TicketStatus = "In Progress"
	StatusPending    TicketStatus = "Pending"
	StatusResolved   TicketStatus = "Resolved"
	StatusClosed     TicketStatus = "Closed"
	StatusReopen     TicketStatus = "Reopen"
	StatusOnHold     TicketStatus = "On Hold"
	StatusCancelled  TicketStatus = "Cancelled"
	StatusWaiting    TicketStatus = "Waiting for Customer"
)

// AllStatuses lists every valid ticket status.
var AllStatuses = []TicketStatus{
	StatusOpen,
	StatusAssigned,
	StatusInProgress,
	StatusPending,
	StatusResolved,
	StatusClosed,
	StatusReopen,
	StatusOnHold,
	StatusCancelled,
	StatusWaiting,
}

// IsValid reports whether the status is one of the known values.
func (s TicketStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status excludes a ticket from SLA scans.
func (s TicketStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusClosed
}

// TicketPriority represents the urgency of a ticket.
type TicketPriority string

const (
	PriorityLow      TicketPriority = "Low"
	PriorityMedium   TicketPriority = "Medium"
	PriorityHigh     TicketPriority = "High"
	PriorityCritical TicketPriority = "Critical"
)

// AllPriorities lists every valid ticket priority.
var AllPriorities = []TicketPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// IsValid reports whether the priority is one of the known values.
func (p TicketPriority) IsValid() bool {
	for _, known := range AllPriorities {
		if p == known {
			return true
		}
	}
	return false
}

// ClosureReason explains why a ticket was closed.
type ClosureReason string

const (
	ClosureResolved   ClosureReason = "Resolved"
	ClosureDuplicate  ClosureReason = "Duplicate"
	ClosureNotABug    ClosureReason = "Not a Bug"
	ClosureOutOfScope ClosureReason = "Out of Scope"
	ClosureUserError  ClosureReason = "User Error"
	ClosureOther      ClosureReason = "Other"
)

// AllClosureReasons lists every valid closure reason.
var AllClosureReasons = []ClosureReason{
	ClosureResolved,
	ClosureDuplicate,
	ClosureNotABug,
	ClosureOutOfScope,
	ClosureUserError,
	ClosureOther,
}

// IsValid reports whether the closure reason is one of the known values.
func (c ClosureReason) IsValid() bool {
	for _, known := range AllClosureReasons {
		if c == known {
			return true
		}
	}
	return false
}

// StatusStamp is one inline status-history entry on a ticket.
type StatusStamp struct {
	Status TicketStatus `json:"status"`
	At     time.Time    `json:"at"`
}

// Ticket is the central domain entity.
type Ticket struct {
	ID           int64
	Code         string // externally visible short code, e.g. "#100042"
	Title        string
	Description  string
	CategoryID   *int64
	DepartmentID *int64
	Attachments  []string

	Status     TicketStatus
	Priority   TicketPriority
	CreatedBy  uuid.UUID
	AssignedTo *uuid.UUID

	SLADueDate      time.Time
	IsSLABreached   bool
	SLAReminderSent bool

	ClosureReason    *ClosureReason
	ResolutionNotes  string
	ClosureDate      *time.Time
	TotalTimeSpentMS *int64
	ReopenedAt       *time.Time

	StatusHistory []StatusStamp

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// TicketParams holds the validated input for creating a ticket.
type TicketParams struct {
	Title        string
	Description  string
	Priority     TicketPriority
	CategoryID   *int64
	DepartmentID *int64
	Attachments  []string
	CreatedBy    uuid.UUID
	SLADueDate   time.Time
	Now          time.Time
}

// NewTicket builds a valid new ticket in the Open state.
func NewTicket(params TicketParams) (*Ticket, error) {
	errs := apperrors.NewValidationErrors()

	if params.Title == "" {
		errs.Add("title", "Title is required")
	} else if len(params.Title) > MaxTitleLength {
		errs.Add("title", "Title must be 255 characters or less")
	}

	if params.Description == "" {
		errs.Add("description", "Description is required")
	} else if len(params.Description) > MaxDescriptionLength {
		errs.Add("description", "Description exceeds maximum length")
	}

	if !params.Priority.IsValid() {
		errs.Add("priority", "Must be one of: Low, Medium, High, Critical")
	}

	if params.CreatedBy == uuid.Nil {
		errs.Add("createdBy", "Requester is required")
	}

	if errs.HasErrors() {
		return nil, errs
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	return &Ticket{
		Title:         params.Title,
		Description:   params.Description,
		CategoryID:    params.CategoryID,
		DepartmentID:  params.DepartmentID,
		Attachments:   params.Attachments,
		Status:        StatusOpen,
		Priority:      params.Priority,
		CreatedBy:     params.CreatedBy,
		SLADueDate:    params.SLADueDate,
		StatusHistory: []StatusStamp{{Status: StatusOpen, At: now}},
		CreatedAt:     now,
	}, nil
}

// IsOwnedBy reports whether the given user raised the ticket.
func (t *Ticket) IsOwnedBy(userID uuid.UUID) bool {
	return t.CreatedBy == userID
}

// IsAssignedTo reports whether the ticket is currently assigned to the given user.
func (t *Ticket) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// NeedsEscalation reports whether a breached ticket shows no visible progress:
// nobody owns it, or it is still sitting in an early status.
func (t *Ticket) NeedsEscalation() bool {
	return t.AssignedTo == nil || t.Status == StatusOpen || t.Status == StatusInProgress
}

// Touch stamps the ticket as modified at the given time.
func (t *Ticket) Touch(now time.Time) {
	at := now
	t.UpdatedAt = &at
}
