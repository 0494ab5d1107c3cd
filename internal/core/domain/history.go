package domain

import (
	"time"

	"github.com/google/uuid"
)

// HistoryField names the ticket field a history entry records.
type HistoryField string

const (
	FieldStatus          HistoryField = "status"
	FieldAssignedTo      HistoryField = "assignedTo"
	FieldPriority        HistoryField = "priority"
	FieldClosureReason   HistoryField = "closureReason"
	FieldResolutionNotes HistoryField = "resolutionNotes"
)

// UnassignedLabel is recorded as the old value when a ticket gains its first assignee.
const UnassignedLabel = "Unassigned"

// HistoryEntry is one immutable audit record of a single field change.
// Entries are never updated or deleted.
type HistoryEntry struct {
	ID           int64
	TicketID     int64
	FieldChanged HistoryField
	OldValue     string
	NewValue     string
	ChangedBy    uuid.UUID
	ChangedAt    time.Time
}

// PriorityChange is the specialized audit record written alongside the generic
// history entry on every priority change. Redundant by design: it keeps
// priority-trend queries cheap.
type PriorityChange struct {
	ID          int64
	TicketID    int64
	ChangedBy   uuid.UUID
	OldPriority TicketPriority
	NewPriority TicketPriority
	ChangedAt   time.Time
}
