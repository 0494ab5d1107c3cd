package domain

import "time"

// Default hours-to-resolve per priority.
const (
	DefaultLowHours      = 48
	DefaultMediumHours   = 24
	DefaultHighHours     = 8
	DefaultCriticalHours = 4

	// FallbackHours applies when a ticket carries an unrecognized priority.
	FallbackHours = 24
)

// ReminderWindow is how far ahead of the due date the reminder scan looks.
const ReminderWindow = 30 * time.Minute

// SLAPolicy is the singleton configuration record mapping each priority to an
// hours-to-resolve threshold. It is read fresh on every due-date computation.
type SLAPolicy struct {
	Low      int
	Medium   int
	High     int
	Critical int
}

// DefaultSLAPolicy returns the policy used when no record exists yet.
func DefaultSLAPolicy() SLAPolicy {
	return SLAPolicy{
		Low:      DefaultLowHours,
		Medium:   DefaultMediumHours,
		High:     DefaultHighHours,
		Critical: DefaultCriticalHours,
	}
}

// HoursFor returns the configured hours for a priority, falling back to 24
// for anything unrecognized rather than failing the caller.
func (p SLAPolicy) HoursFor(priority TicketPriority) int {
	switch priority {
	case PriorityCritical:
		return p.Critical
	case PriorityHigh:
		return p.High
	case PriorityMedium:
		return p.Medium
	case PriorityLow:
		return p.Low
	default:
		return FallbackHours
	}
}

// SLAPolicyPatch is a partial update: only non-nil fields change.
type SLAPolicyPatch struct {
	Low      *int
	Medium   *int
	High     *int
	Critical *int
}

// Apply merges the patch into the policy.
func (p SLAPolicy) Apply(patch SLAPolicyPatch) SLAPolicy {
	if patch.Low != nil {
		p.Low = *patch.Low
	}
	if patch.Medium != nil {
		p.Medium = *patch.Medium
	}
	if patch.High != nil {
		p.High = *patch.High
	}
	if patch.Critical != nil {
		p.Critical = *patch.Critical
	}
	return p
}

// ComputeDueDate derives the absolute SLA deadline for a ticket of the given
// priority created at the given instant. Pure and deterministic.
func ComputeDueDate(priority TicketPriority, policy SLAPolicy, now time.Time) time.Time {
	return now.Add(time.Duration(policy.HoursFor(priority)) * time.Hour)
}
