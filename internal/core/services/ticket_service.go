package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// TicketService implements business logic for ticket management. Every
// mutation to a ticket flows through UpdateTicket, which applies the
// requested change set atomically and writes the audit trail alongside it.
type TicketService struct {
	ticketRepo      ports.TicketRepository
	historyRepo     ports.HistoryRepository
	priorityLogRepo ports.PriorityLogRepository
	commentRepo     ports.CommentRepository
	userRepo        ports.UserRepository
	categoryRepo    ports.CategoryRepository
	departmentRepo  ports.DepartmentRepository
	slaSvc          ports.SLAService
	authzSvc        ports.AuthorizationService
	notifier        ports.Notifier
	broadcaster     ports.EventBroadcaster
	txManager       ports.TransactionManager
	logger          *slog.Logger
	clock           func() time.Time
	wg              sync.WaitGroup
}

var _ ports.TicketService = (*TicketService)(nil)

// TicketServiceDeps bundles the collaborators for NewTicketService.
type TicketServiceDeps struct {
	TicketRepo      ports.TicketRepository
	HistoryRepo     ports.HistoryRepository
	PriorityLogRepo ports.PriorityLogRepository
	CommentRepo     ports.CommentRepository
	UserRepo        ports.UserRepository
	CategoryRepo    ports.CategoryRepository
	DepartmentRepo  ports.DepartmentRepository
	SLAService      ports.SLAService
	AuthzService    ports.AuthorizationService
	Notifier        ports.Notifier
	Broadcaster     ports.EventBroadcaster
	TxManager       ports.TransactionManager
	Logger          *slog.Logger
	Clock           func() time.Time
}

// NewTicketService creates a new ticket service.
func NewTicketService(deps TicketServiceDeps) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		ticketRepo:      deps.TicketRepo,
		historyRepo:     deps.HistoryRepo,
		priorityLogRepo: deps.PriorityLogRepo,
		commentRepo:     deps.CommentRepo,
		userRepo:        deps.UserRepo,
		categoryRepo:    deps.CategoryRepo,
		departmentRepo:  deps.DepartmentRepo,
		slaSvc:          deps.SLAService,
		authzSvc:        deps.AuthzService,
		notifier:        deps.Notifier,
		broadcaster:     deps.Broadcaster,
		txManager:       deps.TxManager,
		logger:          deps.Logger,
		clock:           clock,
	}
}

// CreateTicket handles the use case for submitting a new ticket.
func (s *TicketService) CreateTicket(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	dueDate, err := s.slaSvc.DueDateFor(ctx, params.Priority)
	if err != nil {
		return nil, err
	}

	ticket, err := domain.NewTicket(domain.TicketParams{
		Title:        params.Title,
		Description:  params.Description,
		Priority:     params.Priority,
		CategoryID:   params.CategoryID,
		DepartmentID: params.DepartmentID,
		Attachments:  params.Attachments,
		CreatedBy:    params.CreatedBy,
		SLADueDate:   dueDate,
		Now:          s.clock().UTC(),
	})
	if err != nil {
		return nil, err
	}

	created, err := s.ticketRepo.Create(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.broadcastTicketEvent(domain.EventTicketCreated, created)
	return created, nil
}

// GetTicket retrieves a specific ticket with authorization.
func (s *TicketService) GetTicket(ctx context.Context, ticketID int64, viewerID uuid.UUID, viewerRole domain.Role) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ticket, viewerID, viewerRole); err != nil {
		return nil, err
	}
	return ticket, nil
}

// GetTicketDetails retrieves a ticket together with its audit trail,
// comments, and related records.
func (s *TicketService) GetTicketDetails(ctx context.Context, ticketID int64, viewerID uuid.UUID, viewerRole domain.Role) (*ports.TicketDetails, error) {
	ticket, err := s.GetTicket(ctx, ticketID, viewerID, viewerRole)
	if err != nil {
		return nil, err
	}

	details := &ports.TicketDetails{Ticket: ticket}

	if details.History, err = s.historyRepo.ListByTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	if details.PriorityLog, err = s.priorityLogRepo.ListByTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	if details.Comments, err = s.commentRepo.ListByTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	if details.Requester, err = s.userRepo.GetByID(ctx, ticket.CreatedBy); err != nil {
		return nil, err
	}
	if ticket.AssignedTo != nil {
		if details.Assignee, err = s.userRepo.GetByID(ctx, *ticket.AssignedTo); err != nil {
			return nil, err
		}
	}
	if ticket.CategoryID != nil {
		if details.Category, err = s.categoryRepo.GetByID(ctx, *ticket.CategoryID); err != nil {
			return nil, err
		}
	}
	if ticket.DepartmentID != nil {
		if details.Department, err = s.departmentRepo.GetByID(ctx, *ticket.DepartmentID); err != nil {
			return nil, err
		}
	}

	return details, nil
}

// changeSummary records which follow-up signals an update produced.
type changeSummary struct {
	statusChanged   bool
	oldStatus       domain.TicketStatus
	closed          bool
	reopened        bool
	assignChanged   bool
	newAssignee     *uuid.UUID
	priorityChanged bool
}

// UpdateTicket applies a change set to a ticket atomically: the ticket row,
// its history entries, and any priority log entry commit together or not at
// all. Follow-up notifications are dispatched concurrently after commit and
// awaited before returning; their failures are logged, never surfaced.
func (s *TicketService) UpdateTicket(ctx context.Context, params ports.UpdateTicketParams) (*domain.Ticket, error) {
	if !s.authzSvc.Can(params.ActorRole, PermTicketsUpdate) {
		return nil, apperrors.ErrForbidden
	}

	var (
		updated *domain.Ticket
		summary changeSummary
	)

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
		if err != nil {
			return err
		}

		now := s.clock().UTC()
		summary, err = s.applyChangeSet(ctx, ticket, params, now)
		if err != nil {
			return err
		}

		ticket.Touch(now)
		if err := s.ticketRepo.Update(ctx, ticket); err != nil {
			return err
		}

		updated = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatchUpdateSignals(updated, params.ActorID, summary)
	return updated, nil
}

// applyChangeSet mutates the ticket per the requested change set, writing
// audit records in the same transaction. Rules run in a fixed order:
// closure, reopen, status, assignment, priority.
func (s *TicketService) applyChangeSet(ctx context.Context, ticket *domain.Ticket, params ports.UpdateTicketParams, now time.Time) (changeSummary, error) {
	var summary changeSummary

	if params.Title != nil {
		ticket.Title = *params.Title
	}
	if params.Description != nil {
		ticket.Description = *params.Description
	}
	if params.CategoryID != nil {
		ticket.CategoryID = params.CategoryID
	}
	if params.DepartmentID != nil {
		ticket.DepartmentID = params.DepartmentID
	}

	// Closure rule: closing demands a reason before anything mutates;
	// moving to any other status clears the closure fields.
	if params.Status != nil {
		if !params.Status.IsValid() {
			errs := apperrors.NewValidationErrors()
			errs.Add("status", "Must be a recognized ticket status")
			return summary, errs
		}

		if *params.Status == domain.StatusClosed {
			reason := params.ClosureReason
			if reason == nil {
				errs := apperrors.NewValidationErrors()
				errs.Add("closureReason", "Closure reason is required when closing a ticket")
				return summary, errs
			}
			if !reason.IsValid() {
				errs := apperrors.NewValidationErrors()
				errs.Add("closureReason", "Must be a recognized closure reason")
				return summary, errs
			}

			ticket.ClosureReason = reason
			if params.ResolutionNotes != nil {
				ticket.ResolutionNotes = *params.ResolutionNotes
			}
			closedAt := now
			ticket.ClosureDate = &closedAt
			spent := now.Sub(ticket.CreatedAt).Milliseconds()
			ticket.TotalTimeSpentMS = &spent
		} else {
			ticket.ClosureReason = nil
			ticket.ResolutionNotes = ""
			ticket.ClosureDate = nil
		}

		// Reopen rule: stamp the reopen, discard the elapsed-time figure,
		// and give the ticket a fresh SLA window.
		if *params.Status == domain.StatusReopen {
			reopenedAt := now
			ticket.ReopenedAt = &reopenedAt
			ticket.TotalTimeSpentMS = nil
			ticket.IsSLABreached = false
			ticket.SLAReminderSent = false

			dueDate, err := s.slaSvc.DueDateFor(ctx, ticket.Priority)
			if err != nil {
				return summary, err
			}
			ticket.SLADueDate = dueDate
			summary.reopened = true
		}

		// Status rule: record the transition and extend the audit narrative
		// with the closure context when the new status is Closed.
		if *params.Status != ticket.Status {
			summary.statusChanged = true
			summary.oldStatus = ticket.Status

			if err := s.recordHistory(ctx, ticket.ID, domain.FieldStatus, string(ticket.Status), string(*params.Status), params.ActorID, now); err != nil {
				return summary, err
			}

			if *params.Status == domain.StatusClosed {
				summary.closed = true
				if err := s.recordHistory(ctx, ticket.ID, domain.FieldClosureReason, "", string(*ticket.ClosureReason), params.ActorID, now); err != nil {
					return summary, err
				}
				if ticket.ResolutionNotes != "" {
					if err := s.recordHistory(ctx, ticket.ID, domain.FieldResolutionNotes, "", ticket.ResolutionNotes, params.ActorID, now); err != nil {
						return summary, err
					}
				}
			}

			ticket.Status = *params.Status
			ticket.StatusHistory = append(ticket.StatusHistory, domain.StatusStamp{Status: ticket.Status, At: now})
		}
	}

	// Assignment rule: resolve display names for the audit entry so the
	// history reads as people, not identifiers.
	if params.Unassign && ticket.AssignedTo != nil {
		oldName, err := s.assigneeName(ctx, ticket.AssignedTo)
		if err != nil {
			return summary, err
		}
		if err := s.recordHistory(ctx, ticket.ID, domain.FieldAssignedTo, oldName, domain.UnassignedLabel, params.ActorID, now); err != nil {
			return summary, err
		}
		ticket.AssignedTo = nil
		summary.assignChanged = true
	} else if params.AssignedTo != nil && !ticket.IsAssignedTo(*params.AssignedTo) {
		target, err := s.userRepo.GetByID(ctx, *params.AssignedTo)
		if err != nil {
			return summary, err
		}
		oldName, err := s.assigneeName(ctx, ticket.AssignedTo)
		if err != nil {
			return summary, err
		}
		if err := s.recordHistory(ctx, ticket.ID, domain.FieldAssignedTo, oldName, target.Name, params.ActorID, now); err != nil {
			return summary, err
		}
		assignee := target.ID
		ticket.AssignedTo = &assignee
		summary.assignChanged = true
		summary.newAssignee = &assignee
	}

	// Priority rule: the specialized log entry and the generic history
	// entry commit together with the ticket row.
	if params.Priority != nil && *params.Priority != ticket.Priority {
		if !params.Priority.IsValid() {
			errs := apperrors.NewValidationErrors()
			errs.Add("priority", "Must be one of: Low, Medium, High, Critical")
			return summary, errs
		}

		change := &domain.PriorityChange{
			TicketID:    ticket.ID,
			ChangedBy:   params.ActorID,
			OldPriority: ticket.Priority,
			NewPriority: *params.Priority,
			ChangedAt:   now,
		}
		if _, err := s.priorityLogRepo.Create(ctx, change); err != nil {
			return summary, err
		}
		if err := s.recordHistory(ctx, ticket.ID, domain.FieldPriority, string(ticket.Priority), string(*params.Priority), params.ActorID, now); err != nil {
			return summary, err
		}

		ticket.Priority = *params.Priority
		summary.priorityChanged = true
	}

	return summary, nil
}

func (s *TicketService) recordHistory(ctx context.Context, ticketID int64, field domain.HistoryField, oldValue, newValue string, actorID uuid.UUID, at time.Time) error {
	_, err := s.historyRepo.Create(ctx, &domain.HistoryEntry{
		TicketID:     ticketID,
		FieldChanged: field,
		OldValue:     oldValue,
		NewValue:     newValue,
		ChangedBy:    actorID,
		ChangedAt:    at,
	})
	return err
}

func (s *TicketService) assigneeName(ctx context.Context, assigneeID *uuid.UUID) (string, error) {
	if assigneeID == nil {
		return domain.UnassignedLabel, nil
	}
	user, err := s.userRepo.GetByID(ctx, *assigneeID)
	if err != nil {
		return "", err
	}
	return user.Name, nil
}

// dispatchUpdateSignals fans out the post-commit follow-ups: one real-time
// broadcast, plus notifications for status and assignment changes. The
// notification jobs run concurrently and are awaited before returning.
func (s *TicketService) dispatchUpdateSignals(ticket *domain.Ticket, actorID uuid.UUID, summary changeSummary) {
	s.broadcastTicketEvent(domain.EventTicketUpdated, ticket)

	var jobs sync.WaitGroup

	if summary.statusChanged && ticket.CreatedBy != actorID {
		kind := domain.NotificationStatusChanged
		if summary.closed {
			kind = domain.NotificationTicketClosed
		} else if summary.reopened {
			kind = domain.NotificationTicketReopened
		}

		jobs.Add(1)
		go func() {
			defer jobs.Done()
			s.notifier.Notify(context.Background(), ports.NotificationParams{
				RecipientUserID: ticket.CreatedBy,
				Type:            kind,
				Subject:         fmt.Sprintf("Ticket %s status updated", ticket.Code),
				Message:         fmt.Sprintf("The status of your ticket '%s' was changed from %s to %s.", ticket.Title, summary.oldStatus, ticket.Status),
				TicketID:        ticket.ID,
			})
		}()
	}

	if summary.assignChanged && summary.newAssignee != nil {
		assignee := *summary.newAssignee

		jobs.Add(1)
		go func() {
			defer jobs.Done()
			s.notifier.Notify(context.Background(), ports.NotificationParams{
				RecipientUserID: assignee,
				Type:            domain.NotificationTicketAssigned,
				Subject:         fmt.Sprintf("Ticket %s assigned to you", ticket.Code),
				Message:         fmt.Sprintf("You have been assigned ticket '%s'.", ticket.Title),
				TicketID:        ticket.ID,
			})
		}()

		if ticket.CreatedBy != actorID && ticket.CreatedBy != assignee {
			jobs.Add(1)
			go func() {
				defer jobs.Done()
				s.notifier.Notify(context.Background(), ports.NotificationParams{
					RecipientUserID: ticket.CreatedBy,
					Type:            domain.NotificationTicketAssigned,
					Subject:         fmt.Sprintf("Ticket %s has a new assignee", ticket.Code),
					Message:         fmt.Sprintf("Your ticket '%s' is now being handled by an agent.", ticket.Title),
					TicketID:        ticket.ID,
				})
			}()
		}
	}

	jobs.Wait()
}

// DeleteTicket removes a ticket permanently.
func (s *TicketService) DeleteTicket(ctx context.Context, ticketID int64, actorID uuid.UUID, actorRole domain.Role) error {
	if !s.authzSvc.Can(actorRole, PermTicketsDelete) {
		return apperrors.ErrForbidden
	}

	if _, err := s.ticketRepo.GetByID(ctx, ticketID); err != nil {
		return err
	}

	if err := s.ticketRepo.Delete(ctx, ticketID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "ticket deleted", "ticket_id", ticketID, "actor_id", actorID)
	return nil
}

// ListTickets retrieves tickets based on user permissions. Viewers without
// the read-all capability only ever see their own tickets.
func (s *TicketService) ListTickets(ctx context.Context, params ports.ListTicketsParams) ([]*domain.Ticket, int64, error) {
	filter := params.Filter
	if !s.authzSvc.Can(params.ViewerRole, PermTicketsReadAll) {
		viewer := params.ViewerID
		filter.CreatedBy = &viewer
		filter.AssignedTo = nil
		filter.Unassigned = false
	}
	return s.ticketRepo.List(ctx, filter)
}

// ListHistory returns the change history for a ticket the viewer may see.
func (s *TicketService) ListHistory(ctx context.Context, ticketID int64, viewerID uuid.UUID, viewerRole domain.Role) ([]*domain.HistoryEntry, error) {
	if _, err := s.GetTicket(ctx, ticketID, viewerID, viewerRole); err != nil {
		return nil, err
	}
	return s.historyRepo.ListByTicket(ctx, ticketID)
}

// ListPriorityLog returns the priority change log for a ticket the viewer may see.
func (s *TicketService) ListPriorityLog(ctx context.Context, ticketID int64, viewerID uuid.UUID, viewerRole domain.Role) ([]*domain.PriorityChange, error) {
	if _, err := s.GetTicket(ctx, ticketID, viewerID, viewerRole); err != nil {
		return nil, err
	}
	return s.priorityLogRepo.ListByTicket(ctx, ticketID)
}

// Stats summarizes ticket counts, optionally scoped to one user's tickets.
func (s *TicketService) Stats(ctx context.Context, userID *uuid.UUID) (*domain.TicketStats, error) {
	byStatus, err := s.ticketRepo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.ticketRepo.CountByPriority(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &domain.TicketStats{ByStatus: byStatus, ByPriority: byPriority}
	for _, sc := range byStatus {
		stats.Total += sc.Count
		switch sc.Status {
		case domain.StatusResolved:
			stats.Resolved += sc.Count
		case domain.StatusClosed:
			stats.Closed += sc.Count
		default:
			stats.Open += sc.Count
		}
	}

	breached := true
	_, breachedCount, err := s.ticketRepo.List(ctx, ports.TicketFilter{Breached: &breached, CreatedBy: userID, Limit: 1})
	if err != nil {
		return nil, err
	}
	stats.Breached = breachedCount

	return stats, nil
}

func (s *TicketService) authorizeView(ticket *domain.Ticket, viewerID uuid.UUID, viewerRole domain.Role) error {
	if ticket.IsOwnedBy(viewerID) || ticket.IsAssignedTo(viewerID) {
		return nil
	}
	if s.authzSvc.Can(viewerRole, PermTicketsReadAll) {
		return nil
	}
	return apperrors.ErrForbidden
}

// broadcastTicketEvent sends a real-time event for a ticket change (async).
func (s *TicketService) broadcastTicketEvent(kind domain.EventType, ticket *domain.Ticket) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.broadcaster.Broadcast(domain.Event{
			Type:     kind,
			Payload:  domain.NewTicketSnapshot(ticket),
			TicketID: ticket.ID,
		})
	}()
}

// Shutdown waits for in-flight background broadcasts to finish.
func (s *TicketService) Shutdown() {
	s.wg.Wait()
}
