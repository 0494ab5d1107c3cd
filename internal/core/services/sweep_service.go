package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// SweepService performs the periodic SLA pass: a breach scan that latches
// the breach flag and escalates stuck tickets, and a reminder scan that
// warns ahead of approaching deadlines. Each ticket is processed in
// isolation; one failing ticket never blocks the rest of the batch.
type SweepService struct {
	ticketRepo      ports.TicketRepository
	historyRepo     ports.HistoryRepository
	priorityLogRepo ports.PriorityLogRepository
	userRepo        ports.UserRepository
	notifier        ports.Notifier
	mailer          ports.Mailer
	txManager       ports.TransactionManager
	fallbackAdmin   string // email address copied on every breach
	logger          *slog.Logger
	clock           func() time.Time
}

var _ ports.SweepService = (*SweepService)(nil)

// SweepServiceDeps bundles the collaborators for NewSweepService.
type SweepServiceDeps struct {
	TicketRepo      ports.TicketRepository
	HistoryRepo     ports.HistoryRepository
	PriorityLogRepo ports.PriorityLogRepository
	UserRepo        ports.UserRepository
	Notifier        ports.Notifier
	Mailer          ports.Mailer
	TxManager       ports.TransactionManager
	FallbackAdmin   string
	Logger          *slog.Logger
	Clock           func() time.Time
}

// NewSweepService creates a new sweep service.
func NewSweepService(deps SweepServiceDeps) *SweepService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &SweepService{
		ticketRepo:      deps.TicketRepo,
		historyRepo:     deps.HistoryRepo,
		priorityLogRepo: deps.PriorityLogRepo,
		userRepo:        deps.UserRepo,
		notifier:        deps.Notifier,
		mailer:          deps.Mailer,
		txManager:       deps.TxManager,
		fallbackAdmin:   deps.FallbackAdmin,
		logger:          deps.Logger,
		clock:           clock,
	}
}

// Sweep runs both scans once. Progress persists per ticket, so a partial
// run is safe to repeat: the latched flags keep already-processed tickets
// out of the next selection.
func (s *SweepService) Sweep(ctx context.Context) (ports.SweepSummary, error) {
	var summary ports.SweepSummary
	now := s.clock().UTC()

	breached, err := s.ticketRepo.ListBreachCandidates(ctx, now)
	if err != nil {
		return summary, fmt.Errorf("breach scan selection: %w", err)
	}
	for _, ticket := range breached {
		if err := s.processBreach(ctx, ticket, now, &summary); err != nil {
			summary.Errors++
			s.logger.ErrorContext(ctx, "breach processing failed",
				"ticket_id", ticket.ID,
				"ticket_code", ticket.Code,
				"error", err,
			)
			continue
		}
		summary.Breached++
	}

	due, err := s.ticketRepo.ListReminderCandidates(ctx, now, now.Add(domain.ReminderWindow))
	if err != nil {
		return summary, fmt.Errorf("reminder scan selection: %w", err)
	}
	for _, ticket := range due {
		if err := s.processReminder(ctx, ticket, now); err != nil {
			summary.Errors++
			s.logger.ErrorContext(ctx, "reminder processing failed",
				"ticket_id", ticket.ID,
				"ticket_code", ticket.Code,
				"error", err,
			)
			continue
		}
		summary.Reminded++
	}

	s.logger.InfoContext(ctx, "sla sweep complete",
		"breached", summary.Breached,
		"escalated", summary.Escalated,
		"reminded", summary.Reminded,
		"errors", summary.Errors,
	)
	return summary, nil
}

// processBreach latches the breach flag, escalates when the ticket shows no
// visible progress, and persists flag, assignment, and audit rows together.
func (s *SweepService) processBreach(ctx context.Context, ticket *domain.Ticket, now time.Time, summary *ports.SweepSummary) error {
	var escalated bool

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		ticket.IsSLABreached = true

		if ticket.NeedsEscalation() {
			done, err := s.escalate(ctx, ticket, now)
			if err != nil {
				return err
			}
			escalated = done
		}

		ticket.Touch(now)
		return s.ticketRepo.Update(ctx, ticket)
	})
	if err != nil {
		return err
	}

	if escalated {
		summary.Escalated++
	}

	s.notifyBreach(ctx, ticket)
	return nil
}

// escalate hands the ticket to the least-loaded admin and forces its
// priority to Critical, recording both moves in history. Returns false
// without error when no admin exists; the breach still proceeds.
func (s *SweepService) escalate(ctx context.Context, ticket *domain.Ticket, now time.Time) (bool, error) {
	admin, err := s.userRepo.PickEscalationAdmin(ctx)
	if err != nil {
		return false, err
	}
	if admin == nil {
		s.logger.WarnContext(ctx, "no admin available for escalation", "ticket_id", ticket.ID)
		return false, nil
	}

	if !ticket.IsAssignedTo(admin.ID) {
		oldName := domain.UnassignedLabel
		if ticket.AssignedTo != nil {
			previous, err := s.userRepo.GetByID(ctx, *ticket.AssignedTo)
			if err != nil {
				return false, err
			}
			oldName = previous.Name
		}

		if _, err := s.historyRepo.Create(ctx, &domain.HistoryEntry{
			TicketID:     ticket.ID,
			FieldChanged: domain.FieldAssignedTo,
			OldValue:     oldName,
			NewValue:     admin.Name,
			ChangedBy:    uuid.Nil, // system action
			ChangedAt:    now,
		}); err != nil {
			return false, err
		}

		assignee := admin.ID
		ticket.AssignedTo = &assignee
	}

	if ticket.Priority != domain.PriorityCritical {
		if _, err := s.priorityLogRepo.Create(ctx, &domain.PriorityChange{
			TicketID:    ticket.ID,
			ChangedBy:   uuid.Nil,
			OldPriority: ticket.Priority,
			NewPriority: domain.PriorityCritical,
			ChangedAt:   now,
		}); err != nil {
			return false, err
		}
		if _, err := s.historyRepo.Create(ctx, &domain.HistoryEntry{
			TicketID:     ticket.ID,
			FieldChanged: domain.FieldPriority,
			OldValue:     string(ticket.Priority),
			NewValue:     string(domain.PriorityCritical),
			ChangedBy:    uuid.Nil,
			ChangedAt:    now,
		}); err != nil {
			return false, err
		}

		ticket.Priority = domain.PriorityCritical
	}

	return true, nil
}

// notifyBreach informs the assignee, the reporter, and the fallback admin
// address. Delivery failures are logged, never propagated.
func (s *SweepService) notifyBreach(ctx context.Context, ticket *domain.Ticket) {
	subject := fmt.Sprintf("SLA breached on ticket %s", ticket.Code)
	message := fmt.Sprintf("Ticket '%s' missed its SLA deadline of %s.", ticket.Title, ticket.SLADueDate.Format(time.RFC3339))

	if ticket.AssignedTo != nil {
		s.notifier.Notify(ctx, ports.NotificationParams{
			RecipientUserID: *ticket.AssignedTo,
			Type:            domain.NotificationSLABreached,
			Subject:         subject,
			Message:         message,
			TicketID:        ticket.ID,
		})
	}

	s.notifier.Notify(ctx, ports.NotificationParams{
		RecipientUserID: ticket.CreatedBy,
		Type:            domain.NotificationSLABreached,
		Subject:         subject,
		Message:         fmt.Sprintf("Your ticket '%s' missed its SLA deadline. It has been flagged for urgent attention.", ticket.Title),
		TicketID:        ticket.ID,
	})

	if s.fallbackAdmin != "" {
		if err := s.mailer.Send(ctx, ports.EmailMessage{
			To:      s.fallbackAdmin,
			Subject: subject,
			Body:    message,
		}); err != nil {
			s.logger.ErrorContext(ctx, "fallback admin email failed", "ticket_id", ticket.ID, "error", err)
		}
	}
}

// processReminder latches the reminder flag and warns whoever owns the
// deadline: the assignee, or the reporter when nobody is assigned.
func (s *SweepService) processReminder(ctx context.Context, ticket *domain.Ticket, now time.Time) error {
	ticket.SLAReminderSent = true
	ticket.Touch(now)
	if err := s.ticketRepo.Update(ctx, ticket); err != nil {
		return err
	}

	recipient := ticket.CreatedBy
	if ticket.AssignedTo != nil {
		recipient = *ticket.AssignedTo
	}

	s.notifier.Notify(ctx, ports.NotificationParams{
		RecipientUserID: recipient,
		Type:            domain.NotificationSLAReminder,
		Subject:         fmt.Sprintf("SLA deadline approaching for ticket %s", ticket.Code),
		Message:         fmt.Sprintf("Ticket '%s' is due at %s.", ticket.Title, ticket.SLADueDate.Format(time.RFC3339)),
		TicketID:        ticket.ID,
	})
	return nil
}
