package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/mocks"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
	"github.com/lorrc/helpdesk-backend/internal/core/services"
)

type sweepServiceFixture struct {
	svc             *services.SweepService
	ticketRepo      *mocks.MockTicketRepository
	historyRepo     *mocks.MockHistoryRepository
	priorityLogRepo *mocks.MockPriorityLogRepository
	userRepo        *mocks.MockUserRepository
	notifier        *mocks.MockNotifier
	mailer          *mocks.MockMailer
}

func newSweepServiceFixture(fallbackAdmin string) *sweepServiceFixture {
	f := &sweepServiceFixture{
		ticketRepo:      mocks.NewMockTicketRepository(),
		historyRepo:     mocks.NewMockHistoryRepository(),
		priorityLogRepo: mocks.NewMockPriorityLogRepository(),
		userRepo:        mocks.NewMockUserRepository(),
		notifier:        mocks.NewMockNotifier(),
		mailer:          mocks.NewMockMailer(),
	}
	f.svc = services.NewSweepService(services.SweepServiceDeps{
		TicketRepo:      f.ticketRepo,
		HistoryRepo:     f.historyRepo,
		PriorityLogRepo: f.priorityLogRepo,
		UserRepo:        f.userRepo,
		Notifier:        f.notifier,
		Mailer:          f.mailer,
		TxManager:       mocks.NewMockTransactionManager(),
		FallbackAdmin:   fallbackAdmin,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:           func() time.Time { return fixedNow },
	})
	return f
}

func overdueTicket(id int64, createdBy uuid.UUID) *domain.Ticket {
	return &domain.Ticket{
		ID:         id,
		Code:       "#100042",
		Title:      "Server room overheating",
		Status:     domain.StatusOpen,
		Priority:   domain.PriorityHigh,
		CreatedBy:  createdBy,
		SLADueDate: fixedNow.Add(-time.Hour),
		CreatedAt:  fixedNow.Add(-48 * time.Hour),
	}
}

func (f *sweepServiceFixture) expectNoReminders(ctx context.Context) {
	f.ticketRepo.On("ListReminderCandidates", ctx, fixedNow, fixedNow.Add(domain.ReminderWindow)).
		Return([]*domain.Ticket{}, nil)
}

func TestSweepService_Breach(t *testing.T) {
	ctx := context.Background()

	t.Run("breach latches the flag and escalates to the least-loaded admin", func(t *testing.T) {
		f := newSweepServiceFixture("")
		requester := uuid.New()
		ticket := overdueTicket(1, requester)
		admin := &domain.User{ID: uuid.New(), Name: "Morgan Vale", Role: domain.RoleAdmin, IsActive: true}

		f.ticketRepo.On("ListBreachCandidates", ctx, fixedNow).Return([]*domain.Ticket{ticket}, nil)
		f.expectNoReminders(ctx)
		f.userRepo.On("PickEscalationAdmin", ctx).Return(admin, nil)
		f.historyRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.HistoryEntry) bool {
			return e.FieldChanged == domain.FieldAssignedTo &&
				e.OldValue == domain.UnassignedLabel &&
				e.NewValue == "Morgan Vale" &&
				e.ChangedBy == uuid.Nil
		})).Return(&domain.HistoryEntry{}, nil)
		f.priorityLogRepo.On("Create", ctx, mock.MatchedBy(func(c *domain.PriorityChange) bool {
			return c.OldPriority == domain.PriorityHigh &&
				c.NewPriority == domain.PriorityCritical &&
				c.ChangedBy == uuid.Nil
		})).Return(&domain.PriorityChange{}, nil)
		f.historyRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.HistoryEntry) bool {
			return e.FieldChanged == domain.FieldPriority &&
				e.OldValue == string(domain.PriorityHigh) &&
				e.NewValue == string(domain.PriorityCritical) &&
				e.ChangedBy == uuid.Nil
		})).Return(&domain.HistoryEntry{}, nil)
		f.ticketRepo.On("Update", ctx, ticket).Return(nil)
		f.notifier.On("Notify", ctx, mock.MatchedBy(func(p ports.NotificationParams) bool {
			return p.RecipientUserID == admin.ID && p.Type == domain.NotificationSLABreached
		})).Return()
		f.notifier.On("Notify", ctx, mock.MatchedBy(func(p ports.NotificationParams) bool {
			return p.RecipientUserID == requester && p.Type == domain.NotificationSLABreached
		})).Return()

		summary, err := f.svc.Sweep(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Breached)
		assert.Equal(t, 1, summary.Escalated)
		assert.Equal(t, 0, summary.Errors)

		assert.True(t, ticket.IsSLABreached)
		assert.Equal(t, domain.PriorityCritical, ticket.Priority)
		require.NotNil(t, ticket.AssignedTo)
		assert.Equal(t, admin.ID, *ticket.AssignedTo)

		f.historyRepo.AssertExpectations(t)
		f.priorityLogRepo.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
		f.mailer.AssertNotCalled(t, "Send")
	})

	t.Run("breach proceeds when no admin is available", func(t *testing.T) {
		f := newSweepServiceFixture("")
		requester := uuid.New()
		ticket := overdueTicket(1, requester)

		f.ticketRepo.On("ListBreachCandidates", ctx, fixedNow).Return([]*domain.Ticket{ticket}, nil)
		f.expectNoReminders(ctx)
		f.userRepo.On("PickEscalationAdmin", ctx).Return(nil, nil)
		f.ticketRepo.On("Update", ctx, ticket).Return(nil)
		f.notifier.On("Notify", ctx, mock.AnythingOfType("ports.NotificationParams")).Return()

		summary, err := f.svc.Sweep(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Breached)
		assert.Equal(t, 0, summary.Escalated)
		assert.True(t, ticket.IsSLABreached)
		assert.Nil(t, ticket.AssignedTo)
		assert.Equal(t, domain.PriorityHigh, ticket.Priority)
		f.historyRepo.AssertNotCalled(t, "Create")
	})

	t.Run("tickets already in progress with an assignee are not escalated", func(t *testing.T) {
		f := newSweepServiceFixture("")
		ticket := overdueTicket(1, uuid.New())
		assignee := uuid.New()
		ticket.AssignedTo = &assignee
		ticket.Status = domain.StatusPending

		f.ticketRepo.On("ListBreachCandidates", ctx, fixedNow).Return([]*domain.Ticket{ticket}, nil)
		f.expectNoReminders(ctx)
		f.ticketRepo.On("Update", ctx, ticket).Return(nil)
		f.notifier.On("Notify", ctx, mock.AnythingOfType("ports.NotificationParams")).Return()

		summary, err := f.svc.Sweep(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Breached)
		assert.Equal(t, 0, summary.Escalated)
		f.userRepo.AssertNotCalled(t, "PickEscalationAdmin")
		assert.Equal(t, domain.PriorityHigh, ticket.Priority)
	})

	t.Run("fallback admin is emailed on every breach", func(t *testing.T) {
		f := newSweepServiceFixture("oncall@example.com")
		ticket := overdueTicket(1, uuid.New())
		assignee := uuid.New()
		ticket.AssignedTo = &assignee
		ticket.Status = domain.StatusPending

		f.ticketRepo.On("ListBreachCandidates", ctx, fixedNow).Return([]*domain.Ticket{ticket}, nil)
		f.expectNoReminders(ctx)
		f.ticketRepo.On("Update", ctx, ticket).Return(nil)
		f.notifier.On("Notify", ctx, mock.AnythingOfType("ports.NotificationParams")).Return()
		f.mailer.On("Send", ctx, mock.MatchedBy(func(msg ports.EmailMessage) bool {
			return msg.To == "oncall@example.com"
		})).Return(nil)

		summary, err := f.svc.Sweep(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Breached)
		f.mailer.AssertExpectations(t)
	})

	t.Run("one failing ticket does not block the rest", func(t *testing.T) {
		f := newSweepServiceFixture("")
		failing := overdueTicket(1, uuid.New())
		healthy := overdueTicket(2, uuid.New())
		for _, ticket := range []*domain.Ticket{failing, healthy} {
			assignee := uuid.New()
			ticket.AssignedTo = &assignee
			ticket.Status = domain.StatusPending
		}

		f.ticketRepo.On("ListBreachCandidates", ctx, fixedNow).Return([]*domain.Ticket{failing, healthy}, nil)
		f.expectNoReminders(ctx)
		f.ticketRepo.On("Update", ctx, failing).Return(errors.New("write failed"))
		f.ticketRepo.On("Update", ctx, healthy).Return(nil)
		f.notifier.On("Notify", ctx, mock.AnythingOfType("ports.NotificationParams")).Return()

		summary, err := f.svc.Sweep(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Breached)
		assert.Equal(t, 1, summary.Errors)
		assert.True(t, healthy.IsSLABreached)
	})

	t.Run("selection failure aborts the sweep", func(t *testing.T) {
		f := newSweepServiceFixture("")

		f.ticketRepo.On("ListBreachCandidates", ctx, fixedNow).Return(nil, errors.New("db down"))

		_, err := f.svc.Sweep(ctx)

		require.Error(t, err)
		f.ticketRepo.AssertNotCalled(t, "ListReminderCandidates")
	})
}

func TestSweepService_Reminder(t *testing.T) {
	ctx := context.Background()

	t.Run("reminder goes to the assignee when one exists", func(t *testing.T) {
		f := newSweepServiceFixture("")
		ticket := overdueTicket(1, uuid.New())
		ticket.SLADueDate = fixedNow.Add(15 * time.Minute)
		assignee := uuid.New()
		ticket.AssignedTo = &assignee

		f.ticketRepo.On("ListBreachCandidates", ctx, fixedNow).Return([]*domain.Ticket{}, nil)
		f.ticketRepo.On("ListReminderCandidates", ctx, fixedNow, fixedNow.Add(domain.ReminderWindow)).
			Return([]*domain.Ticket{ticket}, nil)
		f.ticketRepo.On("Update", ctx, ticket).Return(nil)
		f.notifier.On("Notify", ctx, mock.MatchedBy(func(p ports.NotificationParams) bool {
			return p.RecipientUserID == assignee && p.Type == domain.NotificationSLAReminder
		})).Return()

		summary, err := f.svc.Sweep(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Reminded)
		assert.True(t, ticket.SLAReminderSent)
		f.notifier.AssertExpectations(t)
	})

	t.Run("reminder falls back to the requester when unassigned", func(t *testing.T) {
		f := newSweepServiceFixture("")
		requester := uuid.New()
		ticket := overdueTicket(1, requester)
		ticket.SLADueDate = fixedNow.Add(15 * time.Minute)

		f.ticketRepo.On("ListBreachCandidates", ctx, fixedNow).Return([]*domain.Ticket{}, nil)
		f.ticketRepo.On("ListReminderCandidates", ctx, fixedNow, fixedNow.Add(domain.ReminderWindow)).
			Return([]*domain.Ticket{ticket}, nil)
		f.ticketRepo.On("Update", ctx, ticket).Return(nil)
		f.notifier.On("Notify", ctx, mock.MatchedBy(func(p ports.NotificationParams) bool {
			return p.RecipientUserID == requester && p.Type == domain.NotificationSLAReminder
		})).Return()

		summary, err := f.svc.Sweep(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Reminded)
		f.notifier.AssertExpectations(t)
	})

	t.Run("reminder write failure is isolated", func(t *testing.T) {
		f := newSweepServiceFixture("")
		failing := overdueTicket(1, uuid.New())
		healthy := overdueTicket(2, uuid.New())

		f.ticketRepo.On("ListBreachCandidates", ctx, fixedNow).Return([]*domain.Ticket{}, nil)
		f.ticketRepo.On("ListReminderCandidates", ctx, fixedNow, fixedNow.Add(domain.ReminderWindow)).
			Return([]*domain.Ticket{failing, healthy}, nil)
		f.ticketRepo.On("Update", ctx, failing).Return(errors.New("write failed"))
		f.ticketRepo.On("Update", ctx, healthy).Return(nil)
		f.notifier.On("Notify", ctx, mock.AnythingOfType("ports.NotificationParams")).Return()

		summary, err := f.svc.Sweep(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Reminded)
		assert.Equal(t, 1, summary.Errors)
		assert.True(t, healthy.SLAReminderSent)
	})

	t.Run("empty sweep reports zeros", func(t *testing.T) {
		f := newSweepServiceFixture("")

		f.ticketRepo.On("ListBreachCandidates", ctx, fixedNow).Return([]*domain.Ticket{}, nil)
		f.expectNoReminders(ctx)

		summary, err := f.svc.Sweep(ctx)

		require.NoError(t, err)
		assert.Equal(t, ports.SweepSummary{}, summary)
	})
}
