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
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/mocks"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
	"github.com/lorrc/helpdesk-backend/internal/core/services"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type ticketServiceFixture struct {
	svc             *services.TicketService
	ticketRepo      *mocks.MockTicketRepository
	historyRepo     *mocks.MockHistoryRepository
	priorityLogRepo *mocks.MockPriorityLogRepository
	userRepo        *mocks.MockUserRepository
	slaSvc          *mocks.MockSLAService
	notifier        *mocks.MockNotifier
	broadcaster     *mocks.MockEventBroadcaster
}

func newTicketServiceFixture() *ticketServiceFixture {
	f := &ticketServiceFixture{
		ticketRepo:      mocks.NewMockTicketRepository(),
		historyRepo:     mocks.NewMockHistoryRepository(),
		priorityLogRepo: mocks.NewMockPriorityLogRepository(),
		userRepo:        mocks.NewMockUserRepository(),
		slaSvc:          mocks.NewMockSLAService(),
		notifier:        mocks.NewMockNotifier(),
		broadcaster:     mocks.NewMockEventBroadcaster(),
	}
	f.svc = services.NewTicketService(services.TicketServiceDeps{
		TicketRepo:      f.ticketRepo,
		HistoryRepo:     f.historyRepo,
		PriorityLogRepo: f.priorityLogRepo,
		CommentRepo:     mocks.NewMockCommentRepository(),
		UserRepo:        f.userRepo,
		CategoryRepo:    mocks.NewMockCategoryRepository(),
		DepartmentRepo:  mocks.NewMockDepartmentRepository(),
		SLAService:      f.slaSvc,
		AuthzService:    services.NewAuthorizationService(),
		Notifier:        f.notifier,
		Broadcaster:     f.broadcaster,
		TxManager:       mocks.NewMockTransactionManager(),
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:           func() time.Time { return fixedNow },
	})
	return f
}

func openTicket(createdBy uuid.UUID) *domain.Ticket {
	return &domain.Ticket{
		ID:          42,
		Code:        "#100042",
		Title:       "VPN keeps dropping",
		Description: "Connection drops every few minutes on the office network.",
		Status:      domain.StatusOpen,
		Priority:    domain.PriorityMedium,
		CreatedBy:   createdBy,
		SLADueDate:  fixedNow.Add(24 * time.Hour),
		CreatedAt:   fixedNow.Add(-2 * time.Hour),
	}
}

func TestTicketService_CreateTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newTicketServiceFixture()
		requester := uuid.New()
		dueDate := fixedNow.Add(24 * time.Hour)

		f.slaSvc.On("DueDateFor", ctx, domain.PriorityMedium).Return(dueDate, nil)
		f.ticketRepo.On("Create", ctx, mock.AnythingOfType("*domain.Ticket")).
			Run(func(args mock.Arguments) {
				ticket := args.Get(1).(*domain.Ticket)
				assert.Equal(t, domain.StatusOpen, ticket.Status)
				assert.Equal(t, dueDate, ticket.SLADueDate)
				assert.Equal(t, fixedNow, ticket.CreatedAt)
			}).
			Return(openTicket(requester), nil)
		f.broadcaster.On("Broadcast", mock.AnythingOfType("domain.Event")).Return()

		created, err := f.svc.CreateTicket(ctx, ports.CreateTicketParams{
			Title:       "VPN keeps dropping",
			Description: "Connection drops every few minutes on the office network.",
			Priority:    domain.PriorityMedium,
			CreatedBy:   requester,
		})

		require.NoError(t, err)
		assert.Equal(t, "#100042", created.Code)

		f.svc.Shutdown()
		f.ticketRepo.AssertExpectations(t)
		f.broadcaster.AssertExpectations(t)
	})

	t.Run("invalid input is rejected before persistence", func(t *testing.T) {
		f := newTicketServiceFixture()
		f.slaSvc.On("DueDateFor", ctx, domain.PriorityLow).Return(fixedNow.Add(48*time.Hour), nil)

		_, err := f.svc.CreateTicket(ctx, ports.CreateTicketParams{
			Title:       "",
			Description: "Something broke",
			Priority:    domain.PriorityLow,
			CreatedBy:   uuid.New(),
		})

		var validationErrs *apperrors.ValidationErrors
		require.ErrorAs(t, err, &validationErrs)
		assert.Contains(t, validationErrs.Errors, "title")
		f.ticketRepo.AssertNotCalled(t, "Create")
		f.broadcaster.AssertNotCalled(t, "Broadcast")
	})

	t.Run("policy lookup failure propagates", func(t *testing.T) {
		f := newTicketServiceFixture()
		f.slaSvc.On("DueDateFor", ctx, domain.PriorityHigh).Return(time.Time{}, errors.New("db down"))

		_, err := f.svc.CreateTicket(ctx, ports.CreateTicketParams{
			Title:       "Broken",
			Description: "Broken",
			Priority:    domain.PriorityHigh,
			CreatedBy:   uuid.New(),
		})

		require.Error(t, err)
		f.ticketRepo.AssertNotCalled(t, "Create")
	})
}

func TestTicketService_UpdateTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("requesters cannot update tickets", func(t *testing.T) {
		f := newTicketServiceFixture()

		_, err := f.svc.UpdateTicket(ctx, ports.UpdateTicketParams{
			TicketID:  42,
			ActorID:   uuid.New(),
			ActorRole: domain.RoleUser,
		})

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		f.ticketRepo.AssertNotCalled(t, "GetByID")
	})

	t.Run("closing without a reason is rejected", func(t *testing.T) {
		f := newTicketServiceFixture()
		actor := uuid.New()
		ticket := openTicket(uuid.New())
		closed := domain.StatusClosed

		f.ticketRepo.On("GetByID", ctx, int64(42)).Return(ticket, nil)

		_, err := f.svc.UpdateTicket(ctx, ports.UpdateTicketParams{
			TicketID:  42,
			ActorID:   actor,
			ActorRole: domain.RoleAgent,
			Status:    &closed,
		})

		var validationErrs *apperrors.ValidationErrors
		require.ErrorAs(t, err, &validationErrs)
		assert.Contains(t, validationErrs.Errors, "closureReason")
		f.ticketRepo.AssertNotCalled(t, "Update")
	})

	t.Run("closing records the full audit trail", func(t *testing.T) {
		f := newTicketServiceFixture()
		actor := uuid.New()
		requester := uuid.New()
		ticket := openTicket(requester)
		closed := domain.StatusClosed
		reason := domain.ClosureResolved
		notes := "Replaced the faulty switch port."

		f.ticketRepo.On("GetByID", ctx, int64(42)).Return(ticket, nil)

		var recorded []*domain.HistoryEntry
		f.historyRepo.On("Create", ctx, mock.AnythingOfType("*domain.HistoryEntry")).
			Run(func(args mock.Arguments) {
				recorded = append(recorded, args.Get(1).(*domain.HistoryEntry))
			}).
			Return(&domain.HistoryEntry{}, nil)
		f.ticketRepo.On("Update", ctx, ticket).Return(nil)
		f.broadcaster.On("Broadcast", mock.AnythingOfType("domain.Event")).Return()
		f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(p ports.NotificationParams) bool {
			return p.RecipientUserID == requester && p.Type == domain.NotificationTicketClosed
		})).Return()

		updated, err := f.svc.UpdateTicket(ctx, ports.UpdateTicketParams{
			TicketID:        42,
			ActorID:         actor,
			ActorRole:       domain.RoleAgent,
			Status:          &closed,
			ClosureReason:   &reason,
			ResolutionNotes: &notes,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusClosed, updated.Status)
		require.NotNil(t, updated.ClosureDate)
		assert.Equal(t, fixedNow, *updated.ClosureDate)
		require.NotNil(t, updated.TotalTimeSpentMS)
		assert.Equal(t, (2 * time.Hour).Milliseconds(), *updated.TotalTimeSpentMS)

		require.Len(t, recorded, 3)
		assert.Equal(t, domain.FieldStatus, recorded[0].FieldChanged)
		assert.Equal(t, string(domain.StatusOpen), recorded[0].OldValue)
		assert.Equal(t, string(domain.StatusClosed), recorded[0].NewValue)
		assert.Equal(t, domain.FieldClosureReason, recorded[1].FieldChanged)
		assert.Equal(t, string(domain.ClosureResolved), recorded[1].NewValue)
		assert.Equal(t, domain.FieldResolutionNotes, recorded[2].FieldChanged)
		assert.Equal(t, notes, recorded[2].NewValue)

		f.svc.Shutdown()
		f.notifier.AssertExpectations(t)
	})

	t.Run("reopening resets the SLA window", func(t *testing.T) {
		f := newTicketServiceFixture()
		actor := uuid.New()
		ticket := openTicket(actor) // actor is the requester, so no notification fires
		ticket.Status = domain.StatusClosed
		ticket.IsSLABreached = true
		ticket.SLAReminderSent = true
		spent := int64(7200000)
		ticket.TotalTimeSpentMS = &spent
		reopen := domain.StatusReopen
		freshDue := fixedNow.Add(24 * time.Hour)

		f.ticketRepo.On("GetByID", ctx, int64(42)).Return(ticket, nil)
		f.slaSvc.On("DueDateFor", mock.Anything, domain.PriorityMedium).Return(freshDue, nil)
		f.historyRepo.On("Create", ctx, mock.AnythingOfType("*domain.HistoryEntry")).Return(&domain.HistoryEntry{}, nil)
		f.ticketRepo.On("Update", ctx, ticket).Return(nil)
		f.broadcaster.On("Broadcast", mock.AnythingOfType("domain.Event")).Return()

		updated, err := f.svc.UpdateTicket(ctx, ports.UpdateTicketParams{
			TicketID:  42,
			ActorID:   actor,
			ActorRole: domain.RoleAgent,
			Status:    &reopen,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusReopen, updated.Status)
		assert.False(t, updated.IsSLABreached)
		assert.False(t, updated.SLAReminderSent)
		assert.Nil(t, updated.TotalTimeSpentMS)
		assert.Equal(t, freshDue, updated.SLADueDate)
		require.NotNil(t, updated.ReopenedAt)
		assert.Equal(t, fixedNow, *updated.ReopenedAt)

		f.svc.Shutdown()
		f.notifier.AssertNotCalled(t, "Notify")
	})

	t.Run("priority change writes the log without notifying", func(t *testing.T) {
		f := newTicketServiceFixture()
		actor := uuid.New()
		ticket := openTicket(uuid.New())
		high := domain.PriorityHigh

		f.ticketRepo.On("GetByID", ctx, int64(42)).Return(ticket, nil)
		f.priorityLogRepo.On("Create", ctx, mock.MatchedBy(func(c *domain.PriorityChange) bool {
			return c.OldPriority == domain.PriorityMedium &&
				c.NewPriority == domain.PriorityHigh &&
				c.ChangedBy == actor
		})).Return(&domain.PriorityChange{}, nil)
		f.historyRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.HistoryEntry) bool {
			return e.FieldChanged == domain.FieldPriority &&
				e.OldValue == string(domain.PriorityMedium) &&
				e.NewValue == string(domain.PriorityHigh)
		})).Return(&domain.HistoryEntry{}, nil)
		f.ticketRepo.On("Update", ctx, ticket).Return(nil)
		f.broadcaster.On("Broadcast", mock.AnythingOfType("domain.Event")).Return()

		updated, err := f.svc.UpdateTicket(ctx, ports.UpdateTicketParams{
			TicketID:  42,
			ActorID:   actor,
			ActorRole: domain.RoleAgent,
			Priority:  &high,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.PriorityHigh, updated.Priority)

		f.svc.Shutdown()
		f.priorityLogRepo.AssertExpectations(t)
		f.historyRepo.AssertExpectations(t)
		f.notifier.AssertNotCalled(t, "Notify")
	})

	t.Run("assignment notifies the new assignee and the requester", func(t *testing.T) {
		f := newTicketServiceFixture()
		actor := uuid.New()
		requester := uuid.New()
		ticket := openTicket(requester)
		agent := &domain.User{ID: uuid.New(), Name: "Dana Reyes", Role: domain.RoleAgent, IsActive: true}
		assigneeID := agent.ID

		f.ticketRepo.On("GetByID", ctx, int64(42)).Return(ticket, nil)
		f.userRepo.On("GetByID", ctx, agent.ID).Return(agent, nil)
		f.historyRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.HistoryEntry) bool {
			return e.FieldChanged == domain.FieldAssignedTo &&
				e.OldValue == domain.UnassignedLabel &&
				e.NewValue == "Dana Reyes"
		})).Return(&domain.HistoryEntry{}, nil)
		f.ticketRepo.On("Update", ctx, ticket).Return(nil)
		f.broadcaster.On("Broadcast", mock.AnythingOfType("domain.Event")).Return()
		f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(p ports.NotificationParams) bool {
			return p.RecipientUserID == agent.ID && p.Type == domain.NotificationTicketAssigned
		})).Return()
		f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(p ports.NotificationParams) bool {
			return p.RecipientUserID == requester && p.Type == domain.NotificationTicketAssigned
		})).Return()

		updated, err := f.svc.UpdateTicket(ctx, ports.UpdateTicketParams{
			TicketID:   42,
			ActorID:    actor,
			ActorRole:  domain.RoleAgent,
			AssignedTo: &assigneeID,
		})

		require.NoError(t, err)
		require.NotNil(t, updated.AssignedTo)
		assert.Equal(t, agent.ID, *updated.AssignedTo)

		f.svc.Shutdown()
		f.notifier.AssertExpectations(t)
		f.historyRepo.AssertExpectations(t)
	})

	t.Run("repository failure rolls back without signals", func(t *testing.T) {
		f := newTicketServiceFixture()
		ticket := openTicket(uuid.New())
		title := "Updated title"

		f.ticketRepo.On("GetByID", ctx, int64(42)).Return(ticket, nil)
		f.ticketRepo.On("Update", ctx, ticket).Return(errors.New("write failed"))

		_, err := f.svc.UpdateTicket(ctx, ports.UpdateTicketParams{
			TicketID:  42,
			ActorID:   uuid.New(),
			ActorRole: domain.RoleAgent,
			Title:     &title,
		})

		require.Error(t, err)
		f.svc.Shutdown()
		f.broadcaster.AssertNotCalled(t, "Broadcast")
		f.notifier.AssertNotCalled(t, "Notify")
	})
}

func TestTicketService_DeleteTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("agents cannot delete", func(t *testing.T) {
		f := newTicketServiceFixture()

		err := f.svc.DeleteTicket(ctx, 42, uuid.New(), domain.RoleAgent)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		f.ticketRepo.AssertNotCalled(t, "Delete")
	})

	t.Run("admin delete succeeds", func(t *testing.T) {
		f := newTicketServiceFixture()
		ticket := openTicket(uuid.New())

		f.ticketRepo.On("GetByID", ctx, int64(42)).Return(ticket, nil)
		f.ticketRepo.On("Delete", ctx, int64(42)).Return(nil)

		err := f.svc.DeleteTicket(ctx, 42, uuid.New(), domain.RoleAdmin)

		require.NoError(t, err)
		f.ticketRepo.AssertExpectations(t)
	})

	t.Run("missing ticket", func(t *testing.T) {
		f := newTicketServiceFixture()

		f.ticketRepo.On("GetByID", ctx, int64(99)).Return(nil, apperrors.ErrTicketNotFound)

		err := f.svc.DeleteTicket(ctx, 99, uuid.New(), domain.RoleAdmin)

		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
		f.ticketRepo.AssertNotCalled(t, "Delete")
	})
}

func TestTicketService_GetTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("owner can view", func(t *testing.T) {
		f := newTicketServiceFixture()
		owner := uuid.New()
		ticket := openTicket(owner)

		f.ticketRepo.On("GetByID", ctx, int64(42)).Return(ticket, nil)

		got, err := f.svc.GetTicket(ctx, 42, owner, domain.RoleUser)

		require.NoError(t, err)
		assert.Equal(t, ticket, got)
	})

	t.Run("stranger without read-all is denied", func(t *testing.T) {
		f := newTicketServiceFixture()
		ticket := openTicket(uuid.New())

		f.ticketRepo.On("GetByID", ctx, int64(42)).Return(ticket, nil)

		_, err := f.svc.GetTicket(ctx, 42, uuid.New(), domain.RoleUser)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("agents see everything", func(t *testing.T) {
		f := newTicketServiceFixture()
		ticket := openTicket(uuid.New())

		f.ticketRepo.On("GetByID", ctx, int64(42)).Return(ticket, nil)

		_, err := f.svc.GetTicket(ctx, 42, uuid.New(), domain.RoleAgent)

		require.NoError(t, err)
	})
}

func TestTicketService_ListTickets(t *testing.T) {
	ctx := context.Background()

	t.Run("requesters are scoped to their own tickets", func(t *testing.T) {
		f := newTicketServiceFixture()
		viewer := uuid.New()
		other := uuid.New()

		f.ticketRepo.On("List", ctx, mock.MatchedBy(func(filter ports.TicketFilter) bool {
			return filter.CreatedBy != nil && *filter.CreatedBy == viewer &&
				filter.AssignedTo == nil && !filter.Unassigned
		})).Return([]*domain.Ticket{}, int64(0), nil)

		_, _, err := f.svc.ListTickets(ctx, ports.ListTicketsParams{
			ViewerID:   viewer,
			ViewerRole: domain.RoleUser,
			Filter:     ports.TicketFilter{AssignedTo: &other, Unassigned: true},
		})

		require.NoError(t, err)
		f.ticketRepo.AssertExpectations(t)
	})

	t.Run("agents keep their filter untouched", func(t *testing.T) {
		f := newTicketServiceFixture()
		assignee := uuid.New()
		filter := ports.TicketFilter{AssignedTo: &assignee, Limit: 10}

		f.ticketRepo.On("List", ctx, filter).Return([]*domain.Ticket{openTicket(uuid.New())}, int64(1), nil)

		tickets, total, err := f.svc.ListTickets(ctx, ports.ListTicketsParams{
			ViewerID:   uuid.New(),
			ViewerRole: domain.RoleAgent,
			Filter:     filter,
		})

		require.NoError(t, err)
		assert.Len(t, tickets, 1)
		assert.Equal(t, int64(1), total)
	})
}
