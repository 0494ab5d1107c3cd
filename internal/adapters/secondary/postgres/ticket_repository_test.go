package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

func seedUser(t *testing.T, ctx context.Context, role domain.Role) *domain.User {
	t.Helper()
	repo := NewUserRepository(testPool)
	user, err := repo.Create(ctx, &domain.User{
		ID:             uuid.New(),
		Name:           "Test " + string(role),
		Email:          uuid.NewString() + "@example.com",
		HashedPassword: "hashed",
		Role:           role,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	})
	require.NoError(t, err)
	return user
}

func seedTicket(t *testing.T, ctx context.Context, mutate func(*domain.Ticket)) *domain.Ticket {
	t.Helper()
	repo := NewTicketRepository(testPool)
	requester := seedUser(t, ctx, domain.RoleUser)

	now := time.Now().UTC().Truncate(time.Microsecond)
	ticket := &domain.Ticket{
		Title:         "Laptop will not boot",
		Description:   "Black screen on power-on, no fan noise.",
		Status:        domain.StatusOpen,
		Priority:      domain.PriorityMedium,
		CreatedBy:     requester.ID,
		SLADueDate:    now.Add(24 * time.Hour),
		StatusHistory: []domain.StatusStamp{{Status: domain.StatusOpen, At: now}},
		CreatedAt:     now,
	}
	if mutate != nil {
		mutate(ticket)
	}

	created, err := repo.Create(ctx, ticket)
	require.NoError(t, err)
	return created
}

func TestTicketRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	truncateAll(t)
	repo := NewTicketRepository(testPool)

	created := seedTicket(t, ctx, nil)

	assert.NotZero(t, created.ID)
	assert.True(t, strings.HasPrefix(created.Code, "#"), "code %q should carry the # prefix", created.Code)

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Code, found.Code)
	assert.Equal(t, "Laptop will not boot", found.Title)
	assert.Equal(t, domain.StatusOpen, found.Status)
	assert.Equal(t, created.CreatedBy, found.CreatedBy)
	assert.Nil(t, found.AssignedTo)
	assert.False(t, found.IsSLABreached)
	require.Len(t, found.StatusHistory, 1)
	assert.Equal(t, domain.StatusOpen, found.StatusHistory[0].Status)

	byCode, err := repo.GetByCode(ctx, created.Code)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byCode.ID)
}

func TestTicketRepository_CodesAreUnique(t *testing.T) {
	ctx := context.Background()
	truncateAll(t)

	first := seedTicket(t, ctx, nil)
	second := seedTicket(t, ctx, nil)

	assert.NotEqual(t, first.Code, second.Code)
}

func TestTicketRepository_GetMissing(t *testing.T) {
	ctx := context.Background()
	truncateAll(t)
	repo := NewTicketRepository(testPool)

	_, err := repo.GetByID(ctx, 999999)
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)

	_, err = repo.GetByCode(ctx, "#000000")
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}

func TestTicketRepository_Update(t *testing.T) {
	ctx := context.Background()
	truncateAll(t)
	repo := NewTicketRepository(testPool)

	created := seedTicket(t, ctx, nil)
	agent := seedUser(t, ctx, domain.RoleAgent)

	now := time.Now().UTC().Truncate(time.Microsecond)
	reason := domain.ClosureResolved
	spent := int64(7200000)

	created.Status = domain.StatusClosed
	created.Priority = domain.PriorityHigh
	created.AssignedTo = &agent.ID
	created.ClosureReason = &reason
	created.ResolutionNotes = "Reseated the RAM."
	created.ClosureDate = &now
	created.TotalTimeSpentMS = &spent
	created.IsSLABreached = true
	created.SLAReminderSent = true
	created.StatusHistory = append(created.StatusHistory, domain.StatusStamp{Status: domain.StatusClosed, At: now})
	created.Touch(now)

	require.NoError(t, repo.Update(ctx, created))

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, found.Status)
	assert.Equal(t, domain.PriorityHigh, found.Priority)
	require.NotNil(t, found.AssignedTo)
	assert.Equal(t, agent.ID, *found.AssignedTo)
	require.NotNil(t, found.ClosureReason)
	assert.Equal(t, domain.ClosureResolved, *found.ClosureReason)
	assert.Equal(t, "Reseated the RAM.", found.ResolutionNotes)
	require.NotNil(t, found.TotalTimeSpentMS)
	assert.Equal(t, spent, *found.TotalTimeSpentMS)
	assert.True(t, found.IsSLABreached)
	assert.True(t, found.SLAReminderSent)
	assert.Len(t, found.StatusHistory, 2)
	require.NotNil(t, found.UpdatedAt)
}

func TestTicketRepository_UpdateMissing(t *testing.T) {
	ctx := context.Background()
	truncateAll(t)
	repo := NewTicketRepository(testPool)

	err := repo.Update(ctx, &domain.Ticket{ID: 999999, SLADueDate: time.Now().UTC()})
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}

func TestTicketRepository_Delete(t *testing.T) {
	ctx := context.Background()
	truncateAll(t)
	repo := NewTicketRepository(testPool)

	created := seedTicket(t, ctx, nil)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err := repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, created.ID), apperrors.ErrTicketNotFound)
}

func TestTicketRepository_List(t *testing.T) {
	ctx := context.Background()
	truncateAll(t)
	repo := NewTicketRepository(testPool)

	open := seedTicket(t, ctx, func(ticket *domain.Ticket) {
		ticket.Title = "Open high"
		ticket.Priority = domain.PriorityHigh
	})
	seedTicket(t, ctx, func(ticket *domain.Ticket) {
		ticket.Title = "Open medium"
	})
	seedTicket(t, ctx, func(ticket *domain.Ticket) {
		ticket.Title = "Resolved low"
		ticket.Status = domain.StatusResolved
		ticket.Priority = domain.PriorityLow
	})

	t.Run("unfiltered returns everything with the total", func(t *testing.T) {
		tickets, total, err := repo.List(ctx, ports.TicketFilter{Limit: 10})
		require.NoError(t, err)
		assert.Len(t, tickets, 3)
		assert.Equal(t, int64(3), total)
	})

	t.Run("status filter", func(t *testing.T) {
		status := domain.StatusResolved
		tickets, total, err := repo.List(ctx, ports.TicketFilter{Status: &status, Limit: 10})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "Resolved low", tickets[0].Title)
	})

	t.Run("priority filter", func(t *testing.T) {
		priority := domain.PriorityHigh
		tickets, _, err := repo.List(ctx, ports.TicketFilter{Priority: &priority, Limit: 10})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, "Open high", tickets[0].Title)
	})

	t.Run("requester filter", func(t *testing.T) {
		tickets, _, err := repo.List(ctx, ports.TicketFilter{CreatedBy: &open.CreatedBy, Limit: 10})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, open.ID, tickets[0].ID)
	})

	t.Run("unassigned filter", func(t *testing.T) {
		_, total, err := repo.List(ctx, ports.TicketFilter{Unassigned: true, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})

	t.Run("search by title", func(t *testing.T) {
		tickets, _, err := repo.List(ctx, ports.TicketFilter{Search: "open", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, tickets, 2)
	})

	t.Run("search by exact code", func(t *testing.T) {
		tickets, _, err := repo.List(ctx, ports.TicketFilter{Search: open.Code, Limit: 10})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, open.ID, tickets[0].ID)
	})

	t.Run("pagination", func(t *testing.T) {
		page, total, err := repo.List(ctx, ports.TicketFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, page, 2)
		assert.Equal(t, int64(3), total)

		rest, _, err := repo.List(ctx, ports.TicketFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Len(t, rest, 1)
	})
}

func TestTicketRepository_BreachCandidates(t *testing.T) {
	ctx := context.Background()
	truncateAll(t)
	repo := NewTicketRepository(testPool)

	now := time.Now().UTC().Truncate(time.Microsecond)

	overdue := seedTicket(t, ctx, func(ticket *domain.Ticket) {
		ticket.Title = "Overdue open"
		ticket.SLADueDate = now.Add(-time.Hour)
	})
	seedTicket(t, ctx, func(ticket *domain.Ticket) {
		ticket.Title = "Overdue but resolved"
		ticket.Status = domain.StatusResolved
		ticket.SLADueDate = now.Add(-time.Hour)
	})
	seedTicket(t, ctx, func(ticket *domain.Ticket) {
		ticket.Title = "Overdue but already latched"
		ticket.SLADueDate = now.Add(-time.Hour)
		ticket.IsSLABreached = true
	})
	seedTicket(t, ctx, func(ticket *domain.Ticket) {
		ticket.Title = "Not due yet"
		ticket.SLADueDate = now.Add(time.Hour)
	})

	candidates, err := repo.ListBreachCandidates(ctx, now)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, overdue.ID, candidates[0].ID)
}

func TestTicketRepository_ReminderCandidates(t *testing.T) {
	ctx := context.Background()
	truncateAll(t)
	repo := NewTicketRepository(testPool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	window := now.Add(domain.ReminderWindow)

	approaching := seedTicket(t, ctx, func(ticket *domain.Ticket) {
		ticket.Title = "Due in fifteen minutes"
		ticket.SLADueDate = now.Add(15 * time.Minute)
	})
	seedTicket(t, ctx, func(ticket *domain.Ticket) {
		ticket.Title = "Already past due"
		ticket.SLADueDate = now.Add(-time.Minute)
	})
	seedTicket(t, ctx, func(ticket *domain.Ticket) {
		ticket.Title = "Due after the window"
		ticket.SLADueDate = now.Add(2 * time.Hour)
	})
	seedTicket(t, ctx, func(ticket *domain.Ticket) {
		ticket.Title = "Reminder already sent"
		ticket.SLADueDate = now.Add(15 * time.Minute)
		ticket.SLAReminderSent = true
	})
	seedTicket(t, ctx, func(ticket *domain.Ticket) {
		ticket.Title = "Approaching but closed"
		ticket.Status = domain.StatusClosed
		ticket.SLADueDate = now.Add(15 * time.Minute)
	})

	candidates, err := repo.ListReminderCandidates(ctx, now, window)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, approaching.ID, candidates[0].ID)
}

func TestTicketRepository_Counts(t *testing.T) {
	ctx := context.Background()
	truncateAll(t)
	repo := NewTicketRepository(testPool)

	mine := seedTicket(t, ctx, nil)
	seedTicket(t, ctx, func(ticket *domain.Ticket) {
		ticket.Status = domain.StatusResolved
		ticket.Priority = domain.PriorityCritical
	})

	t.Run("global counts", func(t *testing.T) {
		byStatus, err := repo.CountByStatus(ctx, nil)
		require.NoError(t, err)
		total := int64(0)
		for _, sc := range byStatus {
			total += sc.Count
		}
		assert.Equal(t, int64(2), total)

		byPriority, err := repo.CountByPriority(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, byPriority, 2)
	})

	t.Run("scoped to one requester", func(t *testing.T) {
		byStatus, err := repo.CountByStatus(ctx, &mine.CreatedBy)
		require.NoError(t, err)
		require.Len(t, byStatus, 1)
		assert.Equal(t, domain.StatusOpen, byStatus[0].Status)
		assert.Equal(t, int64(1), byStatus[0].Count)
	})
}
