package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
)

// TicketFilter narrows ticket list queries. Nil fields are ignored.
type TicketFilter struct {
	Status       *domain.TicketStatus
	Priority     *domain.TicketPriority
	CategoryID   *int64
	DepartmentID *int64
	CreatedBy    *uuid.UUID
	AssignedTo   *uuid.UUID
	Unassigned   bool
	Breached     *bool
	Search       string
	Limit        int
	Offset       int
}

// TicketRepository defines the persistence port for tickets.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	GetByCode(ctx context.Context, code string) (*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter TicketFilter) ([]*domain.Ticket, int64, error)

	// ListBreachCandidates returns active tickets whose due date has passed
	// and whose breach flag is not yet set.
	ListBreachCandidates(ctx context.Context, now time.Time) ([]*domain.Ticket, error)

	// ListReminderCandidates returns active tickets due within [from, to)
	// whose reminder flag is not yet set.
	ListReminderCandidates(ctx context.Context, from, to time.Time) ([]*domain.Ticket, error)

	CountByStatus(ctx context.Context, userID *uuid.UUID) ([]domain.StatusCount, error)
	CountByPriority(ctx context.Context, userID *uuid.UUID) ([]domain.PriorityCount, error)
}

// HistoryRepository defines the persistence port for ticket change history.
// Entries are append-only.
type HistoryRepository interface {
	Create(ctx context.Context, entry *domain.HistoryEntry) (*domain.HistoryEntry, error)
	ListByTicket(ctx context.Context, ticketID int64) ([]*domain.HistoryEntry, error)
}

// PriorityLogRepository defines the persistence port for priority change logs.
type PriorityLogRepository interface {
	Create(ctx context.Context, change *domain.PriorityChange) (*domain.PriorityChange, error)
	ListByTicket(ctx context.Context, ticketID int64) ([]*domain.PriorityChange, error)
}

// SLAPolicyRepository defines the persistence port for the singleton SLA policy.
type SLAPolicyRepository interface {
	// GetOrCreate returns the policy row, inserting the defaults if absent.
	GetOrCreate(ctx context.Context) (domain.SLAPolicy, error)
	Update(ctx context.Context, policy domain.SLAPolicy) (domain.SLAPolicy, error)
}

// UserRepository defines the persistence port for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)

	// PickEscalationAdmin returns the active admin carrying the fewest open
	// assigned tickets, breaking ties by earliest account creation.
	PickEscalationAdmin(ctx context.Context) (*domain.User, error)
}

// NotificationRepository defines the persistence port for in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id int64, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

// CommentRepository defines the persistence port for ticket comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	ListByTicket(ctx context.Context, ticketID int64) ([]*domain.Comment, error)
}

// CategoryRepository defines the persistence port for ticket categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Category, error)
	Update(ctx context.Context, category *domain.Category) error
	Deactivate(ctx context.Context, id int64) error
}

// DepartmentRepository defines the persistence port for departments.
type DepartmentRepository interface {
	Create(ctx context.Context, department *domain.Department) (*domain.Department, error)
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Department, error)
	Update(ctx context.Context, department *domain.Department) error
	Deactivate(ctx context.Context, id int64) error
}

// DashboardRepository defines the read-only aggregation port for the admin dashboard.
type DashboardRepository interface {
	Overview(ctx context.Context, now time.Time) (*domain.DashboardOverview, error)
}

// OverviewCache defines the port for short-lived dashboard caching.
type OverviewCache interface {
	Get(ctx context.Context, key string) (*domain.DashboardOverview, error)
	Set(ctx context.Context, key string, overview *domain.DashboardOverview, ttl time.Duration) error
}

// TransactionManager defines the port for running atomic operations.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
