package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
)

// AuthService defines the port for authentication business logic.
type AuthService interface {
	Register(ctx context.Context, params domain.UserRegistrationParams) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
}

// TokenIssuer defines the port for minting session tokens.
type TokenIssuer interface {
	Issue(userID uuid.UUID, role domain.Role) (string, error)
}

// AuthorizationService defines the port for checking user permissions.
type AuthorizationService interface {
	Can(role domain.Role, permission string) bool
	Permissions(role domain.Role) []string
}

// CreateTicketParams defines the required input for creating a new ticket.
type CreateTicketParams struct {
	Title        string
	Description  string
	Priority     domain.TicketPriority
	CategoryID   *int64
	DepartmentID *int64
	Attachments  []string
	CreatedBy    uuid.UUID
}

// UpdateTicketParams is the change set applied to a ticket in one atomic
// update. Nil fields leave the corresponding ticket field untouched.
type UpdateTicketParams struct {
	TicketID  int64
	ActorID   uuid.UUID
	ActorRole domain.Role

	Title           *string
	Description     *string
	Status          *domain.TicketStatus
	Priority        *domain.TicketPriority
	AssignedTo      *uuid.UUID
	Unassign        bool
	CategoryID      *int64
	DepartmentID    *int64
	ClosureReason   *domain.ClosureReason
	ResolutionNotes *string
}

// ListTicketsParams defines the input for listing tickets.
type ListTicketsParams struct {
	ViewerID   uuid.UUID
	ViewerRole domain.Role
	Filter     TicketFilter
}

// TicketDetails bundles a ticket with its related records for the detail view.
type TicketDetails struct {
	Ticket       *domain.Ticket
	History      []*domain.HistoryEntry
	PriorityLog  []*domain.PriorityChange
	Comments     []*domain.Comment
	Requester    *domain.User
	Assignee     *domain.User
	Category     *domain.Category
	Department   *domain.Department
}

// TicketService defines the core business operations for managing tickets.
type TicketService interface {
	CreateTicket(ctx context.Context, params CreateTicketParams) (*domain.Ticket, error)
	GetTicket(ctx context.Context, ticketID int64, viewerID uuid.UUID, viewerRole domain.Role) (*domain.Ticket, error)
	GetTicketDetails(ctx context.Context, ticketID int64, viewerID uuid.UUID, viewerRole domain.Role) (*TicketDetails, error)
	UpdateTicket(ctx context.Context, params UpdateTicketParams) (*domain.Ticket, error)
	DeleteTicket(ctx context.Context, ticketID int64, actorID uuid.UUID, actorRole domain.Role) error
	ListTickets(ctx context.Context, params ListTicketsParams) ([]*domain.Ticket, int64, error)
	ListHistory(ctx context.Context, ticketID int64, viewerID uuid.UUID, viewerRole domain.Role) ([]*domain.HistoryEntry, error)
	ListPriorityLog(ctx context.Context, ticketID int64, viewerID uuid.UUID, viewerRole domain.Role) ([]*domain.PriorityChange, error)
	Stats(ctx context.Context, userID *uuid.UUID) (*domain.TicketStats, error)
	Shutdown()
}

// SLAService defines the port for SLA policy management and deadline computation.
type SLAService interface {
	Policy(ctx context.Context) (domain.SLAPolicy, error)
	UpdatePolicy(ctx context.Context, patch domain.SLAPolicyPatch) (domain.SLAPolicy, error)
	DueDateFor(ctx context.Context, priority domain.TicketPriority) (time.Time, error)
}

// SweepSummary reports the outcome of one SLA sweep pass.
type SweepSummary struct {
	Breached  int
	Escalated int
	Reminded  int
	Errors    int
}

// SweepService defines the port for the periodic SLA scan.
type SweepService interface {
	Sweep(ctx context.Context) (SweepSummary, error)
}

// CreateCommentParams defines the input for creating a comment.
type CreateCommentParams struct {
	TicketID    int64
	ActorID     uuid.UUID
	ActorRole   domain.Role
	Text        string
	Attachments []string
	ParentID    *int64
}

// CommentService defines the port for comment-related business logic.
type CommentService interface {
	CreateComment(ctx context.Context, params CreateCommentParams) (*domain.Comment, error)
	GetCommentsForTicket(ctx context.Context, ticketID int64, viewerID uuid.UUID, viewerRole domain.Role) ([]*domain.Comment, error)
}

// NotificationService defines the port for in-app notification queries.
type NotificationService interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id int64, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

// TaxonomyService defines the port for category and department management.
type TaxonomyService interface {
	CreateCategory(ctx context.Context, params domain.TaxonomyParams) (*domain.Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]*domain.Category, error)
	DeactivateCategory(ctx context.Context, id int64) error
	CreateDepartment(ctx context.Context, params domain.TaxonomyParams) (*domain.Department, error)
	ListDepartments(ctx context.Context, activeOnly bool) ([]*domain.Department, error)
	DeactivateDepartment(ctx context.Context, id int64) error
}

// DashboardService defines the port for the admin dashboard aggregate.
type DashboardService interface {
	Overview(ctx context.Context) (*domain.DashboardOverview, error)
}

// ExportService defines the port for spreadsheet exports of ticket lists.
type ExportService interface {
	ExportTickets(ctx context.Context, params ListTicketsParams) ([]byte, string, error)
}

// NotificationParams defines the input for dispatching a notification.
type NotificationParams struct {
	RecipientUserID uuid.UUID
	Type            domain.NotificationType
	Subject         string
	Message         string
	TicketID        int64
}

// Notifier defines the port for sending asynchronous notifications.
type Notifier interface {
	Notify(ctx context.Context, params NotificationParams)
}

// EmailMessage is one outbound email.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// Mailer defines the port for sending email.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EventBroadcaster defines the port for pushing real-time events to clients.
type EventBroadcaster interface {
	Broadcast(event domain.Event)
	SendToUser(userID uuid.UUID, event domain.Event)
}
