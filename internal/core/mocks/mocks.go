package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// MockTicketRepository is a mock implementation of ports.TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{}
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	args := m.Called(ctx, ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockTicketRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTicketRepository) List(ctx context.Context, filter ports.TicketFilter) ([]*domain.Ticket, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*domain.Ticket), args.Get(1).(int64), args.Error(2)
}

func (m *MockTicketRepository) ListBreachCandidates(ctx context.Context, now time.Time) ([]*domain.Ticket, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) ListReminderCandidates(ctx context.Context, from, to time.Time) ([]*domain.Ticket, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) CountByStatus(ctx context.Context, userID *uuid.UUID) ([]domain.StatusCount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StatusCount), args.Error(1)
}

func (m *MockTicketRepository) CountByPriority(ctx context.Context, userID *uuid.UUID) ([]domain.PriorityCount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PriorityCount), args.Error(1)
}

// MockHistoryRepository is a mock implementation of ports.HistoryRepository
type MockHistoryRepository struct {
	mock.Mock
}

func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{}
}

func (m *MockHistoryRepository) Create(ctx context.Context, entry *domain.HistoryEntry) (*domain.HistoryEntry, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HistoryEntry), args.Error(1)
}

func (m *MockHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]*domain.HistoryEntry, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HistoryEntry), args.Error(1)
}

// MockPriorityLogRepository is a mock implementation of ports.PriorityLogRepository
type MockPriorityLogRepository struct {
	mock.Mock
}

func NewMockPriorityLogRepository() *MockPriorityLogRepository {
	return &MockPriorityLogRepository{}
}

func (m *MockPriorityLogRepository) Create(ctx context.Context, change *domain.PriorityChange) (*domain.PriorityChange, error) {
	args := m.Called(ctx, change)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriorityChange), args.Error(1)
}

func (m *MockPriorityLogRepository) ListByTicket(ctx context.Context, ticketID int64) ([]*domain.PriorityChange, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PriorityChange), args.Error(1)
}

// MockSLAPolicyRepository is a mock implementation of ports.SLAPolicyRepository
type MockSLAPolicyRepository struct {
	mock.Mock
}

func NewMockSLAPolicyRepository() *MockSLAPolicyRepository {
	return &MockSLAPolicyRepository{}
}

func (m *MockSLAPolicyRepository) GetOrCreate(ctx context.Context) (domain.SLAPolicy, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.SLAPolicy), args.Error(1)
}

func (m *MockSLAPolicyRepository) Update(ctx context.Context, policy domain.SLAPolicy) (domain.SLAPolicy, error) {
	args := m.Called(ctx, policy)
	return args.Get(0).(domain.SLAPolicy), args.Error(1)
}

// MockUserRepository is a mock implementation of ports.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepository) PickEscalationAdmin(ctx context.Context) (*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockNotificationRepository is a mock implementation of ports.NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *domain.Notification) (*domain.Notification, error) {
	args := m.Called(ctx, notification)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*domain.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id int64, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockCommentRepository is a mock implementation of ports.CommentRepository
type MockCommentRepository struct {
	mock.Mock
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{}
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	args := m.Called(ctx, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *MockCommentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]*domain.Comment, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Comment), args.Error(1)
}

// MockCategoryRepository is a mock implementation of ports.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{}
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Deactivate(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDepartmentRepository is a mock implementation of ports.DepartmentRepository
type MockDepartmentRepository struct {
	mock.Mock
}

func NewMockDepartmentRepository() *MockDepartmentRepository {
	return &MockDepartmentRepository{}
}

func (m *MockDepartmentRepository) Create(ctx context.Context, department *domain.Department) (*domain.Department, error) {
	args := m.Called(ctx, department)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Department), args.Error(1)
}

func (m *MockDepartmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Department), args.Error(1)
}

func (m *MockDepartmentRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Department, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Department), args.Error(1)
}

func (m *MockDepartmentRepository) Update(ctx context.Context, department *domain.Department) error {
	args := m.Called(ctx, department)
	return args.Error(0)
}

func (m *MockDepartmentRepository) Deactivate(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDashboardRepository is a mock implementation of ports.DashboardRepository
type MockDashboardRepository struct {
	mock.Mock
}

func NewMockDashboardRepository() *MockDashboardRepository {
	return &MockDashboardRepository{}
}

func (m *MockDashboardRepository) Overview(ctx context.Context, now time.Time) (*domain.DashboardOverview, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardOverview), args.Error(1)
}

// MockOverviewCache is a mock implementation of ports.OverviewCache
type MockOverviewCache struct {
	mock.Mock
}

func NewMockOverviewCache() *MockOverviewCache {
	return &MockOverviewCache{}
}

func (m *MockOverviewCache) Get(ctx context.Context, key string) (*domain.DashboardOverview, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardOverview), args.Error(1)
}

func (m *MockOverviewCache) Set(ctx context.Context, key string, overview *domain.DashboardOverview, ttl time.Duration) error {
	args := m.Called(ctx, key, overview, ttl)
	return args.Error(0)
}

// MockNotifier is a mock implementation of ports.Notifier
type MockNotifier struct {
	mock.Mock
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, params ports.NotificationParams) {
	m.Called(ctx, params)
}

// MockMailer is a mock implementation of ports.Mailer
type MockMailer struct {
	mock.Mock
}

func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) Send(ctx context.Context, msg ports.EmailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) {
	m.Called(event)
}

func (m *MockEventBroadcaster) SendToUser(userID uuid.UUID, event domain.Event) {
	m.Called(userID, event)
}

// MockTokenIssuer is a mock implementation of ports.TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func NewMockTokenIssuer() *MockTokenIssuer {
	return &MockTokenIssuer{}
}

func (m *MockTokenIssuer) Issue(userID uuid.UUID, role domain.Role) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

// MockTransactionManager is a passthrough implementation of
// ports.TransactionManager that runs the function with the given context.
type MockTransactionManager struct{}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockSLAService is a mock implementation of ports.SLAService
type MockSLAService struct {
	mock.Mock
}

func NewMockSLAService() *MockSLAService {
	return &MockSLAService{}
}

func (m *MockSLAService) Policy(ctx context.Context) (domain.SLAPolicy, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.SLAPolicy), args.Error(1)
}

func (m *MockSLAService) UpdatePolicy(ctx context.Context, patch domain.SLAPolicyPatch) (domain.SLAPolicy, error) {
	args := m.Called(ctx, patch)
	return args.Get(0).(domain.SLAPolicy), args.Error(1)
}

func (m *MockSLAService) DueDateFor(ctx context.Context, priority domain.TicketPriority) (time.Time, error) {
	args := m.Called(ctx, priority)
	return args.Get(0).(time.Time), args.Error(1)
}

// MockDashboardService is a mock implementation of ports.DashboardService
type MockDashboardService struct {
	mock.Mock
}

func NewMockDashboardService() *MockDashboardService {
	return &MockDashboardService{}
}

func (m *MockDashboardService) Overview(ctx context.Context) (*domain.DashboardOverview, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardOverview), args.Error(1)
}

// MockSweepService is a mock implementation of ports.SweepService
type MockSweepService struct {
	mock.Mock
}

func NewMockSweepService() *MockSweepService {
	return &MockSweepService{}
}

func (m *MockSweepService) Sweep(ctx context.Context) (ports.SweepSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(ports.SweepSummary), args.Error(1)
}
