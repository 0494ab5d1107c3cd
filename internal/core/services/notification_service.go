package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// NotificationService exposes a user's in-app notification feed.
type NotificationService struct {
	notificationRepo ports.NotificationRepository
}

var _ ports.NotificationService = (*NotificationService)(nil)

// NewNotificationService creates a new notification service.
func NewNotificationService(notificationRepo ports.NotificationRepository) ports.NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// List returns a page of the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.notificationRepo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id int64, userID uuid.UUID) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks every unread notification for the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

// UnreadCount returns how many unread notifications the user has.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}
