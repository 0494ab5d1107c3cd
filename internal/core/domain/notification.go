package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType categorizes in-app notifications.
type NotificationType string

const (
	NotificationTicketAssigned  NotificationType = "TICKET_ASSIGNED"
	NotificationStatusChanged   NotificationType = "STATUS_CHANGED"
	NotificationPriorityChanged NotificationType = "PRIORITY_CHANGED"
	NotificationTicketClosed    NotificationType = "TICKET_CLOSED"
	NotificationTicketReopened  NotificationType = "TICKET_REOPENED"
	NotificationCommentAdded    NotificationType = "COMMENT_ADDED"
	NotificationSLAReminder     NotificationType = "SLA_REMINDER"
	NotificationSLABreached     NotificationType = "SLA_BREACHED"
	NotificationTicketEscalated NotificationType = "TICKET_ESCALATED"
)

// Notification is an in-app message addressed to a single user.
type Notification struct {
	ID        int64
	UserID    uuid.UUID
	TicketID  *int64
	Type      NotificationType
	Title     string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

// NewNotification builds an unread notification.
func NewNotification(userID uuid.UUID, ticketID *int64, kind NotificationType, title, message string) *Notification {
	return &Notification{
		UserID:    userID,
		TicketID:  ticketID,
		Type:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}
