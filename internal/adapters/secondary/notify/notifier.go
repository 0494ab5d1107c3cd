package notify

import (
	"context"
	"log/slog"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// DispatchNotifier delivers a notification three ways: it persists the
// in-app record, pushes a real-time event to the recipient, and emails
// them. Each leg fails independently; failures are logged, never returned,
// so a broken mail relay cannot sink a ticket update.
type DispatchNotifier struct {
	notificationRepo ports.NotificationRepository
	userRepo         ports.UserRepository
	broadcaster      ports.EventBroadcaster
	mailer           ports.Mailer
	logger           *slog.Logger
}

var _ ports.Notifier = (*DispatchNotifier)(nil)

// NewDispatchNotifier creates the composite notifier.
func NewDispatchNotifier(
	notificationRepo ports.NotificationRepository,
	userRepo ports.UserRepository,
	broadcaster ports.EventBroadcaster,
	mailer ports.Mailer,
	logger *slog.Logger,
) *DispatchNotifier {
	return &DispatchNotifier{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		broadcaster:      broadcaster,
		mailer:           mailer,
		logger:           logger.With("component", "notifier"),
	}
}

// Notify dispatches one notification. Runs on a background context since
// the originating request may already be done.
func (n *DispatchNotifier) Notify(ctx context.Context, params ports.NotificationParams) {
	notifyCtx := context.Background()

	ticketID := params.TicketID
	notification := domain.NewNotification(
		params.RecipientUserID,
		&ticketID,
		params.Type,
		params.Subject,
		params.Message,
	)

	created, err := n.notificationRepo.Create(notifyCtx, notification)
	if err != nil {
		n.logger.Error("failed to persist notification",
			"user_id", params.RecipientUserID,
			"ticket_id", params.TicketID,
			"error", err,
		)
	} else {
		n.broadcaster.SendToUser(params.RecipientUserID, domain.Event{
			Type:     domain.EventNotificationCreated,
			Payload:  created,
			TicketID: params.TicketID,
		})
	}

	user, err := n.userRepo.GetByID(notifyCtx, params.RecipientUserID)
	if err != nil {
		n.logger.Error("failed to get user for notification",
			"user_id", params.RecipientUserID,
			"error", err,
		)
		return
	}

	if err := n.mailer.Send(notifyCtx, ports.EmailMessage{
		To:      user.Email,
		Subject: params.Subject,
		Body:    params.Message,
	}); err != nil {
		n.logger.Error("failed to email notification",
			"to", user.Email,
			"ticket_id", params.TicketID,
			"error", err,
		)
	}
}
