package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// CommentService implements comment-related business logic.
type CommentService struct {
	commentRepo ports.CommentRepository
	ticketRepo  ports.TicketRepository
	authzSvc    ports.AuthorizationService
	notifier    ports.Notifier
	broadcaster ports.EventBroadcaster
	wg          sync.WaitGroup
}

var _ ports.CommentService = (*CommentService)(nil)

// NewCommentService creates a new comment service.
func NewCommentService(
	commentRepo ports.CommentRepository,
	ticketRepo ports.TicketRepository,
	authzSvc ports.AuthorizationService,
	notifier ports.Notifier,
	broadcaster ports.EventBroadcaster,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		ticketRepo:  ticketRepo,
		authzSvc:    authzSvc,
		notifier:    notifier,
		broadcaster: broadcaster,
	}
}

// CreateComment adds a comment to a ticket the actor may see.
func (s *CommentService) CreateComment(ctx context.Context, params ports.CreateCommentParams) (*domain.Comment, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeAccess(ticket, params.ActorID, params.ActorRole); err != nil {
		return nil, err
	}

	if params.ParentID != nil {
		parent, err := s.commentRepo.ListByTicket(ctx, params.TicketID)
		if err != nil {
			return nil, err
		}
		if !containsComment(parent, *params.ParentID) {
			return nil, apperrors.NewNotFoundError(apperrors.ErrCommentNotFound, "Parent comment not found on this ticket")
		}
	}

	comment, err := domain.NewComment(domain.CommentParams{
		TicketID:    params.TicketID,
		AuthorID:    params.ActorID,
		Text:        params.Text,
		Attachments: params.Attachments,
		ParentID:    params.ParentID,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.commentRepo.Create(ctx, comment)
	if err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.broadcaster.Broadcast(domain.Event{
			Type:     domain.EventCommentAdded,
			Payload:  domain.NewCommentSnapshot(created),
			TicketID: ticket.ID,
		})

		// Tell the other side of the conversation.
		recipient := ticket.CreatedBy
		if params.ActorID == ticket.CreatedBy && ticket.AssignedTo != nil {
			recipient = *ticket.AssignedTo
		}
		if recipient != params.ActorID {
			s.notifier.Notify(context.Background(), ports.NotificationParams{
				RecipientUserID: recipient,
				Type:            domain.NotificationCommentAdded,
				Subject:         fmt.Sprintf("New comment on ticket %s", ticket.Code),
				Message:         fmt.Sprintf("Ticket '%s' has a new comment.", ticket.Title),
				TicketID:        ticket.ID,
			})
		}
	}()

	return created, nil
}

// GetCommentsForTicket lists all comments on a ticket the viewer may see.
func (s *CommentService) GetCommentsForTicket(ctx context.Context, ticketID int64, viewerID uuid.UUID, viewerRole domain.Role) ([]*domain.Comment, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeAccess(ticket, viewerID, viewerRole); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByTicket(ctx, ticketID)
}

// Shutdown waits for in-flight comment notifications to finish.
func (s *CommentService) Shutdown() {
	s.wg.Wait()
}

func (s *CommentService) authorizeAccess(ticket *domain.Ticket, userID uuid.UUID, role domain.Role) error {
	if ticket.IsOwnedBy(userID) || ticket.IsAssignedTo(userID) {
		return nil
	}
	if s.authzSvc.Can(role, PermTicketsReadAll) {
		return nil
	}
	return apperrors.ErrForbidden
}

func containsComment(comments []*domain.Comment, id int64) bool {
	for _, c := range comments {
		if c.ID == id {
			return true
		}
	}
	return false
}
