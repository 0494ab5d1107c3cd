package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

type NotificationRepository struct {
	pool *pgxpool.Pool
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) (*domain.Notification, error) {
	const query = `
INSERT INTO notifications (user_id, ticket_id, type, title, message, is_read, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

	db := GetDBTX(ctx, r.pool)
	created := *notification
	err := db.QueryRow(ctx, query,
		uuidParam(notification.UserID),
		notification.TicketID,
		string(notification.Type),
		notification.Title,
		notification.Message,
		notification.IsRead,
		notification.CreatedAt,
	).Scan(&created.ID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*domain.Notification, error) {
	query := `
SELECT id, user_id, ticket_id, type, title, message, is_read, created_at
FROM notifications
WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += `
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, query, uuidParam(userID), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var (
			notification domain.Notification
			owner        pgtype.UUID
		)
		if err := rows.Scan(
			&notification.ID,
			&owner,
			&notification.TicketID,
			&notification.Type,
			&notification.Title,
			&notification.Message,
			&notification.IsRead,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}
		notification.UserID = uuid.UUID(owner.Bytes)
		notifications = append(notifications, &notification)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id int64, userID uuid.UUID) error {
	db := GetDBTX(ctx, r.pool)
	tag, err := db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`,
		id, uuidParam(userID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`,
		uuidParam(userID),
	)
	return err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	db := GetDBTX(ctx, r.pool)
	var count int64
	err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`,
		uuidParam(userID),
	).Scan(&count)
	return count, err
}
