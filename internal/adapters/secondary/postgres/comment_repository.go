package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

type CommentRepository struct {
	pool *pgxpool.Pool
}

var _ ports.CommentRepository = (*CommentRepository)(nil)

func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	const query = `
INSERT INTO comments (ticket_id, author_id, text, attachments, parent_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

	db := GetDBTX(ctx, r.pool)
	created := *comment
	err := db.QueryRow(ctx, query,
		comment.TicketID,
		uuidParam(comment.AuthorID),
		comment.Text,
		comment.Attachments,
		comment.ParentID,
		comment.CreatedAt,
	).Scan(&created.ID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *CommentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]*domain.Comment, error) {
	const query = `
SELECT id, ticket_id, author_id, text, attachments, parent_id, created_at
FROM comments
WHERE ticket_id = $1
ORDER BY created_at ASC, id ASC`

	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*domain.Comment
	for rows.Next() {
		var (
			comment domain.Comment
			author  pgtype.UUID
		)
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&author,
			&comment.Text,
			&comment.Attachments,
			&comment.ParentID,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		comment.AuthorID = uuid.UUID(author.Bytes)
		comments = append(comments, &comment)
	}
	return comments, rows.Err()
}
