package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// PriorityLogRepository persists the dedicated priority change log.
type PriorityLogRepository struct {
	pool *pgxpool.Pool
}

var _ ports.PriorityLogRepository = (*PriorityLogRepository)(nil)

func NewPriorityLogRepository(pool *pgxpool.Pool) *PriorityLogRepository {
	return &PriorityLogRepository{pool: pool}
}

func (r *PriorityLogRepository) Create(ctx context.Context, change *domain.PriorityChange) (*domain.PriorityChange, error) {
	const query = `
INSERT INTO priority_change_logs (ticket_id, changed_by, old_priority, new_priority, changed_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`

	var changedBy pgtype.UUID
	if change.ChangedBy != uuid.Nil {
		changedBy = pgtype.UUID{Bytes: change.ChangedBy, Valid: true}
	}

	db := GetDBTX(ctx, r.pool)
	created := *change
	err := db.QueryRow(ctx, query,
		change.TicketID,
		changedBy,
		string(change.OldPriority),
		string(change.NewPriority),
		change.ChangedAt,
	).Scan(&created.ID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *PriorityLogRepository) ListByTicket(ctx context.Context, ticketID int64) ([]*domain.PriorityChange, error) {
	const query = `
SELECT id, ticket_id, changed_by, old_priority, new_priority, changed_at
FROM priority_change_logs
WHERE ticket_id = $1
ORDER BY changed_at ASC, id ASC`

	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []*domain.PriorityChange
	for rows.Next() {
		var (
			change    domain.PriorityChange
			changedBy pgtype.UUID
		)
		if err := rows.Scan(
			&change.ID,
			&change.TicketID,
			&changedBy,
			&change.OldPriority,
			&change.NewPriority,
			&change.ChangedAt,
		); err != nil {
			return nil, err
		}
		if changedBy.Valid {
			change.ChangedBy = uuid.UUID(changedBy.Bytes)
		}
		changes = append(changes, &change)
	}
	return changes, rows.Err()
}
