package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// HistoryRepository persists the append-only ticket change history.
// A zero ChangedBy is stored as NULL and read back as zero: it marks
// system-driven changes such as escalations.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

var _ ports.HistoryRepository = (*HistoryRepository)(nil)

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

func (r *HistoryRepository) Create(ctx context.Context, entry *domain.HistoryEntry) (*domain.HistoryEntry, error) {
	const query = `
INSERT INTO ticket_history (ticket_id, field_changed, old_value, new_value, changed_by, changed_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

	var changedBy pgtype.UUID
	if entry.ChangedBy != uuid.Nil {
		changedBy = pgtype.UUID{Bytes: entry.ChangedBy, Valid: true}
	}

	db := GetDBTX(ctx, r.pool)
	created := *entry
	err := db.QueryRow(ctx, query,
		entry.TicketID,
		string(entry.FieldChanged),
		entry.OldValue,
		entry.NewValue,
		changedBy,
		entry.ChangedAt,
	).Scan(&created.ID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *HistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]*domain.HistoryEntry, error) {
	const query = `
SELECT id, ticket_id, field_changed, old_value, new_value, changed_by, changed_at
FROM ticket_history
WHERE ticket_id = $1
ORDER BY changed_at ASC, id ASC`

	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.HistoryEntry
	for rows.Next() {
		var (
			entry     domain.HistoryEntry
			changedBy pgtype.UUID
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.FieldChanged,
			&entry.OldValue,
			&entry.NewValue,
			&changedBy,
			&entry.ChangedAt,
		); err != nil {
			return nil, err
		}
		if changedBy.Valid {
			entry.ChangedBy = uuid.UUID(changedBy.Bytes)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
