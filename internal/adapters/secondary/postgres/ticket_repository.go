package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// ticketColumns is the canonical select list shared by every ticket query.
const ticketColumns = `
	id, code, title, description, category_id, department_id, attachments,
	status, priority, created_by, assigned_to,
	sla_due_date, is_sla_breached, sla_reminder_sent,
	closure_reason, resolution_notes, closure_date, total_time_spent_ms, reopened_at,
	status_history, created_at, updated_at`

type TicketRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

// Create inserts the ticket and assigns its public code from the ticket
// code sequence in the same statement.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	statusHistory, err := json.Marshal(ticket.StatusHistory)
	if err != nil {
		return nil, fmt.Errorf("marshal status history: %w", err)
	}

	const query = `
INSERT INTO tickets (
	code, title, description, category_id, department_id, attachments,
	status, priority, created_by, assigned_to,
	sla_due_date, is_sla_breached, sla_reminder_sent,
	resolution_notes, status_history, created_at
) VALUES (
	'#' || nextval('ticket_code_seq')::text,
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
)
RETURNING ` + ticketColumns

	db := GetDBTX(ctx, r.pool)
	row := db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.CategoryID,
		ticket.DepartmentID,
		ticket.Attachments,
		string(ticket.Status),
		string(ticket.Priority),
		uuidParam(ticket.CreatedBy),
		uuidPtrParam(ticket.AssignedTo),
		ticket.SLADueDate,
		ticket.IsSLABreached,
		ticket.SLAReminderSent,
		ticket.ResolutionNotes,
		statusHistory,
		ticket.CreatedAt,
	)

	return scanTicket(row)
}

func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	db := GetDBTX(ctx, r.pool)
	ticket, err := scanTicket(db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (r *TicketRepository) GetByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE code = $1`

	db := GetDBTX(ctx, r.pool)
	ticket, err := scanTicket(db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

// Update persists every mutable ticket field. The code and created_at
// columns are immutable after insert.
func (r *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	statusHistory, err := json.Marshal(ticket.StatusHistory)
	if err != nil {
		return fmt.Errorf("marshal status history: %w", err)
	}

	const query = `
UPDATE tickets SET
	title = $2,
	description = $3,
	category_id = $4,
	department_id = $5,
	attachments = $6,
	status = $7,
	priority = $8,
	assigned_to = $9,
	sla_due_date = $10,
	is_sla_breached = $11,
	sla_reminder_sent = $12,
	closure_reason = $13,
	resolution_notes = $14,
	closure_date = $15,
	total_time_spent_ms = $16,
	reopened_at = $17,
	status_history = $18,
	updated_at = $19
WHERE id = $1`

	var closureReason *string
	if ticket.ClosureReason != nil {
		value := string(*ticket.ClosureReason)
		closureReason = &value
	}

	db := GetDBTX(ctx, r.pool)
	tag, err := db.Exec(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.CategoryID,
		ticket.DepartmentID,
		ticket.Attachments,
		string(ticket.Status),
		string(ticket.Priority),
		uuidPtrParam(ticket.AssignedTo),
		ticket.SLADueDate,
		ticket.IsSLABreached,
		ticket.SLAReminderSent,
		closureReason,
		ticket.ResolutionNotes,
		ticket.ClosureDate,
		ticket.TotalTimeSpentMS,
		ticket.ReopenedAt,
		statusHistory,
		ticket.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTicketNotFound
	}
	return nil
}

func (r *TicketRepository) Delete(ctx context.Context, id int64) error {
	db := GetDBTX(ctx, r.pool)
	tag, err := db.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTicketNotFound
	}
	return nil
}

// List returns a filtered page of tickets plus the total row count for the
// same filter.
func (r *TicketRepository) List(ctx context.Context, filter ports.TicketFilter) ([]*domain.Ticket, int64, error) {
	where, args := buildTicketFilter(filter)

	countQuery := `SELECT COUNT(*) FROM tickets` + where

	db := GetDBTX(ctx, r.pool)
	var total int64
	if err := db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	listQuery := `SELECT ` + ticketColumns + ` FROM tickets` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets, err := collectTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

// ListBreachCandidates selects active tickets past their deadline whose
// breach flag has not latched yet.
func (r *TicketRepository) ListBreachCandidates(ctx context.Context, now time.Time) ([]*domain.Ticket, error) {
	query := `
SELECT ` + ticketColumns + `
FROM tickets
WHERE sla_due_date < $1
  AND status NOT IN ('Resolved', 'Closed')
  AND is_sla_breached = FALSE
ORDER BY sla_due_date ASC`

	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTickets(rows)
}

// ListReminderCandidates selects active tickets due within [from, to) whose
// reminder flag has not latched yet.
func (r *TicketRepository) ListReminderCandidates(ctx context.Context, from, to time.Time) ([]*domain.Ticket, error) {
	query := `
SELECT ` + ticketColumns + `
FROM tickets
WHERE sla_due_date >= $1
  AND sla_due_date < $2
  AND status NOT IN ('Resolved', 'Closed')
  AND sla_reminder_sent = FALSE
ORDER BY sla_due_date ASC`

	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTickets(rows)
}

func (r *TicketRepository) CountByStatus(ctx context.Context, userID *uuid.UUID) ([]domain.StatusCount, error) {
	query := `SELECT status, COUNT(*) FROM tickets`
	var args []interface{}
	if userID != nil {
		query += ` WHERE created_by = $1`
		args = append(args, uuidParam(*userID))
	}
	query += ` GROUP BY status`

	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []domain.StatusCount
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts = append(counts, domain.StatusCount{Status: domain.TicketStatus(status), Count: count})
	}
	return counts, rows.Err()
}

func (r *TicketRepository) CountByPriority(ctx context.Context, userID *uuid.UUID) ([]domain.PriorityCount, error) {
	query := `SELECT priority, COUNT(*) FROM tickets`
	var args []interface{}
	if userID != nil {
		query += ` WHERE created_by = $1`
		args = append(args, uuidParam(*userID))
	}
	query += ` GROUP BY priority`

	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []domain.PriorityCount
	for rows.Next() {
		var (
			priority string
			count    int64
		)
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		counts = append(counts, domain.PriorityCount{Priority: domain.TicketPriority(priority), Count: count})
	}
	return counts, rows.Err()
}

// buildTicketFilter renders the WHERE clause for List from the non-zero
// filter fields.
func buildTicketFilter(filter ports.TicketFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)

	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != nil {
		add("status = $%d", string(*filter.Status))
	}
	if filter.Priority != nil {
		add("priority = $%d", string(*filter.Priority))
	}
	if filter.CategoryID != nil {
		add("category_id = $%d", *filter.CategoryID)
	}
	if filter.DepartmentID != nil {
		add("department_id = $%d", *filter.DepartmentID)
	}
	if filter.CreatedBy != nil {
		add("created_by = $%d", uuidParam(*filter.CreatedBy))
	}
	if filter.AssignedTo != nil {
		add("assigned_to = $%d", uuidParam(*filter.AssignedTo))
	}
	if filter.Unassigned {
		clauses = append(clauses, "assigned_to IS NULL")
	}
	if filter.Breached != nil {
		add("is_sla_breached = $%d", *filter.Breached)
	}
	if filter.Search != "" {
		args = append(args, filter.Search)
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(title ILIKE '%%' || $%d || '%%' OR code = $%d)", n, n))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func collectTickets(rows pgx.Rows) ([]*domain.Ticket, error) {
	var tickets []*domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket        domain.Ticket
		createdBy     pgtype.UUID
		assignedTo    pgtype.UUID
		closureReason *string
		statusHistory []byte
	)

	err := row.Scan(
		&ticket.ID,
		&ticket.Code,
		&ticket.Title,
		&ticket.Description,
		&ticket.CategoryID,
		&ticket.DepartmentID,
		&ticket.Attachments,
		&ticket.Status,
		&ticket.Priority,
		&createdBy,
		&assignedTo,
		&ticket.SLADueDate,
		&ticket.IsSLABreached,
		&ticket.SLAReminderSent,
		&closureReason,
		&ticket.ResolutionNotes,
		&ticket.ClosureDate,
		&ticket.TotalTimeSpentMS,
		&ticket.ReopenedAt,
		&statusHistory,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ticket.CreatedBy = uuid.UUID(createdBy.Bytes)
	if assignedTo.Valid {
		assignee := uuid.UUID(assignedTo.Bytes)
		ticket.AssignedTo = &assignee
	}
	if closureReason != nil {
		reason := domain.ClosureReason(*closureReason)
		ticket.ClosureReason = &reason
	}
	if len(statusHistory) > 0 {
		if err := json.Unmarshal(statusHistory, &ticket.StatusHistory); err != nil {
			return nil, fmt.Errorf("unmarshal status history: %w", err)
		}
	}

	return &ticket, nil
}

// uuidParam adapts a google/uuid value to a pgx parameter.
func uuidParam(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// uuidPtrParam adapts an optional uuid to a nullable pgx parameter.
func uuidPtrParam(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}
