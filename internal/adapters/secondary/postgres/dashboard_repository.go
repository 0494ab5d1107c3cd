package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// DashboardRepository computes the admin overview aggregates directly in
// SQL. Read-only.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

var _ ports.DashboardRepository = (*DashboardRepository)(nil)

func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

func (r *DashboardRepository) Overview(ctx context.Context, now time.Time) (*domain.DashboardOverview, error) {
	overview := &domain.DashboardOverview{}

	if err := r.fetchHeadline(ctx, now, overview); err != nil {
		return nil, err
	}

	byStatus, err := r.fetchStatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	overview.ByStatus = byStatus

	byPriority, err := r.fetchPriorityCounts(ctx)
	if err != nil {
		return nil, err
	}
	overview.ByPriority = byPriority

	agentLoads, err := r.fetchAgentLoads(ctx)
	if err != nil {
		return nil, err
	}
	overview.AgentLoads = agentLoads

	return overview, nil
}

func (r *DashboardRepository) fetchHeadline(ctx context.Context, now time.Time, overview *domain.DashboardOverview) error {
	const query = `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE status NOT IN ('Resolved', 'Closed')),
	COUNT(*) FILTER (WHERE is_sla_breached),
	COUNT(*) FILTER (WHERE sla_due_date >= $1 AND sla_due_date < $1 + INTERVAL '1 hour'
		AND status NOT IN ('Resolved', 'Closed')),
	AVG(total_time_spent_ms) FILTER (WHERE total_time_spent_ms IS NOT NULL),
	COUNT(*) FILTER (WHERE closure_date >= $1 - INTERVAL '30 days'),
	COUNT(*) FILTER (WHERE reopened_at >= $1 - INTERVAL '30 days')
FROM tickets`

	var avgResolution *float64
	err := r.pool.QueryRow(ctx, query, now).Scan(
		&overview.TotalTickets,
		&overview.OpenTickets,
		&overview.BreachedTickets,
		&overview.DueWithinHour,
		&avgResolution,
		&overview.ClosedLast30Days,
		&overview.ReopenedLast30,
	)
	if err != nil {
		return err
	}

	if avgResolution != nil {
		avg := int64(*avgResolution)
		overview.AvgResolutionMS = &avg
	}
	return nil
}

func (r *DashboardRepository) fetchStatusCounts(ctx context.Context) ([]domain.StatusCount, error) {
	const query = `SELECT status, COUNT(*) FROM tickets GROUP BY status ORDER BY status`

	rows, err := r.pool.Query(ctx, query)
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

func (r *DashboardRepository) fetchPriorityCounts(ctx context.Context) ([]domain.PriorityCount, error) {
	const query = `SELECT priority, COUNT(*) FROM tickets GROUP BY priority ORDER BY priority`

	rows, err := r.pool.Query(ctx, query)
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

func (r *DashboardRepository) fetchAgentLoads(ctx context.Context) ([]domain.AgentLoad, error) {
	const query = `
SELECT u.id::text, u.name, COUNT(t.id)
FROM users u
LEFT JOIN tickets t ON t.assigned_to = u.id AND t.status NOT IN ('Resolved', 'Closed')
WHERE u.role IN ('agent', 'admin') AND u.is_active = TRUE
GROUP BY u.id, u.name
ORDER BY COUNT(t.id) DESC, u.name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loads []domain.AgentLoad
	for rows.Next() {
		var load domain.AgentLoad
		if err := rows.Scan(&load.AgentID, &load.AgentName, &load.OpenCount); err != nil {
			return nil, err
		}
		loads = append(loads, load)
	}
	return loads, rows.Err()
}
