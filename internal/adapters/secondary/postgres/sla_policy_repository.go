package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// SLAPolicyRepository persists the singleton SLA policy row. The table is
// constrained to a single row with id = 1.
type SLAPolicyRepository struct {
	pool *pgxpool.Pool
}

var _ ports.SLAPolicyRepository = (*SLAPolicyRepository)(nil)

func NewSLAPolicyRepository(pool *pgxpool.Pool) *SLAPolicyRepository {
	return &SLAPolicyRepository{pool: pool}
}

// GetOrCreate returns the policy row, inserting the defaults on first use.
// The upsert is a no-op when the row already exists, so concurrent first
// reads are safe.
func (r *SLAPolicyRepository) GetOrCreate(ctx context.Context) (domain.SLAPolicy, error) {
	defaults := domain.DefaultSLAPolicy()

	const query = `
INSERT INTO sla_policies (id, low_hours, medium_hours, high_hours, critical_hours)
VALUES (1, $1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET id = sla_policies.id
RETURNING low_hours, medium_hours, high_hours, critical_hours`

	db := GetDBTX(ctx, r.pool)
	var policy domain.SLAPolicy
	err := db.QueryRow(ctx, query,
		defaults.Low,
		defaults.Medium,
		defaults.High,
		defaults.Critical,
	).Scan(&policy.Low, &policy.Medium, &policy.High, &policy.Critical)
	if err != nil {
		return domain.SLAPolicy{}, err
	}
	return policy, nil
}

func (r *SLAPolicyRepository) Update(ctx context.Context, policy domain.SLAPolicy) (domain.SLAPolicy, error) {
	const query = `
UPDATE sla_policies SET
	low_hours = $1,
	medium_hours = $2,
	high_hours = $3,
	critical_hours = $4,
	updated_at = NOW()
WHERE id = 1
RETURNING low_hours, medium_hours, high_hours, critical_hours`

	db := GetDBTX(ctx, r.pool)
	var updated domain.SLAPolicy
	err := db.QueryRow(ctx, query,
		policy.Low,
		policy.Medium,
		policy.High,
		policy.Critical,
	).Scan(&updated.Low, &updated.Medium, &updated.High, &updated.Critical)
	if err != nil {
		return domain.SLAPolicy{}, err
	}
	return updated, nil
}
