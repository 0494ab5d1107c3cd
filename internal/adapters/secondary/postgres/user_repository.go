package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

const userColumns = `id, name, email, hashed_password, role, is_active, created_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	const query = `
INSERT INTO users (id, name, email, hashed_password, role, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns

	db := GetDBTX(ctx, r.pool)
	row := db.QueryRow(ctx, query,
		uuidParam(user.ID),
		user.Name,
		user.Email,
		user.HashedPassword,
		string(user.Role),
		user.IsActive,
		user.CreatedAt,
	)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrUserExists
		}
		return nil, err
	}
	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	db := GetDBTX(ctx, r.pool)
	user, err := scanUser(db.QueryRow(ctx, query, uuidParam(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	db := GetDBTX(ctx, r.pool)
	user, err := scanUser(db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND is_active = TRUE ORDER BY created_at ASC`

	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, query, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// PickEscalationAdmin selects the active admin carrying the fewest open
// assigned tickets, breaking ties by earliest account creation. Returns
// nil, nil when no admin exists.
func (r *UserRepository) PickEscalationAdmin(ctx context.Context) (*domain.User, error) {
	const query = `
SELECT u.id, u.name, u.email, u.hashed_password, u.role, u.is_active, u.created_at
FROM users u
LEFT JOIN tickets t ON t.assigned_to = u.id AND t.status NOT IN ('Resolved', 'Closed')
WHERE u.role = 'admin' AND u.is_active = TRUE
GROUP BY u.id
ORDER BY COUNT(t.id) ASC, u.created_at ASC
LIMIT 1`

	db := GetDBTX(ctx, r.pool)
	user, err := scanUser(db.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user domain.User
		id   pgtype.UUID
	)
	err := row.Scan(
		&id,
		&user.Name,
		&user.Email,
		&user.HashedPassword,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.ID = uuid.UUID(id.Bytes)
	return &user, nil
}
