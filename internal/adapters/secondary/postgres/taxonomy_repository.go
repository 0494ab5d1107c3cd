package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// CategoryRepository persists ticket categories.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

var _ ports.CategoryRepository = (*CategoryRepository)(nil)

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	const query = `
INSERT INTO categories (name, description, is_active, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id`

	db := GetDBTX(ctx, r.pool)
	created := *category
	err := db.QueryRow(ctx, query,
		category.Name,
		category.Description,
		category.IsActive,
		category.CreatedAt,
	).Scan(&created.ID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	const query = `SELECT id, name, description, is_active, created_at FROM categories WHERE id = $1`

	db := GetDBTX(ctx, r.pool)
	var category domain.Category
	err := db.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.IsActive,
		&category.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	query := `SELECT id, name, description, is_active, created_at FROM categories`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Description,
			&category.IsActive,
			&category.CreatedAt,
		); err != nil {
			return nil, err
		}
		categories = append(categories, &category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	db := GetDBTX(ctx, r.pool)
	tag, err := db.Exec(ctx,
		`UPDATE categories SET name = $2, description = $3, is_active = $4 WHERE id = $1`,
		category.ID, category.Name, category.Description, category.IsActive,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) Deactivate(ctx context.Context, id int64) error {
	db := GetDBTX(ctx, r.pool)
	tag, err := db.Exec(ctx, `UPDATE categories SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

// DepartmentRepository persists departments.
type DepartmentRepository struct {
	pool *pgxpool.Pool
}

var _ ports.DepartmentRepository = (*DepartmentRepository)(nil)

func NewDepartmentRepository(pool *pgxpool.Pool) *DepartmentRepository {
	return &DepartmentRepository{pool: pool}
}

func (r *DepartmentRepository) Create(ctx context.Context, department *domain.Department) (*domain.Department, error) {
	const query = `
INSERT INTO departments (name, description, is_active, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id`

	db := GetDBTX(ctx, r.pool)
	created := *department
	err := db.QueryRow(ctx, query,
		department.Name,
		department.Description,
		department.IsActive,
		department.CreatedAt,
	).Scan(&created.ID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	const query = `SELECT id, name, description, is_active, created_at FROM departments WHERE id = $1`

	db := GetDBTX(ctx, r.pool)
	var department domain.Department
	err := db.QueryRow(ctx, query, id).Scan(
		&department.ID,
		&department.Name,
		&department.Description,
		&department.IsActive,
		&department.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &department, nil
}

func (r *DepartmentRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Department, error) {
	query := `SELECT id, name, description, is_active, created_at FROM departments`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []*domain.Department
	for rows.Next() {
		var department domain.Department
		if err := rows.Scan(
			&department.ID,
			&department.Name,
			&department.Description,
			&department.IsActive,
			&department.CreatedAt,
		); err != nil {
			return nil, err
		}
		departments = append(departments, &department)
	}
	return departments, rows.Err()
}

func (r *DepartmentRepository) Update(ctx context.Context, department *domain.Department) error {
	db := GetDBTX(ctx, r.pool)
	tag, err := db.Exec(ctx,
		`UPDATE departments SET name = $2, description = $3, is_active = $4 WHERE id = $1`,
		department.ID, department.Name, department.Description, department.IsActive,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrDepartmentNotFound
	}
	return nil
}

func (r *DepartmentRepository) Deactivate(ctx context.Context, id int64) error {
	db := GetDBTX(ctx, r.pool)
	tag, err := db.Exec(ctx, `UPDATE departments SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrDepartmentNotFound
	}
	return nil
}
