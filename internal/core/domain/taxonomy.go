package domain

import (
	"time"

	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
)

// Category groups tickets by subject area.
type Category struct {
	ID          int64
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

// Department groups tickets by the team responsible for them.
type Department struct {
	ID          int64
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

// TaxonomyParams holds the validated input for creating a category or department.
type TaxonomyParams struct {
	Name        string
	Description string
}

// Validate checks the taxonomy fields.
func (p *TaxonomyParams) Validate() error {
	errs := apperrors.NewValidationErrors()

	if p.Name == "" {
		errs.Add("name", "Name is required")
	} else if len(p.Name) > MaxNameLength {
		errs.Add("name", "Name must be 255 characters or less")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// NewCategory builds a valid category.
func NewCategory(params TaxonomyParams) (*Category, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Category{
		Name:        params.Name,
		Description: params.Description,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// NewDepartment builds a valid department.
func NewDepartment(params TaxonomyParams) (*Department, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Department{
		Name:        params.Name,
		Description: params.Description,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
