package services

import (
	"context"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// TaxonomyService manages the category and department reference data.
type TaxonomyService struct {
	categoryRepo   ports.CategoryRepository
	departmentRepo ports.DepartmentRepository
}

var _ ports.TaxonomyService = (*TaxonomyService)(nil)

// NewTaxonomyService creates a new taxonomy service.
func NewTaxonomyService(categoryRepo ports.CategoryRepository, departmentRepo ports.DepartmentRepository) ports.TaxonomyService {
	return &TaxonomyService{
		categoryRepo:   categoryRepo,
		departmentRepo: departmentRepo,
	}
}

// CreateCategory adds a new active category.
func (s *TaxonomyService) CreateCategory(ctx context.Context, params domain.TaxonomyParams) (*domain.Category, error) {
	category, err := domain.NewCategory(params)
	if err != nil {
		return nil, err
	}
	return s.categoryRepo.Create(ctx, category)
}

// ListCategories returns categories, optionally limited to active ones.
func (s *TaxonomyService) ListCategories(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx, activeOnly)
}

// DeactivateCategory retires a category without detaching existing tickets.
func (s *TaxonomyService) DeactivateCategory(ctx context.Context, id int64) error {
	return s.categoryRepo.Deactivate(ctx, id)
}

// CreateDepartment adds a new active department.
func (s *TaxonomyService) CreateDepartment(ctx context.Context, params domain.TaxonomyParams) (*domain.Department, error) {
	department, err := domain.NewDepartment(params)
	if err != nil {
		return nil, err
	}
	return s.departmentRepo.Create(ctx, department)
}

// ListDepartments returns departments, optionally limited to active ones.
func (s *TaxonomyService) ListDepartments(ctx context.Context, activeOnly bool) ([]*domain.Department, error) {
	return s.departmentRepo.List(ctx, activeOnly)
}

// DeactivateDepartment retires a department without detaching existing tickets.
func (s *TaxonomyService) DeactivateDepartment(ctx context.Context, id int64) error {
	return s.departmentRepo.Deactivate(ctx, id)
}
