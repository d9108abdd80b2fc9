package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/domain/model"
)

// DepartmentServiceOptions groups dependencies for DepartmentService.
type DepartmentServiceOptions struct {
	Repo   core.DepartmentRepository // Required
	Public *PublicContentService     // Optional: cache invalidation
	Logger *slog.Logger              // Optional
}

// DepartmentService provides business logic for departments.
type DepartmentService struct {
	repo   core.DepartmentRepository
	public *PublicContentService
	logger *slog.Logger
}

// NewDepartmentService constructs a new DepartmentService.
func NewDepartmentService(opts DepartmentServiceOptions) (*DepartmentService, error) {
	if opts.Repo == nil {
		return nil, errors.New("DepartmentRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DepartmentService{repo: opts.Repo, public: opts.Public, logger: logger.With("component", "department_service")}, nil
}

func (s *DepartmentService) Create(ctx context.Context, req model.CreateDepartmentRequest) (*model.Department, error) {
	d, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create department: %w", err)
	}
	s.public.InvalidateDepartments(ctx)
	s.logger.InfoContext(ctx, "department created", "id", d.ID, "slug", d.Slug)
	return d, nil
}

func (s *DepartmentService) GetByID(ctx context.Context, id string) (*model.Department, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DepartmentService) List(ctx context.Context, limit, offset int) ([]*model.Department, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *DepartmentService) Update(
	ctx context.Context,
	id string,
	req model.UpdateDepartmentRequest,
) (*model.Department, error) {
	d, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update department: %w", err)
	}
	s.public.InvalidateDepartments(ctx)
	return d, nil
}

// Delete removes a department. Projects keep existing with no department.
func (s *DepartmentService) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete department: %w", err)
	}
	if ok {
		s.public.InvalidateDepartments(ctx)
		// project listings embed department ids
		s.public.InvalidateProject(ctx)
	}
	return ok, nil
}
