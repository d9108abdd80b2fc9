package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/domain/model"
	apperrors "github.com/target/lab-portal/internal/errors"
)

var _ core.DepartmentRepository = (*DepartmentRepo)(nil)

// DepartmentRepo provides database operations for departments.
type DepartmentRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewDepartmentRepo creates a new DepartmentRepo with real time provider.
func NewDepartmentRepo(db *sql.DB) *DepartmentRepo {
	return &DepartmentRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

const (
	departmentColumnList = `id, name, slug, description, created_at, updated_at`

	departmentGetByIDQuery   = `SELECT ` + departmentColumnList + ` FROM departments WHERE id = $1`
	departmentGetBySlugQuery = `SELECT ` + departmentColumnList + ` FROM departments WHERE slug = $1`
	departmentListQuery      = `SELECT ` + departmentColumnList + ` FROM departments ORDER BY name ASC LIMIT $1 OFFSET $2`
)

// Create inserts a new department.
func (r *DepartmentRepo) Create(ctx context.Context, req model.CreateDepartmentRequest) (*model.Department, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := r.timeProvider.Now().UTC()
	out, err := getOne[model.Department](ctx, r.DB, ErrDepartmentNotFound, `
		INSERT INTO departments (name, slug, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING `+departmentColumnList,
		req.Name, req.Slug, req.Description, now,
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByID retrieves a department by ID.
func (r *DepartmentRepo) GetByID(ctx context.Context, id string) (*model.Department, error) {
	if !validID(id) {
		return nil, ErrDepartmentNotFound
	}
	out, err := getOne[model.Department](ctx, r.DB, ErrDepartmentNotFound, departmentGetByIDQuery, id)
	if err != nil && !errors.Is(err, ErrDepartmentNotFound) {
		return nil, fmt.Errorf("failed to get department by ID: %w", err)
	}
	return out, err
}

// GetBySlug retrieves a department by slug.
func (r *DepartmentRepo) GetBySlug(ctx context.Context, slug string) (*model.Department, error) {
	out, err := getOne[model.Department](ctx, r.DB, ErrDepartmentNotFound, departmentGetBySlugQuery, slug)
	if err != nil && !errors.Is(err, ErrDepartmentNotFound) {
		return nil, fmt.Errorf("failed to get department by slug: %w", err)
	}
	return out, err
}

// List retrieves departments alphabetically with pagination.
func (r *DepartmentRepo) List(ctx context.Context, limit, offset int) ([]*model.Department, error) {
	limit, offset = clampPage(limit, offset)
	out, err := listAll[model.Department](ctx, r.DB, departmentListQuery, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return out, nil
}

// Update updates the provided fields of a department.
func (r *DepartmentRepo) Update(
	ctx context.Context,
	id string,
	req model.UpdateDepartmentRequest,
) (*model.Department, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, ErrDepartmentNotFound
	}

	setParts := make([]string, 0, 4)
	args := make([]any, 0, 5)
	add := func(col string, v any) {
		args = append(args, v)
		setParts = append(setParts, col+" = $"+strconv.Itoa(len(args)))
	}
	if req.Name != nil {
		add("name", strings.TrimSpace(*req.Name))
	}
	if req.Slug != nil {
		add("slug", strings.TrimSpace(*req.Slug))
	}
	if req.Description != nil {
		add("description", strings.TrimSpace(*req.Description))
	}
	add("updated_at", r.timeProvider.Now().UTC())
	args = append(args, id)

	query := "UPDATE departments SET " + strings.Join(setParts, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) + " RETURNING " + departmentColumnList
	out, err := getOne[model.Department](ctx, r.DB, ErrDepartmentNotFound, query, args...)
	if err != nil {
		if errors.Is(err, ErrDepartmentNotFound) {
			return nil, err
		}
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// Delete deletes a department by ID. Projects keep existing with no department.
func (r *DepartmentRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	n, err := execAffected(ctx, r.DB, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete department: %w", apperrors.MapDBError(err))
	}
	return n > 0, nil
}

func (r *DepartmentRepo) Count(ctx context.Context) (int, error) {
	n, err := countRows(ctx, r.DB, `SELECT COUNT(*) FROM departments`)
	if err != nil {
		return 0, fmt.Errorf("failed to count departments: %w", err)
	}
	return n, nil
}
