package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/data/database"
	"github.com/target/lab-portal/internal/data/pgxutil"
	"github.com/target/lab-portal/internal/domain/model"
	apperrors "github.com/target/lab-portal/internal/errors"
)

var _ core.ProjectRepository = (*ProjectRepo)(nil)

// ProjectRepo provides database operations for projects.
type ProjectRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProjectRepo creates a new ProjectRepo with real time provider.
func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

const projectColumnList = `id, title, slug, summary, description, department_id, owner_id, status, ` +
	`review_note, image_url, image_id, created_at, updated_at`

func projectColumns() []string {
	return strings.Split(strings.ReplaceAll(projectColumnList, " ", ""), ",")
}

// Create inserts a new draft project owned by ownerID.
func (r *ProjectRepo) Create(ctx context.Context, ownerID string, req model.CreateProjectRequest) (*model.Project, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !validID(ownerID) {
		return nil, ErrUserNotFound
	}
	now := r.timeProvider.Now().UTC()
	out, err := getOne[model.Project](ctx, r.DB, ErrProjectNotFound, `
		INSERT INTO projects (title, slug, summary, description, department_id, owner_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING `+projectColumnList,
		req.Title, req.Slug, strings.TrimSpace(req.Summary), req.Description,
		req.DepartmentID, ownerID, model.ProjectStatusDraft, now,
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByID retrieves a project by ID.
func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	if !validID(id) {
		return nil, ErrProjectNotFound
	}
	return r.get(ctx, `SELECT `+projectColumnList+` FROM projects WHERE id = $1`, id)
}

// GetBySlug retrieves a project by slug.
func (r *ProjectRepo) GetBySlug(ctx context.Context, slug string) (*model.Project, error) {
	return r.get(ctx, `SELECT `+projectColumnList+` FROM projects WHERE slug = $1`, slug)
}

func (r *ProjectRepo) get(ctx context.Context, query string, arg any) (*model.Project, error) {
	out, err := getOne[model.Project](ctx, r.DB, ErrProjectNotFound, query, arg)
	if err != nil && !errors.Is(err, ErrProjectNotFound) {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return out, err
}

// List retrieves projects with optional filters, most recently updated first.
func (r *ProjectRepo) List(ctx context.Context, opts model.ProjectsListOptions) ([]*model.Project, error) {
	limit, offset := clampPage(opts.Limit, opts.Offset)
	queryOpts := []database.ListQueryOption{
		database.WithColumns(projectColumns()...),
		database.WithOrderBy("updated_at", sortDirDesc),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}
	if opts.OwnerID != nil {
		if !validID(*opts.OwnerID) {
			return []*model.Project{}, nil
		}
		queryOpts = append(queryOpts, database.WithCondition(database.WhereCond("owner_id", database.Equal, *opts.OwnerID)))
	}
	if opts.Status != nil {
		queryOpts = append(queryOpts, database.WithCondition(database.WhereCond("status", database.Equal, string(*opts.Status))))
	}
	if opts.DepartmentID != nil {
		if !validID(*opts.DepartmentID) {
			return []*model.Project{}, nil
		}
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("department_id", database.Equal, *opts.DepartmentID)))
	}
	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("title", database.ILike, "%"+strings.TrimSpace(*opts.Q)+"%")))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("projects", queryOpts...))

	out, err := listAll[model.Project](ctx, r.DB, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return out, nil
}

// Update updates the provided content fields of a project.
func (r *ProjectRepo) Update(ctx context.Context, id string, req model.UpdateProjectRequest) (*model.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	setParts := make([]string, 0, 5)
	args := make([]any, 0, 7)
	add := func(col string, v any) {
		args = append(args, v)
		setParts = append(setParts, col+" = $"+strconv.Itoa(len(args)))
	}
	if req.Title != nil {
		add("title", strings.TrimSpace(*req.Title))
	}
	if req.Slug != nil {
		add("slug", strings.TrimSpace(*req.Slug))
	}
	if req.Summary != nil {
		add("summary", strings.TrimSpace(*req.Summary))
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.DepartmentID != nil {
		if strings.TrimSpace(*req.DepartmentID) == "" {
			setParts = append(setParts, "department_id = NULL")
		} else {
			add("department_id", *req.DepartmentID)
		}
	}
	return r.update(ctx, id, setParts, args)
}

// TransitionStatus moves a project from -> to. It fails with
// ErrProjectStatusChanged if the project is no longer in from.
func (r *ProjectRepo) TransitionStatus(
	ctx context.Context,
	id string,
	from, to model.ProjectStatus,
	note *string,
) (*model.Project, error) {
	if !model.CanTransition(from, to) {
		return nil, apperrors.Validationf("cannot move project from %s to %s", from, to)
	}
	if !validID(id) {
		return nil, ErrProjectNotFound
	}

	var out *model.Project
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		var current model.ProjectStatus
		if err := tx.QueryRow(ctx, `SELECT status FROM projects WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrProjectNotFound
			}
			return err
		}
		if current != from {
			return ErrProjectStatusChanged
		}
		p, err := collectOne[model.Project](ctx, tx, `
			UPDATE projects SET status = $1, review_note = $2, updated_at = $3
			WHERE id = $4
			RETURNING `+projectColumnList,
			to, note, r.timeProvider.Now().UTC(), id,
		)
		out = p
		return err
	}})
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) || errors.Is(err, ErrProjectStatusChanged) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to change project status: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// SetImage records or clears the project image.
func (r *ProjectRepo) SetImage(ctx context.Context, id string, ref *core.MediaRef) (*model.Project, error) {
	if ref == nil {
		return r.update(ctx, id, []string{"image_url = NULL", "image_id = NULL"}, nil)
	}
	return r.update(ctx, id, []string{"image_url = $1", "image_id = $2"}, []any{ref.URL, ref.PublicID})
}

func (r *ProjectRepo) update(ctx context.Context, id string, setParts []string, args []any) (*model.Project, error) {
	if !validID(id) {
		return nil, ErrProjectNotFound
	}
	args = append(args, r.timeProvider.Now().UTC())
	setParts = append(setParts, "updated_at = $"+strconv.Itoa(len(args)))
	args = append(args, id)
	query := "UPDATE projects SET " + strings.Join(setParts, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) + " RETURNING " + projectColumnList

	out, err := getOne[model.Project](ctx, r.DB, ErrProjectNotFound, query, args...)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, err
		}
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// Delete deletes a project by ID.
func (r *ProjectRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	n, err := execAffected(ctx, r.DB, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete project: %w", err)
	}
	return n > 0, nil
}

type statusCount struct {
	Status model.ProjectStatus `db:"status"`
	N      int                 `db:"n"`
}

// CountByStatus returns per-status counts; statuses with no projects report 0.
func (r *ProjectRepo) CountByStatus(ctx context.Context, ownerID *string) (map[model.ProjectStatus]int, error) {
	out := make(map[model.ProjectStatus]int, len(model.AllProjectStatuses))
	for _, s := range model.AllProjectStatuses {
		out[s] = 0
	}
	query := `SELECT status, COUNT(*) AS n FROM projects GROUP BY status`
	var args []any
	if ownerID != nil {
		if !validID(*ownerID) {
			return out, nil
		}
		query = `SELECT status, COUNT(*) AS n FROM projects WHERE owner_id = $1 GROUP BY status`
		args = append(args, *ownerID)
	}
	rows, err := listAll[statusCount](ctx, r.DB, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
