package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/data/database"
	"github.com/target/lab-portal/internal/domain/model"
	apperrors "github.com/target/lab-portal/internal/errors"
)

var _ core.NewsletterRepository = (*NewsletterRepo)(nil)

// NewsletterRepo provides database operations for newsletters.
type NewsletterRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewNewsletterRepo creates a new NewsletterRepo with real time provider.
func NewNewsletterRepo(db *sql.DB) *NewsletterRepo {
	return &NewsletterRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

const newsletterColumnList = `id, title, slug, summary, body, cover_image_url, cover_image_id, ` +
	`published, published_at, author_id, created_at, updated_at`

func newsletterColumns() []string {
	return strings.Split(strings.ReplaceAll(newsletterColumnList, " ", ""), ",")
}

// Create inserts a new unpublished newsletter.
func (r *NewsletterRepo) Create(
	ctx context.Context,
	req model.CreateNewsletterRequest,
	authorID *string,
) (*model.Newsletter, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if authorID != nil && !validID(*authorID) {
		authorID = nil
	}
	now := r.timeProvider.Now().UTC()
	out, err := getOne[model.Newsletter](ctx, r.DB, ErrNewsletterNotFound, `
		INSERT INTO newsletters (title, slug, summary, body, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING `+newsletterColumnList,
		req.Title, req.Slug, strings.TrimSpace(req.Summary), req.Body, authorID, now,
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByID retrieves a newsletter by ID.
func (r *NewsletterRepo) GetByID(ctx context.Context, id string) (*model.Newsletter, error) {
	if !validID(id) {
		return nil, ErrNewsletterNotFound
	}
	return r.get(ctx, `SELECT `+newsletterColumnList+` FROM newsletters WHERE id = $1`, id)
}

// GetBySlug retrieves a newsletter by slug regardless of publication state.
func (r *NewsletterRepo) GetBySlug(ctx context.Context, slug string) (*model.Newsletter, error) {
	return r.get(ctx, `SELECT `+newsletterColumnList+` FROM newsletters WHERE slug = $1`, slug)
}

func (r *NewsletterRepo) get(ctx context.Context, query string, arg any) (*model.Newsletter, error) {
	out, err := getOne[model.Newsletter](ctx, r.DB, ErrNewsletterNotFound, query, arg)
	if err != nil && !errors.Is(err, ErrNewsletterNotFound) {
		return nil, fmt.Errorf("failed to get newsletter: %w", err)
	}
	return out, err
}

// List retrieves newsletters. Published lists are ordered by publication date.
func (r *NewsletterRepo) List(ctx context.Context, opts model.NewslettersListOptions) ([]*model.Newsletter, error) {
	limit, offset := clampPage(opts.Limit, opts.Offset)
	queryOpts := []database.ListQueryOption{
		database.WithColumns(newsletterColumns()...),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}
	if opts.PublishedOnly {
		queryOpts = append(queryOpts,
			database.WithCondition(database.WhereCond("published", database.Equal, true)),
			database.WithOrderBy("published_at", sortDirDesc),
		)
	} else {
		queryOpts = append(queryOpts, database.WithOrderBy("created_at", sortDirDesc))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("newsletters", queryOpts...))

	out, err := listAll[model.Newsletter](ctx, r.DB, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list newsletters: %w", err)
	}
	return out, nil
}

// Update updates the provided content fields of a newsletter.
func (r *NewsletterRepo) Update(
	ctx context.Context,
	id string,
	req model.UpdateNewsletterRequest,
) (*model.Newsletter, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	setParts := make([]string, 0, 5)
	args := make([]any, 0, 6)
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
	if req.Body != nil {
		add("body", *req.Body)
	}
	return r.update(ctx, id, setParts, args)
}

// SetPublished publishes or unpublishes a newsletter. published_at is kept on
// the first publication and cleared on unpublish.
func (r *NewsletterRepo) SetPublished(
	ctx context.Context,
	id string,
	published bool,
	at time.Time,
) (*model.Newsletter, error) {
	if published {
		return r.update(ctx, id,
			[]string{"published = TRUE", "published_at = COALESCE(published_at, $1)"},
			[]any{at.UTC()})
	}
	return r.update(ctx, id, []string{"published = FALSE", "published_at = NULL"}, nil)
}

// SetCoverImage records or clears the cover image.
func (r *NewsletterRepo) SetCoverImage(ctx context.Context, id string, ref *core.MediaRef) (*model.Newsletter, error) {
	if ref == nil {
		return r.update(ctx, id, []string{"cover_image_url = NULL", "cover_image_id = NULL"}, nil)
	}
	return r.update(ctx, id, []string{"cover_image_url = $1", "cover_image_id = $2"}, []any{ref.URL, ref.PublicID})
}

func (r *NewsletterRepo) update(ctx context.Context, id string, setParts []string, args []any) (*model.Newsletter, error) {
	if !validID(id) {
		return nil, ErrNewsletterNotFound
	}
	args = append(args, r.timeProvider.Now().UTC())
	setParts = append(setParts, "updated_at = $"+strconv.Itoa(len(args)))
	args = append(args, id)
	query := "UPDATE newsletters SET " + strings.Join(setParts, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) + " RETURNING " + newsletterColumnList

	out, err := getOne[model.Newsletter](ctx, r.DB, ErrNewsletterNotFound, query, args...)
	if err != nil {
		if errors.Is(err, ErrNewsletterNotFound) {
			return nil, err
		}
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// Delete deletes a newsletter by ID.
func (r *NewsletterRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	n, err := execAffected(ctx, r.DB, `DELETE FROM newsletters WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete newsletter: %w", err)
	}
	return n > 0, nil
}

func (r *NewsletterRepo) Count(ctx context.Context, publishedOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM newsletters`
	if publishedOnly {
		query += ` WHERE published`
	}
	n, err := countRows(ctx, r.DB, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count newsletters: %w", err)
	}
	return n, nil
}
