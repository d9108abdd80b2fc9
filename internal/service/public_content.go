package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/domain/model"
)

// DefaultContentTTL bounds how stale a public listing may be.
const DefaultContentTTL = 5 * time.Minute

// publicListLimit caps public listings; they are not paginated.
const publicListLimit = 200

// Cache keys for public content.
const (
	keyPublicDepartments = "public:departments"
	keyPublicNewsletters = "public:newsletters"
	keyPublicProjects    = "public:projects"
	keyNewsletterPrefix  = "public:newsletter:"
	keyProjectPrefix     = "public:project:"
)

// PublicContentServiceOptions groups dependencies for PublicContentService.
type PublicContentServiceOptions struct {
	Departments core.DepartmentRepository
	Newsletters core.NewsletterRepository
	Projects    core.ProjectRepository
	// Cache is optional; without it every read goes to the database.
	Cache  core.CacheRepository
	TTL    time.Duration
	Logger *slog.Logger
}

// PublicContentService serves what anonymous visitors may see: departments,
// published newsletters and approved projects.
type PublicContentService struct {
	departments core.DepartmentRepository
	newsletters core.NewsletterRepository
	projects    core.ProjectRepository
	cache       core.CacheRepository
	ttl         time.Duration
	logger      *slog.Logger
}

// NewPublicContentService constructs a PublicContentService.
func NewPublicContentService(opts PublicContentServiceOptions) (*PublicContentService, error) {
	if opts.Departments == nil || opts.Newsletters == nil || opts.Projects == nil {
		return nil, errors.New("department, newsletter and project repositories are required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultContentTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PublicContentService{
		departments: opts.Departments,
		newsletters: opts.Newsletters,
		projects:    opts.Projects,
		cache:       opts.Cache,
		ttl:         ttl,
		logger:      logger.With("component", "public_content"),
	}, nil
}

// Departments lists all departments.
func (s *PublicContentService) Departments(ctx context.Context) ([]*model.Department, error) {
	return core.GetOrLoadJSON(ctx, s.cache, keyPublicDepartments, s.ttl,
		func(ctx context.Context) ([]*model.Department, error) {
			return s.departments.List(ctx, publicListLimit, 0)
		})
}

// Newsletters lists published newsletters, newest first.
func (s *PublicContentService) Newsletters(ctx context.Context) ([]*model.Newsletter, error) {
	return core.GetOrLoadJSON(ctx, s.cache, keyPublicNewsletters, s.ttl,
		func(ctx context.Context) ([]*model.Newsletter, error) {
			return s.newsletters.List(ctx, model.NewslettersListOptions{Limit: publicListLimit, PublishedOnly: true})
		})
}

// Newsletter returns a published newsletter by slug. Drafts read as not found.
func (s *PublicContentService) Newsletter(ctx context.Context, slug string) (*model.Newsletter, error) {
	n, err := core.GetOrLoadJSON(ctx, s.cache, keyNewsletterPrefix+slug, s.ttl,
		func(ctx context.Context) (*model.Newsletter, error) {
			return s.newsletters.GetBySlug(ctx, slug)
		})
	if err != nil {
		return nil, err
	}
	if !n.Published {
		return nil, errNotPublic("newsletter")
	}
	return n, nil
}

// Projects lists approved projects.
func (s *PublicContentService) Projects(ctx context.Context) ([]*model.Project, error) {
	return core.GetOrLoadJSON(ctx, s.cache, keyPublicProjects, s.ttl,
		func(ctx context.Context) ([]*model.Project, error) {
			approved := model.ProjectStatusApproved
			return s.projects.List(ctx, model.ProjectsListOptions{Limit: publicListLimit, Status: &approved})
		})
}

// Project returns an approved project by slug. Other statuses read as not found.
func (s *PublicContentService) Project(ctx context.Context, slug string) (*model.Project, error) {
	p, err := core.GetOrLoadJSON(ctx, s.cache, keyProjectPrefix+slug, s.ttl,
		func(ctx context.Context) (*model.Project, error) {
			return s.projects.GetBySlug(ctx, slug)
		})
	if err != nil {
		return nil, err
	}
	if p.Status != model.ProjectStatusApproved {
		return nil, errNotPublic("project")
	}
	return p, nil
}

// InvalidateDepartments drops the cached department listing.
func (s *PublicContentService) InvalidateDepartments(ctx context.Context) {
	s.drop(ctx, keyPublicDepartments)
}

// InvalidateNewsletter drops the listing and the detail entries for slugs.
func (s *PublicContentService) InvalidateNewsletter(ctx context.Context, slugs ...string) {
	keys := []string{keyPublicNewsletters}
	for _, slug := range slugs {
		keys = append(keys, keyNewsletterPrefix+slug)
	}
	s.drop(ctx, keys...)
}

// InvalidateProject drops the listing and the detail entries for slugs.
func (s *PublicContentService) InvalidateProject(ctx context.Context, slugs ...string) {
	keys := []string{keyPublicProjects}
	for _, slug := range slugs {
		keys = append(keys, keyProjectPrefix+slug)
	}
	s.drop(ctx, keys...)
}

func (s *PublicContentService) drop(ctx context.Context, keys ...string) {
	if s == nil || s.cache == nil {
		return
	}
	for _, k := range keys {
		if _, err := s.cache.Delete(ctx, k); err != nil {
			s.logger.WarnContext(ctx, "content cache invalidate failed", "key", k, "error", err)
		}
	}
}

func errNotPublic(kind string) error {
	return fmt.Errorf("%s: %w", kind, errNotFoundPublic)
}
