package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/domain/model"
	"github.com/target/lab-portal/internal/ports"
)

const newsletterMediaFolder = "newsletters"

// NewsletterServiceOptions groups dependencies for NewsletterService.
type NewsletterServiceOptions struct {
	Repo   core.NewsletterRepository // Required
	Media  ports.MediaUploader       // Optional: cover uploads fail without it
	Public *PublicContentService     // Optional: cache invalidation
	Logger *slog.Logger
}

// NewsletterService manages newsletter drafts, publication and cover images.
type NewsletterService struct {
	repo   core.NewsletterRepository
	media  ports.MediaUploader
	public *PublicContentService
	logger *slog.Logger
	now    func() time.Time
}

// NewNewsletterService constructs a new NewsletterService.
func NewNewsletterService(opts NewsletterServiceOptions) (*NewsletterService, error) {
	if opts.Repo == nil {
		return nil, errors.New("NewsletterRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NewsletterService{
		repo:   opts.Repo,
		media:  opts.Media,
		public: opts.Public,
		logger: logger.With("component", "newsletter_service"),
		now:    time.Now,
	}, nil
}

func (s *NewsletterService) Create(
	ctx context.Context,
	req model.CreateNewsletterRequest,
	authorID string,
) (*model.Newsletter, error) {
	var author *string
	if authorID != "" {
		author = &authorID
	}
	n, err := s.repo.Create(ctx, req, author)
	if err != nil {
		return nil, fmt.Errorf("create newsletter: %w", err)
	}
	return n, nil
}

func (s *NewsletterService) GetByID(ctx context.Context, id string) (*model.Newsletter, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *NewsletterService) List(ctx context.Context, opts model.NewslettersListOptions) ([]*model.Newsletter, error) {
	return s.repo.List(ctx, opts)
}

func (s *NewsletterService) Update(
	ctx context.Context,
	id string,
	req model.UpdateNewsletterRequest,
) (*model.Newsletter, error) {
	before, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update newsletter: %w", err)
	}
	s.public.InvalidateNewsletter(ctx, before.Slug, n.Slug)
	return n, nil
}

// SetPublished publishes or unpublishes a newsletter.
func (s *NewsletterService) SetPublished(ctx context.Context, id string, published bool) (*model.Newsletter, error) {
	n, err := s.repo.SetPublished(ctx, id, published, s.now())
	if err != nil {
		return nil, fmt.Errorf("set newsletter published: %w", err)
	}
	s.public.InvalidateNewsletter(ctx, n.Slug)
	s.logger.InfoContext(ctx, "newsletter publication changed", "id", id, "published", published)
	return n, nil
}

// SetCover uploads a new cover image and replaces the previous one.
func (s *NewsletterService) SetCover(ctx context.Context, id string, in ports.UploadInput) (*model.Newsletter, error) {
	if s.media == nil {
		return nil, errMediaUnavailable
	}
	before, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Folder = newsletterMediaFolder
	up, err := s.media.Upload(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("upload cover: %w", err)
	}
	n, err := s.repo.SetCoverImage(ctx, id, &core.MediaRef{URL: up.URL, PublicID: up.PublicID})
	if err != nil {
		s.discardMedia(ctx, up.PublicID)
		return nil, fmt.Errorf("save cover: %w", err)
	}
	s.discardMedia(ctx, deref(before.CoverImageID))
	s.public.InvalidateNewsletter(ctx, n.Slug)
	return n, nil
}

// RemoveCover clears the cover image.
func (s *NewsletterService) RemoveCover(ctx context.Context, id string) (*model.Newsletter, error) {
	before, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.SetCoverImage(ctx, id, nil)
	if err != nil {
		return nil, fmt.Errorf("clear cover: %w", err)
	}
	s.discardMedia(ctx, deref(before.CoverImageID))
	s.public.InvalidateNewsletter(ctx, n.Slug)
	return n, nil
}

func (s *NewsletterService) Delete(ctx context.Context, id string) (bool, error) {
	before, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete newsletter: %w", err)
	}
	s.discardMedia(ctx, deref(before.CoverImageID))
	s.public.InvalidateNewsletter(ctx, before.Slug)
	return ok, nil
}

func (s *NewsletterService) discardMedia(ctx context.Context, publicID string) {
	discardMedia(ctx, s.media, s.logger, publicID)
}
