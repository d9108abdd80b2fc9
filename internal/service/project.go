package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/domain/model"
	apperrors "github.com/target/lab-portal/internal/errors"
	"github.com/target/lab-portal/internal/ports"
)

const projectMediaFolder = "projects"

// ProjectServiceOptions groups dependencies for ProjectService.
type ProjectServiceOptions struct {
	Repo   core.ProjectRepository // Required
	Media  ports.MediaUploader    // Optional
	Public *PublicContentService  // Optional: cache invalidation
	Logger *slog.Logger
}

// ProjectService covers both the engineer workflow (own drafts, submission)
// and admin review. Engineer methods take the owner id and refuse other
// users' projects.
type ProjectService struct {
	repo   core.ProjectRepository
	media  ports.MediaUploader
	public *PublicContentService
	logger *slog.Logger
}

// NewProjectService constructs a new ProjectService.
func NewProjectService(opts ProjectServiceOptions) (*ProjectService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ProjectRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectService{
		repo:   opts.Repo,
		media:  opts.Media,
		public: opts.Public,
		logger: logger.With("component", "project_service"),
	}, nil
}

// Create starts a draft owned by ownerID.
func (s *ProjectService) Create(ctx context.Context, ownerID string, req model.CreateProjectRequest) (*model.Project, error) {
	p, err := s.repo.Create(ctx, ownerID, req)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.logger.InfoContext(ctx, "project created", "id", p.ID, "owner_id", ownerID)
	return p, nil
}

// GetOwned returns the project if ownerID owns it.
func (s *ProjectService) GetOwned(ctx context.Context, ownerID, id string) (*model.Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != ownerID {
		return nil, errNotOwner
	}
	return p, nil
}

// ListOwned lists ownerID's projects.
func (s *ProjectService) ListOwned(ctx context.Context, ownerID string, opts model.ProjectsListOptions) ([]*model.Project, error) {
	opts.OwnerID = &ownerID
	return s.repo.List(ctx, opts)
}

// UpdateOwned edits a draft or rejected project.
func (s *ProjectService) UpdateOwned(
	ctx context.Context,
	ownerID, id string,
	req model.UpdateProjectRequest,
) (*model.Project, error) {
	p, err := s.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !p.Status.Editable() {
		return nil, apperrors.Conflict(fmt.Sprintf("A %s project cannot be edited", p.Status))
	}
	updated, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return updated, nil
}

// Submit sends a draft or rejected project for review.
func (s *ProjectService) Submit(ctx context.Context, ownerID, id string) (*model.Project, error) {
	p, err := s.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Summary) == "" {
		return nil, apperrors.ValidationField("summary", "summary is required before submitting")
	}
	return s.transition(ctx, p, model.ProjectStatusPending, nil)
}

// Withdraw returns a pending or approved project to draft.
func (s *ProjectService) Withdraw(ctx context.Context, ownerID, id string) (*model.Project, error) {
	p, err := s.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, p, model.ProjectStatusDraft, nil)
}

// DeleteOwned removes a draft or rejected project.
func (s *ProjectService) DeleteOwned(ctx context.Context, ownerID, id string) (bool, error) {
	p, err := s.GetOwned(ctx, ownerID, id)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if !p.Status.Editable() {
		return false, apperrors.Conflict(fmt.Sprintf("A %s project cannot be deleted", p.Status))
	}
	return s.delete(ctx, p)
}

// SetImageOwned uploads and attaches a project image.
func (s *ProjectService) SetImageOwned(
	ctx context.Context,
	ownerID, id string,
	in ports.UploadInput,
) (*model.Project, error) {
	if s.media == nil {
		return nil, errMediaUnavailable
	}
	p, err := s.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	in.Folder = projectMediaFolder
	up, err := s.media.Upload(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	updated, err := s.repo.SetImage(ctx, id, &core.MediaRef{URL: up.URL, PublicID: up.PublicID})
	if err != nil {
		discardMedia(ctx, s.media, s.logger, up.PublicID)
		return nil, fmt.Errorf("save image: %w", err)
	}
	discardMedia(ctx, s.media, s.logger, deref(p.ImageID))
	s.invalidate(ctx, updated)
	return updated, nil
}

// Get returns any project (admin).
func (s *ProjectService) Get(ctx context.Context, id string) (*model.Project, error) {
	return s.repo.GetByID(ctx, id)
}

// List lists all projects (admin).
func (s *ProjectService) List(ctx context.Context, opts model.ProjectsListOptions) ([]*model.Project, error) {
	return s.repo.List(ctx, opts)
}

// Review records an admin decision on a pending project.
func (s *ProjectService) Review(ctx context.Context, id string, req model.ReviewProjectRequest) (*model.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != model.ProjectStatusPending {
		return nil, apperrors.Conflict("Only pending projects can be reviewed")
	}
	var note *string
	if n := strings.TrimSpace(req.Note); n != "" {
		note = &n
	}
	return s.transition(ctx, p, model.ProjectStatus(req.Decision), note)
}

// Delete removes any project (admin).
func (s *ProjectService) Delete(ctx context.Context, id string) (bool, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return s.delete(ctx, p)
}

func (s *ProjectService) transition(
	ctx context.Context,
	p *model.Project,
	to model.ProjectStatus,
	note *string,
) (*model.Project, error) {
	if !model.CanTransition(p.Status, to) {
		return nil, apperrors.Conflict(fmt.Sprintf("Cannot move a %s project to %s", p.Status, to))
	}
	updated, err := s.repo.TransitionStatus(ctx, p.ID, p.Status, to, note)
	if err != nil {
		return nil, fmt.Errorf("change project status: %w", err)
	}
	s.invalidate(ctx, updated)
	s.logger.InfoContext(ctx, "project status changed", "id", p.ID, "from", p.Status, "to", to)
	return updated, nil
}

func (s *ProjectService) delete(ctx context.Context, p *model.Project) (bool, error) {
	ok, err := s.repo.Delete(ctx, p.ID)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	discardMedia(ctx, s.media, s.logger, deref(p.ImageID))
	s.invalidate(ctx, p)
	return ok, nil
}

func (s *ProjectService) invalidate(ctx context.Context, p *model.Project) {
	s.public.InvalidateProject(ctx, p.Slug)
}
