package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/data"
	"github.com/target/lab-portal/internal/domain/model"
	apperrors "github.com/target/lab-portal/internal/errors"
	"github.com/target/lab-portal/internal/mocks"
	"github.com/target/lab-portal/internal/ports"
)

type contentFixture struct {
	departments *mocks.MockDepartmentRepository
	newsletters *mocks.MockNewsletterRepository
	projects    *mocks.MockProjectRepository
	media       *mocks.MockMediaUploader
	cache       *data.MemoryCacheRepo
	public      *PublicContentService
}

func newContentFixture(t *testing.T) *contentFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &contentFixture{
		departments: mocks.NewMockDepartmentRepository(ctrl),
		newsletters: mocks.NewMockNewsletterRepository(ctrl),
		projects:    mocks.NewMockProjectRepository(ctrl),
		media:       mocks.NewMockMediaUploader(ctrl),
		cache:       data.NewMemoryCacheRepo(data.MemoryCacheOptions{SweepInterval: -1}),
	}
	t.Cleanup(func() { _ = f.cache.Close() })
	var err error
	f.public, err = NewPublicContentService(PublicContentServiceOptions{
		Departments: f.departments,
		Newsletters: f.newsletters,
		Projects:    f.projects,
		Cache:       f.cache,
	})
	require.NoError(t, err)
	return f
}

func (f *contentFixture) projectService(t *testing.T) *ProjectService {
	t.Helper()
	svc, err := NewProjectService(ProjectServiceOptions{Repo: f.projects, Media: f.media, Public: f.public})
	require.NoError(t, err)
	return svc
}

func TestPublicContent_ProjectsAreCached(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()
	approved := []*model.Project{{ID: "p1", Slug: "swarm", Status: model.ProjectStatusApproved}}

	f.projects.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts model.ProjectsListOptions) ([]*model.Project, error) {
			require.NotNil(t, opts.Status)
			assert.Equal(t, model.ProjectStatusApproved, *opts.Status)
			return approved, nil
		}).Times(2)

	for range 3 {
		got, err := f.public.Projects(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "p1", got[0].ID)
	}

	f.public.InvalidateProject(ctx, "swarm")
	_, err := f.public.Projects(ctx)
	require.NoError(t, err)
}

func TestPublicContent_HidesUnpublished(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()

	f.projects.EXPECT().GetBySlug(gomock.Any(), "draft-one").
		Return(&model.Project{Slug: "draft-one", Status: model.ProjectStatusDraft}, nil)
	_, err := f.public.Project(ctx, "draft-one")
	assert.True(t, apperrors.IsNotFound(err))

	f.newsletters.EXPECT().GetBySlug(gomock.Any(), "spring").Return(&model.Newsletter{Slug: "spring"}, nil)
	_, err = f.public.Newsletter(ctx, "spring")
	assert.True(t, apperrors.IsNotFound(err))

	f.newsletters.EXPECT().GetBySlug(gomock.Any(), "missing").Return(nil, apperrors.NotFound("newsletter not found"))
	_, err = f.public.Newsletter(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPublicContent_NilCacheLoadsEveryTime(t *testing.T) {
	ctrl := gomock.NewController(t)
	deps := mocks.NewMockDepartmentRepository(ctrl)
	svc, err := NewPublicContentService(PublicContentServiceOptions{
		Departments: deps,
		Newsletters: mocks.NewMockNewsletterRepository(ctrl),
		Projects:    mocks.NewMockProjectRepository(ctrl),
	})
	require.NoError(t, err)

	deps.EXPECT().List(gomock.Any(), publicListLimit, 0).Return([]*model.Department{{ID: "d1"}}, nil).Times(2)
	for range 2 {
		_, err = svc.Departments(context.Background())
		require.NoError(t, err)
	}
	svc.InvalidateDepartments(context.Background())
}

func TestProjectService_Ownership(t *testing.T) {
	f := newContentFixture(t)
	svc := f.projectService(t)
	ctx := context.Background()

	f.projects.EXPECT().GetByID(gomock.Any(), "p1").
		Return(&model.Project{ID: "p1", OwnerID: "owner", Status: model.ProjectStatusDraft}, nil).AnyTimes()

	_, err := svc.GetOwned(ctx, "someone-else", "p1")
	assert.True(t, apperrors.IsForbidden(err))

	_, err = svc.Submit(ctx, "someone-else", "p1")
	assert.True(t, apperrors.IsForbidden(err))
}

func TestProjectService_SubmitAndReview(t *testing.T) {
	f := newContentFixture(t)
	svc := f.projectService(t)
	ctx := context.Background()

	draft := &model.Project{ID: "p1", Slug: "swarm", OwnerID: "owner", Summary: "Drones", Status: model.ProjectStatusDraft}
	pending := *draft
	pending.Status = model.ProjectStatusPending
	approved := pending
	approved.Status = model.ProjectStatusApproved

	gomock.InOrder(
		f.projects.EXPECT().GetByID(gomock.Any(), "p1").Return(draft, nil),
		f.projects.EXPECT().TransitionStatus(gomock.Any(), "p1",
			model.ProjectStatusDraft, model.ProjectStatusPending, nil).Return(&pending, nil),
		f.projects.EXPECT().GetByID(gomock.Any(), "p1").Return(&pending, nil),
		f.projects.EXPECT().TransitionStatus(gomock.Any(), "p1",
			model.ProjectStatusPending, model.ProjectStatusApproved, nil).Return(&approved, nil),
	)

	got, err := svc.Submit(ctx, "owner", "p1")
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusPending, got.Status)

	got, err = svc.Review(ctx, "p1", model.ReviewProjectRequest{Decision: "approved"})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusApproved, got.Status)
}

func TestProjectService_Guards(t *testing.T) {
	f := newContentFixture(t)
	svc := f.projectService(t)
	ctx := context.Background()

	pending := &model.Project{ID: "p1", OwnerID: "owner", Summary: "x", Status: model.ProjectStatusPending}
	noSummary := &model.Project{ID: "p2", OwnerID: "owner", Status: model.ProjectStatusDraft}
	draft := &model.Project{ID: "p3", OwnerID: "owner", Summary: "x", Status: model.ProjectStatusDraft}
	f.projects.EXPECT().GetByID(gomock.Any(), "p1").Return(pending, nil).AnyTimes()
	f.projects.EXPECT().GetByID(gomock.Any(), "p2").Return(noSummary, nil).AnyTimes()
	f.projects.EXPECT().GetByID(gomock.Any(), "p3").Return(draft, nil).AnyTimes()

	title := "New title"
	_, err := svc.UpdateOwned(ctx, "owner", "p1", model.UpdateProjectRequest{Title: &title})
	assert.True(t, apperrors.IsConflict(err))

	_, err = svc.DeleteOwned(ctx, "owner", "p1")
	assert.True(t, apperrors.IsConflict(err))

	_, err = svc.Submit(ctx, "owner", "p2")
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Review(ctx, "p3", model.ReviewProjectRequest{Decision: "approved"})
	assert.True(t, apperrors.IsConflict(err))

	_, err = svc.Review(ctx, "p1", model.ReviewProjectRequest{Decision: "rejected"})
	assert.True(t, apperrors.IsValidation(err), "rejection needs a note")
}

func TestProjectService_SetImageReplacesOld(t *testing.T) {
	f := newContentFixture(t)
	svc := f.projectService(t)
	ctx := context.Background()

	oldID := "projects/old"
	p := &model.Project{ID: "p1", OwnerID: "owner", Slug: "swarm", ImageID: &oldID, Status: model.ProjectStatusDraft}
	f.projects.EXPECT().GetByID(gomock.Any(), "p1").Return(p, nil)
	f.media.EXPECT().Upload(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in ports.UploadInput) (ports.UploadedMedia, error) {
			assert.Equal(t, projectMediaFolder, in.Folder)
			return ports.UploadedMedia{PublicID: "projects/new", URL: "https://img/new.png"}, nil
		})
	f.projects.EXPECT().SetImage(gomock.Any(), "p1", &core.MediaRef{URL: "https://img/new.png", PublicID: "projects/new"}).
		Return(p, nil)
	f.media.EXPECT().Delete(gomock.Any(), "projects/old").Return(errors.New("host down"))

	_, err := svc.SetImageOwned(ctx, "owner", "p1", ports.UploadInput{Filename: "a.png", Body: strings.NewReader("png")})
	require.NoError(t, err)
}

func TestNewsletterService_PublishInvalidatesPublicCache(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()
	svc, err := NewNewsletterService(NewsletterServiceOptions{Repo: f.newsletters, Media: f.media, Public: f.public})
	require.NoError(t, err)

	require.NoError(t, f.cache.Set(ctx, keyPublicNewsletters, []byte("[]"), 0))
	require.NoError(t, f.cache.Set(ctx, keyNewsletterPrefix+"spring", []byte("{}"), 0))

	f.newsletters.EXPECT().SetPublished(gomock.Any(), "n1", true, gomock.Any()).
		Return(&model.Newsletter{ID: "n1", Slug: "spring", Published: true}, nil)
	_, err = svc.SetPublished(ctx, "n1", true)
	require.NoError(t, err)

	for _, k := range []string{keyPublicNewsletters, keyNewsletterPrefix + "spring"} {
		ok, existsErr := f.cache.Exists(ctx, k)
		require.NoError(t, existsErr)
		assert.False(t, ok, k)
	}
}

func TestNewsletterService_CoverUploadFailure(t *testing.T) {
	f := newContentFixture(t)
	svc, err := NewNewsletterService(NewsletterServiceOptions{Repo: f.newsletters, Media: f.media})
	require.NoError(t, err)

	f.newsletters.EXPECT().GetByID(gomock.Any(), "n1").Return(&model.Newsletter{ID: "n1"}, nil)
	f.media.EXPECT().Upload(gomock.Any(), gomock.Any()).Return(ports.UploadedMedia{}, errors.New("quota"))

	_, err = svc.SetCover(context.Background(), "n1", ports.UploadInput{Filename: "c.jpg"})
	require.ErrorContains(t, err, "upload cover")

	noMedia, err := NewNewsletterService(NewsletterServiceOptions{Repo: f.newsletters})
	require.NoError(t, err)
	_, err = noMedia.SetCover(context.Background(), "n1", ports.UploadInput{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestDepartmentService_RequiresRepo(t *testing.T) {
	_, err := NewDepartmentService(DepartmentServiceOptions{})
	require.Error(t, err)
}
