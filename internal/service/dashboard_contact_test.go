package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/lab-portal/internal/domain/model"
	apperrors "github.com/target/lab-portal/internal/errors"
	"github.com/target/lab-portal/internal/mocks"
	"github.com/target/lab-portal/internal/ports"
)

func TestContactService_SubmitNotifies(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockContactRepository(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)
	svc, err := NewContactService(ContactServiceOptions{Repo: repo, Notifier: notifier})
	require.NoError(t, err)

	req := model.CreateContactMessageRequest{Name: "Visitor", Email: "v@example.com", Message: "Hello"}
	repo.EXPECT().Create(gomock.Any(), req).
		Return(&model.ContactMessage{ID: "m1", Name: "Visitor", Email: "v@example.com", Message: "Hello"}, nil)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n ports.Notification) error {
			assert.Equal(t, "New contact message: (no subject)", n.Subject)
			assert.Equal(t, "v@example.com", n.ReplyTo)
			assert.Contains(t, n.Body, "Hello")
			return errors.New("smtp down")
		})

	m, err := svc.Submit(context.Background(), req)
	require.NoError(t, err, "notification failures must not fail the submission")
	assert.Equal(t, "m1", m.ID)
}

func TestContactService_SaveFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockContactRepository(ctrl)
	svc, err := NewContactService(ContactServiceOptions{Repo: repo, Notifier: mocks.NewMockNotifier(ctrl)})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), model.CreateContactMessageRequest{Email: "not-an-email"})
	assert.True(t, apperrors.IsValidation(err))

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
	_, err = svc.Submit(context.Background(), model.CreateContactMessageRequest{
		Name: "Visitor", Email: "v@example.com", Message: "Hi",
	})
	require.ErrorContains(t, err, "save contact message")
}

func newDashboardMocks(ctrl *gomock.Controller) DashboardServiceOptions {
	return DashboardServiceOptions{
		Users:       mocks.NewMockUserRepository(ctrl),
		Departments: mocks.NewMockDepartmentRepository(ctrl),
		Newsletters: mocks.NewMockNewsletterRepository(ctrl),
		Projects:    mocks.NewMockProjectRepository(ctrl),
		Contacts:    mocks.NewMockContactRepository(ctrl),
	}
}

func TestDashboardService_Admin(t *testing.T) {
	ctrl := gomock.NewController(t)
	opts := newDashboardMocks(ctrl)
	svc, err := NewDashboardService(opts)
	require.NoError(t, err)

	byStatus := map[model.ProjectStatus]int{model.ProjectStatusPending: 2}
	opts.Users.(*mocks.MockUserRepository).EXPECT().Count(gomock.Any()).Return(4, nil)
	opts.Departments.(*mocks.MockDepartmentRepository).EXPECT().Count(gomock.Any()).Return(3, nil)
	news := opts.Newsletters.(*mocks.MockNewsletterRepository)
	news.EXPECT().Count(gomock.Any(), false).Return(5, nil)
	news.EXPECT().Count(gomock.Any(), true).Return(2, nil)
	opts.Projects.(*mocks.MockProjectRepository).EXPECT().CountByStatus(gomock.Any(), nil).Return(byStatus, nil)
	opts.Contacts.(*mocks.MockContactRepository).EXPECT().CountUnread(gomock.Any()).Return(1, nil)

	got, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &model.AdminDashboard{
		Users: 4, Departments: 3, Newsletters: 5, PublishedNewsletters: 2,
		ProjectsByStatus: byStatus, UnreadMessages: 1,
	}, got)
}

func TestDashboardService_EngineerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	opts := newDashboardMocks(ctrl)
	svc, err := NewDashboardService(opts)
	require.NoError(t, err)

	projects := opts.Projects.(*mocks.MockProjectRepository)
	projects.EXPECT().CountByStatus(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
	projects.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	_, err = svc.Engineer(context.Background(), "u1")
	require.Error(t, err)

	_, err = NewDashboardService(DashboardServiceOptions{})
	require.Error(t, err)
}
