package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/domain/model"
)

const recentProjects = 5

// DashboardServiceOptions groups the repositories summarized on the portals.
type DashboardServiceOptions struct {
	Users       core.UserRepository
	Departments core.DepartmentRepository
	Newsletters core.NewsletterRepository
	Projects    core.ProjectRepository
	Contacts    core.ContactRepository
}

// DashboardService computes portal summary counts.
type DashboardService struct {
	opts DashboardServiceOptions
}

// NewDashboardService constructs a new DashboardService. All repositories are required.
func NewDashboardService(opts DashboardServiceOptions) (*DashboardService, error) {
	if opts.Users == nil || opts.Departments == nil || opts.Newsletters == nil ||
		opts.Projects == nil || opts.Contacts == nil {
		return nil, errors.New("all dashboard repositories are required")
	}
	return &DashboardService{opts: opts}, nil
}

// Admin summarizes the whole portal. Counts run concurrently.
func (s *DashboardService) Admin(ctx context.Context) (*model.AdminDashboard, error) {
	var out model.AdminDashboard
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { out.Users, err = s.opts.Users.Count(ctx); return })
	g.Go(func() (err error) { out.Departments, err = s.opts.Departments.Count(ctx); return })
	g.Go(func() (err error) { out.Newsletters, err = s.opts.Newsletters.Count(ctx, false); return })
	g.Go(func() (err error) { out.PublishedNewsletters, err = s.opts.Newsletters.Count(ctx, true); return })
	g.Go(func() (err error) { out.ProjectsByStatus, err = s.opts.Projects.CountByStatus(ctx, nil); return })
	g.Go(func() (err error) { out.UnreadMessages, err = s.opts.Contacts.CountUnread(ctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Engineer summarizes ownerID's projects.
func (s *DashboardService) Engineer(ctx context.Context, ownerID string) (*model.EngineerDashboard, error) {
	var out model.EngineerDashboard
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.ProjectsByStatus, err = s.opts.Projects.CountByStatus(ctx, &ownerID)
		return
	})
	g.Go(func() (err error) {
		out.Recent, err = s.opts.Projects.List(ctx, model.ProjectsListOptions{Limit: recentProjects, OwnerID: &ownerID})
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
