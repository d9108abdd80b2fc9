// Package devseed loads a small, idempotent fixture set for local development.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/target/lab-portal/internal/adapters/passwords"
	"github.com/target/lab-portal/internal/data"
	"github.com/target/lab-portal/internal/domain/model"
	apperrors "github.com/target/lab-portal/internal/errors"
	"github.com/target/lab-portal/internal/service"
)

// DevPassword is the password of every seeded account.
const DevPassword = "lab-portal-dev"

// Services bundles the dependencies needed for development seeding.
type Services struct {
	DB          *sql.DB
	users       *service.UserService
	userRepo    *data.UserRepo
	departments *service.DepartmentService
	newsletters *service.NewsletterService
	newsRepo    *data.NewsletterRepo
	projects    *service.ProjectService
	projectRepo *data.ProjectRepo
}

// NewServices constructs all required services for seeding using the provided DB.
// Public content caches are not wired; the server's cache expires on its own TTL.
func NewServices(db *sql.DB) (Services, error) {
	userRepo := data.NewUserRepo(db)
	users, err := service.NewUserService(service.UserServiceOptions{
		Repo:      userRepo,
		Passwords: passwords.Bcrypt{},
	})
	if err != nil {
		return Services{}, fmt.Errorf("user service: %w", err)
	}
	departments, err := service.NewDepartmentService(service.DepartmentServiceOptions{Repo: data.NewDepartmentRepo(db)})
	if err != nil {
		return Services{}, fmt.Errorf("department service: %w", err)
	}
	newsRepo := data.NewNewsletterRepo(db)
	newsletters, err := service.NewNewsletterService(service.NewsletterServiceOptions{Repo: newsRepo})
	if err != nil {
		return Services{}, fmt.Errorf("newsletter service: %w", err)
	}
	projectRepo := data.NewProjectRepo(db)
	projects, err := service.NewProjectService(service.ProjectServiceOptions{Repo: projectRepo})
	if err != nil {
		return Services{}, fmt.Errorf("project service: %w", err)
	}

	return Services{
		DB:          db,
		users:       users,
		userRepo:    userRepo,
		departments: departments,
		newsletters: newsletters,
		newsRepo:    newsRepo,
		projects:    projects,
		projectRepo: projectRepo,
	}, nil
}

// Run executes the full development seeding workflow. Existing rows are left untouched.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	failures := 0

	ids, n := seedUsers(ctx, svcs, logger)
	failures += n
	failures += seedDepartments(ctx, svcs.departments, logger)
	if id, ok := ids["admin@lab.local"]; ok {
		failures += seedNewsletter(ctx, svcs, id, logger)
	}
	if id, ok := ids["engineer@lab.local"]; ok {
		failures += seedProject(ctx, svcs, id, logger)
	}

	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func defaultUsers() []model.CreateUserRequest {
	return []model.CreateUserRequest{
		{Email: "admin@lab.local", FirstName: "Ada", LastName: "Admin", Password: DevPassword, Roles: []string{"ADMIN"}},
		{Email: "engineer@lab.local", FirstName: "Eli", LastName: "Engineer", Password: DevPassword, Roles: []string{"ENGINEER"}},
		// Both roles, engineer first, to exercise the role switcher.
		{Email: "lead@lab.local", FirstName: "Lee", LastName: "Lead", Password: DevPassword, Roles: []string{"ENGINEER", "ADMIN"}},
	}
}

// seedUsers returns the ids of seeded (or already present) users keyed by email.
func seedUsers(ctx context.Context, svcs Services, logger *slog.Logger) (map[string]string, int) {
	ids := make(map[string]string)
	failures := 0
	for _, req := range defaultUsers() {
		u, err := svcs.users.Create(ctx, req)
		switch {
		case err == nil:
			logger.InfoContext(ctx, "created user", "email", req.Email, "roles", req.Roles)
		case apperrors.IsConflict(err):
			u, err = svcs.userRepo.GetByEmail(ctx, req.Email)
			if err != nil {
				logger.ErrorContext(ctx, "failed to load existing user", "email", req.Email, "error", err)
				failures++
				continue
			}
			logger.InfoContext(ctx, "user already exists", "email", req.Email)
		default:
			logger.ErrorContext(ctx, "failed to create user", "email", req.Email, "error", err)
			failures++
			continue
		}
		ids[req.Email] = u.ID
	}
	return ids, failures
}

func seedDepartments(ctx context.Context, svc *service.DepartmentService, logger *slog.Logger) int {
	failures := 0
	departments := []model.CreateDepartmentRequest{
		{Name: "Applied Research", Description: "Prototypes that leave the lab."},
		{Name: "Platform Engineering", Description: "Shared infrastructure for every team."},
		{Name: "Data Science"},
	}
	for _, req := range departments {
		if _, err := svc.Create(ctx, req); err != nil {
			if apperrors.IsConflict(err) {
				logger.InfoContext(ctx, "department already exists", "name", req.Name)
				continue
			}
			logger.ErrorContext(ctx, "failed to create department", "name", req.Name, "error", err)
			failures++
			continue
		}
		logger.InfoContext(ctx, "created department", "name", req.Name)
	}
	return failures
}

func seedNewsletter(ctx context.Context, svcs Services, authorID string, logger *slog.Logger) int {
	const slug = "welcome-to-the-lab"
	if _, err := svcs.newsRepo.GetBySlug(ctx, slug); err == nil {
		logger.InfoContext(ctx, "newsletter already exists", "slug", slug)
		return 0
	}
	n, err := svcs.newsletters.Create(ctx, model.CreateNewsletterRequest{
		Title:   "Welcome to the lab",
		Slug:    slug,
		Summary: "What we are working on this quarter.",
		Body:    "This is seeded development content.",
	}, authorID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create newsletter", "slug", slug, "error", err)
		return 1
	}
	if _, err := svcs.newsletters.SetPublished(ctx, n.ID, true); err != nil {
		logger.ErrorContext(ctx, "failed to publish newsletter", "slug", slug, "error", err)
		return 1
	}
	logger.InfoContext(ctx, "created newsletter", "slug", slug)
	return 0
}

// seedProject walks one project through submit and approval so the public
// listing has content.
func seedProject(ctx context.Context, svcs Services, ownerID string, logger *slog.Logger) int {
	const slug = "edge-inference-kit"
	if _, err := svcs.projectRepo.GetBySlug(ctx, slug); err == nil {
		logger.InfoContext(ctx, "project already exists", "slug", slug)
		return 0
	}
	p, err := svcs.projects.Create(ctx, ownerID, model.CreateProjectRequest{
		Title:       "Edge inference kit",
		Slug:        slug,
		Summary:     "Run small models on field hardware.",
		Description: "Seeded development project.",
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to create project", "slug", slug, "error", err)
		return 1
	}
	if _, err := svcs.projects.Submit(ctx, ownerID, p.ID); err != nil {
		logger.ErrorContext(ctx, "failed to submit project", "slug", slug, "error", err)
		return 1
	}
	if _, err := svcs.projects.Review(ctx, p.ID, model.ReviewProjectRequest{Decision: string(model.ProjectStatusApproved)}); err != nil {
		logger.ErrorContext(ctx, "failed to approve project", "slug", slug, "error", err)
		return 1
	}
	logger.InfoContext(ctx, "created project", "slug", slug)
	return 0
}
