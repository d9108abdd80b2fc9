// Package core holds the repository contracts the services depend on, plus
// cache-backed decorators over them.
package core

import (
	"context"
	"time"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/domain/model"
)

// UpdateUserParams carries already-validated user field changes.
// PasswordHash is the hashed value; nil leaves it unchanged.
type UpdateUserParams struct {
	FirstName    *string
	LastName     *string
	PasswordHash *string
}

// UserRepository defines the interface for user and role data operations.
type UserRepository interface {
	Create(ctx context.Context, req model.CreateUserRequest, passwordHash *string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertSSO creates or refreshes the account linked to an IdP subject.
	UpsertSSO(ctx context.Context, req model.UpsertSSOUserRequest) (*model.User, error)
	List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error)
	Update(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)
	// SetRoles replaces the user's ordered role set.
	SetRoles(ctx context.Context, userID string, roles []domainauth.Role) error
	RolesForUser(ctx context.Context, userID string) ([]domainauth.Role, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
}

// DepartmentRepository defines the interface for department data operations.
type DepartmentRepository interface {
	Create(ctx context.Context, req model.CreateDepartmentRequest) (*model.Department, error)
	GetByID(ctx context.Context, id string) (*model.Department, error)
	GetBySlug(ctx context.Context, slug string) (*model.Department, error)
	List(ctx context.Context, limit, offset int) ([]*model.Department, error)
	Update(ctx context.Context, id string, req model.UpdateDepartmentRequest) (*model.Department, error)
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
}

// MediaRef points at an asset on the media host. Nil clears the image.
type MediaRef struct {
	URL      string
	PublicID string
}

// NewsletterRepository defines the interface for newsletter data operations.
type NewsletterRepository interface {
	Create(ctx context.Context, req model.CreateNewsletterRequest, authorID *string) (*model.Newsletter, error)
	GetByID(ctx context.Context, id string) (*model.Newsletter, error)
	GetBySlug(ctx context.Context, slug string) (*model.Newsletter, error)
	List(ctx context.Context, opts model.NewslettersListOptions) ([]*model.Newsletter, error)
	Update(ctx context.Context, id string, req model.UpdateNewsletterRequest) (*model.Newsletter, error)
	SetPublished(ctx context.Context, id string, published bool, at time.Time) (*model.Newsletter, error)
	SetCoverImage(ctx context.Context, id string, ref *MediaRef) (*model.Newsletter, error)
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context, publishedOnly bool) (int, error)
}

// ProjectRepository defines the interface for project data operations.
type ProjectRepository interface {
	Create(ctx context.Context, ownerID string, req model.CreateProjectRequest) (*model.Project, error)
	GetByID(ctx context.Context, id string) (*model.Project, error)
	GetBySlug(ctx context.Context, slug string) (*model.Project, error)
	List(ctx context.Context, opts model.ProjectsListOptions) ([]*model.Project, error)
	Update(ctx context.Context, id string, req model.UpdateProjectRequest) (*model.Project, error)
	// TransitionStatus moves a project from -> to only if it is currently in from.
	TransitionStatus(ctx context.Context, id string, from, to model.ProjectStatus, note *string) (*model.Project, error)
	SetImage(ctx context.Context, id string, ref *MediaRef) (*model.Project, error)
	Delete(ctx context.Context, id string) (bool, error)
	// CountByStatus counts projects per status, optionally for a single owner.
	CountByStatus(ctx context.Context, ownerID *string) (map[model.ProjectStatus]int, error)
}

// ContactRepository defines the interface for contact message data operations.
type ContactRepository interface {
	Create(ctx context.Context, req model.CreateContactMessageRequest) (*model.ContactMessage, error)
	GetByID(ctx context.Context, id string) (*model.ContactMessage, error)
	List(ctx context.Context, opts model.ContactListOptions) ([]*model.ContactMessage, error)
	MarkRead(ctx context.Context, id string, read bool) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	CountUnread(ctx context.Context) (int, error)
}
