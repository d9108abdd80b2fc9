// Package testutil provides testing utilities and helpers for the lab portal.
package testutil

import (
	"fmt"
	"sync/atomic"

	"github.com/target/lab-portal/internal/domain/model"
)

var seq atomic.Uint64

// Unique returns prefix suffixed with a process-unique counter.
func Unique(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, seq.Add(1))
}

// UserRequestBuilder provides a fluent interface for building CreateUserRequest objects for testing.
type UserRequestBuilder struct {
	req model.CreateUserRequest
}

// NewUserRequest creates an engineer with a unique email.
func NewUserRequest() *UserRequestBuilder {
	return &UserRequestBuilder{req: model.CreateUserRequest{
		Email:     Unique("user") + "@lab.example.edu",
		FirstName: "Test",
		LastName:  "User",
		Roles:     []string{"ENGINEER"},
	}}
}

func (b *UserRequestBuilder) WithEmail(email string) *UserRequestBuilder {
	b.req.Email = email
	return b
}

// WithRoles sets the ordered role names.
func (b *UserRequestBuilder) WithRoles(roles ...string) *UserRequestBuilder {
	b.req.Roles = roles
	return b
}

func (b *UserRequestBuilder) WithPassword(pw string) *UserRequestBuilder {
	b.req.Password = pw
	return b
}

// Build returns the constructed CreateUserRequest.
func (b *UserRequestBuilder) Build() model.CreateUserRequest {
	return b.req
}

// ProjectRequestBuilder builds CreateProjectRequest objects for testing.
type ProjectRequestBuilder struct {
	req model.CreateProjectRequest
}

// NewProjectRequest creates a project request with a unique title and slug.
func NewProjectRequest() *ProjectRequestBuilder {
	title := Unique("Project")
	return &ProjectRequestBuilder{req: model.CreateProjectRequest{
		Title:   title,
		Slug:    model.Slugify(title),
		Summary: "summary",
	}}
}

func (b *ProjectRequestBuilder) WithTitle(title string) *ProjectRequestBuilder {
	b.req.Title = title
	b.req.Slug = model.Slugify(title)
	return b
}

func (b *ProjectRequestBuilder) WithDepartment(id string) *ProjectRequestBuilder {
	b.req.DepartmentID = &id
	return b
}

func (b *ProjectRequestBuilder) Build() model.CreateProjectRequest {
	return b.req
}
