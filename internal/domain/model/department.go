//revive:disable-next-line:var-naming // legacy package name used across the project
package model

import (
	"strings"
	"time"

	apperrors "github.com/target/lab-portal/internal/errors"
)

// Department groups the lab's projects by research area.
type Department struct {
	ID          string    `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	Slug        string    `json:"slug"        db:"slug"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"  db:"updated_at"`
}

type CreateDepartmentRequest struct {
	Name        string `json:"name"        validate:"notblank,max=120"`
	Slug        string `json:"slug"        validate:"omitempty,slug,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

// Normalize trims input and derives the slug from the name when absent.
func (r *CreateDepartmentRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Slug = strings.TrimSpace(r.Slug)
	r.Description = strings.TrimSpace(r.Description)
	if r.Slug == "" {
		r.Slug = Slugify(r.Name)
	}
}

func (r *CreateDepartmentRequest) Validate() error { return validateStruct(r) }

type UpdateDepartmentRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,notblank,max=120"`
	Slug        *string `json:"slug,omitempty"        validate:"omitempty,slug,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

func (r *UpdateDepartmentRequest) HasUpdates() bool {
	return r.Name != nil || r.Slug != nil || r.Description != nil
}

func (r *UpdateDepartmentRequest) Validate() error {
	if !r.HasUpdates() {
		return apperrors.Validation("at least one field must be updated")
	}
	return validateStruct(r)
}
