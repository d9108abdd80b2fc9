//revive:disable-next-line:var-naming // legacy package name used across the project
package model

import (
	"strings"
	"time"

	apperrors "github.com/target/lab-portal/internal/errors"
)

// ProjectStatus tracks an engineer project through review.
type ProjectStatus string

const (
	ProjectStatusDraft    ProjectStatus = "draft"
	ProjectStatusPending  ProjectStatus = "pending"
	ProjectStatusApproved ProjectStatus = "approved"
	ProjectStatusRejected ProjectStatus = "rejected"
)

// AllProjectStatuses lists statuses in workflow order.
var AllProjectStatuses = []ProjectStatus{
	ProjectStatusDraft, ProjectStatusPending, ProjectStatusApproved, ProjectStatusRejected,
}

// Valid reports whether the status is supported.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusDraft, ProjectStatusPending, ProjectStatusApproved, ProjectStatusRejected:
		return true
	default:
		return false
	}
}

// ParseProjectStatus normalizes s and reports whether it is supported.
func ParseProjectStatus(s string) (ProjectStatus, bool) {
	st := ProjectStatus(strings.ToLower(strings.TrimSpace(s)))
	return st, st.Valid()
}

// projectTransitions: owners submit drafts or rejected work; admins decide pending work.
var projectTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectStatusDraft:    {ProjectStatusPending},
	ProjectStatusRejected: {ProjectStatusPending, ProjectStatusDraft},
	ProjectStatusPending:  {ProjectStatusApproved, ProjectStatusRejected, ProjectStatusDraft},
	ProjectStatusApproved: {ProjectStatusDraft},
}

// CanTransition reports whether from -> to is an allowed status change.
func CanTransition(from, to ProjectStatus) bool {
	for _, s := range projectTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Editable reports whether the owner may change content in this status.
func (s ProjectStatus) Editable() bool {
	return s == ProjectStatusDraft || s == ProjectStatusRejected
}

// Project is an engineer's research project; approved projects are public.
type Project struct {
	ID           string        `json:"id"                      db:"id"`
	Title        string        `json:"title"                   db:"title"`
	Slug         string        `json:"slug"                    db:"slug"`
	Summary      string        `json:"summary"                 db:"summary"`
	Description  string        `json:"description"             db:"description"`
	DepartmentID *string       `json:"department_id,omitempty" db:"department_id"`
	OwnerID      string        `json:"owner_id"                db:"owner_id"`
	Status       ProjectStatus `json:"status"                  db:"status"`
	ReviewNote   *string       `json:"review_note,omitempty"   db:"review_note"`
	ImageURL     *string       `json:"image_url,omitempty"     db:"image_url"`
	ImageID      *string       `json:"-"                       db:"image_id"`
	CreatedAt    time.Time     `json:"created_at"              db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"              db:"updated_at"`
}

type CreateProjectRequest struct {
	Title        string  `json:"title"                   validate:"notblank,max=200"`
	Slug         string  `json:"slug"                    validate:"omitempty,slug,max=200"`
	Summary      string  `json:"summary"                 validate:"max=1000"`
	Description  string  `json:"description"             validate:"max=50000"`
	DepartmentID *string `json:"department_id,omitempty" validate:"omitempty,uuid"`
}

func (r *CreateProjectRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Slug = strings.TrimSpace(r.Slug)
	if r.Slug == "" {
		r.Slug = Slugify(r.Title)
	}
}

func (r *CreateProjectRequest) Validate() error { return validateStruct(r) }

type UpdateProjectRequest struct {
	Title        *string `json:"title,omitempty"         validate:"omitempty,notblank,max=200"`
	Slug         *string `json:"slug,omitempty"          validate:"omitempty,slug,max=200"`
	Summary      *string `json:"summary,omitempty"       validate:"omitempty,max=1000"`
	Description  *string `json:"description,omitempty"   validate:"omitempty,max=50000"`
	DepartmentID *string `json:"department_id,omitempty" validate:"omitempty,uuid"`
}

func (r *UpdateProjectRequest) HasUpdates() bool {
	return r.Title != nil || r.Slug != nil || r.Summary != nil || r.Description != nil || r.DepartmentID != nil
}

func (r *UpdateProjectRequest) Validate() error {
	if !r.HasUpdates() {
		return apperrors.Validation("at least one field must be updated")
	}
	return validateStruct(r)
}

// ReviewProjectRequest is an admin decision on a pending project.
type ReviewProjectRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
	Note     string `json:"note"     validate:"max=2000"`
}

func (r *ReviewProjectRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.Decision == string(ProjectStatusRejected) && strings.TrimSpace(r.Note) == "" {
		return apperrors.ValidationField("note", "note is required when rejecting a project")
	}
	return nil
}

// ProjectsListOptions controls paging and filtering for listing projects.
type ProjectsListOptions struct {
	Limit        int
	Offset       int
	OwnerID      *string
	Status       *ProjectStatus
	DepartmentID *string
	Q            *string // substring match on title
}
