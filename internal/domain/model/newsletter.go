//revive:disable-next-line:var-naming // legacy package name used across the project
package model

import (
	"strings"
	"time"

	apperrors "github.com/target/lab-portal/internal/errors"
)

// Newsletter is a periodic lab bulletin. Only published issues are public.
type Newsletter struct {
	ID            string     `json:"id"                        db:"id"`
	Title         string     `json:"title"                     db:"title"`
	Slug          string     `json:"slug"                      db:"slug"`
	Summary       string     `json:"summary"                   db:"summary"`
	Body          string     `json:"body"                      db:"body"`
	CoverImageURL *string    `json:"cover_image_url,omitempty" db:"cover_image_url"`
	CoverImageID  *string    `json:"-"                         db:"cover_image_id"`
	Published     bool       `json:"published"                 db:"published"`
	PublishedAt   *time.Time `json:"published_at,omitempty"    db:"published_at"`
	AuthorID      *string    `json:"author_id,omitempty"       db:"author_id"`
	CreatedAt     time.Time  `json:"created_at"                db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"                db:"updated_at"`
}

type CreateNewsletterRequest struct {
	Title   string `json:"title"   validate:"notblank,max=200"`
	Slug    string `json:"slug"    validate:"omitempty,slug,max=200"`
	Summary string `json:"summary" validate:"max=1000"`
	Body    string `json:"body"    validate:"max=100000"`
}

func (r *CreateNewsletterRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Slug = strings.TrimSpace(r.Slug)
	if r.Slug == "" {
		r.Slug = Slugify(r.Title)
	}
}

func (r *CreateNewsletterRequest) Validate() error { return validateStruct(r) }

type UpdateNewsletterRequest struct {
	Title   *string `json:"title,omitempty"   validate:"omitempty,notblank,max=200"`
	Slug    *string `json:"slug,omitempty"    validate:"omitempty,slug,max=200"`
	Summary *string `json:"summary,omitempty" validate:"omitempty,max=1000"`
	Body    *string `json:"body,omitempty"    validate:"omitempty,max=100000"`
}

func (r *UpdateNewsletterRequest) HasUpdates() bool {
	return r.Title != nil || r.Slug != nil || r.Summary != nil || r.Body != nil
}

func (r *UpdateNewsletterRequest) Validate() error {
	if !r.HasUpdates() {
		return apperrors.Validation("at least one field must be updated")
	}
	return validateStruct(r)
}

// NewslettersListOptions controls paging and filtering for listing newsletters.
type NewslettersListOptions struct {
	Limit         int
	Offset        int
	PublishedOnly bool
}
