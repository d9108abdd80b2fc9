//revive:disable-next-line:var-naming // legacy package name used across the project
package model

import (
	"strings"
	"time"
)

// ContactMessage is a visitor submission from the public contact form.
type ContactMessage struct {
	ID        string    `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	Email     string    `json:"email"      db:"email"`
	Subject   string    `json:"subject"    db:"subject"`
	Message   string    `json:"message"    db:"message"`
	Read      bool      `json:"read"       db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateContactMessageRequest struct {
	Name    string `json:"name"    validate:"notblank,max=120"`
	Email   string `json:"email"   validate:"required,email,max=254"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"notblank,max=5000"`
}

func (r *CreateContactMessageRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Message = strings.TrimSpace(r.Message)
}

func (r *CreateContactMessageRequest) Validate() error { return validateStruct(r) }

// ContactListOptions controls paging and filtering for listing messages.
type ContactListOptions struct {
	Limit      int
	Offset     int
	UnreadOnly bool
}
