//revive:disable-next-line:var-naming // legacy package name used across the project
package model

import (
	"strings"
	"time"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
	apperrors "github.com/target/lab-portal/internal/errors"
)

// User is a portal account. Roles is loaded from user_roles and ordered by position.
type User struct {
	ID           string            `json:"id"                      db:"id"`
	Email        string            `json:"email"                   db:"email"`
	FirstName    string            `json:"first_name"              db:"first_name"`
	LastName     string            `json:"last_name"               db:"last_name"`
	PasswordHash *string           `json:"-"                       db:"password_hash"`
	ExternalID   *string           `json:"external_id,omitempty"   db:"external_id"`
	LastLoginAt  *time.Time        `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time         `json:"created_at"              db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"              db:"updated_at"`
	Roles        []domainauth.Role `json:"roles"                   db:"-"`
}

// HasPassword reports whether the account can use credentials login.
func (u *User) HasPassword() bool { return u.PasswordHash != nil && *u.PasswordHash != "" }

// CreateUserRequest creates a local account. Password may be empty for SSO-only users.
type CreateUserRequest struct {
	Email     string   `json:"email"      validate:"required,email,max=254"`
	FirstName string   `json:"first_name" validate:"max=100"`
	LastName  string   `json:"last_name"  validate:"max=100"`
	Password  string   `json:"password"   validate:"omitempty,min=8,max=72"`
	Roles     []string `json:"roles"      validate:"required,min=1,dive,oneof=ADMIN ENGINEER"`
}

func (r *CreateUserRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r *CreateUserRequest) Validate() error {
	return validateStruct(r)
}

// ParsedRoles returns the requested roles in order without duplicates.
func (r *CreateUserRequest) ParsedRoles() []domainauth.Role {
	return domainauth.ParseRoles(strings.Join(r.Roles, ","))
}

// UpdateUserRequest changes profile fields, password, or the ordered role set.
type UpdateUserRequest struct {
	FirstName *string  `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string  `json:"last_name,omitempty"  validate:"omitempty,max=100"`
	Password  *string  `json:"password,omitempty"   validate:"omitempty,min=8,max=72"`
	Roles     []string `json:"roles,omitempty"      validate:"omitempty,min=1,dive,oneof=ADMIN ENGINEER"`
}

func (r *UpdateUserRequest) HasUpdates() bool {
	return r.FirstName != nil || r.LastName != nil || r.Password != nil || r.Roles != nil
}

func (r *UpdateUserRequest) Validate() error {
	if !r.HasUpdates() {
		return apperrors.Validation("at least one field must be updated")
	}
	if r.Roles != nil && len(r.Roles) == 0 {
		return apperrors.ValidationField("roles", "a user must keep at least one role")
	}
	return validateStruct(r)
}

// UpsertSSOUserRequest records an SSO identity on login.
type UpsertSSOUserRequest struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}

// UsersListOptions controls paging and filtering for listing users.
type UsersListOptions struct {
	Limit  int
	Offset int
	Q      *string          // substring match on email or name
	Role   *domainauth.Role // exact role membership
}
