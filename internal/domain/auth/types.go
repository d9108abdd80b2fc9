package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"slices"
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEngineer Role = "ENGINEER"
)

// AllRoles lists every known role in default-priority order.
var AllRoles = []Role{RoleAdmin, RoleEngineer}

// ParseRole validates s against the role enum. Unknown values report ok=false
// and must be treated as absent by callers.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.TrimSpace(s))
	if r.Valid() {
		return r, true
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEngineer
}

func (r Role) String() string { return string(r) }

// ParseRoles parses a comma separated list of roles, dropping unknown values and duplicates
// while preserving order.
func ParseRoles(s string) []Role {
	var out []Role
	for _, part := range strings.Split(s, ",") {
		r, ok := ParseRole(strings.ToUpper(part))
		if !ok || slices.Contains(out, r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable user identifier (e.g., sub)
	FirstName string
	LastName  string
	Email     string
	Groups    []string
	ExpiresAt time.Time // absolute expiry from IdP token
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
// Roles is captured at login and stays stable for the session's lifetime.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Roles     []Role    `json:"roles"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HasRole reports whether the session carries role r.
func (s Session) HasRole(r Role) bool { return slices.Contains(s.Roles, r) }

// DefaultRole returns the zeroth role, the default active role for the user.
func (s Session) DefaultRole() (Role, bool) {
	if len(s.Roles) == 0 {
		return "", false
	}
	return s.Roles[0], true
}
