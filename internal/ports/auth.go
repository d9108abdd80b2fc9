package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"
	"net/http"
	"time"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// ErrSessionNotFound is returned by SessionStore.Get for unknown or expired ids.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionRevoker drops every session of a user, e.g. after a role change.
type SessionRevoker interface {
	DeleteForUser(ctx context.Context, userID string) error
}

// RoleMapper maps provider groups to application roles, in priority order.
type RoleMapper interface {
	Map(groups []string) []domainauth.Role
}

// SessionResolver resolves the caller's session from request headers.
// A nil session with a nil error means the caller is logged out.
type SessionResolver interface {
	ResolveSession(ctx context.Context, headers http.Header) (*domainauth.Session, error)
}

// RoleStore is the authoritative user -> roles mapping. Roles are ordered; the
// zeroth element is the default active role.
type RoleStore interface {
	RolesForUser(ctx context.Context, userID string) ([]domainauth.Role, error)
}

// ErrInvalidActiveRole is returned by ActiveRoleCodec.Decode for any value that
// cannot be trusted.
var ErrInvalidActiveRole = errors.New("invalid active role cookie")

// ActiveRoleCodec signs and verifies active role cookie values for a user.
type ActiveRoleCodec interface {
	Encode(userID string, role domainauth.Role, now time.Time) (string, error)
	Decode(value, userID string) (domainauth.Role, error)
}

// PasswordHasher hashes and verifies local account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
