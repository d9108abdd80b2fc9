package httpx

import (
	"context"

	"github.com/target/lab-portal/internal/domain/access"
	domainauth "github.com/target/lab-portal/internal/domain/auth"
)

// Context keys are unexported types to avoid collisions across packages.
type (
	sessionKey    struct{}
	activeRoleKey struct{}
	rolesKey      struct{}
)

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetUserSessionFromContext returns the user session from context and a boolean indicating presence.
func GetUserSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// GetSessionFromContext retrieves the session from the request context, or nil.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	s, _ := GetUserSessionFromContext(ctx)
	return s
}

func setActiveRoleInContext(ctx context.Context, a access.ActiveRole) context.Context {
	return context.WithValue(ctx, activeRoleKey{}, a)
}

// ActiveRoleFromContext returns the validated active role resolved for this request.
func ActiveRoleFromContext(ctx context.Context) (domainauth.Role, bool) {
	a, ok := ctx.Value(activeRoleKey{}).(access.ActiveRole)
	if !ok {
		return "", false
	}
	return a.Get()
}

func setRolesInContext(ctx context.Context, roles []domainauth.Role) context.Context {
	if roles == nil {
		return ctx
	}
	return context.WithValue(ctx, rolesKey{}, roles)
}

// RolesFromContext returns the roles the access router decided this request
// against. ok is false when AccessControl did not run or the caller is logged out.
func RolesFromContext(ctx context.Context) ([]domainauth.Role, bool) {
	roles, ok := ctx.Value(rolesKey{}).([]domainauth.Role)
	return roles, ok
}
