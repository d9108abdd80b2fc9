package access

import (
	"errors"
	"slices"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
)

// CookieName is the client-held active role cookie.
const CookieName = "active_role"

// ErrRoleNotAssigned is returned when switching to a role the user does not hold.
var ErrRoleNotAssigned = errors.New("role not assigned to user")

// ActiveRole is the Unset/Set(role) state of the active role cookie.
// The zero value is Unset.
type ActiveRole struct {
	role domainauth.Role
}

// Unset returns the empty state.
func Unset() ActiveRole { return ActiveRole{} }

// Get returns the role and whether the state is Set.
func (a ActiveRole) Get() (domainauth.Role, bool) {
	return a.role, a.role != ""
}

// IsSet reports whether a role is active.
func (a ActiveRole) IsSet() bool { return a.role != "" }

// ResolveActiveRole reads a claimed cookie value. Anything that is not a known role
// held by the user reads as Unset, which re-triggers lazy initialization.
func ResolveActiveRole(claimed string, roles []domainauth.Role) ActiveRole {
	r, ok := domainauth.ParseRole(claimed)
	if !ok || !slices.Contains(roles, r) {
		return Unset()
	}
	return ActiveRole{role: r}
}

// InitialActiveRole is the lazy-init transition: Unset -> Set(roles[0]).
func InitialActiveRole(roles []domainauth.Role) ActiveRole {
	if len(roles) == 0 {
		return Unset()
	}
	return ActiveRole{role: roles[0]}
}

// Switch is the explicit role-switch transition. The target must be held.
func Switch(target domainauth.Role, roles []domainauth.Role) (ActiveRole, error) {
	if !target.Valid() || !slices.Contains(roles, target) {
		return Unset(), ErrRoleNotAssigned
	}
	return ActiveRole{role: target}, nil
}
