package access

import domainauth "github.com/target/lab-portal/internal/domain/auth"

// RouteInput is everything the path rules need once identity and active role
// have been resolved.
type RouteInput struct {
	Path       string
	LoggedIn   bool
	Roles      []domainauth.Role // session roles; empty when logged out
	ActiveRole ActiveRole
}

// Route applies the path rules in order. Lazy initialization happens before this
// is called, so an Unset active role here means initialization was not possible.
func Route(in RouteInput) Decision {
	area := Classify(in.Path)
	active, hasActive := in.ActiveRole.Get()

	if in.LoggedIn && in.Path == "/" && hasActive {
		return RedirectToPortal(active)
	}

	if area == AreaPublic || area == AreaOther {
		return Continue()
	}

	if !in.LoggedIn {
		if area == AreaAdmin || area == AreaEngineer {
			return RedirectToLogin(in.Path)
		}
		return Continue()
	}

	effective, ok := effectiveRole(active, hasActive, in.Roles)

	switch area {
	case AreaAuth:
		if in.Path == AuthErrorPath || !ok {
			return Continue()
		}
		return RedirectToPortal(effective)
	case AreaAdmin:
		if ok && effective != domainauth.RoleAdmin {
			return RedirectToPortal(domainauth.RoleEngineer)
		}
	case AreaEngineer:
		if ok && effective != domainauth.RoleEngineer {
			return RedirectToPortal(domainauth.RoleAdmin)
		}
	}
	return Continue()
}

// effectiveRole falls back to roles[0] when no active role could be resolved.
// Routing an Unset admin-path visit to /engineer regardless of roles would
// bounce an admin-first user between the two portals; roles[0] always names a
// portal that accepts the user.
func effectiveRole(active domainauth.Role, hasActive bool, roles []domainauth.Role) (domainauth.Role, bool) {
	if hasActive {
		return active, true
	}
	if len(roles) > 0 {
		return roles[0], true
	}
	return "", false
}
