package auth

// Portal paths, one per role.
const (
	AdminPortalPath    = "/admin"
	EngineerPortalPath = "/engineer"
)

var portals = map[Role]string{
	RoleAdmin:    AdminPortalPath,
	RoleEngineer: EngineerPortalPath,
}

// PortalPath returns the dashboard root for r, or "" for unknown roles.
func PortalPath(r Role) string {
	return portals[r]
}
