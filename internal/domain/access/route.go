// Package access holds the pure routing rules that decide how an inbound request
// is treated based on its path, the caller's session, and the active role.
package access

import "strings"

// Area classifies a request path.
type Area int

const (
	AreaOther Area = iota
	AreaPublic
	AreaAuth
	AreaAdmin
	AreaEngineer
)

func (a Area) String() string {
	switch a {
	case AreaPublic:
		return "public"
	case AreaAuth:
		return "auth"
	case AreaAdmin:
		return "admin"
	case AreaEngineer:
		return "engineer"
	default:
		return "other"
	}
}

// PublicRoots is the allow-list of top-level public routes. A path is public when it
// equals a root or starts with root + "/".
var PublicRoots = []string{
	"/",
	"/products",
	"/research",
	"/insights",
	"/bootcamps",
	"/careers",
	"/podcast",
	"/teams",
	"/gallery",
	"/contact",
	"/newsletter",
	"/services",
	"/conferences",
	"/centers",
	"/preview",
}

// InternalPrefixes are framework-internal paths served without auth.
var InternalPrefixes = []string{
	"/api/",
	"/static/",
	"/_next/",
	"/healthz",
}

const (
	authPrefix     = "/auth"
	adminPrefix    = "/admin"
	engineerPrefix = "/engineer"

	// AuthErrorPath stays reachable for logged-in users.
	AuthErrorPath = "/auth/error"
)

// Classify maps path to exactly one Area. Protected prefixes win over the
// public allow-list.
func Classify(path string) Area {
	switch {
	case underRoot(path, authPrefix):
		return AreaAuth
	case underRoot(path, adminPrefix):
		return AreaAdmin
	case underRoot(path, engineerPrefix):
		return AreaEngineer
	case IsPublic(path):
		return AreaPublic
	default:
		return AreaOther
	}
}

// IsPublic reports whether path is on the public allow-list.
func IsPublic(path string) bool {
	for _, root := range PublicRoots {
		if path == root {
			return true
		}
		// "/" + "/" would match "//..." only; keep "/" exact.
		if root != "/" && strings.HasPrefix(path, root+"/") {
			return true
		}
	}
	for _, p := range InternalPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return strings.Contains(path, ".")
}

func underRoot(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+"/")
}
