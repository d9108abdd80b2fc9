package access

import (
	"net/url"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
)

// Action enumerates the router outcomes.
type Action int

const (
	ActionContinue Action = iota
	ActionSetCookieAndContinue
	ActionRedirectToLogin
	ActionRedirectToPortal
	ActionRedirectHome
)

func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "continue"
	case ActionSetCookieAndContinue:
		return "set_cookie_and_continue"
	case ActionRedirectToLogin:
		return "redirect_to_login"
	case ActionRedirectToPortal:
		return "redirect_to_portal"
	case ActionRedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// LoginPath is where unauthenticated users are sent.
const LoginPath = "/auth/login"

// CallbackParam carries the originally requested path through login.
const CallbackParam = "callbackUrl"

// Decision is the router's verdict for one request.
type Decision struct {
	Action      Action
	Role        domainauth.Role // SetCookieAndContinue, RedirectToPortal
	CallbackURL string          // RedirectToLogin
}

func Continue() Decision { return Decision{Action: ActionContinue} }

func SetCookieAndContinue(r domainauth.Role) Decision {
	return Decision{Action: ActionSetCookieAndContinue, Role: r}
}

func RedirectToLogin(callback string) Decision {
	return Decision{Action: ActionRedirectToLogin, CallbackURL: callback}
}

func RedirectToPortal(r domainauth.Role) Decision {
	return Decision{Action: ActionRedirectToPortal, Role: r}
}

func RedirectHome() Decision { return Decision{Action: ActionRedirectHome} }

// Location returns the redirect target, or "" when the decision does not redirect.
func (d Decision) Location() string {
	switch d.Action {
	case ActionRedirectToLogin:
		return LoginPath + "?" + CallbackParam + "=" + url.QueryEscape(d.CallbackURL)
	case ActionRedirectToPortal:
		return domainauth.PortalPath(d.Role)
	case ActionRedirectHome:
		return "/"
	default:
		return ""
	}
}

// IsRedirect reports whether the decision ends the request with a redirect.
func (d Decision) IsRedirect() bool {
	return d.Location() != ""
}
