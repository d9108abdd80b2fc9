package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/lab-portal/internal/domain/access"
	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/observability/metrics"
	"github.com/target/lab-portal/internal/observability/statsd"
	"github.com/target/lab-portal/internal/ports"
)

// AccessRequest is everything the router reads from an inbound request.
type AccessRequest struct {
	Path    string
	Headers http.Header
	// ActiveRoleCookie is the raw active_role cookie value, empty when absent.
	ActiveRoleCookie string
}

// AccessResult is a routing decision plus the session it was made for.
type AccessResult struct {
	Decision access.Decision
	// Session is nil when the caller is logged out.
	Session *domainauth.Session
	// ActiveRole is the validated active role after the decision.
	ActiveRole access.ActiveRole
	// Roles is the role list the decision was made against. It is the session's
	// roles unless the Role Store was consulted for this request.
	Roles []domainauth.Role
}

// AccessRouterOptions groups dependencies for AccessRouter.
type AccessRouterOptions struct {
	Sessions ports.SessionResolver
	// Roles is consulted for lazy active role initialization and when a verified
	// cookie names a role the session no longer lists.
	Roles   ports.RoleStore
	Codec   ports.ActiveRoleCodec
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// AccessRouter decides, per request, whether to continue, set the active role
// cookie, or redirect. It holds no per-request state.
type AccessRouter struct {
	sessions ports.SessionResolver
	roles    ports.RoleStore
	codec    ports.ActiveRoleCodec
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewAccessRouter constructs an AccessRouter.
func NewAccessRouter(opts AccessRouterOptions) *AccessRouter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AccessRouter{
		sessions: opts.Sessions,
		roles:    opts.Roles,
		codec:    opts.Codec,
		logger:   logger.With("component", "access_router"),
		metrics:  opts.Metrics,
	}
}

// Decide returns the routing decision for req.
func (r *AccessRouter) Decide(ctx context.Context, req AccessRequest) access.Decision {
	return r.Evaluate(ctx, req).Decision
}

// Evaluate runs the routing rules in order and reports the decision with the
// resolved session.
func (r *AccessRouter) Evaluate(ctx context.Context, req AccessRequest) AccessResult {
	start := time.Now()
	res := r.evaluate(ctx, req)
	metrics.EmitAccessDecision(r.metrics, metrics.AccessMetric{
		Action:   res.Decision.Action.String(),
		Area:     access.Classify(req.Path).String(),
		LoggedIn: res.Session != nil,
		Duration: time.Since(start),
	})
	return res
}

func (r *AccessRouter) evaluate(ctx context.Context, req AccessRequest) AccessResult {
	sess := r.resolveSession(ctx, req.Headers)
	if sess == nil {
		return AccessResult{Decision: access.Route(access.RouteInput{Path: req.Path})}
	}

	lookup := &roleLookup{store: r.roles, userID: sess.UserID}
	active, roles := r.readActiveRole(ctx, sess, req.ActiveRoleCookie, lookup)
	if !active.IsSet() {
		if initial, stored, ok := r.lazyInit(ctx, sess, lookup); ok {
			role, _ := initial.Get()
			return AccessResult{
				Decision:   access.SetCookieAndContinue(role),
				Session:    sess,
				ActiveRole: initial,
				Roles:      stored,
			}
		}
	}

	in := access.RouteInput{Path: req.Path, LoggedIn: true, ActiveRole: active, Roles: roles}
	return AccessResult{Decision: access.Route(in), Session: sess, ActiveRole: active, Roles: roles}
}

// readActiveRole trusts the cookie only when it verifies for this user and names
// a role the user holds. The session's roles answer first; a verified cookie for
// a role the session does not list is checked against the Role Store, which is
// where lazy initialization took it from.
func (r *AccessRouter) readActiveRole(ctx context.Context, sess *domainauth.Session, raw string, lookup *roleLookup) (access.ActiveRole, []domainauth.Role) {
	if raw == "" || r.codec == nil {
		return access.Unset(), sess.Roles
	}
	role, err := r.codec.Decode(raw, sess.UserID)
	if err != nil {
		return access.Unset(), sess.Roles
	}
	if active := access.ResolveActiveRole(role.String(), sess.Roles); active.IsSet() {
		return active, sess.Roles
	}
	stored, err := lookup.load(ctx)
	if err != nil {
		return access.Unset(), sess.Roles
	}
	if active := access.ResolveActiveRole(role.String(), stored); active.IsSet() {
		return active, stored
	}
	return access.Unset(), sess.Roles
}

// lazyInit picks the initial active role from the Role Store. It fails soft:
// a store error leaves the role Unset and routing falls back to session roles.
func (r *AccessRouter) lazyInit(ctx context.Context, sess *domainauth.Session, lookup *roleLookup) (access.ActiveRole, []domainauth.Role, bool) {
	roles, err := lookup.load(ctx)
	if err != nil {
		if !errors.Is(err, errNoRoleStore) {
			metrics.EmitRoleStoreFailure(r.metrics, err)
			r.logger.WarnContext(ctx, "role lookup failed; continuing without active role",
				"user_id", sess.UserID, "error", err)
		}
		return access.Unset(), nil, false
	}
	initial := access.InitialActiveRole(roles)
	return initial, roles, initial.IsSet()
}

var errNoRoleStore = errors.New("no role store configured")

// roleLookup fetches a user's roles at most once per request.
type roleLookup struct {
	store  ports.RoleStore
	userID string
	done   bool
	roles  []domainauth.Role
	err    error
}

func (l *roleLookup) load(ctx context.Context) ([]domainauth.Role, error) {
	if l.done {
		return l.roles, l.err
	}
	l.done = true
	if l.store == nil {
		l.err = errNoRoleStore
		return nil, l.err
	}
	l.roles, l.err = l.store.RolesForUser(ctx, l.userID)
	return l.roles, l.err
}
