package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/domain/access"
	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/domain/model"
	"github.com/target/lab-portal/internal/observability/metrics"
	"github.com/target/lab-portal/internal/observability/statsd"
	"github.com/target/lab-portal/internal/ports"
)

// SessionCookieName carries the opaque session id.
const SessionCookieName = "session_id"

// DefaultSessionTTL applies to credentials logins and to IdP identities without an expiry.
const DefaultSessionTTL = 12 * time.Hour

var (
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNoRoles rejects accounts without any assigned role.
	ErrNoRoles = errors.New("account has no assigned roles")
	// ErrProviderUnavailable is returned by SSO operations when no IdP is configured.
	ErrProviderUnavailable = errors.New("single sign-on is not configured")

	errSessionExpired = errors.New("session expired")
)

// RoleCacheInvalidator drops cached role lookups for a user.
type RoleCacheInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	// Provider is nil in credentials mode.
	Provider  ports.AuthProvider
	Sessions  ports.SessionStore
	Mapper    ports.RoleMapper
	Users     core.UserRepository
	Roles     ports.RoleStore
	RoleCache RoleCacheInvalidator
	Passwords ports.PasswordHasher

	SessionTTL time.Duration
	Logger     *slog.Logger
	Metrics    statsd.Sink
}

// AuthService orchestrates login, session lookup, logout and role switching.
type AuthService struct {
	provider  ports.AuthProvider
	sessions  ports.SessionStore
	mapper    ports.RoleMapper
	users     core.UserRepository
	roles     ports.RoleStore
	roleCache RoleCacheInvalidator
	passwords ports.PasswordHasher

	sessionTTL time.Duration
	logger     *slog.Logger
	metrics    statsd.Sink
	now        func() time.Time
}

var _ ports.SessionResolver = (*AuthService)(nil)

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	roles := opts.Roles
	if roles == nil && opts.Users != nil {
		roles = opts.Users
	}
	return &AuthService{
		provider:   opts.Provider,
		sessions:   opts.Sessions,
		mapper:     opts.Mapper,
		users:      opts.Users,
		roles:      roles,
		roleCache:  opts.RoleCache,
		passwords:  opts.Passwords,
		sessionTTL: ttl,
		logger:     logger.With("component", "auth"),
		metrics:    opts.Metrics,
		now:        time.Now,
	}
}

// SSOEnabled reports whether an identity provider is configured.
func (s *AuthService) SSOEnabled() bool { return s.provider != nil }

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, ErrProviderUnavailable
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLogin exchanges the code for an identity, links it to a portal
// account, syncs mapped roles into the Role Store and persists a session.
// IdP groups that map to no role leave the stored roles untouched.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*domainauth.Session, error) {
	sess, err := s.completeLogin(ctx, input)
	metrics.EmitLogin(s.metrics, "sso", err)
	return sess, err
}

func (s *AuthService) completeLogin(ctx context.Context, input CompleteLoginInput) (*domainauth.Session, error) {
	if s.provider == nil {
		return nil, ErrProviderUnavailable
	}
	switch {
	case input.Code == "":
		return nil, errors.New("authorization code is required")
	case input.State == "":
		return nil, errors.New("state parameter is required")
	case input.Nonce == "":
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput(input))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	user, err := s.users.UpsertSSO(ctx, model.UpsertSSOUserRequest{
		ExternalID: identity.UserID,
		Email:      identity.Email,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
	})
	if err != nil {
		return nil, fmt.Errorf("link sso account: %w", err)
	}

	if s.mapper != nil {
		if mapped := s.mapper.Map(identity.Groups); len(mapped) > 0 {
			if setErr := s.users.SetRoles(ctx, user.ID, mapped); setErr != nil {
				return nil, fmt.Errorf("sync roles: %w", setErr)
			}
			s.invalidateRoles(ctx, user.ID)
		}
	}

	expires := identity.ExpiresAt
	if expires.IsZero() || expires.After(s.now().Add(s.sessionTTL)) {
		expires = s.now().Add(s.sessionTTL)
	}
	return s.startSession(ctx, user, expires)
}

// LoginWithPassword verifies local credentials and persists a session.
func (s *AuthService) LoginWithPassword(ctx context.Context, email, password string) (*domainauth.Session, error) {
	sess, err := s.loginWithPassword(ctx, email, password)
	metrics.EmitLogin(s.metrics, "password", err)
	return sess, err
}

func (s *AuthService) loginWithPassword(ctx context.Context, email, password string) (*domainauth.Session, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if s.passwords == nil {
		return nil, errors.New("password login is not configured")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	if cmpErr := s.passwords.Compare(*user.PasswordHash, password); cmpErr != nil {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, user, s.now().Add(s.sessionTTL))
}

// startSession snapshots the user's current roles into a new session.
func (s *AuthService) startSession(ctx context.Context, user *model.User, expires time.Time) (*domainauth.Session, error) {
	roles, err := s.roles.RolesForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	if len(roles) == 0 {
		return nil, ErrNoRoles
	}

	sess := domainauth.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Roles:     roles,
		ExpiresAt: expires,
	}
	if saveErr := s.sessions.Save(ctx, sess); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	if touchErr := s.users.TouchLogin(ctx, user.ID, s.now()); touchErr != nil {
		s.logger.WarnContext(ctx, "failed to record login time", "user_id", user.ID, "error", touchErr)
	}
	s.logger.InfoContext(ctx, "session created", "user_id", user.ID, "roles", roles)
	return &sess, nil
}

// GetSession retrieves a live session by ID.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, ports.ErrSessionNotFound
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if s.now().After(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}
	return &session, nil
}

// ResolveSession reads the session cookie from headers. Missing, unknown and
// expired sessions resolve to nil without an error.
func (s *AuthService) ResolveSession(ctx context.Context, headers http.Header) (*domainauth.Session, error) {
	c, err := (&http.Request{Header: headers}).Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return nil, nil //nolint:nilnil // logged out
	}
	sess, err := s.GetSession(ctx, c.Value)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) || errors.Is(err, errSessionExpired) {
			return nil, nil //nolint:nilnil // logged out
		}
		return nil, err
	}
	return sess, nil
}

// Logout removes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SwitchActiveRole validates target against the user's current Role Store
// roles. The caller persists the returned role in the active role cookie.
func (s *AuthService) SwitchActiveRole(ctx context.Context, sess *domainauth.Session, target string) (domainauth.Role, error) {
	if sess == nil {
		return "", errors.New("authentication required")
	}
	role, ok := domainauth.ParseRole(target)
	if !ok {
		return "", access.ErrRoleNotAssigned
	}
	roles, err := s.roles.RolesForUser(ctx, sess.UserID)
	if err != nil {
		return "", fmt.Errorf("load roles: %w", err)
	}
	active, err := access.Switch(role, roles)
	if err != nil {
		return "", err
	}
	r, _ := active.Get()
	s.logger.InfoContext(ctx, "active role switched", "user_id", sess.UserID, "role", r)
	return r, nil
}

func (s *AuthService) invalidateRoles(ctx context.Context, userID string) {
	if s.roleCache != nil {
		s.roleCache.Invalidate(ctx, userID)
	}
}
