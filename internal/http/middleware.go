package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/target/lab-portal/internal/domain/access"
	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/ports"
	"github.com/target/lab-portal/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// AccessEvaluator decides how a request is routed before any handler runs.
type AccessEvaluator interface {
	Evaluate(ctx context.Context, req service.AccessRequest) service.AccessResult
}

// AccessControlConfig groups dependencies for AccessControl.
type AccessControlConfig struct {
	Router  AccessEvaluator
	Codec   ports.ActiveRoleCodec
	Cookies CookieConfig
	Logger  *slog.Logger
}

// AccessControl runs the access router on every request. Redirect decisions end
// the request with 303 See Other; SetCookieAndContinue writes the signed
// active_role cookie before the handler runs. The resolved session and active
// role are placed in the request context.
func AccessControl(cfg AccessControlConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := cfg.Router.Evaluate(r.Context(), service.AccessRequest{
				Path:             r.URL.Path,
				Headers:          r.Header,
				ActiveRoleCookie: cookieValue(r, access.CookieName),
			})

			if loc := res.Decision.Location(); loc != "" {
				http.Redirect(w, r, loc, http.StatusSeeOther)
				return
			}

			if res.Decision.Action == access.ActionSetCookieAndContinue && res.Session != nil {
				value, err := cfg.Codec.Encode(res.Session.UserID, res.Decision.Role, time.Now())
				if err != nil {
					// The next request retries the initialization.
					logger.WarnContext(r.Context(), "failed to encode active role cookie",
						"user_id", res.Session.UserID, "error", err)
				} else {
					cfg.Cookies.setActiveRole(w, r, value)
				}
			}

			ctx := SetSessionInContext(r.Context(), res.Session)
			ctx = setActiveRoleInContext(ctx, res.ActiveRole)
			ctx = setRolesInContext(ctx, res.Roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests without a resolved session with 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetSessionFromContext(r.Context()) == nil {
			writeAuthRequired(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole re-verifies that the caller holds role, using the same role list
// the access router decided against. It relies on AccessControl having resolved
// the session.
func RequireRole(role domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := GetSessionFromContext(r.Context())
			if session == nil {
				writeAuthRequired(w)
				return
			}
			if !holdsRole(r.Context(), session, role) {
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func holdsRole(ctx context.Context, session *domainauth.Session, role domainauth.Role) bool {
	if roles, ok := RolesFromContext(ctx); ok {
		return slices.Contains(roles, role)
	}
	return session.HasRole(role)
}

func writeAuthRequired(w http.ResponseWriter) {
	WriteError(w, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: "authentication_required",
		Err:     errors.New("authentication required"),
	})
}

// RateLimitConfig configures per-client request throttling.
type RateLimitConfig struct {
	// RPS is the sustained rate per client; zero disables limiting.
	RPS   float64
	Burst int
	// EntryTTL controls idle limiter eviction.
	EntryTTL time.Duration
	// TrustProxy keys clients by the first X-Forwarded-For address.
	TrustProxy bool
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP.
type RateLimiter struct {
	cfg RateLimitConfig

	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter builds a RateLimiter, applying defaults for Burst and EntryTTL.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, int(cfg.RPS))
	}
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = 10 * time.Minute
	}
	return &RateLimiter{cfg: cfg, entries: make(map[string]*limiterEntry), now: time.Now}
}

// Allow reports whether the client identified by key may proceed.
func (l *RateLimiter) Allow(key string) bool {
	if l == nil || l.cfg.RPS <= 0 {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) > l.cfg.EntryTTL {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) > l.cfg.EntryTTL {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Middleware answers 429 once a client exceeds its budget.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(l.clientKey(r)) {
			retry := 1
			if l.cfg.RPS > 0 {
				retry = max(1, int(1/l.cfg.RPS))
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			WriteError(w, ErrorParams{
				Code:    http.StatusTooManyRequests,
				ErrCode: "rate_limited",
				Err:     errors.New("too many requests"),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) clientKey(r *http.Request) string {
	if l.cfg.TrustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
