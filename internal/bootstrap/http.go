package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/lab-portal/config"
	httpx "github.com/target/lab-portal/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
	// ErrCh receives the listener error if the server fails. Optional.
	ErrCh chan<- error
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil || cfg.Services == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler := BuildHTTPHandler(appCfg, cfg.Services, logger)
	return startServer(serverOptions{
		logger:            logger,
		handler:           handler,
		addr:              appCfg.HTTP.Addr,
		readHeaderTimeout: appCfg.HTTP.ReadHeaderTimeout,
		errCh:             cfg.ErrCh,
	})
}

// BuildHTTPHandler assembles the router. NewRouter applies recovery, request
// logging, access control and CSRF itself.
func BuildHTTPHandler(cfg *config.AppConfig, svcs *ServiceContainer, logger *slog.Logger) http.Handler {
	return httpx.NewRouter(httpx.RouterServices{
		Auth:         svcs.Auth,
		Access:       svcs.Access,
		Codec:        svcs.Codec,
		Public:       svcs.Public,
		Contacts:     svcs.Contacts,
		Dashboard:    svcs.Dashboard,
		Departments:  svcs.Departments,
		Newsletters:  svcs.Newsletters,
		Projects:     svcs.Projects,
		Users:        svcs.Users,
		HealthChecks: svcs.HealthChecks,
		Cookies: httpx.CookieConfig{
			Domain: cfg.HTTP.CookieDomain,
			Secure: cfg.HTTP.SecureCookies,
		},
		RateLimit: httpx.RateLimitConfig{
			RPS:        cfg.HTTP.ContactRateLimitRPS,
			Burst:      cfg.HTTP.ContactRateLimitBurst,
			TrustProxy: cfg.HTTP.TrustProxy,
		},
		StaticDir: cfg.HTTP.StaticDir,
		Logger:    logger,
	})
}

type serverOptions struct {
	logger            *slog.Logger
	handler           http.Handler
	addr              string
	readHeaderTimeout time.Duration
	errCh             chan<- error
}

func startServer(opts serverOptions) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	addr := opts.addr
	if addr == "" {
		addr = ":8080"
	}
	readHeader := opts.readHeaderTimeout
	if readHeader <= 0 {
		readHeader = 10 * time.Second
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           opts.handler,
		ReadHeaderTimeout: readHeader,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		opts.logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			opts.logger.Error("HTTP server failed", "error", err)
			if opts.errCh != nil {
				opts.errCh <- err
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	// Timeout bounds the drain; zero means 30s.
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
