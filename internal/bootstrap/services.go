package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/lab-portal/config"
	"github.com/target/lab-portal/internal/adapters/passwords"
	redisadapter "github.com/target/lab-portal/internal/adapters/redis"
	"github.com/target/lab-portal/internal/adapters/rolecookie"
	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/data"
	httpx "github.com/target/lab-portal/internal/http"
	"github.com/target/lab-portal/internal/observability/statsd"
	"github.com/target/lab-portal/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth   *service.AuthService
	Access *service.AccessRouter
	Codec  *rolecookie.Codec

	Public      *service.PublicContentService
	Contacts    *service.ContactService
	Dashboard   *service.DashboardService
	Departments *service.DepartmentService
	Newsletters *service.NewsletterService
	Projects    *service.ProjectService
	Users       *service.UserService

	Cache        core.CacheRepository
	Metrics      statsd.Sink
	HealthChecks []httpx.HealthCheck

	closeCache func() error
}

// Close releases resources owned by the container (the memory cache sweeper).
func (c *ServiceContainer) Close() error {
	if c.closeCache == nil {
		return nil
	}
	return c.closeCache()
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports; no business rules here.
type serviceRepositories struct {
	Users       *data.UserRepo
	Departments *data.DepartmentRepo
	Newsletters *data.NewsletterRepo
	Projects    *data.ProjectRepo
	Contacts    *data.ContactRepo
}

func buildRepositories(db *sql.DB) serviceRepositories {
	return serviceRepositories{
		Users:       data.NewUserRepo(db),
		Departments: data.NewDepartmentRepo(db),
		Newsletters: data.NewNewsletterRepo(db),
		Projects:    data.NewProjectRepo(db),
		Contacts:    data.NewContactRepo(db),
	}
}

// NewServices wires repositories, adapters and services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps require config")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("service deps require a database")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repos := buildRepositories(deps.DB)
	metrics := BuildMetricsSink(cfg.Observability.Metrics, logger)

	cache, err := BuildCache(cfg.Cache, deps.RedisClient, logger)
	if err != nil {
		return ServiceContainer{}, err
	}
	// Close the cache if any later step fails.
	ok := false
	defer func() {
		if !ok {
			_ = cache.Close()
		}
	}()

	codec, err := BuildCodec(cfg.Auth, cfg.IsDev, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	roles := core.NewCachedRoleStore(core.CachedRoleStoreOptions{
		Cache:   cache.Repo,
		Store:   repos.Users,
		TTL:     cfg.Cache.RoleTTL,
		Logger:  logger,
		Metrics: metrics,
	})

	auth, err := BuildAuthService(AuthConfig{
		Auth:        cfg.Auth,
		RedisClient: deps.RedisClient,
		Users:       repos.Users,
		Roles:       roles,
		Metrics:     metrics,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("auth service: %w", err)
	}

	access := service.NewAccessRouter(service.AccessRouterOptions{
		Sessions: auth,
		Roles:    roles,
		Codec:    codec,
		Logger:   logger.With("component", "access_router"),
		Metrics:  metrics,
	})

	container, err := buildDomainServices(domainServicesOptions{
		Config:  cfg,
		Repos:   repos,
		Cache:   cache.Repo,
		Roles:   roles,
		Redis:   deps.RedisClient,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	container.Auth = auth
	container.Access = access
	container.Codec = codec
	container.Cache = cache.Repo
	container.Metrics = metrics
	container.closeCache = cache.Close
	container.HealthChecks = buildHealthChecks(deps.DB, deps.RedisClient, cache.Repo)

	ok = true
	return container, nil
}

type domainServicesOptions struct {
	Config  *config.AppConfig
	Repos   serviceRepositories
	Cache   core.CacheRepository
	Roles   *core.CachedRoleStore
	Redis   redis.UniversalClient
	Logger  *slog.Logger
	Metrics statsd.Sink
}

func buildDomainServices(opts domainServicesOptions) (ServiceContainer, error) {
	cfg := opts.Config
	logger := opts.Logger
	uploader := BuildMediaUploader(cfg.Media, logger)

	public, err := service.NewPublicContentService(service.PublicContentServiceOptions{
		Departments: opts.Repos.Departments,
		Newsletters: opts.Repos.Newsletters,
		Projects:    opts.Repos.Projects,
		Cache:       opts.Cache,
		TTL:         cfg.Cache.ContentTTL,
		Logger:      logger.With("component", "public_content"),
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("public content service: %w", err)
	}

	contacts, err := service.NewContactService(service.ContactServiceOptions{
		Repo:     opts.Repos.Contacts,
		Notifier: BuildNotifier(cfg, logger),
		Logger:   logger.With("component", "contact"),
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("contact service: %w", err)
	}

	dashboard, err := service.NewDashboardService(service.DashboardServiceOptions{
		Users:       opts.Repos.Users,
		Departments: opts.Repos.Departments,
		Newsletters: opts.Repos.Newsletters,
		Projects:    opts.Repos.Projects,
		Contacts:    opts.Repos.Contacts,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("dashboard service: %w", err)
	}

	departments, err := service.NewDepartmentService(service.DepartmentServiceOptions{
		Repo:   opts.Repos.Departments,
		Public: public,
		Logger: logger.With("component", "departments"),
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("department service: %w", err)
	}

	newsletters, err := service.NewNewsletterService(service.NewsletterServiceOptions{
		Repo:   opts.Repos.Newsletters,
		Media:  uploader,
		Public: public,
		Logger: logger.With("component", "newsletters"),
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("newsletter service: %w", err)
	}

	projects, err := service.NewProjectService(service.ProjectServiceOptions{
		Repo:   opts.Repos.Projects,
		Media:  uploader,
		Public: public,
		Logger: logger.With("component", "projects"),
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("project service: %w", err)
	}

	userOpts := service.UserServiceOptions{
		Repo:      opts.Repos.Users,
		Passwords: passwords.Bcrypt{Cost: cfg.Auth.BcryptCost},
		RoleCache: opts.Roles,
		Logger:    logger.With("component", "users"),
		Metrics:   opts.Metrics,
	}
	if opts.Redis != nil {
		userOpts.Sessions = redisadapter.NewSessionStoreWithPrefix(opts.Redis, sessionKeyPrefix)
	}
	users, err := service.NewUserService(userOpts)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("user service: %w", err)
	}

	return ServiceContainer{
		Public:      public,
		Contacts:    contacts,
		Dashboard:   dashboard,
		Departments: departments,
		Newsletters: newsletters,
		Projects:    projects,
		Users:       users,
	}, nil
}

func buildHealthChecks(db *sql.DB, client redis.UniversalClient, cache core.CacheRepository) []httpx.HealthCheck {
	checks := []httpx.HealthCheck{
		{Name: "postgres", Check: db.PingContext},
	}
	if client != nil {
		checks = append(checks, httpx.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	}
	if cache != nil {
		checks = append(checks, httpx.HealthCheck{Name: "cache", Check: cache.Health})
	}
	return checks
}

// ServiceOrchestrationConfig contains configuration for running the server.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts the HTTP server and blocks until SIGINT,
// SIGTERM or a server failure, then shuts down gracefully.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil || cfg.Services == nil {
		return errors.New("service orchestration config missing AppConfig or services")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	server := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
		ErrCh:    errCh,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return waitForShutdown(shutdownConfig{
		quit:     quit,
		errCh:    errCh,
		server:   server,
		services: cfg.Services,
		timeout:  cfg.Config.HTTP.ShutdownTimeout,
		logger:   logger,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	quit     <-chan os.Signal
	errCh    <-chan error
	server   *http.Server
	services *ServiceContainer
	timeout  time.Duration
	logger   *slog.Logger
}

// waitForShutdown waits for shutdown signal or server error.
func waitForShutdown(cfg shutdownConfig) error {
	select {
	case <-cfg.quit:
		cfg.logger.Info("shutting down services...")
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop drains the HTTP server, then releases the cache.
func gracefulStop(cfg shutdownConfig) error {
	var errs []error
	if err := ShutdownHTTPServer(ShutdownConfig{
		Context: context.Background(),
		Server:  cfg.server,
		Timeout: cfg.timeout,
		Logger:  cfg.logger,
	}); err != nil {
		errs = append(errs, err)
	}
	if cfg.services != nil {
		if err := cfg.services.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	return errors.Join(errs...)
}
