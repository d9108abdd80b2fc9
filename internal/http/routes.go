package httpx

import (
	"log/slog"
	"net/http"
	"regexp"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/ports"
	"github.com/target/lab-portal/internal/service"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth   AuthServiceInterface
	Access AccessEvaluator
	Codec  ports.ActiveRoleCodec

	Public      *service.PublicContentService
	Contacts    *service.ContactService
	Dashboard   *service.DashboardService
	Departments *service.DepartmentService
	Newsletters *service.NewsletterService
	Projects    *service.ProjectService
	Users       *service.UserService

	HealthChecks []HealthCheck
	Cookies      CookieConfig
	// RateLimit throttles the login and contact form endpoints.
	RateLimit RateLimitConfig
	// StaticDir serves /static/ from disk when set.
	StaticDir string
	Logger    *slog.Logger
}

// NewRouter builds the mux and wraps it, outermost first, with panic
// recovery, request logging, the access router and CSRF protection.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	limiter := NewRateLimiter(services.RateLimit)

	health := &HealthHandlers{Checks: services.HealthChecks}
	mux.HandleFunc("GET /healthz", health.Live)
	mux.HandleFunc("HEAD /healthz", health.Live)
	mux.HandleFunc("GET /healthz/ready", health.Ready)

	registerAuthRoutes(mux, &AuthHandlers{
		Svc:     services.Auth,
		Codec:   services.Codec,
		Cookies: services.Cookies,
		Logger:  logger,
	}, limiter)

	registerPublicRoutes(mux, &PublicHandlers{
		Content: services.Public,
		Contact: services.Contacts,
		Logger:  logger,
	}, limiter)

	registerAdminRoutes(mux, &AdminHandlers{
		Dashboard:   services.Dashboard,
		Departments: services.Departments,
		Newsletters: services.Newsletters,
		Projects:    services.Projects,
		Logger:      logger,
	}, &UserHandlers{Users: services.Users, Contacts: services.Contacts, Logger: logger})

	registerEngineerRoutes(mux, &EngineerHandlers{
		Dashboard: services.Dashboard,
		Projects:  services.Projects,
		Logger:    logger,
	})

	if services.StaticDir != "" {
		mux.Handle("GET /static/", staticWithCacheHeaders(
			http.StripPrefix("/static/", http.FileServer(http.Dir(services.StaticDir)))))
	}
	mux.HandleFunc("/", NotFound)

	var handler http.Handler = mux
	handler = CSRFProtection(CSRFConfig{
		Cookies: services.Cookies,
		Exempt:  func(r *http.Request) bool { return r.URL.Path == "/healthz" },
	})(handler)
	handler = AccessControl(AccessControlConfig{
		Router:  services.Access,
		Codec:   services.Codec,
		Cookies: services.Cookies,
		Logger:  logger,
	})(handler)
	handler = Logging(logger)(handler)
	return Recover(logger)(handler)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, limiter *RateLimiter) {
	mux.HandleFunc("GET /auth/login", h.LoginPage)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("GET /auth/error", h.ErrorPage)

	mux.Handle("POST /api/auth/login", limiter.Middleware(http.HandlerFunc(h.PasswordLogin)))
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/status", h.Status)
	mux.Handle("POST /api/auth/active-role", RequireSession(http.HandlerFunc(h.SwitchActiveRole)))
}

func registerPublicRoutes(mux *http.ServeMux, h *PublicHandlers, limiter *RateLimiter) {
	mux.HandleFunc("GET /{$}", h.Page)
	for root := range marketingPages {
		if root == "/" {
			continue
		}
		mux.HandleFunc("GET "+root, h.Page)
		mux.HandleFunc("GET "+root+"/", h.Page)
	}

	mux.HandleFunc("GET /api/public/departments", h.Departments)
	mux.HandleFunc("GET /api/public/newsletters", h.Newsletters)
	mux.HandleFunc("GET /api/public/newsletters/{slug}", h.Newsletter)
	mux.HandleFunc("GET /api/public/projects", h.Projects)
	mux.HandleFunc("GET /api/public/projects/{slug}", h.Project)
	mux.Handle("POST /api/contact", limiter.Middleware(http.HandlerFunc(h.SubmitContact)))
}

func registerAdminRoutes(mux *http.ServeMux, h *AdminHandlers, users *UserHandlers) {
	adminOnly := RequireRole(domainauth.RoleAdmin)
	handle := func(pattern string, fn http.HandlerFunc) { mux.Handle(pattern, adminOnly(fn)) }

	handle("GET /admin", h.Home)
	handle("GET /api/admin/dashboard", h.DashboardSummary)

	registerCRUD(mux, crudRoutes{
		Base:       "/api/admin/departments",
		Create:     h.CreateDepartment,
		List:       h.ListDepartments,
		GetByID:    h.GetDepartment,
		Update:     h.UpdateDepartment,
		Delete:     h.DeleteDepartment,
		Middleware: adminOnly,
	})

	registerCRUD(mux, crudRoutes{
		Base:       "/api/admin/newsletters",
		Create:     h.CreateNewsletter,
		List:       h.ListNewsletters,
		GetByID:    h.GetNewsletter,
		Update:     h.UpdateNewsletter,
		Delete:     h.DeleteNewsletter,
		Middleware: adminOnly,
	})
	handle("POST /api/admin/newsletters/{id}/publish", h.PublishNewsletter)
	handle("POST /api/admin/newsletters/{id}/unpublish", h.UnpublishNewsletter)
	handle("PUT /api/admin/newsletters/{id}/cover", h.UploadNewsletterCover)
	handle("DELETE /api/admin/newsletters/{id}/cover", h.RemoveNewsletterCover)

	registerCRUD(mux, crudRoutes{
		Base:       "/api/admin/users",
		Create:     users.CreateUser,
		List:       users.ListUsers,
		GetByID:    users.GetUser,
		Update:     users.UpdateUser,
		Delete:     users.DeleteUser,
		Middleware: adminOnly,
	})

	handle("GET /api/admin/messages", users.ListMessages)
	handle("GET /api/admin/messages/{id}", users.GetMessage)
	handle("PUT /api/admin/messages/{id}/read", users.MarkMessage)
	handle("DELETE /api/admin/messages/{id}", users.DeleteMessage)

	handle("GET /api/admin/projects", h.ListProjects)
	handle("GET /api/admin/projects/{id}", h.GetProject)
	handle("POST /api/admin/projects/{id}/review", h.ReviewProject)
	handle("DELETE /api/admin/projects/{id}", h.DeleteProject)
}

func registerEngineerRoutes(mux *http.ServeMux, h *EngineerHandlers) {
	engineerOnly := RequireRole(domainauth.RoleEngineer)
	handle := func(pattern string, fn http.HandlerFunc) { mux.Handle(pattern, engineerOnly(fn)) }

	handle("GET /engineer", h.Home)
	registerCRUD(mux, crudRoutes{
		Base:       "/api/engineer/projects",
		Create:     h.CreateProject,
		List:       h.ListProjects,
		GetByID:    h.GetProject,
		Update:     h.UpdateProject,
		Delete:     h.DeleteProject,
		Middleware: engineerOnly,
	})
	handle("POST /api/engineer/projects/{id}/submit", h.SubmitProject)
	handle("POST /api/engineer/projects/{id}/withdraw", h.WithdrawProject)
	handle("PUT /api/engineer/projects/{id}/image", h.UploadProjectImage)
}

// crudRoutes lists the standard handlers of one resource.
type crudRoutes struct {
	Base       string
	Create     http.HandlerFunc
	List       http.HandlerFunc
	GetByID    http.HandlerFunc
	Update     http.HandlerFunc
	Delete     http.HandlerFunc
	Middleware func(http.Handler) http.Handler
}

// registerCRUD registers standard CRUD routes for a resource base path, applying mw if non-nil.
func registerCRUD(mux *http.ServeMux, cfg crudRoutes) {
	if cfg.Base == "" {
		panic("registerCRUD: Base must not be empty") //nolint:forbidigo // Fail fast during server setup.
	}
	if cfg.Create == nil || cfg.List == nil || cfg.GetByID == nil || cfg.Update == nil || cfg.Delete == nil {
		panic("registerCRUD: nil handler for base " + cfg.Base) //nolint:forbidigo // Fail fast during server setup.
	}

	wrap := func(h http.HandlerFunc) http.Handler {
		if cfg.Middleware != nil {
			return cfg.Middleware(h)
		}
		return h
	}
	mux.Handle("POST "+cfg.Base, wrap(cfg.Create))
	mux.Handle("GET "+cfg.Base, wrap(cfg.List))
	mux.Handle("GET "+cfg.Base+"/{id}", wrap(cfg.GetByID))
	mux.Handle("PUT "+cfg.Base+"/{id}", wrap(cfg.Update))
	mux.Handle("DELETE "+cfg.Base+"/{id}", wrap(cfg.Delete))
}

// hashedAssetPattern matches content-hashed filenames such as app.abc12345.js.
var hashedAssetPattern = regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

// staticWithCacheHeaders caches hashed assets for a year and nothing else.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedAssetPattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		handler.ServeHTTP(w, r)
	})
}
