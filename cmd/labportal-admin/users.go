package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/redis/go-redis/v9"

	"github.com/target/lab-portal/config"
	"github.com/target/lab-portal/internal/adapters/passwords"
	redisadapter "github.com/target/lab-portal/internal/adapters/redis"
	"github.com/target/lab-portal/internal/bootstrap"
	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/data"
	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/domain/model"
	"github.com/target/lab-portal/internal/service"
)

type createUserOptions struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	Roles     []domainauth.Role
}

type setRolesOptions struct {
	Email string
	Roles []domainauth.Role
}

type listUsersOptions struct {
	Limit  int
	Offset int
	Query  string
	Role   string
}

// userAdmin bundles what the user commands need; Close releases connections.
type userAdmin struct {
	users *service.UserService
	repo  *data.UserRepo
	db    *sql.DB
	redis redis.UniversalClient
}

func (u *userAdmin) Close() error { return closeInfra(u.db, u.redis) }

// openUserAdmin connects Postgres and, when configured, Redis so role changes
// also drop cached roles and revoke live sessions.
func openUserAdmin(cmdCtx *commandContext) (*userAdmin, error) {
	cfg := cmdCtx.Config
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: cmdCtx.Logger})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	client, err := maybeConnectRedis(cmdCtx.Logger, &cfg.Redis)
	if err != nil {
		if !errors.Is(err, errRedisNotConfigured) {
			return nil, errors.Join(err, closeInfra(db, nil))
		}
		cmdCtx.Logger.Info("no redis configuration detected; sessions will not be revoked")
	}

	repo := data.NewUserRepo(db)
	opts := service.UserServiceOptions{
		Repo:      repo,
		Passwords: passwords.Bcrypt{Cost: cfg.Auth.BcryptCost},
		Logger:    cmdCtx.Logger,
	}
	if client != nil {
		opts.Sessions = redisadapter.NewSessionStoreWithPrefix(client, "session:")
		if cfg.Cache.Backend == config.CacheBackendRedis {
			opts.RoleCache = core.NewCachedRoleStore(core.CachedRoleStoreOptions{
				Cache:  data.NewRedisCacheRepoWithPrefix(client, cfg.Cache.KeyPrefix),
				Store:  repo,
				TTL:    cfg.Cache.RoleTTL,
				Logger: cmdCtx.Logger,
			})
		}
	}
	svc, err := service.NewUserService(opts)
	if err != nil {
		return nil, errors.Join(err, closeInfra(db, client))
	}
	return &userAdmin{users: svc, repo: repo, db: db, redis: client}, nil
}

func withUserAdmin(cmdCtx *commandContext, f func(context.Context, *userAdmin) error) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultCommandTimeout)
	defer cancel()

	admin, err := openUserAdmin(cmdCtx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := admin.Close(); cerr != nil {
			cmdCtx.Logger.Warn("close connections failed", "error", cerr)
		}
	}()
	return f(ctx, admin)
}

func runCreateUser(cmdCtx *commandContext, args []string) error {
	opts, err := parseCreateUserFlags(args)
	if err != nil {
		return err
	}
	return withUserAdmin(cmdCtx, func(ctx context.Context, admin *userAdmin) error {
		roles := make([]string, 0, len(opts.Roles))
		for _, r := range opts.Roles {
			roles = append(roles, r.String())
		}
		u, createErr := admin.users.Create(ctx, model.CreateUserRequest{
			Email:     opts.Email,
			FirstName: opts.FirstName,
			LastName:  opts.LastName,
			Password:  opts.Password,
			Roles:     roles,
		})
		if createErr != nil {
			return fmt.Errorf("create user: %w", createErr)
		}
		return writef(os.Stdout, "created %s (%s) with roles %s\n", u.Email, u.ID, strings.Join(roles, ","))
	})
}

func runSetRoles(cmdCtx *commandContext, args []string) error {
	opts, err := parseSetRolesFlags(args)
	if err != nil {
		return err
	}
	if cmdCtx.Config.Cache.Backend == config.CacheBackendMemory {
		cmdCtx.Logger.Info("memory cache backend in use; running servers pick up the change within the role TTL",
			"role_ttl", cmdCtx.Config.Cache.RoleTTL)
	}
	return withUserAdmin(cmdCtx, func(ctx context.Context, admin *userAdmin) error {
		u, getErr := admin.repo.GetByEmail(ctx, opts.Email)
		if getErr != nil {
			return fmt.Errorf("find user %s: %w", opts.Email, getErr)
		}
		if setErr := admin.users.SetRoles(ctx, "", u.ID, opts.Roles); setErr != nil {
			return setErr
		}
		return writef(os.Stdout, "%s now has roles %s\n", u.Email, joinRoles(opts.Roles))
	})
}

func runListUsers(cmdCtx *commandContext, args []string) error {
	opts, err := parseListUsersFlags(args)
	if err != nil {
		return err
	}
	listOpts := model.UsersListOptions{Limit: opts.Limit, Offset: opts.Offset}
	if opts.Query != "" {
		listOpts.Q = &opts.Query
	}
	if opts.Role != "" {
		role, ok := domainauth.ParseRole(strings.ToUpper(opts.Role))
		if !ok {
			return fmt.Errorf("unknown role %q", opts.Role)
		}
		listOpts.Role = &role
	}
	return withUserAdmin(cmdCtx, func(ctx context.Context, admin *userAdmin) error {
		users, listErr := admin.users.List(ctx, listOpts)
		if listErr != nil {
			return fmt.Errorf("list users: %w", listErr)
		}
		return printUsers(os.Stdout, users)
	})
}

func printUsers(w io.Writer, users []*model.User) error {
	if len(users) == 0 {
		return writeln(w, "No users found.")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writeln(tw, "EMAIL\tNAME\tROLES\tLOGIN\tLAST LOGIN"); err != nil {
		return err
	}
	for _, u := range users {
		login := "sso"
		if u.HasPassword() {
			login = "password"
		}
		last := "never"
		if u.LastLoginAt != nil {
			last = u.LastLoginAt.UTC().Format("2006-01-02 15:04")
		}
		name := strings.TrimSpace(u.FirstName + " " + u.LastName)
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n", u.Email, name, joinRoles(u.Roles), login, last); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func joinRoles(roles []domainauth.Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, ",")
}

// parseRoleList parses an ordered, comma separated role list. Unlike
// domainauth.ParseRoles it rejects unknown names.
func parseRoleList(raw string) ([]domainauth.Role, error) {
	var roles []domainauth.Role
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		role, ok := domainauth.ParseRole(strings.ToUpper(part))
		if !ok {
			return nil, fmt.Errorf("unknown role %q", part)
		}
		if !slices.Contains(roles, role) {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		return nil, errors.New("--roles must name at least one of ADMIN, ENGINEER")
	}
	return roles, nil
}

// splitName splits "First Last" at the first space.
func splitName(full string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(full), " ")
	return first, strings.TrimSpace(last)
}

func parseCreateUserFlags(args []string) (createUserOptions, error) {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var email, name, password, roles string
	fs.StringVar(&email, "email", "", "Account email (required)")
	fs.StringVar(&name, "name", "", "Full name, e.g. \"Ada Lovelace\" (required)")
	fs.StringVar(&password, "password", "", "Initial password; falls back to LABPORTAL_PASSWORD")
	fs.StringVar(&roles, "roles", "ENGINEER", "Ordered roles, e.g. ADMIN,ENGINEER")

	if err := fs.Parse(args); err != nil {
		return createUserOptions{}, err
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return createUserOptions{}, errors.New("--email is required")
	}
	first, last := splitName(name)
	if first == "" {
		return createUserOptions{}, errors.New("--name is required")
	}
	if password == "" {
		password = os.Getenv("LABPORTAL_PASSWORD")
	}
	if password == "" {
		return createUserOptions{}, errors.New("--password or LABPORTAL_PASSWORD is required")
	}
	parsed, err := parseRoleList(roles)
	if err != nil {
		return createUserOptions{}, err
	}
	return createUserOptions{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Password:  password,
		Roles:     parsed,
	}, nil
}

func parseSetRolesFlags(args []string) (setRolesOptions, error) {
	fs := flag.NewFlagSet("set-roles", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var email, roles string
	fs.StringVar(&email, "email", "", "Account email (required)")
	fs.StringVar(&roles, "roles", "", "Ordered roles, e.g. ENGINEER,ADMIN (required)")

	if err := fs.Parse(args); err != nil {
		return setRolesOptions{}, err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return setRolesOptions{}, errors.New("--email is required")
	}
	parsed, err := parseRoleList(roles)
	if err != nil {
		return setRolesOptions{}, err
	}
	return setRolesOptions{Email: email, Roles: parsed}, nil
}

func parseListUsersFlags(args []string) (listUsersOptions, error) {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listUsersOptions{}
	fs.IntVar(&opts.Limit, "limit", 50, "Maximum number of users to show")
	fs.IntVar(&opts.Offset, "offset", 0, "Number of users to skip")
	fs.StringVar(&opts.Query, "q", "", "Filter by email or name substring")
	fs.StringVar(&opts.Role, "role", "", "Only users holding this role")

	if err := fs.Parse(args); err != nil {
		return listUsersOptions{}, err
	}
	if opts.Limit <= 0 || opts.Limit > 1000 {
		return listUsersOptions{}, errors.New("--limit must be between 1 and 1000")
	}
	if opts.Offset < 0 {
		return listUsersOptions{}, errors.New("--offset must be non-negative")
	}
	return opts, nil
}
