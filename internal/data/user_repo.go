package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/data/database"
	"github.com/target/lab-portal/internal/data/pgxutil"
	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/domain/model"
	apperrors "github.com/target/lab-portal/internal/errors"
)

var _ core.UserRepository = (*UserRepo)(nil)

// UserRepo provides database operations for users and their ordered roles.
// It is also the authoritative role store.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo with real time provider.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a UserRepo with a custom time provider.
func NewUserRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: tp}
}

const userColumnList = `id, email, first_name, last_name, password_hash, external_id, last_login_at, created_at, updated_at`

func userColumns() []string {
	return strings.Split(strings.ReplaceAll(userColumnList, " ", ""), ",")
}

const insertRolesQuery = `
	INSERT INTO user_roles (user_id, role, position)
	SELECT $1, t.role, t.ord - 1
	FROM unnest($2::text[]) WITH ORDINALITY AS t(role, ord)`

// Create inserts a user together with its ordered roles.
func (r *UserRepo) Create(
	ctx context.Context,
	req model.CreateUserRequest,
	passwordHash *string,
) (*model.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	roles := req.ParsedRoles()
	if len(roles) == 0 {
		return nil, apperrors.ValidationField("roles", "at least one role is required")
	}

	now := r.timeProvider.Now().UTC()
	var out *model.User
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		u, err := collectOne[model.User](ctx, tx, `
			INSERT INTO users (email, first_name, last_name, password_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			RETURNING `+userColumnList,
			req.Email, req.FirstName, req.LastName, passwordHash, now,
		)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertRolesQuery, u.ID, roleNames(roles)); err != nil {
			return err
		}
		u.Roles = roles
		out = u
		return nil
	}})
	if err != nil {
		return nil, mapUserWriteErr(err)
	}
	return out, nil
}

// GetByID retrieves a user and its roles by ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if !validID(id) {
		return nil, ErrUserNotFound
	}
	return r.getWithRoles(ctx, `SELECT `+userColumnList+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user by case-insensitive email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrUserNotFound
	}
	return r.getWithRoles(ctx, `SELECT `+userColumnList+` FROM users WHERE email = $1`, email)
}

func (r *UserRepo) getWithRoles(ctx context.Context, query string, arg any) (*model.User, error) {
	var out *model.User
	// One snapshot so the roles belong to the row just read.
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Isolation: pgx.RepeatableRead,
		ReadOnly:  true,
		Fn: func(tx pgx.Tx) error {
			u, err := collectOne[model.User](ctx, tx, query, arg)
			if err != nil {
				return err
			}
			u.Roles, err = rolesFor(ctx, tx, u.ID)
			out = u
			return err
		},
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// UpsertSSO links an IdP subject to an account. An existing local account with
// the same email and no external id is claimed rather than duplicated.
func (r *UserRepo) UpsertSSO(ctx context.Context, req model.UpsertSSOUserRequest) (*model.User, error) {
	if strings.TrimSpace(req.ExternalID) == "" {
		return nil, apperrors.ValidationField("external_id", "external id is required")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, apperrors.ValidationField("email", "email is required")
	}

	now := r.timeProvider.Now().UTC()
	var out *model.User
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		u, err := collectOne[model.User](ctx, tx, `
			UPDATE users
			SET external_id = $1, email = $2,
			    first_name = COALESCE(NULLIF($3::text, ''), first_name),
			    last_name = COALESCE(NULLIF($4::text, ''), last_name),
			    updated_at = $5
			WHERE id = (
				SELECT id FROM users
				WHERE external_id = $1 OR (external_id IS NULL AND email = $2)
				ORDER BY (external_id = $1) DESC NULLS LAST
				LIMIT 1
			)
			RETURNING `+userColumnList,
			req.ExternalID, email, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), now,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			u, err = collectOne[model.User](ctx, tx, `
				INSERT INTO users (email, first_name, last_name, external_id, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $5)
				RETURNING `+userColumnList,
				email, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), req.ExternalID, now,
			)
		}
		if err != nil {
			return err
		}
		u.Roles, err = rolesFor(ctx, tx, u.ID)
		out = u
		return err
	}})
	if err != nil {
		return nil, mapUserWriteErr(err)
	}
	return out, nil
}

// List retrieves users with optional filters, newest first.
func (r *UserRepo) List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error) {
	limit, offset := clampPage(opts.Limit, opts.Offset)
	queryOpts := []database.ListQueryOption{
		database.WithColumns(userColumns()...),
		database.WithOrderBy("created_at", sortDirDesc),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}
	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		queryOpts = append(queryOpts, database.WithCondition(database.WhereRawCond(
			"(email ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1)",
			"%"+strings.TrimSpace(*opts.Q)+"%",
		)))
	}
	if opts.Role != nil {
		queryOpts = append(queryOpts, database.WithCondition(database.WhereRawCond(
			"EXISTS (SELECT 1 FROM user_roles ur WHERE ur.user_id = users.id AND ur.role = $1)",
			string(*opts.Role),
		)))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("users", queryOpts...))

	var out []*model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		users, err := collectAll[model.User](ctx, conn, query, args...)
		if err != nil {
			return err
		}
		out = users
		return attachRoles(ctx, conn, users)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return out, nil
}

// Update changes profile fields and/or the password hash.
func (r *UserRepo) Update(ctx context.Context, id string, params core.UpdateUserParams) (*model.User, error) {
	if !validID(id) {
		return nil, ErrUserNotFound
	}
	setParts := make([]string, 0, 4)
	args := make([]any, 0, 5)
	add := func(col string, v any) {
		args = append(args, v)
		setParts = append(setParts, col+" = $"+strconv.Itoa(len(args)))
	}
	if params.FirstName != nil {
		add("first_name", strings.TrimSpace(*params.FirstName))
	}
	if params.LastName != nil {
		add("last_name", strings.TrimSpace(*params.LastName))
	}
	if params.PasswordHash != nil {
		add("password_hash", *params.PasswordHash)
	}
	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}
	add("updated_at", r.timeProvider.Now().UTC())
	args = append(args, id)
	query := "UPDATE users SET " + strings.Join(setParts, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) + " RETURNING " + userColumnList

	var out *model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		u, err := collectOne[model.User](ctx, conn, query, args...)
		if err != nil {
			return err
		}
		u.Roles, err = rolesFor(ctx, conn, u.ID)
		out = u
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, mapUserWriteErr(err)
	}
	return out, nil
}

// SetRoles replaces the user's role set. Order is preserved; the first role is
// the default active role.
func (r *UserRepo) SetRoles(ctx context.Context, userID string, roles []domainauth.Role) error {
	if !validID(userID) {
		return ErrUserNotFound
	}
	if len(roles) == 0 {
		return apperrors.ValidationField("roles", "a user must keep at least one role")
	}
	for _, role := range roles {
		if !role.Valid() {
			return apperrors.ValidationField("roles", "unknown role "+strconv.Quote(string(role)))
		}
	}

	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertRolesQuery, userID, roleNames(roles)); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE users SET updated_at = $2 WHERE id = $1`, userID, r.timeProvider.Now().UTC())
		return err
	}})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to set roles: %w", apperrors.MapDBError(err))
	}
	return nil
}

// RolesForUser returns the user's roles ordered by position. Unknown users have none.
func (r *UserRepo) RolesForUser(ctx context.Context, userID string) ([]domainauth.Role, error) {
	if !validID(userID) {
		return nil, nil
	}
	var roles []domainauth.Role
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var e error
		roles, e = rolesFor(ctx, conn, userID)
		return e
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	return roles, nil
}

// TouchLogin records a successful login.
func (r *UserRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	if !validID(id) {
		return ErrUserNotFound
	}
	n, err := execAffected(ctx, r.DB, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete deletes a user by ID. Roles cascade.
func (r *UserRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	n, err := execAffected(ctx, r.DB, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", apperrors.MapDBError(err))
	}
	return n > 0, nil
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	n, err := countRows(ctx, r.DB, `SELECT COUNT(*) FROM users`)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// --- helpers ---

func rolesFor(ctx context.Context, q queryer, userID string) ([]domainauth.Role, error) {
	rows, err := q.Query(ctx, `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY position`, userID)
	if err != nil {
		return nil, err
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return parseRoleNames(names), nil
}

type userRoleRow struct {
	UserID string `db:"user_id"`
	Role   string `db:"role"`
}

func attachRoles(ctx context.Context, q queryer, users []*model.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, len(users))
	byID := make(map[string]*model.User, len(users))
	for i, u := range users {
		ids[i] = u.ID
		byID[u.ID] = u
	}
	rows, err := collectAll[userRoleRow](ctx, q,
		`SELECT user_id, role FROM user_roles WHERE user_id = ANY($1) ORDER BY user_id, position`, ids)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if u, ok := byID[row.UserID]; ok {
			if role, ok := domainauth.ParseRole(row.Role); ok {
				u.Roles = append(u.Roles, role)
			}
		}
	}
	return nil
}

func parseRoleNames(names []string) []domainauth.Role {
	var roles []domainauth.Role
	for _, n := range names {
		if role, ok := domainauth.ParseRole(n); ok {
			roles = append(roles, role)
		}
	}
	return roles
}

func roleNames(roles []domainauth.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func mapUserWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == "users_email_key" {
		return ErrUserEmailExists
	}
	return apperrors.MapDBError(err)
}
