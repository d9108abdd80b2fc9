package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/target/lab-portal/internal/core"
	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/domain/model"
	apperrors "github.com/target/lab-portal/internal/errors"
	"github.com/target/lab-portal/internal/observability/metrics"
	"github.com/target/lab-portal/internal/observability/statsd"
	"github.com/target/lab-portal/internal/ports"
)

// UserServiceOptions groups dependencies for UserService.
type UserServiceOptions struct {
	Repo      core.UserRepository  // Required
	Passwords ports.PasswordHasher // Required for local passwords
	// RoleCache and Sessions are notified when a user's roles change.
	RoleCache RoleCacheInvalidator
	Sessions  ports.SessionRevoker
	Logger    *slog.Logger
	Metrics   statsd.Sink
}

// UserService administers portal accounts and their ordered roles.
type UserService struct {
	repo      core.UserRepository
	passwords ports.PasswordHasher
	roleCache RoleCacheInvalidator
	sessions  ports.SessionRevoker
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewUserService constructs a new UserService.
func NewUserService(opts UserServiceOptions) (*UserService, error) {
	if opts.Repo == nil {
		return nil, errors.New("UserRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		repo:      opts.Repo,
		passwords: opts.Passwords,
		roleCache: opts.RoleCache,
		sessions:  opts.Sessions,
		logger:    logger.With("component", "user_service"),
		metrics:   opts.Metrics,
	}, nil
}

// Create adds an account. An empty password makes it SSO-only.
func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Create(ctx, req, hash)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.InfoContext(ctx, "user created", "user_id", u.ID, "roles", u.Roles)
	return u, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error) {
	return s.repo.List(ctx, opts)
}

// Update changes profile fields, the password, or the role set. actorID is the
// admin making the change; admins cannot drop their own ADMIN role.
func (s *UserService) Update(ctx context.Context, actorID, id string, req model.UpdateUserRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	params := core.UpdateUserParams{FirstName: req.FirstName, LastName: req.LastName}
	if req.Password != nil {
		hash, err := s.hash(*req.Password)
		if err != nil {
			return nil, err
		}
		params.PasswordHash = hash
	}

	var u *model.User
	var err error
	if params.FirstName != nil || params.LastName != nil || params.PasswordHash != nil {
		if u, err = s.repo.Update(ctx, id, params); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}

	if req.Roles != nil {
		roles := domainauth.ParseRoles(strings.Join(req.Roles, ","))
		if err = s.SetRoles(ctx, actorID, id, roles); err != nil {
			return nil, err
		}
		u = nil
	}

	if u == nil {
		return s.repo.GetByID(ctx, id)
	}
	return u, nil
}

// SetRoles replaces the ordered roles of id. Cached roles and live sessions of
// the user are dropped so the change applies on the next request.
func (s *UserService) SetRoles(ctx context.Context, actorID, id string, roles []domainauth.Role) error {
	if len(roles) == 0 {
		return apperrors.ValidationField("roles", "a user must keep at least one role")
	}
	if actorID != "" && actorID == id && !slices.Contains(roles, domainauth.RoleAdmin) {
		return apperrors.ValidationField("roles", "you cannot remove your own ADMIN role")
	}
	if err := s.repo.SetRoles(ctx, id, roles); err != nil {
		return fmt.Errorf("set roles: %w", err)
	}
	s.logger.InfoContext(ctx, "user roles changed", "user_id", id, "roles", roles, "actor_id", actorID)
	return s.afterRoleChange(ctx, id)
}

// Delete removes an account. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actorID, id string) (bool, error) {
	if actorID != "" && actorID == id {
		return false, apperrors.Validation("you cannot delete your own account")
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	if ok {
		if err := s.afterRoleChange(ctx, id); err != nil {
			return true, err
		}
	}
	return ok, nil
}

// ErrSessionsNotRevoked reports a saved role change whose live sessions could
// not be dropped. Retrying the change is safe.
var ErrSessionsNotRevoked = errors.New("role change saved but sessions were not revoked")

func (s *UserService) afterRoleChange(ctx context.Context, id string) error {
	if s.roleCache != nil {
		s.roleCache.Invalidate(ctx, id)
	}
	if s.sessions == nil {
		return nil
	}
	if err := s.sessions.DeleteForUser(ctx, id); err != nil {
		metrics.EmitSessionRevokeFailure(s.metrics, err)
		s.logger.ErrorContext(ctx, "failed to revoke sessions", "user_id", id, "error", err)
		return fmt.Errorf("%w: %w", ErrSessionsNotRevoked, err)
	}
	return nil
}

func (s *UserService) hash(password string) (*string, error) {
	if password == "" {
		return nil, nil //nolint:nilnil // no password
	}
	if s.passwords == nil {
		return nil, errors.New("password hashing is not configured")
	}
	h, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperrors.ValidationField("password", err.Error())
	}
	return &h, nil
}
