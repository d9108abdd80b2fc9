package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/lab-portal/internal/domain/access"
	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/domain/model"
	"github.com/target/lab-portal/internal/mocks"
	authmocks "github.com/target/lab-portal/internal/mocks/auth"
	"github.com/target/lab-portal/internal/ports"
)

type authFixture struct {
	provider  *authmocks.MockAuthProvider
	sessions  *authmocks.MemorySessionStore
	users     *mocks.MockUserRepository
	roles     *authmocks.MemoryRoleStore
	passwords *mocks.MockPasswordHasher
	svc       *AuthService
}

type invalidations []string

func (i *invalidations) Invalidate(_ context.Context, userID string) { *i = append(*i, userID) }

func newAuthFixture(t *testing.T, withProvider bool) (*authFixture, *invalidations) {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &authFixture{
		provider:  authmocks.NewMockAuthProvider(),
		sessions:  authmocks.NewMemorySessionStore(),
		users:     mocks.NewMockUserRepository(ctrl),
		roles:     authmocks.NewMemoryRoleStore(),
		passwords: mocks.NewMockPasswordHasher(ctrl),
	}
	inv := &invalidations{}
	opts := AuthServiceOptions{
		Sessions:  f.sessions,
		Mapper:    authmocks.StaticRoleMapper{AdminGroup: "lab-admins", EngineerGroup: "lab-engineers"},
		Users:     f.users,
		Roles:     f.roles,
		RoleCache: inv,
		Passwords: f.passwords,
	}
	if withProvider {
		opts.Provider = f.provider
	}
	f.svc = NewAuthService(opts)
	return f, inv
}

func hashPtr(s string) *string { return &s }

func TestAuthService_BeginLogin(t *testing.T) {
	f, _ := newAuthFixture(t, true)
	res, err := f.svc.BeginLogin(context.Background(), "http://localhost:8080/auth/callback")
	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", res.AuthURL)
	assert.Equal(t, "state-1", res.State)

	_, err = f.svc.BeginLogin(context.Background(), "")
	require.Error(t, err)

	noSSO, _ := newAuthFixture(t, false)
	_, err = noSSO.svc.BeginLogin(context.Background(), "http://x")
	require.ErrorIs(t, err, ErrProviderUnavailable)
	assert.False(t, noSSO.svc.SSOEnabled())
}

func TestAuthService_CompleteLogin_SyncsMappedRoles(t *testing.T) {
	f, inv := newAuthFixture(t, true)
	ctx := context.Background()
	user := &model.User{ID: "u1", Email: "mock.engineer@lab.example.edu"}

	f.users.EXPECT().UpsertSSO(gomock.Any(), model.UpsertSSOUserRequest{
		ExternalID: "mock-subject-1", Email: "mock.engineer@lab.example.edu", FirstName: "Mock", LastName: "Engineer",
	}).Return(user, nil)
	f.users.EXPECT().SetRoles(gomock.Any(), "u1", []domainauth.Role{domainauth.RoleEngineer}).
		DoAndReturn(func(_ context.Context, id string, roles []domainauth.Role) error {
			f.roles.Set(id, roles...)
			return nil
		})
	f.users.EXPECT().TouchLogin(gomock.Any(), "u1", gomock.Any()).Return(nil)

	sess, err := f.svc.CompleteLogin(ctx, CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, []domainauth.Role{domainauth.RoleEngineer}, sess.Roles)
	assert.Equal(t, invalidations{"u1"}, *inv)
	assert.True(t, sess.ExpiresAt.After(time.Now()))
	assert.Equal(t, 1, f.sessions.Len())
}

func TestAuthService_CompleteLogin_UnmappedGroupsKeepStoredRoles(t *testing.T) {
	f, inv := newAuthFixture(t, true)
	f.provider.DefaultUser.Groups = []string{"visitors"}
	f.roles.Set("u1", domainauth.RoleAdmin)

	f.users.EXPECT().UpsertSSO(gomock.Any(), gomock.Any()).Return(&model.User{ID: "u1"}, nil)
	f.users.EXPECT().TouchLogin(gomock.Any(), "u1", gomock.Any()).Return(nil)

	sess, err := f.svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})
	require.NoError(t, err)
	assert.Equal(t, []domainauth.Role{domainauth.RoleAdmin}, sess.Roles)
	assert.Empty(t, *inv)
}

func TestAuthService_CompleteLogin_NoRoles(t *testing.T) {
	f, _ := newAuthFixture(t, true)
	f.provider.DefaultUser.Groups = nil
	f.users.EXPECT().UpsertSSO(gomock.Any(), gomock.Any()).Return(&model.User{ID: "u9"}, nil)

	_, err := f.svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})
	require.ErrorIs(t, err, ErrNoRoles)
	assert.Equal(t, 0, f.sessions.Len())
}

func TestAuthService_CompleteLogin_Validation(t *testing.T) {
	f, _ := newAuthFixture(t, true)
	tests := []struct {
		name string
		in   CompleteLoginInput
	}{
		{"missing code", CompleteLoginInput{State: "s", Nonce: "n"}},
		{"missing state", CompleteLoginInput{Code: "c", Nonce: "n"}},
		{"missing nonce", CompleteLoginInput{Code: "c", State: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CompleteLogin(context.Background(), tt.in)
			require.Error(t, err)
		})
	}

	f.provider.ExchangeFunc = func(context.Context, ports.ExchangeInput) (domainauth.Identity, error) {
		return domainauth.Identity{}, errors.New("bad code")
	}
	_, err := f.svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})
	require.ErrorContains(t, err, "exchange authorization code")
}

func TestAuthService_LoginWithPassword(t *testing.T) {
	user := &model.User{ID: "u1", Email: "ada@lab.example.edu", PasswordHash: hashPtr("$2a$hash")}

	t.Run("success", func(t *testing.T) {
		f, _ := newAuthFixture(t, false)
		f.roles.Set("u1", domainauth.RoleAdmin, domainauth.RoleEngineer)
		f.users.EXPECT().GetByEmail(gomock.Any(), "ada@lab.example.edu").Return(user, nil)
		f.passwords.EXPECT().Compare("$2a$hash", "correct horse").Return(nil)
		f.users.EXPECT().TouchLogin(gomock.Any(), "u1", gomock.Any()).Return(nil)

		sess, err := f.svc.LoginWithPassword(context.Background(), "ada@lab.example.edu", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, []domainauth.Role{domainauth.RoleAdmin, domainauth.RoleEngineer}, sess.Roles)
		assert.NotEmpty(t, sess.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		f, _ := newAuthFixture(t, false)
		f.users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(user, nil)
		f.passwords.EXPECT().Compare(gomock.Any(), gomock.Any()).Return(errors.New("mismatch"))

		_, err := f.svc.LoginWithPassword(context.Background(), "ada@lab.example.edu", "nope-nope")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		f, _ := newAuthFixture(t, false)
		f.users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(nil, apperrors.NotFound("user not found"))

		_, err := f.svc.LoginWithPassword(context.Background(), "who@lab.example.edu", "whatever1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("sso-only account", func(t *testing.T) {
		f, _ := newAuthFixture(t, false)
		f.users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(&model.User{ID: "u2"}, nil)

		_, err := f.svc.LoginWithPassword(context.Background(), "sso@lab.example.edu", "whatever1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("empty input", func(t *testing.T) {
		f, _ := newAuthFixture(t, false)
		_, err := f.svc.LoginWithPassword(context.Background(), "", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_ResolveSession(t *testing.T) {
	f, _ := newAuthFixture(t, false)
	ctx := context.Background()
	require.NoError(t, f.sessions.Save(ctx, domainauth.Session{
		ID: "live", UserID: "u1", Roles: []domainauth.Role{domainauth.RoleAdmin}, ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, f.sessions.Save(ctx, domainauth.Session{
		ID: "old", UserID: "u1", ExpiresAt: time.Now().Add(-time.Minute),
	}))

	headers := func(id string) http.Header {
		h := http.Header{}
		if id != "" {
			h.Set("Cookie", SessionCookieName+"="+id)
		}
		return h
	}

	sess, err := f.svc.ResolveSession(ctx, headers("live"))
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "u1", sess.UserID)

	for _, id := range []string{"", "missing", "old"} {
		sess, err = f.svc.ResolveSession(ctx, headers(id))
		require.NoError(t, err, id)
		assert.Nil(t, sess, id)
	}
	// expired sessions are removed on read
	assert.Equal(t, 1, f.sessions.Len())
}

func TestAuthService_Logout(t *testing.T) {
	f, _ := newAuthFixture(t, false)
	ctx := context.Background()
	require.NoError(t, f.sessions.Save(ctx, domainauth.Session{ID: "s1", ExpiresAt: time.Now().Add(time.Hour)}))

	require.NoError(t, f.svc.Logout(ctx, "s1"))
	require.NoError(t, f.svc.Logout(ctx, ""))
	assert.Equal(t, 0, f.sessions.Len())
}

func TestAuthService_SwitchActiveRole(t *testing.T) {
	f, _ := newAuthFixture(t, false)
	f.roles.Set("u1", domainauth.RoleAdmin, domainauth.RoleEngineer)
	sess := &domainauth.Session{UserID: "u1", Roles: []domainauth.Role{domainauth.RoleAdmin, domainauth.RoleEngineer}}
	ctx := context.Background()

	role, err := f.svc.SwitchActiveRole(ctx, sess, "ENGINEER")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleEngineer, role)

	_, err = f.svc.SwitchActiveRole(ctx, sess, "SUPERUSER")
	require.ErrorIs(t, err, access.ErrRoleNotAssigned)

	// Revoked in the Role Store even though the session still lists it.
	f.roles.Set("u1", domainauth.RoleAdmin)
	_, err = f.svc.SwitchActiveRole(ctx, sess, "ENGINEER")
	require.ErrorIs(t, err, access.ErrRoleNotAssigned)

	f.roles.Err = errors.New("db down")
	_, err = f.svc.SwitchActiveRole(ctx, sess, "ADMIN")
	require.Error(t, err)

	_, err = f.svc.SwitchActiveRole(ctx, nil, "ADMIN")
	require.Error(t, err)
}
