package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path string
		want Area
	}{
		{"/", AreaPublic},
		{"/research", AreaPublic},
		{"/research/42", AreaPublic},
		{"/researching", AreaOther},
		{"/newsletter/spring-2025", AreaPublic},
		{"/api/public/projects", AreaPublic},
		{"/static/app.css", AreaPublic},
		{"/favicon.ico", AreaPublic},
		{"/healthz", AreaPublic},
		{"/auth/login", AreaAuth},
		{"/auth", AreaAuth},
		{"/authors", AreaOther},
		{"/admin", AreaAdmin},
		{"/admin/users", AreaAdmin},
		{"/admin/export.csv", AreaAdmin},
		{"/administrator", AreaOther},
		{"/engineer", AreaEngineer},
		{"/engineer/projects/new", AreaEngineer},
		{"/unknown", AreaOther},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.path))
		})
	}
}

func TestDecisionLocation(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "/auth/login?callbackUrl=%2Fengineer%2Fprojects%2Fnew",
		RedirectToLogin("/engineer/projects/new").Location())
	assert.Equal(t, "/admin", RedirectToPortal(domainauth.RoleAdmin).Location())
	assert.Equal(t, "/engineer", RedirectToPortal(domainauth.RoleEngineer).Location())
	assert.Equal(t, "/", RedirectHome().Location())
	assert.False(t, Continue().IsRedirect())
	assert.False(t, SetCookieAndContinue(domainauth.RoleAdmin).IsRedirect())
}

func TestActiveRoleTransitions(t *testing.T) {
	t.Parallel()
	roles := []domainauth.Role{domainauth.RoleAdmin, domainauth.RoleEngineer}

	t.Run("unknown value reads as unset", func(t *testing.T) {
		assert.False(t, ResolveActiveRole("SUPERUSER", roles).IsSet())
		assert.False(t, ResolveActiveRole("", roles).IsSet())
	})

	t.Run("revoked role reads as unset", func(t *testing.T) {
		assert.False(t, ResolveActiveRole("ADMIN", []domainauth.Role{domainauth.RoleEngineer}).IsSet())
	})

	t.Run("held role is set", func(t *testing.T) {
		r, ok := ResolveActiveRole("ENGINEER", roles).Get()
		require.True(t, ok)
		assert.Equal(t, domainauth.RoleEngineer, r)
	})

	t.Run("lazy init picks first role", func(t *testing.T) {
		r, ok := InitialActiveRole(roles).Get()
		require.True(t, ok)
		assert.Equal(t, domainauth.RoleAdmin, r)
		assert.False(t, InitialActiveRole(nil).IsSet())
	})

	t.Run("switch requires membership", func(t *testing.T) {
		a, err := Switch(domainauth.RoleEngineer, roles)
		require.NoError(t, err)
		r, _ := a.Get()
		assert.Equal(t, domainauth.RoleEngineer, r)

		_, err = Switch(domainauth.RoleAdmin, []domainauth.Role{domainauth.RoleEngineer})
		assert.ErrorIs(t, err, ErrRoleNotAssigned)
	})
}
