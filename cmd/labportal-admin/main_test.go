package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/domain/model"
)

func TestCommandsRegistered(t *testing.T) {
	cmds := commands()
	for _, name := range []string{"migrate", "seed-dev", "create-user", "set-roles", "list-users", "cache-flush"} {
		c, ok := cmds[name]
		require.True(t, ok, name)
		assert.Equal(t, name, c.name)
		assert.NotNil(t, c.run)
	}
}

func TestParseRoleList(t *testing.T) {
	tests := []struct {
		raw     string
		want    []domainauth.Role
		wantErr bool
	}{
		{raw: "ADMIN", want: []domainauth.Role{domainauth.RoleAdmin}},
		{raw: "engineer, admin", want: []domainauth.Role{domainauth.RoleEngineer, domainauth.RoleAdmin}},
		{raw: "ADMIN,ADMIN,ENGINEER", want: []domainauth.Role{domainauth.RoleAdmin, domainauth.RoleEngineer}},
		{raw: "ADMIN,SUPERUSER", wantErr: true},
		{raw: " , ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseRoleList(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCreateUserFlags(t *testing.T) {
	opts, err := parseCreateUserFlags([]string{
		"--email", "ada@lab.local", "--name", "Ada King Lovelace", "--password", "long-enough", "--roles", "ENGINEER,ADMIN",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@lab.local", opts.Email)
	assert.Equal(t, "Ada", opts.FirstName)
	assert.Equal(t, "King Lovelace", opts.LastName)
	assert.Equal(t, []domainauth.Role{domainauth.RoleEngineer, domainauth.RoleAdmin}, opts.Roles)

	t.Setenv("LABPORTAL_PASSWORD", "from-env-secret")
	opts, err = parseCreateUserFlags([]string{"--email", "eli@lab.local", "--name", "Eli"})
	require.NoError(t, err)
	assert.Equal(t, "from-env-secret", opts.Password)
	assert.Equal(t, []domainauth.Role{domainauth.RoleEngineer}, opts.Roles, "defaults to ENGINEER")

	_, err = parseCreateUserFlags([]string{"--name", "Nobody", "--password", "long-enough"})
	assert.ErrorContains(t, err, "--email is required")
}

func TestParseSetRolesFlags(t *testing.T) {
	_, err := parseSetRolesFlags([]string{"--email", "ada@lab.local"})
	assert.Error(t, err)

	opts, err := parseSetRolesFlags([]string{"--email", "ada@lab.local", "--roles", "ADMIN"})
	require.NoError(t, err)
	assert.Equal(t, []domainauth.Role{domainauth.RoleAdmin}, opts.Roles)
}

func TestParseListUsersFlags(t *testing.T) {
	opts, err := parseListUsersFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, 50, opts.Limit)

	_, err = parseListUsersFlags([]string{"--limit", "0"})
	assert.Error(t, err)
	_, err = parseListUsersFlags([]string{"--offset", "-1"})
	assert.Error(t, err)
}

func TestParseTimeoutFlags(t *testing.T) {
	opts, err := parseTimeoutFlags("seed-dev", []string{"--timeout", "30s", "--allow-remote"}, true)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.True(t, opts.AllowRemote)

	_, err = parseTimeoutFlags("migrate", []string{"--allow-remote"}, false)
	assert.Error(t, err, "migrate does not accept --allow-remote")

	_, err = parseTimeoutFlags("migrate", []string{"--timeout", "0s"}, false)
	assert.Error(t, err)
}

func TestIsLikelyRemoteHost(t *testing.T) {
	tests := map[string]bool{
		"":                    false,
		"localhost":           false,
		"127.0.0.1":           false,
		"::1":                 false,
		"db.local":            false,
		"10.0.0.5":            true,
		"db.prod.example.com": true,
	}
	for host, want := range tests {
		assert.Equal(t, want, isLikelyRemoteHost(host), host)
	}
}

func TestPrintUsers(t *testing.T) {
	hash := "$2a$10$hash"
	last := time.Date(2026, 3, 4, 5, 6, 0, 0, time.UTC)
	users := []*model.User{
		{Email: "ada@lab.local", FirstName: "Ada", LastName: "Admin", PasswordHash: &hash, LastLoginAt: &last,
			Roles: []domainauth.Role{domainauth.RoleEngineer, domainauth.RoleAdmin}},
		{Email: "sso@lab.local", FirstName: "Sam", Roles: []domainauth.Role{domainauth.RoleEngineer}},
	}

	var buf bytes.Buffer
	require.NoError(t, printUsers(&buf, users))
	out := buf.String()
	assert.Contains(t, out, "ENGINEER,ADMIN")
	assert.Contains(t, out, "password")
	assert.Contains(t, out, "2026-03-04 05:06")
	assert.Contains(t, out, "never")

	buf.Reset()
	require.NoError(t, printUsers(&buf, nil))
	assert.Equal(t, "No users found.\n", buf.String())
}
