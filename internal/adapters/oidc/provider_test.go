package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/ports"
)

// newDiscoveryServer serves a minimal OIDC discovery document.
func newDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 srv.URL,
			"authorization_endpoint": "https://sso.example.edu/auth",
			"token_endpoint":         srv.URL + "/token",
			"userinfo_endpoint":      srv.URL + "/userinfo",
			"jwks_uri":               srv.URL + "/jwks",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func createTestProvider(t *testing.T) *Provider {
	t.Helper()
	srv := newDiscoveryServer(t)
	provider, err := NewProvider(ProviderConfig{
		ClientID:     "lab-portal",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		Scope:        "openid profile email groups",
		DiscoveryURL: srv.URL + "/.well-known/openid-configuration",
		LogoutURL:    "https://sso.example.edu/logout",
	})
	require.NoError(t, err)
	return provider
}

func TestNewProvider_Success(t *testing.T) {
	provider := createTestProvider(t)
	assert.Equal(t, "https://sso.example.edu/auth", provider.config.Endpoint.AuthURL)
	assert.Equal(t, "https://sso.example.edu/logout", provider.LogoutURL())
	assert.Equal(t, "groups", provider.groupsClaim)
	var _ ports.AuthProvider = provider
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config ProviderConfig
		errMsg string
	}{
		{
			name:   "missing client ID",
			config: ProviderConfig{ClientSecret: "s", RedirectURL: "http://x/cb", DiscoveryURL: "http://x"},
			errMsg: "client ID is required",
		},
		{
			name:   "missing client secret",
			config: ProviderConfig{ClientID: "c", RedirectURL: "http://x/cb", DiscoveryURL: "http://x"},
			errMsg: "client secret is required",
		},
		{
			name:   "missing redirect URL",
			config: ProviderConfig{ClientID: "c", ClientSecret: "s", DiscoveryURL: "http://x"},
			errMsg: "redirect URL is required",
		},
		{
			name:   "missing discovery URL",
			config: ProviderConfig{ClientID: "c", ClientSecret: "s", RedirectURL: "http://x/cb"},
			errMsg: "discovery URL is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProvider_Begin(t *testing.T) {
	provider := createTestProvider(t)

	authURL, state, nonce, err := provider.Begin(context.Background(), ports.BeginInput{RedirectURL: "/admin"})
	require.NoError(t, err)
	assert.Len(t, state, 32)
	assert.Len(t, nonce, 32)
	assert.Contains(t, authURL, "https://sso.example.edu/auth")
	assert.Contains(t, authURL, "client_id=lab-portal")
	assert.Contains(t, authURL, "state="+state)
	assert.Contains(t, authURL, "nonce="+nonce)

	_, _, _, err = provider.Begin(context.Background(), ports.BeginInput{})
	require.Error(t, err)
}

func TestProvider_Exchange_ValidationErrors(t *testing.T) {
	provider := createTestProvider(t)

	tests := []struct {
		name   string
		input  ports.ExchangeInput
		errMsg string
	}{
		{"missing code", ports.ExchangeInput{State: "s", Nonce: "n"}, "authorization code is required"},
		{"missing state", ports.ExchangeInput{Code: "c", Nonce: "n"}, "state is required"},
		{"missing nonce", ports.ExchangeInput{Code: "c", State: "s"}, "nonce is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := provider.Exchange(context.Background(), tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProvider_Exchange_TokenEndpointFailure(t *testing.T) {
	provider := createTestProvider(t)
	_, err := provider.Exchange(context.Background(), ports.ExchangeInput{Code: "c", State: "s", Nonce: "n"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange code for token")
}

func TestIdentityFromClaims(t *testing.T) {
	claims := map[string]any{
		"sub":         "u-123",
		"email":       "ada@lab.example.edu",
		"given_name":  "Ada",
		"family_name": "Lovelace",
		"groups":      []any{"lab-admins", 7, "lab-engineers"},
	}
	id := identityFromClaims(claims, "groups")
	assert.Equal(t, domainauth.Identity{
		UserID:    "u-123",
		Email:     "ada@lab.example.edu",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Groups:    []string{"lab-admins", "lab-engineers"},
	}, id)

	spaced := identityFromClaims(map[string]any{"roles": "a b"}, "roles")
	assert.Equal(t, []string{"a", "b"}, spaced.Groups)

	assert.Empty(t, identityFromClaims(nil, "groups").UserID)
}

func TestMergeIdentity(t *testing.T) {
	base := domainauth.Identity{UserID: "keep", Groups: []string{"x"}}
	extra := domainauth.Identity{UserID: "other", Email: "e@x", FirstName: "F", LastName: "L", Groups: []string{"y"}}
	got := mergeIdentity(base, extra)
	assert.Equal(t, "keep", got.UserID)
	assert.Equal(t, "e@x", got.Email)
	assert.Equal(t, "F", got.FirstName)
	assert.Equal(t, []string{"x"}, got.Groups)
}

func TestGenerateRandomString(t *testing.T) {
	a, err := generateRandomString(16)
	require.NoError(t, err)
	assert.Len(t, a, 16)
	b, err := generateRandomString(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	empty, err := generateRandomString(0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
