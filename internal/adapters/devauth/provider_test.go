package devauth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/lab-portal/internal/ports"
)

func TestProvider_BeginAndExchange(t *testing.T) {
	prov, err := NewProvider(Config{
		UserID: "dev-user",
		Email:  "dev@lab.example.edu",
		Groups: []string{"lab-engineers"},
	})
	require.NoError(t, err)

	url, state, nonce, err := prov.Begin(context.Background(), ports.BeginInput{RedirectURL: "/"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/auth/callback?code=dev&state="), url)
	assert.Contains(t, url, state)
	assert.NotEmpty(t, nonce)
	assert.NotEqual(t, state, nonce)

	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	prov.now = func() time.Time { return fixed }

	id, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: "dev", State: state, Nonce: nonce})
	require.NoError(t, err)
	assert.Equal(t, "dev-user", id.UserID)
	assert.Equal(t, "dev@lab.example.edu", id.Email)
	assert.Equal(t, []string{"lab-engineers"}, id.Groups)
	assert.Equal(t, fixed.Add(8*time.Hour), id.ExpiresAt)
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(Config{Email: "x@y"})
	require.Error(t, err)
	_, err = NewProvider(Config{UserID: "u"})
	require.Error(t, err)
}
