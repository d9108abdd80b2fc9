package rolecookie

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/ports"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestCodec_RoundTrip(t *testing.T) {
	c, err := NewCodec(testSecret, 0)
	require.NoError(t, err)

	v, err := c.Encode("user-1", domainauth.RoleEngineer, time.Now())
	require.NoError(t, err)

	role, err := c.Decode(v, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleEngineer, role)
}

func TestCodec_Rejects(t *testing.T) {
	c, err := NewCodec(testSecret, time.Hour)
	require.NoError(t, err)
	other, err := NewCodec("ffffffffffffffffffffffffffffffff", time.Hour)
	require.NoError(t, err)

	valid, err := c.Encode("user-1", domainauth.RoleAdmin, time.Now())
	require.NoError(t, err)
	expired, err := c.Encode("user-1", domainauth.RoleAdmin, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	forged, err := other.Encode("user-1", domainauth.RoleAdmin, time.Now())
	require.NoError(t, err)

	unknownRole := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: "SUPERUSER",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unknown, err := unknownRole.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		value  string
		userID string
	}{
		{"raw role name", "ADMIN", "user-1"},
		{"empty", "", "user-1"},
		{"other user", valid, "user-2"},
		{"expired", expired, "user-1"},
		{"wrong key", forged, "user-1"},
		{"unknown role", unknown, "user-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decode(tt.value, tt.userID)
			assert.ErrorIs(t, err, ports.ErrInvalidActiveRole)
		})
	}
}

func TestNewCodec_ShortSecret(t *testing.T) {
	_, err := NewCodec("short", time.Hour)
	require.Error(t, err)
}

func TestCodec_EncodeValidation(t *testing.T) {
	c, err := NewCodec(testSecret, time.Hour)
	require.NoError(t, err)
	_, err = c.Encode("", domainauth.RoleAdmin, time.Now())
	require.Error(t, err)
	_, err = c.Encode("u", domainauth.Role("X"), time.Now())
	require.Error(t, err)
}
