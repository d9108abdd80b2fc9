// Package rolecookie signs active role cookie values as compact HS256 JWTs bound to a user.
package rolecookie

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/ports"
)

// DefaultMaxAge matches the cookie Max-Age (30 days).
const DefaultMaxAge = 30 * 24 * time.Hour

const issuer = "lab-portal"

var _ ports.ActiveRoleCodec = (*Codec)(nil)

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Codec implements ports.ActiveRoleCodec.
type Codec struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewCodec builds a codec. The secret must be at least 32 bytes.
func NewCodec(secret string, maxAge time.Duration) (*Codec, error) {
	if len(secret) < 32 {
		return nil, errors.New("active role secret must be at least 32 bytes")
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Codec{secret: []byte(secret), maxAge: maxAge, now: time.Now}, nil
}

// Encode returns the signed cookie value for (userID, role).
func (c *Codec) Encode(userID string, role domainauth.Role, now time.Time) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", role)
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
		},
	})
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign active role: %w", err)
	}
	return signed, nil
}

// Decode verifies value and returns its role. Any failure, including a token minted
// for another user, yields ports.ErrInvalidActiveRole.
func (c *Codec) Decode(value, userID string) (domainauth.Role, error) {
	if value == "" || userID == "" {
		return "", ports.ErrInvalidActiveRole
	}
	var cl claims
	_, err := jwt.ParseWithClaims(value, &cl, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithSubject(userID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ports.ErrInvalidActiveRole, err)
	}
	role, ok := domainauth.ParseRole(cl.Role)
	if !ok {
		return "", ports.ErrInvalidActiveRole
	}
	return role, nil
}
