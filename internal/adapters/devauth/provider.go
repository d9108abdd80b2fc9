package devauth

// Package devauth provides a config-driven AuthProvider for local development (AUTH_MODE=mock).

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/ports"
)

// CallbackPath is the local callback the dev flow redirects to.
const CallbackPath = "/auth/callback"

// Config controls the dev auth provider behavior.
// UserID and Email are required. Groups feed the role mapper exactly as IdP groups would.
type Config struct {
	UserID          string
	Email           string
	FirstName       string
	LastName        string
	Groups          []string
	SessionDuration time.Duration // default 8h when zero
}

// Provider short-circuits the SSO flow by redirecting straight back to our own
// callback with locally generated state. Exchange ignores the code.
type Provider struct {
	cfg Config
	now func() time.Time
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = 8 * time.Hour
	}
	cfg.Groups = append([]string(nil), cfg.Groups...)
	return &Provider{cfg: cfg, now: time.Now}, nil
}

// Begin returns a local callback URL plus random state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomToken()
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken()
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	return CallbackPath + "?code=dev&state=" + state, state, nonce, nil
}

// Exchange returns the configured identity with a fresh expiry.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	return domainauth.Identity{
		UserID:    p.cfg.UserID,
		Email:     p.cfg.Email,
		FirstName: p.cfg.FirstName,
		LastName:  p.cfg.LastName,
		Groups:    append([]string(nil), p.cfg.Groups...),
		ExpiresAt: p.now().Add(p.cfg.SessionDuration),
	}, nil
}

func randomToken() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
