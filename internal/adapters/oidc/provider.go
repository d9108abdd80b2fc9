package oidc

// Package oidc provides the single sign-on AuthProvider backed by the university IdP.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/ports"
)

// Provider implements ports.AuthProvider using OIDC discovery + authorization code flow.
type Provider struct {
	config    *oauth2.Config
	logoutURL string

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
	groupsClaim  string
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	LogoutURL    string
	// GroupsClaim names the claim carrying group membership. Defaults to "groups".
	GroupsClaim string
	HTTPClient  *http.Client // Optional, defaults to a 30s timeout client
}

// NewProvider creates a new OIDC provider, performing discovery once.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx := gooidc.ClientContext(context.Background(), httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	groupsClaim := config.GroupsClaim
	if groupsClaim == "" {
		groupsClaim = "groups"
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       strings.Fields(config.Scope),
			Endpoint:     op.Endpoint(),
		},
		logoutURL:    config.LogoutURL,
		oidcProvider: op,
		verifier:     op.Verifier(&gooidc.Config{ClientID: config.ClientID}),
		groupsClaim:  groupsClaim,
	}, nil
}

// LogoutURL returns the IdP end-session URL, if configured.
func (p *Provider) LogoutURL() string { return p.logoutURL }

func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	// redirect_uri stays the configured RedirectURL; the IdP matches it exactly.
	authURL := p.config.AuthCodeURL(state, gooidc.Nonce(nonce))
	return authURL, state, nonce, nil
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if in.Code == "" {
		return domainauth.Identity{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return domainauth.Identity{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	var claims map[string]any
	if slices.Contains(p.config.Scopes, gooidc.ScopeOpenID) {
		claims, err = p.idTokenClaims(ctx, token, in.Nonce)
		if err != nil {
			return domainauth.Identity{}, fmt.Errorf("extract id_token: %w", err)
		}
	}

	id := identityFromClaims(claims, p.groupsClaim)
	if id.UserID == "" || id.Email == "" {
		ui, uiErr := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(token))
		if uiErr != nil {
			return domainauth.Identity{}, fmt.Errorf("get user info: %w", uiErr)
		}
		var extra map[string]any
		if decErr := ui.Claims(&extra); decErr != nil {
			return domainauth.Identity{}, fmt.Errorf("decode user info: %w", decErr)
		}
		id = mergeIdentity(id, identityFromClaims(extra, p.groupsClaim))
	}
	if id.UserID == "" {
		return domainauth.Identity{}, errors.New("identity has no subject")
	}

	id.ExpiresAt = time.Now().Add(time.Hour)
	if !token.Expiry.IsZero() {
		id.ExpiresAt = token.Expiry
	}
	return id, nil
}

func (p *Provider) idTokenClaims(ctx context.Context, tok *oauth2.Token, expectedNonce string) (map[string]any, error) {
	rawID, ok := tok.Extra("id_token").(string)
	if !ok || rawID == "" {
		return nil, errors.New("missing id_token in token response")
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}
	if idTok.Nonce != expectedNonce {
		return nil, errors.New("invalid nonce")
	}
	var claims map[string]any
	if err := idTok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse id_token claims: %w", err)
	}
	return claims, nil
}

// identityFromClaims maps standard OIDC claims. Missing or mistyped claims are left empty.
func identityFromClaims(claims map[string]any, groupsClaim string) domainauth.Identity {
	str := func(k string) string {
		s, _ := claims[k].(string)
		return s
	}
	var groups []string
	switch g := claims[groupsClaim].(type) {
	case []any:
		for _, v := range g {
			if s, ok := v.(string); ok && s != "" {
				groups = append(groups, s)
			}
		}
	case string:
		groups = strings.Fields(g)
	}
	return domainauth.Identity{
		UserID:    str("sub"),
		Email:     str("email"),
		FirstName: str("given_name"),
		LastName:  str("family_name"),
		Groups:    groups,
	}
}

func mergeIdentity(base, extra domainauth.Identity) domainauth.Identity {
	if base.UserID == "" {
		base.UserID = extra.UserID
	}
	if base.Email == "" {
		base.Email = extra.Email
	}
	if base.FirstName == "" {
		base.FirstName = extra.FirstName
	}
	if base.LastName == "" {
		base.LastName = extra.LastName
	}
	if len(base.Groups) == 0 {
		base.Groups = extra.Groups
	}
	return base
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}
