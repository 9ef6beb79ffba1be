package devauth

// Package devauth provides a config-driven AuthProvider for local development.
// It stands in for Google when AUTH_MODE=mock.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"time"

	domainauth "github.com/target/userdeck/internal/domain/auth"
	"github.com/target/userdeck/internal/ports"
)

// DefaultCallbackPath is where Begin sends the browser.
const DefaultCallbackPath = "/auth/google/callback"

// Config controls the dev auth provider behavior.
type Config struct {
	Email string
	Name  string
	// AccessToken is handed to the remote API in place of a Google access token.
	AccessToken  string
	CallbackPath string
	// TokenLifetime defaults to 1h when zero.
	TokenLifetime time.Duration
}

// Provider implements ports.AuthProvider for local development.
// It short-circuits the OAuth flow by redirecting back to our own callback
// with locally generated state and nonce.
// Exchange ignores the code and returns the configured identity.
type Provider struct {
	identity     domainauth.Identity
	callbackPath string
	lifetime     time.Duration
}

var _ ports.AuthProvider = (*Provider)(nil)

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.AccessToken == "" {
		return nil, errors.New("dev auth: AccessToken is required")
	}
	callback := cfg.CallbackPath
	if callback == "" {
		callback = DefaultCallbackPath
	}
	lifetime := cfg.TokenLifetime
	if lifetime == 0 {
		lifetime = time.Hour
	}
	return &Provider{
		identity: domainauth.Identity{
			Subject:     "dev:" + cfg.Email,
			Email:       cfg.Email,
			Name:        cfg.Name,
			AccessToken: cfg.AccessToken,
		},
		callbackPath: callback,
		lifetime:     lifetime,
	}, nil
}

// Begin returns a local callback URL and cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{"code": {"dev"}, "state": {state}}
	return p.callbackPath + "?" + q.Encode(), state, nonce, nil
}

// Exchange ignores the provided code/state/nonce (validation handled by handler) and returns the dev identity.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	id := p.identity
	id.ExpiresAt = time.Now().Add(p.lifetime)
	return id, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < n {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:n], nil
}
