package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"time"

	"github.com/target/userdeck/internal/domain/model"
)

// Identity represents the principal returned by a third-party IdP (Google).
// The access token is what the remote API exchanges for its own bearer token.
type Identity struct {
	Subject     string
	Email       string
	Name        string
	AccessToken string
	ExpiresAt   time.Time // absolute expiry of the IdP access token
}

// Session is the browser session: the remote API bearer token plus a cached
// copy of the signed-in user for display.
// ID is only set when the session is stored server-side.
type Session struct {
	ID        string     `json:"id,omitempty"`
	Token     string     `json:"token"`
	User      model.User `json:"user"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Empty reports whether the session carries no token.
func (s Session) Empty() bool { return s.Token == "" }

// Expired reports whether the session has a known expiry at or before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// IsAuthenticated is true when a token is present and not expired.
func (s Session) IsAuthenticated(now time.Time) bool {
	return !s.Empty() && !s.Expired(now)
}
