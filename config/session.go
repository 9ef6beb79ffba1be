package config

import (
	"fmt"
	"strings"
)

// SessionBackend selects where session state lives.
type SessionBackend string

const (
	// SessionBackendCookie keeps token and user in two browser cookies.
	SessionBackendCookie SessionBackend = "cookie"
	// SessionBackendRedis keeps token and user in Redis behind an opaque session id cookie.
	SessionBackendRedis SessionBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionBackend.
func (b *SessionBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "cookie", "redis":
		*b = SessionBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionBackend: %q (valid options: cookie, redis)", v)
	}
}

const (
	defaultSessionTTLDays = 7
	maxSessionTTLDays     = 90
	defaultSessionPrefix  = "session:"
)

// SessionConfig contains browser session configuration.
type SessionConfig struct {
	Backend SessionBackend `env:"BACKEND" envDefault:"cookie"`

	// TTLDays is the lifetime of a session in days.
	TTLDays int `env:"TTL_DAYS" envDefault:"7"`

	// SecureCookies forces the Secure attribute on session cookies.
	SecureCookies bool `env:"SECURE_COOKIES" envDefault:"false"`

	// RedisPrefix namespaces server-side session keys.
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"session:"`
}

// Sanitize applies guardrails to session configuration values.
func (c *SessionConfig) Sanitize() {
	if c.Backend == "" {
		c.Backend = SessionBackendCookie
	}
	if c.TTLDays <= 0 {
		c.TTLDays = defaultSessionTTLDays
	}
	if c.TTLDays > maxSessionTTLDays {
		c.TTLDays = maxSessionTTLDays
	}
	if strings.TrimSpace(c.RedisPrefix) == "" {
		c.RedisPrefix = defaultSessionPrefix
	}
}
