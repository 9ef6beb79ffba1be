package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - api.go: Remote user API client configuration
//   - auth.go: Authentication configuration
//   - session.go: Browser session configuration
//   - redis.go: Redis configuration (server-side sessions)
//   - http.go: HTTP server configuration
//   - logging.go: Log level and format
type AppConfig struct {
	// IsDev controls development mode behavior (hot reloading, caching, etc.)
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Logging LoggingConfig

	// Authentication configuration
	Auth AuthConfig

	// Remote API configuration
	API APIConfig `envPrefix:"API_"`

	// Session configuration
	Session SessionConfig `envPrefix:"SESSION_"`

	Redis RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Logging.Sanitize()
	c.API.Sanitize()
	c.Session.Sanitize()
	c.HTTP.Sanitize()
	c.Observability.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// This is called by Sanitize() to ensure IsDev is set correctly.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// SecureCookies reports whether session cookies must carry the Secure flag
// regardless of the request scheme. Production deployments default to secure.
func (c *AppConfig) SecureCookies() bool {
	return c.Session.SecureCookies || (!c.IsDev && strings.HasPrefix(c.HTTP.BaseURL, "https://"))
}
