package config

import (
	"strings"
	"time"
)

const (
	minAPITimeout     = 10 * time.Second
	maxAPITimeout     = 30 * time.Second
	defaultAPITimeout = 15 * time.Second

	defaultErrorMessageExpr = "error || message"
	defaultMaxUploadBytes   = 5 << 20
)

// APIConfig configures the outbound client for the remote user API.
type APIConfig struct {
	// BaseURL is the root of the remote REST API (paths like api/users are joined onto it).
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:5000/"`

	// Timeout bounds every outbound request. Clamped to 10s-30s.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`

	// ErrorMessageExpr is a JMESPath expression that extracts a human readable
	// message from an error response body.
	ErrorMessageExpr string `env:"ERROR_MESSAGE_EXPR" envDefault:"error || message"`

	// MaxUploadBytes caps avatar uploads accepted from the browser.
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`
}

// Sanitize applies guardrails to API client configuration values.
func (c *APIConfig) Sanitize() {
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	if c.BaseURL != "" && !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}

	switch {
	case c.Timeout <= 0:
		c.Timeout = defaultAPITimeout
	case c.Timeout < minAPITimeout:
		c.Timeout = minAPITimeout
	case c.Timeout > maxAPITimeout:
		c.Timeout = maxAPITimeout
	}

	if strings.TrimSpace(c.ErrorMessageExpr) == "" {
		c.ErrorMessageExpr = defaultErrorMessageExpr
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = defaultMaxUploadBytes
	}
}
