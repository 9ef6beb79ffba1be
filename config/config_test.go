package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_ParseAuthEnv(t *testing.T) {
	t.Setenv("AUTH_MODE", "oauth")
	t.Setenv("OAUTH_CLIENT_ID", "app-client")
	t.Setenv("OAUTH_CLIENT_SECRET", "super-secret")
	t.Setenv("OAUTH_REDIRECT_URL", "https://app.example.com/auth/google/callback")
	t.Setenv("OAUTH_DISCOVERY_URL", "https://accounts.google.com/.well-known/openid-configuration")
	t.Setenv("OAUTH_SCOPE", "openid email")
	t.Setenv("DEV_AUTH_EMAIL", "dev@example.com")
	t.Setenv("DEV_AUTH_NAME", "Dev")
	t.Setenv("DEV_AUTH_ACCESS_TOKEN", "tok")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	expected := AuthConfig{
		Mode: AuthModeOAuth,
		OAuth: OAuthConfig{
			ClientID:     "app-client",
			ClientSecret: "super-secret",
			RedirectURL:  "https://app.example.com/auth/google/callback",
			Scope:        "openid email",
			DiscoveryURL: "https://accounts.google.com/.well-known/openid-configuration",
		},
		DevAuth: DevAuthConfig{
			Email:       "dev@example.com",
			Name:        "Dev",
			AccessToken: "tok",
		},
	}

	if !reflect.DeepEqual(cfg.Auth, expected) {
		t.Fatalf("unexpected auth configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Auth)
	}
	if !cfg.Auth.OAuth.Enabled() {
		t.Fatalf("expected oauth to be enabled with a client id")
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.API.BaseURL != "http://localhost:5000/" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("API.Timeout = %v", cfg.API.Timeout)
	}
	if cfg.Session.Backend != SessionBackendCookie {
		t.Errorf("Session.Backend = %q", cfg.Session.Backend)
	}
	if cfg.Session.TTLDays != 7 {
		t.Errorf("Session.TTLDays = %d", cfg.Session.TTLDays)
	}
	if cfg.Auth.OAuth.Enabled() {
		t.Errorf("oauth should be disabled without a client id")
	}
}

func TestAppConfig_InvalidSessionBackend(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "memcached")

	var cfg AppConfig
	if err := env.Parse(&cfg); err == nil {
		t.Fatalf("expected parse error for unknown session backend")
	}
}

func TestAPIConfig_Sanitize(t *testing.T) {
	tests := []struct {
		name        string
		in          APIConfig
		wantTimeout time.Duration
		wantBase    string
		wantExpr    string
	}{
		{
			name:        "clamps short timeout",
			in:          APIConfig{BaseURL: "http://api", Timeout: time.Second},
			wantTimeout: 10 * time.Second,
			wantBase:    "http://api/",
			wantExpr:    "error || message",
		},
		{
			name:        "clamps long timeout",
			in:          APIConfig{BaseURL: "http://api/", Timeout: time.Minute, ErrorMessageExpr: "detail"},
			wantTimeout: 30 * time.Second,
			wantBase:    "http://api/",
			wantExpr:    "detail",
		},
		{
			name:        "zero timeout uses default",
			in:          APIConfig{BaseURL: " http://api/v1 "},
			wantTimeout: 15 * time.Second,
			wantBase:    "http://api/v1/",
			wantExpr:    "error || message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.in
			cfg.Sanitize()
			if cfg.Timeout != tt.wantTimeout {
				t.Errorf("Timeout = %v, want %v", cfg.Timeout, tt.wantTimeout)
			}
			if cfg.BaseURL != tt.wantBase {
				t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, tt.wantBase)
			}
			if cfg.ErrorMessageExpr != tt.wantExpr {
				t.Errorf("ErrorMessageExpr = %q, want %q", cfg.ErrorMessageExpr, tt.wantExpr)
			}
			if cfg.MaxUploadBytes != 5<<20 {
				t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
			}
		})
	}
}

func TestSessionConfig_Sanitize(t *testing.T) {
	cfg := SessionConfig{TTLDays: 365}
	cfg.Sanitize()
	if cfg.TTLDays != 90 {
		t.Errorf("TTLDays = %d, want 90", cfg.TTLDays)
	}
	if cfg.Backend != SessionBackendCookie {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.RedisPrefix != "session:" {
		t.Errorf("RedisPrefix = %q", cfg.RedisPrefix)
	}

	cfg = SessionConfig{TTLDays: -1}
	cfg.Sanitize()
	if cfg.TTLDays != 7 {
		t.Errorf("TTLDays = %d, want 7", cfg.TTLDays)
	}
}

func TestCheckCookieDomain(t *testing.T) {
	tests := []struct {
		domain  string
		wantErr bool
	}{
		{"", false},
		{"localhost", false},
		{"example.com", false},
		{".app.example.co.uk", false},
		{"com", true},
		{"co.uk", true},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			err := CheckCookieDomain(tt.domain)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckCookieDomain(%q) err = %v, wantErr %v", tt.domain, err, tt.wantErr)
			}
		})
	}
}

func TestHTTPConfig_SanitizeDropsPublicSuffix(t *testing.T) {
	cfg := HTTPConfig{CookieDomain: "com", CompressionLevel: 42, BaseURL: "https://app.example.com/"}
	cfg.Sanitize()
	if cfg.CookieDomain != "" {
		t.Errorf("CookieDomain = %q, want empty", cfg.CookieDomain)
	}
	if cfg.CompressionLevel != 9 {
		t.Errorf("CompressionLevel = %d, want 9", cfg.CompressionLevel)
	}
	if cfg.BaseURL != "https://app.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "   "}
	cfg.Sanitize()
	if cfg.IsEnabled() {
		t.Fatalf("expected metrics disabled without an address")
	}

	cfg = ObservabilityMetricsConfig{Enabled: true, StatsdAddress: " 127.0.0.1:8125 ", Prefix: ".userdeck."}
	cfg.Sanitize()
	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics enabled")
	}
	if cfg.Prefix != "userdeck" {
		t.Errorf("Prefix = %q", cfg.Prefix)
	}
}

func TestAppConfig_SecureCookies(t *testing.T) {
	cfg := AppConfig{HTTP: HTTPConfig{BaseURL: "https://app.example.com"}}
	if !cfg.SecureCookies() {
		t.Errorf("expected secure cookies for https production base url")
	}
	cfg.IsDev = true
	if cfg.SecureCookies() {
		t.Errorf("dev mode over https base url should not force secure cookies")
	}
	cfg.Session.SecureCookies = true
	if !cfg.SecureCookies() {
		t.Errorf("explicit SESSION_SECURE_COOKIES must win")
	}
}
