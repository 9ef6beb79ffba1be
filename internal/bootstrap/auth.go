package bootstrap

import (
	"context"
	"log/slog"

	"github.com/target/userdeck/config"
	"github.com/target/userdeck/internal/adapters/devauth"
	"github.com/target/userdeck/internal/adapters/oidc"
	"github.com/target/userdeck/internal/ports"
)

const googleCallbackPath = "/auth/google/callback"

// AuthConfig contains configuration for the Google sign-in provider.
type AuthConfig struct {
	Auth   config.AuthConfig
	Logger *slog.Logger
}

// BuildAuthProvider creates the Google sign-in provider for the configured
// auth mode. Returns nil when sign-in is not configured or configuration is
// invalid; the login page then hides the Google button.
//
//nolint:ireturn // the provider implementation is chosen by auth mode.
func BuildAuthProvider(ctx context.Context, cfg AuthConfig) ports.AuthProvider {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		return buildDevAuthProvider(cfg)
	case config.AuthModeOAuth:
		return buildOAuthProvider(ctx, cfg)
	default:
		return nil
	}
}

//nolint:ireturn // see BuildAuthProvider.
func buildDevAuthProvider(cfg AuthConfig) ports.AuthProvider {
	prov, err := devauth.NewProvider(devauth.Config{
		Email:        cfg.Auth.DevAuth.Email,
		Name:         cfg.Auth.DevAuth.Name,
		AccessToken:  cfg.Auth.DevAuth.AccessToken,
		CallbackPath: googleCallbackPath,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create dev auth provider, google sign-in disabled", "error", err)
		}
		return nil
	}
	return prov
}

//nolint:ireturn // see BuildAuthProvider.
func buildOAuthProvider(ctx context.Context, cfg AuthConfig) ports.AuthProvider {
	// Only enable when fully configured
	oauth := cfg.Auth.OAuth
	if !oauth.Enabled() || oauth.ClientSecret == "" {
		if cfg.Logger != nil {
			cfg.Logger.Info("google sign-in disabled: oauth client not configured",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
		}
		return nil
	}

	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create OIDC provider, google sign-in disabled", "error", err)
		}
		return nil
	}
	return prov
}
