package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/userdeck/config"
	redisadapter "github.com/target/userdeck/internal/adapters/redis"
	"github.com/target/userdeck/internal/apiclient"
	"github.com/target/userdeck/internal/async"
	httpx "github.com/target/userdeck/internal/http"
	"github.com/target/userdeck/internal/observability/metrics"
	"github.com/target/userdeck/internal/observability/statsd"
	"github.com/target/userdeck/internal/ports"
	"github.com/target/userdeck/internal/service"
	"github.com/target/userdeck/internal/session"
)

const shutdownWaitTimeout = 10 * time.Second

// ServiceContainer holds everything the HTTP layer needs.
type ServiceContainer struct {
	API       *apiclient.Client
	Auth      *service.AuthService
	Users     *service.UserService
	Dashboard *service.DashboardService
	Sessions  *session.Manager
	// Metrics is nil when metrics emission is disabled.
	Metrics *statsd.Client
	// Readiness holds the dependency checks served on /readyz.
	Readiness map[string]httpx.HealthCheck
}

// Close releases resources owned by the container.
func (c *ServiceContainer) Close() error {
	if c == nil || c.Metrics == nil {
		return nil
	}
	return c.Metrics.Close()
}

// ServiceDeps contains dependencies for building services.
type ServiceDeps struct {
	Config *config.AppConfig
	// RedisClient is required when the session backend is redis.
	RedisClient redis.UniversalClient
	// AuthProvider overrides the provider built from configuration (tests).
	AuthProvider ports.AuthProvider
	Logger       *slog.Logger
}

// buildObservability creates the statsd client when metrics are enabled.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) *statsd.Client {
	if !cfg.Metrics.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled:    true,
		Address:    cfg.Metrics.StatsdAddress,
		Prefix:     cfg.Metrics.Prefix,
		GlobalTags: map[string]string{"service": "userdeck"},
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// sinkOf avoids handing services a typed-nil Sink.
//
//nolint:ireturn // Sink is the abstraction services accept.
func sinkOf(client *statsd.Client) statsd.Sink {
	if client == nil {
		return nil
	}
	return client
}

// SessionManagerConfig configures BuildSessionManager.
type SessionManagerConfig struct {
	Session     config.SessionConfig
	Cookies     session.CookieOptions
	RedisClient redis.UniversalClient
	Metrics     statsd.Sink
	Logger      *slog.Logger
}

// BuildSessionManager selects the session backend.
func BuildSessionManager(cfg SessionManagerConfig) (*session.Manager, error) {
	var backend session.Backend
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		if cfg.RedisClient == nil {
			return nil, errors.New("redis session backend requires a redis client")
		}
		backend = &session.ServerBackend{
			Store:      redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, cfg.Session.RedisPrefix),
			Cookies:    cfg.Cookies,
			IsNotFound: redisadapter.IsNotFound,
		}
	case config.SessionBackendCookie, "":
		backend = &session.CookieBackend{Cookies: cfg.Cookies}
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}

	sink := cfg.Metrics
	return session.NewManager(session.ManagerOptions{
		Backend: backend,
		TTLDays: cfg.Session.TTLDays,
		Logger:  cfg.Logger,
		OnClear: func(reason string) { metrics.EmitSessionCleared(sink, reason) },
	}), nil
}

// NewServices builds the API client, the page services and the session manager.
func NewServices(ctx context.Context, deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service deps missing AppConfig")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	statsdClient := buildObservability(logger, cfg.Observability)
	sink := sinkOf(statsdClient)

	api, err := apiclient.NewClient(apiclient.Config{
		BaseURL:          cfg.API.BaseURL,
		Timeout:          cfg.API.Timeout,
		ErrorMessageExpr: cfg.API.ErrorMessageExpr,
		Logger:           logger,
		Metrics:          sink,
	})
	if err != nil {
		return nil, fmt.Errorf("build api client: %w", err)
	}

	sessions, err := BuildSessionManager(SessionManagerConfig{
		Session: cfg.Session,
		Cookies: session.CookieOptions{
			Domain: cfg.HTTP.CookieDomain,
			Secure: cfg.SecureCookies(),
		},
		RedisClient: deps.RedisClient,
		Metrics:     sink,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	provider := deps.AuthProvider
	if provider == nil {
		provider = BuildAuthProvider(ctx, AuthConfig{Auth: cfg.Auth, Logger: logger})
	}

	// One gate per process so identical resubmissions of a form are coalesced.
	gate := async.NewGate()

	readiness := map[string]httpx.HealthCheck{}
	if rc := deps.RedisClient; rc != nil {
		readiness["redis"] = func(ctx context.Context) error { return rc.Ping(ctx).Err() }
	}

	return &ServiceContainer{
		API: api,
		Auth: service.NewAuthService(service.AuthServiceOptions{
			API:            api,
			Provider:       provider,
			Gate:           gate,
			TTLDays:        cfg.Session.TTLDays,
			MaxUploadBytes: cfg.API.MaxUploadBytes,
			Metrics:        sink,
			Logger:         logger,
		}),
		Users: service.NewUserService(service.UserServiceOptions{
			API:            api,
			Gate:           gate,
			MaxUploadBytes: cfg.API.MaxUploadBytes,
			Logger:         logger,
		}),
		Dashboard: service.NewDashboardService(api),
		Sessions:  sessions,
		Metrics:   statsdClient,
		Readiness: readiness,
	}, nil
}

// ServiceOrchestrationConfig contains everything needed to run the server.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// RunWithShutdown starts the HTTP server and blocks until SIGINT/SIGTERM.
func RunWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	server := startServer(logger, BuildHTTPHandler(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
	}), cfg.Config.HTTP.Addr, errCh)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return waitForShutdown(shutdownConfig{
		ctx:        serviceCtx,
		cancel:     cancel,
		quit:       quit,
		errCh:      errCh,
		httpServer: server,
		logger:     logger,
	})
}

type shutdownConfig struct {
	ctx        context.Context
	cancel     context.CancelFunc
	quit       <-chan os.Signal
	errCh      <-chan error
	httpServer *http.Server
	logger     *slog.Logger
}

// waitForShutdown waits for a shutdown signal or a server error.
func waitForShutdown(cfg shutdownConfig) error {
	select {
	case <-cfg.quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop drains in-flight requests. The service context is already
// canceled here, so shutdown gets its own deadline.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(cfg.ctx), shutdownWaitTimeout)
	defer cancel()
	return ShutdownHTTPServer(ShutdownConfig{
		Context: shutdownCtx,
		Server:  cfg.httpServer,
		Logger:  cfg.logger,
	})
}
