package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/target/userdeck/internal/async"
	"github.com/target/userdeck/internal/domain/model"
	apperrors "github.com/target/userdeck/internal/errors"
	"github.com/target/userdeck/internal/observability/metrics"
	"github.com/target/userdeck/internal/observability/statsd"
	"github.com/target/userdeck/internal/ports"
	"github.com/target/userdeck/internal/session"
)

// ErrGoogleDisabled is returned when Google sign-in is not configured.
var ErrGoogleDisabled = errors.New("google sign-in is not configured")

// Session creation methods reported in metrics.
const (
	MethodPassword = "password"
	MethodGoogle   = "google"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	API ports.UserAPI
	// Provider is the Google sign-in flow. Nil disables it.
	Provider ports.AuthProvider
	Gate     *async.Gate
	// TTLDays is the lifetime of sessions created by this service.
	TTLDays        int
	MaxUploadBytes int64
	Metrics        statsd.Sink
	Logger         *slog.Logger
}

// AuthService orchestrates sign-up, sign-in and sign-out against the remote
// API and records the result in the request's session.
type AuthService struct {
	api       ports.UserAPI
	provider  ports.AuthProvider
	gate      *async.Gate
	ttlDays   int
	maxUpload int64
	metrics   statsd.Sink
	logger    *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gate := opts.Gate
	if gate == nil {
		gate = async.NewGate()
	}
	ttl := opts.TTLDays
	if ttl <= 0 {
		ttl = 7
	}
	return &AuthService{
		api:       opts.API,
		provider:  opts.Provider,
		gate:      gate,
		ttlDays:   ttl,
		maxUpload: opts.MaxUploadBytes,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "auth_service"),
	}
}

// GoogleEnabled reports whether Google sign-in is available.
func (s *AuthService) GoogleEnabled() bool { return s.provider != nil }

// Login validates the credentials, exchanges them for a token and stores the
// session. Concurrent submissions of the same credentials share one remote
// call.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := ValidateLogin(req); err != nil {
		return model.AuthResult{}, err
	}

	key := async.Key("login", req.Email, req.Password)
	res, _, err := async.Submit(ctx, s.gate, key, func(ctx context.Context) (model.AuthResult, error) {
		return s.api.Login(ctx, req)
	})
	if err != nil {
		return model.AuthResult{}, err
	}
	if err := s.establish(ctx, res, MethodPassword); err != nil {
		return model.AuthResult{}, err
	}
	return res, nil
}

// Signup validates the form and registers the account. Nothing is sent when
// validation fails. The new account is not signed in.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Age = strings.TrimSpace(req.Age)
	if err := ValidateSignup(req, s.maxUpload); err != nil {
		return err
	}

	avatar, err := bufferAvatar(req.Avatar, s.maxUpload)
	if err != nil {
		return err
	}
	req.Avatar = avatar

	key := async.Key("signup", req.Name, req.Email, req.Password, req.Age, req.Gender, req.Avatar.Digest())
	_, _, err = async.Submit(ctx, s.gate, key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.api.Signup(ctx, req)
	})
	return err
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginGoogleLogin initiates the Google flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginGoogleLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, ErrGoogleDisabled
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteGoogleLogin exchanges the authorization code with Google, trades the
// Google access token for an API token and stores the session.
func (s *AuthService) CompleteGoogleLogin(ctx context.Context, input CompleteLoginInput) (model.AuthResult, error) {
	if s.provider == nil {
		return model.AuthResult{}, ErrGoogleDisabled
	}
	if input.Code == "" {
		return model.AuthResult{}, errors.New("authorization code is required")
	}
	if input.State == "" {
		return model.AuthResult{}, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return model.AuthResult{}, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("exchange authorization code: %w", err)
	}
	if identity.AccessToken == "" {
		return model.AuthResult{}, errors.New("identity provider returned no access token")
	}

	res, err := s.api.GoogleLogin(ctx, identity.AccessToken)
	if err != nil {
		return model.AuthResult{}, err
	}
	if err := s.establish(ctx, res, MethodGoogle); err != nil {
		return model.AuthResult{}, err
	}
	return res, nil
}

// Logout clears the session. It is safe to call without a session.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := session.FromContext(ctx).ClearWithReason(metrics.ReasonLogout); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *AuthService) establish(ctx context.Context, res model.AuthResult, method string) error {
	store := session.FromContext(ctx)
	if store == nil {
		return session.ErrNoStore
	}
	if err := store.Set(res.Token, res.User, s.ttlDays); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "save session")
	}
	metrics.EmitSessionCreated(s.metrics, method)
	s.logger.InfoContext(ctx, "session created", "method", method, "user_id", res.User.ID)
	return nil
}
