// Package apiclient is the single outbound pipeline to the remote user API.
//
// Every call reads the session from the request context and attaches its
// token as a bearer credential. Calls are never retried. A 401 or 403 from
// any endpoint clears the session before the error is returned so that the
// page layer only has to navigate to the login page.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	apperrors "github.com/target/userdeck/internal/errors"
	"github.com/target/userdeck/internal/observability/metrics"
	"github.com/target/userdeck/internal/observability/statsd"
	"github.com/target/userdeck/internal/session"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultMessageExpr = "error || message"
	maxResponseBytes   = 1 << 20
)

// Config configures a Client.
type Config struct {
	// BaseURL is the API root; endpoint paths are resolved relative to it.
	BaseURL string
	Timeout time.Duration
	// ErrorMessageExpr is a JMESPath expression selecting the message from an error body.
	ErrorMessageExpr string
	// Client overrides the HTTP client. Its Timeout is left untouched.
	Client  *http.Client
	Logger  *slog.Logger
	Metrics statsd.Sink
	// OnUnauthorized replaces the default reaction to a 401/403, which clears
	// the session carried by ctx.
	OnUnauthorized func(ctx context.Context, status int)
}

// Client calls the remote user API.
type Client struct {
	base        *url.URL
	client      *http.Client
	messageExpr string
	logger      *slog.Logger
	metrics     statsd.Sink
	onUnauth    func(ctx context.Context, status int)
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("api base url is required")
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http or https: %q", raw)
	}

	expr := strings.TrimSpace(cfg.ErrorMessageExpr)
	if expr == "" {
		expr = defaultMessageExpr
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, fmt.Errorf("compile error message expression %q: %w", expr, err)
	}

	hc := cfg.Client
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		base:        base,
		client:      hc,
		messageExpr: expr,
		logger:      logger.With("component", "apiclient"),
		metrics:     cfg.Metrics,
		onUnauth:    cfg.OnUnauthorized,
	}
	if c.onUnauth == nil {
		c.onUnauth = c.clearSession
	}
	return c, nil
}

// call describes one request.
type call struct {
	op          string
	method      string
	path        string
	body        io.Reader
	contentType string
	out         any
	// fallback is used when an error response carries no message.
	fallback string
}

func (c *Client) do(ctx context.Context, in call) error {
	start := time.Now()
	status, err := c.roundTrip(ctx, in)
	metrics.EmitAPICall(c.metrics, metrics.APICall{
		Op:       in.op,
		Status:   status,
		Duration: time.Since(start),
		Err:      err,
	})
	c.logger.DebugContext(ctx, "api call",
		"op", in.op,
		"method", in.method,
		"path", in.path,
		"status", status,
		"duration", time.Since(start),
		"error", err,
	)
	return err
}

func (c *Client) roundTrip(ctx context.Context, in call) (int, error) {
	endpoint := c.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(in.path, "/")})

	req, err := http.NewRequestWithContext(ctx, in.method, endpoint.String(), in.body)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrCodeInternal, "create api request")
	}
	req.Header.Set("Accept", "application/json")
	if in.contentType != "" {
		req.Header.Set("Content-Type", in.contentType)
	}
	if token := session.FromContext(ctx).Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return 0, apperrors.Wrap(err, apperrors.ErrCodeCanceled, "api request canceled")
		}
		return 0, apperrors.Network(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, apperrors.Network(err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.logger.InfoContext(ctx, "api rejected credential",
			"op", in.op, "status", resp.StatusCode, "session_cleared", true)
		c.onUnauth(ctx, resp.StatusCode)
		return resp.StatusCode, apperrors.Unauthorized(resp.StatusCode, c.message(body))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, c.responseError(resp.StatusCode, body, in.fallback)
	}

	if in.out == nil || len(body) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(body, in.out); err != nil {
		return resp.StatusCode, &apperrors.AppError{
			Code:    apperrors.ErrCodeApplication,
			Message: "Unexpected response from server",
			Cause:   err,
			Status:  resp.StatusCode,
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) responseError(status int, body []byte, fallback string) error {
	msg := c.message(body)
	if status == http.StatusNotFound {
		if msg == "" {
			msg = "Not found"
		}
		return apperrors.NotFound(msg)
	}
	if msg == "" {
		msg = fallback
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return apperrors.Application(status, msg)
}

// message extracts a display message from an error body. Non-JSON bodies
// and bodies without a matching field yield "".
func (c *Client) message(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return ""
	}
	v, err := jmespath.Search(c.messageExpr, data)
	if err != nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func (c *Client) clearSession(ctx context.Context, _ int) {
	store := session.FromContext(ctx)
	if store == nil {
		return
	}
	if err := store.ClearWithReason(metrics.ReasonUnauthorized); err != nil {
		c.logger.WarnContext(ctx, "clear session after rejection failed", "error", err)
	}
}
