package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/target/userdeck/internal/domain/model"
	apperrors "github.com/target/userdeck/internal/errors"
	"github.com/target/userdeck/internal/ports"
)

var _ ports.UserAPI = (*Client)(nil)

// Operation names used for logging and metric tags.
const (
	OpSignup            = "auth.signup"
	OpLogin             = "auth.login"
	OpGoogleLogin       = "auth.google"
	OpListUsers         = "users.list"
	OpMe                = "users.me"
	OpGetUser           = "users.get"
	OpUpdateMe          = "users.update_me"
	OpAnalyticsOverview = "analytics.overview"
	OpAnalyticsRecent   = "analytics.recent"
)

// Signup registers a new account with a multipart body.
func (c *Client) Signup(ctx context.Context, req model.SignupRequest) error {
	fields := []formField{
		{"name", req.Name},
		{"email", req.Email},
		{"password", req.Password},
		{"age", req.Age},
	}
	if req.Gender != "" {
		fields = append(fields, formField{"gender", req.Gender})
	}
	body, contentType, err := encodeMultipart(fields, req.Avatar)
	if err != nil {
		return err
	}
	return c.do(ctx, call{
		op:          OpSignup,
		method:      http.MethodPost,
		path:        "api/auth/signup",
		body:        body,
		contentType: contentType,
		fallback:    "Signup failed",
	})
}

// Login exchanges email and password for a token and user.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (model.AuthResult, error) {
	var out model.AuthResult
	err := c.doJSON(ctx, call{
		op:       OpLogin,
		method:   http.MethodPost,
		path:     "api/auth/login",
		out:      &out,
		fallback: "Login failed",
	}, req)
	if err != nil {
		return model.AuthResult{}, err
	}
	if out.Token == "" {
		return model.AuthResult{}, apperrors.Application(http.StatusOK, "Login response did not include a token")
	}
	return out, nil
}

// GoogleLogin exchanges a Google access token for a token and user.
func (c *Client) GoogleLogin(ctx context.Context, accessToken string) (model.AuthResult, error) {
	var out model.AuthResult
	err := c.doJSON(ctx, call{
		op:       OpGoogleLogin,
		method:   http.MethodPost,
		path:     "api/auth/google",
		out:      &out,
		fallback: "Google login failed",
	}, model.GoogleLoginRequest{AccessToken: accessToken})
	if err != nil {
		return model.AuthResult{}, err
	}
	if out.Token == "" {
		return model.AuthResult{}, apperrors.Application(http.StatusOK, "Google login response did not include a token")
	}
	return out, nil
}

// ListUsers returns the user directory.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var out model.UserList
	if err := c.do(ctx, call{
		op:       OpListUsers,
		method:   http.MethodGet,
		path:     "api/users",
		out:      &out,
		fallback: "Error fetching users",
	}); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var out model.UserEnvelope
	if err := c.do(ctx, call{
		op:       OpMe,
		method:   http.MethodGet,
		path:     "api/users/me",
		out:      &out,
		fallback: "Error loading profile",
	}); err != nil {
		return model.User{}, err
	}
	return out.User, nil
}

// GetUser returns a single user by id.
func (c *Client) GetUser(ctx context.Context, id string) (model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.User{}, apperrors.ValidationField("id", "User id is required")
	}
	var out model.UserEnvelope
	if err := c.do(ctx, call{
		op:       OpGetUser,
		method:   http.MethodGet,
		path:     "api/users/" + url.PathEscape(id),
		out:      &out,
		fallback: "User not found",
	}); err != nil {
		return model.User{}, err
	}
	return out.User, nil
}

// UpdateMe updates the signed-in user's profile. The body is always multipart,
// with or without a new avatar.
func (c *Client) UpdateMe(ctx context.Context, req model.UpdateProfileRequest) (model.User, error) {
	body, contentType, err := encodeMultipart([]formField{
		{"name", req.Name},
		{"email", req.Email},
	}, req.Avatar)
	if err != nil {
		return model.User{}, err
	}
	var out model.UserEnvelope
	if err := c.do(ctx, call{
		op:          OpUpdateMe,
		method:      http.MethodPut,
		path:        "api/users/me",
		body:        body,
		contentType: contentType,
		out:         &out,
		fallback:    "Error updating profile",
	}); err != nil {
		return model.User{}, err
	}
	return out.User, nil
}

// AnalyticsOverview returns the dashboard counters.
func (c *Client) AnalyticsOverview(ctx context.Context) (model.AnalyticsOverview, error) {
	var out model.AnalyticsOverview
	if err := c.do(ctx, call{
		op:       OpAnalyticsOverview,
		method:   http.MethodGet,
		path:     "api/users/analytics/overview",
		out:      &out,
		fallback: "Failed to fetch dashboard data",
	}); err != nil {
		return model.AnalyticsOverview{}, err
	}
	return out, nil
}

// AnalyticsRecent returns recently registered users. Both a bare array and
// {"users": [...]} are accepted.
func (c *Client) AnalyticsRecent(ctx context.Context) ([]model.RecentUser, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{
		op:       OpAnalyticsRecent,
		method:   http.MethodGet,
		path:     "api/users/analytics/recent",
		out:      &raw,
		fallback: "Failed to fetch dashboard data",
	}); err != nil {
		return nil, err
	}
	return decodeRecent(raw)
}

func decodeRecent(raw json.RawMessage) ([]model.RecentUser, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var out []model.RecentUser
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeApplication, "Unexpected response from server")
		}
		return out, nil
	}
	var wrapped struct {
		Users []model.RecentUser `json:"users"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeApplication, "Unexpected response from server")
	}
	return wrapped.Users, nil
}

func (c *Client) doJSON(ctx context.Context, in call, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request")
	}
	in.body = bytes.NewReader(b)
	in.contentType = "application/json"
	return c.do(ctx, in)
}

type formField struct {
	name  string
	value string
}

// encodeMultipart builds a multipart/form-data body. The avatar, when present,
// is sent as the "profilePicture" part with its declared content type.
func encodeMultipart(fields []formField, avatar *model.Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode form field")
		}
	}

	if avatar != nil && avatar.Open != nil {
		if err := writeFilePart(mw, "profilePicture", avatar); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode form")
	}
	return &buf, mw.FormDataContentType(), nil
}

func writeFilePart(mw *multipart.Writer, field string, up *model.Upload) error {
	src, err := up.Open()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "open upload")
	}
	defer src.Close()

	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, up.Filename))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "create upload part")
	}
	if _, err := io.Copy(part, src); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "copy upload")
	}
	return nil
}
