package httpx

import (
	"bytes"
	"context"
	"html"
	"log/slog"
	"net/http"
	"strings"

	"github.com/target/userdeck/internal/domain/model"
	"github.com/target/userdeck/internal/http/ui/viewmodel"
	"github.com/target/userdeck/internal/service"
	"github.com/target/userdeck/internal/session"
)

const errMsgFixBelow = "Please fix the errors below."

// AuthService is the slice of service.AuthService the pages need.
type AuthService interface {
	GoogleEnabled() bool
	Login(ctx context.Context, req model.LoginRequest) (model.AuthResult, error)
	Signup(ctx context.Context, req model.SignupRequest) error
	BeginGoogleLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteGoogleLogin(ctx context.Context, input service.CompleteLoginInput) (model.AuthResult, error)
	Logout(ctx context.Context) error
}

// UsersService is the slice of service.UserService the pages need.
type UsersService interface {
	Directory(ctx context.Context) ([]model.User, error)
	User(ctx context.Context, id string) (model.User, error)
	Profile(ctx context.Context) (model.User, error)
	ProfileView(ctx context.Context, id string) (service.ProfileView, error)
	UpdateProfile(ctx context.Context, req model.UpdateProfileRequest) (model.User, error)
}

// DashboardService loads the analytics shown on the dashboard.
type DashboardService interface {
	Load(ctx context.Context) (model.Dashboard, error)
}

// Compile-time interface assertions to ensure concrete services satisfy their UI interfaces.
var (
	_ AuthService      = (*service.AuthService)(nil)
	_ UsersService     = (*service.UserService)(nil)
	_ DashboardService = (*service.DashboardService)(nil)
)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T         *TemplateRenderer
	Auth      AuthService
	Users     UsersService
	Dashboard DashboardService
	// MultipartMemory bounds in-memory parsing of uploads; larger parts go to temp files.
	MultipartMemory int64
	CookieDomain    string
	IsDev           bool // Development mode flag for enhanced error reporting
	Logger          *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *UIHandlers) googleEnabled() bool {
	return h.Auth != nil && h.Auth.GoogleEnabled()
}

// triggerToast sends a standardized HX-Trigger payload for toast notifications.
func triggerToast(w http.ResponseWriter, message, toastType string) {
	if w == nil || strings.TrimSpace(message) == "" {
		return
	}
	HTMX(w).Trigger("showToast", map[string]any{
		"message": message,
		"type":    strings.TrimSpace(toastType),
	})
}

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// buildLayout constructs shared layout metadata from the request/session context.
func buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CSRFToken:   GetCSRFToken(r),
	}

	if sess := session.FromContext(r.Context()).Get(); !sess.Empty() {
		layout.IsAuthenticated = true
		layout.User = viewmodel.UserFrom(sess.User)
	}

	return layout
}

// basePageData constructs the common page data map with user context.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	layout := buildLayout(r, meta)
	data := map[string]any{
		"Title":           layout.Title,
		"PageTitle":       layout.PageTitle,
		"CurrentPage":     layout.CurrentPage,
		"IsAuthenticated": layout.IsAuthenticated,
		"CSRFToken":       layout.CSRFToken,
		"Errors":          map[string]string{},
		"Values":          map[string]string{},
	}
	if layout.User != nil {
		data["User"] = layout.User
	}
	return data
}

// pageData starts a builder with handler-level flags filled in.
func (h *UIHandlers) pageData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return NewTemplateData(r, meta).With("GoogleEnabled", h.googleEnabled())
}

// renderPage renders a page with 200 OK.
func (h *UIHandlers) renderPage(w http.ResponseWriter, r *http.Request, data map[string]any) {
	h.renderPageStatus(w, r, http.StatusOK, data)
}

// renderPageStatus renders a full page, or for htmx requests only the content
// fragment plus out-of-band title updates.
func (h *UIHandlers) renderPageStatus(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	layout := layoutFromMap(data)

	var buf bytes.Buffer
	if WantsPartial(r) {
		// Include a <title> element so htmx updates document.title on partial swaps
		buf.WriteString(`<title>` + html.EscapeString(layout.Title) + `</title>`)
		buf.WriteString(`<h1 id="header-title" class="header-title" hx-swap-oob="outerHTML">` +
			html.EscapeString(layout.PageTitle) + `</h1>`)
		if err := h.T.RenderNamed(&buf, ContentTemplateFor(layout.CurrentPage), data); err != nil {
			h.logAndRenderTemplateError(w, r, err, "partial content render")
			return
		}
		SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})
	} else if err := h.T.RenderNamed(&buf, "layout", data); err != nil {
		h.logAndRenderTemplateError(w, r, err, "full page render")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger().Error("failed to write page", "error", err, "path", r.URL.Path)
	}
}

func layoutFromMap(data map[string]any) viewmodel.Layout {
	layout := viewmodel.Layout{}
	if v, ok := data["Title"].(string); ok {
		layout.Title = v
	}
	if v, ok := data["PageTitle"].(string); ok {
		layout.PageTitle = v
	}
	if v, ok := data["CurrentPage"].(string); ok {
		layout.CurrentPage = v
	}
	return layout
}

// logAndRenderTemplateError logs template errors and renders them in dev mode.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error, context string) {
	h.logger().Error("template rendering failed",
		"error", err,
		"context", context,
		"path", r.URL.Path,
		"method", r.Method,
	)

	if h.IsDev {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		errHTML := html.EscapeString(err.Error())
		pathHTML := html.EscapeString(r.URL.Path)
		contextHTML := html.EscapeString(context)
		if _, writeErr := w.Write([]byte(`
			<div style="padding: 20px; background: #fee; border: 2px solid #c33; border-radius: 4px; margin: 20px; font-family: monospace;">
				<h2 style="color: #c33; margin-top: 0;">Template Rendering Error</h2>
				<p><strong>Context:</strong> ` + contextHTML + `</p>
				<p><strong>Path:</strong> ` + pathHTML + `</p>
				<p><strong>Error:</strong></p>
				<pre style="background: #fff; padding: 10px; border: 1px solid #ccc; overflow-x: auto;">` + errHTML + `</pre>
			</div>
		`)); writeErr != nil {
			h.logger().Error("failed to write template error response", "error", writeErr)
		}
		return
	}

	http.Error(w, "internal server error", http.StatusInternalServerError)
}
