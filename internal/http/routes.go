package httpx

import (
	"bytes"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"regexp"

	userdeck "github.com/target/userdeck"
	"github.com/target/userdeck/internal/session"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth      AuthService
	Users     UsersService
	Dashboard DashboardService
	Sessions  *session.Manager
	// Readiness checks run on /readyz. None means always ready.
	Readiness map[string]HealthCheck
	// Templates overrides the template filesystem (tests); nil picks disk or embedded by IsDev.
	Templates    fs.FS
	CookieDomain string
	// MaxUploadBytes bounds request bodies; 0 disables the limit.
	MaxUploadBytes  int64
	MultipartMemory int64
	// Compression is nil when gzip is disabled.
	Compression *CompressionConfig
	IsDev       bool         // Development mode flag for serving assets from disk
	Logger      *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures a new HTTP router with browser middleware.
func NewRouter(services RouterServices) http.Handler {
	if services.Logger == nil {
		services.Logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	ready := readinessHandler(services.Readiness, services.Logger)
	mux.Handle("GET /readyz", ready)
	mux.Handle("HEAD /readyz", ready)

	// Static assets at /static
	// Dev mode: serve from disk for quick edits
	// Prod mode: serve from embedded FS
	mux.Handle("GET /static/", staticWithFallback(services.IsDev))

	uiHandlers := setupUIHandlers(services)
	if uiHandlers != nil {
		registerUIRoutes(mux, uiHandlers)
	}

	var handler http.Handler = &notFoundHandler{mux: mux, uiHandlers: uiHandlers}
	handler = ReleaseMultipart(services.Logger)(handler)
	handler = CSRFProtection(CSRFConfig{
		CookieDomain:    services.CookieDomain,
		MultipartMemory: services.MultipartMemory,
		Logger:          services.Logger,
	})(handler)
	if services.Sessions != nil {
		handler = LoadSession(services.Sessions)(handler)
	}
	handler = LimitBody(services.MaxUploadBytes)(handler)
	handler = RequestID()(handler)
	if services.Compression != nil {
		handler = Compression(*services.Compression)(handler)
	}
	handler = Logging(services.Logger)(handler)
	return Recover(services.Logger)(handler)
}

// templateFS chooses where templates are read from.
// In dev mode templates are loaded from disk so edits show up on reload.
func templateFS(services RouterServices) fs.FS {
	if services.Templates != nil {
		return services.Templates
	}
	if services.IsDev {
		return os.DirFS(TemplatePathFromRoot)
	}
	sub, err := fs.Sub(userdeck.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		log.Printf("failed to create sub-filesystem for templates: %v; falling back to disk", err)
		return os.DirFS(TemplatePathFromRoot)
	}
	return sub
}

// setupUIHandlers creates UI handlers with the template renderer.
func setupUIHandlers(services RouterServices) *UIHandlers {
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS(services),
		Logger:     services.Logger,
	})
	if err != nil {
		if services.Logger != nil {
			services.Logger.Error("failed to create template renderer", slog.Any("error", err))
		} else {
			log.Printf("ERROR: failed to create template renderer: %v", err)
		}
		return nil
	}

	return &UIHandlers{
		T:               tr,
		Auth:            services.Auth,
		Users:           services.Users,
		Dashboard:       services.Dashboard,
		MultipartMemory: services.MultipartMemory,
		CookieDomain:    services.CookieDomain,
		IsDev:           services.IsDev,
		Logger:          services.Logger,
	}
}

// staticWithFallback serves /static/* assets.
func staticWithFallback(isDev bool) http.Handler {
	if isDev {
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir(StaticPathFromRoot))))
	}

	staticSub, err := fs.Sub(userdeck.StaticFS, StaticPathFromRoot)
	if err != nil {
		log.Printf("failed to create sub-filesystem for static assets: %v", err)
		// Fallback to disk serving if embed fails
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir(StaticPathFromRoot))))
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))
}

// hashedFilePattern matches content-hashed filenames such as app.abc12345.js.
var hashedFilePattern = regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

// staticWithCacheHeaders wraps a static file handler to add appropriate cache headers.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedFilePattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		handler.ServeHTTP(w, r)
	})
}

// notFoundHandler wraps a ServeMux and provides custom 404 handling.
type notFoundHandler struct {
	mux        *http.ServeMux
	uiHandlers *UIHandlers
}

// ServeHTTP implements http.Handler and provides custom 404 handling.
func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only requests the mux has no pattern for are captured, so page
	// responses keep streaming.
	if _, pattern := h.mux.Handler(r); pattern != "" {
		h.mux.ServeHTTP(w, r)
		return
	}

	cw := newCaptureWriter(w)
	h.mux.ServeHTTP(cw, r)

	if cw.status == http.StatusNotFound && h.uiHandlers != nil {
		h.uiHandlers.NotFound(w, r)
		return
	}
	cw.flushTo(w)
}

// captureWriter buffers headers, status and body so we can decide post-dispatch.
type captureWriter struct {
	rw     http.ResponseWriter
	header http.Header
	status int
	buf    bytes.Buffer
}

func newCaptureWriter(w http.ResponseWriter) *captureWriter {
	return &captureWriter{rw: w, header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

func (c *captureWriter) flushTo(w http.ResponseWriter) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	if _, err := w.Write(c.buf.Bytes()); err != nil {
		log.Printf("failed to write captured response: %v", err)
	}
}

// registerUIRoutes wires the public and the session-guarded pages.
func registerUIRoutes(mux *http.ServeMux, h *UIHandlers) {
	guestOnly := RedirectIfAuthenticated(PathDashboard)
	mux.Handle("GET "+PathLogin, guestOnly(http.HandlerFunc(h.LoginPage)))
	mux.Handle("POST "+PathLogin, guestOnly(http.HandlerFunc(h.Login)))
	mux.Handle("GET "+PathSignup, guestOnly(http.HandlerFunc(h.SignupPage)))
	mux.Handle("POST "+PathSignup, guestOnly(http.HandlerFunc(h.Signup)))
	mux.HandleFunc("GET "+PathGoogleLogin, h.GoogleLogin)
	mux.HandleFunc("GET "+PathGoogleCallback, h.GoogleCallback)
	mux.HandleFunc("POST "+PathLogout, h.Logout)
	mux.HandleFunc("GET "+PathUsers+"/{id}", h.UserPage)

	private := RequireSession()
	mux.HandleFunc("GET /{$}", h.Home)
	mux.Handle("GET "+PathDashboard, private(http.HandlerFunc(h.DashboardPage)))
	mux.Handle("GET "+PathUsers, private(http.HandlerFunc(h.UsersPage)))
	mux.Handle("GET "+PathProfile, private(http.HandlerFunc(h.ProfilePage)))
	mux.Handle("POST "+PathProfile, private(http.HandlerFunc(h.UpdateProfile)))
	mux.Handle("GET "+PathProfile+"/{id}", private(http.HandlerFunc(h.ProfileViewPage)))
}
