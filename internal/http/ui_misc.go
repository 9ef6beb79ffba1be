package httpx

import (
	"errors"
	"net/http"
	"strings"
)

// IsBrowserRequest reports whether the client expects HTML rather than JSON.
func IsBrowserRequest(r *http.Request) bool {
	if IsHTMX(r) {
		return true
	}
	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

// Home sends visitors to the dashboard; the session guard takes care of
// anyone who is not signed in.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, PathDashboard, http.StatusFound)
}

// NotFound handles 404 errors with auth-aware behavior.
// For browser requests, it renders an HTML error page.
// For API requests, it returns a JSON error response.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if IsBrowserRequest(r) {
		h.renderBrowserNotFound(w, r)
	} else {
		h.renderAPINotFound(w, r)
	}
}

// renderBrowserNotFound renders an HTML 404 page with auth-aware content.
func (h *UIHandlers) renderBrowserNotFound(w http.ResponseWriter, r *http.Request) {
	data := basePageData(r, PageMeta{Title: "Page Not Found - Userdeck", PageTitle: "Page not found"})
	isAuthenticated, _ := data["IsAuthenticated"].(bool)
	data["Code"] = "404"
	data["Message"] = "The page you're looking for doesn't exist."
	data["ShowLogin"] = !isAuthenticated

	if h.T == nil {
		http.Error(w, "Page not found", http.StatusNotFound)
		return
	}
	var buf strings.Builder
	if err := h.T.RenderNamed(&buf, "error-layout", data); err != nil {
		h.logger().Error("failed to render not found page", "error", err)
		http.Error(w, "Page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(buf.String()))
}

// renderAPINotFound renders a JSON 404 response.
func (h *UIHandlers) renderAPINotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, ErrorParams{
		Code:    http.StatusNotFound,
		ErrCode: "not_found",
		Err:     errors.New("not found"),
	})
}
