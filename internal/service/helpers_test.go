package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/target/userdeck/internal/session"
)

// newSessionCtx returns a request context carrying a cookie-backed session
// store, optionally pre-populated with token.
func newSessionCtx(t *testing.T, token string) (context.Context, *session.Store) {
	t.Helper()
	m := session.NewManager(session.ManagerOptions{Backend: &session.CookieBackend{}})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: session.TokenCookie, Value: token})
	}
	r, store := m.Attach(httptest.NewRecorder(), req)
	return r.Context(), store
}
