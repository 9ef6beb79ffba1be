package httpx

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/userdeck/internal/session"
)

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, given)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, given, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "<script>", seen)
}

func TestRecover(t *testing.T) {
	h := Recover(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil)) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogging_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users", nil))

	out := buf.String()
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"path":"/users"`)
}

func TestLimitBody(t *testing.T) {
	var readErr error
	h := LimitBody(10)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	small := strings.NewReader(strings.Repeat("x", 1024))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", small))
	assert.NoError(t, readErr, "the slack covers ordinary form fields")

	large := strings.NewReader(strings.Repeat("x", 10+multipartSlack+1))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", large))
	var tooLarge *http.MaxBytesError
	assert.True(t, errors.As(readErr, &tooLarge))
}

func TestReleaseMultipart_RemovesTempFiles(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("profilePicture", "me.png")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte{0x89}, 4096))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	var tempPath string
	h := ReleaseMultipart(discardLogger())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		// A tiny memory budget forces the part onto disk.
		require.NoError(t, r.ParseMultipartForm(1))
		f, _, err := r.FormFile("profilePicture")
		require.NoError(t, err)
		defer f.Close()
		osFile, ok := f.(*os.File)
		require.True(t, ok, "upload should be spooled to a temp file")
		tempPath = osFile.Name()
		_, err = os.Stat(tempPath)
		require.NoError(t, err)
	}))

	req := httptest.NewRequest(http.MethodPost, "/signup", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotEmpty(t, tempPath)
	_, err = os.Stat(tempPath)
	assert.True(t, os.IsNotExist(err), "temp file should be removed once the handler returns")
}

func TestLoadSession_SharesStoreWithHandler(t *testing.T) {
	m := session.NewManager(session.ManagerOptions{Backend: &session.CookieBackend{}, Logger: discardLogger()})
	var store *session.Store
	h := LoadSession(m)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		store = session.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.TokenCookie, Value: "t1"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, store)
	assert.Equal(t, "t1", store.Token())
}

func TestSafeRedirectPath(t *testing.T) {
	tests := map[string]string{
		"":                        "/",
		"/users?view=grid":        "/users?view=grid",
		"/profile/u1":             "/profile/u1",
		"https://evil.example/":   "/",
		"//evil.example":          "/",
		"/\\evil.example":         "/",
		"javascript:alert(1)":     "/",
		"relative/path":           "/",
		"/dashboard#recent-users": "/dashboard#recent-users",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeRedirectPath(in), "input %q", in)
	}
}

func TestRedirectToLogin(t *testing.T) {
	t.Run("plain request keeps the full URL", func(t *testing.T) {
		rec := httptest.NewRecorder()
		redirectToLogin(rec, httptest.NewRequest(http.MethodGet, "/users?view=grid", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?redirect_uri=%2Fusers%3Fview%3Dgrid", rec.Header().Get("Location"))
	})

	t.Run("root needs no redirect_uri", func(t *testing.T) {
		rec := httptest.NewRecorder()
		redirectToLogin(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("post keeps only the path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		redirectToLogin(rec, httptest.NewRequest(http.MethodPost, "/profile?x=1", nil))
		assert.Equal(t, "/login?redirect_uri=%2Fprofile", rec.Header().Get("Location"))
	})

	t.Run("htmx uses HX-Redirect and the current page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("HX-Request", "true")
		req.Header.Set("HX-Current-URL", "http://localhost:3000/profile/u2")
		rec := httptest.NewRecorder()
		redirectToLogin(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "/login?redirect_uri=%2Fprofile%2Fu2", rec.Header().Get("HX-Redirect"))
		assert.Empty(t, rec.Header().Get("Location"))
	})
}
