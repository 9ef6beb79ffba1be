package httpx

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gunzip(t *testing.T, body io.Reader) string {
	t.Helper()
	zr, err := gzip.NewReader(body)
	require.NoError(t, err)
	defer zr.Close()
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(out)
}

func htmlHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func TestCompression_GzipsAcceptedResponses(t *testing.T) {
	page := strings.Repeat("<li>Ada Lovelace</li>", 200)
	h := Compression(CompressionConfig{Level: gzip.BestSpeed})(htmlHandler(http.StatusOK, page))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Accept-Encoding", "br, gzip;q=0.8")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Contains(t, rec.Header().Values("Vary"), "Accept-Encoding")
	assert.Less(t, rec.Body.Len(), len(page))
	assert.Equal(t, page, gunzip(t, rec.Body))
}

func TestCompression_MinSizeStillFlushesSmallBodies(t *testing.T) {
	h := Compression(CompressionConfig{MinSize: 1024})(htmlHandler(http.StatusOK, "<p>tiny</p>"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "<p>tiny</p>", gunzip(t, rec.Body))
}

func TestCompression_StreamsAcrossManyWrites(t *testing.T) {
	h := Compression(CompressionConfig{MinSize: 16})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		for range 50 {
			_, _ = io.WriteString(w, `{"id":"u1"}`)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, strings.Repeat(`{"id":"u1"}`, 50), gunzip(t, rec.Body))
}

func TestCompression_Skips(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		encoding string
		handler  http.Handler
	}{
		{name: "no accept-encoding", method: http.MethodGet, handler: htmlHandler(http.StatusOK, "hello")},
		{name: "gzip refused", method: http.MethodGet, encoding: "gzip;q=0", handler: htmlHandler(http.StatusOK, "hello")},
		{name: "head request", method: http.MethodHead, encoding: "gzip", handler: htmlHandler(http.StatusOK, "")},
		{name: "no content", method: http.MethodGet, encoding: "gzip", handler: htmlHandler(http.StatusNoContent, "")},
		{name: "not modified", method: http.MethodGet, encoding: "gzip", handler: htmlHandler(http.StatusNotModified, "")},
		{name: "image", method: http.MethodGet, encoding: "gzip", handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("\x89PNG"))
		})},
		{name: "already encoded", method: http.MethodGet, encoding: "gzip", handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Header().Set("Content-Encoding", "br")
			_, _ = w.Write([]byte("raw"))
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.encoding != "" {
				req.Header.Set("Accept-Encoding", tt.encoding)
			}
			rec := httptest.NewRecorder()
			Compression(CompressionConfig{})(tt.handler).ServeHTTP(rec, req)
			assert.NotEqual(t, "gzip", rec.Header().Get("Content-Encoding"))
		})
	}
}

func TestAcceptsGzip(t *testing.T) {
	assert.True(t, acceptsGzip("gzip"))
	assert.True(t, acceptsGzip("deflate, GZIP"))
	assert.True(t, acceptsGzip("gzip; q=0.5"))
	assert.False(t, acceptsGzip("gzip; q=0"))
	assert.False(t, acceptsGzip("gzip;q=0.000"))
	assert.False(t, acceptsGzip("br"))
	assert.False(t, acceptsGzip(""))
}
