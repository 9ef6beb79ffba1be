package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/userdeck/internal/domain/auth"
	"github.com/target/userdeck/internal/domain/model"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(b Backend, onClear func(string)) *Manager {
	return NewManager(ManagerOptions{
		Backend: b,
		TTLDays: 7,
		OnClear: onClear,
		Now:     func() time.Time { return fixedNow },
	})
}

// carryCookies builds the next browser request from the cookies set on rec,
// dropping cookies that were expired.
func carryCookies(t *testing.T, prev *http.Request, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	jar := map[string]*http.Cookie{}
	if prev != nil {
		for _, c := range prev.Cookies() {
			jar[c.Name] = c
		}
	}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(jar, c.Name)
			continue
		}
		jar[c.Name] = c
	}
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range jar {
		next.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return next
}

func signedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestStore_SetThenGet(t *testing.T) {
	m := newTestManager(&CookieBackend{}, nil)
	user := model.User{ID: "u1", Name: "Ada", Email: "a@b.com"}

	rec := httptest.NewRecorder()
	_, store := m.Attach(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, store.Set("t1", user, 7))

	// Same request sees the write.
	got := store.Get()
	assert.Equal(t, "t1", got.Token)
	assert.Equal(t, user, got.User)

	// Next request reads it back from cookies.
	next := carryCookies(t, nil, rec)
	_, store2 := m.Attach(httptest.NewRecorder(), next)
	got = store2.Get()
	assert.Equal(t, "t1", got.Token)
	assert.Equal(t, user, got.User)
	assert.True(t, store2.Authenticated())
}

func TestStore_SetWritesCookieAttributes(t *testing.T) {
	m := newTestManager(&CookieBackend{Cookies: CookieOptions{Domain: "example.com"}}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	_, store := m.Attach(rec, req)
	require.NoError(t, store.Set("t1", model.User{ID: "u1"}, 7))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Equal(t, 7*24*60*60, c.MaxAge, c.Name)
		assert.True(t, c.HttpOnly, c.Name)
		assert.True(t, c.Secure, c.Name)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite, c.Name)
		assert.Equal(t, "example.com", c.Domain, c.Name)
	}
}

func TestStore_SetRequiresToken(t *testing.T) {
	m := newTestManager(&CookieBackend{}, nil)
	_, store := m.Attach(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.ErrorIs(t, store.Set("", model.User{ID: "u1"}, 7), ErrNoToken)
	assert.True(t, store.Get().Empty())
}

func TestStore_GetWithoutSession(t *testing.T) {
	m := newTestManager(&CookieBackend{}, nil)
	_, store := m.Attach(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, domainauth.Session{}, store.Get())
	assert.False(t, store.Authenticated())
}

func TestStore_UserWithoutTokenIsUnauthenticated(t *testing.T) {
	m := newTestManager(&CookieBackend{}, nil)
	encoded, err := encodeUser(model.User{ID: "u1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: UserCookie, Value: encoded})
	_, store := m.Attach(httptest.NewRecorder(), req)

	assert.True(t, store.Get().Empty())
	assert.True(t, store.User().IsZero())
}

func TestStore_MalformedUserCookieKeepsToken(t *testing.T) {
	m := newTestManager(&CookieBackend{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "t1"})
	req.AddCookie(&http.Cookie{Name: UserCookie, Value: "%%%not-base64"})
	_, store := m.Attach(httptest.NewRecorder(), req)

	got := store.Get()
	assert.Equal(t, "t1", got.Token)
	assert.True(t, got.User.IsZero())
}

func TestStore_ExpiredJWTIsUnauthenticated(t *testing.T) {
	m := newTestManager(&CookieBackend{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: signedJWT(t, fixedNow.Add(-time.Minute))})
	_, store := m.Attach(httptest.NewRecorder(), req)

	assert.True(t, store.Get().Empty())
}

func TestStore_ValidJWTExpiryCapsSession(t *testing.T) {
	m := newTestManager(&CookieBackend{}, nil)
	exp := fixedNow.Add(time.Hour)
	tok := signedJWT(t, exp)

	_, store := m.Attach(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	require.NoError(t, store.Set(tok, model.User{ID: "u1"}, 7))

	got := store.Get()
	assert.Equal(t, tok, got.Token)
	assert.True(t, got.ExpiresAt.Equal(exp.Truncate(time.Second)))
}

func TestStore_ClearThenGet(t *testing.T) {
	var reasons []string
	m := newTestManager(&CookieBackend{}, func(r string) { reasons = append(reasons, r) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "t1"})
	rec := httptest.NewRecorder()
	_, store := m.Attach(rec, req)

	require.NoError(t, store.Clear())
	assert.True(t, store.Get().Empty())
	assert.Equal(t, []string{"logout"}, reasons)

	next := carryCookies(t, req, rec)
	_, store2 := m.Attach(httptest.NewRecorder(), next)
	assert.True(t, store2.Get().Empty())
}

func TestStore_ClearTwiceIsIdempotent(t *testing.T) {
	calls := 0
	m := newTestManager(&CookieBackend{}, func(string) { calls++ })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "t1"})
	rec := httptest.NewRecorder()
	_, store := m.Attach(rec, req)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	assert.True(t, store.Get().Empty())
	assert.Equal(t, 1, calls)
	// Deletion cookies are written once.
	assert.Len(t, rec.Result().Cookies(), 2)
}

func TestStore_ClearWithoutSession(t *testing.T) {
	calls := 0
	m := newTestManager(&CookieBackend{}, func(string) { calls++ })
	_, store := m.Attach(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	assert.Zero(t, calls)
}

func TestStore_SetAfterClear(t *testing.T) {
	m := newTestManager(&CookieBackend{}, nil)
	_, store := m.Attach(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Set("t2", model.User{ID: "u2"}, 1))
	assert.Equal(t, "t2", store.Token())
	require.NoError(t, store.Clear())
	assert.Empty(t, store.Token())
}

func TestStore_UpdateUser(t *testing.T) {
	m := newTestManager(&CookieBackend{}, nil)
	_, store := m.Attach(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	// No session: no-op.
	require.NoError(t, store.UpdateUser(model.User{ID: "x"}))
	assert.True(t, store.Get().Empty())

	require.NoError(t, store.Set("t1", model.User{ID: "u1", Name: "Old"}, 7))
	require.NoError(t, store.UpdateUser(model.User{ID: "u1", Name: "New"}))
	got := store.Get()
	assert.Equal(t, "t1", got.Token)
	assert.Equal(t, "New", got.User.Name)
}

func TestStore_NilIsEmpty(t *testing.T) {
	var store *Store
	assert.True(t, store.Get().Empty())
	require.NoError(t, store.Clear())
	require.ErrorIs(t, store.Set("t", model.User{}, 1), ErrNoStore)
	require.ErrorIs(t, store.UpdateUser(model.User{}), ErrNoStore)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	m := newTestManager(&CookieBackend{}, nil)
	_, store := m.Attach(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, store.Set("t1", model.User{ID: "u1"}, 7))

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := store.Get()
			// Either the full session or nothing, never a token without its user.
			if s.Token != "" {
				assert.Equal(t, "u1", s.User.ID)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = store.Clear()
	}()
	wg.Wait()
}

func TestFromContext(t *testing.T) {
	m := newTestManager(&CookieBackend{}, nil)
	r, store := m.Attach(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Same(t, store, FromContext(r.Context()))
	assert.Nil(t, FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

type failingBackend struct{ *CookieBackend }

func (failingBackend) Save(http.ResponseWriter, *http.Request, domainauth.Session, time.Duration) (domainauth.Session, error) {
	return domainauth.Session{}, errors.New("disk full")
}

func TestStore_SetPropagatesBackendError(t *testing.T) {
	m := newTestManager(failingBackend{&CookieBackend{}}, nil)
	_, store := m.Attach(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Error(t, store.Set("t1", model.User{}, 7))
	assert.True(t, store.Get().Empty())
}

func TestStatic(t *testing.T) {
	s := Static("t1")
	assert.Equal(t, "t1", s.Token())
	assert.True(t, s.Authenticated())

	ctx := NewContext(context.Background(), s)
	assert.Same(t, s, FromContext(ctx))

	require.NoError(t, s.Clear())
	assert.Empty(t, s.Token())
	require.NoError(t, s.Clear())

	assert.Empty(t, Static("").Token())
}
