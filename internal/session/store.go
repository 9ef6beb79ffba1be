// Package session implements the browser session: a bearer token for the
// remote user API plus a cached copy of the signed-in user.
//
// A Store is created per request by Manager.Attach and travels in the
// request context. It is safe for concurrent use by the page's parallel
// fetches.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	domainauth "github.com/target/userdeck/internal/domain/auth"
	"github.com/target/userdeck/internal/domain/model"
)

// ErrNoToken is returned by Set when called without a token.
var ErrNoToken = errors.New("session: token is required")

// ErrNoStore is returned when a request context carries no session store.
var ErrNoStore = errors.New("session: no store in context")

// Day is the unit of session lifetimes.
const Day = 24 * time.Hour

// Backend persists a session across requests.
type Backend interface {
	// Load reads the session carried by r. A missing session is not an error.
	Load(r *http.Request) (domainauth.Session, error)
	// Save writes sess so that later requests can Load it until ttl elapses.
	Save(w http.ResponseWriter, r *http.Request, sess domainauth.Session, ttl time.Duration) (domainauth.Session, error)
	// Clear removes the persisted session sess (as last loaded or saved) for r.
	Clear(w http.ResponseWriter, r *http.Request, sess domainauth.Session) error
}

// Store is the request-scoped view of the session.
type Store struct {
	backend Backend
	w       http.ResponseWriter
	r       *http.Request
	now     func() time.Time
	logger  *slog.Logger
	onClear func(reason string)

	mu      sync.Mutex
	loaded  bool
	cleared bool
	current domainauth.Session
}

// Get returns the current session, or the zero session when it is absent or
// expired. Absence is not an error.
func (s *Store) Get() domainauth.Session {
	if s == nil {
		return domainauth.Session{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	if !s.current.IsAuthenticated(s.now()) {
		return domainauth.Session{}
	}
	return s.current
}

// Token is shorthand for Get().Token.
func (s *Store) Token() string {
	return s.Get().Token
}

// User returns the cached user of an authenticated session.
func (s *Store) User() model.User {
	return s.Get().User
}

// Authenticated reports whether the session holds a non-expired token.
func (s *Store) Authenticated() bool {
	return !s.Get().Empty()
}

// Set stores token and user for ttlDays days, replacing any previous session.
func (s *Store) Set(token string, user model.User, ttlDays int) error {
	if s == nil {
		return ErrNoStore
	}
	if token == "" {
		return ErrNoToken
	}
	if ttlDays <= 0 {
		ttlDays = 1
	}
	ttl := time.Duration(ttlDays) * Day

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	if s.current.ID != "" {
		// A new sign-in never reuses a server-side session id.
		if err := s.backend.Clear(s.w, s.r, s.current); err != nil {
			s.logger.Warn("drop previous session failed", "error", err)
		}
	}
	sess := domainauth.Session{
		Token:     token,
		User:      user,
		ExpiresAt: s.now().Add(ttl),
	}
	if exp, ok := TokenExpiry(token); ok && exp.Before(sess.ExpiresAt) {
		sess.ExpiresAt = exp
	}

	saved, err := s.backend.Save(s.w, s.r, sess, ttl)
	if err != nil {
		return err
	}
	s.current = saved
	s.cleared = false
	return nil
}

// UpdateUser replaces the cached user of the current session, keeping its
// token and remaining lifetime. It is a no-op when no session exists.
func (s *Store) UpdateUser(user model.User) error {
	if s == nil {
		return ErrNoStore
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	if !s.current.IsAuthenticated(s.now()) {
		return nil
	}
	sess := s.current
	sess.User = user

	ttl := Day
	if !sess.ExpiresAt.IsZero() {
		ttl = sess.ExpiresAt.Sub(s.now())
	}
	saved, err := s.backend.Save(s.w, s.r, sess, ttl)
	if err != nil {
		return err
	}
	s.current = saved
	return nil
}

// Clear removes the session. Calling it again in the same request is a no-op.
func (s *Store) Clear() error {
	return s.ClearWithReason("logout")
}

// ClearWithReason is Clear with a reason reported to the clear hook.
func (s *Store) ClearWithReason(reason string) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cleared {
		return nil
	}
	s.loadLocked()
	had := !s.current.Empty()

	if err := s.backend.Clear(s.w, s.r, s.current); err != nil {
		return err
	}
	s.current = domainauth.Session{}
	s.cleared = true

	if had && s.onClear != nil {
		s.onClear(reason)
	}
	return nil
}

func (s *Store) loadLocked() {
	if s.loaded {
		return
	}
	s.loaded = true

	sess, err := s.backend.Load(s.r)
	if err != nil {
		s.logger.Debug("session load failed", "error", err)
		return
	}
	if sess.Token == "" {
		return
	}
	if exp, ok := TokenExpiry(sess.Token); ok && (sess.ExpiresAt.IsZero() || exp.Before(sess.ExpiresAt)) {
		sess.ExpiresAt = exp
	}
	s.current = sess
}

type storeKey struct{}

// NewContext returns a child context carrying store.
func NewContext(ctx context.Context, store *Store) context.Context {
	if store == nil {
		return ctx
	}
	return context.WithValue(ctx, storeKey{}, store)
}

// FromContext returns the store carried by ctx, or nil. A nil *Store is safe
// to call and behaves as an empty session.
func FromContext(ctx context.Context) *Store {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(storeKey{}).(*Store)
	return s
}
