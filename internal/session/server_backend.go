package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/target/userdeck/internal/domain/auth"
	"github.com/target/userdeck/internal/ports"
)

// SessionIDCookie carries the opaque session id for ServerBackend.
const SessionIDCookie = "sid"

// ServerBackend keeps the session in a ports.SessionStore (Redis in
// production) and gives the browser only an opaque id.
type ServerBackend struct {
	Store   ports.SessionStore
	Cookies CookieOptions
	// IsNotFound classifies store misses; when nil every Get error is treated as a miss.
	IsNotFound func(error) bool
}

var _ Backend = (*ServerBackend)(nil)

// Load resolves the sid cookie against the store.
func (b *ServerBackend) Load(r *http.Request) (domainauth.Session, error) {
	c, err := r.Cookie(SessionIDCookie)
	if err != nil || c.Value == "" {
		return domainauth.Session{}, nil
	}
	sess, err := b.Store.Get(r.Context(), c.Value)
	if err != nil {
		if b.IsNotFound == nil || b.IsNotFound(err) {
			return domainauth.Session{}, nil
		}
		return domainauth.Session{}, err
	}
	return sess, nil
}

// Save persists sess under its id, minting one when missing.
func (b *ServerBackend) Save(w http.ResponseWriter, r *http.Request, sess domainauth.Session, ttl time.Duration) (domainauth.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.ExpiresAt.IsZero() {
		sess.ExpiresAt = time.Now().Add(ttl)
	}
	if err := b.Store.Save(r.Context(), sess); err != nil {
		return domainauth.Session{}, err
	}
	b.Cookies.set(w, r, SessionIDCookie, sess.ID, ttl)
	return sess, nil
}

// Clear deletes the stored session and expires the sid cookie.
func (b *ServerBackend) Clear(w http.ResponseWriter, r *http.Request, sess domainauth.Session) error {
	id := sess.ID
	if id == "" {
		if c, cerr := r.Cookie(SessionIDCookie); cerr == nil {
			id = c.Value
		}
	}
	var err error
	if id != "" {
		err = b.Store.Delete(r.Context(), id)
	}
	b.Cookies.clear(w, r, SessionIDCookie)
	if err != nil {
		return errors.Join(errors.New("session: delete stored session"), err)
	}
	return nil
}
