package session

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	domainauth "github.com/target/userdeck/internal/domain/auth"
	"github.com/target/userdeck/internal/domain/model"
)

// Cookie names used by CookieBackend.
const (
	TokenCookie = "token"
	UserCookie  = "user"
)

// CookieBackend keeps the whole session in two browser cookies: the raw
// token and the user profile as base64url JSON.
type CookieBackend struct {
	Cookies CookieOptions
}

var _ Backend = (*CookieBackend)(nil)

// Load reads the token and user cookies. A malformed user cookie yields an
// empty user, never an error.
func (b *CookieBackend) Load(r *http.Request) (domainauth.Session, error) {
	tc, err := r.Cookie(TokenCookie)
	if err != nil || tc.Value == "" {
		return domainauth.Session{}, nil
	}
	sess := domainauth.Session{Token: tc.Value}
	if uc, err := r.Cookie(UserCookie); err == nil {
		sess.User = decodeUser(uc.Value)
	}
	return sess, nil
}

// Save writes both cookies with the same lifetime.
func (b *CookieBackend) Save(w http.ResponseWriter, r *http.Request, sess domainauth.Session, ttl time.Duration) (domainauth.Session, error) {
	encoded, err := encodeUser(sess.User)
	if err != nil {
		return domainauth.Session{}, err
	}
	b.Cookies.set(w, r, TokenCookie, sess.Token, ttl)
	b.Cookies.set(w, r, UserCookie, encoded, ttl)
	return sess, nil
}

// Clear expires both cookies.
func (b *CookieBackend) Clear(w http.ResponseWriter, r *http.Request, _ domainauth.Session) error {
	b.Cookies.clear(w, r, TokenCookie)
	b.Cookies.clear(w, r, UserCookie)
	return nil
}

func encodeUser(u model.User) (string, error) {
	raw, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeUser(v string) model.User {
	raw, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return model.User{}
	}
	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return model.User{}
	}
	return u
}
