package session

import (
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/target/userdeck/internal/domain/auth"
)

// Static returns a Store that holds token without being bound to a browser
// request. Command-line tools use it to call the API as a given user; Set,
// UpdateUser and Clear only affect the in-memory copy.
func Static(token string) *Store {
	b := &staticBackend{sess: domainauth.Session{Token: token}}
	return &Store{
		backend: b,
		now:     time.Now,
		logger:  slog.New(slog.DiscardHandler),
	}
}

type staticBackend struct {
	sess domainauth.Session
}

func (b *staticBackend) Load(*http.Request) (domainauth.Session, error) { return b.sess, nil }

func (b *staticBackend) Save(_ http.ResponseWriter, _ *http.Request, sess domainauth.Session, _ time.Duration) (domainauth.Session, error) {
	b.sess = sess
	return sess, nil
}

func (b *staticBackend) Clear(http.ResponseWriter, *http.Request, domainauth.Session) error {
	b.sess = domainauth.Session{}
	return nil
}
