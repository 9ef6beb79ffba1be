package httpx

import (
	"net/http"

	"github.com/target/userdeck/internal/session"
)

// GuardState is the route guard's decision for one request.
type GuardState int

const (
	// GuardPending is the state before the session has been inspected.
	GuardPending GuardState = iota
	// GuardAllowed lets the protected handler run.
	GuardAllowed
	// GuardRedirecting sends the visitor to the login page. Terminal.
	GuardRedirecting
)

func (s GuardState) String() string {
	switch s {
	case GuardPending:
		return "pending"
	case GuardAllowed:
		return "allowed"
	case GuardRedirecting:
		return "redirecting"
	default:
		return "unknown"
	}
}

// Guard evaluates a session store exactly once.
type Guard struct {
	state GuardState
}

// NewGuard returns a guard in GuardPending.
func NewGuard() *Guard { return &Guard{state: GuardPending} }

// State returns the current decision.
func (g *Guard) State() GuardState { return g.state }

// Evaluate moves a pending guard to GuardAllowed when the store holds a
// non-expired token and to GuardRedirecting otherwise. Decided guards keep
// their state.
func (g *Guard) Evaluate(store *session.Store) GuardState {
	if g.state != GuardPending {
		return g.state
	}
	if store.Authenticated() {
		g.state = GuardAllowed
	} else {
		g.state = GuardRedirecting
	}
	return g.state
}

// RequireSession lets the request through only for signed-in visitors.
// Everyone else is redirected to the login page before the handler writes anything.
func RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if NewGuard().Evaluate(session.FromContext(r.Context())) != GuardAllowed {
				redirectToLogin(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RedirectIfAuthenticated sends signed-in visitors away from the login and
// signup pages.
func RedirectIfAuthenticated(dest string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session.FromContext(r.Context()).Authenticated() {
				redirect(w, r, dest)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// redirect performs a full navigation for htmx and plain requests alike.
func redirect(w http.ResponseWriter, r *http.Request, dest string) {
	if IsHTMX(r) {
		HTMX(w).Redirect(dest)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}
