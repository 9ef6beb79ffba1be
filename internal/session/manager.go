package session

import (
	"log/slog"
	"net/http"
	"time"
)

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Backend Backend
	// TTLDays is the default lifetime used by callers that do not pass their own.
	TTLDays int
	Logger  *slog.Logger
	// OnClear is invoked once per request when an existing session is cleared.
	OnClear func(reason string)
	// Now overrides the clock (tests).
	Now func() time.Time
}

// Manager creates request-scoped stores bound to one backend.
type Manager struct {
	backend Backend
	ttlDays int
	logger  *slog.Logger
	onClear func(reason string)
	now     func() time.Time
}

// NewManager builds a Manager. Backend is required.
func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.TTLDays
	if ttl <= 0 {
		ttl = 7
	}
	return &Manager{
		backend: opts.Backend,
		ttlDays: ttl,
		logger:  logger.With("component", "session"),
		onClear: opts.OnClear,
		now:     now,
	}
}

// TTLDays returns the configured session lifetime in days.
func (m *Manager) TTLDays() int { return m.ttlDays }

// Attach creates a Store for this request and returns the request with the
// store in its context.
func (m *Manager) Attach(w http.ResponseWriter, r *http.Request) (*http.Request, *Store) {
	store := &Store{
		backend: m.backend,
		w:       w,
		r:       r,
		now:     m.now,
		logger:  m.logger,
		onClear: m.onClear,
	}
	r = r.WithContext(NewContext(r.Context(), store))
	store.r = r
	return r, store
}
