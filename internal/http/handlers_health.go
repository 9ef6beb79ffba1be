package httpx

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"
)

// readinessTimeout bounds the whole /readyz run so a hung dependency does not
// hold the probe open.
const readinessTimeout = 2 * time.Second

// HealthCheck reports whether a dependency, such as the Redis session store,
// can serve requests.
type HealthCheck func(ctx context.Context) error

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler answers liveness probes. It never touches dependencies: a
// process that can serve this is alive.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, r, http.StatusOK, healthResponse{Status: "ok"})
}

// readinessHandler runs every check and answers 503 when any fails. The
// failing check's error is logged; the response only names it.
func readinessHandler(checks map[string]HealthCheck, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	names := slices.Sorted(maps.Keys(checks))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
				resp.Checks[name] = "unavailable"
				resp.Status = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		writeHealth(w, r, status, resp)
	})
}

func writeHealth(w http.ResponseWriter, r *http.Request, status int, resp healthResponse) {
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		return
	}
	WriteJSON(w, status, resp)
}
