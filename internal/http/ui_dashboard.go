package httpx

import (
	"net/http"

	"github.com/target/userdeck/internal/async"
	apperrors "github.com/target/userdeck/internal/errors"
)

const errMsgDashboard = "Failed to fetch dashboard data"

func dashboardMeta() PageMeta {
	return PageMeta{Title: "Dashboard - Userdeck", PageTitle: "Dashboard", CurrentPage: PageDashboard}
}

// DashboardPage serves the analytics overview and the recently registered users.
// Both calls are issued together; a failure renders an inline error with a
// retry control instead of the statistics.
func (h *UIHandlers) DashboardPage(w http.ResponseWriter, r *http.Request) {
	dash, err := h.Dashboard.Load(r.Context())
	if handleUnauthorized(w, r, err) {
		return
	}
	res := async.From(dash, err)
	if res.Failed() {
		h.logger().WarnContext(r.Context(), "dashboard load failed", "error", err)
	}

	b := WithResult(h.pageData(r, dashboardMeta()), "Dashboard", res, errMsgDashboard)
	data := b.With("RetryURL", PathDashboard).Build()

	status := http.StatusOK
	if res.Failed() && !IsHTMX(r) && apperrors.IsNetwork(err) {
		status = http.StatusBadGateway
	}
	h.renderPageStatus(w, r, status, data)
}
