package httpx

import (
	"net/http"

	"github.com/target/userdeck/internal/async"
	apperrors "github.com/target/userdeck/internal/errors"
)

const (
	errMsgUsers        = "Error fetching users"
	errMsgUserNotFound = "User not found"
)

func usersMeta() PageMeta {
	return PageMeta{Title: "Users - Userdeck", PageTitle: "Users", CurrentPage: PageUsers}
}

func userMeta() PageMeta {
	return PageMeta{Title: "User - Userdeck", PageTitle: "User", CurrentPage: PageUser}
}

// usersView normalizes ?view= to table or grid.
func usersView(r *http.Request) string {
	if r.URL.Query().Get("view") == ViewGrid {
		return ViewGrid
	}
	return ViewTable
}

// UsersPage lists every user as a table or a card grid.
// GET /users?view=table|grid.
func (h *UIHandlers) UsersPage(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.Directory(r.Context())
	if handleUnauthorized(w, r, err) {
		return
	}
	res := async.From(users, err)

	b := WithResult(h.pageData(r, usersMeta()), "Users", res, errMsgUsers).
		With("View", usersView(r)).
		With("RetryURL", r.URL.RequestURI())

	if res.Failed() {
		h.logger().WarnContext(r.Context(), "user directory load failed", "error", err)
		msg := res.Message(errMsgUsers)
		if IsHTMX(r) {
			triggerToast(w, msg, "error")
		} else {
			b.With("Toast", msg)
		}
	}
	h.renderPage(w, r, b.Build())
}

// UserPage shows one user's public details.
// GET /users/{id}.
func (h *UIHandlers) UserPage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	u, err := h.Users.User(r.Context(), id)
	if err != nil {
		if apperrors.GetStatus(err) == http.StatusNotFound {
			err = apperrors.NotFound(errMsgUserNotFound)
		}
		h.RenderError(ErrorOpts{W: w, R: r, Err: err, Fallback: errMsgUserNotFound, PageMeta: userMeta()})
		return
	}

	meta := userMeta()
	if u.Name != "" {
		meta.Title = u.Name + " - Userdeck"
		meta.PageTitle = u.Name
	}
	h.renderPage(w, r, h.pageData(r, meta).With("Profile", u).Build())
}
