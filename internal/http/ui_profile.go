package httpx

import (
	"net/http"

	"github.com/target/userdeck/internal/domain/model"
	apperrors "github.com/target/userdeck/internal/errors"
	"github.com/target/userdeck/internal/service"
	"github.com/target/userdeck/internal/session"
)

const (
	msgProfileUpdated     = "Profile updated!"
	errMsgProfile         = "Error fetching profile"
	errMsgProfileUpdating = "Error updating profile"
)

func profileMeta() PageMeta {
	return PageMeta{Title: "Profile - Userdeck", PageTitle: "Profile", CurrentPage: PageProfile}
}

func profileViewMeta(u model.User) PageMeta {
	meta := PageMeta{Title: "Profile - Userdeck", PageTitle: "Profile", CurrentPage: PageProfileView}
	if u.Name != "" {
		meta.Title = u.Name + " - Userdeck"
		meta.PageTitle = u.Name
	}
	return meta
}

// ProfilePage shows the signed-in user's profile with the edit form.
// GET /profile.
func (h *UIHandlers) ProfilePage(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Profile(r.Context())
	if err != nil {
		h.RenderError(ErrorOpts{W: w, R: r, Err: err, Fallback: errMsgProfile, PageMeta: profileMeta()})
		return
	}
	data := h.pageData(r, profileMeta()).
		WithNotice(noticeMessage(r.URL.Query().Get("notice"))).
		WithValues(profileValues(u)).
		With("Profile", u).
		With("Own", true).
		Build()
	h.renderPage(w, r, data)
}

// UpdateProfile saves name, email and an optional new picture. The cached
// session user is refreshed by the service on success.
// POST /profile.
func (h *UIHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	req, values, err := readForm(r, h.MultipartMemory, parseProfileForm)
	var updated model.User
	if err == nil {
		updated, err = h.Users.UpdateProfile(r.Context(), req)
	}
	if err != nil {
		current := session.FromContext(r.Context()).User()
		h.RenderError(ErrorOpts{
			W: w, R: r, Err: err,
			Fallback:  errMsgProfileUpdating,
			PageMeta:  profileMeta(),
			ShowToast: true,
			Data: map[string]any{
				"Values":  values,
				"Profile": current,
				"Own":     true,
			},
		})
		return
	}

	if !IsHTMX(r) {
		http.Redirect(w, r, PathProfile+"?notice="+NoticeProfileUpdated, http.StatusSeeOther)
		return
	}
	triggerToast(w, msgProfileUpdated, "success")
	data := h.pageData(r, profileMeta()).
		WithNotice(msgProfileUpdated).
		WithValues(profileValues(updated)).
		With("Profile", updated).
		With("Own", true).
		Build()
	h.renderPage(w, r, data)
}

// ProfileViewPage shows any user's profile. Edit controls only appear when
// the id belongs to the signed-in user.
// GET /profile/{id}.
func (h *UIHandlers) ProfileViewPage(w http.ResponseWriter, r *http.Request) {
	view, err := h.Users.ProfileView(r.Context(), r.PathValue("id"))
	if err != nil {
		if apperrors.GetStatus(err) == http.StatusNotFound {
			err = apperrors.NotFound(errMsgUserNotFound)
		}
		h.RenderError(ErrorOpts{W: w, R: r, Err: err, Fallback: errMsgUserNotFound, PageMeta: profileViewMeta(model.User{})})
		return
	}
	h.renderPage(w, r, profileViewData(h.pageData(r, profileViewMeta(view.User)), view))
}

func profileViewData(b *TemplateDataBuilder, view service.ProfileView) map[string]any {
	b.With("Profile", view.User).With("Own", view.Own())
	if view.Own() {
		b.WithValues(profileValues(view.User))
	}
	return b.Build()
}
