package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/target/userdeck/internal/domain/model"
	apperrors "github.com/target/userdeck/internal/errors"
	"github.com/target/userdeck/internal/service"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthNonceCookie    = "oauth_nonce"
	postLoginCookie     = "post_login_redirect"
	oauthCookieLifetime = 10 * time.Minute

	msgIncorrectCredentials = "Incorrect email or password."
	msgGoogleFailed         = "Google sign-in failed. Please try again."
)

func loginMeta() PageMeta {
	return PageMeta{Title: "Sign in - Userdeck", PageTitle: "Sign in", CurrentPage: PageLogin}
}

func signupMeta() PageMeta {
	return PageMeta{Title: "Create account - Userdeck", PageTitle: "Create account", CurrentPage: PageSignup}
}

// postLoginPath resolves where to go after signing in.
func postLoginPath(candidate string) string {
	p := safeRedirectPath(candidate)
	if p == "/" || p == PathLogin || p == PathSignup {
		return PathDashboard
	}
	return p
}

// LoginPage renders the sign-in form.
// GET /login?redirect_uri=<optional_redirect>&notice=<optional_notice>.
func (h *UIHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := h.pageData(r, loginMeta()).
		WithNotice(noticeMessage(q.Get("notice"))).
		With("RedirectURI", postLoginPath(q.Get(fieldRedirectURI))).
		Build()
	h.renderPage(w, r, data)
}

// Login validates the credentials, stores the session and navigates to the
// requested page.
// POST /login.
func (h *UIHandlers) Login(w http.ResponseWriter, r *http.Request) {
	req, values, err := readForm(r, h.MultipartMemory, parseLoginForm)
	redirectURI := postLoginPath(r.PostFormValue(fieldRedirectURI))
	if err == nil {
		_, err = h.Auth.Login(r.Context(), req)
	}
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			// The login call carries no token, so this is a credential failure,
			// not an expired session.
			err = apperrors.Application(http.StatusUnauthorized, msgIncorrectCredentials)
		}
		h.RenderError(ErrorOpts{
			W: w, R: r, Err: err,
			Fallback:   "Login failed",
			PageMeta:   loginMeta(),
			StatusCode: loginErrorStatus(err),
			Data:       map[string]any{"Values": values, "RedirectURI": redirectURI},
		})
		return
	}

	redirect(w, r, redirectURI)
}

func loginErrorStatus(err error) int {
	if apperrors.GetStatus(err) == http.StatusUnauthorized {
		return http.StatusUnauthorized
	}
	return 0
}

// SignupPage renders the registration form.
// GET /signup.
func (h *UIHandlers) SignupPage(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r, signupMeta()).
		With("Genders", model.Genders()).
		Build()
	h.renderPage(w, r, data)
}

// Signup validates and submits the registration form. Nothing reaches the
// remote API when validation fails. Success leads to the sign-in page.
// POST /signup.
func (h *UIHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	req, values, err := readForm(r, h.MultipartMemory, parseSignupForm)
	if err == nil {
		err = h.Auth.Signup(r.Context(), req)
	}
	if err != nil {
		h.RenderError(ErrorOpts{
			W: w, R: r, Err: err,
			Fallback: "Signup failed",
			PageMeta: signupMeta(),
			Data:     map[string]any{"Values": values, "Genders": model.Genders()},
		})
		return
	}

	redirect(w, r, PathLogin+"?notice="+NoticeAccountCreated)
}

// GoogleLogin starts the Google sign-in flow.
// GET /auth/google/login?redirect_uri=<optional_redirect>.
func (h *UIHandlers) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.googleEnabled() {
		h.NotFound(w, r)
		return
	}
	redirectURI := postLoginPath(r.URL.Query().Get(fieldRedirectURI))

	result, err := h.Auth.BeginGoogleLogin(r.Context(), redirectURI)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin google login failed", "error", err)
		h.RenderError(ErrorOpts{
			W: w, R: r, Err: err,
			Fallback:   msgGoogleFailed,
			PageMeta:   loginMeta(),
			StatusCode: http.StatusBadGateway,
			Data:       map[string]any{"RedirectURI": redirectURI},
		})
		return
	}

	h.setTempCookie(w, r, oauthStateCookie, result.State)
	h.setTempCookie(w, r, oauthNonceCookie, result.Nonce)
	h.setTempCookie(w, r, postLoginCookie, redirectURI)

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// GoogleCallback finishes the Google flow, trades the Google access token for
// an API token and stores the session.
// GET /auth/google/callback?code=<code>&state=<state>.
func (h *UIHandlers) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	redirectURI := h.consumePostLoginRedirect(w, r)
	// The flow cookies are single use; clear them before anything is written.
	stateCookie, stateErr := r.Cookie(oauthStateCookie)
	nonceCookie, nonceErr := r.Cookie(oauthNonceCookie)
	h.clearCookie(w, r, oauthStateCookie)
	h.clearCookie(w, r, oauthNonceCookie)

	fail := func(err error, status int) {
		h.logger().WarnContext(r.Context(), "google callback rejected", "error", err)
		h.RenderError(ErrorOpts{
			W: w, R: r, Err: err,
			Fallback:   msgGoogleFailed,
			PageMeta:   loginMeta(),
			StatusCode: status,
			Data:       map[string]any{"RedirectURI": redirectURI},
		})
	}

	if providerErr := q.Get("error"); providerErr != "" {
		fail(errors.New("provider returned "+providerErr), http.StatusBadRequest)
		return
	}
	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		fail(errors.New("authorization code and state are required"), http.StatusBadRequest)
		return
	}
	if stateErr != nil || stateCookie.Value != state {
		fail(errors.New("invalid or missing state parameter"), http.StatusBadRequest)
		return
	}
	if nonceErr != nil || nonceCookie.Value == "" {
		fail(errors.New("missing nonce"), http.StatusBadRequest)
		return
	}

	_, err := h.Auth.CompleteGoogleLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			err = apperrors.Application(http.StatusUnauthorized, msgGoogleFailed)
		}
		fail(err, http.StatusBadGateway)
		return
	}

	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// Logout clears the session and returns to the sign-in page.
// POST /logout.
func (h *UIHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context()); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "error", err)
	}
	redirect(w, r, PathLogin+"?notice="+NoticeSignedOut)
}

func (h *UIHandlers) setTempCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(oauthCookieLifetime.Seconds()),
	})
}

// clearCookie mirrors the attributes used when setting so browsers drop it.
func (h *UIHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// consumePostLoginRedirect returns the stored destination and clears the cookie.
func (h *UIHandlers) consumePostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(postLoginCookie)
	if err != nil {
		return PathDashboard
	}
	h.clearCookie(w, r, postLoginCookie)
	v, err := url.QueryUnescape(c.Value)
	if err != nil {
		return PathDashboard
	}
	return postLoginPath(v)
}
