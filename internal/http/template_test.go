package httpx

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/userdeck/internal/domain/model"
	"github.com/target/userdeck/internal/testutil"
)

func TestTemplateRenderer_LoadTemplates(t *testing.T) {
	tr := RequireTemplateRenderer(t)
	require.NotNil(t, tr)

	for _, name := range []string{
		"layout", "content", "error-layout", "navbar", "alerts", "field-error",
		"login-content", "signup-content", "dashboard-content", "users-content",
		"user-content", "profile-content",
	} {
		assert.NotNil(t, tr.t.Lookup(name), "template %s should be defined", name)
	}
	for page, name := range ContentTemplateMap() {
		assert.NotNil(t, tr.t.Lookup(name), "content template for page %s", page)
	}
}

func TestNewTemplateRenderer_RequiresFS(t *testing.T) {
	_, err := NewTemplateRenderer(TemplateRendererConfig{})
	assert.Error(t, err)
}

// Every page renders as a full document and as an htmx fragment.
func TestTemplates_RenderEveryPage(t *testing.T) {
	tr := RequireTemplateRenderer(t)
	joined := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ada := testutil.NewUser().CreatedAt(joined).Build()

	pages := map[string]PageMeta{
		PageLogin:       loginMeta(),
		PageSignup:      signupMeta(),
		PageDashboard:   dashboardMeta(),
		PageUsers:       usersMeta(),
		PageUser:        userMeta(),
		PageProfile:     profileMeta(),
		PageProfileView: profileViewMeta(ada),
	}
	for page, meta := range pages {
		t.Run(page, func(t *testing.T) {
			r := withSession(httptest.NewRequest(http.MethodGet, "/", nil), "t1")
			data := NewTemplateData(r, meta).
				With("Genders", model.Genders()).
				With("RedirectURI", "/dashboard").
				With("Dashboard", model.Dashboard{Recent: testutil.RecentFrom(ada)}).
				With("Users", []model.User{ada}).
				With("View", ViewGrid).
				With("Profile", ada).
				With("Own", true).
				Build()

			var full bytes.Buffer
			require.NoError(t, tr.RenderNamed(&full, "layout", data))
			assert.Contains(t, full.String(), "<title>"+meta.Title+"</title>")
			assert.Contains(t, full.String(), `id="content"`)

			var partial bytes.Buffer
			require.NoError(t, tr.RenderNamed(&partial, ContentTemplateFor(page), data))
			assert.NotContains(t, partial.String(), "<html")
		})
	}
}

func TestTemplates_NavbarFollowsSession(t *testing.T) {
	tr := RequireTemplateRenderer(t)

	var out bytes.Buffer
	signedOut := NewTemplateData(httptest.NewRequest(http.MethodGet, "/", nil), loginMeta()).Build()
	require.NoError(t, tr.RenderNamed(&out, "navbar", signedOut))
	assert.Contains(t, out.String(), ">Login<")
	assert.NotContains(t, out.String(), "Logout")

	out.Reset()
	signedIn := NewTemplateData(withSession(httptest.NewRequest(http.MethodGet, "/", nil), "t1"), dashboardMeta()).Build()
	require.NoError(t, tr.RenderNamed(&out, "navbar", signedIn))
	assert.True(t, ContainsAll(out.String(), []string{">Dashboard<", ">All Users<", ">Profile<", "Logout", "Ada Lovelace"}))
	assert.NotContains(t, out.String(), ">Login<")
}

func TestTemplates_EscapeUserContent(t *testing.T) {
	tr := RequireTemplateRenderer(t)
	evil := testutil.NewUser().WithName(`<script>alert(1)</script>`).Build()

	r := withSession(httptest.NewRequest(http.MethodGet, "/", nil), "t1")
	data := NewTemplateData(r, userMeta()).With("Profile", evil).Build()

	var out bytes.Buffer
	require.NoError(t, tr.RenderNamed(&out, "user-content", data))
	assert.NotContains(t, out.String(), "<script>alert(1)</script>")
	assert.Contains(t, out.String(), "&lt;script&gt;")
}
