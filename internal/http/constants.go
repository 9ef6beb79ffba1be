package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
const (
	PageLogin       = "login"
	PageSignup      = "signup"
	PageDashboard   = "dashboard"
	PageUsers       = "users"
	PageUser        = "user"
	PageProfile     = "profile"
	PageProfileView = "profile-view"
)

// Browser-facing paths.
const (
	PathHome           = "/"
	PathLogin          = "/login"
	PathSignup         = "/signup"
	PathLogout         = "/logout"
	PathDashboard      = "/dashboard"
	PathUsers          = "/users"
	PathProfile        = "/profile"
	PathGoogleLogin    = "/auth/google/login"
	PathGoogleCallback = "/auth/google/callback"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
	StaticPathFromRoot   = "frontend/static"
)

// Users directory layouts selected with ?view=.
const (
	ViewTable = "table"
	ViewGrid  = "grid"
)

// Notices shown after a redirect, keyed by the ?notice= value.
const (
	NoticeAccountCreated = "account_created"
	NoticeSignedOut      = "signed_out"
	NoticeProfileUpdated = "profile_updated"
)

//nolint:gochecknoglobals // static read-only lookup
var notices = map[string]string{
	NoticeAccountCreated: "Account created. Please sign in.",
	NoticeSignedOut:      "You have been signed out.",
	NoticeProfileUpdated: msgProfileUpdated,
}

// noticeMessage maps a notice key to its text; unknown keys render nothing.
func noticeMessage(key string) string {
	return notices[key]
}

// Content templates are defined once and reused to avoid per-call allocations.
//
//nolint:gochecknoglobals // static read-only lookup for templates; avoids per-call allocations
var contentTemplates = map[string]string{
	PageLogin:       "login-content",
	PageSignup:      "signup-content",
	PageDashboard:   "dashboard-content",
	PageUsers:       "users-content",
	PageUser:        "user-content",
	PageProfile:     "profile-content",
	PageProfileView: "profile-content",
}

// ContentTemplateMap returns the mapping from CurrentPage to template name.
func ContentTemplateMap() map[string]string { return contentTemplates }

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to dashboard-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := ContentTemplateMap()[currentPage]; ok {
		return name
	}
	return "dashboard-content"
}
