// Package guard decides whether a navigation may proceed for the current
// session. It is pure; middleware applies the decision.
package guard

import (
	"net/url"
	"strings"

	"github.com/iliyamo/carshare-web/internal/model"
)

// LoginPath is where signed-out navigation is sent.
const LoginPath = "/login"

// Decision is the outcome of a guard check. Redirect is empty when Allow is true.
type Decision struct {
	Allow    bool
	Redirect string
}

// Landing returns the default page for a role.
func Landing(r model.Role) string {
	switch r {
	case model.RoleOwner:
		return "/owner/dashboard"
	case model.RoleAdmin:
		return "/admin"
	case model.RoleSupport:
		return "/support"
	}
	return "/"
}

// LoginRedirect builds the login URL remembering the attempted path.
func LoginRedirect(attempted string) string {
	if attempted == "" || attempted == LoginPath {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(attempted)
}

// Decide applies the table:
//   - no user: redirect to login with the attempted path remembered
//   - role not in allowed: redirect to the role's landing page
//   - otherwise: allow
//
// An empty allowed set admits any signed-in user.
func Decide(user *model.User, allowed []model.Role, path string) Decision {
	if user == nil {
		return Decision{Redirect: LoginRedirect(path)}
	}
	if len(allowed) == 0 {
		return Decision{Allow: true}
	}
	for _, r := range allowed {
		if user.Role == r {
			return Decision{Allow: true}
		}
	}
	return Decision{Redirect: Landing(user.Role)}
}

// SafeNext validates a remembered path before redirecting to it after login.
// Only same-origin absolute paths are accepted.
func SafeNext(next string) (string, bool) {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "", false
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" || u.Scheme != "" {
		return "", false
	}
	return next, true
}

// AfterLogin picks where to send a freshly signed-in user: the remembered
// path when it is safe and the role may open it, otherwise the role's
// landing page. canOpen reports the roles allowed on a path (nil = any).
func AfterLogin(user model.User, next string, canOpen func(path string) []model.Role) string {
	if p, ok := SafeNext(next); ok {
		var allowed []model.Role
		if canOpen != nil {
			allowed = canOpen(p)
		}
		if Decide(&user, allowed, p).Allow {
			return p
		}
	}
	return Landing(user.Role)
}
