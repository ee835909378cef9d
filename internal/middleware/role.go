package middleware // middleware provides shared request processing for handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/carshare-web/internal/guard"
    "github.com/iliyamo/carshare-web/internal/metrics"
    "github.com/iliyamo/carshare-web/internal/model"
)

// RequireRole returns a middleware that admits only signed-in users whose
// role is in roles (any signed-in user when roles is empty).  Signed-out
// visitors are redirected to the login page with the attempted path
// remembered; users with another role go to their own landing page.  It
// assumes LoadSession has already run.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            return applyDecision(c, next, roles)
        }
    }
}

// Guard applies the matching rule of an ordered rule table.  Paths no rule
// matches are public.
func Guard(rules guard.Rules) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            rule, ok := rules.Match(c.Request().URL.Path)
            if !ok {
                return next(c)
            }
            return applyDecision(c, next, rule.Roles)
        }
    }
}

func applyDecision(c echo.Context, next echo.HandlerFunc, roles []model.Role) error {
    user := CurrentUser(c)
    d := guard.Decide(user, roles, c.Request().URL.RequestURI())
    if d.Allow {
        return next(c)
    }
    reason := "role"
    if user == nil {
        reason = "login"
    }
    metrics.GuardRedirects.WithLabelValues(reason).Inc()
    return redirect(c, d.Redirect)
}

// loginFor is the login redirect for the current request.  Only GET
// navigations are remembered; a form post cannot be replayed.
func loginFor(c echo.Context) string {
    if c.Request().Method == http.MethodGet {
        return guard.LoginRedirect(c.Request().URL.RequestURI())
    }
    return guard.LoginPath
}

// redirect answers GET with 302 and other methods with 303 so browsers
// follow with a GET.
func redirect(c echo.Context, to string) error {
    if c.Request().Method == http.MethodGet || c.Request().Method == http.MethodHead {
        return c.Redirect(http.StatusFound, to)
    }
    return c.Redirect(http.StatusSeeOther, to)
}
