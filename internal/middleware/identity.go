package middleware

// identity.go holds the echo context keys set by LoadSession and the
// accessors handlers use to reach the request's session, resources and
// notifications.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/carshare-web/internal/model"
    "github.com/iliyamo/carshare-web/internal/notify"
    "github.com/iliyamo/carshare-web/internal/resource"
    "github.com/iliyamo/carshare-web/internal/session"
)

const (
    keySession       = "session"
    keyResources     = "resources"
    keyNotifications = "notifications"
)

// SessionOf returns the request's session handle, or nil when LoadSession
// did not run.
func SessionOf(c echo.Context) *session.Handle {
    h, _ := c.Get(keySession).(*session.Handle)
    return h
}

// ResourcesOf returns the request's resource families.
func ResourcesOf(c echo.Context) *resource.Set {
    s, _ := c.Get(keyResources).(*resource.Set)
    return s
}

// NotificationsOf returns the recorder collecting this request's notifications.
func NotificationsOf(c echo.Context) *notify.Recorder {
    if r, ok := c.Get(keyNotifications).(*notify.Recorder); ok {
        return r
    }
    return &notify.Recorder{}
}

// CurrentUser returns the signed-in user or nil.
func CurrentUser(c echo.Context) *model.User {
    h := SessionOf(c)
    if h == nil {
        return nil
    }
    return h.User(c.Request().Context())
}

// userID identifies the caller for rate-limit keys.  It returns "anon"
// when nobody is signed in.
func userID(c echo.Context) string {
    if u := CurrentUser(c); u != nil {
        return strconv.FormatInt(u.ID, 10)
    }
    return "anon"
}
