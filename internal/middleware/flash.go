package middleware

import (
    "encoding/gob"

    "github.com/gorilla/sessions"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/carshare-web/internal/notify"
)

// FlashCookieName is the gorilla cookie session carrying flashes and the
// support desk's local settings.
const FlashCookieName = "carshare_ui"

const keyCookieStore = "cookie_store"

func init() {
    gob.Register(notify.Notification{})
}

// NewCookieStore builds the signed cookie store for UI state.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
    store := sessions.NewCookieStore([]byte(secret))
    store.Options = &sessions.Options{
        Path:     "/",
        MaxAge:   86400 * 30,
        HttpOnly: true,
        Secure:   secure,
    }
    return store
}

// CookieStore exposes store to handlers through the echo context.
func CookieStore(store sessions.Store) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            c.Set(keyCookieStore, store)
            return next(c)
        }
    }
}

// UISession returns the request's cookie session.  A tampered cookie
// yields a fresh, empty session; ok is false when no store is installed.
func UISession(c echo.Context) (s *sessions.Session, ok bool) {
    store, ok := c.Get(keyCookieStore).(sessions.Store)
    if !ok {
        return nil, false
    }
    s, err := store.Get(c.Request(), FlashCookieName)
    if err != nil {
        s, _ = store.New(c.Request(), FlashCookieName)
    }
    return s, true
}

// AddFlashes queues notifications to be shown after a redirect.
func AddFlashes(c echo.Context, items []notify.Notification) error {
    if len(items) == 0 {
        return nil
    }
    s, ok := UISession(c)
    if !ok {
        return nil
    }
    for _, n := range items {
        s.AddFlash(n)
    }
    return s.Save(c.Request(), c.Response())
}

// PopFlashes drains queued notifications.
func PopFlashes(c echo.Context) []notify.Notification {
    s, ok := UISession(c)
    if !ok {
        return nil
    }
    raw := s.Flashes()
    if len(raw) == 0 {
        return nil
    }
    out := make([]notify.Notification, 0, len(raw))
    for _, f := range raw {
        if n, ok := f.(notify.Notification); ok {
            out = append(out, n)
        }
    }
    _ = s.Save(c.Request(), c.Response())
    return out
}
