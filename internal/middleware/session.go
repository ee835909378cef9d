package middleware

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/carshare-web/internal/apiclient"
    "github.com/iliyamo/carshare-web/internal/notify"
    "github.com/iliyamo/carshare-web/internal/query"
    "github.com/iliyamo/carshare-web/internal/resource"
    "github.com/iliyamo/carshare-web/internal/session"
    "github.com/iliyamo/carshare-web/internal/utils"
)

// SessionConfig wires the per-request dependencies.  API and Query are the
// process-wide clients; LoadSession derives request-scoped views of both.
type SessionConfig struct {
    Secret  string
    Manager *session.Manager
    API     *apiclient.Client
    Query   *query.Client
    Secure  bool
}

// LoadSession resolves the browser's session from the signed cookie and
// builds the request's resource set: an API client bound to the session,
// a query client scoped to the signed-in user, and a notification recorder.
// The cookie is (re)issued when the session was created or rewritten during
// the request and removed when it was cleared.
func LoadSession(cfg SessionConfig) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            ctx := c.Request().Context()

            // An invalid or expired cookie is treated as signed out.
            sid := ""
            if ck, err := c.Cookie(utils.SessionCookieName); err == nil && ck.Value != "" {
                if id, err := utils.ParseSessionCookie(cfg.Secret, ck.Value); err == nil {
                    sid = id
                }
            }
            h := cfg.Manager.Handle(sid)
            rec := &notify.Recorder{}

            var uid int64
            if u := h.User(ctx); u != nil {
                uid = u.ID
            }
            qc := cfg.Query.For(uid, rec)
            api := cfg.API.WithSession(h)

            c.Set(keySession, h)
            c.Set(keyNotifications, rec)
            c.Set(keyResources, resource.New(api, qc, h))

            c.Response().Before(func() {
                writeSessionCookie(c, cfg, h, sid, start)
            })
            return next(c)
        }
    }
}

func writeSessionCookie(c echo.Context, cfg SessionConfig, h *session.Handle, sid string, start time.Time) {
    s := h.Session(c.Request().Context())
    switch {
    case s == nil && sid != "":
        c.SetCookie(&http.Cookie{
            Name:     utils.SessionCookieName,
            Value:    "",
            Path:     "/",
            MaxAge:   -1,
            HttpOnly: true,
            Secure:   cfg.Secure,
            SameSite: http.SameSiteLaxMode,
        })
    case s != nil && (s.ID != sid || s.UpdatedAt.After(start)):
        ck, err := utils.NewSessionCookie(cfg.Secret, s.ID, cfg.Manager.TTL())
        if err != nil {
            c.Logger().Errorf("session cookie: %v", err)
            return
        }
        c.SetCookie(&http.Cookie{
            Name:     utils.SessionCookieName,
            Value:    ck.Value,
            Path:     "/",
            Expires:  ck.Exp,
            HttpOnly: true,
            Secure:   cfg.Secure,
            SameSite: http.SameSiteLaxMode,
        })
    }
}

// SessionExpiredRedirect turns errors caused by a rejected or missing API
// token into a redirect to the login page.  The session was already cleared
// by the API client when such an error surfaces.
func SessionExpiredRedirect() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            err := next(c)
            if err == nil || c.Response().Committed {
                return err
            }
            if apiclient.IsSessionExpired(err) || errors.Is(err, session.ErrNotFound) {
                return redirect(c, loginFor(c))
            }
            return err
        }
    }
}
