package handler // handler defines the page endpoints of the web server

import (
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/carshare-web/internal/apiclient"
    "github.com/iliyamo/carshare-web/internal/middleware"
    "github.com/iliyamo/carshare-web/internal/notify"
    "github.com/iliyamo/carshare-web/internal/validate"
)

// page writes a view model together with the signed-in user and every
// notification pending for the browser: flashes from the previous redirect
// first, then the ones raised while serving this request.
func page(c echo.Context, status int, data echo.Map) error {
    if data == nil {
        data = echo.Map{}
    }
    notes := middleware.PopFlashes(c)
    notes = append(notes, middleware.NotificationsOf(c).Items()...)
    if notes == nil {
        notes = []notify.Notification{}
    }
    data["notifications"] = notes
    if u := middleware.CurrentUser(c); u != nil {
        data["user"] = u
    }
    return c.JSON(status, data)
}

// done finishes a successful form post.  Script clients get the view model;
// browsers get the notifications as flashes and a 303 to the next page.
func done(c echo.Context, status int, to string, data echo.Map) error {
    if wantsJSON(c) {
        if data == nil {
            data = echo.Map{}
        }
        data["redirect"] = to
        return page(c, status, data)
    }
    if err := middleware.AddFlashes(c, middleware.NotificationsOf(c).Items()); err != nil {
        c.Logger().Warnf("flash save: %v", err)
    }
    return c.Redirect(http.StatusSeeOther, to)
}

// fail renders an error as {"error": msg, "fields": {...}}.  Errors caused
// by a missing or rejected session are returned untouched so the session
// middleware can send the browser to the login page.
func fail(c echo.Context, err error, fallback string) error {
    if apiclient.IsSessionExpired(err) {
        return err
    }
    if fe, ok := validate.AsFieldErrors(err); ok {
        return page(c, http.StatusUnprocessableEntity, echo.Map{"error": "Please correct the highlighted fields.", "fields": map[string]string(fe)})
    }
    body := echo.Map{"error": apiclient.MessageOf(err, fallback)}
    status := http.StatusInternalServerError
    if apiErr, ok := apiclient.AsError(err); ok {
        status = statusFor(apiErr)
        if fields := apiErr.Body.FieldMap(); len(fields) > 0 {
            body["fields"] = fields
        }
    } else if errors.Is(err, errBadRequest) {
        status = http.StatusBadRequest
    }
    return page(c, status, body)
}

// statusFor maps a remote failure onto our response.  Client errors pass
// through; server and transport failures become 502.
func statusFor(e *apiclient.Error) int {
    switch {
    case e.IsNetwork():
        return http.StatusBadGateway
    case e.StatusCode >= 400 && e.StatusCode < 500:
        return e.StatusCode
    }
    return http.StatusBadGateway
}

var errBadRequest = errors.New("bad request")

// wantsJSON reports whether the caller is a script rather than a browser
// form post.
func wantsJSON(c echo.Context) bool {
    r := c.Request()
    return strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) ||
        strings.HasPrefix(r.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) ||
        r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (int64, error) {
    id, err := strconv.ParseInt(c.Param(name), 10, 64)
    if err != nil || id <= 0 {
        return 0, errBadRequest
    }
    return id, nil
}

// badRequest answers malformed input the validator never saw.
func badRequest(c echo.Context, msg string) error {
    return page(c, http.StatusBadRequest, echo.Map{"error": msg})
}

// sectionError records a failed read of one page section without failing
// the page.  Session errors still abort.
func sectionError(errs map[string]string, name string, err error, fallback string) error {
    if apiclient.IsSessionExpired(err) {
        return err
    }
    errs[name] = apiclient.MessageOf(err, fallback)
    return nil
}
