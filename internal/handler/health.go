package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Health is a simple liveness endpoint used by load balancers and
// monitoring systems to verify that the process is serving.  It returns
// a plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Pinger is a dependency that can report readiness (Redis, MySQL).
type Pinger func(ctx context.Context) error

// Ready checks each configured backend.  A failing backend answers 503 with
// the failing names; optional backends that were never configured are not
// listed.
func Ready(checks map[string]Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        failed := map[string]string{}
        for name, ping := range checks {
            if err := ping(ctx); err != nil {
                failed[name] = err.Error()
            }
        }
        if len(failed) > 0 {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "failed": failed})
        }
        return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
    }
}
