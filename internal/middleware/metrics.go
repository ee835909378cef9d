package middleware

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/carshare-web/internal/metrics"
)

// Metrics records request counts and latency per route template.  Echo's
// c.Path() is the registered pattern (/cars/:id), which keeps label
// cardinality bounded.
func Metrics() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)

            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            status := c.Response().Status
            if err != nil && !c.Response().Committed {
                // The error handler has not written yet; predict its status.
                status = http.StatusInternalServerError
                var he *echo.HTTPError
                if errors.As(err, &he) {
                    status = he.Code
                }
            }
            method := c.Request().Method
            metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
            metrics.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
            return err
        }
    }
}
