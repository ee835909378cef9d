// Package metrics holds the Prometheus collectors shared by the BFF.
package metrics

import (
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    // HTTPRequests counts requests served by the BFF, labelled by route template.
    HTTPRequests = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "carshare_http_requests_total",
            Help: "Total number of HTTP requests",
        },
        []string{"method", "route", "status"},
    )

    // HTTPDuration observes request latency.
    HTTPDuration = promauto.NewHistogramVec(
        prometheus.HistogramOpts{
            Name:    "carshare_http_request_duration_seconds",
            Help:    "HTTP request duration in seconds",
            Buckets: prometheus.DefBuckets,
        },
        []string{"method", "route"},
    )

    // GuardRedirects counts navigations turned away by a route guard.
    GuardRedirects = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "carshare_guard_redirects_total",
            Help: "Guarded navigations redirected, by reason (login, role)",
        },
        []string{"reason"},
    )

    // RemoteCalls counts calls to the marketplace API by method, route and status.
    RemoteCalls = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "carshare_remote_calls_total",
            Help: "Total number of calls made to the marketplace API",
        },
        []string{"method", "path", "status"},
    )

    // CacheLookups counts query cache lookups by resource and outcome (hit, miss, stale).
    CacheLookups = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "carshare_query_cache_lookups_total",
            Help: "Query cache lookups by resource and outcome",
        },
        []string{"resource", "outcome"},
    )

    // Invalidations counts resources invalidated after successful mutations.
    Invalidations = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "carshare_query_cache_invalidations_total",
            Help: "Query cache invalidations by resource",
        },
        []string{"resource"},
    )

    // Mutations counts mutation outcomes by name.
    Mutations = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "carshare_mutations_total",
            Help: "Mutations by name and outcome",
        },
        []string{"mutation", "outcome"},
    )

    // NotificationsPublished counts notifications handed to the message queue by outcome.
    NotificationsPublished = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "carshare_notifications_published_total",
            Help: "Notifications published to the queue by outcome",
        },
        []string{"outcome"},
    )

    // RateLimited counts credential attempts refused by the token bucket, by route.
    RateLimited = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "carshare_rate_limited_total",
            Help: "Credential attempts refused by the rate limiter",
        },
        []string{"route"},
    )

    // SessionsExpired counts sessions cleared because the API rejected their token.
    SessionsExpired = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "carshare_sessions_expired_total",
            Help: "Sessions cleared after an authentication rejection",
        },
    )
)
