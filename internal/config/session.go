package config

import (
    "strings"
    "time"
)

// Session store backends.
const (
    SessionMemory = "memory"
    SessionRedis  = "redis"
    SessionMySQL  = "mysql"
)

// SessionConfig controls where browser sessions are persisted and how the
// session cookie is issued.
//
// SealKey encrypts API tokens at rest; it defaults to the session secret
// so a single secret is enough for development.  PruneEvery is the interval
// of the expired-row sweep of the MySQL backend.
type SessionConfig struct {
    Backend      string
    TTL          time.Duration
    SealKey      string
    Prefix       string
    CookieSecure bool
    PruneEvery   time.Duration
}

// LoadSessionConfig reads the SESSION_* variables.  secret is the already
// loaded SESSION_SECRET.
func LoadSessionConfig(secret string) SessionConfig {
    cfg := SessionConfig{
        Backend:      strings.ToLower(envStr("SESSION_BACKEND", SessionMemory)),
        TTL:          envDur("SESSION_TTL", 14*24*time.Hour),
        SealKey:      envStr("SESSION_SEAL_KEY", secret),
        Prefix:       envStr("SESSION_PREFIX", "session"),
        CookieSecure: envBool("SESSION_COOKIE_SECURE", false),
        PruneEvery:   envDur("SESSION_PRUNE_EVERY", time.Hour),
    }
    if cfg.PruneEvery <= 0 {
        cfg.PruneEvery = time.Hour
    }
    switch cfg.Backend {
    case SessionRedis, SessionMySQL:
    default:
        cfg.Backend = SessionMemory
    }
    return cfg
}
