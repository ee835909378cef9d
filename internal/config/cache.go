package config

import (
    "strings"
    "time"
)

// Query cache backends.
const (
    CacheMemory = "memory"
    CacheRedis  = "redis"
)

// CacheConfig defines settings for the query cache.  Backend selects where
// fetched API payloads are kept; "redis" shares them between server
// replicas and falls back to memory when Redis is unreachable.  StaleTime
// is the age after which an entry is refetched and TTL bounds how long a
// Redis entry survives at all.  Prefix namespaces the Redis keys.
type CacheConfig struct {
    Backend   string
    StaleTime time.Duration
    TTL       time.Duration
    Prefix    string
}

// LoadCacheConfig reads the CACHE_* variables.  Defaults are used when
// variables are not set.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Backend:   strings.ToLower(envStr("CACHE_BACKEND", CacheMemory)),
        StaleTime: envDur("QUERY_STALE_TIME", 5*time.Minute),
        TTL:       envDur("CACHE_TTL", time.Hour),
        Prefix:    envStr("CACHE_PREFIX", "qc"),
    }
    if cfg.Backend != CacheRedis {
        cfg.Backend = CacheMemory
    }
    if cfg.TTL < cfg.StaleTime {
        cfg.TTL = cfg.StaleTime
    }
    return cfg
}
