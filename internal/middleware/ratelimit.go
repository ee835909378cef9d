package middleware

import (
    "context"
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/carshare-web/internal/config"
    "github.com/iliyamo/carshare-web/internal/metrics"
    "github.com/iliyamo/carshare-web/internal/notify"
)

// limiterScript refills and takes one token atomically.  It returns
// {allowed, remaining, retry_after_ms}.
var limiterScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        local until_next = interval_ms - (now_ms - last_refill)
        if until_next < 0 then until_next = 0 end
        retry_after_ms = until_next
    end

    redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

// verdict is one bucket decision.
type verdict struct {
    allowed   bool
    remaining int64
    retry     time.Duration
}

// take spends one token from the bucket at key.
func take(ctx context.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string, now time.Time) (verdict, error) {
    vals, err := limiterScript.Run(ctx, rdb, []string{key},
        now.UnixMilli(),
        cfg.Capacity,
        cfg.RefillTokens,
        cfg.RefillInterval.Milliseconds(),
        int64(cfg.TTL/time.Second),
    ).Slice()
    if err != nil {
        return verdict{}, err
    }
    if len(vals) != 3 {
        return verdict{}, fmt.Errorf("ratelimit: unexpected script result %#v", vals)
    }
    return verdict{
        allowed:   asInt64(vals[0]) == 1,
        remaining: asInt64(vals[1]),
        retry:     time.Duration(asInt64(vals[2])) * time.Millisecond,
    }, nil
}

// NewTokenBucket limits credential attempts (login, register) with a Redis
// token bucket keyed by cfg.KeyStrategy.  It is a no-op when disabled or
// when Redis is unavailable, and it lets requests through on Redis errors.
// A blocked attempt answers 429 with the usual error body and a
// notification telling the user when to retry.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            v, err := take(c.Request().Context(), rdb, cfg, key, time.Now())
            if err != nil {
                if cfg.Debug {
                    c.Logger().Warnf("[ratelimit] key=%s: %v", key, err)
                }
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(v.remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if v.allowed {
                return next(c)
            }

            secs := int(math.Ceil(v.retry.Seconds()))
            if secs < 0 {
                secs = 0
            }
            h.Set("Retry-After", strconv.Itoa(secs))
            metrics.RateLimited.WithLabelValues(c.Path()).Inc()
            msg := fmt.Sprintf("Too many attempts. Try again in %d seconds.", secs)
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":         msg,
                "retry_after":   secs,
                "notifications": []notify.Notification{notify.New(notify.LevelError, "", msg)},
            })
        }
    }
}

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int:
        return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil {
            return n
        }
    }
    return 0
}

// buildRateKey joins the key parts selected by cfg.KeyStrategy.  Strategies
// combine "ip", "user" (signed-in id or "anon"), "account" (the submitted
// username, lowercased) and "route" with underscores, e.g. "ip_account".
// An unknown strategy keys on ip, user and route together.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    part := map[string]func() string{
        "ip": func() string {
            if ip := c.RealIP(); ip != "" {
                return ip
            }
            return "unknown"
        },
        "user": func() string { return userID(c) },
        "account": func() string {
            if u := strings.ToLower(strings.TrimSpace(c.FormValue("username"))); u != "" {
                return u
            }
            return "none"
        },
        "route": func() string { return c.Request().Method + " " + c.Path() },
    }

    names := strings.Split(strings.ToLower(cfg.KeyStrategy), "_")
    for _, n := range names {
        if _, ok := part[n]; !ok {
            names = []string{"ip", "user", "route"}
            break
        }
    }

    out := []string{cfg.Prefix}
    for _, n := range names {
        out = append(out, n, part[n]())
    }
    return strings.Join(out, ":")
}
