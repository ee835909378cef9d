package middleware

import (
    "net/http"
    "net/http/httptest"
    "os"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/carshare-web/internal/config"
    "github.com/iliyamo/carshare-web/internal/guard"
    "github.com/iliyamo/carshare-web/internal/model"
    "github.com/iliyamo/carshare-web/internal/notify"
    "github.com/iliyamo/carshare-web/internal/session"
    "github.com/iliyamo/carshare-web/internal/utils"
)

func newContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    req := httptest.NewRequest(method, target, nil)
    rec := httptest.NewRecorder()
    return e.NewContext(req, rec), rec
}

func ok(c echo.Context) error { return c.NoContent(http.StatusOK) }

func signedIn(t *testing.T, c echo.Context, role model.Role) {
    t.Helper()
    m := session.NewManager(session.NewMemoryStore(), utils.NewSealer("k"), time.Hour, nil)
    h := m.Handle("")
    require.NoError(t, h.SetSession(c.Request().Context(), "tok", model.User{ID: 42, Role: role}))
    c.Set(keySession, h)
}

func TestRequireRole(t *testing.T) {
    tests := []struct {
        name     string
        method   string
        role     model.Role
        status   int
        location string
    }{
        {name: "signed out get", method: http.MethodGet, status: http.StatusFound, location: "/login?next=%2Fowner%2Fcars"},
        {name: "signed out post", method: http.MethodPost, status: http.StatusSeeOther, location: "/login?next=%2Fowner%2Fcars"},
        {name: "owner", method: http.MethodGet, role: model.RoleOwner, status: http.StatusOK},
        {name: "support", method: http.MethodGet, role: model.RoleSupport, status: http.StatusFound, location: "/support"},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            c, rec := newContext(tt.method, "/owner/cars")
            if tt.role != "" {
                signedIn(t, c, tt.role)
            }
            require.NoError(t, RequireRole(model.RoleOwner)(ok)(c))
            assert.Equal(t, tt.status, rec.Code)
            assert.Equal(t, tt.location, rec.Header().Get(echo.HeaderLocation))
        })
    }
}

func TestGuard_PublicPathPasses(t *testing.T) {
    c, rec := newContext(http.MethodGet, "/cars")
    mw := Guard(guard.Rules{{Prefix: "/owner", Roles: []model.Role{model.RoleOwner}}})
    require.NoError(t, mw(ok)(c))
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionExpiredRedirect(t *testing.T) {
    c, rec := newContext(http.MethodGet, "/bookings")
    failing := func(echo.Context) error { return session.ErrNotFound }
    require.NoError(t, SessionExpiredRedirect()(failing)(c))
    assert.Equal(t, http.StatusFound, rec.Code)
    assert.Equal(t, "/login?next=%2Fbookings", rec.Header().Get(echo.HeaderLocation))

    c, rec = newContext(http.MethodPost, "/tickets/3/reply")
    require.NoError(t, SessionExpiredRedirect()(failing)(c))
    assert.Equal(t, http.StatusSeeOther, rec.Code)
    assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))

    c, _ = newContext(http.MethodGet, "/bookings")
    other := echo.NewHTTPError(http.StatusTeapot)
    assert.Same(t, other, SessionExpiredRedirect()(func(echo.Context) error { return other })(c))
}

func TestFlashes_RoundTrip(t *testing.T) {
    store := NewCookieStore("flash-secret", false)
    c, rec := newContext(http.MethodPost, "/login")
    c.Set(keyCookieStore, store)

    n := notify.New(notify.LevelSuccess, "login", "Welcome back")
    require.NoError(t, AddFlashes(c, []notify.Notification{n}))
    cookies := rec.Result().Cookies()
    require.NotEmpty(t, cookies)

    c2, _ := newContext(http.MethodGet, "/")
    for _, ck := range cookies {
        c2.Request().AddCookie(ck)
    }
    c2.Set(keyCookieStore, store)
    got := PopFlashes(c2)
    require.Len(t, got, 1)
    assert.Equal(t, "Welcome back", got[0].Message)
    assert.Equal(t, n.ID, got[0].ID)
}

func TestFlashes_NoStore(t *testing.T) {
    c, _ := newContext(http.MethodGet, "/")
    assert.NoError(t, AddFlashes(c, []notify.Notification{notify.New(notify.LevelInfo, "", "x")}))
    assert.Nil(t, PopFlashes(c))
}

func TestIdentityAccessors(t *testing.T) {
    c, _ := newContext(http.MethodGet, "/")
    assert.Nil(t, SessionOf(c))
    assert.Nil(t, ResourcesOf(c))
    assert.Nil(t, CurrentUser(c))
    assert.NotNil(t, NotificationsOf(c))
    assert.Equal(t, "anon", userID(c))

    signedIn(t, c, model.RoleRegular)
    assert.Equal(t, "42", userID(c))
}

func TestBuildRateKey(t *testing.T) {
    c, _ := newContext(http.MethodPost, "/login")
    c.Request().RemoteAddr = "10.0.0.1:5555"
    c.SetPath("/login")

    tests := []struct {
        strategy string
        expected string
    }{
        {"ip", "rl:ip:10.0.0.1"},
        {"user", "rl:user:anon"},
        {"route", "rl:route:POST /login"},
        {"ip_route", "rl:ip:10.0.0.1:route:POST /login"},
        {"ip_account", "rl:ip:10.0.0.1:account:none"},
        {"bogus", "rl:ip:10.0.0.1:user:anon:route:POST /login"},
        {"", "rl:ip:10.0.0.1:user:anon:route:POST /login"},
    }
    for _, tt := range tests {
        t.Run(tt.strategy, func(t *testing.T) {
            cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: tt.strategy}
            assert.Equal(t, tt.expected, buildRateKey(cfg, c))
        })
    }
}

func TestBuildRateKey_Account(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=+Alice+&password=x"))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
    c := e.NewContext(req, httptest.NewRecorder())

    cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "account"}
    assert.Equal(t, "rl:account:alice", buildRateKey(cfg, c))
}

func TestTokenBucket_DisabledPassesThrough(t *testing.T) {
    c, rec := newContext(http.MethodPost, "/login")
    require.NoError(t, NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil)(ok)(c))
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenBucket_Redis(t *testing.T) {
    addr := os.Getenv("REDIS_ADDR")
    if addr == "" {
        t.Skip("REDIS_ADDR not set")
    }
    rdb := redis.NewClient(&redis.Options{Addr: addr})
    t.Cleanup(func() { _ = rdb.Close() })

    cfg := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: time.Hour,
        TTL:            time.Minute,
        KeyStrategy:    "ip",
        Prefix:         "rl-test-" + time.Now().Format("150405.000000"),
    }
    mw := NewTokenBucket(cfg, rdb)

    codes := make([]int, 0, 3)
    for i := 0; i < 3; i++ {
        c, rec := newContext(http.MethodPost, "/login")
        c.Request().RemoteAddr = "10.0.0.9:1"
        require.NoError(t, mw(ok)(c))
        codes = append(codes, rec.Code)
    }
    assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
