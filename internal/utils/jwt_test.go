package utils

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestSessionCookie_RoundTrip(t *testing.T) {
    c, err := NewSessionCookie("secret", "sid-123", time.Hour)
    require.NoError(t, err)
    assert.WithinDuration(t, time.Now().Add(time.Hour), c.Exp, time.Minute)

    id, err := ParseSessionCookie("secret", c.Value)
    require.NoError(t, err)
    assert.Equal(t, "sid-123", id)
}

func TestParseSessionCookie_Rejects(t *testing.T) {
    good, err := NewSessionCookie("secret", "sid", time.Hour)
    require.NoError(t, err)
    expired, err := NewSessionCookie("secret", "sid", -time.Minute)
    require.NoError(t, err)
    empty, err := NewSessionCookie("secret", "", time.Hour)
    require.NoError(t, err)

    tests := []struct {
        name   string
        secret string
        raw    string
    }{
        {name: "wrong secret", secret: "other", raw: good.Value},
        {name: "expired", secret: "secret", raw: expired.Value},
        {name: "empty subject", secret: "secret", raw: empty.Value},
        {name: "garbage", secret: "secret", raw: "not-a-jwt"},
        {name: "unsigned", secret: "secret", raw: "eyJhbGciOiJub25lIn0.eyJzdWIiOiJzaWQifQ."},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            _, err := ParseSessionCookie(tt.secret, tt.raw)
            assert.ErrorIs(t, err, ErrInvalidSessionCookie)
        })
    }
}
