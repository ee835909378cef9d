package utils

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestSealer_RoundTrip(t *testing.T) {
    s := NewSealer("k")
    sealed, err := s.Seal("api-token")
    require.NoError(t, err)
    assert.NotContains(t, string(sealed), "api-token")

    plain, err := s.Open(sealed)
    require.NoError(t, err)
    assert.Equal(t, "api-token", plain)
}

func TestSealer_FreshNonce(t *testing.T) {
    s := NewSealer("k")
    a, err := s.Seal("same")
    require.NoError(t, err)
    b, err := s.Seal("same")
    require.NoError(t, err)
    assert.NotEqual(t, a, b)
}

func TestSealer_Rejects(t *testing.T) {
    sealed, err := NewSealer("k").Seal("x")
    require.NoError(t, err)

    _, err = NewSealer("other").Open(sealed)
    assert.ErrorIs(t, err, ErrUnseal)

    tampered := append([]byte(nil), sealed...)
    tampered[len(tampered)-1] ^= 0xff
    _, err = NewSealer("k").Open(tampered)
    assert.ErrorIs(t, err, ErrUnseal)

    _, err = NewSealer("k").Open([]byte("short"))
    assert.ErrorIs(t, err, ErrUnseal)
}
