package utils // package utils provides helpers for session cookies and token sealing

import (
    "errors"
    "time" // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for signing the session cookie
)

// SessionCookieName is the cookie that carries the signed session id.
const SessionCookieName = "carshare_sid"

// ErrInvalidSessionCookie is returned for malformed, forged or expired cookies.
var ErrInvalidSessionCookie = errors.New("invalid session cookie")

// SessionCookie is a signed session reference handed to the browser.  The
// Value field is the compact JWT; Exp mirrors its exp claim.  The cookie
// never carries the API token itself, only the server-side session id.
type SessionCookie struct {
    Value string
    Exp   time.Time
}

// NewSessionCookie signs an HS256 JWT whose subject is the session id.
func NewSessionCookie(secret, sessionID string, ttl time.Duration) (SessionCookie, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.RegisteredClaims{
        Subject:   sessionID,
        IssuedAt:  jwt.NewNumericDate(now),
        ExpiresAt: jwt.NewNumericDate(exp),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return SessionCookie{}, err
    }
    return SessionCookie{Value: signed, Exp: exp}, nil
}

// ParseSessionCookie verifies the signature and expiry and returns the session id.
func ParseSessionCookie(secret, raw string) (string, error) {
    var claims jwt.RegisteredClaims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        // Reject anything that is not HMAC-signed.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidSessionCookie
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid || claims.Subject == "" {
        return "", ErrInvalidSessionCookie
    }
    return claims.Subject, nil
}
