package utils // package utils provides helpers for session cookies and token sealing

import (
    "crypto/rand"   // random nonces
    "crypto/sha256" // key derivation from the configured secret
    "errors"

    "golang.org/x/crypto/nacl/secretbox" // authenticated symmetric encryption
)

// ErrUnseal is returned when a sealed value was tampered with or was sealed
// under a different key.
var ErrUnseal = errors.New("unseal failed")

// Sealer encrypts API tokens before they are written to a session backend,
// so a leaked Redis dump or MySQL row does not leak usable credentials.
type Sealer struct {
    key [32]byte
}

// NewSealer derives a 32-byte secretbox key from secret.
func NewSealer(secret string) *Sealer {
    return &Sealer{key: sha256.Sum256([]byte(secret))}
}

// Seal returns nonce||box for plain.
func (s *Sealer) Seal(plain string) ([]byte, error) {
    var nonce [24]byte
    if _, err := rand.Read(nonce[:]); err != nil {
        return nil, err
    }
    return secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed []byte) (string, error) {
    if len(sealed) < 24+secretbox.Overhead {
        return "", ErrUnseal
    }
    var nonce [24]byte
    copy(nonce[:], sealed[:24])
    plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &s.key)
    if !ok {
        return "", ErrUnseal
    }
    return string(plain), nil
}
