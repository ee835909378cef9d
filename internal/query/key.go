package query

import (
	"crypto/sha1"
	"fmt"
	"net/url"
	"strings"
)

// Key identifies a cached read: the resource name, the parameter tuple and
// the scope (the signed-in user for private data, "" for public data).
type Key struct {
	Scope    string
	Resource string
	Params   url.Values
}

// String renders a stable form of the key. url.Values.Encode sorts by name,
// so parameter order never matters.
func (k Key) String() string {
	return k.Resource + "|" + k.Scope + "|" + k.Params.Encode()
}

// Hash is a fixed-length digest of the scope and params, used by stores
// that build their own key names.
func (k Key) Hash() string {
	sum := sha1.Sum([]byte(k.Scope + "|" + k.Params.Encode()))
	return fmt.Sprintf("%x", sum[:])
}

// Params builds a parameter tuple from alternating name/value pairs and
// drops empty values.
func Params(kv ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		if strings.TrimSpace(kv[i+1]) != "" {
			v.Set(kv[i], kv[i+1])
		}
	}
	return v
}
