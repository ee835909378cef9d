// Package repository holds the MySQL-backed persistence of the BFF.  Only
// browser sessions are stored here; every marketplace entity lives behind
// the remote API.
package repository

import "errors"

// ErrNotFound is returned when a row does not exist or has expired.
// Callers translate it into "no session".
var ErrNotFound = errors.New("not found")
