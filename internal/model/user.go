package model

import "time"

// Role is one of the fixed account roles understood by the marketplace API.
type Role string

const (
    RoleRegular Role = "regular" // renters
    RoleOwner   Role = "owner"   // users who list vehicles
    RoleAdmin   Role = "admin"   // marketplace moderators
    RoleSupport Role = "support" // customer service staff
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
    switch r {
    case RoleRegular, RoleOwner, RoleAdmin, RoleSupport:
        return true
    }
    return false
}

// User mirrors the user record returned by the remote API.  The client
// never edits it in place; changes go through explicit update calls.
//
// Fields:
//  ID         – remote primary key.
//  Username   – login name.
//  Email      – contact address.
//  FirstName  – given name (optional).
//  LastName   – family name (optional).
//  Role       – account role (regular, owner, admin, support).
//  IsVerified – whether the account passed identity verification.
type User struct {
    ID         int64  `json:"id"`
    Username   string `json:"username"`
    Email      string `json:"email"`
    FirstName  string `json:"first_name,omitempty"`
    LastName   string `json:"last_name,omitempty"`
    Role       Role   `json:"role"`
    IsVerified bool   `json:"is_verified"`
}

// Session is the browser's proof of authentication: the opaque API token
// plus the user record returned alongside it.  It is held server-side and
// referenced from the browser by ID only.
type Session struct {
    ID        string    `json:"id"`
    Token     string    `json:"token"`
    User      User      `json:"user"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}
