package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/iliyamo/carshare-web/internal/model"
)

// AuthService handles sign-in, sign-up and role changes.
type AuthService struct {
	client *Client
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// RegisterRequest carries the sign-up form.
type RegisterRequest struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

// Login exchanges credentials for a token. Credentials are form-encoded.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	var out AuthResponse
	err := s.client.Do(ctx, Request{
		Method:   http.MethodPost,
		Path:     "/login/",
		Form:     form,
		Fallback: "Invalid username or password.",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	form := url.Values{}
	form.Set("username", req.Username)
	form.Set("email", req.Email)
	form.Set("password", req.Password)
	form.Set("password2", req.PasswordConfirm)
	if req.FirstName != "" {
		form.Set("first_name", req.FirstName)
	}
	if req.LastName != "" {
		form.Set("last_name", req.LastName)
	}
	var out AuthResponse
	err := s.client.Do(ctx, Request{
		Method:   http.MethodPost,
		Path:     "/register/",
		Form:     form,
		Fallback: "Registration failed.",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the server-side token.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.client.Do(ctx, Request{
		Method:   http.MethodPost,
		Path:     "/logout/",
		Auth:     true,
		Fallback: "Logout failed.",
	}, nil)
}

// BecomeOwner upgrades the current user to the owner role and returns the
// updated record.
func (s *AuthService) BecomeOwner(ctx context.Context) (*model.User, error) {
	var raw json.RawMessage
	err := s.client.Do(ctx, Request{
		Method:   http.MethodPost,
		Path:     "/become-owner/",
		Auth:     true,
		Fallback: "Could not upgrade your account.",
	}, &raw)
	if err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

// decodeUser accepts either a bare user object or {"user": {...}}.
func decodeUser(raw json.RawMessage) (*model.User, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var wrapped struct {
		User *model.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}
	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
