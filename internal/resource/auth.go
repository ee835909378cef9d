package resource

import (
	"context"

	"github.com/iliyamo/carshare-web/internal/apiclient"
	"github.com/iliyamo/carshare-web/internal/model"
	"github.com/iliyamo/carshare-web/internal/query"
	"github.com/iliyamo/carshare-web/internal/session"
)

// Credentials is the login form.
type Credentials struct {
	Username string
	Password string
}

// Auth covers sign-in, sign-up, sign-out and the owner upgrade.
type Auth struct {
	api  *apiclient.Client
	qc   *query.Client
	sess *session.Handle
}

func (a *Auth) storeSession(ctx context.Context, out *apiclient.AuthResponse) error {
	return a.sess.SetSession(ctx, out.Token, out.User)
}

// Login signs in and stores the returned session. Nothing is stored when
// the API rejects the credentials.
func (a *Auth) Login() *query.Mutation[Credentials, *apiclient.AuthResponse] {
	return query.NewMutation(a.qc, "login",
		func(ctx context.Context, in Credentials) (*apiclient.AuthResponse, error) {
			return a.api.Auth.Login(ctx, in.Username, in.Password)
		},
		query.MutationOptions[*apiclient.AuthResponse]{
			OnSuccess: a.storeSession,
			SuccessMessage: func(out *apiclient.AuthResponse) string {
				return "Welcome back, " + displayName(out.User) + "!"
			},
			Fallback: "Invalid username or password.",
		})
}

// Register creates an account and stores the returned session.
func (a *Auth) Register() *query.Mutation[apiclient.RegisterRequest, *apiclient.AuthResponse] {
	return query.NewMutation(a.qc, "register", a.api.Auth.Register,
		query.MutationOptions[*apiclient.AuthResponse]{
			OnSuccess: a.storeSession,
			SuccessMessage: func(out *apiclient.AuthResponse) string {
				return "Welcome, " + displayName(out.User) + "! Your account is ready."
			},
			Fallback: "Registration failed.",
		})
}

// Logout signs out on the API and always drops the local session, even if
// the API call fails; a token the API already rejected is not an error.
func (a *Auth) Logout() *query.Mutation[struct{}, struct{}] {
	return query.NewMutation(a.qc, "logout",
		func(ctx context.Context, _ struct{}) (struct{}, error) {
			err := a.api.Auth.Logout(ctx)
			if clearErr := a.sess.Clear(ctx); clearErr != nil && err == nil {
				err = clearErr
			}
			if apiclient.IsSessionExpired(err) {
				err = nil
			}
			return struct{}{}, err
		},
		query.MutationOptions[struct{}]{
			SuccessMessage: func(struct{}) string { return "You have been signed out." },
			Fallback:       "Logout failed.",
		})
}

// BecomeOwner upgrades the current user and refreshes the stored user record.
func (a *Auth) BecomeOwner() *query.Mutation[struct{}, *model.User] {
	return query.NewMutation(a.qc, "become-owner",
		func(ctx context.Context, _ struct{}) (*model.User, error) {
			u, err := a.api.Auth.BecomeOwner(ctx)
			if err != nil {
				return nil, err
			}
			if u == nil || u.ID == 0 {
				// The endpoint may answer with an empty body; derive the
				// upgraded record from the session.
				cur := a.sess.User(ctx)
				if cur == nil {
					return nil, apiclient.ErrNotAuthenticated
				}
				cur.Role = model.RoleOwner
				u = cur
			}
			return u, nil
		},
		query.MutationOptions[*model.User]{
			Invalidates: []string{ResUsers, ResOwnerCars},
			OnSuccess: func(ctx context.Context, u *model.User) error {
				return a.sess.UpdateUser(ctx, *u)
			},
			SuccessMessage: func(*model.User) string { return "You can now list your cars." },
			Fallback:       "Could not upgrade your account.",
		})
}

// CurrentUser returns the signed-in user or nil.
func (a *Auth) CurrentUser(ctx context.Context) *model.User {
	return a.sess.User(ctx)
}

func displayName(u model.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
