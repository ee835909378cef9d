package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/carshare-web/internal/apiclient"
    "github.com/iliyamo/carshare-web/internal/guard"
    "github.com/iliyamo/carshare-web/internal/middleware"
    "github.com/iliyamo/carshare-web/internal/resource"
    "github.com/iliyamo/carshare-web/internal/validate"
)

// AuthHandler serves sign-in, sign-up, sign-out and the owner upgrade.
type AuthHandler struct {
    Validate *validate.Validator
    Rules    guard.Rules // used to check a remembered ?next= path against the new role
}

func NewAuthHandler(v *validate.Validator, rules guard.Rules) *AuthHandler {
    return &AuthHandler{Validate: v, Rules: rules}
}

// LoginPage describes the login form.  Signed-in users are sent to their
// landing page instead.
func (h *AuthHandler) LoginPage(c echo.Context) error {
    if u := middleware.CurrentUser(c); u != nil {
        return c.Redirect(http.StatusFound, guard.AfterLogin(*u, c.QueryParam("next"), h.Rules.RolesFor))
    }
    next, _ := guard.SafeNext(c.QueryParam("next"))
    return page(c, http.StatusOK, echo.Map{"form": "login", "next": next})
}

// Login validates the form, signs in and redirects to the remembered page
// when the new role may open it.
func (h *AuthHandler) Login(c echo.Context) error {
    var form validate.LoginForm
    if err := c.Bind(&form); err != nil {
        return badRequest(c, "invalid body")
    }
    form.Username = strings.TrimSpace(form.Username)
    if err := h.Validate.Struct(form); err != nil {
        return fail(c, err, "")
    }
    res := middleware.ResourcesOf(c)
    out, err := res.Auth.Login().Mutate(c.Request().Context(), resource.Credentials{Username: form.Username, Password: form.Password})
    if err != nil {
        return fail(c, err, "Invalid username or password.")
    }
    to := guard.AfterLogin(out.User, form.Next, h.Rules.RolesFor)
    return done(c, http.StatusOK, to, echo.Map{"user": out.User})
}

// Register validates the sign-up form and creates the account.  The new
// session is stored before the redirect.
func (h *AuthHandler) Register(c echo.Context) error {
    var form validate.RegisterForm
    if err := c.Bind(&form); err != nil {
        return badRequest(c, "invalid body")
    }
    form.Username = strings.TrimSpace(form.Username)
    form.Email = strings.ToLower(strings.TrimSpace(form.Email))
    if err := h.Validate.Struct(form); err != nil {
        return fail(c, err, "")
    }
    res := middleware.ResourcesOf(c)
    out, err := res.Auth.Register().Mutate(c.Request().Context(), apiclient.RegisterRequest{
        Username:        form.Username,
        Email:           form.Email,
        Password:        form.Password,
        PasswordConfirm: form.Password2,
        FirstName:       strings.TrimSpace(form.FirstName),
        LastName:        strings.TrimSpace(form.LastName),
    })
    if err != nil {
        return fail(c, err, "Registration failed.")
    }
    return done(c, http.StatusCreated, guard.Landing(out.User.Role), echo.Map{"user": out.User})
}

// Logout always ends the local session, even when the API call fails.
func (h *AuthHandler) Logout(c echo.Context) error {
    res := middleware.ResourcesOf(c)
    if _, err := res.Auth.Logout().Mutate(c.Request().Context(), struct{}{}); err != nil {
        c.Logger().Warnf("logout: %v", err)
    }
    return done(c, http.StatusOK, guard.LoginPath, nil)
}

// BecomeOwner upgrades a regular account so it can list cars.
func (h *AuthHandler) BecomeOwner(c echo.Context) error {
    res := middleware.ResourcesOf(c)
    u, err := res.Auth.BecomeOwner().Mutate(c.Request().Context(), struct{}{})
    if err != nil {
        return fail(c, err, "Could not upgrade your account.")
    }
    return done(c, http.StatusOK, guard.Landing(u.Role), echo.Map{"user": u})
}
