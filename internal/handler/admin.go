package handler

import (
    "net/http"
    "net/url"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/carshare-web/internal/apiclient"
    "github.com/iliyamo/carshare-web/internal/middleware"
    "github.com/iliyamo/carshare-web/internal/model"
    "github.com/iliyamo/carshare-web/internal/resource"
    "github.com/iliyamo/carshare-web/internal/validate"
    "github.com/iliyamo/carshare-web/internal/view"
)

// AdminHandler serves the moderation pages: car approval and editing, user
// management.
type AdminHandler struct {
    Validate *validate.Validator
}

func NewAdminHandler(v *validate.Validator) *AdminHandler {
    return &AdminHandler{Validate: v}
}

// Dashboard shows the pending-approval queue and open tickets.
func (h *AdminHandler) Dashboard(c echo.Context) error {
    ctx := c.Request().Context()
    res := middleware.ResourcesOf(c)
    errs := map[string]string{}
    data := echo.Map{}

    if r := res.Cars.Admin(ctx, apiclient.AdminCarFilter{}); r.OK() {
        data["pending_cars"] = view.FilterCars(r.Data, model.CarPending)
        data["car_counts"] = view.CountByStatus(r.Data)
    } else if err := sectionError(errs, "cars", r.Err, "Could not load cars."); err != nil {
        return err
    }
    if r := res.Tickets.Admin(ctx); r.OK() {
        data["ticket_counts"] = view.CountTickets(r.Data)
    } else if err := sectionError(errs, "tickets", r.Err, "Could not load tickets."); err != nil {
        return err
    }

    if len(errs) > 0 {
        data["errors"] = errs
    }
    return page(c, http.StatusOK, data)
}

// Cars lists every car with the status, owner and search filters applied
// by the API.
func (h *AdminHandler) Cars(c echo.Context) error {
    f := apiclient.AdminCarFilter{
        Status: model.CarStatus(c.QueryParam("status")),
        Search: strings.TrimSpace(c.QueryParam("search")),
    }
    if f.Status != "" && !f.Status.Valid() {
        return badRequest(c, "invalid car status")
    }
    if v := c.QueryParam("owner_id"); v != "" {
        id, err := strconv.ParseInt(v, 10, 64)
        if err != nil || id <= 0 {
            return badRequest(c, "invalid owner id")
        }
        f.OwnerID = id
    }
    res := middleware.ResourcesOf(c)
    r := res.Cars.Admin(c.Request().Context(), f)
    if !r.OK() {
        return fail(c, r.Err, "Could not load cars.")
    }
    return page(c, http.StatusOK, echo.Map{"cars": r.Data, "filter": f})
}

// ApproveCar publishes a pending listing.
func (h *AdminHandler) ApproveCar(c echo.Context) error {
    return h.setStatus(c, model.CarAvailable)
}

// RejectCar refuses a pending listing.
func (h *AdminHandler) RejectCar(c echo.Context) error {
    return h.setStatus(c, model.CarRejected)
}

func (h *AdminHandler) setStatus(c echo.Context, status model.CarStatus) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, "invalid car id")
    }
    res := middleware.ResourcesOf(c)
    car, err := res.Cars.SetStatus().Mutate(c.Request().Context(), resource.StatusChange{ID: id, Status: status})
    if err != nil {
        return fail(c, err, "Could not change the car status.")
    }
    return done(c, http.StatusOK, "/admin/cars", echo.Map{"car": car})
}

// UpdateCar edits a listing.  Empty fields are left unchanged.
func (h *AdminHandler) UpdateCar(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, "invalid car id")
    }
    var form validate.AdminCarForm
    if err := c.Bind(&form); err != nil {
        return badRequest(c, "invalid body")
    }
    if err := h.Validate.Struct(form); err != nil {
        return fail(c, err, "")
    }
    res := middleware.ResourcesOf(c)
    car, err := res.Cars.Update().Mutate(c.Request().Context(), resource.CarEdit{ID: id, Update: apiclient.CarUpdate{
        Make:      strings.TrimSpace(form.Make),
        Model:     strings.TrimSpace(form.Model),
        DailyRate: form.DailyRate,
        Location:  strings.TrimSpace(form.Location),
        Status:    model.CarStatus(form.Status),
    }})
    if err != nil {
        return fail(c, err, "Could not update the car.")
    }
    return done(c, http.StatusOK, "/admin/cars", echo.Map{"car": car})
}

// DeleteCar removes a listing.
func (h *AdminHandler) DeleteCar(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, "invalid car id")
    }
    res := middleware.ResourcesOf(c)
    if _, err := res.Cars.Delete().Mutate(c.Request().Context(), id); err != nil {
        return fail(c, err, "Could not delete the car.")
    }
    return done(c, http.StatusOK, "/admin/cars", nil)
}

// Users lists accounts.  ?search= and ?role= are passed to the API.
func (h *AdminHandler) Users(c echo.Context) error {
    q := url.Values{}
    if s := strings.TrimSpace(c.QueryParam("search")); s != "" {
        q.Set("search", s)
    }
    if role := model.Role(c.QueryParam("role")); role != "" {
        if !role.Valid() {
            return badRequest(c, "invalid role")
        }
        q.Set("role", string(role))
    }
    res := middleware.ResourcesOf(c)
    r := res.Users.List(c.Request().Context(), q)
    if !r.OK() {
        return fail(c, r.Err, "Could not load users.")
    }
    return page(c, http.StatusOK, echo.Map{"users": r.Data})
}

type userPatchForm struct {
    Role       string `form:"role" json:"role"`
    IsVerified *bool  `form:"is_verified" json:"is_verified"`
}

// PatchUser changes a user's role or verification flag.
func (h *AdminHandler) PatchUser(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, "invalid user id")
    }
    var form userPatchForm
    if err := c.Bind(&form); err != nil {
        return badRequest(c, "invalid body")
    }
    fields := map[string]any{}
    if form.Role != "" {
        if !model.Role(form.Role).Valid() {
            return fail(c, validate.FieldErrors{"role": "Unknown role."}, "")
        }
        fields["role"] = form.Role
    }
    if form.IsVerified != nil {
        fields["is_verified"] = *form.IsVerified
    }
    if len(fields) == 0 {
        return badRequest(c, "nothing to update")
    }
    res := middleware.ResourcesOf(c)
    u, err := res.Users.Patch().Mutate(c.Request().Context(), resource.UserPatch{ID: id, Fields: fields})
    if err != nil {
        return fail(c, err, "Could not update the user.")
    }
    return done(c, http.StatusOK, "/admin/users", echo.Map{"account": u})
}

// DeleteUser removes an account.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, "invalid user id")
    }
    res := middleware.ResourcesOf(c)
    if _, err := res.Users.Delete().Mutate(c.Request().Context(), id); err != nil {
        return fail(c, err, "Could not delete the user.")
    }
    return done(c, http.StatusOK, "/admin/users", nil)
}
