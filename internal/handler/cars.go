package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/carshare-web/internal/apiclient"
    "github.com/iliyamo/carshare-web/internal/middleware"
    "github.com/iliyamo/carshare-web/internal/model"
    "github.com/iliyamo/carshare-web/internal/view"
    "github.com/iliyamo/carshare-web/internal/validate"
)

// CarHandler serves the public search and detail pages and the renter's
// writes against a car (booking, review, report).
type CarHandler struct {
    Validate *validate.Validator
}

func NewCarHandler(v *validate.Validator) *CarHandler {
    return &CarHandler{Validate: v}
}

// Search fetches the available cars (cached) and filters, sorts and pages
// them locally.
func (h *CarHandler) Search(c echo.Context) error {
    res := middleware.ResourcesOf(c)
    r := res.Cars.Available(c.Request().Context())
    if !r.OK() {
        return fail(c, r.Err, "Could not load cars.")
    }
    f := view.ParseFilter(c.QueryParams())
    return page(c, http.StatusOK, echo.Map{
        "results": view.Search(r.Data, f),
        "filter":  f,
    })
}

// Detail resolves one car from the available list.  Reviews are best-effort:
// a failure there does not fail the page.
func (h *CarHandler) Detail(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, "invalid car id")
    }
    ctx := c.Request().Context()
    res := middleware.ResourcesOf(c)

    r := res.Cars.Available(ctx)
    cars := r.Data
    if r.OK() && cars == nil {
        cars = []model.Car{}
    }
    d := view.ResolveCar(cars, r.Err, apiclient.MessageOf(r.Err, "Could not load the car."), id)

    status := http.StatusOK
    switch d.State {
    case view.StateNotFound:
        status = http.StatusNotFound
    case view.StateError:
        if apiclient.IsSessionExpired(r.Err) {
            return r.Err
        }
        status = http.StatusBadGateway
    }
    data := echo.Map{"detail": d}
    if d.State == view.StateFound && middleware.CurrentUser(c) != nil {
        if rv := res.Reviews.ForCar(ctx, id); rv.OK() {
            data["reviews"] = rv.Data
        } else if apiclient.IsSessionExpired(rv.Err) {
            return rv.Err
        }
    }
    return page(c, status, data)
}

// Book requests the car for a date range.
func (h *CarHandler) Book(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, "invalid car id")
    }
    var form validate.BookingForm
    if err := c.Bind(&form); err != nil {
        return badRequest(c, "invalid body")
    }
    form.CarID = id
    if err := h.Validate.Booking(form); err != nil {
        return fail(c, err, "")
    }
    res := middleware.ResourcesOf(c)
    b, err := res.Bookings.Create().Mutate(c.Request().Context(), apiclient.NewBooking{
        CarID:     id,
        StartDate: form.StartDate,
        EndDate:   form.EndDate,
    })
    if err != nil {
        return fail(c, err, "Could not book the car.")
    }
    return done(c, http.StatusCreated, "/bookings", echo.Map{"booking": b})
}

// MyBookings lists the renter's own bookings.
func (h *CarHandler) MyBookings(c echo.Context) error {
    res := middleware.ResourcesOf(c)
    r := res.Bookings.Mine(c.Request().Context())
    if !r.OK() {
        return fail(c, r.Err, "Could not load your bookings.")
    }
    return page(c, http.StatusOK, echo.Map{"bookings": r.Data})
}

// Review rates a car.
func (h *CarHandler) Review(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, "invalid car id")
    }
    var form validate.ReviewForm
    if err := c.Bind(&form); err != nil {
        return badRequest(c, "invalid body")
    }
    if err := h.Validate.Struct(form); err != nil {
        return fail(c, err, "")
    }
    res := middleware.ResourcesOf(c)
    rv, err := res.Reviews.Create().Mutate(c.Request().Context(), model.Review{
        CarID:   id,
        Rating:  form.Rating,
        Comment: strings.TrimSpace(form.Comment),
    })
    if err != nil {
        return fail(c, err, "Could not save your review.")
    }
    return done(c, http.StatusCreated, "/cars/"+strconv.FormatInt(id, 10), echo.Map{"review": rv})
}

// Report files an abuse report against a car or a user.
func (h *CarHandler) Report(c echo.Context) error {
    var form validate.ReportForm
    if err := c.Bind(&form); err != nil {
        return badRequest(c, "invalid body")
    }
    if err := h.Validate.Struct(form); err != nil {
        return fail(c, err, "")
    }
    rep := model.Report{Reason: strings.TrimSpace(form.Reason), Details: strings.TrimSpace(form.Details)}
    back := "/cars"
    if form.CarID > 0 {
        rep.CarID = &form.CarID
        back = "/cars/" + strconv.FormatInt(form.CarID, 10)
    }
    if form.UserID > 0 {
        rep.UserID = &form.UserID
    }
    res := middleware.ResourcesOf(c)
    out, err := res.Reports.Submit().Mutate(c.Request().Context(), rep)
    if err != nil {
        return fail(c, err, "Could not submit the report.")
    }
    return done(c, http.StatusCreated, back, echo.Map{"report": out})
}
