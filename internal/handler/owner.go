package handler

import (
    "fmt"
    "io"
    "mime/multipart"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/carshare-web/internal/apiclient"
    "github.com/iliyamo/carshare-web/internal/middleware"
    "github.com/iliyamo/carshare-web/internal/model"
    "github.com/iliyamo/carshare-web/internal/resource"
    "github.com/iliyamo/carshare-web/internal/validate"
    "github.com/iliyamo/carshare-web/internal/view"
)

// maxUploadFiles bounds images and documents per listing.
const maxUploadFiles = 10

// OwnerHandler serves the owner dashboard: listings, new-listing form and
// booking approvals.
type OwnerHandler struct {
    Validate *validate.Validator
}

func NewOwnerHandler(v *validate.Validator) *OwnerHandler {
    return &OwnerHandler{Validate: v}
}

// Dashboard combines the owner's cars and bookings.  Each section fails
// independently.
func (h *OwnerHandler) Dashboard(c echo.Context) error {
    ctx := c.Request().Context()
    res := middleware.ResourcesOf(c)
    errs := map[string]string{}
    data := echo.Map{}

    if r := res.Cars.Owned(ctx); r.OK() {
        data["cars"] = r.Data
        data["car_counts"] = view.CountByStatus(r.Data)
    } else if err := sectionError(errs, "cars", r.Err, "Could not load your cars."); err != nil {
        return err
    }

    status := model.BookingStatus(c.QueryParam("status"))
    if status != "" && !status.Valid() {
        return badRequest(c, "invalid booking status")
    }
    if r := res.Bookings.Owned(ctx, status); r.OK() {
        data["bookings"] = r.Data
        data["earnings"] = view.Earnings(r.Data)
    } else if err := sectionError(errs, "bookings", r.Err, "Could not load bookings."); err != nil {
        return err
    }

    if len(errs) > 0 {
        data["errors"] = errs
    }
    return page(c, http.StatusOK, data)
}

// Cars lists the owner's listings, optionally filtered by ?status=.
func (h *OwnerHandler) Cars(c echo.Context) error {
    status := model.CarStatus(c.QueryParam("status"))
    if status != "" && !status.Valid() {
        return badRequest(c, "invalid car status")
    }
    res := middleware.ResourcesOf(c)
    r := res.Cars.Owned(c.Request().Context())
    if !r.OK() {
        return fail(c, r.Err, "Could not load your cars.")
    }
    return page(c, http.StatusOK, echo.Map{"cars": view.FilterCars(r.Data, status)})
}

// CreateCar accepts the multipart listing form.  Images are inlined as data
// URIs; documents are forwarded as file parts.  The create mutation runs
// once, after every local check passed.
func (h *OwnerHandler) CreateCar(c echo.Context) error {
    var form validate.CarForm
    if err := c.Bind(&form); err != nil {
        return badRequest(c, "invalid body")
    }
    form.Features = cleanList(form.Features)
    if err := h.Validate.Car(form); err != nil {
        return fail(c, err, "")
    }

    var images []string
    var docs []apiclient.File
    if mf, err := c.MultipartForm(); err == nil {
        var fe validate.FieldErrors
        images, fe = readImages(mf.File["images"])
        if fe == nil {
            docs, fe = readDocuments(mf.File["documents"])
        }
        if fe != nil {
            return fail(c, fe, "")
        }
    }

    in := apiclient.NewCar{
        Make:        strings.TrimSpace(form.Make),
        Model:       strings.TrimSpace(form.Model),
        Year:        form.Year,
        DailyRate:   form.DailyRate,
        Location:    strings.TrimSpace(form.Location),
        Seats:       form.Seats,
        CarType:     form.CarType,
        Description: strings.TrimSpace(form.Description),
        Features:    form.Features,
        Images:      images,
        Documents:   docs,
    }
    if form.AvailableFrom != "" {
        in.Availability = []model.DateRange{{StartDate: form.AvailableFrom, EndDate: form.AvailableTo}}
    }

    res := middleware.ResourcesOf(c)
    car, err := res.Cars.Create().Mutate(c.Request().Context(), in)
    if err != nil {
        return fail(c, err, "Could not create the listing.")
    }
    return done(c, http.StatusCreated, "/owner/cars", echo.Map{"car": car})
}

// Bookings lists bookings on the owner's cars, optionally by ?status=.
func (h *OwnerHandler) Bookings(c echo.Context) error {
    status := model.BookingStatus(c.QueryParam("status"))
    if status != "" && !status.Valid() {
        return badRequest(c, "invalid booking status")
    }
    res := middleware.ResourcesOf(c)
    r := res.Bookings.Owned(c.Request().Context(), status)
    if !r.OK() {
        return fail(c, r.Err, "Could not load bookings.")
    }
    return page(c, http.StatusOK, echo.Map{"bookings": r.Data, "status": status})
}

// ApproveBooking accepts a pending booking.
func (h *OwnerHandler) ApproveBooking(c echo.Context) error {
    return h.decide(c, apiclient.ActionApprove)
}

// RejectBooking declines a pending booking.
func (h *OwnerHandler) RejectBooking(c echo.Context) error {
    return h.decide(c, apiclient.ActionReject)
}

func (h *OwnerHandler) decide(c echo.Context, action apiclient.BookingAction) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, "invalid booking id")
    }
    res := middleware.ResourcesOf(c)
    b, err := res.Bookings.Decide().Mutate(c.Request().Context(), resource.BookingDecision{ID: id, Action: action})
    if err != nil {
        return fail(c, err, "Could not update the booking.")
    }
    return done(c, http.StatusOK, "/owner/bookings", echo.Map{"booking": b})
}

func readImages(files []*multipart.FileHeader) ([]string, validate.FieldErrors) {
    if len(files) > maxUploadFiles {
        return nil, validate.FieldErrors{"images": fmt.Sprintf("Upload at most %d images.", maxUploadFiles)}
    }
    out := make([]string, 0, len(files))
    for _, fh := range files {
        data, err := readUpload(fh, view.MaxImageBytes)
        if err != nil {
            return nil, validate.FieldErrors{"images": fh.Filename + ": " + uploadMessage(err)}
        }
        uri, err := view.DataURI(data)
        if err != nil {
            return nil, validate.FieldErrors{"images": fh.Filename + ": " + uploadMessage(err)}
        }
        out = append(out, uri)
    }
    return out, nil
}

func readDocuments(files []*multipart.FileHeader) ([]apiclient.File, validate.FieldErrors) {
    if len(files) > maxUploadFiles {
        return nil, validate.FieldErrors{"documents": fmt.Sprintf("Upload at most %d documents.", maxUploadFiles)}
    }
    out := make([]apiclient.File, 0, len(files))
    for _, fh := range files {
        data, err := readUpload(fh, view.MaxImageBytes)
        if err != nil {
            return nil, validate.FieldErrors{"documents": fh.Filename + ": " + uploadMessage(err)}
        }
        out = append(out, apiclient.File{
            Field:       "documents",
            Name:        fh.Filename,
            ContentType: http.DetectContentType(data),
            Data:        data,
        })
    }
    return out, nil
}

func readUpload(fh *multipart.FileHeader, limit int64) ([]byte, error) {
    if fh.Size > limit {
        return nil, view.ErrImageTooLarge
    }
    f, err := fh.Open()
    if err != nil {
        return nil, err
    }
    defer f.Close()
    data, err := io.ReadAll(io.LimitReader(f, limit+1))
    if err != nil {
        return nil, err
    }
    if int64(len(data)) > limit {
        return nil, view.ErrImageTooLarge
    }
    return data, nil
}

func uploadMessage(err error) string {
    switch err {
    case view.ErrImageTooLarge:
        return "file is larger than 5 MB"
    case view.ErrNotImage:
        return "file is not an image"
    }
    return "could not read the file"
}

// cleanList trims entries and drops blanks and duplicates.
func cleanList(in []string) []string {
    seen := map[string]bool{}
    out := make([]string, 0, len(in))
    for _, s := range in {
        // A single field may carry a comma separated list.
        for _, p := range strings.Split(s, ",") {
            p = strings.TrimSpace(p)
            if p == "" || seen[strings.ToLower(p)] {
                continue
            }
            seen[strings.ToLower(p)] = true
            out = append(out, p)
        }
    }
    return out
}
