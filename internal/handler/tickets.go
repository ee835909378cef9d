package handler

import (
    "encoding/gob"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/carshare-web/internal/apiclient"
    "github.com/iliyamo/carshare-web/internal/middleware"
    "github.com/iliyamo/carshare-web/internal/model"
    "github.com/iliyamo/carshare-web/internal/notify"
    "github.com/iliyamo/carshare-web/internal/query"
    "github.com/iliyamo/carshare-web/internal/resource"
    "github.com/iliyamo/carshare-web/internal/validate"
    "github.com/iliyamo/carshare-web/internal/view"
)

const supportSettingsKey = "support_settings"

func init() {
    gob.Register(validate.SupportSettingsForm{})
}

// DefaultSupportSettings applies until an agent saves their own.
var DefaultSupportSettings = validate.SupportSettingsForm{EmailAlerts: true, PageSize: 25}

// TicketHandler serves the customer ticket pages and the support desk.
type TicketHandler struct {
    Validate *validate.Validator
}

func NewTicketHandler(v *validate.Validator) *TicketHandler {
    return &TicketHandler{Validate: v}
}

// isStaff reports whether u works the support desk.
func isStaff(u *model.User) bool {
    return u != nil && (u.Role == model.RoleSupport || u.Role == model.RoleAdmin)
}

// visibleTickets is the list a user may open threads from: staff see every
// ticket, everyone else their own.
func visibleTickets(c echo.Context) query.Result[[]model.Ticket] {
    res := middleware.ResourcesOf(c)
    if isStaff(middleware.CurrentUser(c)) {
        return res.Tickets.Admin(c.Request().Context())
    }
    return res.Tickets.Mine(c.Request().Context())
}

// List shows the caller's tickets.
func (h *TicketHandler) List(c echo.Context) error {
    res := middleware.ResourcesOf(c)
    r := res.Tickets.Mine(c.Request().Context())
    if !r.OK() {
        return fail(c, r.Err, "Could not load your tickets.")
    }
    return page(c, http.StatusOK, echo.Map{"tickets": r.Data})
}

// Create opens a ticket.
func (h *TicketHandler) Create(c echo.Context) error {
    var form validate.TicketForm
    if err := c.Bind(&form); err != nil {
        return badRequest(c, "invalid body")
    }
    form.Subject = strings.TrimSpace(form.Subject)
    form.Description = strings.TrimSpace(form.Description)
    if err := h.Validate.Struct(form); err != nil {
        return fail(c, err, "")
    }
    res := middleware.ResourcesOf(c)
    t, err := res.Tickets.Create().Mutate(c.Request().Context(), apiclient.NewTicket{Subject: form.Subject, Description: form.Description})
    if err != nil {
        return fail(c, err, "Could not open the ticket.")
    }
    return done(c, http.StatusCreated, "/tickets/"+strconv.FormatInt(t.ID, 10), echo.Map{"ticket": t})
}

// Show renders one ticket with its thread.  The ticket is resolved from the
// caller's visible list so nobody can read another user's thread by id.
func (h *TicketHandler) Show(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, "invalid ticket id")
    }
    r := visibleTickets(c)
    if !r.OK() {
        return fail(c, r.Err, "Could not load the ticket.")
    }
    t, ok := view.FindTicket(r.Data, id)
    if !ok {
        return page(c, http.StatusNotFound, echo.Map{"error": "Ticket not found."})
    }
    res := middleware.ResourcesOf(c)
    replies := res.Tickets.Replies(c.Request().Context(), id)
    if !replies.OK() {
        return fail(c, replies.Err, "Could not load the conversation.")
    }
    return page(c, http.StatusOK, echo.Map{"ticket": t, "replies": replies.Data})
}

// Reply appends a message to a ticket the caller can see.  Like Show, the
// ticket must be in the caller's visible list; anything else is a 404.
func (h *TicketHandler) Reply(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, "invalid ticket id")
    }
    var form validate.ReplyForm
    if err := c.Bind(&form); err != nil {
        return badRequest(c, "invalid body")
    }
    form.Message = strings.TrimSpace(form.Message)
    if err := h.Validate.Struct(form); err != nil {
        return fail(c, err, "")
    }
    r := visibleTickets(c)
    if !r.OK() {
        return fail(c, r.Err, "Could not load the ticket.")
    }
    if _, ok := view.FindTicket(r.Data, id); !ok {
        return page(c, http.StatusNotFound, echo.Map{"error": "Ticket not found."})
    }
    res := middleware.ResourcesOf(c)
    rep, err := res.Tickets.Reply().Mutate(c.Request().Context(), resource.ReplyInput{TicketID: id, Message: form.Message})
    if err != nil {
        return fail(c, err, "Could not send the reply.")
    }
    return done(c, http.StatusCreated, "/tickets/"+strconv.FormatInt(id, 10), echo.Map{"reply": rep})
}

// SetStatus moves a ticket through the support workflow.
func (h *TicketHandler) SetStatus(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, "invalid ticket id")
    }
    var form validate.TicketStatusForm
    if err := c.Bind(&form); err != nil {
        return badRequest(c, "invalid body")
    }
    if err := h.Validate.Struct(form); err != nil {
        return fail(c, err, "")
    }
    res := middleware.ResourcesOf(c)
    t, err := res.Tickets.SetStatus().Mutate(c.Request().Context(), resource.TicketStatusChange{TicketID: id, Status: model.TicketStatus(form.Status)})
    if err != nil {
        return fail(c, err, "Could not update the ticket.")
    }
    return done(c, http.StatusOK, "/tickets/"+strconv.FormatInt(id, 10), echo.Map{"ticket": t})
}

// SupportDashboard summarises the support queue.
func (h *TicketHandler) SupportDashboard(c echo.Context) error {
    res := middleware.ResourcesOf(c)
    r := res.Tickets.Admin(c.Request().Context())
    if !r.OK() {
        return fail(c, r.Err, "Could not load tickets.")
    }
    open := view.FilterTickets(r.Data, model.TicketOpen)
    return page(c, http.StatusOK, echo.Map{
        "counts":   view.CountTickets(r.Data),
        "open":     open,
        "settings": supportSettings(c),
    })
}

// SupportTickets lists every ticket, optionally by ?status=.
func (h *TicketHandler) SupportTickets(c echo.Context) error {
    status := model.TicketStatus(c.QueryParam("status"))
    if status != "" && !status.Valid() {
        return badRequest(c, "invalid ticket status")
    }
    res := middleware.ResourcesOf(c)
    r := res.Tickets.Admin(c.Request().Context())
    if !r.OK() {
        return fail(c, r.Err, "Could not load tickets.")
    }
    return page(c, http.StatusOK, echo.Map{"tickets": view.FilterTickets(r.Data, status), "status": status})
}

// SupportSettings shows the agent's preferences.
func (h *TicketHandler) SupportSettings(c echo.Context) error {
    return page(c, http.StatusOK, echo.Map{"settings": supportSettings(c)})
}

// SaveSupportSettings stores the agent's preferences in the browser's
// cookie session.  Nothing is sent to the API.
func (h *TicketHandler) SaveSupportSettings(c echo.Context) error {
    var form validate.SupportSettingsForm
    if err := c.Bind(&form); err != nil {
        return badRequest(c, "invalid body")
    }
    form.Signature = strings.TrimSpace(form.Signature)
    if err := h.Validate.Struct(form); err != nil {
        return fail(c, err, "")
    }
    if form.PageSize == 0 {
        form.PageSize = DefaultSupportSettings.PageSize
    }
    s, ok := middleware.UISession(c)
    if !ok {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "settings are unavailable"})
    }
    s.Values[supportSettingsKey] = form
    s.AddFlash(notifySaved())
    if err := s.Save(c.Request(), c.Response()); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save settings"})
    }
    if wantsJSON(c) {
        return page(c, http.StatusOK, echo.Map{"settings": form, "redirect": "/support/settings"})
    }
    return c.Redirect(http.StatusSeeOther, "/support/settings")
}

func notifySaved() notify.Notification {
    return notify.New(notify.LevelSuccess, "support-settings", "Settings saved.")
}

func supportSettings(c echo.Context) validate.SupportSettingsForm {
    if s, ok := middleware.UISession(c); ok {
        if v, ok := s.Values[supportSettingsKey].(validate.SupportSettingsForm); ok {
            return v
        }
    }
    return DefaultSupportSettings
}
