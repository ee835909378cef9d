package router // package router defines how HTTP routes are registered for the web server

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/carshare-web/internal/config"
	"github.com/iliyamo/carshare-web/internal/guard"
	"github.com/iliyamo/carshare-web/internal/handler"
	"github.com/iliyamo/carshare-web/internal/middleware"
	"github.com/iliyamo/carshare-web/internal/model"
)

var staff = []model.Role{model.RoleSupport, model.RoleAdmin}

// Rules is the route-guard table.  Paths not listed are public.  It is also
// consulted after login to decide whether the remembered ?next= page may be
// opened by the new session's role.
var Rules = guard.Rules{
	{Prefix: "/bookings"},
	{Prefix: "/tickets"},
	{Prefix: "/become-owner", Roles: []model.Role{model.RoleRegular}},
	{Prefix: "/owner", Roles: []model.Role{model.RoleOwner}},
	{Prefix: "/admin", Roles: []model.Role{model.RoleAdmin}},
	{Prefix: "/support", Roles: staff},
}

// Handlers bundles every page handler.
type Handlers struct {
	Auth    *handler.AuthHandler
	Cars    *handler.CarHandler
	Owner   *handler.OwnerHandler
	Admin   *handler.AdminHandler
	Tickets *handler.TicketHandler
}

// RegisterRoutes registers the operational endpoints.  They sit outside the
// session middleware.
func RegisterRoutes(e *echo.Echo, ready echo.HandlerFunc, metrics echo.HandlerFunc) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", ready)
	e.GET("/metrics", metrics)
}

// RegisterPages registers the page endpoints on g, which must already carry
// the session middleware.  Rules guards every page by path prefix; the few
// signed-in actions under public prefixes carry their own RequireRole.
// Credential endpoints are rate limited.
func RegisterPages(g *echo.Group, h Handlers, rl config.RateLimitConfig, rdb *redis.Client) {
	g.Use(middleware.Guard(Rules))
	limit := middleware.NewTokenBucket(rl, rdb)

	// Public pages and auth
	g.GET("/login", h.Auth.LoginPage)
	g.POST("/login", h.Auth.Login, limit)
	g.POST("/register", h.Auth.Register, limit)
	g.POST("/logout", h.Auth.Logout)
	g.GET("/cars", h.Cars.Search)
	g.GET("/cars/:id", h.Cars.Detail)

	// Signed-in actions under public prefixes
	signedIn := middleware.RequireRole()
	g.POST("/cars/:id/bookings", h.Cars.Book, signedIn)
	g.POST("/cars/:id/reviews", h.Cars.Review, signedIn)
	g.POST("/reports", h.Cars.Report, signedIn)

	g.GET("/bookings", h.Cars.MyBookings)
	g.POST("/become-owner", h.Auth.BecomeOwner)

	t := g.Group("/tickets")
	t.GET("", h.Tickets.List)
	t.POST("", h.Tickets.Create)
	t.GET("/:id", h.Tickets.Show)
	t.POST("/:id/reply", h.Tickets.Reply)
	t.PATCH("/:id", h.Tickets.SetStatus, middleware.RequireRole(staff...))

	o := g.Group("/owner")
	o.GET("/dashboard", h.Owner.Dashboard)
	o.GET("/cars", h.Owner.Cars)
	o.POST("/cars", h.Owner.CreateCar)
	o.GET("/bookings", h.Owner.Bookings)
	o.POST("/bookings/:id/approve", h.Owner.ApproveBooking)
	o.POST("/bookings/:id/reject", h.Owner.RejectBooking)

	a := g.Group("/admin")
	a.GET("", h.Admin.Dashboard)
	a.GET("/cars", h.Admin.Cars)
	a.POST("/cars/:id/approve", h.Admin.ApproveCar)
	a.POST("/cars/:id/reject", h.Admin.RejectCar)
	a.PUT("/cars/:id", h.Admin.UpdateCar)
	a.DELETE("/cars/:id", h.Admin.DeleteCar)
	a.GET("/users", h.Admin.Users)
	a.PATCH("/users/:id", h.Admin.PatchUser)
	a.DELETE("/users/:id", h.Admin.DeleteUser)

	s := g.Group("/support")
	s.GET("", h.Tickets.SupportDashboard)
	s.GET("/tickets", h.Tickets.SupportTickets)
	s.GET("/settings", h.Tickets.SupportSettings)
	s.POST("/settings", h.Tickets.SaveSupportSettings)
}
