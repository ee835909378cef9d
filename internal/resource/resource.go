// Package resource groups the cached reads and invalidating writes for each
// API resource. Everything here is request-scoped: build a Set per request
// from the session's API client and query client.
package resource

import (
	"github.com/iliyamo/carshare-web/internal/apiclient"
	"github.com/iliyamo/carshare-web/internal/query"
	"github.com/iliyamo/carshare-web/internal/session"
)

// Cache resource names. Mutations list the ones they make stale.
const (
	ResUsers         = "users"
	ResAvailableCars = "available-cars"
	ResOwnerCars     = "owner-cars"
	ResAdminCars     = "admin-cars"
	ResOwnerBookings = "owner-bookings"
	ResBookings      = "bookings"
	ResTickets       = "tickets"
	ResUserTickets   = "user-tickets"
	ResAdminTickets  = "admin-tickets"
	ResTicketReplies = "ticket-replies"
	ResReviews       = "reviews"
)

var (
	carLists     = []string{ResOwnerCars, ResAvailableCars, ResAdminCars}
	bookingLists = []string{ResOwnerBookings, ResBookings}
	ticketLists  = []string{ResTickets, ResUserTickets, ResAdminTickets}
)

// Set is the request's collection of resource families.
type Set struct {
	Auth     *Auth
	Cars     *Cars
	Bookings *Bookings
	Tickets  *Tickets
	Users    *Users
	Reports  *Reports
	Reviews  *Reviews
}

// New builds a Set. api must already be bound to sess (see
// apiclient.Client.WithSession) and qc scoped to the session's user.
func New(api *apiclient.Client, qc *query.Client, sess *session.Handle) *Set {
	return &Set{
		Auth:     &Auth{api: api, qc: qc, sess: sess},
		Cars:     &Cars{api: api, qc: qc},
		Bookings: &Bookings{api: api, qc: qc},
		Tickets:  &Tickets{api: api, qc: qc},
		Users:    &Users{api: api, qc: qc},
		Reports:  &Reports{api: api, qc: qc},
		Reviews:  &Reviews{api: api, qc: qc},
	}
}

func concat(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
