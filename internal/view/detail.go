package view

import "github.com/iliyamo/carshare-web/internal/model"

// DetailState is the state of a single-item page.
type DetailState string

const (
	StateLoading  DetailState = "loading"
	StateError    DetailState = "error"
	StateNotFound DetailState = "not_found"
	StateFound    DetailState = "found"
)

// CarDetail is the car page's view model.
type CarDetail struct {
	State DetailState `json:"state"`
	Car   *model.Car  `json:"car,omitempty"`
	Error string      `json:"error,omitempty"`
}

// ResolveCar finds id in an already fetched collection. A nil list with no
// error means the fetch has not completed.
func ResolveCar(cars []model.Car, fetchErr error, errMsg string, id int64) CarDetail {
	switch {
	case fetchErr != nil:
		return CarDetail{State: StateError, Error: errMsg}
	case cars == nil:
		return CarDetail{State: StateLoading}
	}
	for i := range cars {
		if cars[i].ID == id {
			c := cars[i]
			return CarDetail{State: StateFound, Car: &c}
		}
	}
	return CarDetail{State: StateNotFound}
}

// FindTicket locates a ticket by id.
func FindTicket(tickets []model.Ticket, id int64) (model.Ticket, bool) {
	for _, t := range tickets {
		if t.ID == id {
			return t, true
		}
	}
	return model.Ticket{}, false
}

// FilterCars keeps the cars with the given status ("" keeps all).
func FilterCars(cars []model.Car, status model.CarStatus) []model.Car {
	if status == "" {
		return cars
	}
	out := make([]model.Car, 0, len(cars))
	for _, c := range cars {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out
}

// CountByStatus tallies cars per status for the owner dashboard.
func CountByStatus(cars []model.Car) map[model.CarStatus]int {
	out := map[model.CarStatus]int{}
	for _, c := range cars {
		out[c.Status]++
	}
	return out
}

// Earnings sums owner payouts of completed and approved bookings.
func Earnings(bookings []model.Booking) float64 {
	var total float64
	for _, b := range bookings {
		if b.Status == model.BookingApproved || b.Status == model.BookingCompleted {
			total += b.OwnerPayout
		}
	}
	return total
}

// CountTickets tallies tickets per status.
func CountTickets(tickets []model.Ticket) map[model.TicketStatus]int {
	out := map[model.TicketStatus]int{}
	for _, t := range tickets {
		out[t.Status]++
	}
	return out
}

// FilterTickets keeps the tickets with the given status ("" keeps all).
func FilterTickets(tickets []model.Ticket, status model.TicketStatus) []model.Ticket {
	if status == "" {
		return tickets
	}
	out := make([]model.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}
