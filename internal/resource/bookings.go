package resource

import (
	"context"

	"github.com/iliyamo/carshare-web/internal/apiclient"
	"github.com/iliyamo/carshare-web/internal/model"
	"github.com/iliyamo/carshare-web/internal/query"
)

// Bookings covers the owner's incoming bookings and the renter's own.
type Bookings struct {
	api *apiclient.Client
	qc  *query.Client
}

// Owned lists bookings on the owner's cars, filtered by status ("" = all).
func (b *Bookings) Owned(ctx context.Context, status model.BookingStatus) query.Result[[]model.Booking] {
	return query.Query[[]model.Booking]{
		Key: b.qc.PrivateKey(ResOwnerBookings, query.Params("status", string(status))),
		Fetch: func(ctx context.Context) ([]model.Booking, error) {
			return b.api.Bookings.Owned(ctx, status)
		},
	}.Run(ctx, b.qc)
}

// Mine lists the renter's bookings.
func (b *Bookings) Mine(ctx context.Context) query.Result[[]model.Booking] {
	return query.Query[[]model.Booking]{
		Key:   b.qc.PrivateKey(ResBookings, nil),
		Fetch: b.api.Bookings.Mine,
	}.Run(ctx, b.qc)
}

// BookingDecision is an owner's approve/reject action.
type BookingDecision struct {
	ID     int64
	Action apiclient.BookingAction
}

// Decide approves or rejects a booking.
func (b *Bookings) Decide() *query.Mutation[BookingDecision, *model.Booking] {
	return query.NewMutation(b.qc, "booking-approval",
		func(ctx context.Context, in BookingDecision) (*model.Booking, error) {
			return b.api.Bookings.Decide(ctx, in.ID, in.Action)
		},
		query.MutationOptions[*model.Booking]{
			Invalidates: bookingLists,
			SuccessMessage: func(bk *model.Booking) string {
				if bk.Status == model.BookingRejected {
					return "Booking rejected."
				}
				return "Booking approved."
			},
			Fallback: "Could not update the booking.",
		})
}

// Create requests a booking.
func (b *Bookings) Create() *query.Mutation[apiclient.NewBooking, *model.Booking] {
	return query.NewMutation(b.qc, "create-booking", b.api.Bookings.Create,
		query.MutationOptions[*model.Booking]{
			Invalidates:    bookingLists,
			SuccessMessage: func(*model.Booking) string { return "Booking requested. The owner will confirm shortly." },
			Fallback:       "Could not create the booking.",
		})
}
