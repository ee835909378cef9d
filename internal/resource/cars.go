package resource

import (
	"context"
	"fmt"

	"github.com/iliyamo/carshare-web/internal/apiclient"
	"github.com/iliyamo/carshare-web/internal/model"
	"github.com/iliyamo/carshare-web/internal/query"
)

// Cars covers listing reads and owner/admin writes.
type Cars struct {
	api *apiclient.Client
	qc  *query.Client
}

// Available is the public list of bookable cars.
func (c *Cars) Available(ctx context.Context) query.Result[[]model.Car] {
	return query.Query[[]model.Car]{
		Key:   c.qc.PublicKey(ResAvailableCars, nil),
		Fetch: c.api.Cars.Available,
	}.Run(ctx, c.qc)
}

// Owned lists the signed-in owner's cars.
func (c *Cars) Owned(ctx context.Context) query.Result[[]model.Car] {
	return query.Query[[]model.Car]{
		Key:   c.qc.PrivateKey(ResOwnerCars, nil),
		Fetch: c.api.Cars.Owned,
	}.Run(ctx, c.qc)
}

// Admin lists cars for moderators with server-side filters.
func (c *Cars) Admin(ctx context.Context, f apiclient.AdminCarFilter) query.Result[[]model.Car] {
	return query.Query[[]model.Car]{
		Key: c.qc.PrivateKey(ResAdminCars, f.Values()),
		Fetch: func(ctx context.Context) ([]model.Car, error) {
			return c.api.Cars.Admin(ctx, f)
		},
	}.Run(ctx, c.qc)
}

// Create submits a listing once; every car list becomes stale on success.
func (c *Cars) Create() *query.Mutation[apiclient.NewCar, *model.Car] {
	return query.NewMutation(c.qc, "create-car", c.api.Cars.Create,
		query.MutationOptions[*model.Car]{
			Invalidates: carLists,
			SuccessMessage: func(car *model.Car) string {
				return fmt.Sprintf("%s %s was submitted for review.", car.Make, car.Model)
			},
			Fallback: "Could not create the listing.",
		})
}

// CarEdit is an admin update of one car.
type CarEdit struct {
	ID     int64
	Update apiclient.CarUpdate
}

// Update applies an admin edit.
func (c *Cars) Update() *query.Mutation[CarEdit, *model.Car] {
	return query.NewMutation(c.qc, "update-car",
		func(ctx context.Context, in CarEdit) (*model.Car, error) {
			return c.api.Cars.AdminUpdate(ctx, in.ID, in.Update)
		},
		query.MutationOptions[*model.Car]{
			Invalidates:    carLists,
			SuccessMessage: func(*model.Car) string { return "Car updated." },
			Fallback:       "Could not update the car.",
		})
}

// StatusChange moves a car to another listing state.
type StatusChange struct {
	ID     int64
	Status model.CarStatus
}

// SetStatus approves, rejects or otherwise re-states a car.
func (c *Cars) SetStatus() *query.Mutation[StatusChange, *model.Car] {
	return query.NewMutation(c.qc, "set-car-status",
		func(ctx context.Context, in StatusChange) (*model.Car, error) {
			return c.api.Cars.AdminUpdate(ctx, in.ID, apiclient.CarUpdate{Status: in.Status})
		},
		query.MutationOptions[*model.Car]{
			Invalidates: carLists,
			SuccessMessage: func(car *model.Car) string {
				switch car.Status {
				case model.CarAvailable:
					return "Car approved."
				case model.CarRejected:
					return "Car rejected."
				}
				return "Car status updated."
			},
			Fallback: "Could not change the car status.",
		})
}

// Delete removes a car.
func (c *Cars) Delete() *query.Mutation[int64, struct{}] {
	return query.NewMutation(c.qc, "delete-car",
		func(ctx context.Context, id int64) (struct{}, error) {
			return struct{}{}, c.api.Cars.AdminDelete(ctx, id)
		},
		query.MutationOptions[struct{}]{
			Invalidates:    carLists,
			SuccessMessage: func(struct{}) string { return "Car deleted." },
			Fallback:       "Could not delete the car.",
		})
}
