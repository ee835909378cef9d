package resource

import (
	"context"
	"net/url"
	"strconv"

	"github.com/iliyamo/carshare-web/internal/apiclient"
	"github.com/iliyamo/carshare-web/internal/model"
	"github.com/iliyamo/carshare-web/internal/query"
)

// Users wraps the users REST viewset.
type Users struct {
	api *apiclient.Client
	qc  *query.Client
}

// List returns users matching the query.
func (u *Users) List(ctx context.Context, q url.Values) query.Result[[]model.User] {
	return query.Query[[]model.User]{
		Key: u.qc.PrivateKey(ResUsers, q),
		Fetch: func(ctx context.Context) ([]model.User, error) {
			return u.api.Users.List(ctx, q)
		},
	}.Run(ctx, u.qc)
}

// Get returns one user.
func (u *Users) Get(ctx context.Context, id int64) query.Result[*model.User] {
	return query.Query[*model.User]{
		Key: u.qc.PrivateKey(ResUsers, query.Params("id", strconv.FormatInt(id, 10))),
		Fetch: func(ctx context.Context) (*model.User, error) {
			return u.api.Users.Get(ctx, id)
		},
	}.Run(ctx, u.qc)
}

// UserPatch is a partial update of one user.
type UserPatch struct {
	ID     int64
	Fields map[string]any
}

// Patch partially updates a user.
func (u *Users) Patch() *query.Mutation[UserPatch, *model.User] {
	return query.NewMutation(u.qc, "patch-user",
		func(ctx context.Context, in UserPatch) (*model.User, error) {
			return u.api.Users.Patch(ctx, in.ID, in.Fields)
		},
		query.MutationOptions[*model.User]{
			Invalidates:    []string{ResUsers},
			SuccessMessage: func(*model.User) string { return "User updated." },
			Fallback:       "Could not update the user.",
		})
}

// Delete removes a user.
func (u *Users) Delete() *query.Mutation[int64, struct{}] {
	return query.NewMutation(u.qc, "delete-user",
		func(ctx context.Context, id int64) (struct{}, error) {
			return struct{}{}, u.api.Users.Delete(ctx, id)
		},
		query.MutationOptions[struct{}]{
			Invalidates:    []string{ResUsers},
			SuccessMessage: func(struct{}) string { return "User deleted." },
			Fallback:       "Could not delete the user.",
		})
}

// Reports files abuse reports. Nothing is cached for reports.
type Reports struct {
	api *apiclient.Client
	qc  *query.Client
}

// Submit files a report.
func (r *Reports) Submit() *query.Mutation[model.Report, *model.Report] {
	return query.NewMutation(r.qc, "submit-report", r.api.Reports.Submit,
		query.MutationOptions[*model.Report]{
			SuccessMessage: func(*model.Report) string { return "Thanks, your report was submitted." },
			Fallback:       "Could not submit the report.",
		})
}

// Reviews wraps the reviews REST viewset.
type Reviews struct {
	api *apiclient.Client
	qc  *query.Client
}

// ForCar lists the reviews of one car.
func (r *Reviews) ForCar(ctx context.Context, carID int64) query.Result[[]model.Review] {
	params := query.Params("car_id", strconv.FormatInt(carID, 10))
	return query.Query[[]model.Review]{
		Key: r.qc.PublicKey(ResReviews, params),
		Fetch: func(ctx context.Context) ([]model.Review, error) {
			return r.api.Reviews.List(ctx, params)
		},
	}.Run(ctx, r.qc)
}

// Create posts a review.
func (r *Reviews) Create() *query.Mutation[model.Review, *model.Review] {
	return query.NewMutation(r.qc, "create-review",
		func(ctx context.Context, in model.Review) (*model.Review, error) {
			return r.api.Reviews.Create(ctx, in)
		},
		query.MutationOptions[*model.Review]{
			Invalidates:    []string{ResReviews},
			SuccessMessage: func(*model.Review) string { return "Thanks for your review!" },
			Fallback:       "Could not post the review.",
		})
}
