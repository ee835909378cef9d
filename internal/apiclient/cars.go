package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iliyamo/carshare-web/internal/model"
)

// CarsService handles listing queries and car administration.
type CarsService struct {
	client *Client
}

// AdminCarFilter narrows the admin car list server-side.
type AdminCarFilter struct {
	Status  model.CarStatus `json:"status,omitempty"`
	OwnerID int64           `json:"owner_id,omitempty"`
	Search  string          `json:"search,omitempty"`
}

// Values encodes the filter as query parameters, omitting empty fields.
func (f AdminCarFilter) Values() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.OwnerID > 0 {
		q.Set("owner_id", strconv.FormatInt(f.OwnerID, 10))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}

// NewCar is the owner's listing form. Images must already be inline data
// URIs; Documents are sent as file parts.
type NewCar struct {
	Make         string
	Model        string
	Year         int
	DailyRate    float64
	Location     string
	Seats        int
	CarType      string
	Description  string
	Features     []string
	Availability []model.DateRange
	Images       []string
	Documents    []File
}

// CarUpdate is the body of an admin PUT. Zero fields are omitted.
type CarUpdate struct {
	Make         string            `json:"make,omitempty"`
	Model        string            `json:"model,omitempty"`
	Year         int               `json:"year,omitempty"`
	DailyRate    float64           `json:"daily_rate,omitempty"`
	Location     string            `json:"location,omitempty"`
	Seats        int               `json:"seats,omitempty"`
	CarType      string            `json:"car_type,omitempty"`
	Description  string            `json:"description,omitempty"`
	Features     []string          `json:"features,omitempty"`
	Status       model.CarStatus   `json:"status,omitempty"`
	Availability []model.DateRange `json:"availability,omitempty"`
}

// Available lists cars open for booking. No authentication is required.
func (s *CarsService) Available(ctx context.Context) ([]model.Car, error) {
	var out []model.Car
	if err := s.client.get(ctx, "/available-cars/", nil, false, "Could not load cars.", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Owned lists the current owner's cars.
func (s *CarsService) Owned(ctx context.Context) ([]model.Car, error) {
	var out []model.Car
	if err := s.client.get(ctx, "/owner-cars/", nil, true, "Could not load your cars.", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Admin lists every car matching the filter.
func (s *CarsService) Admin(ctx context.Context, f AdminCarFilter) ([]model.Car, error) {
	var out []model.Car
	if err := s.client.get(ctx, "/admin/cars/", f.Values(), true, "Could not load cars.", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create submits a new listing as multipart form data.
func (s *CarsService) Create(ctx context.Context, in NewCar) (*model.Car, error) {
	fields := url.Values{}
	fields.Set("make", in.Make)
	fields.Set("model", in.Model)
	fields.Set("year", strconv.Itoa(in.Year))
	fields.Set("daily_rate", strconv.FormatFloat(in.DailyRate, 'f', 2, 64))
	fields.Set("location", in.Location)
	fields.Set("seats", strconv.Itoa(in.Seats))
	if in.CarType != "" {
		fields.Set("car_type", in.CarType)
	}
	if in.Description != "" {
		fields.Set("description", in.Description)
	}
	for _, f := range in.Features {
		fields.Add("features", f)
	}
	for _, img := range in.Images {
		fields.Add("images", img)
	}
	if len(in.Availability) > 0 {
		b, err := json.Marshal(in.Availability)
		if err != nil {
			return nil, fmt.Errorf("failed to encode availability: %w", err)
		}
		fields.Set("availability", string(b))
	}
	var out model.Car
	err := s.client.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/create/",
		Multipart: &Multipart{Fields: fields, Files: in.Documents},
		Auth:      true,
		Fallback:  "Could not create the listing.",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminUpdate replaces a car's editable fields.
func (s *CarsService) AdminUpdate(ctx context.Context, id int64, in CarUpdate) (*model.Car, error) {
	var out model.Car
	err := s.client.Do(ctx, Request{
		Method:   http.MethodPut,
		Path:     fmt.Sprintf("/admin/cars/%d/", id),
		JSON:     in,
		Auth:     true,
		Fallback: "Could not update the car.",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminDelete removes a car.
func (s *CarsService) AdminDelete(ctx context.Context, id int64) error {
	return s.client.Do(ctx, Request{
		Method:   http.MethodDelete,
		Path:     fmt.Sprintf("/admin/cars/%d/", id),
		Auth:     true,
		Fallback: "Could not delete the car.",
	}, nil)
}
