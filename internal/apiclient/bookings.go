package apiclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/iliyamo/carshare-web/internal/model"
)

// BookingAction is the owner's decision on a pending booking.
type BookingAction string

const (
	ActionApprove BookingAction = "approve"
	ActionReject  BookingAction = "reject"
)

// BookingsService handles the owner side of the booking lifecycle.
type BookingsService struct {
	client *Client
}

// NewBooking is a renter's booking request.
type NewBooking struct {
	CarID     int64  `json:"car_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Owned lists bookings on the current owner's cars, optionally by status.
func (s *BookingsService) Owned(ctx context.Context, status model.BookingStatus) ([]model.Booking, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status": {string(status)}}
	}
	var out []model.Booking
	if err := s.client.get(ctx, "/owner-bookings/", q, true, "Could not load bookings.", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Decide approves or rejects a booking.
func (s *BookingsService) Decide(ctx context.Context, id int64, action BookingAction) (*model.Booking, error) {
	var out model.Booking
	body := map[string]string{"action": string(action)}
	if err := s.client.postJSON(ctx, fmt.Sprintf("/booking-approval/%d/", id), body, "Could not update the booking.", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Mine lists the current user's bookings through the REST viewset.
func (s *BookingsService) Mine(ctx context.Context) ([]model.Booking, error) {
	return NewViewset[model.Booking](s.client, "bookings").List(ctx, nil)
}

// Create requests a booking through the REST viewset.
func (s *BookingsService) Create(ctx context.Context, in NewBooking) (*model.Booking, error) {
	return NewViewset[model.Booking](s.client, "bookings").Create(ctx, in)
}
