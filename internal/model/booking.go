package model

// BookingStatus is the lifecycle state of a rental request.
type BookingStatus string

const (
    BookingPending   BookingStatus = "pending"
    BookingApproved  BookingStatus = "approved"
    BookingRejected  BookingStatus = "rejected"
    BookingCompleted BookingStatus = "completed"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
    switch s {
    case BookingPending, BookingApproved, BookingRejected, BookingCompleted:
        return true
    }
    return false
}

// Booking records a renter's request for a car over a date range.  The
// monetary fields are computed by the API and displayed untouched.
//
// Fields:
//  ID          – remote primary key.
//  UserID      – renter.
//  CarID       – booked vehicle.
//  StartDate   – first rental day (YYYY-MM-DD).
//  EndDate     – last rental day (YYYY-MM-DD).
//  Status      – pending, approved, rejected or completed.
//  TotalCost   – amount charged to the renter.
//  PlatformFee – marketplace commission.
//  OwnerPayout – amount paid out to the owner.
type Booking struct {
    ID          int64         `json:"id"`
    UserID      int64         `json:"user_id"`
    CarID       int64         `json:"car_id"`
    StartDate   string        `json:"start_date"`
    EndDate     string        `json:"end_date"`
    Status      BookingStatus `json:"status"`
    TotalCost   float64       `json:"total_cost"`
    PlatformFee float64       `json:"platform_fee"`
    OwnerPayout float64       `json:"owner_payout"`
    CreatedAt   string        `json:"created_at,omitempty"`
}
