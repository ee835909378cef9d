package validate

import (
	"time"
)

// LoginForm is the sign-in form.
type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
	Next     string `form:"next" json:"next"`
}

// RegisterForm is the sign-up form.
type RegisterForm struct {
	Username  string `form:"username" json:"username" validate:"required,min=3,max=150"`
	Email     string `form:"email" json:"email" validate:"required,email"`
	FirstName string `form:"first_name" json:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" json:"last_name" validate:"max=150"`
	Password  string `form:"password" json:"password" validate:"required,password"`
	Password2 string `form:"password2" json:"password2" validate:"required,eqfield=Password"`
}

// CarForm is the owner's new-listing form. Files arrive separately as
// multipart parts.
type CarForm struct {
	Make        string   `form:"make" json:"make" validate:"required,max=50"`
	Model       string   `form:"model" json:"model" validate:"required,max=50"`
	Year        int      `form:"year" json:"year" validate:"required,gte=1950,lte=2100"`
	DailyRate   float64  `form:"daily_rate" json:"daily_rate" validate:"required,gt=0"`
	Location    string   `form:"location" json:"location" validate:"required,max=255"`
	Seats       int      `form:"seats" json:"seats" validate:"required,gte=1,lte=20"`
	CarType     string   `form:"car_type" json:"car_type" validate:"required,oneof=sedan suv hatchback convertible coupe van truck electric"`
	Features    []string `form:"features" json:"features"`
	Description string   `form:"description" json:"description" validate:"max=2000"`
	// Availability holds one opening window.
	AvailableFrom string `form:"available_from" json:"available_from" validate:"omitempty,isodate"`
	AvailableTo   string `form:"available_to" json:"available_to" validate:"required_with=AvailableFrom,omitempty,isodate"`
}

// BookingForm requests a car for a date range.
type BookingForm struct {
	CarID     int64  `form:"car_id" json:"car_id" validate:"required,gt=0"`
	StartDate string `form:"start_date" json:"start_date" validate:"required,isodate"`
	EndDate   string `form:"end_date" json:"end_date" validate:"required,isodate"`
}

// TicketForm opens a support ticket.
type TicketForm struct {
	Subject     string `form:"subject" json:"subject" validate:"required,max=200"`
	Description string `form:"description" json:"description" validate:"required,max=5000"`
}

// ReplyForm appends to a ticket thread.
type ReplyForm struct {
	Message string `form:"message" json:"message" validate:"required,max=5000"`
}

// TicketStatusForm moves a ticket to a new state.
type TicketStatusForm struct {
	Status string `form:"status" json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

// ReportForm flags a car or a user.
type ReportForm struct {
	Reason  string `form:"reason" json:"reason" validate:"required,max=100"`
	Details string `form:"details" json:"details" validate:"max=2000"`
	CarID   int64  `form:"car_id" json:"car_id" validate:"required_without=UserID"`
	UserID  int64  `form:"user_id" json:"user_id" validate:"required_without=CarID"`
}

// ReviewForm rates a car.
type ReviewForm struct {
	Rating  int    `form:"rating" json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `form:"comment" json:"comment" validate:"max=2000"`
}

// AdminCarForm edits a listing from the admin table.
type AdminCarForm struct {
	Make      string  `form:"make" json:"make" validate:"omitempty,max=50"`
	Model     string  `form:"model" json:"model" validate:"omitempty,max=50"`
	DailyRate float64 `form:"daily_rate" json:"daily_rate" validate:"omitempty,gt=0"`
	Location  string  `form:"location" json:"location" validate:"omitempty,max=255"`
	Status    string  `form:"status" json:"status" validate:"omitempty,oneof=pending available rejected rented maintenance"`
}

// SupportSettingsForm holds the support agent's local preferences.
type SupportSettingsForm struct {
	EmailAlerts bool   `form:"email_alerts" json:"email_alerts"`
	AutoAssign  bool   `form:"auto_assign" json:"auto_assign"`
	PageSize    int    `form:"page_size" json:"page_size" validate:"omitempty,gte=5,lte=100"`
	Signature   string `form:"signature" json:"signature" validate:"max=500"`
}

// Booking validates f and checks that the range is ordered.
func (x *Validator) Booking(f BookingForm) error {
	if err := x.Struct(f); err != nil {
		return err
	}
	return dateOrder("end_date", f.StartDate, f.EndDate)
}

// Car validates f and checks the availability window.
func (x *Validator) Car(f CarForm) error {
	if err := x.Struct(f); err != nil {
		return err
	}
	if f.AvailableFrom == "" {
		return nil
	}
	return dateOrder("available_to", f.AvailableFrom, f.AvailableTo)
}

func dateOrder(field, start, end string) error {
	s, _ := time.Parse(DateLayout, start)
	e, _ := time.Parse(DateLayout, end)
	if e.Before(s) {
		return FieldErrors{field: "End date must not be before the start date."}
	}
	return nil
}
