package model

// CarStatus enumerates the listing states a vehicle moves through.
type CarStatus string

const (
    CarPending     CarStatus = "pending"
    CarAvailable   CarStatus = "available"
    CarRejected    CarStatus = "rejected"
    CarRented      CarStatus = "rented"
    CarMaintenance CarStatus = "maintenance"
)

// Valid reports whether s is a known car status.
func (s CarStatus) Valid() bool {
    switch s {
    case CarPending, CarAvailable, CarRejected, CarRented, CarMaintenance:
        return true
    }
    return false
}

// DateRange is an inclusive [start, end] pair of ISO dates (YYYY-MM-DD).
type DateRange struct {
    StartDate string `json:"start_date"`
    EndDate   string `json:"end_date"`
}

// Car is a vehicle listing as returned by the API.  Image references are
// URLs or data URIs; availability is a list of windows the owner opened.
type Car struct {
    ID           int64       `json:"id"`
    OwnerID      int64       `json:"owner_id"`
    Make         string      `json:"make"`
    Model        string      `json:"model"`
    Year         int         `json:"year"`
    DailyRate    float64     `json:"daily_rate"`
    Location     string      `json:"location"`
    Seats        int         `json:"seats"`
    CarType      string      `json:"car_type"`
    Features     []string    `json:"features"`
    Status       CarStatus   `json:"status"`
    Images       []string    `json:"images"`
    Availability []DateRange `json:"availability"`
    Description  string      `json:"description,omitempty"`
    CreatedAt    string      `json:"created_at,omitempty"`
}

// HasFeature reports whether the car lists the named feature (case-insensitive).
func (c Car) HasFeature(name string) bool {
    for _, f := range c.Features {
        if equalFold(f, name) {
            return true
        }
    }
    return false
}
