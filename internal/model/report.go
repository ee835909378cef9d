package model

import "strings"

// Report is an abuse report filed against a listing or a user.
type Report struct {
    ID      int64  `json:"id,omitempty"`
    Reason  string `json:"reason"`
    Details string `json:"details,omitempty"`
    CarID   *int64 `json:"car_id,omitempty"`
    UserID  *int64 `json:"user_id,omitempty"`
}

// Review is a renter's rating of a car.
type Review struct {
    ID      int64  `json:"id,omitempty"`
    CarID   int64  `json:"car_id"`
    UserID  int64  `json:"user_id,omitempty"`
    Rating  int    `json:"rating"`
    Comment string `json:"comment,omitempty"`
}

func equalFold(a, b string) bool {
    return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
