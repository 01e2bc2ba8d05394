package model

import "time"

// Receipt is the locally recorded price breakdown of a confirmed booking.
// The backend's booking record does not carry the coupon that was applied.
type Receipt struct {
	BookingID       string    `json:"booking_id"`
	CourtID         string    `json:"court_id"`
	VenueName       string    `json:"venue_name"`
	BookingDate     string    `json:"booking_date"`
	StartTime       string    `json:"start_time"`
	NumberOfPlayers int       `json:"number_of_players"`
	PricePerHour    float64   `json:"price_per_hour"`
	Subtotal        int       `json:"subtotal"`
	Total           int       `json:"total"`
	CouponCode      string    `json:"coupon_code,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
