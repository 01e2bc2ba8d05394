package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// BookingDurationMinutes is the only slot length the product sells.
const BookingDurationMinutes = 60

// MaxPlayers caps the player count of one booking. SetPlayersRequest's
// max tag carries the same value.
const MaxPlayers = 50

// CreateBookingRequest is the body of POST /bookings/.
type CreateBookingRequest struct {
	CourtID         string  `json:"court_id"`
	BookingDate     string  `json:"booking_date"` // YYYY-MM-DD
	StartTime       string  `json:"start_time"`   // HH:MM
	DurationMinutes int     `json:"duration_minutes"`
	NumberOfPlayers int     `json:"number_of_players"`
	PricePerHour    float64 `json:"price_per_hour"`
	TeamName        string  `json:"team_name,omitempty"`
	SpecialRequests string  `json:"special_requests,omitempty"`
}

// Booking is a booking record created by the backend.
type Booking struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	CourtID         string     `json:"court_id"`
	BookingDate     string     `json:"booking_date"`
	StartTime       string     `json:"start_time"`
	EndTime         string     `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes"`
	NumberOfPlayers int        `json:"number_of_players"`
	TeamName        *string    `json:"team_name,omitempty"`
	SpecialRequests *string    `json:"special_requests,omitempty"`
	PricePerHour    Amount     `json:"price_per_hour"`
	TotalAmount     Amount     `json:"total_amount"`
	Status          string     `json:"status"`
	PaymentStatus   string     `json:"payment_status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// Amount is a money value that the backend may encode either as a JSON
// number or as a decimal string ("200.00").
type Amount float64

// UnmarshalJSON accepts numbers, numeric strings and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse amount %q: %w", s, err)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}
