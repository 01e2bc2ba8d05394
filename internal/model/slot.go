package model

// Slot is a bookable one-hour window on a court.
type Slot struct {
	StartTime   string  `json:"time"` // HH:MM
	EndTime     string  `json:"end_time,omitempty"`
	DisplayTime string  `json:"display_time"`
	Price       float64 `json:"price"`
	Available   bool    `json:"available"`
}

// AvailableSlots is the payload of GET /courts/{id}/available-slots.
type AvailableSlots struct {
	CourtID string `json:"court_id"`
	Date    string `json:"date"`
	Slots   []Slot `json:"slots"`
}
