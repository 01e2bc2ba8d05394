package model

// Venue is a bookable court as listed by the backend.
type Venue struct {
	ID          string   `json:"id"`
	CourtName   string   `json:"court_name"`
	Location    string   `json:"location"`
	City        string   `json:"city,omitempty"`
	GameType    string   `json:"game_type"`
	Prices      string   `json:"prices"`
	Description string   `json:"description,omitempty"`
	Terms       string   `json:"terms_and_conditions,omitempty"`
	Amenities   []string `json:"amenities,omitempty"`
	Photos      []string `json:"photos,omitempty"`
	Videos      []string `json:"videos,omitempty"`
}

// VenueFilter narrows the venue list. GameTypes are sent comma-joined.
type VenueFilter struct {
	City      string
	Location  string
	GameTypes []string
}
