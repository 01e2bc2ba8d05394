package model

// StartFlowRequest is the DTO for opening a booking flow on a venue.
type StartFlowRequest struct {
	VenueID       string `json:"venue_id" validate:"required,notblank,max=255"`
	VenueName     string `json:"venue_name" validate:"max=255"`
	VenueLocation string `json:"venue_location" validate:"max=255"`
}

// SelectDateRequest is the DTO for choosing the booking date.
type SelectDateRequest struct {
	Date string `json:"date" validate:"required,ymd"`
}

// PickSlotRequest is the DTO for choosing a slot from the loaded catalog.
type PickSlotRequest struct {
	StartTime string `json:"start_time" validate:"required,hhmm"`
}

// SetPlayersRequest is the DTO for changing the player count.
type SetPlayersRequest struct {
	NumberOfPlayers *int `json:"number_of_players" validate:"required,max=50"`
}

// TeamDetailsRequest is the DTO for the optional team details step.
type TeamDetailsRequest struct {
	TeamName        string `json:"team_name" validate:"max=255"`
	SpecialRequests string `json:"special_requests" validate:"max=1000"`
}

// ApplyCouponRequest is the DTO for applying a coupon code.
type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,notblank,max=64"`
}
