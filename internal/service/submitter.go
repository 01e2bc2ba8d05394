package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/court-booking-flow/internal/backend"
	"github.com/fairyhunter13/court-booking-flow/internal/metrics"
	"github.com/fairyhunter13/court-booking-flow/internal/model"
)

// SubmissionFallbackReason is used when the backend gave no reason.
const SubmissionFallbackReason = "Unable to create booking. Please try again."

// BookingAPI is the backend surface used to create bookings.
type BookingAPI interface {
	CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error)
}

// BookingSubmitter turns a complete draft into a backend booking.
type BookingSubmitter struct {
	api BookingAPI
}

// NewBookingSubmitter creates a BookingSubmitter backed by api.
func NewBookingSubmitter(api BookingAPI) *BookingSubmitter {
	return &BookingSubmitter{api: api}
}

// Submit sends the draft's payload. An incomplete draft fails with
// ErrIncompleteDraft before any network call; a backend failure is returned
// as *SubmissionError. Submit does not deduplicate repeated calls.
func (s *BookingSubmitter) Submit(ctx context.Context, draft *BookingDraft) (*model.Booking, error) {
	if draft == nil {
		return nil, fmt.Errorf("%w: no draft", ErrIncompleteDraft)
	}
	payload, err := draft.ToSubmissionPayload()
	if err != nil {
		metrics.IncBookingSubmission("incomplete")
		return nil, err
	}

	booking, err := s.api.CreateBooking(ctx, payload)
	if err != nil {
		reason := SubmissionFallbackReason
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			reason = apiErr.Message
		}
		metrics.IncBookingSubmission("failed")
		log.Error().Err(err).
			Str("court_id", payload.CourtID).
			Str("booking_date", payload.BookingDate).
			Str("start_time", payload.StartTime).
			Msg("booking submission failed")
		return nil, &SubmissionError{Reason: reason, Err: err}
	}
	if booking == nil {
		metrics.IncBookingSubmission("failed")
		return nil, &SubmissionError{Reason: SubmissionFallbackReason, Err: backend.ErrMalformedResponse}
	}

	metrics.IncBookingSubmission("created")
	log.Info().
		Str("booking_id", booking.ID).
		Str("court_id", payload.CourtID).
		Str("booking_date", payload.BookingDate).
		Str("start_time", payload.StartTime).
		Int("players", payload.NumberOfPlayers).
		Msg("booking created")
	return booking, nil
}
