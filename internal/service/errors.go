package service

import "errors"

var (
	// ErrFetchFailed is returned when a read endpoint fails (transport, non-2xx or malformed body).
	ErrFetchFailed = errors.New("fetch failed")

	// ErrInvalidInput is returned when a precondition on a pure function or setter is violated.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSlotUnavailable is returned when selecting a slot that is not available.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrIncompleteDraft is returned when submitting before venue, slot or players are set.
	ErrIncompleteDraft = errors.New("incomplete booking draft")

	// ErrInconsistentDiscount is returned when a valid coupon's final amount exceeds the subtotal.
	ErrInconsistentDiscount = errors.New("inconsistent discount")

	// ErrSubmissionFailed is returned when the backend rejects or never receives a booking.
	ErrSubmissionFailed = errors.New("booking submission failed")

	// ErrStaleResult is returned when a remote result arrives after the flow moved on.
	ErrStaleResult = errors.New("stale result discarded")

	// ErrSubmissionInFlight is returned when submit is invoked while a submission is outstanding.
	ErrSubmissionInFlight = errors.New("submission already in flight")

	// ErrInvalidTransition is returned when an operation is not allowed in the flow's current state.
	ErrInvalidTransition = errors.New("invalid flow transition")

	// ErrFlowNotFound is returned when a flow id is unknown or expired.
	ErrFlowNotFound = errors.New("booking flow not found")
)

// SubmissionError carries the human-readable reason a booking was not created.
type SubmissionError struct {
	Reason string
	Err    error
}

func (e *SubmissionError) Error() string {
	return "booking submission failed: " + e.Reason
}

// Is makes errors.Is(err, ErrSubmissionFailed) hold for every SubmissionError.
func (e *SubmissionError) Is(target error) bool {
	return target == ErrSubmissionFailed
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
