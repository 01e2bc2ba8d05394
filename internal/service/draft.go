package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fairyhunter13/court-booking-flow/internal/model"
)

// DefaultPlayers is the player count a new draft starts with.
const DefaultPlayers = 2

// VenueRef identifies the venue a draft books, copied when the flow starts.
type VenueRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// BookingDraft accumulates the booking being assembled. It is not safe for
// concurrent use; Flow serializes access to it.
type BookingDraft struct {
	venue VenueRef

	year       int
	monthIndex int // 0-based
	day        int

	slot            *model.Slot
	players         int
	teamName        string
	specialRequests string
	coupon          *model.CouponEvaluation

	// revision changes whenever the subtotal basis changes.
	revision uint64
	now      func() time.Time
}

// NewBookingDraft starts a draft for venue dated today. A nil clock uses time.Now.
func NewBookingDraft(venue VenueRef, now func() time.Time) (*BookingDraft, error) {
	if strings.TrimSpace(venue.ID) == "" {
		return nil, fmt.Errorf("%w: venue id is required", ErrInvalidInput)
	}
	if now == nil {
		now = time.Now
	}
	today := now()
	return &BookingDraft{
		venue:      venue,
		year:       today.Year(),
		monthIndex: int(today.Month()) - 1,
		day:        today.Day(),
		players:    DefaultPlayers,
		now:        now,
	}, nil
}

// Venue returns the venue the draft books.
func (d *BookingDraft) Venue() VenueRef { return d.venue }

// Date returns the draft date as YYYY-MM-DD.
func (d *BookingDraft) Date() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, d.monthIndex+1, d.day)
}

// Players returns the player count.
func (d *BookingDraft) Players() int { return d.players }

// Revision increments whenever the subtotal basis changes.
func (d *BookingDraft) Revision() uint64 { return d.revision }

// TeamDetails returns the optional team name and special requests.
func (d *BookingDraft) TeamDetails() (teamName, specialRequests string) {
	return d.teamName, d.specialRequests
}

// SelectedSlot returns the selected slot, if any.
func (d *BookingDraft) SelectedSlot() (model.Slot, bool) {
	if d.slot == nil {
		return model.Slot{}, false
	}
	return *d.slot, true
}

// Coupon returns a copy of the last coupon evaluation, if any.
func (d *BookingDraft) Coupon() *model.CouponEvaluation {
	if d.coupon == nil {
		return nil
	}
	c := *d.coupon
	return &c
}

// SetVenue moves the draft to another venue. Slot and coupon are dropped.
func (d *BookingDraft) SetVenue(venue VenueRef) error {
	if strings.TrimSpace(venue.ID) == "" {
		return fmt.Errorf("%w: venue id is required", ErrInvalidInput)
	}
	d.venue = venue
	d.slot = nil
	d.coupon = nil
	d.revision++
	return nil
}

// SetDate changes the booking date. Dates before today are rejected. The
// selected slot and applied coupon belong to the old date and are dropped.
func (d *BookingDraft) SetDate(date time.Time) error {
	now := d.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) {
		return fmt.Errorf("%w: date %s is in the past", ErrInvalidInput, day.Format(time.DateOnly))
	}
	d.year = day.Year()
	d.monthIndex = int(day.Month()) - 1
	d.day = day.Day()
	d.slot = nil
	d.coupon = nil
	d.revision++
	return nil
}

// SetSlot selects slot. An unavailable slot is rejected and leaves the draft
// unchanged. Choosing a different slot drops the applied coupon.
func (d *BookingDraft) SetSlot(slot model.Slot) error {
	if !slot.Available {
		return fmt.Errorf("%w: %s", ErrSlotUnavailable, slot.StartTime)
	}
	if d.slot != nil && *d.slot == slot {
		return nil
	}
	s := slot
	d.slot = &s
	d.coupon = nil
	d.revision++
	return nil
}

// ClearSlot drops the selected slot and the coupon evaluated against it.
func (d *BookingDraft) ClearSlot() {
	if d.slot == nil {
		return
	}
	d.slot = nil
	d.coupon = nil
	d.revision++
}

// SetPlayers sets the player count, clamped to [1, model.MaxPlayers]. Any coupon is
// dropped; the revision only moves when the count actually changes.
func (d *BookingDraft) SetPlayers(n int) {
	if n < 1 {
		n = 1
	}
	if n > model.MaxPlayers {
		n = model.MaxPlayers
	}
	d.coupon = nil
	if n == d.players {
		return
	}
	d.players = n
	d.revision++
}

// SetTeamDetails stores the trimmed team name and special requests.
func (d *BookingDraft) SetTeamDetails(teamName, specialRequests string) {
	d.teamName = strings.TrimSpace(teamName)
	d.specialRequests = strings.TrimSpace(specialRequests)
}

// Subtotal is floor(slot price * players), or 0 without a slot.
func (d *BookingDraft) Subtotal() int {
	if d.slot == nil {
		return 0
	}
	subtotal, err := ComputeSubtotal(d.slot.Price, d.players)
	if err != nil {
		return 0
	}
	return subtotal
}

// ApplyCoupon records eval as the current coupon result. The evaluation must
// have been computed against the current subtotal.
func (d *BookingDraft) ApplyCoupon(eval model.CouponEvaluation) error {
	if d.slot == nil {
		return fmt.Errorf("%w: select a slot before applying a coupon", ErrIncompleteDraft)
	}
	if eval.Subtotal != d.Subtotal() {
		return fmt.Errorf("%w: coupon evaluated against %d, subtotal is %d", ErrStaleResult, eval.Subtotal, d.Subtotal())
	}
	e := eval
	d.coupon = &e
	return nil
}

// RemoveCoupon drops the applied coupon, if any.
func (d *BookingDraft) RemoveCoupon() {
	d.coupon = nil
}

// Quote derives the current price. A valid coupon with an inconsistent final
// amount is ignored and flagged as DiscountRejected.
func (d *BookingDraft) Quote() PriceQuote {
	subtotal := d.Subtotal()
	q := PriceQuote{Subtotal: subtotal, Total: subtotal}
	if d.coupon == nil || !d.coupon.Valid {
		return q
	}
	total, err := ComputeTotal(subtotal, d.coupon)
	if errors.Is(err, ErrInconsistentDiscount) {
		q.DiscountRejected = true
		return q
	}
	q.Total = total
	q.Discount = subtotal - total
	q.CouponCode = d.coupon.Code
	return q
}

// ToSubmissionPayload builds the create-booking body.
func (d *BookingDraft) ToSubmissionPayload() (model.CreateBookingRequest, error) {
	if strings.TrimSpace(d.venue.ID) == "" {
		return model.CreateBookingRequest{}, fmt.Errorf("%w: venue is missing", ErrIncompleteDraft)
	}
	if d.slot == nil {
		return model.CreateBookingRequest{}, fmt.Errorf("%w: no slot selected", ErrIncompleteDraft)
	}
	if d.players < 1 {
		return model.CreateBookingRequest{}, fmt.Errorf("%w: number of players is missing", ErrIncompleteDraft)
	}
	if _, err := ComputeSubtotal(d.slot.Price, d.players); err != nil {
		return model.CreateBookingRequest{}, err
	}
	return model.CreateBookingRequest{
		CourtID:         d.venue.ID,
		BookingDate:     d.Date(),
		StartTime:       d.slot.StartTime,
		DurationMinutes: model.BookingDurationMinutes,
		NumberOfPlayers: d.players,
		PricePerHour:    d.slot.Price,
		TeamName:        d.teamName,
		SpecialRequests: d.specialRequests,
	}, nil
}
