package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/court-booking-flow/internal/model"
)

var testSlot = model.Slot{StartTime: "10:00", EndTime: "11:00", DisplayTime: "10:00 AM - 11:00 AM", Price: 200, Available: true}

func newTestDraft(t *testing.T) *BookingDraft {
	t.Helper()
	d, err := NewBookingDraft(VenueRef{ID: "court-1", Name: "Arena"}, fixedClock)
	require.NoError(t, err)
	return d
}

func validEval(subtotal int, final float64) model.CouponEvaluation {
	return model.CouponEvaluation{
		Code:        "SAVE10",
		Valid:       true,
		FinalAmount: float64Ptr(final),
		Message:     "Coupon applied",
		Subtotal:    subtotal,
	}
}

func TestNewBookingDraft_Defaults(t *testing.T) {
	d := newTestDraft(t)

	assert.Equal(t, "court-1", d.Venue().ID)
	assert.Equal(t, "2026-10-15", d.Date())
	assert.Equal(t, DefaultPlayers, d.Players())
	_, ok := d.SelectedSlot()
	assert.False(t, ok)
	assert.Nil(t, d.Coupon())
	assert.Equal(t, PriceQuote{}, d.Quote())
}

func TestNewBookingDraft_RequiresVenue(t *testing.T) {
	_, err := NewBookingDraft(VenueRef{ID: " "}, fixedClock)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBookingDraft_SetSlot_UnavailableIsRejected(t *testing.T) {
	d := newTestDraft(t)
	before := d.Revision()

	err := d.SetSlot(model.Slot{StartTime: "11:00", Price: 250, Available: false})

	assert.ErrorIs(t, err, ErrSlotUnavailable)
	_, ok := d.SelectedSlot()
	assert.False(t, ok)
	assert.Equal(t, before, d.Revision())

	_, err = d.ToSubmissionPayload()
	assert.ErrorIs(t, err, ErrIncompleteDraft)
}

func TestBookingDraft_SetSlot_ChangeClearsCoupon(t *testing.T) {
	d := newTestDraft(t)
	require.NoError(t, d.SetSlot(testSlot))
	require.NoError(t, d.ApplyCoupon(validEval(400, 360)))

	require.NoError(t, d.SetSlot(testSlot), "reselecting the same slot")
	assert.NotNil(t, d.Coupon(), "same slot keeps the coupon")

	other := model.Slot{StartTime: "18:00", Price: 300, Available: true}
	require.NoError(t, d.SetSlot(other))
	assert.Nil(t, d.Coupon())
	assert.Equal(t, 600, d.Quote().Total)
}

func TestBookingDraft_SetPlayers_Clamps(t *testing.T) {
	d := newTestDraft(t)

	d.SetPlayers(0)
	assert.Equal(t, 1, d.Players())

	d.SetPlayers(-4)
	assert.Equal(t, 1, d.Players())

	d.SetPlayers(6)
	assert.Equal(t, 6, d.Players())
}

func TestBookingDraft_SetPlayers_ClampsToMaximum(t *testing.T) {
	d := newTestDraft(t)
	require.NoError(t, d.SetSlot(model.Slot{StartTime: "10:00", Price: 200, Available: true}))

	d.SetPlayers(1 << 60)

	assert.Equal(t, model.MaxPlayers, d.Players())
	quote := d.Quote()
	assert.Equal(t, 200*model.MaxPlayers, quote.Subtotal)
	assert.Equal(t, quote.Subtotal, quote.Total)

	payload, err := d.ToSubmissionPayload()
	require.NoError(t, err)
	assert.Equal(t, model.MaxPlayers, payload.NumberOfPlayers)
}

func TestBookingDraft_ToSubmissionPayload_RejectsUnpriceableSlot(t *testing.T) {
	d := newTestDraft(t)
	require.NoError(t, d.SetSlot(model.Slot{StartTime: "10:00", Price: 1e300, Available: true}))

	_, err := d.ToSubmissionPayload()

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, d.Quote().Total)
}

func TestBookingDraft_SetPlayers_Idempotent(t *testing.T) {
	d := newTestDraft(t)
	require.NoError(t, d.SetSlot(testSlot))
	require.NoError(t, d.ApplyCoupon(validEval(400, 360)))

	d.SetPlayers(3)
	once := *d
	onceRevision := d.Revision()

	d.SetPlayers(3)

	assert.Equal(t, once.players, d.players)
	assert.Equal(t, once.coupon, d.coupon)
	assert.Equal(t, onceRevision, d.Revision())
	assert.Equal(t, once.Quote(), d.Quote())
}

func TestBookingDraft_SetPlayers_InvalidatesCoupon(t *testing.T) {
	d := newTestDraft(t)
	require.NoError(t, d.SetSlot(testSlot))
	require.NoError(t, d.ApplyCoupon(validEval(400, 360)))
	require.Equal(t, 360, d.Quote().Total)

	d.SetPlayers(3)

	assert.Nil(t, d.Coupon())
	quote := d.Quote()
	assert.Equal(t, 600, quote.Subtotal)
	assert.Equal(t, quote.Subtotal, quote.Total)
	assert.Empty(t, quote.CouponCode)
}

func TestBookingDraft_SetDate(t *testing.T) {
	d := newTestDraft(t)
	require.NoError(t, d.SetSlot(testSlot))
	require.NoError(t, d.ApplyCoupon(validEval(400, 360)))

	require.NoError(t, d.SetDate(time.Date(2027, 3, 5, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, "2027-03-05", d.Date())
	_, ok := d.SelectedSlot()
	assert.False(t, ok, "slot belongs to the previous date")
	assert.Nil(t, d.Coupon())
}

func TestBookingDraft_SetDate_TodayAllowedPastRejected(t *testing.T) {
	d := newTestDraft(t)

	assert.NoError(t, d.SetDate(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)))

	err := d.SetDate(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "2026-10-15", d.Date())
}

func TestBookingDraft_ApplyCoupon(t *testing.T) {
	d := newTestDraft(t)

	err := d.ApplyCoupon(validEval(0, 0))
	assert.ErrorIs(t, err, ErrIncompleteDraft, "no slot yet")

	require.NoError(t, d.SetSlot(testSlot))
	err = d.ApplyCoupon(validEval(200, 180))
	assert.ErrorIs(t, err, ErrStaleResult, "evaluated against another subtotal")
	assert.Nil(t, d.Coupon())

	require.NoError(t, d.ApplyCoupon(validEval(400, 360)))
	quote := d.Quote()
	assert.Equal(t, PriceQuote{Subtotal: 400, Total: 360, Discount: 40, CouponCode: "SAVE10"}, quote)

	d.RemoveCoupon()
	assert.Equal(t, PriceQuote{Subtotal: 400, Total: 400}, d.Quote())
}

func TestBookingDraft_Quote_InvalidCouponIsIgnored(t *testing.T) {
	d := newTestDraft(t)
	require.NoError(t, d.SetSlot(testSlot))

	require.NoError(t, d.ApplyCoupon(model.CouponEvaluation{Code: "NOPE", Message: "Invalid coupon code", Subtotal: 400}))

	assert.Equal(t, PriceQuote{Subtotal: 400, Total: 400}, d.Quote())
	require.NotNil(t, d.Coupon())
	assert.Equal(t, "Invalid coupon code", d.Coupon().Message)
}

func TestBookingDraft_Quote_InconsistentDiscountRejected(t *testing.T) {
	d := newTestDraft(t)
	require.NoError(t, d.SetSlot(testSlot))
	require.NoError(t, d.ApplyCoupon(validEval(400, 450)))

	quote := d.Quote()

	assert.Equal(t, 400, quote.Total)
	assert.Zero(t, quote.Discount)
	assert.True(t, quote.DiscountRejected)
}

func TestBookingDraft_ToSubmissionPayload(t *testing.T) {
	d := newTestDraft(t)
	require.NoError(t, d.SetDate(time.Date(2027, 1, 5, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, d.SetSlot(model.Slot{StartTime: "06:00", Price: 200, Available: true}))
	d.SetTeamDetails("  Smashers ", "need rackets ")

	payload, err := d.ToSubmissionPayload()

	require.NoError(t, err)
	assert.Equal(t, model.CreateBookingRequest{
		CourtID:         "court-1",
		BookingDate:     "2027-01-05",
		StartTime:       "06:00",
		DurationMinutes: 60,
		NumberOfPlayers: 2,
		PricePerHour:    200,
		TeamName:        "Smashers",
		SpecialRequests: "need rackets",
	}, payload)
}

func TestBookingDraft_ToSubmissionPayload_Incomplete(t *testing.T) {
	d := newTestDraft(t)

	_, err := d.ToSubmissionPayload()
	assert.ErrorIs(t, err, ErrIncompleteDraft)

	empty := &BookingDraft{players: 2, slot: &testSlot}
	_, err = empty.ToSubmissionPayload()
	assert.ErrorIs(t, err, ErrIncompleteDraft)
}

func TestBookingDraft_SetVenue(t *testing.T) {
	d := newTestDraft(t)
	require.NoError(t, d.SetSlot(testSlot))

	assert.ErrorIs(t, d.SetVenue(VenueRef{}), ErrInvalidInput)

	require.NoError(t, d.SetVenue(VenueRef{ID: "court-2", Name: "Dome"}))
	assert.Equal(t, "court-2", d.Venue().ID)
	_, ok := d.SelectedSlot()
	assert.False(t, ok)
}
