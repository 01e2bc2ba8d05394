package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/court-booking-flow/internal/metrics"
	"github.com/fairyhunter13/court-booking-flow/internal/model"
)

// State is the step a booking flow is in.
type State string

const (
	StateVenueSelected    State = "venue_selected"
	StateSlotsLoading     State = "slots_loading"
	StateSlotsLoaded      State = "slots_loaded"
	StateSlotPicked       State = "slot_picked"
	StateSubmitting       State = "submitting"
	StateConfirmed        State = "confirmed"
	StateSubmissionFailed State = "submission_failed"
	StateAbandoned        State = "abandoned"
)

// Terminal reports whether no further operation is accepted.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateAbandoned
}

type event string

const (
	evSelectDate        event = "select_date"
	evReloadSlots       event = "reload_slots"
	evChangeVenue       event = "change_venue"
	evSlotsLoaded       event = "slots_loaded"
	evSlotsLoadedPicked event = "slots_loaded_picked"
	evPickSlot          event = "pick_slot"
	evEditDraft         event = "edit_draft"
	evEditCoupon        event = "edit_coupon"
	evSubmit            event = "submit"
	evSubmitSucceeded   event = "submit_succeeded"
	evSubmitFailed      event = "submit_failed"
	evAbandon           event = "abandon"
)

var transitions = map[State]map[event]State{
	StateVenueSelected: {
		evSelectDate:  StateSlotsLoading,
		evReloadSlots: StateSlotsLoading,
		evChangeVenue: StateSlotsLoading,
		evEditDraft:   StateVenueSelected,
		evAbandon:     StateAbandoned,
	},
	StateSlotsLoading: {
		evSelectDate:        StateSlotsLoading,
		evReloadSlots:       StateSlotsLoading,
		evChangeVenue:       StateSlotsLoading,
		evSlotsLoaded:       StateSlotsLoaded,
		evSlotsLoadedPicked: StateSlotPicked,
		evEditDraft:         StateSlotsLoading,
		evAbandon:           StateAbandoned,
	},
	StateSlotsLoaded: {
		evSelectDate:  StateSlotsLoading,
		evReloadSlots: StateSlotsLoading,
		evChangeVenue: StateSlotsLoading,
		evPickSlot:    StateSlotPicked,
		evEditDraft:   StateSlotsLoaded,
		evAbandon:     StateAbandoned,
	},
	StateSlotPicked: {
		evSelectDate:  StateSlotsLoading,
		evReloadSlots: StateSlotsLoading,
		evChangeVenue: StateSlotsLoading,
		evPickSlot:    StateSlotPicked,
		evEditDraft:   StateSlotPicked,
		evEditCoupon:  StateSlotPicked,
		evSubmit:      StateSubmitting,
		evAbandon:     StateAbandoned,
	},
	StateSubmitting: {
		evSubmitSucceeded: StateConfirmed,
		evSubmitFailed:    StateSubmissionFailed,
	},
	StateSubmissionFailed: {
		evSelectDate:  StateSlotsLoading,
		evReloadSlots: StateSlotsLoading,
		evChangeVenue: StateSlotsLoading,
		evPickSlot:    StateSlotPicked,
		evEditDraft:   StateSlotPicked,
		evEditCoupon:  StateSlotPicked,
		evSubmit:      StateSubmitting,
		evAbandon:     StateAbandoned,
	},
}

func nextState(from State, ev event) (State, bool) {
	to, ok := transitions[from][ev]
	return to, ok
}

// ReceiptRecorder persists the price breakdown of a confirmed booking.
type ReceiptRecorder interface {
	Insert(ctx context.Context, receipt model.Receipt) error
}

// FlowDeps are the collaborators shared by every flow.
type FlowDeps struct {
	Slots     SlotAPI
	Coupons   *CouponValidator
	Submitter *BookingSubmitter
	Receipts  ReceiptRecorder // optional
	Clock     func() time.Time
}

// FlowSnapshot is a consistent read of a flow.
type FlowSnapshot struct {
	ID              string                  `json:"id"`
	State           State                   `json:"state"`
	Venue           VenueRef                `json:"venue"`
	Date            string                  `json:"date"`
	Slots           []model.Slot            `json:"slots"`
	SlotsError      string                  `json:"slots_error,omitempty"`
	SelectedSlot    *model.Slot             `json:"selected_slot,omitempty"`
	Players         int                     `json:"number_of_players"`
	TeamName        string                  `json:"team_name,omitempty"`
	SpecialRequests string                  `json:"special_requests,omitempty"`
	Coupon          *model.CouponEvaluation `json:"coupon,omitempty"`
	Quote           PriceQuote              `json:"quote"`
	SubmissionError string                  `json:"submission_error,omitempty"`
	Booking         *model.Booking          `json:"booking,omitempty"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// Flow drives one booking from venue to confirmation. Remote calls are made
// without holding the lock; their results are dropped when the flow moved on
// in the meantime.
type Flow struct {
	id   string
	deps FlowDeps

	mu           sync.Mutex
	state        State
	draft        *BookingDraft
	catalog      *SlotCatalog
	couponTicket uint64
	slotsErr     string
	submitErr    string
	booking      *model.Booking
	updatedAt    time.Time

	onTerminal func(id string)
}

// NewFlow opens a flow on venue dated today.
func NewFlow(id string, venue VenueRef, deps FlowDeps) (*Flow, error) {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	draft, err := NewBookingDraft(venue, deps.Clock)
	if err != nil {
		return nil, err
	}
	return &Flow{
		id:        id,
		deps:      deps,
		state:     StateVenueSelected,
		draft:     draft,
		catalog:   NewSlotCatalog(deps.Slots),
		updatedAt: deps.Clock(),
	}, nil
}

// ID returns the flow id.
func (f *Flow) ID() string { return f.id }

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// IdleSince reports the time of the last accepted operation.
func (f *Flow) IdleSince() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updatedAt
}

// fire applies ev under f.mu.
func (f *Flow) fire(ev event) error {
	to, ok := nextState(f.state, ev)
	if !ok {
		return fmt.Errorf("%w: %s not allowed in %s", ErrInvalidTransition, ev, f.state)
	}
	if to != f.state {
		log.Debug().Str("flow_id", f.id).Str("from", string(f.state)).Str("to", string(to)).Msg("flow transition")
	}
	f.state = to
	f.updatedAt = f.deps.Clock()
	return nil
}

func (f *Flow) allowed(ev event) error {
	if _, ok := nextState(f.state, ev); !ok {
		return fmt.Errorf("%w: %s not allowed in %s", ErrInvalidTransition, ev, f.state)
	}
	return nil
}

// SelectDate sets the booking date (YYYY-MM-DD) and loads its slots. It may
// be called again while a previous load is in flight; only the latest load
// is kept.
func (f *Flow) SelectDate(ctx context.Context, date string) ([]model.Slot, error) {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, date)
	}

	f.mu.Lock()
	if err := f.allowed(evSelectDate); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if err := f.draft.SetDate(day); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	_ = f.fire(evSelectDate)
	ticket, err := f.catalog.Begin(f.draft.Venue().ID, f.draft.Date())
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return f.loadSlots(ctx, ticket)
}

// ReloadSlots refetches the slots of the current venue and date. A selected
// slot survives only if it is still offered and available.
func (f *Flow) ReloadSlots(ctx context.Context) ([]model.Slot, error) {
	f.mu.Lock()
	if err := f.fire(evReloadSlots); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	ticket, err := f.catalog.Begin(f.draft.Venue().ID, f.draft.Date())
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return f.loadSlots(ctx, ticket)
}

// ChangeVenue moves the flow to another venue, keeping the date, and loads
// that venue's slots. Slot and coupon are dropped.
func (f *Flow) ChangeVenue(ctx context.Context, venue VenueRef) ([]model.Slot, error) {
	f.mu.Lock()
	if err := f.allowed(evChangeVenue); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if err := f.draft.SetVenue(venue); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.catalog.Invalidate()
	f.couponTicket++
	_ = f.fire(evChangeVenue)
	ticket, err := f.catalog.Begin(f.draft.Venue().ID, f.draft.Date())
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return f.loadSlots(ctx, ticket)
}

// loadSlots runs the fetch for a ticket taken under f.mu. Every key change
// takes a new ticket under that lock, so the latest ticket always matches the
// draft and its answer settles the loading state.
func (f *Flow) loadSlots(ctx context.Context, ticket SlotTicket) ([]model.Slot, error) {
	slots, fetchErr := f.catalog.Load(ctx, ticket)
	if errors.Is(fetchErr, ErrStaleResult) {
		return nil, fetchErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	venueID, date := ticket.Key()
	if f.state != StateSlotsLoading || f.draft.Venue().ID != venueID || f.draft.Date() != date {
		metrics.IncStaleDiscard("slots")
		return nil, ErrStaleResult
	}

	f.slotsErr = ""
	if fetchErr != nil {
		f.slotsErr = "Failed to load available slots"
		f.draft.ClearSlot()
		_ = f.fire(evSlotsLoaded)
		return slots, fetchErr
	}

	if selected, ok := f.draft.SelectedSlot(); ok {
		current, found := f.catalog.Lookup(selected.StartTime)
		if !found || f.draft.SetSlot(current) != nil {
			f.draft.ClearSlot()
		}
	}
	if _, ok := f.draft.SelectedSlot(); ok {
		_ = f.fire(evSlotsLoadedPicked)
	} else {
		_ = f.fire(evSlotsLoaded)
	}
	return slots, nil
}

// PickSlot selects the slot starting at startTime from the loaded slots.
func (f *Flow) PickSlot(startTime string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.allowed(evPickSlot); err != nil {
		return err
	}
	venueID, date := f.catalog.Key()
	if venueID != f.draft.Venue().ID || date != f.draft.Date() {
		return fmt.Errorf("%w: slots for %s are not loaded", ErrInvalidInput, f.draft.Date())
	}
	slot, ok := f.catalog.Lookup(startTime)
	if !ok {
		return fmt.Errorf("%w: no slot starts at %s", ErrInvalidInput, startTime)
	}
	if err := f.draft.SetSlot(slot); err != nil {
		return err
	}
	f.submitErr = ""
	return f.fire(evPickSlot)
}

// SetPlayers changes the player count. Any applied coupon is dropped and an
// in-flight coupon validation will be discarded.
func (f *Flow) SetPlayers(n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.allowed(evEditDraft); err != nil {
		return err
	}
	f.draft.SetPlayers(n)
	f.couponTicket++
	return f.fire(evEditDraft)
}

// SetTeamDetails records the optional team name and special requests.
func (f *Flow) SetTeamDetails(teamName, specialRequests string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.allowed(evEditDraft); err != nil {
		return err
	}
	f.draft.SetTeamDetails(teamName, specialRequests)
	return f.fire(evEditDraft)
}

// ApplyCoupon validates code against the current subtotal and records the
// outcome, valid or not. The outcome is discarded with ErrStaleResult if the
// subtotal basis changed or another coupon operation started meanwhile.
func (f *Flow) ApplyCoupon(ctx context.Context, code string) (model.CouponEvaluation, error) {
	f.mu.Lock()
	if err := f.allowed(evEditCoupon); err != nil {
		f.mu.Unlock()
		return model.CouponEvaluation{}, err
	}
	if _, ok := f.draft.SelectedSlot(); !ok {
		f.mu.Unlock()
		return model.CouponEvaluation{}, fmt.Errorf("%w: select a slot before applying a coupon", ErrIncompleteDraft)
	}
	f.couponTicket++
	ticket := f.couponTicket
	revision := f.draft.Revision()
	subtotal := f.draft.Subtotal()
	f.mu.Unlock()

	eval, err := f.deps.Coupons.Validate(ctx, code, subtotal)
	if err != nil {
		return model.CouponEvaluation{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if ticket != f.couponTicket || revision != f.draft.Revision() || f.allowed(evEditCoupon) != nil {
		metrics.IncStaleDiscard("coupon")
		log.Debug().Str("flow_id", f.id).Str("coupon_code", eval.Code).Msg("discarding stale coupon result")
		return eval, ErrStaleResult
	}
	if err := f.draft.ApplyCoupon(eval); err != nil {
		return eval, err
	}
	return eval, f.fire(evEditCoupon)
}

// RemoveCoupon drops the applied coupon and discards any validation in flight.
func (f *Flow) RemoveCoupon() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.allowed(evEditCoupon); err != nil {
		return err
	}
	f.draft.RemoveCoupon()
	f.couponTicket++
	return f.fire(evEditCoupon)
}

// Submit creates the booking. A second call while one is outstanding fails
// with ErrSubmissionInFlight. On failure the draft is kept for a retry.
func (f *Flow) Submit(ctx context.Context) (*model.Booking, error) {
	f.mu.Lock()
	switch {
	case f.state == StateSubmitting:
		f.mu.Unlock()
		return nil, ErrSubmissionInFlight
	case f.state.Terminal():
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: flow is %s", ErrInvalidTransition, f.state)
	}
	if _, err := f.draft.ToSubmissionPayload(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if err := f.fire(evSubmit); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.submitErr = ""
	quote := f.draft.Quote()
	draft := f.draft
	f.mu.Unlock()

	// The draft is read-only while submitting: every mutating event is
	// rejected in that state.
	booking, err := f.deps.Submitter.Submit(ctx, draft)

	f.mu.Lock()
	if err != nil {
		var subErr *SubmissionError
		if errors.As(err, &subErr) {
			f.submitErr = subErr.Reason
		} else {
			f.submitErr = err.Error()
		}
		_ = f.fire(evSubmitFailed)
		f.mu.Unlock()
		return nil, err
	}
	f.booking = booking
	_ = f.fire(evSubmitSucceeded)
	receipt := f.receiptLocked(booking, quote)
	onTerminal := f.onTerminal
	f.mu.Unlock()

	if f.deps.Receipts != nil {
		if err := f.deps.Receipts.Insert(ctx, receipt); err != nil {
			log.Error().Err(err).Str("flow_id", f.id).Str("booking_id", booking.ID).Msg("failed to record booking receipt")
		}
	}
	if onTerminal != nil {
		onTerminal(f.id)
	}
	return booking, nil
}

func (f *Flow) receiptLocked(booking *model.Booking, quote PriceQuote) model.Receipt {
	slot, _ := f.draft.SelectedSlot()
	return model.Receipt{
		BookingID:       booking.ID,
		CourtID:         f.draft.Venue().ID,
		VenueName:       f.draft.Venue().Name,
		BookingDate:     f.draft.Date(),
		StartTime:       slot.StartTime,
		NumberOfPlayers: f.draft.Players(),
		PricePerHour:    slot.Price,
		Subtotal:        quote.Subtotal,
		Total:           quote.Total,
		CouponCode:      quote.CouponCode,
		CreatedAt:       f.deps.Clock(),
	}
}

// Abandon ends the flow without booking.
func (f *Flow) Abandon() error {
	f.mu.Lock()
	if err := f.fire(evAbandon); err != nil {
		f.mu.Unlock()
		return err
	}
	f.catalog.Invalidate()
	f.couponTicket++
	onTerminal := f.onTerminal
	f.mu.Unlock()

	if onTerminal != nil {
		onTerminal(f.id)
	}
	return nil
}

// Snapshot returns the flow's current state, draft, slots and quote.
func (f *Flow) Snapshot() FlowSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := FlowSnapshot{
		ID:              f.id,
		State:           f.state,
		Venue:           f.draft.Venue(),
		Date:            f.draft.Date(),
		Slots:           []model.Slot{},
		SlotsError:      f.slotsErr,
		Players:         f.draft.Players(),
		Coupon:          f.draft.Coupon(),
		Quote:           f.draft.Quote(),
		SubmissionError: f.submitErr,
		Booking:         f.booking,
		UpdatedAt:       f.updatedAt,
	}
	snap.TeamName, snap.SpecialRequests = f.draft.TeamDetails()
	if venueID, date := f.catalog.Key(); venueID == snap.Venue.ID && date == snap.Date {
		snap.Slots = f.catalog.Slots()
	}
	if slot, ok := f.draft.SelectedSlot(); ok {
		snap.SelectedSlot = &slot
	}
	return snap
}
