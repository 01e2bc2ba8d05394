package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/court-booking-flow/internal/metrics"
	"github.com/fairyhunter13/court-booking-flow/internal/model"
)

// SlotAPI is the backend surface used to load slots.
type SlotAPI interface {
	GetAvailableSlots(ctx context.Context, courtID, date string) (*model.AvailableSlots, error)
}

// SlotCatalog holds the slots of one (venue, date) pair. Only the most
// recently issued fetch may replace the held list.
type SlotCatalog struct {
	api SlotAPI

	mu      sync.Mutex
	issued  uint64
	venueID string
	date    string
	slots   []model.Slot
}

// NewSlotCatalog creates an empty catalog backed by api.
func NewSlotCatalog(api SlotAPI) *SlotCatalog {
	return &SlotCatalog{api: api, slots: []model.Slot{}}
}

// SlotTicket identifies one issued slot fetch.
type SlotTicket struct {
	seq     uint64
	venueID string
	date    string
}

// Key returns the (venue, date) pair the ticket was issued for.
func (t SlotTicket) Key() (venueID, date string) { return t.venueID, t.date }

// FetchSlots loads the slots for venueID on date (YYYY-MM-DD) and replaces
// the held list. On failure it returns an empty list and an error wrapping
// ErrFetchFailed. If a newer fetch was issued while this one was in flight
// the result is dropped and ErrStaleResult is returned.
func (c *SlotCatalog) FetchSlots(ctx context.Context, venueID, date string) ([]model.Slot, error) {
	ticket, err := c.Begin(venueID, date)
	if err != nil {
		return []model.Slot{}, err
	}
	return c.Load(ctx, ticket)
}

// Begin validates the key and issues a ticket that supersedes every earlier
// one. Callers that keep their own copy of the key take the ticket under the
// same lock that guards that copy, so ticket order matches key order.
func (c *SlotCatalog) Begin(venueID, date string) (SlotTicket, error) {
	if strings.TrimSpace(venueID) == "" {
		return SlotTicket{}, fmt.Errorf("%w: venue id is required", ErrInvalidInput)
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return SlotTicket{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, date)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return SlotTicket{seq: c.issued, venueID: venueID, date: date}, nil
}

// Load performs the fetch for ticket. The held list is replaced only if no
// newer ticket was issued in the meantime.
func (c *SlotCatalog) Load(ctx context.Context, ticket SlotTicket) ([]model.Slot, error) {
	venueID, date := ticket.venueID, ticket.date

	resp, err := c.api.GetAvailableSlots(ctx, venueID, date)
	if err == nil && resp != nil && resp.Date != "" && resp.Date != date {
		err = fmt.Errorf("backend answered for date %s", resp.Date)
	}
	if err == nil && resp == nil {
		err = fmt.Errorf("empty slots response")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ticket.seq != c.issued {
		metrics.IncStaleDiscard("slots")
		log.Debug().Str("court_id", venueID).Str("date", date).Msg("discarding stale slot response")
		return []model.Slot{}, ErrStaleResult
	}

	c.venueID, c.date = venueID, date
	if err != nil {
		c.slots = []model.Slot{}
		log.Warn().Err(err).Str("court_id", venueID).Str("date", date).Msg("failed to fetch slots")
		return []model.Slot{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	c.slots = append([]model.Slot{}, resp.Slots...)
	return append([]model.Slot{}, c.slots...), nil
}

// Invalidate drops the held list and makes any in-flight fetch stale.
func (c *SlotCatalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	c.venueID, c.date = "", ""
	c.slots = []model.Slot{}
}

// Key returns the (venue, date) pair of the held list.
func (c *SlotCatalog) Key() (venueID, date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.venueID, c.date
}

// Slots returns a copy of the held list.
func (c *SlotCatalog) Slots() []model.Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Slot{}, c.slots...)
}

// Lookup finds a held slot by its start time.
func (c *SlotCatalog) Lookup(startTime string) (model.Slot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.slots {
		if s.StartTime == startTime {
			return s, true
		}
	}
	return model.Slot{}, false
}
