package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/court-booking-flow/internal/metrics"
)

// DefaultFlowTTL is used when the store is created with a non-positive TTL.
const DefaultFlowTTL = 30 * time.Minute

// FlowStore keeps open flows in memory, keyed by a random UUID. Flows idle
// for longer than the TTL are dropped; confirmed and abandoned flows are
// dropped right away.
type FlowStore struct {
	deps FlowDeps
	ttl  time.Duration

	mu    sync.RWMutex
	flows map[string]*Flow
}

// NewFlowStore creates a store whose flows expire after ttl of inactivity.
func NewFlowStore(deps FlowDeps, ttl time.Duration) *FlowStore {
	if ttl <= 0 {
		ttl = DefaultFlowTTL
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &FlowStore{
		deps:  deps,
		ttl:   ttl,
		flows: make(map[string]*Flow),
	}
}

// Create opens a new flow on venue.
func (s *FlowStore) Create(venue VenueRef) (*Flow, error) {
	flow, err := NewFlow(uuid.NewString(), venue, s.deps)
	if err != nil {
		return nil, err
	}
	flow.onTerminal = s.Delete

	s.mu.Lock()
	s.flows[flow.ID()] = flow
	n := len(s.flows)
	s.mu.Unlock()

	metrics.SetActiveFlows(n)
	log.Info().Str("flow_id", flow.ID()).Str("court_id", venue.ID).Msg("booking flow started")
	return flow, nil
}

// Get returns the flow with id, or ErrFlowNotFound if it is unknown or expired.
func (s *FlowStore) Get(id string) (*Flow, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrFlowNotFound
	}

	s.mu.RLock()
	flow, ok := s.flows[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrFlowNotFound
	}
	if s.expired(flow) {
		s.Delete(id)
		return nil, ErrFlowNotFound
	}
	return flow, nil
}

// Delete removes a flow.
func (s *FlowStore) Delete(id string) {
	s.mu.Lock()
	delete(s.flows, id)
	n := len(s.flows)
	s.mu.Unlock()
	metrics.SetActiveFlows(n)
}

// Len returns the number of held flows.
func (s *FlowStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flows)
}

// Cleanup removes expired flows and returns how many were removed.
func (s *FlowStore) Cleanup() int {
	s.mu.Lock()
	removed := 0
	for id, flow := range s.flows {
		if s.expired(flow) {
			delete(s.flows, id)
			removed++
		}
	}
	n := len(s.flows)
	s.mu.Unlock()

	metrics.SetActiveFlows(n)
	return removed
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (s *FlowStore) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Cleanup(); removed > 0 {
				log.Info().Int("removed", removed).Msg("expired booking flows removed")
			}
		}
	}
}

// expired never reports a flow with a submission in flight.
func (s *FlowStore) expired(flow *Flow) bool {
	if flow.State() == StateSubmitting {
		return false
	}
	return s.deps.Clock().Sub(flow.IdleSince()) > s.ttl
}
