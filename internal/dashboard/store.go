package dashboard

import (
	"context"
	"sync"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/eventbus"
	"github.com/dvloznov/edufin/internal/logger"
)

// Store owns one dashboard aggregate and serializes every update through Dispatch.
type Store struct {
	mu        sync.RWMutex
	scope     string
	agg       domain.DashboardAggregate
	recentCap int
}

// NewStore seeds a store for scope ("admin" or a student id).
func NewStore(scope string, seed domain.DashboardAggregate, recentCap int) *Store {
	if recentCap <= 0 {
		recentCap = DefaultRecentCap
	}
	return &Store{scope: scope, agg: seed.Clone(), recentCap: recentCap}
}

// Scope returns the dashboard this store renders.
func (s *Store) Scope() string {
	return s.scope
}

// Dispatch applies ev atomically. Ignored and clamped events are logged, never fatal.
func (s *Store) Dispatch(ctx context.Context, ev eventbus.Event) Outcome {
	s.mu.Lock()
	next, out := Reduce(s.agg, ev, s.recentCap)
	s.agg = next
	s.mu.Unlock()

	log := logger.FromContext(ctx)
	switch {
	case out.Err != nil:
		log.Warn().Err(out.Err).Str("scope", s.scope).Str("kind", string(ev.Kind)).Msg("Ignoring malformed dashboard event")
	case len(out.Clamped) > 0:
		log.Warn().Strs("fields", out.Clamped).Str("scope", s.scope).Msg("Dashboard totals clamped at zero")
	}
	return out
}

// Snapshot returns a copy of the current aggregate.
func (s *Store) Snapshot() domain.DashboardAggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agg.Clone()
}

// Filter decides whether an event belongs to a store.
type Filter func(eventbus.Event) bool

// Attach subscribes the store to bus; events rejected by filter are skipped.
// The returned func detaches it.
func (s *Store) Attach(bus eventbus.Subscriber, filter Filter) func() {
	return bus.Subscribe(func(ctx context.Context, ev eventbus.Event) {
		if filter != nil && !filter(ev) {
			return
		}
		s.Dispatch(ctx, ev)
	}, eventbus.KindPaymentSettled, eventbus.KindTotalsOverwritten)
}

// ForStudent accepts events about one student and scoped totals for it.
func ForStudent(studentID string) Filter {
	return func(ev eventbus.Event) bool {
		switch ev.Kind {
		case eventbus.KindPaymentSettled:
			return ev.Payment != nil && ev.Payment.StudentID == studentID
		case eventbus.KindTotalsOverwritten:
			return ev.Totals != nil && ev.Totals.Scope == studentID
		}
		return false
	}
}

// ForAdmin accepts every settled payment and totals scoped to AdminScope or unscoped.
func ForAdmin() Filter {
	return func(ev eventbus.Event) bool {
		switch ev.Kind {
		case eventbus.KindPaymentSettled:
			return true
		case eventbus.KindTotalsOverwritten:
			return ev.Totals != nil && (ev.Totals.Scope == "" || ev.Totals.Scope == AdminScope)
		}
		return false
	}
}
