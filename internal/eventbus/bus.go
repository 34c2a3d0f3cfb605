// Package eventbus is an in-process, typed publish/subscribe channel
// connecting payment flows to the dashboards and fraud detection.
//
// Delivery is synchronous and in publish order. A subscriber only sees
// events published while it is subscribed: there is no replay and no
// de-duplication.
package eventbus

import (
	"context"
	"slices"
	"sync"

	"github.com/dvloznov/edufin/internal/logger"
)

// Handler receives delivered events.
type Handler func(ctx context.Context, ev Event)

// Publisher is the producing side of the bus.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Subscriber is the consuming side of the bus.
type Subscriber interface {
	Subscribe(h Handler, kinds ...Kind) (unsubscribe func())
}

type subscription struct {
	id    uint64
	kinds []Kind
	h     Handler
}

func (s *subscription) wants(k Kind) bool {
	return len(s.kinds) == 0 || slices.Contains(s.kinds, k)
}

// Bus is safe for concurrent use. Handlers may publish or unsubscribe from
// inside a delivery.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	nextID uint64
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers h for the given kinds (all kinds when none given).
// The returned func removes the subscription and may be called more than once.
func (b *Bus) Subscribe(h Handler, kinds ...Kind) func() {
	b.mu.Lock()
	b.nextID++
	sub := &subscription{id: b.nextID, kinds: append([]Kind(nil), kinds...), h: h}
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.subs = slices.DeleteFunc(b.subs, func(s *subscription) bool { return s.id == sub.id })
		})
	}
}

// Publish delivers ev to every subscriber registered at the time of the call.
// Handlers run on the caller's goroutine; a panicking handler is logged and
// does not stop delivery to the rest.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	targets := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.wants(ev.Kind) {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		b.call(ctx, s, ev)
	}
}

func (b *Bus) call(ctx context.Context, s *subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log := logger.FromContext(ctx)
			log.Error().
				Interface("panic", r).
				Str("kind", string(ev.Kind)).
				Uint64("subscriber", s.id).
				Msg("Event handler panicked")
		}
	}()
	s.h(ctx, ev)
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

var (
	_ Publisher  = (*Bus)(nil)
	_ Subscriber = (*Bus)(nil)
)
