package dashboard

import (
	"sync"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/eventbus"
)

// AdminScope is the registry key of the institution-wide dashboard.
const AdminScope = "admin"

// SeedFunc builds the starting aggregate for a student.
type SeedFunc func(studentID string) domain.DashboardAggregate

// Registry keeps one Store per scope, attaching each to the bus on creation.
type Registry struct {
	mu        sync.Mutex
	bus       eventbus.Subscriber
	seed      SeedFunc
	recentCap int
	stores    map[string]*Store
	detach    map[string]func()
}

// NewRegistry creates the admin store immediately and student stores lazily.
func NewRegistry(bus eventbus.Subscriber, admin domain.DashboardAggregate, seed SeedFunc, recentCap int) *Registry {
	r := &Registry{
		bus:       bus,
		seed:      seed,
		recentCap: recentCap,
		stores:    make(map[string]*Store),
		detach:    make(map[string]func()),
	}
	adminStore := NewStore(AdminScope, admin, recentCap)
	r.stores[AdminScope] = adminStore
	r.detach[AdminScope] = adminStore.Attach(bus, ForAdmin())
	return r
}

// Admin returns the institution-wide store.
func (r *Registry) Admin() *Store {
	return r.Store(AdminScope)
}

// Store returns the store for scope, creating and attaching it if needed.
func (r *Registry) Store(scope string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[scope]; ok {
		return s
	}
	var seed domain.DashboardAggregate
	if r.seed != nil {
		seed = r.seed(scope)
	}
	s := NewStore(scope, seed, r.recentCap)
	r.stores[scope] = s
	r.detach[scope] = s.Attach(r.bus, ForStudent(scope))
	return s
}

// Drop detaches and forgets a scope. The next Store call reseeds it.
func (r *Registry) Drop(scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.detach[scope]; ok {
		d()
	}
	delete(r.detach, scope)
	delete(r.stores, scope)
}

// Close detaches every store from the bus.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.detach {
		d()
	}
	r.detach = make(map[string]func())
}
