// Package fees tracks the obligations a student owes and settles them as
// payments arrive. Settling is one-way: a paid obligation never reopens.
package fees

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
)

var (
	// ErrNotFound is returned for an unknown obligation id or title.
	ErrNotFound = errors.New("fee obligation not found")
	// ErrNotOutstanding is returned when settling an already-paid obligation.
	ErrNotOutstanding = errors.New("fee obligation is not outstanding")
)

// Ledger holds one student's obligations. Safe for concurrent use.
type Ledger struct {
	mu   sync.RWMutex
	fees []domain.FeeObligation
}

// NewLedger copies fees into a new ledger.
func NewLedger(fees []domain.FeeObligation) *Ledger {
	return &Ledger{fees: slices.Clone(fees)}
}

// All returns every obligation ordered by due date.
func (l *Ledger) All() []domain.FeeObligation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := slices.Clone(l.fees)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

// Outstanding returns due and upcoming obligations ordered by due date.
func (l *Ledger) Outstanding() []domain.FeeObligation {
	all := l.All()
	out := all[:0]
	for _, f := range all {
		if f.Outstanding() {
			out = append(out, f)
		}
	}
	return out
}

// Find looks an obligation up by id, falling back to an exact title match.
func (l *Ledger) Find(idOrTitle string) (domain.FeeObligation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := l.index(idOrTitle)
	if i < 0 {
		return domain.FeeObligation{}, fmt.Errorf("Find %q: %w", idOrTitle, ErrNotFound)
	}
	return l.fees[i], nil
}

func (l *Ledger) index(idOrTitle string) int {
	if i := slices.IndexFunc(l.fees, func(f domain.FeeObligation) bool { return f.ID == idOrTitle }); i >= 0 {
		return i
	}
	return slices.IndexFunc(l.fees, func(f domain.FeeObligation) bool { return f.Title == idOrTitle })
}

// Settle marks an outstanding obligation paid and returns it as it was
// before settling, so callers can see whether it was overdue.
func (l *Ledger) Settle(idOrTitle string) (domain.FeeObligation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(idOrTitle)
	if i < 0 {
		return domain.FeeObligation{}, fmt.Errorf("Settle %q: %w", idOrTitle, ErrNotFound)
	}
	before := l.fees[i]
	if !before.Outstanding() {
		return before, fmt.Errorf("Settle %q: %w", idOrTitle, ErrNotOutstanding)
	}
	l.fees[i].Status = domain.FeePaid
	return before, nil
}

// PendingTotal sums all outstanding obligations.
func (l *Ledger) PendingTotal() int64 {
	var sum int64
	for _, f := range l.Outstanding() {
		sum += f.Amount
	}
	return sum
}

// OverdueTotal sums obligations in the due state.
func (l *Ledger) OverdueTotal() int64 {
	var sum int64
	for _, f := range l.Outstanding() {
		if f.Status == domain.FeeDue {
			sum += f.Amount
		}
	}
	return sum
}

// NextDueDate returns the earliest outstanding due date, or zero.
func (l *Ledger) NextDueDate() time.Time {
	out := l.Outstanding()
	if len(out) == 0 {
		return time.Time{}
	}
	return out[0].DueDate
}

// Book keeps a ledger per student, seeding new ones lazily.
type Book struct {
	mu      sync.Mutex
	seed    func(studentID string) []domain.FeeObligation
	ledgers map[string]*Ledger
}

// NewBook creates a book; seed may be nil for empty ledgers.
func NewBook(seed func(studentID string) []domain.FeeObligation) *Book {
	return &Book{seed: seed, ledgers: make(map[string]*Ledger)}
}

// For returns the student's ledger, creating it on first use.
func (b *Book) For(studentID string) *Ledger {
	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok := b.ledgers[studentID]; ok {
		return l
	}
	var fees []domain.FeeObligation
	if b.seed != nil {
		fees = b.seed(studentID)
	}
	l := NewLedger(fees)
	b.ledgers[studentID] = l
	return l
}
