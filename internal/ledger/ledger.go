// Package ledger records settled payments per student.
package ledger

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
)

// ErrInvalidEntry is returned when an entry lacks a transaction id or amount.
var ErrInvalidEntry = errors.New("invalid ledger entry")

// Status of a recorded payment.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusRefunded  Status = "refunded"
)

// Entry is one settled payment. TransactionID is unique across the ledger.
type Entry struct {
	TransactionID string                `json:"transactionId"`
	StudentID     string                `json:"studentId,omitempty"`
	StudentName   string                `json:"studentName,omitempty"`
	FeeTitle      string                `json:"feeTitle,omitempty"`
	ReceiptID     string                `json:"receiptId,omitempty"`
	Method        domain.Method         `json:"method"`
	MethodLabel   string                `json:"methodLabel"`
	Amount        int64                 `json:"amount"`
	Date          time.Time             `json:"date"`
	Status        Status                `json:"status"`
	Details       domain.PaymentDetails `json:"details"`
}

// FromPayment builds a completed entry from a payment result and its receipt.
func FromPayment(r domain.PaymentResult, rcpt domain.Receipt, studentName string) Entry {
	return Entry{
		TransactionID: r.TransactionID,
		StudentID:     rcpt.StudentID,
		StudentName:   studentName,
		FeeTitle:      rcpt.FeeTitle,
		ReceiptID:     rcpt.ID,
		Method:        r.Method,
		MethodLabel:   r.MethodLabel,
		Amount:        r.Amount,
		Date:          r.Date,
		Status:        StatusCompleted,
		Details:       r.Details,
	}
}

// Validate reports whether e can be stored.
func (e Entry) Validate() error {
	if e.TransactionID == "" || e.Amount <= 0 {
		return ErrInvalidEntry
	}
	return nil
}

// Store persists ledger entries. Record is an upsert keyed by TransactionID,
// so a retried job never produces a duplicate row.
type Store interface {
	Record(ctx context.Context, e Entry) error
	ListByStudent(ctx context.Context, studentID string) ([]Entry, error)
	List(ctx context.Context) ([]Entry, error)
}

// SortByDate orders entries newest first.
func SortByDate(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int { return b.Date.Compare(a.Date) })
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Record(_ context.Context, e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.TransactionID] = e
	return nil
}

func (m *MemoryStore) ListByStudent(ctx context.Context, studentID string) ([]Entry, error) {
	all, _ := m.List(ctx)
	return slices.DeleteFunc(all, func(e Entry) bool { return e.StudentID != studentID }), nil
}

func (m *MemoryStore) List(context.Context) ([]Entry, error) {
	m.mu.RLock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	m.mu.RUnlock()
	SortByDate(out)
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
