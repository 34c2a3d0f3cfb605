// Package payment completes fee payments through interchangeable adapters
// and settles the results against the fee ledger.
//
// Amounts are whole rupees everywhere in this package. Only Gateway
// implementations see minor units (paise).
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
)

// Form field keys understood by FormAdapter.
const (
	FieldCardNumber = "card_number"
	FieldExpiry     = "expiry"
	FieldCVV        = "cvv"
	FieldCardName   = "card_name"
	FieldUPIID      = "upi_id"
	FieldBank       = "bank"
)

// Request describes one payment attempt.
type Request struct {
	Method       domain.Method     `json:"method" validate:"required"`
	Amount       int64             `json:"amount" validate:"gte=0"`
	FeeTitle     string            `json:"feeTitle"`
	StudentID    string            `json:"studentId"`
	StudentName  string            `json:"studentName,omitempty"`
	ObligationID string            `json:"obligationId,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	UPIID        string            `json:"upiId,omitempty"`
	// SessionID lets the caller name the QR session that Initiate opens.
	SessionID string `json:"sessionId,omitempty"`
}

func (r Request) field(key string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[key]
}

// Adapter is one strategy for completing a payment. Initiate blocks until
// the payment succeeds, fails, or ctx is done.
type Adapter interface {
	Supports(m domain.Method) bool
	Initiate(ctx context.Context, req Request) (domain.PaymentResult, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoSleep returns immediately unless ctx is already done.
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func requirePositive(amount int64) error {
	if amount <= 0 {
		return validationError("amount must be positive")
	}
	return nil
}
