package eventbus

import (
	"fmt"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
)

// Kind discriminates the payload carried by an Event.
type Kind string

const (
	// KindPaymentSettled is published once per successful payment.
	KindPaymentSettled Kind = "payment.settled"
	// KindTotalsOverwritten replaces dashboard totals with absolute values.
	KindTotalsOverwritten Kind = "totals.overwritten"
	// KindPaymentFailed is published when an adapter rejects or errors.
	KindPaymentFailed Kind = "payment.failed"
)

// PaymentSettled carries a completed payment and, for student fee flows,
// the obligation it settled.
type PaymentSettled struct {
	Result       domain.PaymentResult `json:"result"`
	StudentID    string               `json:"studentId,omitempty"`
	StudentName  string               `json:"studentName,omitempty"`
	ObligationID string               `json:"obligationId,omitempty"`
	FeeTitle     string               `json:"feeTitle,omitempty"`
	WasOverdue   bool                 `json:"wasOverdue,omitempty"`
	ReceiptID    string               `json:"receiptId,omitempty"`
}

// TotalsOverwritten sets dashboard totals to absolute values (last write wins).
// Scope names the dashboard it targets; empty targets every dashboard.
type TotalsOverwritten struct {
	Scope        string `json:"scope,omitempty"`
	TotalPaid    int64  `json:"totalPaid"`
	TotalPending int64  `json:"totalPending"`
}

// PaymentFailed describes a rejected or abandoned payment attempt.
type PaymentFailed struct {
	StudentID string        `json:"studentId,omitempty"`
	Method    domain.Method `json:"method"`
	Amount    int64         `json:"amount"`
	Reason    string        `json:"reason"`
	At        time.Time     `json:"at"`
}

// Event is a tagged union: exactly one payload matching Kind is set.
type Event struct {
	Kind    Kind               `json:"kind"`
	Payment *PaymentSettled    `json:"payment,omitempty"`
	Totals  *TotalsOverwritten `json:"totals,omitempty"`
	Failure *PaymentFailed     `json:"failure,omitempty"`
}

// Settled builds a payment.settled event.
func Settled(p PaymentSettled) Event {
	return Event{Kind: KindPaymentSettled, Payment: &p}
}

// Overwritten builds a totals.overwritten event.
func Overwritten(t TotalsOverwritten) Event {
	return Event{Kind: KindTotalsOverwritten, Totals: &t}
}

// Failed builds a payment.failed event.
func Failed(f PaymentFailed) Event {
	return Event{Kind: KindPaymentFailed, Failure: &f}
}

// Validate reports why an event cannot be applied, or nil.
func (e Event) Validate() error {
	switch e.Kind {
	case KindPaymentSettled:
		if e.Payment == nil {
			return fmt.Errorf("%s: missing payment payload", e.Kind)
		}
		if e.Payment.Result.Amount <= 0 {
			return fmt.Errorf("%s: amount must be positive, got %d", e.Kind, e.Payment.Result.Amount)
		}
		if e.Payment.Result.TransactionID == "" {
			return fmt.Errorf("%s: missing transaction id", e.Kind)
		}
	case KindTotalsOverwritten:
		if e.Totals == nil {
			return fmt.Errorf("%s: missing totals payload", e.Kind)
		}
		if e.Totals.TotalPaid < 0 || e.Totals.TotalPending < 0 {
			return fmt.Errorf("%s: totals must not be negative", e.Kind)
		}
	case KindPaymentFailed:
		if e.Failure == nil {
			return fmt.Errorf("%s: missing failure payload", e.Kind)
		}
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return nil
}
