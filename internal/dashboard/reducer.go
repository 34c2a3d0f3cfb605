package dashboard

import (
	"fmt"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/eventbus"
)

// DefaultRecentCap bounds RecentTransactions.
const DefaultRecentCap = 5

// Outcome describes what Reduce did with an event.
type Outcome struct {
	// Applied is false when the event was ignored.
	Applied bool
	// Clamped lists fields that would have gone negative and were held at zero.
	Clamped []string
	// Err explains why a malformed event was ignored.
	Err error
}

// Reduce folds ev into prev and returns the next aggregate. prev is never
// modified. Malformed or irrelevant events return prev unchanged.
func Reduce(prev domain.DashboardAggregate, ev eventbus.Event, recentCap int) (domain.DashboardAggregate, Outcome) {
	if err := ev.Validate(); err != nil {
		return prev, Outcome{Err: err}
	}
	if recentCap <= 0 {
		recentCap = DefaultRecentCap
	}

	switch ev.Kind {
	case eventbus.KindPaymentSettled:
		return applySettled(prev, ev.Payment, recentCap)
	case eventbus.KindTotalsOverwritten:
		next := prev.Clone()
		next.TotalPaid = ev.Totals.TotalPaid
		next.TotalPending = ev.Totals.TotalPending
		return next, Outcome{Applied: true}
	default:
		return prev, Outcome{}
	}
}

func applySettled(prev domain.DashboardAggregate, p *eventbus.PaymentSettled, recentCap int) (domain.DashboardAggregate, Outcome) {
	next := prev.Clone()
	out := Outcome{Applied: true}
	amount := p.Result.Amount

	clampSub := func(field string, v *int64) {
		*v -= amount
		if *v < 0 {
			*v = 0
			out.Clamped = append(out.Clamped, field)
		}
	}

	next.TotalPaid += amount
	clampSub("totalPending", &next.TotalPending)
	if p.WasOverdue {
		clampSub("totalOverdue", &next.TotalOverdue)
	}

	next.CompletedPayments++
	if p.ObligationID != "" && next.PendingPayments > 0 {
		next.PendingPayments--
	}

	if !p.Result.Date.IsZero() {
		m := p.Result.Date.Month() - 1
		next.Monthly.Paid[m] += amount
		clampSub(fmt.Sprintf("monthly.pending[%d]", m), &next.Monthly.Pending[m])
	}

	title := p.FeeTitle
	if title == "" {
		title = "Fee payment"
	}
	row := domain.RecentTransaction{
		ID:      p.Result.TransactionID,
		Title:   title,
		Student: p.StudentName,
		Amount:  amount,
		Date:    p.Result.Date,
		Method:  p.Result.MethodLabel,
		Status:  "completed",
		Receipt: p.ReceiptID,
	}
	recent := make([]domain.RecentTransaction, 0, recentCap)
	recent = append(recent, row)
	for _, r := range prev.RecentTransactions {
		if len(recent) == recentCap {
			break
		}
		recent = append(recent, r)
	}
	next.RecentTransactions = recent

	return next, out
}

// Replay folds events over seed in order.
func Replay(seed domain.DashboardAggregate, events []eventbus.Event, recentCap int) domain.DashboardAggregate {
	agg := seed.Clone()
	for _, ev := range events {
		agg, _ = Reduce(agg, ev, recentCap)
	}
	return agg
}
