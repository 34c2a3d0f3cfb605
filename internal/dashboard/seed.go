package dashboard

import (
	"time"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/fees"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// adminOwing is how many students start with the full fee schedule open.
const adminOwing = 78

// AdminSeed is the institution-wide starting snapshot. Its pending and
// overdue totals are adminOwing copies of the student fee schedule, and
// TotalPaid is the sum of the monthly series.
func AdminSeed() domain.DashboardAggregate {
	return domain.DashboardAggregate{
		TotalPaid:         19850000,
		TotalPending:      adminOwing * 55000,
		TotalOverdue:      adminOwing * 35000,
		NextDueDate:       day(2023, time.April, 15),
		StudentCount:      1250,
		CompletedPayments: 345,
		PendingPayments:   adminOwing * 3,
		RecentTransactions: []domain.RecentTransaction{
			{ID: "tx-001", Student: "Alice Johnson", Title: "Fee payment", Amount: 12500, Date: day(2023, time.March, 28), Status: "completed", Method: "Credit Card"},
			{ID: "tx-002", Student: "Bob Smith", Title: "Fee payment", Amount: 15000, Date: day(2023, time.March, 27), Status: "completed", Method: "UPI"},
			{ID: "tx-003", Student: "Charlie Brown", Title: "Fee payment", Amount: 9500, Date: day(2023, time.March, 25), Status: "completed", Method: "Bank Transfer"},
			{ID: "tx-004", Student: "David Wilson", Title: "Fee payment", Amount: 18000, Date: day(2023, time.March, 22), Status: "completed", Method: "Credit Card"},
			{ID: "tx-005", Student: "Eva Martinez", Title: "Fee payment", Amount: 8500, Date: day(2023, time.March, 20), Status: "failed", Method: "Credit Card"},
		},
		Monthly: domain.MonthlySeries{
			Paid:    [12]int64{1200000, 1500000, 1350000, 1400000, 1650000, 1700000, 1600000, 1550000, 1800000, 1950000, 2100000, 2000000},
			Pending: [12]int64{300000, 350000, 400000, 320000, 280000, 330000, 370000, 390000, 420000, 380000, 360000, 390000},
		},
	}
}

// StudentSeed is the snapshot FromLedger produces for a fresh student
// ledger, without the payment history rows.
func StudentSeed() domain.DashboardAggregate {
	return domain.DashboardAggregate{
		TotalPaid:         48000,
		TotalPending:      55000,
		TotalOverdue:      35000,
		NextDueDate:       day(2023, time.April, 15),
		CompletedPayments: 3,
		PendingPayments:   3,
	}
}

// FromLedger derives a student snapshot from the fee ledger. history holds
// completed payments that predate the ledger's obligations, newest first.
func FromLedger(l *fees.Ledger, history []domain.RecentTransaction, recentCap int) domain.DashboardAggregate {
	if recentCap <= 0 {
		recentCap = DefaultRecentCap
	}
	agg := domain.DashboardAggregate{
		TotalPending:    l.PendingTotal(),
		TotalOverdue:    l.OverdueTotal(),
		NextDueDate:     l.NextDueDate(),
		PendingPayments: len(l.Outstanding()),
	}
	for _, f := range l.All() {
		if f.Status == domain.FeePaid {
			agg.TotalPaid += f.Amount
			agg.CompletedPayments++
		}
	}
	for _, h := range history {
		if h.Status != "completed" {
			continue
		}
		agg.TotalPaid += h.Amount
		agg.CompletedPayments++
		if !h.Date.IsZero() {
			agg.Monthly.Paid[h.Date.Month()-1] += h.Amount
		}
		if len(agg.RecentTransactions) < recentCap {
			agg.RecentTransactions = append(agg.RecentTransactions, h)
		}
	}
	return agg
}

// LedgerSeed seeds each student store from its ledger in book. history may
// be nil.
func LedgerSeed(book *fees.Book, history func(studentID string) []domain.RecentTransaction, recentCap int) SeedFunc {
	return func(studentID string) domain.DashboardAggregate {
		var h []domain.RecentTransaction
		if history != nil {
			h = history(studentID)
		}
		return FromLedger(book.For(studentID), h, recentCap)
	}
}
