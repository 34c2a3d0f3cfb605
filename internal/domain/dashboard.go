package domain

import "time"

// MonthNames are the labels of MonthlySeries slots, January first.
var MonthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthlySeries holds paid/pending totals per calendar month.
type MonthlySeries struct {
	Paid    [12]int64 `json:"paid"`
	Pending [12]int64 `json:"pending"`
}

// RecentTransaction is one row of the dashboard's recent activity list.
type RecentTransaction struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Student string    `json:"student,omitempty"`
	Amount  int64     `json:"amount"`
	Date    time.Time `json:"date"`
	Method  string    `json:"method"`
	Status  string    `json:"status"`
	Receipt string    `json:"receipt,omitempty"`
}

// DashboardAggregate is the derived financial summary shown on a dashboard.
type DashboardAggregate struct {
	TotalPaid          int64               `json:"totalPaid"`
	TotalPending       int64               `json:"totalPending"`
	TotalOverdue       int64               `json:"totalOverdue"`
	NextDueDate        time.Time           `json:"nextDueDate"`
	StudentCount       int                 `json:"studentCount,omitempty"`
	CompletedPayments  int                 `json:"completedPayments"`
	PendingPayments    int                 `json:"pendingPayments"`
	RecentTransactions []RecentTransaction `json:"recentTransactions"`
	Monthly            MonthlySeries       `json:"monthly"`
}

// Clone returns a copy that shares no mutable state with a.
func (a DashboardAggregate) Clone() DashboardAggregate {
	out := a
	out.RecentTransactions = append([]RecentTransaction(nil), a.RecentTransactions...)
	return out
}
