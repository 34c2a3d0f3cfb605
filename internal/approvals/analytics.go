package approvals

import "github.com/dvloznov/edufin/internal/domain"

// MonthPoint is one month of fee collection.
type MonthPoint struct {
	Month   string `json:"month"`
	Paid    int64  `json:"paid"`
	Pending int64  `json:"pending"`
}

// Share is one category's percentage of spend.
type Share struct {
	Category string `json:"category"`
	Percent  int    `json:"percent"`
}

// QuarterPoint compares planned and actual spend for a quarter.
type QuarterPoint struct {
	Quarter string `json:"quarter"`
	Planned int64  `json:"planned"`
	Actual  int64  `json:"actual"`
}

// Report backs the admin analytics charts.
type Report struct {
	FeeAnalytics     []MonthPoint   `json:"feeAnalytics"`
	ExpenseBreakdown []Share        `json:"expenseBreakdown"`
	BudgetTrends     []QuarterPoint `json:"budgetTrends"`
}

// FeeAnalytics labels the monthly series of an admin snapshot.
func FeeAnalytics(admin domain.DashboardAggregate) []MonthPoint {
	out := make([]MonthPoint, 0, len(domain.MonthNames))
	for i, name := range domain.MonthNames {
		out = append(out, MonthPoint{Month: name, Paid: admin.Monthly.Paid[i], Pending: admin.Monthly.Pending[i]})
	}
	return out
}

// ExpenseBreakdown is the share of spend per category for the year.
func ExpenseBreakdown() []Share {
	return []Share{
		{Category: "Tuition", Percent: 65},
		{Category: "Facilities", Percent: 15},
		{Category: "Books", Percent: 10},
		{Category: "Activities", Percent: 7},
		{Category: "Others", Percent: 3},
	}
}

// BudgetTrends is planned against actual spend per quarter.
func BudgetTrends() []QuarterPoint {
	return []QuarterPoint{
		{Quarter: "Q1", Planned: 150000, Actual: 142000},
		{Quarter: "Q2", Planned: 160000, Actual: 158000},
		{Quarter: "Q3", Planned: 170000, Actual: 175000},
		{Quarter: "Q4", Planned: 180000, Actual: 168000},
	}
}

// Analytics assembles the report from a live admin snapshot.
func Analytics(admin domain.DashboardAggregate) Report {
	return Report{
		FeeAnalytics:     FeeAnalytics(admin),
		ExpenseBreakdown: ExpenseBreakdown(),
		BudgetTrends:     BudgetTrends(),
	}
}
