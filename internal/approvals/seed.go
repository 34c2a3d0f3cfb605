package approvals

import (
	"time"

	"github.com/dvloznov/edufin/internal/domain"
)

func march(d int) time.Time { return time.Date(2023, time.March, d, 0, 0, 0, 0, time.UTC) }

// SeedExpenses are the requests on the desk at startup.
func SeedExpenses() []domain.ExpenseRequest {
	return []domain.ExpenseRequest{
		{ID: "exp-1", Department: "Science", Amount: 25000, Description: "Laboratory equipment", Status: domain.ApprovalApproved, Date: march(10)},
		{ID: "exp-2", Department: "Library", Amount: 15000, Description: "New books and journals", Status: domain.ApprovalApproved, Date: march(5)},
		{ID: "exp-3", Department: "IT", Amount: 35000, Description: "Computer upgrades", Status: domain.ApprovalPending, Date: march(15)},
		{ID: "exp-4", Department: "Sports", Amount: 18000, Description: "New equipment", Status: domain.ApprovalPending, Date: march(20)},
		{ID: "exp-5", Department: "Administrative", Amount: 12000, Description: "Office supplies", Status: domain.ApprovalApproved, Date: march(1)},
	}
}

// SeedRefunds are the refunds awaiting a decision at startup.
func SeedRefunds() []domain.RefundRequest {
	return []domain.RefundRequest{
		{ID: "ref-001", StudentName: "Grace Lee", Amount: 8500, Reason: "Duplicate payment", Status: domain.ApprovalPending, Date: march(26)},
		{ID: "ref-002", StudentName: "Henry Davis", Amount: 12000, Reason: "Course dropped", Status: domain.ApprovalPending, Date: march(24)},
		{ID: "ref-003", StudentName: "Isla Robinson", Amount: 6500, Reason: "Excess payment", Status: domain.ApprovalPending, Date: march(21)},
	}
}

// SeedBudgets already include the seeded approved expenses.
func SeedBudgets() []domain.DepartmentBudget {
	return []domain.DepartmentBudget{
		{Department: "Science", Allocated: 120000, Spent: 85000, Remaining: 35000},
		{Department: "Arts", Allocated: 80000, Spent: 45000, Remaining: 35000},
		{Department: "Sports", Allocated: 70000, Spent: 60000, Remaining: 10000},
		{Department: "Library", Allocated: 50000, Spent: 35000, Remaining: 15000},
		{Department: "IT", Allocated: 100000, Spent: 75000, Remaining: 25000},
		{Department: "Administrative", Allocated: 150000, Spent: 120000, Remaining: 30000},
	}
}
