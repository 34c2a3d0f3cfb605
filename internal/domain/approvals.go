package domain

import "time"

// ApprovalStatus tracks an expense or refund request. Pending is the only
// state that may change; approved and denied are final.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalDenied   ApprovalStatus = "denied"
)

// ExpenseRequest is a department's request to spend from its budget.
type ExpenseRequest struct {
	ID          string         `json:"id"`
	Department  string         `json:"department"`
	Amount      int64          `json:"amount"`
	Description string         `json:"description"`
	Status      ApprovalStatus `json:"status"`
	Date        time.Time      `json:"date"`
	DecidedBy   string         `json:"decidedBy,omitempty"`
}

// RefundRequest asks for money back to a student.
type RefundRequest struct {
	ID          string         `json:"id"`
	StudentName string         `json:"studentName"`
	Amount      int64          `json:"amount"`
	Reason      string         `json:"reason"`
	Status      ApprovalStatus `json:"status"`
	Date        time.Time      `json:"date"`
	DecidedBy   string         `json:"decidedBy,omitempty"`
}

// DepartmentBudget is a department's allocation for the year. Remaining
// goes negative when approved spend exceeds the allocation.
type DepartmentBudget struct {
	Department string `json:"department"`
	Allocated  int64  `json:"allocated"`
	Spent      int64  `json:"spent"`
	Remaining  int64  `json:"remaining"`
}
