// Package approvals holds the admin review queues for department expenses
// and student refunds, plus the budgets expenses draw from.
package approvals

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/idgen"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound          = errors.New("approval request not found")
	ErrNotPending        = errors.New("request already decided")
	ErrInvalidRequest    = errors.New("invalid expense request")
	ErrUnknownDepartment = errors.New("unknown department")
)

// Desk keeps expense and refund requests in memory. Safe for concurrent use.
type Desk struct {
	ids idgen.Generator
	log zerolog.Logger
	now func() time.Time

	mu       sync.Mutex
	expenses []domain.ExpenseRequest
	refunds  []domain.RefundRequest
	budgets  []domain.DepartmentBudget
}

// NewDesk returns a desk holding copies of the seed slices.
func NewDesk(ids idgen.Generator, log zerolog.Logger, expenses []domain.ExpenseRequest, refunds []domain.RefundRequest, budgets []domain.DepartmentBudget) *Desk {
	return &Desk{
		ids:      ids,
		log:      log,
		now:      time.Now,
		expenses: slices.Clone(expenses),
		refunds:  slices.Clone(refunds),
		budgets:  slices.Clone(budgets),
	}
}

// Expenses lists expense requests, newest last. An empty status matches all.
func (d *Desk) Expenses(status domain.ApprovalStatus) []domain.ExpenseRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []domain.ExpenseRequest
	for _, e := range d.expenses {
		if status == "" || e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// SubmitExpense files a pending request against an existing budget.
func (d *Desk) SubmitExpense(department string, amount int64, description string) (domain.ExpenseRequest, error) {
	department = strings.TrimSpace(department)
	if amount <= 0 {
		return domain.ExpenseRequest{}, fmt.Errorf("SubmitExpense: %w: amount must be positive", ErrInvalidRequest)
	}
	if department == "" {
		return domain.ExpenseRequest{}, fmt.Errorf("SubmitExpense: %w: department is required", ErrInvalidRequest)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	b := d.budgetIndex(department)
	if b < 0 {
		return domain.ExpenseRequest{}, fmt.Errorf("SubmitExpense: %w: %s", ErrUnknownDepartment, department)
	}
	e := domain.ExpenseRequest{
		ID:          d.ids.NewID("exp"),
		Department:  d.budgets[b].Department,
		Amount:      amount,
		Description: strings.TrimSpace(description),
		Status:      domain.ApprovalPending,
		Date:        d.now(),
	}
	d.expenses = append(d.expenses, e)
	d.log.Info().Str("expense_id", e.ID).Str("department", e.Department).Int64("amount", amount).Msg("Expense submitted")
	return e, nil
}

// ApproveExpense approves a pending request and charges its department.
func (d *Desk) ApproveExpense(id, by string) (domain.ExpenseRequest, error) {
	return d.decideExpense(id, by, domain.ApprovalApproved)
}

// DenyExpense denies a pending request. Budgets are untouched.
func (d *Desk) DenyExpense(id, by string) (domain.ExpenseRequest, error) {
	return d.decideExpense(id, by, domain.ApprovalDenied)
}

func (d *Desk) decideExpense(id, by string, status domain.ApprovalStatus) (domain.ExpenseRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := slices.IndexFunc(d.expenses, func(e domain.ExpenseRequest) bool { return e.ID == id })
	if i < 0 {
		return domain.ExpenseRequest{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	e := &d.expenses[i]
	if e.Status != domain.ApprovalPending {
		return domain.ExpenseRequest{}, fmt.Errorf("%s is %s: %w", id, e.Status, ErrNotPending)
	}
	if status == domain.ApprovalApproved {
		if b := d.budgetIndex(e.Department); b >= 0 {
			d.budgets[b].Spent += e.Amount
			d.budgets[b].Remaining = d.budgets[b].Allocated - d.budgets[b].Spent
		}
	}
	e.Status = status
	e.DecidedBy = by
	d.log.Info().Str("expense_id", id).Str("status", string(status)).Str("by", by).Msg("Expense decided")
	return *e, nil
}

// Refunds lists refund requests. An empty status matches all.
func (d *Desk) Refunds(status domain.ApprovalStatus) []domain.RefundRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []domain.RefundRequest
	for _, r := range d.refunds {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// ApproveRefund approves a pending refund.
func (d *Desk) ApproveRefund(id, by string) (domain.RefundRequest, error) {
	return d.decideRefund(id, by, domain.ApprovalApproved)
}

// DenyRefund denies a pending refund.
func (d *Desk) DenyRefund(id, by string) (domain.RefundRequest, error) {
	return d.decideRefund(id, by, domain.ApprovalDenied)
}

func (d *Desk) decideRefund(id, by string, status domain.ApprovalStatus) (domain.RefundRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := slices.IndexFunc(d.refunds, func(r domain.RefundRequest) bool { return r.ID == id })
	if i < 0 {
		return domain.RefundRequest{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	r := &d.refunds[i]
	if r.Status != domain.ApprovalPending {
		return domain.RefundRequest{}, fmt.Errorf("%s is %s: %w", id, r.Status, ErrNotPending)
	}
	r.Status = status
	r.DecidedBy = by
	d.log.Info().Str("refund_id", id).Str("status", string(status)).Str("by", by).Msg("Refund decided")
	return *r, nil
}

// Budgets returns every department budget in seed order.
func (d *Desk) Budgets() []domain.DepartmentBudget {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.budgets)
}

// budgetIndex matches department case-insensitively. Callers hold mu.
func (d *Desk) budgetIndex(department string) int {
	return slices.IndexFunc(d.budgets, func(b domain.DepartmentBudget) bool {
		return strings.EqualFold(b.Department, department)
	})
}
