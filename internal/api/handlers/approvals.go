package handlers

import (
	"fmt"
	"net/http"

	"github.com/dvloznov/edufin/internal/api/middleware"
	"github.com/dvloznov/edufin/internal/approvals"
	"github.com/dvloznov/edufin/internal/dashboard"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/rs/zerolog"
)

// ApprovalsHandler serves the admin expense, refund and budget views.
type ApprovalsHandler struct {
	desk     *approvals.Desk
	registry *dashboard.Registry
	log      zerolog.Logger
}

// NewApprovalsHandler creates a new approvals handler.
func NewApprovalsHandler(desk *approvals.Desk, registry *dashboard.Registry, log zerolog.Logger) *ApprovalsHandler {
	return &ApprovalsHandler{desk: desk, registry: registry, log: log}
}

func approvalStatus(w http.ResponseWriter, r *http.Request) (domain.ApprovalStatus, bool) {
	status := domain.ApprovalStatus(r.URL.Query().Get("status"))
	switch status {
	case "", domain.ApprovalPending, domain.ApprovalApproved, domain.ApprovalDenied:
		return status, true
	default:
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", status))
		return "", false
	}
}

func decider(r *http.Request) string {
	u, _ := middleware.UserFromContext(r.Context())
	return u.ID
}

// ListExpenses handles GET /api/expenses?status=
func (h *ApprovalsHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	status, ok := approvalStatus(w, r)
	if !ok {
		return
	}
	expenses := h.desk.Expenses(status)
	if expenses == nil {
		expenses = []domain.ExpenseRequest{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"expenses": expenses})
}

type expenseRequest struct {
	Department  string `json:"department" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description"`
}

// SubmitExpense handles POST /api/expenses
func (h *ApprovalsHandler) SubmitExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	e, err := h.desk.SubmitExpense(req.Department, req.Amount, req.Description)
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, e)
}

// ApproveExpense handles POST /api/expenses/{id}/approve
func (h *ApprovalsHandler) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	e, err := h.desk.ApproveExpense(r.PathValue("id"), decider(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expense": e,
		"message": fmt.Sprintf("Expense %s has been approved", e.ID),
	})
}

// DenyExpense handles POST /api/expenses/{id}/deny
func (h *ApprovalsHandler) DenyExpense(w http.ResponseWriter, r *http.Request) {
	e, err := h.desk.DenyExpense(r.PathValue("id"), decider(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expense": e,
		"message": fmt.Sprintf("Expense %s has been denied", e.ID),
	})
}

// ListRefunds handles GET /api/refunds?status=
func (h *ApprovalsHandler) ListRefunds(w http.ResponseWriter, r *http.Request) {
	status, ok := approvalStatus(w, r)
	if !ok {
		return
	}
	refunds := h.desk.Refunds(status)
	if refunds == nil {
		refunds = []domain.RefundRequest{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"refunds": refunds})
}

// ApproveRefund handles POST /api/refunds/{id}/approve
func (h *ApprovalsHandler) ApproveRefund(w http.ResponseWriter, r *http.Request) {
	ref, err := h.desk.ApproveRefund(r.PathValue("id"), decider(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"refund":  ref,
		"message": fmt.Sprintf("Refund %s has been approved", ref.ID),
	})
}

// DenyRefund handles POST /api/refunds/{id}/deny
func (h *ApprovalsHandler) DenyRefund(w http.ResponseWriter, r *http.Request) {
	ref, err := h.desk.DenyRefund(r.PathValue("id"), decider(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"refund":  ref,
		"message": fmt.Sprintf("Refund %s has been denied", ref.ID),
	})
}

// Budgets handles GET /api/budgets
func (h *ApprovalsHandler) Budgets(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"budgets": h.desk.Budgets()})
}

// Analytics handles GET /api/analytics
func (h *ApprovalsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, approvals.Analytics(h.registry.Admin().Snapshot()))
}
