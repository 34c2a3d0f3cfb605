package handlers

import (
	"net/http"

	"github.com/dvloznov/edufin/internal/api/middleware"
	"github.com/dvloznov/edufin/internal/domain"
)

// PublicPaths never require a bearer token.
var PublicPaths = []string{
	"/health",
	"/api/signup",
	"/api/login",
	"/api/predict_fee",
	"/api/predict_budget",
	"/api/financial_insights",
	"/api/fee_projection",
	"/api/words",
}

// Handlers groups every endpoint handler the router mounts.
type Handlers struct {
	Health    *HealthHandler
	Auth      *AuthHandler
	Payments  *PaymentsHandler
	Dashboard *DashboardHandler
	Salary    *SalaryHandler
	Predict   *PredictHandler
	Fraud     *FraudHandler
	Approvals *ApprovalsHandler
	Jobs      *JobsHandler
}

// NewRouter mounts every handler. Authentication is the caller's middleware;
// role checks happen here.
func NewRouter(h Handlers) *http.ServeMux {
	admin := func(fn http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireRole(fn, domain.RoleAdmin)
	}
	user := middleware.RequireUser

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health.Health)

	mux.HandleFunc("POST /api/signup", h.Auth.Signup)
	mux.HandleFunc("POST /api/login", h.Auth.Login)
	mux.HandleFunc("POST /api/logout", user(h.Auth.Logout))
	mux.HandleFunc("GET /api/me", user(h.Auth.Me))
	mux.HandleFunc("GET /api/user/{id}", user(h.Auth.GetUser))

	mux.HandleFunc("GET /api/dashboard", admin(h.Dashboard.Admin))
	mux.HandleFunc("GET /api/students/{id}/dashboard", user(h.Dashboard.Student))
	mux.HandleFunc("GET /api/students/{id}/fees", user(h.Dashboard.Fees))
	mux.HandleFunc("GET /api/transactions/{studentID}", user(h.Dashboard.Transactions))

	mux.HandleFunc("POST /api/payments", user(h.Payments.Pay))
	mux.HandleFunc("POST /api/payments/qr", user(h.Payments.OpenQR))
	mux.HandleFunc("GET /api/payments/qr/{id}", user(h.Payments.GetQR))
	mux.HandleFunc("DELETE /api/payments/qr/{id}", user(h.Payments.CloseQR))
	mux.HandleFunc("POST /api/payments/qr/{id}/generate", user(h.Payments.GenerateQR))
	mux.HandleFunc("POST /api/payments/qr/{id}/confirm", user(h.Payments.ConfirmQR))
	mux.HandleFunc("POST /api/payments/qr/{id}/verify", user(h.Payments.VerifyQR))
	mux.HandleFunc("POST /api/payments/qr/{id}/regenerate", user(h.Payments.RegenerateQR))
	mux.HandleFunc("POST /create-order", user(h.Payments.CreateOrder))
	mux.HandleFunc("POST /api/payments/checkout/complete", user(h.Payments.CompleteCheckout))

	mux.HandleFunc("POST /api/salary/slips", admin(h.Salary.Generate))
	mux.HandleFunc("POST /api/salary/slips/batch", admin(h.Salary.GenerateAll))
	mux.HandleFunc("GET /api/salary/slips/{id}", admin(h.Salary.GetSlip))
	mux.HandleFunc("GET /api/salary/staff", admin(h.Salary.Staff))
	mux.HandleFunc("GET /api/words", h.Salary.Words)

	mux.HandleFunc("POST /api/predict_fee", h.Predict.PredictFee)
	mux.HandleFunc("POST /api/predict_budget", h.Predict.PredictBudget)
	mux.HandleFunc("GET /api/financial_insights", h.Predict.Insights)
	mux.HandleFunc("GET /api/fee_projection", h.Predict.Projection)

	mux.HandleFunc("GET /api/fraud/alerts", admin(h.Fraud.ListAlerts))
	mux.HandleFunc("GET /api/fraud/alerts/export", admin(h.Fraud.Export))
	mux.HandleFunc("POST /api/fraud/alerts/{id}/resolve", admin(h.Fraud.Resolve))
	mux.HandleFunc("POST /api/fraud/alerts/{id}/ignore", admin(h.Fraud.Ignore))

	mux.HandleFunc("GET /api/expenses", admin(h.Approvals.ListExpenses))
	mux.HandleFunc("POST /api/expenses", admin(h.Approvals.SubmitExpense))
	mux.HandleFunc("POST /api/expenses/{id}/approve", admin(h.Approvals.ApproveExpense))
	mux.HandleFunc("POST /api/expenses/{id}/deny", admin(h.Approvals.DenyExpense))
	mux.HandleFunc("GET /api/refunds", admin(h.Approvals.ListRefunds))
	mux.HandleFunc("POST /api/refunds/{id}/approve", admin(h.Approvals.ApproveRefund))
	mux.HandleFunc("POST /api/refunds/{id}/deny", admin(h.Approvals.DenyRefund))
	mux.HandleFunc("GET /api/budgets", admin(h.Approvals.Budgets))
	mux.HandleFunc("GET /api/analytics", admin(h.Approvals.Analytics))

	mux.HandleFunc("GET /api/jobs", admin(h.Jobs.ListJobs))
	mux.HandleFunc("GET /api/jobs/{id}", admin(h.Jobs.GetJob))

	return mux
}
