package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dvloznov/edufin/internal/api/middleware"
	"github.com/dvloznov/edufin/internal/approvals"
	"github.com/dvloznov/edufin/internal/archive"
	"github.com/dvloznov/edufin/internal/dashboard"
	"github.com/dvloznov/edufin/internal/directory"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/eventbus"
	"github.com/dvloznov/edufin/internal/fees"
	"github.com/dvloznov/edufin/internal/fraud"
	"github.com/dvloznov/edufin/internal/idgen"
	"github.com/dvloznov/edufin/internal/identity"
	"github.com/dvloznov/edufin/internal/jobs"
	"github.com/dvloznov/edufin/internal/jobs/inmemory"
	"github.com/dvloznov/edufin/internal/ledger"
	"github.com/dvloznov/edufin/internal/payment"
	"github.com/dvloznov/edufin/internal/prediction"
	"github.com/dvloznov/edufin/internal/qr"
	"github.com/dvloznov/edufin/internal/salary"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv      http.Handler
	gateway  *payment.LocalGateway
	jobs     *inmemory.Store
	ledger   *ledger.MemoryStore
	registry *dashboard.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zerolog.Nop()
	ids := idgen.NewSequence(0)
	bus := eventbus.New()

	book := fees.NewBook(fees.StudentSeed)
	history := func(string) []domain.RecentTransaction { return fees.RecentPaymentsSeed() }
	registry := dashboard.NewRegistry(bus, dashboard.AdminSeed(), dashboard.LedgerSeed(book, history, dashboard.DefaultRecentCap), dashboard.DefaultRecentCap)
	t.Cleanup(registry.Close)

	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueue(100, jobStore)
	t.Cleanup(func() { _ = queue.Close() })

	form := payment.NewFormAdapter(ids, 0)
	form.Sleep = payment.NoSleep
	qrAdapter := payment.NewQRAdapter("fees@edufin", "EduFin Flare", qr.RemoteRenderer{}, ids)
	qrAdapter.Sleep = payment.NoSleep
	gateway := &payment.LocalGateway{Secret: "test-secret"}
	checkout := payment.NewCheckoutAdapter(gateway, "INR", ids)
	svc := payment.NewService(book, bus, queue, ids, log, form, qrAdapter, checkout)
	svc.BeforeSettle = func(id string) { registry.Store(id) }

	detector := fraud.NewDetector(fraud.Rules{LargePaymentThreshold: 100000}, ids, nil, log, fraud.SeedAlerts())
	detach := detector.Attach(bus)
	t.Cleanup(detach)

	repo := directory.NewMemoryRepository(directory.SeedUsers()...)
	auth := identity.NewAuthenticator(identity.NewDevFallback(nil), identity.NewStaticResolver(directory.SeedUsers()...), repo, identity.NewSessions(), log)

	gen := salary.NewGenerator(salary.NewMemoryDirectory(salary.SeedStaff()), salary.DefaultRates(), ids)
	archiver := archive.New(&archive.MemoryBucket{BucketName: "slips"})
	store := ledger.NewMemoryStore()

	router := NewRouter(Handlers{
		Health:    NewHealthHandler(),
		Auth:      NewAuthHandler(auth, repo, log),
		Payments:  NewPaymentsHandler(svc, qrAdapter, checkout, log),
		Dashboard: NewDashboardHandler(registry, book, store, fees.ReminderPolicy{}, log),
		Salary:    NewSalaryHandler(gen, archiver, queue, log),
		Predict:   NewPredictHandler(prediction.RuleBased{}, log),
		Fraud:     NewFraudHandler(detector, log),
		Approvals: NewApprovalsHandler(approvals.NewDesk(ids, log, approvals.SeedExpenses(), approvals.SeedRefunds(), approvals.SeedBudgets()), registry, log),
		Jobs:      NewJobsHandler(jobStore, log),
	})

	return &fixture{
		srv:      middleware.Chain(router, middleware.Auth(auth, PublicPaths...)),
		gateway:  gateway,
		jobs:     jobStore,
		ledger:   store,
		registry: registry,
	}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T, email string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": email, "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthFlow(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": "student@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	token := f.login(t, "student@example.com")
	rec = f.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody[domain.User](t, rec)
	assert.Equal(t, "2", me.ID)
	assert.Equal(t, domain.RoleStudent, me.Role)
	assert.Equal(t, "Computer Science", me.Department)

	rec = f.do(t, http.MethodPost, "/api/logout", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignup_IgnoresRequestedRole(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/signup", "", map[string]string{
		"name":     "Asha Rao",
		"email":    "asha@example.com",
		"password": "longenough",
		"role":     "admin",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decodeBody[domain.User](t, rec)
	assert.Equal(t, domain.RoleStudent, user.Role)

	rec = f.do(t, http.MethodPost, "/api/signup", "", map[string]string{
		"name":     "Asha Rao",
		"email":    "asha@example.com",
		"password": "longenough",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStudentAccess(t *testing.T) {
	f := newFixture(t)
	student := f.login(t, "student@example.com")
	admin := f.login(t, "admin@example.com")

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"anonymous", "/api/students/2/fees", "", http.StatusUnauthorized},
		{"own fees", "/api/students/2/fees", student, http.StatusOK},
		{"other student", "/api/students/7/fees", student, http.StatusForbidden},
		{"admin reads any student", "/api/students/7/fees", admin, http.StatusOK},
		{"own dashboard", "/api/students/2/dashboard", student, http.StatusOK},
		{"admin dashboard as student", "/api/dashboard", student, http.StatusForbidden},
		{"admin dashboard", "/api/dashboard", admin, http.StatusOK},
		{"own profile", "/api/user/2", student, http.StatusOK},
		{"other profile", "/api/user/1", student, http.StatusForbidden},
		{"unknown profile as admin", "/api/user/99", admin, http.StatusNotFound},
		{"jobs as student", "/api/jobs", student, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.path, tt.token, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestFees(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "student@example.com")

	rec := f.do(t, http.MethodGet, "/api/students/2/fees", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[feesResponse](t, rec)
	require.Len(t, resp.Fees, 3)
	assert.Equal(t, "Term 3 Tuition Fee", resp.Fees[0].Title)
	assert.Equal(t, 3, resp.Outstanding)
	assert.Equal(t, int64(55000), resp.PendingTotal)
	require.NotNil(t, resp.NextDueDate)
	assert.NotEmpty(t, resp.Reminders)
}

func TestPay_Card(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "student@example.com")

	body := map[string]any{
		"method":       "card",
		"obligationId": "fee-1",
		"studentId":    "someone-else",
		"fields": map[string]string{
			payment.FieldCardNumber: "4111 1111 1111 1234",
			payment.FieldExpiry:     "12/30",
			payment.FieldCVV:        "123",
			payment.FieldCardName:   "Student User",
		},
	}
	rec := f.do(t, http.MethodPost, "/api/payments", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := decodeBody[payment.Outcome](t, rec)
	assert.Equal(t, int64(35000), out.Result.Amount)
	assert.Equal(t, "Credit Card", out.Result.MethodLabel)
	require.NotNil(t, out.Receipt)
	assert.Equal(t, "2", out.Receipt.StudentID)
	assert.Equal(t, "Term 3 Tuition Fee", out.Receipt.FeeTitle)

	snap := f.registry.Admin().Snapshot()
	assert.Equal(t, out.Result.TransactionID, snap.RecentTransactions[0].ID)

	queued, err := f.jobs.ListJobs(t.Context(), jobs.JobFilter{Type: jobs.JobTypeRecordPayment})
	require.NoError(t, err)
	assert.Len(t, queued, 1)

	rec = f.do(t, http.MethodPost, "/api/payments", token, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "a paid fee cannot be paid again")
}

func TestPay_StudentDashboardMatchesFees(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "student@example.com")

	rec := f.do(t, http.MethodPost, "/api/payments", token, map[string]any{
		"method":       "upi",
		"obligationId": "fee-1",
		"upiId":        "student@okbank",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decodeBody[payment.Outcome](t, rec)

	rec = f.do(t, http.MethodGet, "/api/students/2/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decodeBody[domain.DashboardAggregate](t, rec)

	rec = f.do(t, http.MethodGet, "/api/students/2/fees", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fs := decodeBody[feesResponse](t, rec)

	assert.Equal(t, fs.PendingTotal, dash.TotalPending)
	assert.Equal(t, int64(20000), dash.TotalPending)
	assert.Equal(t, int64(0), dash.TotalOverdue)
	assert.Equal(t, int64(48000+35000), dash.TotalPaid)
	require.NotEmpty(t, dash.RecentTransactions)
	assert.Equal(t, out.Result.TransactionID, dash.RecentTransactions[0].ID)
}

func TestPay_RedirectsMultiStepMethods(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "student@example.com")

	for _, method := range []string{"qrcode", "razorpay"} {
		t.Run(method, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/payments", token, map[string]any{"method": method, "amount": 100})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestQRFlow(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "student@example.com")

	rec := f.do(t, http.MethodPost, "/api/payments/qr", token, map[string]any{"obligationId": "fee-2"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := decodeBody[payment.QRSession](t, rec)
	assert.Equal(t, payment.StateCollecting, session.State)
	assert.Equal(t, int64(12500), session.Amount)

	base := "/api/payments/qr/" + session.ID

	rec = f.do(t, http.MethodPost, base+"/confirm", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "confirm before generate")

	rec = f.do(t, http.MethodPost, base+"/generate", token, map[string]string{"upiId": "student@okbank"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session = decodeBody[payment.QRSession](t, rec)
	assert.Equal(t, payment.StateGenerated, session.State)
	assert.Contains(t, session.DeepLink, "pa=fees@edufin")

	rec = f.do(t, http.MethodPost, base+"/confirm", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	admin := f.login(t, "admin@example.com")
	rec = f.do(t, http.MethodGet, base, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "admins can inspect any session")

	rec = f.do(t, http.MethodPost, base+"/verify", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeBody[payment.Outcome](t, rec)
	assert.Equal(t, domain.MethodQRCode, out.Result.Method)
	assert.Equal(t, "student@okbank", out.Result.Details.UPIID)
	require.NotNil(t, out.Receipt)
	assert.Equal(t, "Exam Fee", out.Receipt.FeeTitle)

	rec = f.do(t, http.MethodPost, base+"/verify", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodDelete, base, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, base, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckoutFlow(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "student@example.com")

	rec := f.do(t, http.MethodPost, "/create-order", token, map[string]any{"obligationId": "fee-3", "phone": "9999999999"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	co := decodeBody[payment.Checkout](t, rec)
	assert.Equal(t, int64(750000), co.Order.Amount)
	assert.Equal(t, "INR", co.Order.Currency)

	cb := payment.Callback{
		OrderID:   co.Order.ID,
		PaymentID: "pay_local1",
		Signature: f.gateway.Sign(co.Order.ID, "pay_local1"),
	}
	rec = f.do(t, http.MethodPost, "/api/payments/checkout/complete", token, cb)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeBody[payment.Outcome](t, rec)
	assert.Equal(t, "pay_local1", out.Result.TransactionID)
	assert.Equal(t, int64(7500), out.Result.Amount)

	rec = f.do(t, http.MethodPost, "/api/payments/checkout/complete", token, cb)
	assert.Equal(t, http.StatusNotFound, rec.Code, "orders complete once")
}

func TestCheckoutFlow_BadSignature(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "student@example.com")

	rec := f.do(t, http.MethodPost, "/create-order", token, map[string]any{"obligationId": "fee-3", "phone": "9999999999"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	co := decodeBody[payment.Checkout](t, rec)

	rec = f.do(t, http.MethodPost, "/api/payments/checkout/complete", token, payment.Callback{
		OrderID:   co.Order.ID,
		PaymentID: "pay_forged",
		Signature: "deadbeef",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/students/2/fees", token, nil)
	resp := decodeBody[feesResponse](t, rec)
	assert.Equal(t, 3, resp.Outstanding)
}

func TestSalary(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "admin@example.com")
	student := f.login(t, "student@example.com")

	req := map[string]any{"staffId": "staff-2", "month": 3, "year": 2024, "basic": 50000}
	rec := f.do(t, http.MethodPost, "/api/salary/slips", student, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/salary/slips", admin, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeBody[slipResponse](t, rec)
	assert.Equal(t, "Priya Singh", resp.Slip.Staff.Name)
	assert.Equal(t, int64(64000), resp.Slip.Net)
	assert.Equal(t, "Rupees Sixty Four Thousand Only", resp.Slip.NetInWords)
	assert.NotEmpty(t, resp.JobID)

	rec = f.do(t, http.MethodGet, "/api/jobs/"+resp.JobID, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/salary/slips/"+resp.Slip.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "not archived until the job runs")

	rec = f.do(t, http.MethodPost, "/api/salary/slips", admin, map[string]any{"staffId": "staff-99", "month": 3, "year": 2024})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/salary/slips", admin, map[string]any{"staffId": "staff-2", "month": 13, "year": 2024})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/salary/staff", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.Staff](t, rec), 8)
}

func TestWords(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		query  string
		status int
		words  string
	}{
		{"amount=64000", http.StatusOK, "Rupees Sixty Four Thousand Only"},
		{"amount=10.50", http.StatusOK, "Rupees Ten and Fifty Paise Only"},
		{"amount=-1", http.StatusBadRequest, ""},
		{"amount=abc", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/words?"+tt.query, "", nil)
			require.Equal(t, tt.status, rec.Code)
			if tt.words != "" {
				assert.Equal(t, tt.words, decodeBody[map[string]string](t, rec)["words"])
			}
		})
	}
}

func TestPredict(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/predict_fee", "", map[string]any{"income": 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing required fields"}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/predict_fee", "", map[string]any{"course": "engineering", "income": 100000, "scholarship": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Greater(t, decodeBody[prediction.FeePrediction](t, rec).PredictedFee, 0.0)

	rec = f.do(t, http.MethodPost, "/api/predict_budget", "", map[string]any{"expenses": 1000})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 1200.0, decodeBody[prediction.BudgetPrediction](t, rec).PredictedBudget, 0.001)

	rec = f.do(t, http.MethodGet, "/api/financial_insights", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/fee_projection", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFraudReview(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "admin@example.com")

	rec := f.do(t, http.MethodGet, "/api/fraud/alerts", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[struct {
		Alerts []domain.FraudAlert `json:"alerts"`
	}](t, rec)
	assert.Len(t, list.Alerts, 3)

	rec = f.do(t, http.MethodGet, "/api/fraud/alerts?severity=extreme", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/fraud/alerts/alert-001/resolve", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Fraud alert alert-001 has been marked as resolved")

	rec = f.do(t, http.MethodPost, "/api/fraud/alerts/alert-404/ignore", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/fraud/alerts/export", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "ID,Transaction ID,Amount,Date,Reason,Severity,Status")
}

func TestApprovals(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "admin@example.com")
	student := f.login(t, "student@example.com")

	rec := f.do(t, http.MethodGet, "/api/expenses", student, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/expenses?status=pending", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[struct {
		Expenses []domain.ExpenseRequest `json:"expenses"`
	}](t, rec)
	assert.Len(t, list.Expenses, 2)

	rec = f.do(t, http.MethodGet, "/api/expenses?status=maybe", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/expenses/exp-3/approve", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decodeBody[struct {
		Expense domain.ExpenseRequest `json:"expense"`
	}](t, rec)
	assert.Equal(t, domain.ApprovalApproved, approved.Expense.Status)
	assert.Equal(t, "1", approved.Expense.DecidedBy)

	rec = f.do(t, http.MethodPost, "/api/expenses/exp-3/deny", admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/expenses/exp-404/deny", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/budgets", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	budgets := decodeBody[struct {
		Budgets []domain.DepartmentBudget `json:"budgets"`
	}](t, rec)
	for _, b := range budgets.Budgets {
		if b.Department == "IT" {
			assert.Equal(t, int64(110000), b.Spent)
			assert.Equal(t, int64(-10000), b.Remaining)
		}
	}

	rec = f.do(t, http.MethodPost, "/api/expenses", admin, map[string]any{"department": "Arts", "amount": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/expenses", admin, map[string]any{"department": "Music", "amount": 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/expenses", admin, map[string]any{"department": "Arts", "amount": 4000, "description": "Easels"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[domain.ExpenseRequest](t, rec)
	assert.Equal(t, domain.ApprovalPending, created.Status)

	rec = f.do(t, http.MethodPost, "/api/refunds/ref-001/approve", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Refund ref-001 has been approved")
	rec = f.do(t, http.MethodGet, "/api/refunds?status=pending", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	refunds := decodeBody[struct {
		Refunds []domain.RefundRequest `json:"refunds"`
	}](t, rec)
	assert.Len(t, refunds.Refunds, 2)
	rec = f.do(t, http.MethodPost, "/api/refunds/ref-001/deny", student, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAnalytics_FollowsAdminDashboard(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "admin@example.com")

	rec := f.do(t, http.MethodGet, "/api/analytics", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[approvals.Report](t, rec)
	require.Len(t, report.FeeAnalytics, 12)
	snap := f.registry.Admin().Snapshot()
	for i, p := range report.FeeAnalytics {
		assert.Equal(t, domain.MonthNames[i], p.Month)
		assert.Equal(t, snap.Monthly.Paid[i], p.Paid)
		assert.Equal(t, snap.Monthly.Pending[i], p.Pending)
	}
	assert.Len(t, report.ExpenseBreakdown, 5)
	assert.Len(t, report.BudgetTrends, 4)
}

func TestTransactions(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "student@example.com")

	require.NoError(t, f.ledger.Record(t.Context(), ledger.Entry{
		TransactionID: "TXN-1",
		StudentID:     "2",
		FeeTitle:      "Lab Fee",
		Method:        domain.MethodUPI,
		MethodLabel:   "UPI",
		Amount:        7500,
		Date:          time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		Status:        ledger.StatusCompleted,
	}))

	rec := f.do(t, http.MethodGet, "/api/transactions/2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[struct {
		Transactions []ledger.Entry `json:"transactions"`
		Count        int            `json:"count"`
	}](t, rec)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "TXN-1", resp.Transactions[0].TransactionID)
}
