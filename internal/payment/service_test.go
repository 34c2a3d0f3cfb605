package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/edufin/internal/dashboard"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/eventbus"
	"github.com/dvloznov/edufin/internal/fees"
	"github.com/dvloznov/edufin/internal/idgen"
	"github.com/dvloznov/edufin/internal/jobs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingJobs struct {
	mu   sync.Mutex
	jobs []*jobs.Job
}

func (r *recordingJobs) Publish(_ context.Context, j *jobs.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, j)
	return nil
}

func (r *recordingJobs) Close() error { return nil }

type serviceFixture struct {
	svc    *Service
	book   *fees.Book
	events []eventbus.Event
	jobs   *recordingJobs
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{book: fees.NewBook(fees.StudentSeed), jobs: &recordingJobs{}}
	bus := eventbus.New()
	bus.Subscribe(func(_ context.Context, ev eventbus.Event) { f.events = append(f.events, ev) })

	ids := idgen.NewSequence(0)
	f.svc = NewService(f.book, bus, f.jobs, ids, zerolog.Nop(), newTestForm())
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func TestService_PayStudentFee(t *testing.T) {
	f := newServiceFixture(t)

	out, err := f.svc.Pay(context.Background(), Request{
		Method: domain.MethodUPI, UPIID: "asha@okbank", StudentID: "2", StudentName: "Asha", ObligationID: "fee-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(35000), out.Result.Amount, "amount defaults to the obligation")
	require.NotNil(t, out.Receipt)
	assert.Equal(t, "Term 3 Tuition Fee", out.Receipt.FeeTitle)
	assert.Equal(t, "UPI", out.Receipt.Method)

	require.Len(t, f.events, 1, "one unified event per payment")
	ev := f.events[0]
	assert.Equal(t, eventbus.KindPaymentSettled, ev.Kind)
	assert.True(t, ev.Payment.WasOverdue)
	assert.Equal(t, "fee-1", ev.Payment.ObligationID)
	assert.Equal(t, out.Receipt.ID, ev.Payment.ReceiptID)

	fee, err := f.book.For("2").Find("fee-1")
	require.NoError(t, err)
	assert.Equal(t, domain.FeePaid, fee.Status)

	require.Len(t, f.jobs.jobs, 2)
	assert.Equal(t, jobs.JobTypeRecordPayment, f.jobs.jobs[0].Type)
	assert.Equal(t, jobs.JobTypeNotifyPayment, f.jobs.jobs[1].Type)
	var payload jobs.PaymentPayload
	require.NoError(t, f.jobs.jobs[0].Decode(&payload))
	assert.Equal(t, out.Result.TransactionID, payload.Receipt.TransactionID)
}

func TestService_StudentDashboardFollowsLedger(t *testing.T) {
	bus := eventbus.New()
	book := fees.NewBook(fees.StudentSeed)
	reg := dashboard.NewRegistry(bus, dashboard.AdminSeed(), dashboard.LedgerSeed(book, nil, 5), 5)
	defer reg.Close()

	svc := NewService(book, bus, nil, idgen.NewSequence(0), zerolog.Nop(), newTestForm())
	svc.BeforeSettle = func(id string) { reg.Store(id) }

	// Nobody has opened the dashboard yet.
	out, err := svc.Pay(context.Background(), Request{Method: domain.MethodUPI, UPIID: "s1@okbank", StudentID: "s1", ObligationID: "fee-1"})
	require.NoError(t, err)

	l := book.For("s1")
	snap := reg.Store("s1").Snapshot()
	assert.Equal(t, l.PendingTotal(), snap.TotalPending)
	assert.Equal(t, l.OverdueTotal(), snap.TotalOverdue)
	assert.Equal(t, int64(20000), snap.TotalPending)
	assert.Equal(t, int64(0), snap.TotalOverdue)
	assert.Equal(t, int64(35000), snap.TotalPaid)
	assert.Equal(t, 2, snap.PendingPayments)
	require.Len(t, snap.RecentTransactions, 1)
	assert.Equal(t, out.Result.TransactionID, snap.RecentTransactions[0].ID)

	admin := reg.Admin().Snapshot()
	assert.Equal(t, dashboard.AdminSeed().TotalOverdue-35000, admin.TotalOverdue, "admin overdue does not clamp")
}

func TestService_PayUpcomingIsNotOverdue(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Pay(context.Background(), Request{Method: domain.MethodUPI, UPIID: "a@b", StudentID: "2", ObligationID: "Exam Fee"})
	require.NoError(t, err)
	require.Len(t, f.events, 1)
	assert.False(t, f.events[0].Payment.WasOverdue)
	assert.Equal(t, int64(12500), f.events[0].Payment.Result.Amount)
}

func TestService_PrepareRejects(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
	}{
		{"amount mismatch", Request{Method: domain.MethodUPI, UPIID: "a@b", StudentID: "2", ObligationID: "fee-1", Amount: 100}},
		{"unknown obligation", Request{Method: domain.MethodUPI, UPIID: "a@b", StudentID: "2", ObligationID: "fee-9"}},
		{"no student", Request{Method: domain.MethodUPI, UPIID: "a@b", ObligationID: "fee-1"}},
		{"missing upi id", Request{Method: domain.MethodUPI, StudentID: "2", ObligationID: "fee-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Pay(ctx, tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Empty(t, f.events, "validation failures publish nothing")
	assert.Empty(t, f.jobs.jobs)

	_, err := f.svc.Pay(ctx, Request{Method: "cash", Amount: 1})
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestService_SettleTwiceFails(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	req := Request{Method: domain.MethodUPI, UPIID: "a@b", StudentID: "2", ObligationID: "fee-3"}

	_, err := f.svc.Pay(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.Pay(ctx, req)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Settle(ctx, Request{StudentID: "2", ObligationID: "fee-3"}, domain.PaymentResult{TransactionID: "x", Amount: 7500})
	assert.ErrorIs(t, err, fees.ErrNotOutstanding)
	assert.Len(t, f.events, 1)
}

func TestService_FailPublishesForNonValidation(t *testing.T) {
	f := newServiceFixture(t)

	f.svc.Fail(context.Background(), Request{StudentID: "2", Method: domain.MethodRazorpay, Amount: 500}, ErrCancelled)
	f.svc.Fail(context.Background(), Request{StudentID: "2"}, ErrValidation)

	require.Len(t, f.events, 1)
	assert.Equal(t, eventbus.KindPaymentFailed, f.events[0].Kind)
	assert.Equal(t, "2", f.events[0].Failure.StudentID)
	assert.Equal(t, fixedNow, f.events[0].Failure.At)
}

func TestService_GenericPaymentHasNoReceipt(t *testing.T) {
	f := newServiceFixture(t)

	out, err := f.svc.Pay(context.Background(), Request{Method: domain.MethodCard, Amount: 999, Fields: map[string]string{
		FieldCardNumber: "4111111111111111", FieldExpiry: "01/30", FieldCVV: "999", FieldCardName: "Admin",
	}})
	require.NoError(t, err)
	assert.Nil(t, out.Receipt)
	require.Len(t, f.events, 1)
	assert.Empty(t, f.events[0].Payment.StudentID)
}
