package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/edufin/internal/archive"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/jobs"
	"github.com/dvloznov/edufin/internal/ledger"
	"github.com/dvloznov/edufin/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	msgs []notify.Message
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

type recordingMirror struct {
	entries []ledger.Entry
	err     error
}

func (r *recordingMirror) Mirror(_ context.Context, e ledger.Entry) error {
	r.entries = append(r.entries, e)
	return r.err
}

func paymentJob(t *testing.T, jt jobs.JobType, amount int64) *jobs.Job {
	t.Helper()
	job, err := jobs.NewJob(jt, jobs.PaymentPayload{
		Result: domain.PaymentResult{
			Method:        domain.MethodUPI,
			MethodLabel:   "UPI",
			TransactionID: "TXN-000001",
			Amount:        amount,
			Date:          time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
		},
		Receipt:     domain.Receipt{ID: "RCP-000002", StudentID: "2", FeeTitle: "Exam Fee"},
		StudentName: "Student User",
	})
	require.NoError(t, err)
	job.JobID = "job-1"
	return job
}

func TestRecordPayment(t *testing.T) {
	store := ledger.NewMemoryStore()
	mirror := &recordingMirror{err: errors.New("notion down")}
	h := &Handlers{Ledger: store, Mirror: mirror}
	ctx := context.Background()

	require.NoError(t, h.Router().Dispatch(ctx, paymentJob(t, jobs.JobTypeRecordPayment, 12500)))
	require.NoError(t, h.Router().Dispatch(ctx, paymentJob(t, jobs.JobTypeRecordPayment, 12500)))

	entries, err := store.ListByStudent(ctx, "2")
	require.NoError(t, err)
	require.Len(t, entries, 1, "recording is idempotent per transaction")
	assert.Equal(t, "Exam Fee", entries[0].FeeTitle)
	assert.Equal(t, "RCP-000002", entries[0].ReceiptID)
	assert.Len(t, mirror.entries, 2, "mirror failures do not fail the job")
}

func TestRecordPayment_DropsInvalidEntries(t *testing.T) {
	store := ledger.NewMemoryStore()
	h := &Handlers{Ledger: store}

	require.NoError(t, h.RecordPayment(context.Background(), paymentJob(t, jobs.JobTypeRecordPayment, 0)))
	entries, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNotifyPayment(t *testing.T) {
	n := &recordingNotifier{}
	h := &Handlers{Notifier: n}

	require.NoError(t, h.NotifyPayment(context.Background(), paymentJob(t, jobs.JobTypeNotifyPayment, 12500)))
	require.Len(t, n.msgs, 1)
	assert.Equal(t, "Payment Successful", n.msgs[0].Title)
	assert.Contains(t, n.msgs[0].Body, "Student User paid ₹12,500 for Exam Fee")

	n.err = errors.New("discord down")
	assert.Error(t, h.NotifyPayment(context.Background(), paymentJob(t, jobs.JobTypeNotifyPayment, 12500)), "notify errors are retried")
}

func TestArchiveSlip(t *testing.T) {
	bucket := &archive.MemoryBucket{BucketName: "slips"}
	h := &Handlers{Archiver: archive.New(bucket)}
	ctx := context.Background()

	slip := domain.SalarySlip{ID: "SAL-202403-2-000001", Month: time.March, Year: 2024, Net: 64000}
	job, err := jobs.NewJob(jobs.JobTypeArchiveSlip, jobs.SlipPayload{Slip: slip})
	require.NoError(t, err)
	require.NoError(t, h.Router().Dispatch(ctx, job))

	got, err := archive.New(bucket).Fetch(ctx, slip.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(64000), got.Net)
}

func TestNilDependenciesAreNoops(t *testing.T) {
	h := &Handlers{}
	r := h.Router()
	ctx := context.Background()

	for _, jt := range []jobs.JobType{jobs.JobTypeRecordPayment, jobs.JobTypeNotifyPayment} {
		t.Run(string(jt), func(t *testing.T) {
			assert.NoError(t, r.Dispatch(ctx, paymentJob(t, jt, 100)))
		})
	}
	job, err := jobs.NewJob(jobs.JobTypeArchiveSlip, jobs.SlipPayload{})
	require.NoError(t, err)
	assert.NoError(t, r.Dispatch(ctx, job))
}
