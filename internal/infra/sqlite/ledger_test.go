package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *LedgerStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testEntry(id, student string, amount int64, day int) ledger.Entry {
	return ledger.Entry{
		TransactionID: id,
		StudentID:     student,
		FeeTitle:      "Exam Fee",
		ReceiptID:     "RCP-" + id,
		Method:        domain.MethodNetBanking,
		MethodLabel:   "Net Banking (HDFC)",
		Amount:        amount,
		Date:          time.Date(2024, 3, day, 9, 0, 0, 0, time.UTC),
		Status:        ledger.StatusCompleted,
		Details:       domain.PaymentDetails{BankName: "HDFC", AccountLastFour: "4321"},
	}
}

func TestLedgerStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Record(ctx, testEntry("TXN-1", "2", 12500, 1)))
	require.NoError(t, s.Record(ctx, testEntry("TXN-2", "2", 7500, 4)))
	require.NoError(t, s.Record(ctx, testEntry("TXN-3", "9", 100, 2)))

	got, err := s.ListByStudent(ctx, "2")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "TXN-2", got[0].TransactionID)
	assert.Equal(t, "4321", got[0].Details.AccountLastFour)
	assert.True(t, got[0].Date.Equal(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)))

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLedgerStore_RecordIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	e := testEntry("TXN-1", "2", 12500, 1)
	require.NoError(t, s.Record(ctx, e))
	e.Status = ledger.StatusRefunded
	require.NoError(t, s.Record(ctx, e))

	got, err := s.ListByStudent(ctx, "2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ledger.StatusRefunded, got[0].Status)
}

func TestLedgerStore_RejectsInvalid(t *testing.T) {
	err := openTestStore(t).Record(context.Background(), ledger.Entry{})
	assert.ErrorIs(t, err, ledger.ErrInvalidEntry)
}
