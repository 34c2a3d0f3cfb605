package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id, student string, amount int64, day int) Entry {
	return Entry{
		TransactionID: id,
		StudentID:     student,
		Method:        domain.MethodUPI,
		MethodLabel:   "UPI",
		Amount:        amount,
		Date:          time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		Status:        StatusCompleted,
	}
}

func TestFromPayment(t *testing.T) {
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	e := FromPayment(
		domain.PaymentResult{Method: domain.MethodCard, MethodLabel: "Credit Card", TransactionID: "TXN-1", Amount: 35000, Date: at},
		domain.Receipt{ID: "RCP-1", StudentID: "2", FeeTitle: "Term 3 Tuition Fee"},
		"Student User",
	)
	assert.Equal(t, Entry{
		TransactionID: "TXN-1",
		StudentID:     "2",
		StudentName:   "Student User",
		FeeTitle:      "Term 3 Tuition Fee",
		ReceiptID:     "RCP-1",
		Method:        domain.MethodCard,
		MethodLabel:   "Credit Card",
		Amount:        35000,
		Date:          at,
		Status:        StatusCompleted,
	}, e)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Record(ctx, entry("a", "2", 100, 1)))
	require.NoError(t, s.Record(ctx, entry("b", "2", 200, 3)))
	require.NoError(t, s.Record(ctx, entry("c", "7", 300, 2)))
	// upsert on the same transaction id
	require.NoError(t, s.Record(ctx, entry("a", "2", 150, 1)))

	got, err := s.ListByStudent(ctx, "2")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].TransactionID)
	assert.Equal(t, int64(150), got[1].Amount)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := s.ListByStudent(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		e    Entry
	}{
		{"no id", entry("", "2", 100, 1)},
		{"zero amount", entry("x", "2", 0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewMemoryStore().Record(context.Background(), tt.e)
			assert.ErrorIs(t, err, ErrInvalidEntry)
		})
	}
}
