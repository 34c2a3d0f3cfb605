package payment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/idgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)

func newTestForm() *FormAdapter {
	a := NewFormAdapter(idgen.NewSequence(0), time.Hour)
	a.Sleep = NoSleep
	a.Now = func() time.Time { return fixedNow }
	return a
}

func TestFormAdapter_Initiate(t *testing.T) {
	tests := []struct {
		name      string
		req       Request
		wantLabel string
		check     func(t *testing.T, d domain.PaymentDetails)
	}{
		{
			name: "card is masked",
			req: Request{Method: domain.MethodCard, Amount: 35000, Fields: map[string]string{
				FieldCardNumber: "4111 1111 1111 1234", FieldExpiry: "12/27", FieldCVV: "123", FieldCardName: "Asha Rao",
			}},
			wantLabel: "Credit Card",
			check: func(t *testing.T, d domain.PaymentDetails) {
				assert.True(t, strings.HasSuffix(d.MaskedCard, "1234"))
				assert.NotContains(t, d.MaskedCard, "4111")
			},
		},
		{
			name:      "upi from request",
			req:       Request{Method: domain.MethodUPI, Amount: 5000, UPIID: "asha@okbank"},
			wantLabel: "UPI",
			check: func(t *testing.T, d domain.PaymentDetails) {
				assert.Equal(t, "asha@okbank", d.UPIID)
			},
		},
		{
			name:      "upi from fields",
			req:       Request{Method: domain.MethodUPI, Amount: 5000, Fields: map[string]string{FieldUPIID: "x@y"}},
			wantLabel: "UPI",
			check: func(t *testing.T, d domain.PaymentDetails) {
				assert.Equal(t, "x@y", d.UPIID)
			},
		},
		{
			name:      "net banking",
			req:       Request{Method: domain.MethodNetBanking, Amount: 8000, Fields: map[string]string{FieldBank: "HDFC"}},
			wantLabel: "Net Banking (HDFC)",
			check: func(t *testing.T, d domain.PaymentDetails) {
				assert.Equal(t, "HDFC", d.BankName)
				assert.Len(t, d.AccountLastFour, 4)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestForm().Initiate(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.req.Method, res.Method)
			assert.Equal(t, tt.wantLabel, res.MethodLabel)
			assert.Equal(t, tt.req.Amount, res.Amount)
			assert.Equal(t, fixedNow, res.Date)
			assert.Equal(t, "TXN-000001", res.TransactionID)
			tt.check(t, res.Details)
		})
	}
}

func TestFormAdapter_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"zero amount", Request{Method: domain.MethodUPI, UPIID: "a@b"}},
		{"card missing cvv", Request{Method: domain.MethodCard, Amount: 1, Fields: map[string]string{FieldCardNumber: "4111", FieldExpiry: "1/27", FieldCardName: "A"}}},
		{"upi blank", Request{Method: domain.MethodUPI, Amount: 1, UPIID: "  "}},
		{"unknown bank", Request{Method: domain.MethodNetBanking, Amount: 1, Fields: map[string]string{FieldBank: "xyz"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestForm().Initiate(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestFormAdapter_CancelledDuringDelay(t *testing.T) {
	a := NewFormAdapter(idgen.UUID{}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Initiate(ctx, Request{Method: domain.MethodUPI, Amount: 10, UPIID: "a@b"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormAdapter_Supports(t *testing.T) {
	a := newTestForm()
	assert.True(t, a.Supports(domain.MethodCard))
	assert.True(t, a.Supports(domain.MethodNetBanking))
	assert.False(t, a.Supports(domain.MethodQRCode))
}
