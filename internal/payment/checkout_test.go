package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/idgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingGateway struct{ LocalGateway }

func (*failingGateway) CreateOrder(context.Context, int64, string, string) (Order, error) {
	return Order{}, errors.New("network down")
}

func newTestCheckout(gw Gateway) *CheckoutAdapter {
	a := NewCheckoutAdapter(gw, "", idgen.NewSequence(0))
	a.Now = func() time.Time { return fixedNow }
	return a
}

func TestCheckout_StartConvertsToPaise(t *testing.T) {
	gw := &LocalGateway{Secret: "s3cret"}
	a := newTestCheckout(gw)

	co, err := a.Start(context.Background(), Request{Amount: 35000, FeeTitle: "Term 3 Tuition Fee", Phone: "98765 43210"})
	require.NoError(t, err)
	assert.Equal(t, int64(3500000), co.Order.Amount)
	assert.Equal(t, "INR", co.Order.Currency)
	assert.Equal(t, "order_rcptid-000001", co.Order.Receipt)
	assert.Equal(t, "rzp_test_local", co.KeyID)
	assert.Equal(t, "Student", co.Name)

	req, ok := a.Pending(co.Order.ID)
	require.True(t, ok)
	assert.Equal(t, int64(35000), req.Amount)
}

func TestCheckout_StartValidation(t *testing.T) {
	a := newTestCheckout(&LocalGateway{})

	_, err := a.Start(context.Background(), Request{Amount: 100, Phone: "12345"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = a.Start(context.Background(), Request{Amount: 0, Phone: "9876543210"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = newTestCheckout(&failingGateway{}).Start(context.Background(), Request{Amount: 100, Phone: "9876543210"})
	assert.ErrorIs(t, err, ErrGateway)
}

func TestCheckout_Complete(t *testing.T) {
	gw := &LocalGateway{Secret: "s3cret"}

	tests := []struct {
		name    string
		cb      func(orderID string) Callback
		wantErr error
	}{
		{
			name: "success",
			cb: func(id string) Callback {
				return Callback{OrderID: id, PaymentID: "pay_1", Signature: gw.Sign(id, "pay_1")}
			},
		},
		{
			name:    "dismissed",
			cb:      func(id string) Callback { return Callback{OrderID: id, Dismissed: true} },
			wantErr: ErrCancelled,
		},
		{
			name:    "gateway error",
			cb:      func(id string) Callback { return Callback{OrderID: id, Error: "BAD_REQUEST_ERROR"} },
			wantErr: ErrGateway,
		},
		{
			name:    "bad signature",
			cb:      func(id string) Callback { return Callback{OrderID: id, PaymentID: "pay_1", Signature: "forged"} },
			wantErr: ErrGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestCheckout(gw)
			co, err := a.Start(context.Background(), Request{Amount: 500, Phone: "9876543210", StudentID: "2"})
			require.NoError(t, err)

			res, req, err := a.Complete(context.Background(), tt.cb(co.Order.ID))
			assert.Equal(t, "2", req.StudentID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.MethodRazorpay, res.Method)
				assert.Equal(t, "pay_1", res.TransactionID)
				assert.Equal(t, co.Order.ID, res.Details.OrderID)
				assert.Equal(t, int64(500), res.Amount)
			}

			// an order completes once; a retry needs a fresh order
			_, _, err = a.Complete(context.Background(), tt.cb(co.Order.ID))
			assert.ErrorIs(t, err, ErrSessionNotFound)
		})
	}
}

func TestCheckout_InitiateWaitsForCallback(t *testing.T) {
	gw := &LocalGateway{Secret: "k"}
	a := newTestCheckout(gw)

	started := make(chan Checkout, 1)
	ctx := WithCheckoutHook(context.Background(), func(co Checkout) { started <- co })

	type outcome struct {
		res domain.PaymentResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := a.Initiate(ctx, Request{Amount: 750, Phone: "9876543210"})
		done <- outcome{res, err}
	}()

	var co Checkout
	select {
	case co = <-started:
	case <-time.After(time.Second):
		t.Fatal("checkout hook not called")
	}

	_, _, err := a.Complete(context.Background(), Callback{OrderID: co.Order.ID, Dismissed: true})
	require.ErrorIs(t, err, ErrCancelled)

	select {
	case got := <-done:
		assert.ErrorIs(t, got.err, ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("Initiate did not return")
	}
}

type fakeOrders struct {
	got  map[string]interface{}
	resp map[string]interface{}
	err  error
}

func (f *fakeOrders) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.got = data
	return f.resp, f.err
}

func TestRazorpayGateway_CreateOrder(t *testing.T) {
	orders := &fakeOrders{resp: map[string]interface{}{
		"id": "order_ABC", "amount": float64(3500000), "currency": "INR", "receipt": "r1", "status": "created",
	}}
	gw := &RazorpayGateway{keyID: "rzp_test_x", secret: "s", orders: orders}

	o, err := gw.CreateOrder(context.Background(), 3500000, "INR", "r1")
	require.NoError(t, err)
	assert.Equal(t, Order{ID: "order_ABC", Amount: 3500000, Currency: "INR", Receipt: "r1", Status: "created"}, o)
	assert.Equal(t, int64(3500000), orders.got["amount"])

	orders.resp = map[string]interface{}{}
	_, err = gw.CreateOrder(context.Background(), 1, "INR", "r2")
	assert.Error(t, err)

	orders.err = errors.New("401")
	_, err = gw.CreateOrder(context.Background(), 1, "INR", "r3")
	assert.Error(t, err)
}

func TestRazorpayGateway_VerifySignatureMatchesLocal(t *testing.T) {
	local := &LocalGateway{Secret: "shared"}
	gw := &RazorpayGateway{secret: "shared"}

	sig := local.Sign("order_1", "pay_1")
	assert.True(t, gw.VerifySignature("order_1", "pay_1", sig))
	assert.False(t, gw.VerifySignature("order_1", "pay_2", sig))
	assert.True(t, local.VerifySignature("order_1", "pay_1", sig))
}
