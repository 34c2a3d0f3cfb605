package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/idgen"
	"github.com/dvloznov/edufin/internal/logger"
)

// MinorUnits converts whole rupees to paise for gateway calls.
func MinorUnits(rupees int64) int64 {
	return rupees * 100
}

// Order is a gateway-side order. Amount is in minor units.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway is the hosted-checkout provider.
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// Checkout is what a client needs to open the hosted checkout.
type Checkout struct {
	KeyID       string `json:"key"`
	Order       Order  `json:"order"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
}

// Callback is the gateway's answer relayed by the client.
type Callback struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
	Dismissed bool   `json:"dismissed"`
	Error     string `json:"error,omitempty"`
}

type pendingCheckout struct {
	req     Request
	attempt *attempt
}

// CheckoutAdapter delegates payment to a hosted gateway. Every order is
// completed at most once and failures are never retried.
type CheckoutAdapter struct {
	Gateway  Gateway
	Currency string
	IDs      idgen.Generator
	Now      func() time.Time

	mu      sync.Mutex
	pending map[string]*pendingCheckout
}

// NewCheckoutAdapter returns an adapter charging in currency.
func NewCheckoutAdapter(gw Gateway, currency string, ids idgen.Generator) *CheckoutAdapter {
	if currency == "" {
		currency = "INR"
	}
	return &CheckoutAdapter{Gateway: gw, Currency: currency, IDs: ids, Now: time.Now, pending: make(map[string]*pendingCheckout)}
}

// Supports implements Adapter.
func (a *CheckoutAdapter) Supports(m domain.Method) bool {
	return m == domain.MethodRazorpay
}

// Start creates a gateway order for req.
func (a *CheckoutAdapter) Start(ctx context.Context, req Request) (Checkout, error) {
	if len(digits(req.Phone)) < 10 {
		return Checkout{}, validationError("Please enter a valid 10-digit phone number")
	}
	if err := requirePositive(req.Amount); err != nil {
		return Checkout{}, err
	}

	receipt := a.IDs.NewID("order_rcptid")
	order, err := a.Gateway.CreateOrder(ctx, MinorUnits(req.Amount), a.Currency, receipt)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("student_id", req.StudentID).Msg("Failed to create gateway order")
		return Checkout{}, fmt.Errorf("%w: Failed to initialize payment: %v", ErrGateway, err)
	}

	a.mu.Lock()
	if a.pending == nil {
		a.pending = make(map[string]*pendingCheckout)
	}
	a.pending[order.ID] = &pendingCheckout{req: req, attempt: newAttempt()}
	a.mu.Unlock()

	name := req.StudentName
	if name == "" {
		name = "Student"
	}
	return Checkout{
		KeyID:       a.Gateway.KeyID(),
		Order:       order,
		Name:        name,
		Description: req.FeeTitle,
		Phone:       req.Phone,
	}, nil
}

// Pending returns the request behind an open order.
func (a *CheckoutAdapter) Pending(orderID string) (Request, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pending[orderID]
	if !ok {
		return Request{}, false
	}
	return p.req, true
}

// Complete finalizes an order from the gateway callback. Dismissal yields
// ErrCancelled; a gateway error or bad signature yields ErrGateway.
func (a *CheckoutAdapter) Complete(ctx context.Context, cb Callback) (domain.PaymentResult, Request, error) {
	a.mu.Lock()
	p, ok := a.pending[cb.OrderID]
	delete(a.pending, cb.OrderID)
	a.mu.Unlock()
	if !ok {
		return domain.PaymentResult{}, Request{}, fmt.Errorf("%w: order %s", ErrSessionNotFound, cb.OrderID)
	}

	log := logger.FromContext(ctx)
	var err error
	switch {
	case cb.Dismissed:
		err = ErrCancelled
	case cb.Error != "":
		err = fmt.Errorf("%w: There was an error processing your payment: %s", ErrGateway, cb.Error)
	case cb.PaymentID == "" || !a.Gateway.VerifySignature(cb.OrderID, cb.PaymentID, cb.Signature):
		err = fmt.Errorf("%w: signature mismatch for order %s", ErrGateway, cb.OrderID)
	}
	if err != nil {
		log.Warn().Err(err).Str("order_id", cb.OrderID).Msg("Checkout did not complete")
		p.attempt.finish(nil, err)
		return domain.PaymentResult{}, p.req, err
	}

	result := domain.PaymentResult{
		Method:        domain.MethodRazorpay,
		MethodLabel:   domain.MethodRazorpay.Label(""),
		TransactionID: cb.PaymentID,
		Amount:        p.req.Amount,
		Date:          a.Now(),
		Details: domain.PaymentDetails{
			OrderID:        cb.OrderID,
			GatewayPayment: cb.PaymentID,
			Signature:      cb.Signature,
		},
	}
	p.attempt.finish(&result, nil)
	log.Info().Str("order_id", cb.OrderID).Str("transaction_id", result.TransactionID).Int64("amount", result.Amount).Msg("Checkout completed")
	return result, p.req, nil
}

// Initiate implements Adapter: it creates the order and waits for Complete.
// A hook installed with WithCheckoutHook receives the checkout first so the
// caller can hand it to the client.
func (a *CheckoutAdapter) Initiate(ctx context.Context, req Request) (domain.PaymentResult, error) {
	co, err := a.Start(ctx, req)
	if err != nil {
		return domain.PaymentResult{}, err
	}
	if hook, ok := ctx.Value(checkoutHookKey{}).(func(Checkout)); ok {
		hook(co)
	}

	a.mu.Lock()
	p := a.pending[co.Order.ID]
	a.mu.Unlock()
	if p == nil {
		return domain.PaymentResult{}, fmt.Errorf("%w: order %s", ErrSessionNotFound, co.Order.ID)
	}

	select {
	case <-p.attempt.done:
		if p.attempt.err != nil {
			return domain.PaymentResult{}, p.attempt.err
		}
		return *p.attempt.result, nil
	case <-ctx.Done():
		a.mu.Lock()
		delete(a.pending, co.Order.ID)
		a.mu.Unlock()
		return domain.PaymentResult{}, fmt.Errorf("Initiate: %w", ctx.Err())
	}
}

type checkoutHookKey struct{}

// WithCheckoutHook returns a context that makes Initiate report the created
// checkout to fn before blocking.
func WithCheckoutHook(ctx context.Context, fn func(Checkout)) context.Context {
	return context.WithValue(ctx, checkoutHookKey{}, fn)
}

var _ Adapter = (*CheckoutAdapter)(nil)
