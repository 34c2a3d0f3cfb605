package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

// orderCreator is the part of the Razorpay SDK used here.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayGateway creates orders through the Razorpay API.
type RazorpayGateway struct {
	keyID  string
	secret string
	orders orderCreator
}

// NewRazorpayGateway builds a gateway from API credentials.
func NewRazorpayGateway(keyID, secret string) *RazorpayGateway {
	client := razorpay.NewClient(keyID, secret)
	return &RazorpayGateway{keyID: keyID, secret: secret, orders: client.Order}
}

// KeyID implements Gateway.
func (g *RazorpayGateway) KeyID() string { return g.keyID }

// CreateOrder implements Gateway.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	body, err := g.orders.Create(map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return Order{}, fmt.Errorf("CreateOrder: %w", err)
	}
	return orderFromMap(body)
}

func orderFromMap(m map[string]interface{}) (Order, error) {
	id, _ := m["id"].(string)
	if id == "" {
		return Order{}, fmt.Errorf("CreateOrder: response without order id")
	}
	o := Order{ID: id}
	o.Currency, _ = m["currency"].(string)
	o.Receipt, _ = m["receipt"].(string)
	o.Status, _ = m["status"].(string)
	switch v := m["amount"].(type) {
	case float64:
		o.Amount = int64(v)
	case int64:
		o.Amount = v
	case int:
		o.Amount = int64(v)
	}
	return o, nil
}

// VerifySignature implements Gateway.
func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	return utils.VerifyPaymentSignature(params, signature, g.secret)
}

// LocalGateway stands in for Razorpay when no credentials are configured.
// It signs with the same scheme so callbacks can be verified end to end.
type LocalGateway struct {
	Secret string
	seq    atomic.Uint64
}

// KeyID implements Gateway.
func (g *LocalGateway) KeyID() string { return "rzp_test_local" }

// CreateOrder implements Gateway.
func (g *LocalGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	n := g.seq.Add(1)
	return Order{ID: fmt.Sprintf("order_local%06d", n), Amount: amountMinor, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

// Sign returns the signature the hosted checkout would attach.
func (g *LocalGateway) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(g.Secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature implements Gateway.
func (g *LocalGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return hmac.Equal([]byte(g.Sign(orderID, paymentID)), []byte(signature))
}

var (
	_ Gateway = (*RazorpayGateway)(nil)
	_ Gateway = (*LocalGateway)(nil)
)
