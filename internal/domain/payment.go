package domain

import (
	"fmt"
	"time"
)

// Method identifies how a payment was completed.
type Method string

const (
	MethodCard       Method = "card"
	MethodUPI        Method = "upi"
	MethodQRCode     Method = "qrcode"
	MethodRazorpay   Method = "razorpay"
	MethodNetBanking Method = "netbanking"
)

// Banks supported by the net-banking form.
var Banks = map[string]string{
	"sbi":   "SBI",
	"hdfc":  "HDFC",
	"icici": "ICICI",
	"axis":  "Axis",
	"pnb":   "PNB",
	"bob":   "BoB",
}

// Label is the user-facing name of the method. bank is only used for net banking.
func (m Method) Label(bank string) string {
	switch m {
	case MethodCard:
		return "Credit Card"
	case MethodUPI:
		return "UPI"
	case MethodQRCode:
		return "UPI (QR Code)"
	case MethodRazorpay:
		return "Razorpay"
	case MethodNetBanking:
		if name, ok := Banks[bank]; ok {
			return fmt.Sprintf("Net Banking (%s)", name)
		}
		return "Net Banking"
	default:
		return string(m)
	}
}

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodUPI, MethodQRCode, MethodRazorpay, MethodNetBanking:
		return true
	}
	return false
}

// PaymentDetails holds adapter-specific fields. Unused fields stay empty.
type PaymentDetails struct {
	MaskedCard      string `json:"maskedCard,omitempty"`
	BankName        string `json:"bankName,omitempty"`
	AccountLastFour string `json:"accountLastFour,omitempty"`
	UPIID           string `json:"upiId,omitempty"`
	OrderID         string `json:"orderId,omitempty"`
	GatewayPayment  string `json:"paymentId,omitempty"`
	Signature       string `json:"signature,omitempty"`
}

// PaymentResult is the normalized outcome of a successful payment.
// Amount is in whole rupees; conversion to paise happens only at the gateway boundary.
type PaymentResult struct {
	Method        Method         `json:"method"`
	MethodLabel   string         `json:"methodLabel"`
	TransactionID string         `json:"transactionId"`
	Amount        int64          `json:"amount"`
	Date          time.Time      `json:"date"`
	Details       PaymentDetails `json:"details"`
}

// Receipt is issued to a student after a fee payment settles.
type Receipt struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transactionId"`
	StudentID     string    `json:"studentId"`
	FeeTitle      string    `json:"feeTitle"`
	Amount        int64     `json:"amount"`
	Method        string    `json:"method"`
	IssuedAt      time.Time `json:"issuedAt"`
}
