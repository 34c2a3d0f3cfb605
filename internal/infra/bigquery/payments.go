// Package bigquery stores the payment ledger in a BigQuery warehouse table.
package bigquery

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/ledger"
)

// PaymentRow mirrors one row of the payments table.
type PaymentRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	StudentID   bigquery.NullString `bigquery:"student_id"`
	StudentName bigquery.NullString `bigquery:"student_name"`
	FeeTitle    bigquery.NullString `bigquery:"fee_title"`
	ReceiptID   bigquery.NullString `bigquery:"receipt_id"`

	Method      string              `bigquery:"method"` // REQUIRED
	MethodLabel bigquery.NullString `bigquery:"method_label"`

	Amount   int64  `bigquery:"amount"`   // REQUIRED, whole rupees
	Currency string `bigquery:"currency"` // REQUIRED

	PaidAt time.Time `bigquery:"paid_at"` // REQUIRED
	Status string    `bigquery:"status"`  // REQUIRED

	Details bigquery.NullJSON `bigquery:"details"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

// NewPaymentRow converts a ledger entry. createdAt stamps created_ts.
func NewPaymentRow(e ledger.Entry, currency string, createdAt time.Time) (*PaymentRow, error) {
	row := &PaymentRow{
		TransactionID: e.TransactionID,
		StudentID:     nullString(e.StudentID),
		StudentName:   nullString(e.StudentName),
		FeeTitle:      nullString(e.FeeTitle),
		ReceiptID:     nullString(e.ReceiptID),
		Method:        string(e.Method),
		MethodLabel:   nullString(e.MethodLabel),
		Amount:        e.Amount,
		Currency:      currency,
		PaidAt:        e.Date,
		Status:        string(e.Status),
		CreatedTS:     createdAt,
	}
	if e.Details != (domain.PaymentDetails{}) {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return nil, fmt.Errorf("NewPaymentRow: marshal details: %w", err)
		}
		row.Details = bigquery.NullJSON{JSONVal: string(raw), Valid: true}
	}
	return row, nil
}

// Entry converts the row back to a ledger entry.
func (r *PaymentRow) Entry() (ledger.Entry, error) {
	e := ledger.Entry{
		TransactionID: r.TransactionID,
		StudentID:     r.StudentID.StringVal,
		StudentName:   r.StudentName.StringVal,
		FeeTitle:      r.FeeTitle.StringVal,
		ReceiptID:     r.ReceiptID.StringVal,
		Method:        domain.Method(r.Method),
		MethodLabel:   r.MethodLabel.StringVal,
		Amount:        r.Amount,
		Date:          r.PaidAt,
		Status:        ledger.Status(r.Status),
	}
	if r.Details.Valid {
		if err := json.Unmarshal([]byte(r.Details.JSONVal), &e.Details); err != nil {
			return ledger.Entry{}, fmt.Errorf("Entry: details of %s: %w", r.TransactionID, err)
		}
	}
	return e, nil
}
