package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const paymentsTable = "payments"

// InsertPaymentsWithClient streams rows into <dataset>.payments. The
// transaction id doubles as the insert id so BigQuery drops retried rows.
func InsertPaymentsWithClient(ctx context.Context, client *bigquery.Client, datasetID string, rows []*PaymentRow) error {
	if len(rows) == 0 {
		return nil
	}

	savers := make([]*bigquery.StructSaver, len(rows))
	for i, r := range rows {
		savers[i] = &bigquery.StructSaver{Struct: r, InsertID: r.TransactionID}
	}

	inserter := client.Dataset(datasetID).Table(paymentsTable).Inserter()
	if err := inserter.Put(ctx, savers); err != nil {
		return fmt.Errorf("InsertPayments: inserting rows: %w", err)
	}
	return nil
}

// paymentsQuery selects the latest row per transaction id, newest payment first.
func paymentsQuery(datasetID string, byStudent bool) string {
	where := ""
	if byStudent {
		where = "WHERE student_id = @student_id"
	}
	return fmt.Sprintf(`
		SELECT
			transaction_id,
			student_id,
			student_name,
			fee_title,
			receipt_id,
			method,
			method_label,
			amount,
			currency,
			paid_at,
			status,
			details,
			created_ts
		FROM %s.%s
		%s
		QUALIFY ROW_NUMBER() OVER (PARTITION BY transaction_id ORDER BY created_ts DESC) = 1
		ORDER BY paid_at DESC
	`, datasetID, paymentsTable, where)
}

// QueryPaymentsWithClient returns payments, optionally restricted to one student.
func QueryPaymentsWithClient(ctx context.Context, client *bigquery.Client, datasetID, studentID string) ([]*PaymentRow, error) {
	q := client.Query(paymentsQuery(datasetID, studentID != ""))
	if studentID != "" {
		q.Parameters = []bigquery.QueryParameter{{Name: "student_id", Value: studentID}}
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryPayments: query read: %w", err)
	}

	var rows []*PaymentRow
	for {
		var r PaymentRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryPayments: iter next: %w", err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}
