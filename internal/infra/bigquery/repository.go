package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/edufin/internal/ledger"
)

// DefaultDataset is used when no dataset is configured.
const DefaultDataset = "edufin"

// PaymentRepository implements ledger.Store on BigQuery. It holds a shared
// client to avoid creating a connection per operation.
type PaymentRepository struct {
	client   *bigquery.Client
	dataset  string
	currency string
	now      func() time.Time
}

// NewPaymentRepository creates a repository with its own client.
func NewPaymentRepository(ctx context.Context, projectID, dataset string) (*PaymentRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewPaymentRepository: creating client: %w", err)
	}
	return NewPaymentRepositoryWithClient(client, dataset), nil
}

// NewPaymentRepositoryWithClient wraps an existing client.
func NewPaymentRepositoryWithClient(client *bigquery.Client, dataset string) *PaymentRepository {
	if dataset == "" {
		dataset = DefaultDataset
	}
	return &PaymentRepository{client: client, dataset: dataset, currency: "INR", now: time.Now}
}

// Close closes the BigQuery client connection.
func (r *PaymentRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *PaymentRepository) Record(ctx context.Context, e ledger.Entry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("Record: %w", err)
	}
	row, err := NewPaymentRow(e, r.currency, r.now().UTC())
	if err != nil {
		return fmt.Errorf("Record: %w", err)
	}
	return InsertPaymentsWithClient(ctx, r.client, r.dataset, []*PaymentRow{row})
}

func (r *PaymentRepository) ListByStudent(ctx context.Context, studentID string) ([]ledger.Entry, error) {
	if studentID == "" {
		return nil, nil
	}
	return r.list(ctx, studentID)
}

func (r *PaymentRepository) List(ctx context.Context) ([]ledger.Entry, error) {
	return r.list(ctx, "")
}

func (r *PaymentRepository) list(ctx context.Context, studentID string) ([]ledger.Entry, error) {
	rows, err := QueryPaymentsWithClient(ctx, r.client, r.dataset, studentID)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := row.Entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

var _ ledger.Store = (*PaymentRepository)(nil)
