package bigquery

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentRow_RoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	e := ledger.Entry{
		TransactionID: "TXN-000001",
		StudentID:     "2",
		FeeTitle:      "Exam Fee",
		Method:        domain.MethodCard,
		MethodLabel:   "Credit Card",
		Amount:        12500,
		Date:          at,
		Status:        ledger.StatusCompleted,
		Details:       domain.PaymentDetails{MaskedCard: "•••• •••• •••• 4242"},
	}

	row, err := NewPaymentRow(e, "INR", at)
	require.NoError(t, err)
	assert.False(t, row.StudentName.Valid)
	assert.True(t, row.StudentID.Valid)
	assert.True(t, row.Details.Valid)
	assert.Equal(t, "INR", row.Currency)

	back, err := row.Entry()
	require.NoError(t, err)
	assert.Equal(t, e, back)
}

func TestPaymentRow_NoDetails(t *testing.T) {
	row, err := NewPaymentRow(ledger.Entry{TransactionID: "x", Amount: 1}, "INR", time.Now())
	require.NoError(t, err)
	assert.False(t, row.Details.Valid)
}

func TestPaymentsQuery(t *testing.T) {
	q := paymentsQuery("edufin", true)
	assert.Contains(t, q, "FROM edufin.payments")
	assert.Contains(t, q, "WHERE student_id = @student_id")
	assert.Contains(t, q, "QUALIFY ROW_NUMBER()")

	assert.NotContains(t, paymentsQuery("edufin", false), "WHERE")
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename string
		ok       bool
		version  int
		name     string
	}{
		{"0001_init_schema_migrations.sql", true, 1, "init_schema_migrations"},
		{"001_invalid.sql", false, 0, ""},
		{"0001_test", false, 0, ""},
		{"0001.sql", false, 0, ""},
		{"invalid_0001_test.sql", false, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			v, name, ok := ParseMigrationFilename(tt.filename)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.version, v)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_b.sql": {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.b` (x INT64);")},
		"m/0001_a.sql": {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.a` (x INT64);")},
		"m/notes.txt":  {Data: []byte("ignored")},
	}

	got, err := loadMigrations(fsys, "m", "proj", "ds")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Version)
	assert.Equal(t, "CREATE TABLE `proj.ds.a` (x INT64);", got[0].SQL)
	assert.Len(t, got[0].Checksum, 64)

	other, err := loadMigrations(fsys, "m", "other", "ds2")
	require.NoError(t, err)
	assert.Equal(t, got[0].Checksum, other[0].Checksum)
}

func TestEmbeddedMigrations(t *testing.T) {
	got, err := Migrations("proj", "edufin")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Equal(t, "create_payments", last.Name)
	assert.True(t, strings.Contains(last.SQL, "`proj.edufin.payments`"))
}
