package archive

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveAndFetch(t *testing.T) {
	ctx := context.Background()
	a := New(&MemoryBucket{BucketName: "edufin-slips"})

	slip := domain.SalarySlip{
		ID:          "SAL-000001",
		Staff:       domain.Staff{ID: "STAFF001", Name: "Dr. Rajesh Kumar"},
		Month:       time.March,
		Year:        2024,
		Net:         62260,
		NetInWords:  "Rupees Sixty Two Thousand Two Hundred Sixty Only",
		PaymentDate: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	uri, err := a.Archive(ctx, slip)
	require.NoError(t, err)
	assert.Equal(t, "gs://edufin-slips/slips/SAL-000001.json", uri)

	got, err := a.Fetch(ctx, "SAL-000001")
	require.NoError(t, err)
	assert.Equal(t, slip, got)

	_, err = a.Fetch(ctx, "SAL-404")
	assert.ErrorIs(t, err, ErrNotArchived)

	_, err = a.Archive(ctx, domain.SalarySlip{})
	assert.Error(t, err)
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		object  string
		wantErr bool
	}{
		{"gs://b/slips/x.json", "b", "slips/x.json", false},
		{"gs://b", "", "", true},
		{"gs:///x", "", "", true},
		{"https://b/x", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			b, o, err := ParseURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, b)
			assert.Equal(t, tt.object, o)
		})
	}
}
