package salary

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_PinnedExample(t *testing.T) {
	b, err := Compute(decimal.NewFromInt(50000), DefaultRates())
	require.NoError(t, err)

	assert.Equal(t, int64(50000), b.Earnings.Basic)
	assert.Equal(t, int64(20000), b.Earnings.HRA)
	assert.Equal(t, int64(5000), b.Earnings.DA)
	assert.Equal(t, int64(3000), b.Earnings.TA)
	assert.Equal(t, int64(78000), b.Gross)

	assert.Equal(t, int64(6000), b.Deductions.PF)
	assert.Equal(t, int64(200), b.Deductions.ProfessionalTax)
	assert.Equal(t, int64(7800), b.Deductions.TDS)
	assert.Equal(t, int64(14000), b.TotalDeductions)
	assert.Equal(t, int64(64000), b.Net)
}

func TestCompute_Deterministic(t *testing.T) {
	first, err := Compute(decimal.NewFromInt(61234), DefaultRates())
	require.NoError(t, err)
	second, err := Compute(decimal.NewFromInt(61234), DefaultRates())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompute_Invariants(t *testing.T) {
	for basic := int64(40000); basic < 70000; basic += 997 {
		b, err := Compute(decimal.NewFromInt(basic), DefaultRates())
		require.NoError(t, err)

		e, d := b.Earnings, b.Deductions
		assert.Equal(t, e.Basic+e.HRA+e.DA+e.TA, b.Gross)
		assert.Equal(t, d.PF+d.ProfessionalTax+d.TDS, b.TotalDeductions)
		assert.Equal(t, b.Gross-b.TotalDeductions, b.Net)
		assert.Positive(t, b.Net)
	}
}

func TestCompute_Rounding(t *testing.T) {
	// 12% of 45555 = 5466.6, HRA 18222, DA 4555.5 -> 4556
	b, err := Compute(decimal.NewFromInt(45555), DefaultRates())
	require.NoError(t, err)
	assert.Equal(t, int64(5467), b.Deductions.PF)
	assert.Equal(t, int64(4556), b.Earnings.DA)
}

func TestCompute_RejectsNonPositive(t *testing.T) {
	for _, v := range []int64{0, -1, -50000} {
		_, err := Compute(decimal.NewFromInt(v), DefaultRates())
		assert.ErrorIs(t, err, ErrInvalidBasic)
	}
}

func TestCompute_CustomRates(t *testing.T) {
	rates := RatesFrom(0.5, 0, 0, 0.1, 0, 0)
	b, err := Compute(decimal.NewFromInt(10000), rates)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), b.Gross)
	assert.Equal(t, int64(1000), b.TotalDeductions)
	assert.Equal(t, int64(14000), b.Net)
}
