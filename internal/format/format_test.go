package format

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "₹0"},
		{999, "₹999"},
		{1000, "₹1,000"},
		{35000, "₹35,000"},
		{128500, "₹1,28,500"},
		{10000000, "₹1,00,00,000"},
		{9999999999, "₹9,99,99,99,999"},
		{-12500, "-₹12,500"},
		{math.MinInt64, "-₹92,23,37,20,36,85,47,75,808"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(tt.amount))
		})
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2023, time.April, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "15 Apr 2023", FormatDate(d))
	assert.Equal(t, "05 Jan 2024", FormatDate(time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)))
}

func TestMaskAccountNumber(t *testing.T) {
	assert.Equal(t, "••••••••••••1234", MaskAccountNumber("4111111111111234"))
	assert.Equal(t, "•5678", MaskAccountNumber("95678"))
	assert.Equal(t, "123", MaskAccountNumber("123"))
	assert.Equal(t, "", MaskAccountNumber(""))
}

func TestLastFour(t *testing.T) {
	assert.Equal(t, "1234", LastFour("4111111111111234"))
	assert.Equal(t, "12", LastFour("12"))
}

func TestPercentageChange(t *testing.T) {
	tests := []struct {
		name     string
		old, new float64
		want     float64
	}{
		{"zero baseline", 0, 500, 100},
		{"increase", 100, 125, 25},
		{"decrease", 200, 150, -25},
		{"negative baseline", -100, -50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PercentageChange(tt.old, tt.new), 1e-9)
		})
	}
}

func TestFormatPercentage(t *testing.T) {
	assert.Equal(t, "+12.5%", FormatPercentage(12.5))
	assert.Equal(t, "-3.3%", FormatPercentage(-3.333))
	assert.Equal(t, "+0.0%", FormatPercentage(0))
}
