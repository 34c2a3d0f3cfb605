package salary

import (
	"strings"

	"github.com/shopspring/decimal"
)

var ones = [...]string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tens = [...]string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}

const (
	crore    = 10_000_000
	lakh     = 100_000
	thousand = 1_000
)

// NumberToWords spells n using Indian grouping (crore, lakh, thousand,
// hundred). Empty groups are omitted: 10000000 is "One Crore".
func NumberToWords(n int64) string {
	if n == 0 {
		return "Zero"
	}
	if n < 0 {
		// -n overflows for MinInt64; spell its magnitude as unsigned.
		return "Minus " + strings.Join(spell(uint64(-(n+1))+1), " ")
	}
	return strings.Join(spell(uint64(n)), " ")
}

func spell(n uint64) []string {
	var out []string
	if n >= crore {
		out = append(out, spell(n/crore)...)
		out = append(out, "Crore")
		n %= crore
	}
	if n >= lakh {
		out = append(out, belowHundred(n/lakh)...)
		out = append(out, "Lakh")
		n %= lakh
	}
	if n >= thousand {
		out = append(out, belowHundred(n/thousand)...)
		out = append(out, "Thousand")
		n %= thousand
	}
	if n >= 100 {
		out = append(out, ones[n/100], "Hundred")
		n %= 100
	}
	return append(out, belowHundred(n)...)
}

func belowHundred(n uint64) []string {
	switch {
	case n == 0:
		return nil
	case n < 20:
		return []string{ones[n]}
	case n%10 == 0:
		return []string{tens[n/10]}
	default:
		return []string{tens[n/10], ones[n%10]}
	}
}

// AmountInWords renders a rupee amount for a slip: "Rupees Sixty Four
// Thousand Only", or "Rupees Ten and Fifty Paise Only" when paise are present.
func AmountInWords(amount decimal.Decimal) string {
	amount = amount.Abs().Round(2)
	whole := amount.IntPart()
	paise := amount.Sub(decimal.NewFromInt(whole)).Mul(decimal.NewFromInt(100)).IntPart()

	var b strings.Builder
	b.WriteString("Rupees ")
	b.WriteString(NumberToWords(whole))
	if paise > 0 {
		b.WriteString(" and ")
		b.WriteString(NumberToWords(paise))
		b.WriteString(" Paise")
	}
	b.WriteString(" Only")
	return b.String()
}
