// Package format renders amounts, dates and identifiers for display.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const rupee = "₹"

// FormatCurrency renders whole rupees with Indian digit grouping: 128500 -> "₹1,28,500".
func FormatCurrency(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	return sign + rupee + GroupIndian(absInt(amount))
}

// GroupIndian inserts separators after the last three digits and then every two.
func GroupIndian(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}

	head, tail := s[:len(s)-3], s[len(s)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}

// FormatDate renders t as "15 Apr 2023".
func FormatDate(t time.Time) string {
	return t.Format("02 Jan 2006")
}

// MaskAccountNumber replaces all but the last four characters with bullets.
func MaskAccountNumber(account string) string {
	n := utf8.RuneCountInString(account)
	if n <= 4 {
		return account
	}
	runes := []rune(account)
	return strings.Repeat("•", n-4) + string(runes[n-4:])
}

// LastFour returns the trailing four characters of s, or s when shorter.
func LastFour(s string) string {
	runes := []rune(s)
	if len(runes) <= 4 {
		return s
	}
	return string(runes[len(runes)-4:])
}

// PercentageChange returns the relative change from old to new in percent.
// A zero baseline is reported as a 100% increase.
func PercentageChange(old, new float64) float64 {
	if old == 0 {
		return 100
	}
	return (new - old) / math.Abs(old) * 100
}

// FormatPercentage renders v with an explicit sign and one decimal: "+12.5%".
func FormatPercentage(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.1f%%", v)
	}
	return fmt.Sprintf("%.1f%%", v)
}

func absInt(n int64) uint64 {
	if n < 0 {
		return uint64(-(n + 1)) + 1
	}
	return uint64(n)
}
