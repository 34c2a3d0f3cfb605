// Package salary computes staff pay slips: earnings, statutory deductions,
// net pay and its rendering in Indian-English words.
package salary

import (
	"errors"
	"fmt"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrInvalidBasic is returned for a zero or negative basic salary.
var ErrInvalidBasic = errors.New("basic salary must be positive")

// Rates are the business rules applied to a basic salary. Percentages are
// fractions (0.40 is 40%); TA and ProfessionalTax are flat rupee amounts.
type Rates struct {
	HRA             decimal.Decimal
	DA              decimal.Decimal
	TA              decimal.Decimal
	PF              decimal.Decimal
	ProfessionalTax decimal.Decimal
	TDS             decimal.Decimal
}

// DefaultRates: HRA 40%, DA 10%, TA 3000, PF 12% of basic, professional tax 200, TDS 10% of gross.
func DefaultRates() Rates {
	return Rates{
		HRA:             decimal.RequireFromString("0.40"),
		DA:              decimal.RequireFromString("0.10"),
		TA:              decimal.NewFromInt(3000),
		PF:              decimal.RequireFromString("0.12"),
		ProfessionalTax: decimal.NewFromInt(200),
		TDS:             decimal.RequireFromString("0.10"),
	}
}

// RatesFrom builds Rates from plain numbers, e.g. configuration values.
func RatesFrom(hra, da float64, ta int64, pf float64, professionalTax int64, tds float64) Rates {
	return Rates{
		HRA:             decimal.NewFromFloat(hra),
		DA:              decimal.NewFromFloat(da),
		TA:              decimal.NewFromInt(ta),
		PF:              decimal.NewFromFloat(pf),
		ProfessionalTax: decimal.NewFromInt(professionalTax),
		TDS:             decimal.NewFromFloat(tds),
	}
}

// Breakdown is the computed part of a slip.
type Breakdown struct {
	Earnings        domain.Earnings
	Deductions      domain.Deductions
	Gross           int64
	TotalDeductions int64
	Net             int64
}

// rupees rounds half away from zero to whole rupees.
func rupees(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// Compute derives every component from basic. It has no side effects.
func Compute(basic decimal.Decimal, r Rates) (Breakdown, error) {
	if !basic.IsPositive() {
		return Breakdown{}, fmt.Errorf("Compute: %s: %w", basic.String(), ErrInvalidBasic)
	}

	e := domain.Earnings{
		Basic: rupees(basic),
		HRA:   rupees(basic.Mul(r.HRA)),
		DA:    rupees(basic.Mul(r.DA)),
		TA:    rupees(r.TA),
	}
	gross := e.Basic + e.HRA + e.DA + e.TA

	d := domain.Deductions{
		PF:              rupees(basic.Mul(r.PF)),
		ProfessionalTax: rupees(r.ProfessionalTax),
		TDS:             rupees(decimal.NewFromInt(gross).Mul(r.TDS)),
	}
	total := d.PF + d.ProfessionalTax + d.TDS

	return Breakdown{
		Earnings:        e,
		Deductions:      d,
		Gross:           gross,
		TotalDeductions: total,
		Net:             gross - total,
	}, nil
}
