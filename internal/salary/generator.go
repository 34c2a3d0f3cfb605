package salary

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/idgen"
	"github.com/dvloznov/edufin/internal/logger"
	"github.com/shopspring/decimal"
)

// ErrMissingField is returned when a slip request lacks staff, month or year.
var ErrMissingField = errors.New("missing required field")

// Demo basic salaries are drawn from [MinDemoBasic, MinDemoBasic+DemoBasicSpan).
const (
	MinDemoBasic  = 40000
	DemoBasicSpan = 30000
)

// Request asks for one slip. Basic is optional; zero draws a demo value.
type Request struct {
	StaffID string          `json:"staffId" validate:"required"`
	Month   time.Month      `json:"month" validate:"required,min=1,max=12"`
	Year    int             `json:"year" validate:"required,min=2000,max=2100"`
	Basic   decimal.Decimal `json:"basic"`
}

// Generator assembles slips from a directory, rates and an id source.
type Generator struct {
	Directory Directory
	Rates     Rates
	IDs       idgen.Generator
	Now       func() time.Time
	// RandBasic returns a demo basic salary when a request omits one.
	RandBasic func() int64
}

// NewGenerator wires a generator with default clock and demo randomness.
func NewGenerator(dir Directory, rates Rates, ids idgen.Generator) *Generator {
	return &Generator{
		Directory: dir,
		Rates:     rates,
		IDs:       ids,
		Now:       time.Now,
		RandBasic: func() int64 { return MinDemoBasic + rand.Int64N(DemoBasicSpan) },
	}
}

// Generate builds a new immutable slip. Each call yields a new id, even
// for the same staff member and period.
func (g *Generator) Generate(ctx context.Context, req Request) (domain.SalarySlip, error) {
	log := logger.FromContext(ctx)

	if req.StaffID == "" || req.Month == 0 || req.Year == 0 {
		return domain.SalarySlip{}, fmt.Errorf("Generate: staff, month and year are required: %w", ErrMissingField)
	}
	if req.Month < time.January || req.Month > time.December {
		return domain.SalarySlip{}, fmt.Errorf("Generate: month %d out of range: %w", req.Month, ErrMissingField)
	}

	staff, err := g.Directory.Get(ctx, req.StaffID)
	if err != nil {
		return domain.SalarySlip{}, fmt.Errorf("Generate: %w", err)
	}

	basic := req.Basic
	if basic.IsZero() {
		basic = decimal.NewFromInt(g.RandBasic())
	}

	b, err := Compute(basic, g.Rates)
	if err != nil {
		return domain.SalarySlip{}, fmt.Errorf("Generate: %w", err)
	}

	prefix := fmt.Sprintf("SAL-%d%02d-%d", req.Year, int(req.Month), staff.Number)
	slip := domain.SalarySlip{
		ID:              g.IDs.NewID(prefix),
		Staff:           staff,
		Month:           req.Month,
		Year:            req.Year,
		Earnings:        b.Earnings,
		Deductions:      b.Deductions,
		Gross:           b.Gross,
		TotalDeductions: b.TotalDeductions,
		Net:             b.Net,
		NetInWords:      AmountInWords(decimal.NewFromInt(b.Net)),
		PaymentDate:     lastDayOfMonth(req.Year, req.Month),
		GeneratedAt:     g.Now().UTC(),
	}

	log.Info().
		Str("slip_id", slip.ID).
		Str("staff_id", staff.ID).
		Int64("net", slip.Net).
		Msg("Generated salary slip")

	return slip, nil
}

// GenerateAll produces one slip per staff member for the period.
func (g *Generator) GenerateAll(ctx context.Context, month time.Month, year int) ([]domain.SalarySlip, error) {
	staff, err := g.Directory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("GenerateAll: list staff: %w", err)
	}
	slips := make([]domain.SalarySlip, 0, len(staff))
	for _, s := range staff {
		slip, err := g.Generate(ctx, Request{StaffID: s.ID, Month: month, Year: year})
		if err != nil {
			return nil, fmt.Errorf("GenerateAll: %w", err)
		}
		slips = append(slips, slip)
	}
	return slips, nil
}

func lastDayOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
}
