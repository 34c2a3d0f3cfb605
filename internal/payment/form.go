package payment

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/format"
	"github.com/dvloznov/edufin/internal/idgen"
	"github.com/dvloznov/edufin/internal/logger"
)

// DefaultFormDelay mirrors the processing time shown to the user.
const DefaultFormDelay = 2 * time.Second

// FormAdapter completes card, UPI and net-banking payments from submitted
// form fields. It only checks that required fields are present and never
// contacts a processor.
type FormAdapter struct {
	IDs   idgen.Generator
	Delay time.Duration
	Sleep Sleeper
	Now   func() time.Time
}

// NewFormAdapter returns an adapter with the default sleeper and clock.
func NewFormAdapter(ids idgen.Generator, delay time.Duration) *FormAdapter {
	return &FormAdapter{IDs: ids, Delay: delay, Sleep: Sleep, Now: time.Now}
}

// Supports implements Adapter.
func (a *FormAdapter) Supports(m domain.Method) bool {
	return m == domain.MethodCard || m == domain.MethodUPI || m == domain.MethodNetBanking
}

// Initiate implements Adapter.
func (a *FormAdapter) Initiate(ctx context.Context, req Request) (domain.PaymentResult, error) {
	if err := requirePositive(req.Amount); err != nil {
		return domain.PaymentResult{}, err
	}
	details, bank, err := a.details(req)
	if err != nil {
		return domain.PaymentResult{}, err
	}

	if err := a.Sleep(ctx, a.Delay); err != nil {
		return domain.PaymentResult{}, fmt.Errorf("Initiate: %w", err)
	}

	result := domain.PaymentResult{
		Method:        req.Method,
		MethodLabel:   req.Method.Label(bank),
		TransactionID: a.IDs.NewID(idgen.DefaultPrefix),
		Amount:        req.Amount,
		Date:          a.Now(),
		Details:       details,
	}
	log := logger.FromContext(ctx)
	log.Info().
		Str("transaction_id", result.TransactionID).
		Str("method", string(result.Method)).
		Int64("amount", result.Amount).
		Msg("Form payment completed")
	return result, nil
}

func (a *FormAdapter) details(req Request) (domain.PaymentDetails, string, error) {
	switch req.Method {
	case domain.MethodCard:
		for _, key := range []string{FieldCardNumber, FieldExpiry, FieldCVV, FieldCardName} {
			if strings.TrimSpace(req.field(key)) == "" {
				return domain.PaymentDetails{}, "", validationError(key + " is required")
			}
		}
		return domain.PaymentDetails{MaskedCard: format.MaskAccountNumber(digits(req.field(FieldCardNumber)))}, "", nil

	case domain.MethodUPI:
		upi := req.UPIID
		if upi == "" {
			upi = req.field(FieldUPIID)
		}
		if strings.TrimSpace(upi) == "" {
			return domain.PaymentDetails{}, "", validationError("UPI ID is required")
		}
		return domain.PaymentDetails{UPIID: upi}, "", nil

	case domain.MethodNetBanking:
		bank := strings.ToLower(req.field(FieldBank))
		name, ok := domain.Banks[bank]
		if !ok {
			return domain.PaymentDetails{}, "", validationError("select a supported bank")
		}
		return domain.PaymentDetails{BankName: name, AccountLastFour: idgen.Digits(4)}, bank, nil
	}
	return domain.PaymentDetails{}, "", fmt.Errorf("%w: %s", ErrUnsupportedMethod, req.Method)
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

var _ Adapter = (*FormAdapter)(nil)
