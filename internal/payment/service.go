package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/eventbus"
	"github.com/dvloznov/edufin/internal/fees"
	"github.com/dvloznov/edufin/internal/idgen"
	"github.com/dvloznov/edufin/internal/jobs"
	"github.com/rs/zerolog"
)

// Outcome is a settled payment and, for student fee flows, its receipt.
type Outcome struct {
	Result  domain.PaymentResult `json:"result"`
	Receipt *domain.Receipt      `json:"receipt,omitempty"`
}

// Service routes requests to adapters and settles successful payments:
// the fee ledger is updated, one payment.settled event is published and
// persistence and notification jobs are enqueued. The dashboard only moves
// after full success.
type Service struct {
	adapters []Adapter
	book     *fees.Book
	bus      eventbus.Publisher
	jobs     jobs.Publisher
	ids      idgen.Generator
	now      func() time.Time
	log      zerolog.Logger

	// BeforeSettle, when set, runs for a student before their ledger moves.
	BeforeSettle func(studentID string)
}

// NewService wires a payment service. jobs may be nil.
func NewService(book *fees.Book, bus eventbus.Publisher, jobPublisher jobs.Publisher, ids idgen.Generator, log zerolog.Logger, adapters ...Adapter) *Service {
	return &Service{
		adapters: adapters,
		book:     book,
		bus:      bus,
		jobs:     jobPublisher,
		ids:      ids,
		now:      time.Now,
		log:      log,
	}
}

// Adapter returns the adapter handling m.
func (s *Service) Adapter(m domain.Method) (Adapter, error) {
	for _, a := range s.adapters {
		if a.Supports(m) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, m)
}

// Prepare validates req against the student's ledger. A zero amount takes
// the obligation's amount; a different non-zero amount is rejected.
func (s *Service) Prepare(req Request) (Request, error) {
	if !req.Method.Valid() {
		return req, fmt.Errorf("%w: %s", ErrUnsupportedMethod, req.Method)
	}
	if req.ObligationID == "" || s.book == nil {
		return req, requirePositive(req.Amount)
	}
	if req.StudentID == "" {
		return req, validationError("student id is required to pay a fee")
	}

	fee, err := s.book.For(req.StudentID).Find(req.ObligationID)
	if err != nil {
		return req, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !fee.Outstanding() {
		return req, fmt.Errorf("%w: %v", ErrValidation, fees.ErrNotOutstanding)
	}
	switch {
	case req.Amount == 0:
		req.Amount = fee.Amount
	case req.Amount != fee.Amount:
		return req, validationError(fmt.Sprintf("amount %d does not match %s (%d)", req.Amount, fee.Title, fee.Amount))
	}
	req.ObligationID = fee.ID
	if req.FeeTitle == "" {
		req.FeeTitle = fee.Title
	}
	return req, nil
}

// Pay runs a blocking adapter flow end to end.
func (s *Service) Pay(ctx context.Context, req Request) (Outcome, error) {
	req, err := s.Prepare(req)
	if err != nil {
		return Outcome{}, err
	}
	adapter, err := s.Adapter(req.Method)
	if err != nil {
		return Outcome{}, err
	}

	result, err := adapter.Initiate(ctx, req)
	if err != nil {
		s.Fail(ctx, req, err)
		return Outcome{}, err
	}
	return s.Settle(ctx, req, result)
}

// Settle records a successful result. The obligation, when named, moves
// to paid exactly once; settling it again fails without publishing.
func (s *Service) Settle(ctx context.Context, req Request, result domain.PaymentResult) (Outcome, error) {
	var wasOverdue bool
	if req.StudentID != "" && s.BeforeSettle != nil {
		s.BeforeSettle(req.StudentID)
	}
	if req.ObligationID != "" && req.StudentID != "" && s.book != nil {
		before, err := s.book.For(req.StudentID).Settle(req.ObligationID)
		if err != nil {
			return Outcome{}, fmt.Errorf("Settle: %w", err)
		}
		wasOverdue = before.Status == domain.FeeDue
		if req.FeeTitle == "" {
			req.FeeTitle = before.Title
		}
	}

	out := Outcome{Result: result}
	if req.StudentID != "" {
		out.Receipt = &domain.Receipt{
			ID:            s.ids.NewID("RCP"),
			TransactionID: result.TransactionID,
			StudentID:     req.StudentID,
			FeeTitle:      req.FeeTitle,
			Amount:        result.Amount,
			Method:        result.MethodLabel,
			IssuedAt:      s.now(),
		}
	}

	settled := eventbus.PaymentSettled{
		Result:       result,
		StudentID:    req.StudentID,
		StudentName:  req.StudentName,
		ObligationID: req.ObligationID,
		FeeTitle:     req.FeeTitle,
		WasOverdue:   wasOverdue,
	}
	if out.Receipt != nil {
		settled.ReceiptID = out.Receipt.ID
	}
	s.bus.Publish(ctx, eventbus.Settled(settled))

	s.log.Info().
		Str("transaction_id", result.TransactionID).
		Str("student_id", req.StudentID).
		Str("method", string(result.Method)).
		Int64("amount", result.Amount).
		Bool("was_overdue", wasOverdue).
		Msg("Payment settled")

	s.enqueue(ctx, out, req.StudentName)
	return out, nil
}

func (s *Service) enqueue(ctx context.Context, out Outcome, studentName string) {
	if s.jobs == nil {
		return
	}
	payload := jobs.PaymentPayload{Result: out.Result, StudentName: studentName}
	if out.Receipt != nil {
		payload.Receipt = *out.Receipt
	}
	for _, t := range []jobs.JobType{jobs.JobTypeRecordPayment, jobs.JobTypeNotifyPayment} {
		job, err := jobs.NewJob(t, payload)
		if err == nil {
			err = s.jobs.Publish(ctx, job)
		}
		if err != nil {
			s.log.Error().Err(err).Str("job_type", string(t)).Str("transaction_id", out.Result.TransactionID).Msg("Failed to enqueue payment job")
		}
	}
}

// Fail publishes payment.failed for an attempt that did not complete.
// Validation errors are not attempts and publish nothing.
func (s *Service) Fail(ctx context.Context, req Request, cause error) {
	if cause == nil || errors.Is(cause, ErrValidation) {
		return
	}
	s.log.Warn().Err(cause).Str("student_id", req.StudentID).Str("method", string(req.Method)).Msg("Payment failed")
	s.bus.Publish(ctx, eventbus.Failed(eventbus.PaymentFailed{
		StudentID: req.StudentID,
		Method:    req.Method,
		Amount:    req.Amount,
		Reason:    cause.Error(),
		At:        s.now(),
	}))
}
