// Package worker holds the job handlers run by the API's in-process queue
// and by the standalone worker binary.
package worker

import (
	"context"
	"fmt"

	"github.com/dvloznov/edufin/internal/archive"
	"github.com/dvloznov/edufin/internal/jobs"
	"github.com/dvloznov/edufin/internal/ledger"
	"github.com/dvloznov/edufin/internal/logger"
	"github.com/dvloznov/edufin/internal/notify"
)

// Mirror copies a recorded entry to a secondary system such as Notion.
type Mirror interface {
	Mirror(ctx context.Context, e ledger.Entry) error
}

// Handlers process payment and slip jobs. Any dependency may be nil; its
// jobs then complete without doing anything.
type Handlers struct {
	Ledger   ledger.Store
	Mirror   Mirror
	Notifier notify.Notifier
	Archiver *archive.Archiver
}

// Router returns a jobs.Router with every job type registered.
func (h *Handlers) Router() *jobs.Router {
	r := jobs.NewRouter()
	r.Handle(jobs.JobTypeRecordPayment, h.RecordPayment)
	r.Handle(jobs.JobTypeNotifyPayment, h.NotifyPayment)
	r.Handle(jobs.JobTypeArchiveSlip, h.ArchiveSlip)
	return r
}

// RecordPayment writes the settled payment to the ledger, then mirrors it.
// Invalid entries are dropped since retrying cannot fix them; a mirror
// failure only costs the mirror copy.
func (h *Handlers) RecordPayment(ctx context.Context, job *jobs.Job) error {
	log := logger.FromContext(ctx)

	var p jobs.PaymentPayload
	if err := job.Decode(&p); err != nil {
		log.Error().Err(err).Str("job_id", job.JobID).Msg("Dropping undecodable payment job")
		return nil
	}
	entry := ledger.FromPayment(p.Result, p.Receipt, p.StudentName)
	if err := entry.Validate(); err != nil {
		log.Error().Err(err).Str("job_id", job.JobID).Str("transaction_id", entry.TransactionID).Msg("Dropping invalid ledger entry")
		return nil
	}
	if h.Ledger == nil {
		return nil
	}

	if err := h.Ledger.Record(ctx, entry); err != nil {
		return fmt.Errorf("RecordPayment: %w", err)
	}
	log.Info().Str("transaction_id", entry.TransactionID).Str("student_id", entry.StudentID).Int64("amount", entry.Amount).Msg("Payment recorded")

	if h.Mirror != nil {
		if err := h.Mirror.Mirror(ctx, entry); err != nil {
			log.Warn().Err(err).Str("transaction_id", entry.TransactionID).Msg("Failed to mirror payment")
		}
	}
	return nil
}

// NotifyPayment announces a settled payment.
func (h *Handlers) NotifyPayment(ctx context.Context, job *jobs.Job) error {
	if h.Notifier == nil {
		return nil
	}
	var p jobs.PaymentPayload
	if err := job.Decode(&p); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("job_id", job.JobID).Msg("Dropping undecodable payment job")
		return nil
	}
	if err := h.Notifier.Notify(ctx, notify.PaymentSettled(p.Result, p.StudentName, p.Receipt.FeeTitle)); err != nil {
		return fmt.Errorf("NotifyPayment: %w", err)
	}
	return nil
}

// ArchiveSlip stores a generated slip.
func (h *Handlers) ArchiveSlip(ctx context.Context, job *jobs.Job) error {
	if h.Archiver == nil {
		return nil
	}
	log := logger.FromContext(ctx)

	var p jobs.SlipPayload
	if err := job.Decode(&p); err != nil {
		log.Error().Err(err).Str("job_id", job.JobID).Msg("Dropping undecodable slip job")
		return nil
	}
	if p.Slip.ID == "" {
		log.Error().Str("job_id", job.JobID).Msg("Dropping slip job without slip id")
		return nil
	}
	uri, err := h.Archiver.Archive(ctx, p.Slip)
	if err != nil {
		return fmt.Errorf("ArchiveSlip: %w", err)
	}
	log.Info().Str("slip_id", p.Slip.ID).Str("uri", uri).Msg("Salary slip archived")
	return nil
}
