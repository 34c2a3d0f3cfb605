// Package fraud watches payment events and raises alerts for review.
package fraud

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/eventbus"
	"github.com/dvloznov/edufin/internal/idgen"
	"github.com/dvloznov/edufin/internal/notify"
	"github.com/rs/zerolog"
)

// ErrAlertNotFound is returned for unknown alert ids.
var ErrAlertNotFound = errors.New("fraud alert not found")

const (
	ReasonLargePayment   = "Unusual large payment"
	ReasonFailedAttempts = "Multiple failed attempts"
)

// Rules configures the detector. Zero values disable a rule.
type Rules struct {
	LargePaymentThreshold int64
	FailedAttempts        int
	FailureWindow         time.Duration
}

// Detector applies Rules to bus events. Safe for concurrent use.
type Detector struct {
	rules    Rules
	ids      idgen.Generator
	notifier notify.Notifier
	log      zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	alerts   []domain.FraudAlert
	failures map[string][]time.Time
	notifyWG sync.WaitGroup
}

// NewDetector returns a detector starting with seed alerts. notifier may be nil.
func NewDetector(rules Rules, ids idgen.Generator, notifier notify.Notifier, log zerolog.Logger, seed []domain.FraudAlert) *Detector {
	return &Detector{
		rules:    rules,
		ids:      ids,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		alerts:   slices.Clone(seed),
		failures: make(map[string][]time.Time),
	}
}

// Attach subscribes the detector to settled and failed payments.
func (d *Detector) Attach(bus eventbus.Subscriber) func() {
	return bus.Subscribe(d.Observe, eventbus.KindPaymentSettled, eventbus.KindPaymentFailed)
}

// Observe inspects one event. Malformed events are ignored.
func (d *Detector) Observe(ctx context.Context, ev eventbus.Event) {
	if err := ev.Validate(); err != nil {
		d.log.Warn().Err(err).Msg("Fraud detector skipped malformed event")
		return
	}
	switch ev.Kind {
	case eventbus.KindPaymentSettled:
		p := ev.Payment
		if d.rules.LargePaymentThreshold > 0 && p.Result.Amount >= d.rules.LargePaymentThreshold {
			d.raise(ctx, domain.FraudAlert{
				TransactionID: p.Result.TransactionID,
				StudentID:     p.StudentID,
				Amount:        p.Result.Amount,
				Reason:        ReasonLargePayment,
				Severity:      domain.SeverityMedium,
			})
		}
	case eventbus.KindPaymentFailed:
		d.recordFailure(ctx, *ev.Failure)
	}
}

func (d *Detector) recordFailure(ctx context.Context, f eventbus.PaymentFailed) {
	if d.rules.FailedAttempts <= 0 {
		return
	}
	key := f.StudentID
	if key == "" {
		key = "anonymous"
	}
	at := f.At
	if at.IsZero() {
		at = d.now()
	}

	d.mu.Lock()
	recent := d.failures[key]
	if d.rules.FailureWindow > 0 {
		cutoff := at.Add(-d.rules.FailureWindow)
		recent = slices.DeleteFunc(recent, func(t time.Time) bool { return t.Before(cutoff) })
	}
	recent = append(recent, at)
	tripped := len(recent) >= d.rules.FailedAttempts
	if tripped {
		delete(d.failures, key)
	} else {
		d.failures[key] = recent
	}
	d.mu.Unlock()

	if tripped {
		d.raise(ctx, domain.FraudAlert{
			StudentID: f.StudentID,
			Amount:    f.Amount,
			Reason:    ReasonFailedAttempts,
			Severity:  domain.SeverityHigh,
		})
	}
}

func (d *Detector) raise(ctx context.Context, a domain.FraudAlert) {
	a.ID = d.ids.NewID("alert")
	a.Status = domain.AlertPending
	a.CreatedAt = d.now()

	d.mu.Lock()
	d.alerts = append(d.alerts, a)
	d.mu.Unlock()

	d.log.Warn().
		Str("alert_id", a.ID).
		Str("severity", string(a.Severity)).
		Str("student_id", a.StudentID).
		Int64("amount", a.Amount).
		Msg(a.Reason)

	if d.notifier == nil {
		return
	}
	d.notifyWG.Add(1)
	go func() {
		defer d.notifyWG.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := d.notifier.Notify(nctx, notify.FraudAlert(a)); err != nil {
			d.log.Error().Err(err).Str("alert_id", a.ID).Msg("Failed to send fraud notification")
		}
	}()
}

// Wait blocks until in-flight notifications finish.
func (d *Detector) Wait() {
	d.notifyWG.Wait()
}

// Alerts returns pending alerts, newest last. An empty severity matches all.
func (d *Detector) Alerts(severity domain.Severity) []domain.FraudAlert {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []domain.FraudAlert
	for _, a := range d.alerts {
		if a.Status != domain.AlertPending {
			continue
		}
		if severity != "" && a.Severity != severity {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Counts tallies pending alerts per severity.
func (d *Detector) Counts() map[domain.Severity]int {
	counts := map[domain.Severity]int{}
	for _, a := range d.Alerts("") {
		counts[a.Severity]++
	}
	return counts
}

// Resolve marks an alert resolved.
func (d *Detector) Resolve(id string) (domain.FraudAlert, error) {
	return d.setStatus(id, domain.AlertResolved)
}

// Ignore marks an alert ignored.
func (d *Detector) Ignore(id string) (domain.FraudAlert, error) {
	return d.setStatus(id, domain.AlertIgnored)
}

func (d *Detector) setStatus(id string, status domain.AlertStatus) (domain.FraudAlert, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := slices.IndexFunc(d.alerts, func(a domain.FraudAlert) bool { return a.ID == id })
	if i < 0 {
		return domain.FraudAlert{}, fmt.Errorf("%s: %w", id, ErrAlertNotFound)
	}
	d.alerts[i].Status = status
	return d.alerts[i], nil
}

// ExportCSV writes pending alerts as CSV.
func (d *Detector) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ID", "Transaction ID", "Amount", "Date", "Reason", "Severity", "Status"}); err != nil {
		return err
	}
	for _, a := range d.Alerts("") {
		row := []string{a.ID, a.TransactionID, strconv.FormatInt(a.Amount, 10), a.CreatedAt.Format("2006-01-02"), a.Reason, string(a.Severity), string(a.Status)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SeedAlerts are the alerts shown before any live detection.
func SeedAlerts() []domain.FraudAlert {
	day := func(d int) time.Time { return time.Date(2023, time.March, d, 0, 0, 0, 0, time.UTC) }
	return []domain.FraudAlert{
		{ID: "alert-001", TransactionID: "tx-098", Amount: 25000, Reason: ReasonLargePayment, Severity: domain.SeverityMedium, Status: domain.AlertPending, CreatedAt: day(28)},
		{ID: "alert-002", TransactionID: "tx-099", Amount: 15000, Reason: ReasonFailedAttempts, Severity: domain.SeverityHigh, Status: domain.AlertPending, CreatedAt: day(27)},
		{ID: "alert-003", TransactionID: "tx-100", Amount: 12000, Reason: "Suspicious IP address", Severity: domain.SeverityLow, Status: domain.AlertPending, CreatedAt: day(26)},
	}
}
