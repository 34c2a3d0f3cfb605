package fees

import (
	"time"

	"github.com/dvloznov/edufin/internal/domain"
)

// DefaultGraceDays is how late a payment may be before a reminder goes out.
const DefaultGraceDays = 5

// ReminderPolicy decides which obligations deserve a reminder.
type ReminderPolicy struct {
	GraceDays int
}

// NeedsReminder is true for obligations already due and for anything still
// unpaid more than GraceDays past its due date. Paid obligations never qualify.
func (p ReminderPolicy) NeedsReminder(status domain.FeeStatus, delayDays int) bool {
	if status == domain.FeePaid {
		return false
	}
	grace := p.GraceDays
	if grace <= 0 {
		grace = DefaultGraceDays
	}
	return status == domain.FeeDue || delayDays > grace
}

// Due returns the outstanding obligations in l that need a reminder at now.
func (p ReminderPolicy) Due(l *Ledger, now time.Time) []domain.FeeObligation {
	var out []domain.FeeObligation
	for _, f := range l.Outstanding() {
		delay := 0
		if now.After(f.DueDate) {
			delay = int(now.Sub(f.DueDate).Hours() / 24)
		}
		if p.NeedsReminder(f.Status, delay) {
			out = append(out, f)
		}
	}
	return out
}
