package domain

import "time"

// FeeStatus is the lifecycle state of a fee obligation.
type FeeStatus string

const (
	FeeDue      FeeStatus = "due"
	FeeUpcoming FeeStatus = "upcoming"
	FeePaid     FeeStatus = "paid"
)

// FeeObligation is one scheduled or overdue charge owed by a student.
type FeeObligation struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Amount  int64     `json:"amount"`
	DueDate time.Time `json:"dueDate"`
	Status  FeeStatus `json:"status"`
}

// Outstanding reports whether the obligation still needs paying.
func (f FeeObligation) Outstanding() bool {
	return f.Status == FeeDue || f.Status == FeeUpcoming
}
