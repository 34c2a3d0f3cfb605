package domain

import "time"

// Severity ranks a fraud alert.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// AlertStatus tracks review of a fraud alert.
type AlertStatus string

const (
	AlertPending  AlertStatus = "pending"
	AlertResolved AlertStatus = "resolved"
	AlertIgnored  AlertStatus = "ignored"
)

// FraudAlert flags a transaction or a pattern of attempts for review.
type FraudAlert struct {
	ID            string      `json:"id"`
	TransactionID string      `json:"transactionId,omitempty"`
	StudentID     string      `json:"studentId,omitempty"`
	Amount        int64       `json:"amount"`
	Reason        string      `json:"reason"`
	Severity      Severity    `json:"severity"`
	Status        AlertStatus `json:"status"`
	CreatedAt     time.Time   `json:"date"`
}
