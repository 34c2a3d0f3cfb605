package fees

import (
	"time"

	"github.com/dvloznov/edufin/internal/domain"
)

// StudentSeed returns the demo fee schedule every new student starts with.
func StudentSeed(string) []domain.FeeObligation {
	return []domain.FeeObligation{
		{ID: "fee-1", Title: "Term 3 Tuition Fee", Amount: 35000, DueDate: time.Date(2023, time.April, 15, 0, 0, 0, 0, time.UTC), Status: domain.FeeDue},
		{ID: "fee-2", Title: "Exam Fee", Amount: 12500, DueDate: time.Date(2023, time.May, 10, 0, 0, 0, 0, time.UTC), Status: domain.FeeUpcoming},
		{ID: "fee-3", Title: "Lab Fee", Amount: 7500, DueDate: time.Date(2023, time.May, 25, 0, 0, 0, 0, time.UTC), Status: domain.FeeUpcoming},
	}
}

// RecentPaymentsSeed is the demo payment history shown before any live payment.
func RecentPaymentsSeed() []domain.RecentTransaction {
	return []domain.RecentTransaction{
		{ID: "pay-1", Title: "Term 2 Tuition Fee", Amount: 35000, Date: time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC), Method: "UPI (Google Pay)", Status: "completed", Receipt: "TXN-123456-789012"},
		{ID: "pay-2", Title: "Library Fee", Amount: 5000, Date: time.Date(2022, time.December, 15, 0, 0, 0, 0, time.UTC), Method: "Credit Card", Status: "completed", Receipt: "TXN-234567-890123"},
		{ID: "pay-3", Title: "Sports Fee", Amount: 8000, Date: time.Date(2022, time.December, 5, 0, 0, 0, 0, time.UTC), Method: "Net Banking", Status: "completed", Receipt: "TXN-345678-901234"},
	}
}
