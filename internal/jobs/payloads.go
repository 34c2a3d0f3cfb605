package jobs

import "github.com/dvloznov/edufin/internal/domain"

// PaymentPayload is carried by record_payment and notify_payment jobs.
type PaymentPayload struct {
	Result      domain.PaymentResult `json:"result"`
	Receipt     domain.Receipt       `json:"receipt"`
	StudentName string               `json:"student_name,omitempty"`
}

// SlipPayload is carried by archive_slip jobs.
type SlipPayload struct {
	Slip domain.SalarySlip `json:"slip"`
}
