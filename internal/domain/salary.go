package domain

import "time"

// Staff is a salaried member of the institution.
type Staff struct {
	ID          string    `json:"id"`
	Number      int       `json:"staffNumber"`
	Name        string    `json:"name"`
	Designation string    `json:"designation"`
	Department  string    `json:"department"`
	JoiningDate time.Time `json:"joiningDate"`
	Email       string    `json:"email"`
}

// Earnings are the positive components of a salary.
type Earnings struct {
	Basic int64 `json:"basic"`
	HRA   int64 `json:"hra"`
	DA    int64 `json:"da"`
	TA    int64 `json:"ta"`
}

// Deductions are subtracted from gross salary.
type Deductions struct {
	PF              int64 `json:"pf"`
	ProfessionalTax int64 `json:"professionalTax"`
	TDS             int64 `json:"tds"`
}

// SalarySlip is an immutable, computed pay document for one staff member and month.
type SalarySlip struct {
	ID              string     `json:"id"`
	Staff           Staff      `json:"staffDetails"`
	Month           time.Month `json:"salaryMonth"`
	Year            int        `json:"salaryYear"`
	Earnings        Earnings   `json:"earnings"`
	Deductions      Deductions `json:"deductions"`
	Gross           int64      `json:"grossSalary"`
	TotalDeductions int64      `json:"totalDeductions"`
	Net             int64      `json:"netSalary"`
	NetInWords      string     `json:"netSalaryInWords"`
	PaymentDate     time.Time  `json:"paymentDate"`
	GeneratedAt     time.Time  `json:"slipGeneratedOn"`
}
