package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Member is a registered cooperative member together with their running
// balances. Shares only ever grow (deposits have no decrement counterpart);
// the loan fields move together: a zero LoanAmount means no active loan, and
// then both dates are nil and InterestApplied is false.
type Member struct {
	ID                int64           `json:"id"`
	FullName          string          `json:"full_name"`
	IDNumber          string          `json:"id_number"`
	PhoneNumber       string          `json:"phone_number"`
	NextOfKinFullName string          `json:"next_of_kin_full_name"`
	NextOfKinIDNumber string          `json:"next_of_kin_id_number"`
	Shares            decimal.Decimal `json:"shares"`
	LoanAmount        decimal.Decimal `json:"loan_amount"`
	LoanTakenDate     *time.Time      `json:"loan_taken_date,omitempty"`
	LoanDueDate       *time.Time      `json:"loan_due_date,omitempty"`
	InterestApplied   bool            `json:"interest_applied"`
}

// HasLoan reports whether the member currently has an outstanding loan.
func (m Member) HasLoan() bool {
	return m.LoanAmount.IsPositive()
}
