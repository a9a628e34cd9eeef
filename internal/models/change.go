package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanUpdate describes a change to a member's loan fields as a tagged
// variant: either the loan is cleared (all fields reset together) or it is
// set to a concrete amount with its dates and interest flag. This keeps the
// nullable date columns from being juggled field by field. The dates are
// pointers because rows imported from the old system may hold an active
// loan with no recorded dates; updates carry that absence through unchanged.
type LoanUpdate struct {
	Clear           bool
	Amount          decimal.Decimal
	TakenDate       *time.Time
	DueDate         *time.Time
	InterestApplied bool
}

// SetLoan builds the variant that stores an active loan. Nil dates are
// stored as absent.
func SetLoan(amount decimal.Decimal, taken, due *time.Time, interestApplied bool) *LoanUpdate {
	return &LoanUpdate{Amount: amount, TakenDate: taken, DueDate: due, InterestApplied: interestApplied}
}

// ClearLoan builds the variant that resets every loan field at once.
func ClearLoan() *LoanUpdate {
	return &LoanUpdate{Clear: true}
}

// MemberChange is the balance mutation half of an atomic ledger commit.
// SharesDelta is added to the member's shares; a nil Loan leaves the loan
// fields untouched.
type MemberChange struct {
	SharesDelta decimal.Decimal
	Loan        *LoanUpdate
}
