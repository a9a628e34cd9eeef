// Package ledger implements the financial core of the cooperative: share
// deposits, loan issuance with eligibility rules, one-time overdue interest
// accrual, and loan repayment. Every mutation pairs a member balance change
// with an append to the transaction log inside one atomic store commit.
package ledger

import "errors"

// Domain errors. All but ErrStorageUnavailable are expected business
// outcomes returned to the caller; none of them leaves partial state behind.
var (
	// ErrInvalidAmount rejects zero or negative amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrMemberNotFound means the member id does not resolve.
	ErrMemberNotFound = errors.New("member not found")

	// ErrDuplicateIDNumber means another member already holds the national
	// ID number being registered.
	ErrDuplicateIDNumber = errors.New("a member with this ID number already exists")

	// ErrLoanAlreadyOutstanding rejects a loan application while a previous
	// loan is still unpaid. At most one active loan per member.
	ErrLoanAlreadyOutstanding = errors.New("member already has an outstanding loan")

	// ErrInsufficientShares rejects a loan application below the minimum
	// share threshold.
	ErrInsufficientShares = errors.New("member does not hold the minimum shares required for a loan")

	// ErrExceedsEligibility rejects a loan above the member's share-based
	// borrowing limit.
	ErrExceedsEligibility = errors.New("loan amount exceeds eligibility")

	// ErrNoOutstandingLoan rejects a payment when the member has no loan.
	ErrNoOutstandingLoan = errors.New("member has no outstanding loan")

	// ErrPaymentExceedsBalance rejects a payment larger than the accrued
	// outstanding balance.
	ErrPaymentExceedsBalance = errors.New("payment exceeds the outstanding loan balance")

	// ErrStorageUnavailable wraps persistence failures. The failed operation
	// has been rolled back in full; retry policy belongs to the caller.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
