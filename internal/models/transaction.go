package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger transaction.
type TransactionType string

const (
	SharesDeposit   TransactionType = "shares_deposit"
	LoanApplication TransactionType = "loan_application"
	LoanPayment     TransactionType = "loan_payment"
)

// Transaction is one immutable entry in the append-only audit trail. It is
// written exactly once per successful financial operation and never updated
// or deleted; corrections are modeled as new transactions.
type Transaction struct {
	ID        string          `json:"id"`
	MemberID  int64           `json:"member_id"`
	Type      TransactionType `json:"transaction_type"`
	Amount    decimal.Decimal `json:"amount"`
	Notes     string          `json:"notes"`
	CreatedAt time.Time       `json:"created_at"`
}
