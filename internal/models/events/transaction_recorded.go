package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecorded is published after a financial operation has committed.
type TransactionRecorded struct {
	TransactionID string          `json:"transaction_id"`
	MemberID      int64           `json:"member_id"`
	Type          string          `json:"transaction_type"`
	Amount        decimal.Decimal `json:"amount"`
	Notes         string          `json:"notes"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
