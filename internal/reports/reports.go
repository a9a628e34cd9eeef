// Package reports provides the read-only projections consumed by the
// presentation layer. It never mutates ledger state.
package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Oliverkirui/saco/internal/interfaces"
	"github.com/Oliverkirui/saco/internal/models"
)

// OutstandingLoan is one row of the active-loans report.
type OutstandingLoan struct {
	MemberID        int64           `json:"member_id"`
	FullName        string          `json:"full_name"`
	Amount          decimal.Decimal `json:"amount"`
	TakenDate       time.Time       `json:"taken_date"`
	DueDate         time.Time       `json:"due_date"`
	InterestApplied bool            `json:"interest_applied"`
	Overdue         bool            `json:"overdue"`
}

// Statement is a member's current state with their full transaction history.
type Statement struct {
	Member       models.Member        `json:"member"`
	Transactions []models.Transaction `json:"transactions"`
}

// Facade reads projections straight from the store.
type Facade struct {
	store interfaces.LedgerStore
	now   func() time.Time
}

func New(store interfaces.LedgerStore) *Facade {
	return &Facade{store: store, now: time.Now}
}

// Members lists every member sorted by full name ascending.
func (f *Facade) Members(ctx context.Context) ([]models.Member, error) {
	return f.store.ListMembers(ctx)
}

// OutstandingLoans lists members with an active loan, flagging loans whose
// due date has passed.
func (f *Facade) OutstandingLoans(ctx context.Context) ([]OutstandingLoan, error) {
	members, err := f.store.ListMembers(ctx)
	if err != nil {
		return nil, err
	}

	today := dateOnly(f.now())
	var loans []OutstandingLoan
	for _, m := range members {
		if !m.HasLoan() || m.LoanTakenDate == nil || m.LoanDueDate == nil {
			continue
		}
		loans = append(loans, OutstandingLoan{
			MemberID:        m.ID,
			FullName:        m.FullName,
			Amount:          m.LoanAmount,
			TakenDate:       *m.LoanTakenDate,
			DueDate:         *m.LoanDueDate,
			InterestApplied: m.InterestApplied,
			Overdue:         today.After(dateOnly(*m.LoanDueDate)),
		})
	}
	return loans, nil
}

// MemberStatement returns a member together with their transaction history,
// oldest first.
func (f *Facade) MemberStatement(ctx context.Context, memberID int64) (Statement, error) {
	member, err := f.store.GetMember(ctx, memberID)
	if err != nil {
		return Statement{}, err
	}
	txns, err := f.store.TransactionsByMember(ctx, memberID)
	if err != nil {
		return Statement{}, err
	}
	return Statement{Member: member, Transactions: txns}, nil
}

// Transactions lists the full audit trail, oldest first.
func (f *Facade) Transactions(ctx context.Context) ([]models.Transaction, error) {
	return f.store.ListTransactions(ctx)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
