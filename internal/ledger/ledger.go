package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Oliverkirui/saco/internal/interfaces"
	"github.com/Oliverkirui/saco/internal/models"
	"github.com/Oliverkirui/saco/internal/models/events"
)

// TopicTransactionRecorded is the event topic written after every committed
// financial operation.
const TopicTransactionRecorded = "transaction.recorded"

// Loan policy. These are fixed rules of the cooperative, not configuration.
var (
	// minLoanShares is the share balance a member must hold before any loan.
	minLoanShares = decimal.NewFromInt(5000)

	// eligibilityRatio caps a loan at this fraction of the member's shares,
	// read at application time and never re-checked afterwards.
	eligibilityRatio = decimal.RequireFromString("0.60")

	// overdueInterestRate is added to the outstanding balance once per loan
	// lifetime when a payment arrives after the due date.
	overdueInterestRate = decimal.RequireFromString("0.05")
)

// loanTermMonths is how far the due date sits after the taken date.
const loanTermMonths = 3

// Ledger enforces the cooperative's business rules and performs every
// balance mutation paired with a transaction append as one atomic store
// commit.
//
// All mutating methods assume the caller has already passed the
// administrator gate; the engine itself performs no authentication.
type Ledger struct {
	store     interfaces.LedgerStore
	publisher interfaces.EventPublisher
	log       *slog.Logger

	now func() time.Time

	muMap map[int64]*sync.Mutex // one lock per member, so same-member operations serialize
	mapMu sync.Mutex            // protects muMap itself
}

// NewLedger wires the engine to a storage backend and an optional event
// publisher. A nil publisher disables events; a nil logger falls back to
// slog.Default.
func NewLedger(store interfaces.LedgerStore, publisher interfaces.EventPublisher, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		store:     store,
		publisher: publisher,
		log:       log,
		now:       time.Now,
		muMap:     make(map[int64]*sync.Mutex),
	}
}

func (l *Ledger) memberLock(memberID int64) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[memberID]; !exists {
		l.muMap[memberID] = &sync.Mutex{}
	}
	return l.muMap[memberID]
}

// RegisterMember creates a member with zero balances. Identity fields are
// expected to be trimmed and format-checked by the caller; the engine only
// enforces national-ID uniqueness.
func (l *Ledger) RegisterMember(ctx context.Context, member models.Member) (models.Member, error) {
	member.ID = 0
	member.Shares = decimal.Zero
	member.LoanAmount = decimal.Zero
	member.LoanTakenDate = nil
	member.LoanDueDate = nil
	member.InterestApplied = false

	created, err := l.store.CreateMember(ctx, member)
	if err != nil {
		return models.Member{}, err
	}
	l.log.Info("member registered", "member_id", created.ID, "id_number", created.IDNumber)
	return created, nil
}

// DepositShares adds amount to the member's shares and records a
// shares_deposit transaction.
func (l *Ledger) DepositShares(ctx context.Context, memberID int64, amount decimal.Decimal) (models.Member, error) {
	if !amount.IsPositive() {
		return models.Member{}, ErrInvalidAmount
	}

	mu := l.memberLock(memberID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := l.store.GetMember(ctx, memberID); err != nil {
		return models.Member{}, err
	}

	txn := l.newTransaction(memberID, models.SharesDeposit, amount,
		fmt.Sprintf("Shares deposit of Ksh %s", amount.StringFixed(2)))

	updated, err := l.store.Commit(ctx, memberID, models.MemberChange{SharesDelta: amount}, txn)
	if err != nil {
		return models.Member{}, err
	}

	l.publishRecorded(txn)
	return updated, nil
}

// ApplyLoan issues a loan to the member, due in three months. Checks run in
// a fixed order: amount positive, no loan outstanding, minimum shares held,
// amount within the share-based limit. The first failing check decides the
// returned error.
func (l *Ledger) ApplyLoan(ctx context.Context, memberID int64, amount decimal.Decimal) (models.Member, error) {
	if !amount.IsPositive() {
		return models.Member{}, ErrInvalidAmount
	}

	mu := l.memberLock(memberID)
	mu.Lock()
	defer mu.Unlock()

	member, err := l.store.GetMember(ctx, memberID)
	if err != nil {
		return models.Member{}, err
	}

	if member.HasLoan() {
		return models.Member{}, ErrLoanAlreadyOutstanding
	}
	if member.Shares.LessThan(minLoanShares) {
		return models.Member{}, ErrInsufficientShares
	}
	if amount.GreaterThan(member.Shares.Mul(eligibilityRatio)) {
		return models.Member{}, ErrExceedsEligibility
	}

	taken := dateOnly(l.now())
	due := taken.AddDate(0, loanTermMonths, 0)

	txn := l.newTransaction(memberID, models.LoanApplication, amount,
		fmt.Sprintf("Loan application of Ksh %s", amount.StringFixed(2)))

	change := models.MemberChange{Loan: models.SetLoan(amount, &taken, &due, false)}
	updated, err := l.store.Commit(ctx, memberID, change, txn)
	if err != nil {
		return models.Member{}, err
	}

	l.publishRecorded(txn)
	return updated, nil
}

// PayLoan pays amount towards the member's outstanding loan. When the loan
// is overdue and interest has not yet been charged, a one-time 5% accrual is
// added to the balance before the payment is validated against it; the
// accrual is persisted only together with a successful payment, so a
// rejected payment leaves the member untouched. Paying the balance down to
// exactly zero clears the loan; overpayment is rejected.
func (l *Ledger) PayLoan(ctx context.Context, memberID int64, amount decimal.Decimal) (models.Member, error) {
	if !amount.IsPositive() {
		return models.Member{}, ErrInvalidAmount
	}

	mu := l.memberLock(memberID)
	mu.Lock()
	defer mu.Unlock()

	member, err := l.store.GetMember(ctx, memberID)
	if err != nil {
		return models.Member{}, err
	}
	if !member.HasLoan() {
		return models.Member{}, ErrNoOutstandingLoan
	}

	balance := member.LoanAmount
	interest := decimal.Zero
	accrued := false
	if member.LoanDueDate != nil && !member.InterestApplied &&
		dateOnly(l.now()).After(dateOnly(*member.LoanDueDate)) {
		interest = balance.Mul(overdueInterestRate)
		balance = balance.Add(interest)
		accrued = true
	}

	if amount.GreaterThan(balance) {
		return models.Member{}, ErrPaymentExceedsBalance
	}

	newBalance := balance.Sub(amount)

	// A partial payment keeps the dates exactly as stored, including absent
	// dates on rows imported from the old system.
	var loan *models.LoanUpdate
	if newBalance.Sign() <= 0 {
		loan = models.ClearLoan()
	} else {
		loan = models.SetLoan(newBalance, member.LoanTakenDate, member.LoanDueDate,
			accrued || member.InterestApplied)
	}

	notes := fmt.Sprintf("Loan payment of Ksh %s", amount.StringFixed(2))
	if accrued {
		notes += fmt.Sprintf(" (includes Ksh %s interest)", interest.StringFixed(2))
	}
	txn := l.newTransaction(memberID, models.LoanPayment, amount, notes)

	updated, err := l.store.Commit(ctx, memberID, models.MemberChange{Loan: loan}, txn)
	if err != nil {
		return models.Member{}, err
	}

	l.publishRecorded(txn)
	return updated, nil
}

// Member returns the member's current state.
func (l *Ledger) Member(ctx context.Context, memberID int64) (models.Member, error) {
	return l.store.GetMember(ctx, memberID)
}

func (l *Ledger) newTransaction(memberID int64, typ models.TransactionType, amount decimal.Decimal, notes string) models.Transaction {
	return models.Transaction{
		ID:        uuid.New().String(),
		MemberID:  memberID,
		Type:      typ,
		Amount:    amount,
		Notes:     notes,
		CreatedAt: l.now(),
	}
}

// publishRecorded emits the post-commit event. Publishing is best effort:
// the financial operation has already committed, so a broker failure is
// logged and swallowed.
func (l *Ledger) publishRecorded(txn models.Transaction) {
	if l.publisher == nil {
		return
	}
	ev := events.TransactionRecorded{
		TransactionID: txn.ID,
		MemberID:      txn.MemberID,
		Type:          string(txn.Type),
		Amount:        txn.Amount,
		Notes:         txn.Notes,
		OccurredAt:    txn.CreatedAt,
	}
	if err := l.publisher.Publish(TopicTransactionRecorded, ev); err != nil {
		l.log.Warn("failed to publish transaction event",
			"transaction_id", txn.ID, "member_id", txn.MemberID, "error", err)
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
