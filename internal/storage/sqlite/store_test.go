package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Oliverkirui/saco/internal/ledger"
	"github.com/Oliverkirui/saco/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createMember(t *testing.T, s *Store, name, idNumber string) models.Member {
	t.Helper()
	m, err := s.CreateMember(context.Background(), models.Member{
		FullName: name, IDNumber: idNumber, PhoneNumber: "+254700000000",
	})
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	return m
}

func txnFor(memberID int64, amount int64) models.Transaction {
	return models.Transaction{
		ID:        uuid.New().String(),
		MemberID:  memberID,
		Type:      models.SharesDeposit,
		Amount:    decimal.NewFromInt(amount),
		Notes:     "deposit",
		CreatedAt: time.Now().UTC(),
	}
}

func TestCreateAndGetMember(t *testing.T) {
	s := openTestStore(t)
	m := createMember(t, s, "Alice Mwangi", "100")

	got, err := s.GetMember(context.Background(), m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.FullName != "Alice Mwangi" || !got.Shares.IsZero() || got.HasLoan() {
		t.Fatalf("unexpected member: %+v", got)
	}
	if got.LoanTakenDate != nil || got.LoanDueDate != nil {
		t.Fatalf("new member must have no loan dates: %+v", got)
	}
}

func TestCreateMemberDuplicateIDNumber(t *testing.T) {
	s := openTestStore(t)
	createMember(t, s, "A", "100")

	_, err := s.CreateMember(context.Background(), models.Member{FullName: "B", IDNumber: "100"})
	if !errors.Is(err, ledger.ErrDuplicateIDNumber) {
		t.Fatalf("want ErrDuplicateIDNumber, got %v", err)
	}
}

func TestGetMemberNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetMember(context.Background(), 42)
	if !errors.Is(err, ledger.ErrMemberNotFound) {
		t.Fatalf("want ErrMemberNotFound, got %v", err)
	}
}

func TestCommitSharesAndTransactionTogether(t *testing.T) {
	s := openTestStore(t)
	m := createMember(t, s, "A", "100")
	ctx := context.Background()

	got, err := s.Commit(ctx, m.ID, models.MemberChange{SharesDelta: decimal.NewFromInt(1500)}, txnFor(m.ID, 1500))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Shares.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("shares=%s want 1500", got.Shares)
	}

	txns, err := s.TransactionsByMember(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(txns) != 1 {
		t.Fatalf("want 1 transaction, got %d", len(txns))
	}
	if txns[0].Type != models.SharesDeposit || !txns[0].Amount.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unexpected transaction: %+v", txns[0])
	}
}

func TestCommitLoanSetAndClearRoundTrip(t *testing.T) {
	s := openTestStore(t)
	m := createMember(t, s, "A", "100")
	ctx := context.Background()

	taken := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	due := taken.AddDate(0, 3, 0)

	got, err := s.Commit(ctx, m.ID,
		models.MemberChange{Loan: models.SetLoan(decimal.NewFromInt(3000), &taken, &due, true)},
		txnFor(m.ID, 3000))
	if err != nil {
		t.Fatal(err)
	}
	if !got.LoanAmount.Equal(decimal.NewFromInt(3000)) || !got.InterestApplied {
		t.Fatalf("loan not stored: %+v", got)
	}
	if got.LoanTakenDate == nil || !got.LoanTakenDate.Equal(taken) {
		t.Fatalf("taken date round trip failed: %v", got.LoanTakenDate)
	}
	if got.LoanDueDate == nil || !got.LoanDueDate.Equal(due) {
		t.Fatalf("due date round trip failed: %v", got.LoanDueDate)
	}

	got, err = s.Commit(ctx, m.ID, models.MemberChange{Loan: models.ClearLoan()}, txnFor(m.ID, 3000))
	if err != nil {
		t.Fatal(err)
	}
	if got.HasLoan() || got.LoanTakenDate != nil || got.LoanDueDate != nil || got.InterestApplied {
		t.Fatalf("clear variant left residue: %+v", got)
	}
}

func TestCommitLoanWithAbsentDates(t *testing.T) {
	s := openTestStore(t)
	m := createMember(t, s, "A", "100")
	ctx := context.Background()

	// Legacy rows can hold an active loan without dates; an update carrying
	// absent dates must write NULLs, not zero values.
	got, err := s.Commit(ctx, m.ID,
		models.MemberChange{Loan: models.SetLoan(decimal.NewFromInt(1000), nil, nil, false)},
		txnFor(m.ID, 1000))
	if err != nil {
		t.Fatal(err)
	}
	if !got.LoanAmount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("loan=%s want 1000", got.LoanAmount)
	}
	if got.LoanTakenDate != nil || got.LoanDueDate != nil {
		t.Fatalf("absent dates must stay absent: %+v", got)
	}
}

func TestCommitUnknownMemberRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Commit(ctx, 42, models.MemberChange{SharesDelta: decimal.NewFromInt(10)}, txnFor(42, 10))
	if !errors.Is(err, ledger.ErrMemberNotFound) {
		t.Fatalf("want ErrMemberNotFound, got %v", err)
	}

	txns, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(txns) != 0 {
		t.Fatalf("failed commit must not append, got %d transactions", len(txns))
	}
}

func TestListMembersOrderedByFullName(t *testing.T) {
	s := openTestStore(t)
	createMember(t, s, "Charles Otieno", "300")
	createMember(t, s, "Alice Mwangi", "100")

	members, err := s.ListMembers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 || members[0].FullName != "Alice Mwangi" {
		t.Fatalf("unexpected ordering: %+v", members)
	}
}

func TestLegacyDateSentinelsNormalizeToAbsent(t *testing.T) {
	s := openTestStore(t)
	m := createMember(t, s, "A", "100")

	// Rows imported from the old system carry 0000-00-00 in the date
	// columns instead of NULL.
	_, err := s.db.Exec(
		`UPDATE members SET loan_taken_date = '0000-00-00', loan_due_date = '' WHERE id = ?`, m.ID)
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.GetMember(context.Background(), m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.LoanTakenDate != nil || got.LoanDueDate != nil {
		t.Fatalf("sentinel dates must read back as absent: %+v", got)
	}
}
