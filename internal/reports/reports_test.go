package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Oliverkirui/saco/internal/models"
	"github.com/Oliverkirui/saco/internal/storage/memory"
)

var today = time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

func newFacade(t *testing.T) (*Facade, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	f := New(store)
	f.now = func() time.Time { return today }
	return f, store
}

func addMember(t *testing.T, store *memory.Store, name, idNumber string) models.Member {
	t.Helper()
	m, err := store.CreateMember(context.Background(), models.Member{
		FullName: name, IDNumber: idNumber, PhoneNumber: "+254700000000",
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func giveLoan(t *testing.T, store *memory.Store, memberID int64, amount int64, due time.Time) {
	t.Helper()
	taken := due.AddDate(0, -3, 0)
	_, err := store.Commit(context.Background(), memberID,
		models.MemberChange{Loan: models.SetLoan(decimal.NewFromInt(amount), &taken, &due, false)},
		models.Transaction{
			ID:        uuid.New().String(),
			MemberID:  memberID,
			Type:      models.LoanApplication,
			Amount:    decimal.NewFromInt(amount),
			Notes:     "test loan",
			CreatedAt: taken,
		})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMembersSortedByFullName(t *testing.T) {
	f, store := newFacade(t)
	addMember(t, store, "Zawadi Njeri", "300")
	addMember(t, store, "Amos Kiptoo", "100")

	members, err := f.Members(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 || members[0].FullName != "Amos Kiptoo" {
		t.Fatalf("unexpected ordering: %+v", members)
	}
}

func TestOutstandingLoansSkipsMembersWithoutLoans(t *testing.T) {
	f, store := newFacade(t)
	addMember(t, store, "No Loan", "100")
	b := addMember(t, store, "With Loan", "200")
	giveLoan(t, store, b.ID, 2000, today.AddDate(0, 1, 0))

	loans, err := f.OutstandingLoans(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(loans) != 1 || loans[0].MemberID != b.ID {
		t.Fatalf("want only the borrowing member, got %+v", loans)
	}
	if !loans[0].Amount.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("amount=%s want 2000", loans[0].Amount)
	}
}

func TestOutstandingLoansFlagsOverdue(t *testing.T) {
	f, store := newFacade(t)
	a := addMember(t, store, "Current", "100")
	b := addMember(t, store, "Late", "200")
	c := addMember(t, store, "Due Today", "300")
	giveLoan(t, store, a.ID, 1000, today.AddDate(0, 1, 0))
	giveLoan(t, store, b.ID, 1000, today.AddDate(0, -1, 0))
	giveLoan(t, store, c.ID, 1000, today)

	loans, err := f.OutstandingLoans(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	overdue := map[int64]bool{}
	for _, loan := range loans {
		overdue[loan.MemberID] = loan.Overdue
	}
	if overdue[a.ID] {
		t.Fatal("future due date flagged overdue")
	}
	if !overdue[b.ID] {
		t.Fatal("past due date not flagged overdue")
	}
	if overdue[c.ID] {
		t.Fatal("a loan due today is not yet overdue")
	}
}

func TestMemberStatement(t *testing.T) {
	f, store := newFacade(t)
	m := addMember(t, store, "Member", "100")
	other := addMember(t, store, "Other", "200")

	for i, id := range []int64{m.ID, other.ID, m.ID} {
		_, err := store.Commit(context.Background(), id,
			models.MemberChange{SharesDelta: decimal.NewFromInt(int64(100 * (i + 1)))},
			models.Transaction{
				ID:        uuid.New().String(),
				MemberID:  id,
				Type:      models.SharesDeposit,
				Amount:    decimal.NewFromInt(int64(100 * (i + 1))),
				Notes:     "deposit",
				CreatedAt: today,
			})
		if err != nil {
			t.Fatal(err)
		}
	}

	statement, err := f.MemberStatement(context.Background(), m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if statement.Member.ID != m.ID {
		t.Fatalf("statement for wrong member: %+v", statement.Member)
	}
	if len(statement.Transactions) != 2 {
		t.Fatalf("want 2 transactions for the member, got %d", len(statement.Transactions))
	}
	for _, txn := range statement.Transactions {
		if txn.MemberID != m.ID {
			t.Fatalf("statement leaked another member's transaction: %+v", txn)
		}
	}
}
