// Package memory is an in-memory LedgerStore used by tests and by the
// server when no database is configured. It is safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Oliverkirui/saco/internal/interfaces"
	"github.com/Oliverkirui/saco/internal/ledger"
	"github.com/Oliverkirui/saco/internal/models"
)

// Store keeps members and the transaction log in maps and slices guarded by
// a single mutex. Commit applies the member change and the log append inside
// one critical section, so callers observe either both writes or neither.
type Store struct {
	mu           sync.Mutex
	nextID       int64
	members      map[int64]*models.Member
	idNumbers    map[string]int64 // national ID -> member id
	transactions []models.Transaction

	commitErr error // injected fault for rollback tests
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		members:   make(map[int64]*models.Member),
		idNumbers: make(map[string]int64),
	}
}

func (s *Store) CreateMember(ctx context.Context, member models.Member) (models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.idNumbers[member.IDNumber]; exists {
		return models.Member{}, ledger.ErrDuplicateIDNumber
	}

	s.nextID++
	member.ID = s.nextID
	s.members[member.ID] = cloneMember(member)
	s.idNumbers[member.IDNumber] = member.ID
	return member, nil
}

func (s *Store) GetMember(ctx context.Context, id int64) (models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return models.Member{}, ledger.ErrMemberNotFound
	}
	return *cloneMember(*m), nil
}

func (s *Store) ListMembers(ctx context.Context) ([]models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, *cloneMember(*m))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out, nil
}

func (s *Store) TransactionsByMember(ctx context.Context, memberID int64) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Transaction
	for _, t := range s.transactions {
		if t.MemberID == memberID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Commit applies the member change and appends the transaction atomically.
// When a fault has been injected it fires after the member change has been
// computed but before anything is stored, so the member stays untouched.
func (s *Store) Commit(ctx context.Context, memberID int64, change models.MemberChange, txn models.Transaction) (models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.members[memberID]
	if !ok {
		return models.Member{}, ledger.ErrMemberNotFound
	}

	updated := cloneMember(*current)
	updated.Shares = updated.Shares.Add(change.SharesDelta)
	if change.Loan != nil {
		applyLoanUpdate(updated, *change.Loan)
	}

	if s.commitErr != nil {
		err := s.commitErr
		s.commitErr = nil
		return models.Member{}, err
	}

	s.members[memberID] = updated
	s.transactions = append(s.transactions, txn)
	return *cloneMember(*updated), nil
}

func applyLoanUpdate(m *models.Member, loan models.LoanUpdate) {
	if loan.Clear {
		m.LoanAmount = decimal.Zero
		m.LoanTakenDate = nil
		m.LoanDueDate = nil
		m.InterestApplied = false
		return
	}
	m.LoanAmount = loan.Amount
	m.LoanTakenDate = cloneDate(loan.TakenDate)
	m.LoanDueDate = cloneDate(loan.DueDate)
	m.InterestApplied = loan.InterestApplied
}

func cloneDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

// cloneMember duplicates the member including its date pointers, so callers
// never alias internal state.
func cloneMember(m models.Member) *models.Member {
	cp := m
	cp.LoanTakenDate = cloneDate(m.LoanTakenDate)
	cp.LoanDueDate = cloneDate(m.LoanDueDate)
	return &cp
}

var _ interfaces.LedgerStore = (*Store)(nil)
