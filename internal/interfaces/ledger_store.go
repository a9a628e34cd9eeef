package interfaces

import (
	"context"

	"github.com/Oliverkirui/saco/internal/models"
)

// LedgerStore is the persistence contract shared by every storage backend.
//
// Commit is the single atomic unit of the ledger: the member mutation and the
// transaction append succeed or fail together, and on failure no partial
// state is visible. All other methods are plain reads apart from
// CreateMember, which enforces national-ID uniqueness before insert.
type LedgerStore interface {
	CreateMember(ctx context.Context, member models.Member) (models.Member, error)
	GetMember(ctx context.Context, id int64) (models.Member, error)
	ListMembers(ctx context.Context) ([]models.Member, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	TransactionsByMember(ctx context.Context, memberID int64) ([]models.Transaction, error)
	Commit(ctx context.Context, memberID int64, change models.MemberChange, txn models.Transaction) (models.Member, error)
}
