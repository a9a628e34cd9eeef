// Package sqlite persists the ledger in a single SQLite file, which suits
// the single-branch deployments the cooperative actually runs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Oliverkirui/saco/internal/interfaces"
	"github.com/Oliverkirui/saco/internal/ledger"
	"github.com/Oliverkirui/saco/internal/models"
)

// Schema creates the ledger tables. Date columns are TEXT in YYYY-MM-DD
// form; data imported from the old system may carry 0000-00-00 sentinels,
// which scan back as absent.
const Schema = `
CREATE TABLE IF NOT EXISTS members (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	full_name TEXT NOT NULL,
	id_number TEXT NOT NULL UNIQUE,
	phone_number TEXT NOT NULL,
	next_of_kin_full_name TEXT NOT NULL,
	next_of_kin_id_number TEXT NOT NULL,
	shares TEXT NOT NULL DEFAULT '0',
	loan_amount TEXT NOT NULL DEFAULT '0',
	loan_taken_date TEXT,
	loan_due_date TEXT,
	five_percent_interest_applied INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	member_id INTEGER NOT NULL REFERENCES members(id),
	transaction_type TEXT NOT NULL,
	amount TEXT NOT NULL,
	notes TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

const dateLayout = "2006-01-02"

const memberColumns = `id, full_name, id_number, phone_number,
	next_of_kin_full_name, next_of_kin_id_number,
	shares, loan_amount, loan_taken_date, loan_due_date,
	five_percent_interest_applied`

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database file and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, storageErr(err)
	}
	s := &Store{db: db}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, storageErr(err)
	}
	return s, nil
}

// NewStore wraps an already opened database; the schema is assumed present.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateMember(ctx context.Context, member models.Member) (models.Member, error) {
	const check = `SELECT 1 FROM members WHERE id_number = ? LIMIT 1`

	var one int
	err := s.db.QueryRowContext(ctx, check, member.IDNumber).Scan(&one)
	if err == nil {
		return models.Member{}, ledger.ErrDuplicateIDNumber
	}
	if err != sql.ErrNoRows {
		return models.Member{}, storageErr(err)
	}

	const insert = `INSERT INTO members
		(full_name, id_number, phone_number, next_of_kin_full_name, next_of_kin_id_number, shares, loan_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, insert,
		member.FullName, member.IDNumber, member.PhoneNumber,
		member.NextOfKinFullName, member.NextOfKinIDNumber,
		member.Shares.String(), member.LoanAmount.String())
	if err != nil {
		return models.Member{}, storageErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Member{}, storageErr(err)
	}
	member.ID = id
	return member, nil
}

func (s *Store) GetMember(ctx context.Context, id int64) (models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = ?`
	return scanMember(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) ListMembers(ctx context.Context) ([]models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members ORDER BY full_name ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return members, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	const query = `SELECT id, member_id, transaction_type, amount, notes, created_at
		FROM transactions ORDER BY created_at ASC, id ASC`
	return s.queryTransactions(ctx, query)
}

func (s *Store) TransactionsByMember(ctx context.Context, memberID int64) ([]models.Transaction, error) {
	const query = `SELECT id, member_id, transaction_type, amount, notes, created_at
		FROM transactions WHERE member_id = ? ORDER BY created_at ASC, id ASC`
	return s.queryTransactions(ctx, query, memberID)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.MemberID, &t.Type, &t.Amount, &t.Notes, &t.CreatedAt); err != nil {
			return nil, storageErr(err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return txns, nil
}

// Commit mirrors the Postgres store: member mutation and transaction append
// inside one BEGIN/COMMIT, rolled back on any failure.
func (s *Store) Commit(ctx context.Context, memberID int64, change models.MemberChange, txn models.Transaction) (models.Member, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Member{}, storageErr(err)
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	var current models.Member
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = ?`
	current, err = scanMember(dbTx.QueryRowContext(ctx, query, memberID))
	if err != nil {
		return models.Member{}, err
	}

	shares := current.Shares.Add(change.SharesDelta)
	_, err = dbTx.ExecContext(ctx, `UPDATE members SET shares = ? WHERE id = ?`,
		shares.String(), memberID)
	if err != nil {
		return models.Member{}, storageErr(err)
	}

	if change.Loan != nil {
		amount, taken, due, applied := loanBindings(*change.Loan)
		_, err = dbTx.ExecContext(ctx,
			`UPDATE members SET loan_amount = ?, loan_taken_date = ?, loan_due_date = ?,
				five_percent_interest_applied = ? WHERE id = ?`,
			amount, taken, due, applied, memberID)
		if err != nil {
			return models.Member{}, storageErr(err)
		}
	}

	_, err = dbTx.ExecContext(ctx,
		`INSERT INTO transactions (id, member_id, transaction_type, amount, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.MemberID, txn.Type, txn.Amount.String(), txn.Notes, txn.CreatedAt)
	if err != nil {
		return models.Member{}, storageErr(err)
	}

	var member models.Member
	member, err = scanMember(dbTx.QueryRowContext(ctx, query, memberID))
	if err != nil {
		return models.Member{}, err
	}

	if err = dbTx.Commit(); err != nil {
		return models.Member{}, storageErr(err)
	}
	return member, nil
}

func loanBindings(loan models.LoanUpdate) (amount string, taken, due sql.NullString, applied bool) {
	if loan.Clear {
		return "0", sql.NullString{}, sql.NullString{}, false
	}
	return loan.Amount.String(), nullDate(loan.TakenDate), nullDate(loan.DueDate), loan.InterestApplied
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (models.Member, error) {
	var m models.Member
	var taken, due sql.NullString
	err := row.Scan(
		&m.ID, &m.FullName, &m.IDNumber, &m.PhoneNumber,
		&m.NextOfKinFullName, &m.NextOfKinIDNumber,
		&m.Shares, &m.LoanAmount, &taken, &due, &m.InterestApplied,
	)
	if err == sql.ErrNoRows {
		return models.Member{}, ledger.ErrMemberNotFound
	}
	if err != nil {
		return models.Member{}, storageErr(err)
	}
	m.LoanTakenDate = parseDate(taken)
	m.LoanDueDate = parseDate(due)
	return m, nil
}

// parseDate normalizes nulls and legacy sentinel values to absent.
func parseDate(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" || v.String == "0000-00-00" {
		return nil
	}
	t, err := time.Parse(dateLayout, v.String)
	if err != nil {
		return nil
	}
	return &t
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ledger.ErrStorageUnavailable, err)
}

var _ interfaces.LedgerStore = (*Store)(nil)
