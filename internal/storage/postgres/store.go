// Package postgres persists the ledger in PostgreSQL via lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Oliverkirui/saco/internal/interfaces"
	"github.com/Oliverkirui/saco/internal/ledger"
	"github.com/Oliverkirui/saco/internal/models"
)

// Schema creates the ledger tables. Run once per database.
const Schema = `
CREATE TABLE IF NOT EXISTS members (
	id BIGSERIAL PRIMARY KEY,
	full_name TEXT NOT NULL,
	id_number TEXT NOT NULL UNIQUE,
	phone_number TEXT NOT NULL,
	next_of_kin_full_name TEXT NOT NULL,
	next_of_kin_id_number TEXT NOT NULL,
	shares NUMERIC(14,2) NOT NULL DEFAULT 0,
	loan_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
	loan_taken_date DATE,
	loan_due_date DATE,
	five_percent_interest_applied BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	member_id BIGINT NOT NULL REFERENCES members(id),
	transaction_type TEXT NOT NULL,
	amount NUMERIC(14,2) NOT NULL,
	notes TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

const memberColumns = `id, full_name, id_number, phone_number,
	next_of_kin_full_name, next_of_kin_id_number,
	shares, loan_amount, loan_taken_date, loan_due_date,
	five_percent_interest_applied`

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InitSchema creates the tables when they do not exist yet.
func (p *Store) InitSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return storageErr(err)
	}
	return nil
}

func (p *Store) CreateMember(ctx context.Context, member models.Member) (models.Member, error) {
	// Uniqueness is checked before insert so the caller gets the domain
	// error rather than a driver constraint violation.
	const check = `SELECT 1 FROM members WHERE id_number = $1 LIMIT 1`

	var one int
	err := p.db.QueryRowContext(ctx, check, member.IDNumber).Scan(&one)
	if err == nil {
		return models.Member{}, ledger.ErrDuplicateIDNumber
	}
	if err != sql.ErrNoRows {
		return models.Member{}, storageErr(err)
	}

	const insert = `INSERT INTO members
		(full_name, id_number, phone_number, next_of_kin_full_name, next_of_kin_id_number, shares, loan_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err = p.db.QueryRowContext(ctx, insert,
		member.FullName, member.IDNumber, member.PhoneNumber,
		member.NextOfKinFullName, member.NextOfKinIDNumber,
		member.Shares, member.LoanAmount,
	).Scan(&member.ID)
	if err != nil {
		return models.Member{}, storageErr(err)
	}
	return member, nil
}

func (p *Store) GetMember(ctx context.Context, id int64) (models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	return scanMember(p.db.QueryRowContext(ctx, query, id))
}

func (p *Store) ListMembers(ctx context.Context) ([]models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members ORDER BY full_name ASC, id ASC`

	rows, err := p.db.QueryContext(ctx, query)
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

func (p *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	const query = `SELECT id, member_id, transaction_type, amount, notes, created_at
		FROM transactions ORDER BY created_at ASC, id ASC`
	return p.queryTransactions(ctx, query)
}

func (p *Store) TransactionsByMember(ctx context.Context, memberID int64) ([]models.Transaction, error) {
	const query = `SELECT id, member_id, transaction_type, amount, notes, created_at
		FROM transactions WHERE member_id = $1 ORDER BY created_at ASC, id ASC`
	return p.queryTransactions(ctx, query, memberID)
}

func (p *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
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

// Commit runs the member mutation and the transaction append inside one
// database transaction. Both writes land or neither does.
func (p *Store) Commit(ctx context.Context, memberID int64, change models.MemberChange, txn models.Transaction) (models.Member, error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Member{}, storageErr(err)
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	res, err := dbTx.ExecContext(ctx,
		`UPDATE members SET shares = shares + $1 WHERE id = $2`,
		change.SharesDelta, memberID)
	if err != nil {
		return models.Member{}, storageErr(err)
	}
	if n, raErr := res.RowsAffected(); raErr == nil && n == 0 {
		err = ledger.ErrMemberNotFound
		return models.Member{}, err
	}

	if change.Loan != nil {
		amount, taken, due, applied := loanBindings(*change.Loan)
		_, err = dbTx.ExecContext(ctx,
			`UPDATE members SET loan_amount = $1, loan_taken_date = $2, loan_due_date = $3,
				five_percent_interest_applied = $4 WHERE id = $5`,
			amount, taken, due, applied, memberID)
		if err != nil {
			return models.Member{}, storageErr(err)
		}
	}

	_, err = dbTx.ExecContext(ctx,
		`INSERT INTO transactions (id, member_id, transaction_type, amount, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
		txn.ID, txn.MemberID, txn.Type, txn.Amount, txn.Notes, txn.CreatedAt)
	if err != nil {
		return models.Member{}, storageErr(err)
	}

	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	member, err := scanMember(dbTx.QueryRowContext(ctx, query, memberID))
	if err != nil {
		return models.Member{}, err
	}

	if err = dbTx.Commit(); err != nil {
		return models.Member{}, storageErr(err)
	}
	return member, nil
}

// loanBindings flattens the tagged loan update into one statement's bind
// values: the cleared variant binds NULL dates and zeroed fields, and a set
// variant with absent dates binds NULL back unchanged.
func loanBindings(loan models.LoanUpdate) (amount any, taken, due sql.NullTime, applied bool) {
	if loan.Clear {
		return 0, sql.NullTime{}, sql.NullTime{}, false
	}
	return loan.Amount, nullTime(loan.TakenDate), nullTime(loan.DueDate), loan.InterestApplied
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (models.Member, error) {
	var m models.Member
	var taken, due sql.NullTime
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
	m.LoanTakenDate = nullableDate(taken)
	m.LoanDueDate = nullableDate(due)
	return m, nil
}

func nullableDate(t sql.NullTime) *time.Time {
	if !t.Valid || t.Time.IsZero() {
		return nil
	}
	d := t.Time
	return &d
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ledger.ErrStorageUnavailable, err)
}

var _ interfaces.LedgerStore = (*Store)(nil)
