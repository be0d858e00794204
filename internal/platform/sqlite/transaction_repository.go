package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightfund/ledgercore/internal/domain/errors"
	"github.com/brightfund/ledgercore/internal/domain/transaction"
	"github.com/brightfund/ledgercore/internal/domain/version"
)

// TransactionRepository implements transaction.Repository on SQLite. Every
// balance-moving method runs the posting write and the balance adjustments
// in one SQL transaction.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

const transactionColumns = metaColumns + `, id, organization_id, transaction_date, type, amount, debit_account_id, credit_account_id, description, reference_number, contact_id, reconciled, is_voided`

func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var mr metaRow
	var (
		id, orgID, typ, amountStr, debitID, creditID, description string
		txnDate                                                   time.Time
		refNumber, contactID                                      sql.NullString
		reconciled, isVoided                                      bool
	)
	dest := append(mr.dest(), &id, &orgID, &txnDate, &typ, &amountStr, &debitID, &creditID, &description, &refNumber, &contactID, &reconciled, &isVoided)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, errors.NewInternalError("invalid stored amount", err)
	}
	txn := &transaction.Transaction{
		ID:              uuid.MustParse(id),
		OrganizationID:  uuid.MustParse(orgID),
		TransactionDate: txnDate.UTC(),
		Type:            transaction.Type(typ),
		Amount:          amount,
		DebitAccountID:  uuid.MustParse(debitID),
		CreditAccountID: uuid.MustParse(creditID),
		Description:     description,
		ReferenceNumber: refNumber.String,
		Reconciled:      reconciled,
		IsVoided:        isVoided,
		Meta:            mr.toMeta(),
	}
	if contactID.Valid {
		cid := uuid.MustParse(contactID.String)
		txn.ContactID = &cid
	}
	return txn, nil
}

func insertTransaction(ctx context.Context, q dbtx, t *transaction.Transaction) error {
	args := append(metaValues(t.Meta),
		t.ID.String(), t.OrganizationID.String(), t.TransactionDate.UTC(), string(t.Type),
		t.Amount.String(), t.DebitAccountID.String(), t.CreditAccountID.String(),
		t.Description, nullString(t.ReferenceNumber), uuidPtr(t.ContactID),
		t.Reconciled, t.IsVoided)
	_, err := q.ExecContext(ctx,
		"INSERT INTO transactions ("+transactionColumns+") VALUES ("+metaPlaceholders+", ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		args...)
	if err != nil {
		return errors.NewInternalError("failed to insert transaction version", err)
	}
	return nil
}

// CreatePosted inserts the head version of a transaction and applies its
// balance effect, atomically.
func (r *TransactionRepository) CreatePosted(ctx context.Context, txn *transaction.Transaction) (*transaction.PostingResult, error) {
	result := &transaction.PostingResult{Transaction: txn}
	err := r.store.transact(ctx, func(tx *sql.Tx) error {
		if err := insertTransaction(ctx, tx, txn); err != nil {
			return err
		}
		debitBal, creditBal, err := applyPostingBalances(ctx, tx, txn.OrganizationID, txn.DebitAccountID, txn.CreditAccountID, txn.Amount, false)
		if err != nil {
			return err
		}
		result.DebitBalance = debitBal
		result.CreditBalance = creditBal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns the version of a transaction selected by the temporal filter
func (r *TransactionRepository) Get(ctx context.Context, orgID, txnID uuid.UUID, f version.Filter) (*transaction.Transaction, error) {
	clause, args := temporalClause(f)
	query := fmt.Sprintf("SELECT %s FROM transactions WHERE id = ? AND organization_id = ? AND %s", transactionColumns, clause)
	args = append([]any{txnID.String(), orgID.String()}, args...)

	txn, err := scanTransaction(r.store.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("transaction not found")
	}
	if err != nil {
		return nil, errors.NewInternalError("failed to query transaction", err)
	}
	return txn, nil
}

// List returns transactions matching the filter, newest first
func (r *TransactionRepository) List(ctx context.Context, orgID uuid.UUID, f transaction.ListFilter) ([]transaction.Transaction, error) {
	clause, args := temporalClause(f.Temporal)
	query := fmt.Sprintf("SELECT %s FROM transactions WHERE organization_id = ? AND %s", transactionColumns, clause)
	args = append([]any{orgID.String()}, args...)

	if f.AccountID != nil {
		query += " AND (debit_account_id = ? OR credit_account_id = ?)"
		args = append(args, f.AccountID.String(), f.AccountID.String())
	}
	if f.ContactID != nil {
		query += " AND contact_id = ?"
		args = append(args, f.ContactID.String())
	}
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, string(f.Type))
	}
	if !f.StartDate.IsZero() {
		query += " AND transaction_date >= ?"
		args = append(args, f.StartDate.UTC())
	}
	if !f.EndDate.IsZero() {
		query += " AND transaction_date <= ?"
		args = append(args, f.EndDate.UTC())
	}
	if !f.IncludeVoided {
		query += " AND is_voided = 0"
	}
	query += " ORDER BY transaction_date DESC, id DESC"

	return r.queryTransactions(ctx, query, args)
}

// ListUnreconciled returns current, non-voided, unreconciled transactions
// touching the account within the date range, ordered by date then id so
// the matcher's candidate pool is deterministic.
func (r *TransactionRepository) ListUnreconciled(ctx context.Context, orgID, accountID uuid.UUID, start, end time.Time) ([]transaction.Transaction, error) {
	clause, args := temporalClause(version.Filter{})
	query := fmt.Sprintf(`SELECT %s FROM transactions
		WHERE organization_id = ? AND %s
		AND (debit_account_id = ? OR credit_account_id = ?)
		AND reconciled = 0 AND is_voided = 0
		AND transaction_date >= ? AND transaction_date <= ?
		ORDER BY transaction_date ASC, id ASC`, transactionColumns, clause)
	args = append([]any{orgID.String()}, args...)
	args = append(args, accountID.String(), accountID.String(), start.UTC(), end.UTC())

	return r.queryTransactions(ctx, query, args)
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args []any) ([]transaction.Transaction, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternalError("failed to query transactions", err)
	}
	defer rows.Close()

	var txns []transaction.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, errors.NewInternalError("failed to scan transaction", err)
		}
		txns = append(txns, *txn)
	}
	return txns, rows.Err()
}

// UpdateAmount closes the current version, appends a successor with the
// new amount, reverses the old balance effect and applies the new one, all
// atomically.
func (r *TransactionRepository) UpdateAmount(ctx context.Context, current *transaction.Transaction, amount decimal.Decimal, asOf time.Time, actorID, reason string) (*transaction.PostingResult, error) {
	next := *current
	next.Meta = current.Meta.Successor(asOf, actorID, reason)
	next.Amount = amount

	result := &transaction.PostingResult{Transaction: &next}
	err := r.store.transact(ctx, func(tx *sql.Tx) error {
		if err := closeVersion(ctx, tx, "transactions", current.VersionID, asOf, "transaction"); err != nil {
			return err
		}
		if err := insertTransaction(ctx, tx, &next); err != nil {
			return err
		}
		if _, _, err := applyPostingBalances(ctx, tx, current.OrganizationID, current.DebitAccountID, current.CreditAccountID, current.Amount, true); err != nil {
			return err
		}
		debitBal, creditBal, err := applyPostingBalances(ctx, tx, next.OrganizationID, next.DebitAccountID, next.CreditAccountID, next.Amount, false)
		if err != nil {
			return err
		}
		result.DebitBalance = debitBal
		result.CreditBalance = creditBal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Void appends a voided successor version and reverses the balance effect,
// atomically. The voided version keeps amount and accounts untouched; only
// the flag and the balances move.
func (r *TransactionRepository) Void(ctx context.Context, current *transaction.Transaction, asOf time.Time, actorID, reason string) (*transaction.PostingResult, error) {
	next := *current
	next.Meta = current.Meta.Successor(asOf, actorID, reason)
	next.IsVoided = true

	result := &transaction.PostingResult{Transaction: &next}
	err := r.store.transact(ctx, func(tx *sql.Tx) error {
		if err := closeVersion(ctx, tx, "transactions", current.VersionID, asOf, "transaction"); err != nil {
			return err
		}
		if err := insertTransaction(ctx, tx, &next); err != nil {
			return err
		}
		debitBal, creditBal, err := applyPostingBalances(ctx, tx, current.OrganizationID, current.DebitAccountID, current.CreditAccountID, current.Amount, true)
		if err != nil {
			return err
		}
		result.DebitBalance = debitBal
		result.CreditBalance = creditBal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SoftDelete appends a deletion version and reverses the balance effect,
// atomically. Already-voided transactions have no balance effect left to
// reverse.
func (r *TransactionRepository) SoftDelete(ctx context.Context, current *transaction.Transaction, asOf time.Time, actorID string) (*transaction.PostingResult, error) {
	next := *current
	next.Meta = current.Meta.Deletion(asOf, actorID)

	result := &transaction.PostingResult{Transaction: &next}
	err := r.store.transact(ctx, func(tx *sql.Tx) error {
		if err := closeVersion(ctx, tx, "transactions", current.VersionID, asOf, "transaction"); err != nil {
			return err
		}
		if err := insertTransaction(ctx, tx, &next); err != nil {
			return err
		}
		if current.IsVoided {
			return nil
		}
		debitBal, creditBal, err := applyPostingBalances(ctx, tx, current.OrganizationID, current.DebitAccountID, current.CreditAccountID, current.Amount, true)
		if err != nil {
			return err
		}
		result.DebitBalance = debitBal
		result.CreditBalance = creditBal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetReconciled flips the reconciled working flag on the current versions
// in place.
func (r *TransactionRepository) SetReconciled(ctx context.Context, orgID uuid.UUID, txnIDs []uuid.UUID, reconciled bool) error {
	if len(txnIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(txnIDs)), ", ")
	args := []any{reconciled, orgID.String()}
	for _, id := range txnIDs {
		args = append(args, id.String())
	}
	args = append(args, version.MaxSentinel)

	_, err := r.store.db.ExecContext(ctx,
		"UPDATE transactions SET reconciled = ? WHERE organization_id = ? AND id IN ("+placeholders+") AND system_to = ?",
		args...)
	if err != nil {
		return errors.NewInternalError("failed to update reconciled flag", err)
	}
	return nil
}
