package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	ulid "github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/brightfund/ledgercore/internal/domain/errors"
	"github.com/brightfund/ledgercore/internal/domain/reconciliation"
	"github.com/brightfund/ledgercore/internal/domain/version"
)

// ReconciliationRepository implements reconciliation.Repository on SQLite.
// Reconciliation tables are working state mutated in place; the UNIQUE
// constraint on matches.transaction_id is the store-level backstop against
// double-claiming a transaction.
type ReconciliationRepository struct {
	store *Store
}

// NewReconciliationRepository creates a new ReconciliationRepository
func NewReconciliationRepository(store *Store) *ReconciliationRepository {
	return &ReconciliationRepository{store: store}
}

// CreateBankAccount stores a new bank account link
func (r *ReconciliationRepository) CreateBankAccount(ctx context.Context, ba *reconciliation.BankAccount) error {
	_, err := r.store.db.ExecContext(ctx,
		"INSERT INTO bank_accounts (id, organization_id, name, ledger_account_id, created_at) VALUES (?, ?, ?, ?, ?)",
		ba.ID.String(), ba.OrganizationID.String(), ba.Name, ba.LedgerAccountID.String(), ba.CreatedAt.UTC())
	if err != nil {
		return errors.NewInternalError("failed to insert bank account", err)
	}
	return nil
}

// GetBankAccount retrieves a bank account scoped to the organization
func (r *ReconciliationRepository) GetBankAccount(ctx context.Context, orgID, bankAccountID uuid.UUID) (*reconciliation.BankAccount, error) {
	row := r.store.db.QueryRowContext(ctx,
		"SELECT id, organization_id, name, ledger_account_id, created_at FROM bank_accounts WHERE id = ? AND organization_id = ?",
		bankAccountID.String(), orgID.String())
	ba, err := scanBankAccount(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("bank account not found")
	}
	if err != nil {
		return nil, errors.NewInternalError("failed to query bank account", err)
	}
	return ba, nil
}

// ListBankAccounts lists the organization's bank accounts by name
func (r *ReconciliationRepository) ListBankAccounts(ctx context.Context, orgID uuid.UUID) ([]reconciliation.BankAccount, error) {
	rows, err := r.store.db.QueryContext(ctx,
		"SELECT id, organization_id, name, ledger_account_id, created_at FROM bank_accounts WHERE organization_id = ? ORDER BY name ASC",
		orgID.String())
	if err != nil {
		return nil, errors.NewInternalError("failed to query bank accounts", err)
	}
	defer rows.Close()

	var accounts []reconciliation.BankAccount
	for rows.Next() {
		ba, err := scanBankAccount(rows)
		if err != nil {
			return nil, errors.NewInternalError("failed to scan bank account", err)
		}
		accounts = append(accounts, *ba)
	}
	return accounts, rows.Err()
}

func scanBankAccount(s scanner) (*reconciliation.BankAccount, error) {
	var id, orgID, name, ledgerID string
	var createdAt time.Time
	if err := s.Scan(&id, &orgID, &name, &ledgerID, &createdAt); err != nil {
		return nil, err
	}
	return &reconciliation.BankAccount{
		ID:              uuid.MustParse(id),
		OrganizationID:  uuid.MustParse(orgID),
		Name:            name,
		LedgerAccountID: uuid.MustParse(ledgerID),
		CreatedAt:       createdAt.UTC(),
	}, nil
}

// CreateStatement stores a new statement
func (r *ReconciliationRepository) CreateStatement(ctx context.Context, st *reconciliation.BankStatement) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO bank_statements (id, organization_id, bank_account_id, period_start, period_end, status, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID.String(), st.OrganizationID.String(), st.BankAccountID.String(),
		st.PeriodStart.UTC(), st.PeriodEnd.UTC(), string(st.Status), st.CreatedAt.UTC(), st.CompletedAt)
	if err != nil {
		return errors.NewInternalError("failed to insert bank statement", err)
	}
	return nil
}

// GetStatement retrieves a statement scoped to the organization
func (r *ReconciliationRepository) GetStatement(ctx context.Context, orgID, statementID uuid.UUID) (*reconciliation.BankStatement, error) {
	var (
		id, oID, baID, status string
		periodStart           time.Time
		periodEnd             time.Time
		createdAt             time.Time
		completedAt           sql.NullTime
	)
	err := r.store.db.QueryRowContext(ctx,
		`SELECT id, organization_id, bank_account_id, period_start, period_end, status, created_at, completed_at
		FROM bank_statements WHERE id = ? AND organization_id = ?`,
		statementID.String(), orgID.String()).
		Scan(&id, &oID, &baID, &periodStart, &periodEnd, &status, &createdAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("bank statement not found")
	}
	if err != nil {
		return nil, errors.NewInternalError("failed to query bank statement", err)
	}

	st := &reconciliation.BankStatement{
		ID:             uuid.MustParse(id),
		OrganizationID: uuid.MustParse(oID),
		BankAccountID:  uuid.MustParse(baID),
		PeriodStart:    periodStart.UTC(),
		PeriodEnd:      periodEnd.UTC(),
		Status:         reconciliation.StatementStatus(status),
		CreatedAt:      createdAt.UTC(),
	}
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		st.CompletedAt = &t
	}
	return st, nil
}

// InsertLines bulk-inserts imported lines in one transaction
func (r *ReconciliationRepository) InsertLines(ctx context.Context, lines []reconciliation.StatementLine) error {
	return r.store.transact(ctx, func(tx *sql.Tx) error {
		for i := range lines {
			line := &lines[i]
			_, err := tx.ExecContext(ctx,
				`INSERT INTO statement_lines (id, bank_statement_id, transaction_date, description, reference_number, amount, status, match_confidence, notes)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				line.ID, line.BankStatementID.String(), line.TransactionDate.UTC(),
				line.Description, nullString(line.ReferenceNumber), line.Amount.String(),
				string(line.Status), string(line.Confidence), nullString(line.Notes))
			if err != nil {
				return errors.NewInternalError("failed to insert statement line", err)
			}
		}
		return nil
	})
}

const statementLineColumns = `id, bank_statement_id, transaction_date, description, reference_number, amount, status, match_confidence, notes`

func scanStatementLine(s scanner) (*reconciliation.StatementLine, error) {
	var (
		id, stID, description, status, confidence string
		txnDate                                   time.Time
		refNumber, notes                          sql.NullString
		amountStr                                 string
	)
	err := s.Scan(&id, &stID, &txnDate, &description, &refNumber, &amountStr, &status, &confidence, &notes)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, errors.NewInternalError("invalid stored line amount", err)
	}
	return &reconciliation.StatementLine{
		ID:              id,
		BankStatementID: uuid.MustParse(stID),
		TransactionDate: txnDate.UTC(),
		Description:     description,
		ReferenceNumber: refNumber.String,
		Amount:          amount,
		Status:          reconciliation.LineStatus(status),
		Confidence:      reconciliation.MatchConfidence(confidence),
		Notes:           notes.String,
	}, nil
}

// ListLines returns the statement's lines ascending by id. Line ids are
// ULIDs, so this is import order.
func (r *ReconciliationRepository) ListLines(ctx context.Context, statementID uuid.UUID, statuses ...reconciliation.LineStatus) ([]reconciliation.StatementLine, error) {
	query := "SELECT " + statementLineColumns + " FROM statement_lines WHERE bank_statement_id = ?"
	args := []any{statementID.String()}
	if len(statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
		query += " AND status IN (" + placeholders + ")"
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	query += " ORDER BY id ASC"

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternalError("failed to query statement lines", err)
	}
	defer rows.Close()

	var lines []reconciliation.StatementLine
	for rows.Next() {
		line, err := scanStatementLine(rows)
		if err != nil {
			return nil, errors.NewInternalError("failed to scan statement line", err)
		}
		lines = append(lines, *line)
	}
	return lines, rows.Err()
}

// GetLine retrieves one statement line
func (r *ReconciliationRepository) GetLine(ctx context.Context, lineID string) (*reconciliation.StatementLine, error) {
	row := r.store.db.QueryRowContext(ctx,
		"SELECT "+statementLineColumns+" FROM statement_lines WHERE id = ?", lineID)
	line, err := scanStatementLine(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("statement line not found")
	}
	if err != nil {
		return nil, errors.NewInternalError("failed to query statement line", err)
	}
	return line, nil
}

// ListMatchesForLine returns the line's matches in creation order
func (r *ReconciliationRepository) ListMatchesForLine(ctx context.Context, lineID string) ([]reconciliation.Match, error) {
	rows, err := r.store.db.QueryContext(ctx,
		"SELECT id, line_id, transaction_id, amount, confidence, created_at FROM matches WHERE line_id = ? ORDER BY id ASC",
		lineID)
	if err != nil {
		return nil, errors.NewInternalError("failed to query matches", err)
	}
	defer rows.Close()

	var matches []reconciliation.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, errors.NewInternalError("failed to scan match", err)
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

func scanMatch(s scanner) (*reconciliation.Match, error) {
	var id, lineID, txnID, amountStr, confidence string
	var createdAt time.Time
	if err := s.Scan(&id, &lineID, &txnID, &amountStr, &confidence, &createdAt); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, errors.NewInternalError("invalid stored match amount", err)
	}
	return &reconciliation.Match{
		ID:            id,
		LineID:        lineID,
		TransactionID: uuid.MustParse(txnID),
		Amount:        amount,
		Confidence:    reconciliation.MatchConfidence(confidence),
		CreatedAt:     createdAt.UTC(),
	}, nil
}

func insertMatch(ctx context.Context, tx dbtx, m *reconciliation.Match) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO matches (id, line_id, transaction_id, amount, confidence, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		m.ID, m.LineID, m.TransactionID.String(), m.Amount.String(), string(m.Confidence), m.CreatedAt.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return errors.NewConflictError("transaction is already matched to another line")
		}
		return errors.NewInternalError("failed to insert match", err)
	}
	return nil
}

// ApplyAutoMatches persists a whole auto-match run atomically: one
// full-amount match per claimed pair plus the line status flips. A
// transaction claimed concurrently trips the unique constraint and aborts
// the entire run.
func (r *ReconciliationRepository) ApplyAutoMatches(ctx context.Context, pairs []reconciliation.ClaimedPair) ([]reconciliation.Match, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	matches := make([]reconciliation.Match, 0, len(pairs))

	err := r.store.transact(ctx, func(tx *sql.Tx) error {
		for _, pair := range pairs {
			m := reconciliation.Match{
				ID:            ulid.Make().String(),
				LineID:        pair.Line.ID,
				TransactionID: pair.TransactionID,
				Amount:        pair.Amount,
				Confidence:    pair.Confidence,
				CreatedAt:     now,
			}
			if err := insertMatch(ctx, tx, &m); err != nil {
				return err
			}
			if err := setLineStatus(ctx, tx, pair.Line.ID, reconciliation.LineMatched, pair.Confidence, ""); err != nil {
				return err
			}
			matches = append(matches, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// AddManualMatches inserts manual match rows for one line and updates its
// status, atomically.
func (r *ReconciliationRepository) AddManualMatches(ctx context.Context, line *reconciliation.StatementLine, matches []reconciliation.Match, newStatus reconciliation.LineStatus) error {
	return r.store.transact(ctx, func(tx *sql.Tx) error {
		for i := range matches {
			if err := insertMatch(ctx, tx, &matches[i]); err != nil {
				return err
			}
		}
		return setLineStatus(ctx, tx, line.ID, newStatus, reconciliation.ConfidenceManual, line.Notes)
	})
}

// DeleteMatchesForLine removes all of the line's matches, resets the line
// to UNMATCHED, and clears the reconciled flag on the listed transactions,
// atomically.
func (r *ReconciliationRepository) DeleteMatchesForLine(ctx context.Context, line *reconciliation.StatementLine, txnIDs []uuid.UUID) error {
	return r.store.transact(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM matches WHERE line_id = ?", line.ID); err != nil {
			return errors.NewInternalError("failed to delete matches", err)
		}
		if err := setLineStatus(ctx, tx, line.ID, reconciliation.LineUnmatched, reconciliation.ConfidenceUnmatched, ""); err != nil {
			return err
		}
		return setReconciledInTx(ctx, tx, txnIDs, false)
	})
}

// UpdateLineStatus sets a line's status, confidence and notes
func (r *ReconciliationRepository) UpdateLineStatus(ctx context.Context, lineID string, status reconciliation.LineStatus, confidence reconciliation.MatchConfidence, notes string) error {
	return setLineStatus(ctx, r.store.db, lineID, status, confidence, notes)
}

func setLineStatus(ctx context.Context, q dbtx, lineID string, status reconciliation.LineStatus, confidence reconciliation.MatchConfidence, notes string) error {
	res, err := q.ExecContext(ctx,
		"UPDATE statement_lines SET status = ?, match_confidence = ?, notes = ? WHERE id = ?",
		string(status), string(confidence), nullString(notes), lineID)
	if err != nil {
		return errors.NewInternalError("failed to update statement line", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternalError("failed to read affected row count", err)
	}
	if n == 0 {
		return errors.NewNotFoundError("statement line not found")
	}
	return nil
}

// ConfirmLine flips the line to CONFIRMED and marks the matched
// transactions reconciled, atomically.
func (r *ReconciliationRepository) ConfirmLine(ctx context.Context, line *reconciliation.StatementLine, txnIDs []uuid.UUID) error {
	return r.store.transact(ctx, func(tx *sql.Tx) error {
		if err := setLineStatus(ctx, tx, line.ID, reconciliation.LineConfirmed, line.Confidence, line.Notes); err != nil {
			return err
		}
		return setReconciledInTx(ctx, tx, txnIDs, true)
	})
}

// setReconciledInTx flips the reconciled working flag on the current
// transaction versions inside the caller's transaction.
func setReconciledInTx(ctx context.Context, tx dbtx, txnIDs []uuid.UUID, reconciled bool) error {
	if len(txnIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(txnIDs)), ", ")
	args := []any{reconciled}
	for _, id := range txnIDs {
		args = append(args, id.String())
	}
	args = append(args, version.MaxSentinel)

	_, err := tx.ExecContext(ctx,
		"UPDATE transactions SET reconciled = ? WHERE id IN ("+placeholders+") AND system_to = ?",
		args...)
	if err != nil {
		return errors.NewInternalError("failed to update reconciled flag", err)
	}
	return nil
}

// CountUnresolvedLines counts lines that are neither matched, confirmed
// nor skipped.
func (r *ReconciliationRepository) CountUnresolvedLines(ctx context.Context, statementID uuid.UUID) (int, error) {
	var count int
	err := r.store.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM statement_lines WHERE bank_statement_id = ? AND status = ?",
		statementID.String(), string(reconciliation.LineUnmatched)).Scan(&count)
	if err != nil {
		return 0, errors.NewInternalError("failed to count unresolved lines", err)
	}
	return count, nil
}

// CompleteStatement marks the statement finished
func (r *ReconciliationRepository) CompleteStatement(ctx context.Context, st *reconciliation.BankStatement) error {
	res, err := r.store.db.ExecContext(ctx,
		"UPDATE bank_statements SET status = ?, completed_at = ? WHERE id = ? AND status = ?",
		string(reconciliation.StatementCompleted), time.Now().UTC(),
		st.ID.String(), string(reconciliation.StatementInProgress))
	if err != nil {
		return errors.NewInternalError("failed to complete statement", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternalError("failed to read affected row count", err)
	}
	if n == 0 {
		return errors.NewConflictError("statement was completed concurrently")
	}
	return nil
}
