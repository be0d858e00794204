package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brightfund/ledgercore/internal/domain/errors"
	"github.com/brightfund/ledgercore/internal/domain/fiscalperiod"
	"github.com/brightfund/ledgercore/internal/domain/transaction"
	"github.com/brightfund/ledgercore/internal/domain/version"
)

// FiscalPeriodRepository implements fiscalperiod.Repository on SQLite.
// Close and reopen are compound units: the period version flip and every
// closing posting commit or roll back together.
type FiscalPeriodRepository struct {
	store *Store
}

// NewFiscalPeriodRepository creates a new FiscalPeriodRepository
func NewFiscalPeriodRepository(store *Store) *FiscalPeriodRepository {
	return &FiscalPeriodRepository{store: store}
}

const fiscalPeriodColumns = metaColumns + `, id, organization_id, name, start_date, end_date, status, closing_transaction_ids`

func scanFiscalPeriod(s scanner) (*fiscalperiod.FiscalPeriod, error) {
	var mr metaRow
	var (
		id, orgID, name, status, closingIDs string
		startDate, endDate                  time.Time
	)
	dest := append(mr.dest(), &id, &orgID, &name, &startDate, &endDate, &status, &closingIDs)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	p := &fiscalperiod.FiscalPeriod{
		ID:             uuid.MustParse(id),
		OrganizationID: uuid.MustParse(orgID),
		Name:           name,
		StartDate:      startDate.UTC(),
		EndDate:        endDate.UTC(),
		Status:         fiscalperiod.Status(status),
		Meta:           mr.toMeta(),
	}
	if err := json.Unmarshal([]byte(closingIDs), &p.ClosingTransactionIDs); err != nil {
		return nil, errors.NewInternalError("invalid stored closing transaction ids", err)
	}
	return p, nil
}

func insertFiscalPeriod(ctx context.Context, q dbtx, p *fiscalperiod.FiscalPeriod) error {
	closingIDs, err := json.Marshal(p.ClosingTransactionIDs)
	if err != nil {
		return errors.NewInternalError("failed to encode closing transaction ids", err)
	}
	args := append(metaValues(p.Meta),
		p.ID.String(), p.OrganizationID.String(), p.Name,
		p.StartDate.UTC(), p.EndDate.UTC(), string(p.Status), string(closingIDs))
	_, err = q.ExecContext(ctx,
		"INSERT INTO fiscal_periods ("+fiscalPeriodColumns+") VALUES ("+metaPlaceholders+", ?, ?, ?, ?, ?, ?, ?)",
		args...)
	if err != nil {
		return errors.NewInternalError("failed to insert fiscal period version", err)
	}
	return nil
}

// Create inserts the head version of a new period chain
func (r *FiscalPeriodRepository) Create(ctx context.Context, p *fiscalperiod.FiscalPeriod) error {
	return insertFiscalPeriod(ctx, r.store.db, p)
}

// Get returns the version of a period selected by the temporal filter
func (r *FiscalPeriodRepository) Get(ctx context.Context, orgID, periodID uuid.UUID, f version.Filter) (*fiscalperiod.FiscalPeriod, error) {
	clause, args := temporalClause(f)
	query := fmt.Sprintf("SELECT %s FROM fiscal_periods WHERE id = ? AND organization_id = ? AND %s", fiscalPeriodColumns, clause)
	args = append([]any{periodID.String(), orgID.String()}, args...)

	p, err := scanFiscalPeriod(r.store.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("fiscal period not found")
	}
	if err != nil {
		return nil, errors.NewInternalError("failed to query fiscal period", err)
	}
	return p, nil
}

// List returns the organization's current period versions ordered by start
// date
func (r *FiscalPeriodRepository) List(ctx context.Context, orgID uuid.UUID) ([]fiscalperiod.FiscalPeriod, error) {
	clause, args := temporalClause(version.Filter{})
	query := fmt.Sprintf("SELECT %s FROM fiscal_periods WHERE organization_id = ? AND %s ORDER BY start_date ASC", fiscalPeriodColumns, clause)
	args = append([]any{orgID.String()}, args...)
	return r.queryPeriods(ctx, query, args)
}

// ListOverlapping returns current periods whose date range intersects
// [start, end]
func (r *FiscalPeriodRepository) ListOverlapping(ctx context.Context, orgID uuid.UUID, start, end time.Time) ([]fiscalperiod.FiscalPeriod, error) {
	clause, args := temporalClause(version.Filter{})
	query := fmt.Sprintf(`SELECT %s FROM fiscal_periods
		WHERE organization_id = ? AND %s
		AND start_date <= ? AND end_date >= ?
		ORDER BY start_date ASC`, fiscalPeriodColumns, clause)
	args = append([]any{orgID.String()}, args...)
	args = append(args, end.UTC(), start.UTC())
	return r.queryPeriods(ctx, query, args)
}

// AnyClosedCovering reports whether a current CLOSED period contains the
// date
func (r *FiscalPeriodRepository) AnyClosedCovering(ctx context.Context, orgID uuid.UUID, date time.Time) (bool, error) {
	clause, args := temporalClause(version.Filter{})
	query := fmt.Sprintf(`SELECT COUNT(1) FROM fiscal_periods
		WHERE organization_id = ? AND %s
		AND status = ? AND start_date <= ? AND end_date >= ?`, clause)
	args = append([]any{orgID.String()}, args...)
	d := date.UTC()
	args = append(args, string(fiscalperiod.Closed), d, d)

	var count int
	if err := r.store.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, errors.NewInternalError("failed to query closed periods", err)
	}
	return count > 0, nil
}

func (r *FiscalPeriodRepository) queryPeriods(ctx context.Context, query string, args []any) ([]fiscalperiod.FiscalPeriod, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternalError("failed to query fiscal periods", err)
	}
	defer rows.Close()

	var periods []fiscalperiod.FiscalPeriod
	for rows.Next() {
		p, err := scanFiscalPeriod(rows)
		if err != nil {
			return nil, errors.NewInternalError("failed to scan fiscal period", err)
		}
		periods = append(periods, *p)
	}
	return periods, rows.Err()
}

// ExecuteClose posts every closing transaction through the balance engine,
// records their ids on a new CLOSED period version, and closes the OPEN
// one, all atomically.
func (r *FiscalPeriodRepository) ExecuteClose(ctx context.Context, current *fiscalperiod.FiscalPeriod, closings []transaction.Transaction, asOf time.Time, actorID string) (*fiscalperiod.FiscalPeriod, []transaction.Transaction, error) {
	next := *current
	next.Meta = current.Meta.Successor(asOf, actorID, "period closed")
	next.Status = fiscalperiod.Closed
	next.ClosingTransactionIDs = make([]uuid.UUID, 0, len(closings))
	for i := range closings {
		next.ClosingTransactionIDs = append(next.ClosingTransactionIDs, closings[i].ID)
	}

	err := r.store.transact(ctx, func(tx *sql.Tx) error {
		for i := range closings {
			txn := &closings[i]
			if err := insertTransaction(ctx, tx, txn); err != nil {
				return err
			}
			if _, _, err := applyPostingBalances(ctx, tx, txn.OrganizationID, txn.DebitAccountID, txn.CreditAccountID, txn.Amount, false); err != nil {
				return err
			}
		}
		if err := closeVersion(ctx, tx, "fiscal_periods", current.VersionID, asOf, "fiscal period"); err != nil {
			return err
		}
		return insertFiscalPeriod(ctx, tx, &next)
	})
	if err != nil {
		return nil, nil, err
	}
	return &next, closings, nil
}

// Reopen reverses the balance effect of each closing transaction,
// soft-deletes it, and flips the period back to OPEN via a new version,
// all atomically. The closing ids stay on the period as history of the
// undone close.
func (r *FiscalPeriodRepository) Reopen(ctx context.Context, current *fiscalperiod.FiscalPeriod, closings []*transaction.Transaction, asOf time.Time, actorID string) (*fiscalperiod.FiscalPeriod, error) {
	next := *current
	next.Meta = current.Meta.Successor(asOf, actorID, "period reopened")
	next.Status = fiscalperiod.Open

	err := r.store.transact(ctx, func(tx *sql.Tx) error {
		for _, txn := range closings {
			deleted := *txn
			deleted.Meta = txn.Meta.Deletion(asOf, actorID)
			if err := closeVersion(ctx, tx, "transactions", txn.VersionID, asOf, "closing transaction"); err != nil {
				return err
			}
			if err := insertTransaction(ctx, tx, &deleted); err != nil {
				return err
			}
			if _, _, err := applyPostingBalances(ctx, tx, txn.OrganizationID, txn.DebitAccountID, txn.CreditAccountID, txn.Amount, true); err != nil {
				return err
			}
		}
		if err := closeVersion(ctx, tx, "fiscal_periods", current.VersionID, asOf, "fiscal period"); err != nil {
			return err
		}
		return insertFiscalPeriod(ctx, tx, &next)
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}
