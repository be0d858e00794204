package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightfund/ledgercore/internal/domain/account"
	"github.com/brightfund/ledgercore/internal/domain/errors"
	"github.com/brightfund/ledgercore/internal/domain/version"
)

// AccountRepository implements account.Repository on SQLite
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

const accountColumns = metaColumns + `, id, organization_id, code, name, type, parent_account_id, current_balance, is_active`

// scanner covers *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*account.Account, error) {
	var mr metaRow
	var (
		id, orgID, code, name, typ, balStr string
		parentID                           sql.NullString
		isActive                           bool
	)
	dest := append(mr.dest(), &id, &orgID, &code, &name, &typ, &parentID, &balStr, &isActive)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	bal, err := decimal.NewFromString(balStr)
	if err != nil {
		return nil, errors.NewInternalError("invalid stored balance", err)
	}
	acct := &account.Account{
		ID:             uuid.MustParse(id),
		OrganizationID: uuid.MustParse(orgID),
		Code:           code,
		Name:           name,
		Type:           account.Type(typ),
		CurrentBalance: bal,
		IsActive:       isActive,
		Meta:           mr.toMeta(),
	}
	if parentID.Valid {
		pid := uuid.MustParse(parentID.String)
		acct.ParentAccountID = &pid
	}
	return acct, nil
}

func insertAccount(ctx context.Context, q dbtx, a *account.Account) error {
	args := append(metaValues(a.Meta),
		a.ID.String(), a.OrganizationID.String(), a.Code, a.Name, string(a.Type),
		uuidPtr(a.ParentAccountID), a.CurrentBalance.String(), a.IsActive)
	_, err := q.ExecContext(ctx,
		"INSERT INTO accounts ("+accountColumns+") VALUES ("+metaPlaceholders+", ?, ?, ?, ?, ?, ?, ?, ?)",
		args...)
	if err != nil {
		return errors.NewInternalError("failed to insert account version", err)
	}
	return nil
}

// Create inserts the head version of a new account chain
func (r *AccountRepository) Create(ctx context.Context, acct *account.Account) error {
	return insertAccount(ctx, r.store.db, acct)
}

// Get returns the version of an account selected by the temporal filter
func (r *AccountRepository) Get(ctx context.Context, orgID, accountID uuid.UUID, f version.Filter) (*account.Account, error) {
	return getAccount(ctx, r.store.db, orgID, accountID, f)
}

func getAccount(ctx context.Context, q dbtx, orgID, accountID uuid.UUID, f version.Filter) (*account.Account, error) {
	clause, args := temporalClause(f)
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE id = ? AND organization_id = ? AND %s", accountColumns, clause)
	args = append([]any{accountID.String(), orgID.String()}, args...)

	acct, err := scanAccount(q.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("account not found")
	}
	if err != nil {
		return nil, errors.NewInternalError("failed to query account", err)
	}
	return acct, nil
}

// GetByCode returns the current version of the account with the given code
func (r *AccountRepository) GetByCode(ctx context.Context, orgID uuid.UUID, code string) (*account.Account, error) {
	clause, args := temporalClause(version.Filter{})
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE organization_id = ? AND code = ? AND %s", accountColumns, clause)
	args = append([]any{orgID.String(), code}, args...)

	acct, err := scanAccount(r.store.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("account not found")
	}
	if err != nil {
		return nil, errors.NewInternalError("failed to query account", err)
	}
	return acct, nil
}

// List returns accounts matching the filter, ordered by code
func (r *AccountRepository) List(ctx context.Context, orgID uuid.UUID, f account.ListFilter) ([]account.Account, error) {
	clause, args := temporalClause(f.Temporal)
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE organization_id = ? AND %s", accountColumns, clause)
	args = append([]any{orgID.String()}, args...)

	if len(f.Types) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(f.Types)), ", ")
		query += " AND type IN (" + placeholders + ")"
		for _, t := range f.Types {
			args = append(args, string(t))
		}
	}
	if f.ActiveOnly {
		query += " AND is_active = 1"
	}
	query += " ORDER BY code ASC"

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternalError("failed to query accounts", err)
	}
	defer rows.Close()

	var accts []account.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, errors.NewInternalError("failed to scan account", err)
		}
		accts = append(accts, *acct)
	}
	return accts, rows.Err()
}

// Update closes the current version and appends a successor with the
// requested changes, atomically. A lost close race aborts the whole unit
// with a conflict.
func (r *AccountRepository) Update(ctx context.Context, current *account.Account, req *account.UpdateAccountRequest, asOf time.Time, actorID, reason string) (*account.Account, error) {
	next := *current
	next.Meta = current.Meta.Successor(asOf, actorID, reason)
	if req.Code != nil {
		next.Code = *req.Code
	}
	if req.Name != nil {
		next.Name = *req.Name
	}
	if req.ParentAccountID != nil {
		next.ParentAccountID = req.ParentAccountID
	}
	if req.IsActive != nil {
		next.IsActive = *req.IsActive
	}

	err := r.store.transact(ctx, func(tx *sql.Tx) error {
		if err := closeVersion(ctx, tx, "accounts", current.VersionID, asOf, "account"); err != nil {
			return err
		}
		return insertAccount(ctx, tx, &next)
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// SoftDelete closes the current version and appends a deletion version
// carrying all business fields forward unchanged.
func (r *AccountRepository) SoftDelete(ctx context.Context, current *account.Account, asOf time.Time, actorID string) (*account.Account, error) {
	next := *current
	next.Meta = current.Meta.Deletion(asOf, actorID)

	err := r.store.transact(ctx, func(tx *sql.Tx) error {
		if err := closeVersion(ctx, tx, "accounts", current.VersionID, asOf, "account"); err != nil {
			return err
		}
		return insertAccount(ctx, tx, &next)
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

func uuidPtr(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
