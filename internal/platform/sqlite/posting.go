package sqlite

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightfund/ledgercore/internal/domain/balance"
	"github.com/brightfund/ledgercore/internal/domain/errors"
	"github.com/brightfund/ledgercore/internal/domain/version"
)

// applyPostingBalances is the single writer of account balances. It reads
// both accounts' current versions, runs the balance engine, and updates the
// current rows in place, inside the caller's transaction. Balance changes
// are derived state, not business edits, so they do not grow the version
// chain.
func applyPostingBalances(ctx context.Context, tx dbtx, orgID, debitID, creditID uuid.UUID, amount decimal.Decimal, reverse bool) (decimal.Decimal, decimal.Decimal, error) {
	debit, err := getAccount(ctx, tx, orgID, debitID, version.Filter{})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	credit, err := getAccount(ctx, tx, orgID, creditID, version.Filter{})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	var newDebit, newCredit decimal.Decimal
	if reverse {
		newDebit, newCredit = balance.Reverse(debit.Type, credit.Type, debit.CurrentBalance, credit.CurrentBalance, amount)
	} else {
		newDebit, newCredit = balance.Post(debit.Type, credit.Type, debit.CurrentBalance, credit.CurrentBalance, amount)
	}

	if err := writeBalance(ctx, tx, debit.VersionID, newDebit); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if err := writeBalance(ctx, tx, credit.VersionID, newCredit); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return newDebit, newCredit, nil
}

// writeBalance updates the balance of one specific current version row.
// Targeting the version id keeps a racing versioned edit from absorbing
// the update silently: if the version was closed in between, zero rows
// match and the posting unit aborts.
func writeBalance(ctx context.Context, tx dbtx, versionID string, bal decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE accounts SET current_balance = ? WHERE version_id = ? AND system_to = ?",
		bal.String(), versionID, version.MaxSentinel)
	if err != nil {
		return errors.NewInternalError("failed to update account balance", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternalError("failed to read affected row count", err)
	}
	if n == 0 {
		return errors.NewConflictError("account was modified concurrently")
	}
	return nil
}
