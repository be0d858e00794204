package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	ulid "github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brightfund/ledgercore/internal/domain/account"
	"github.com/brightfund/ledgercore/internal/domain/errors"
	"github.com/brightfund/ledgercore/internal/domain/reconciliation"
	"github.com/brightfund/ledgercore/internal/domain/transaction"
	"github.com/brightfund/ledgercore/internal/domain/version"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedAccount(t *testing.T, repo *AccountRepository, orgID uuid.UUID, code string, typ account.Type, asOf time.Time) *account.Account {
	t.Helper()
	acct := &account.Account{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Code:           code,
		Name:           code,
		Type:           typ,
		CurrentBalance: decimal.Zero,
		IsActive:       true,
		Meta:           version.NewMeta(asOf, "tester", "created"),
	}
	require.NoError(t, repo.Create(context.Background(), acct))
	return acct
}

func seedPosting(t *testing.T, repo *TransactionRepository, orgID, debitID, creditID uuid.UUID, date time.Time, amount int64, ref string) *transaction.Transaction {
	t.Helper()
	txn := &transaction.Transaction{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		TransactionDate: date,
		Type:            transaction.Income,
		Amount:          decimal.NewFromInt(amount),
		DebitAccountID:  debitID,
		CreditAccountID: creditID,
		Description:     "seed posting",
		ReferenceNumber: ref,
		Meta:            version.NewMeta(date, "tester", "created"),
	}
	_, err := repo.CreatePosted(context.Background(), txn)
	require.NoError(t, err)
	return txn
}

func TestAccountRepository_VersionChain(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	repo := NewAccountRepository(store)
	orgID := uuid.New()

	created := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	acct := seedAccount(t, repo, orgID, "1000", account.Asset, created)

	head, err := repo.Get(ctx, orgID, acct.ID, version.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "1000", head.Code)
	assert.True(t, head.IsCurrent())

	renamed := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	newName := "Main Checking"
	updated, err := repo.Update(ctx, head, &account.UpdateAccountRequest{Name: &newName}, renamed, "tester", "renamed")
	require.NoError(t, err)
	assert.Equal(t, head.VersionID, updated.PreviousVersionID)
	assert.NotEqual(t, head.VersionID, updated.VersionID)

	// The current read sees the successor
	current, err := repo.Get(ctx, orgID, acct.ID, version.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "Main Checking", current.Name)
	assert.Equal(t, updated.VersionID, current.VersionID)

	// An as-of read before the rename sees the closed original
	before := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	old, err := repo.Get(ctx, orgID, acct.ID, version.Filter{AsOf: &before})
	require.NoError(t, err)
	assert.Equal(t, "1000", old.Name)
	assert.Equal(t, head.VersionID, old.VersionID)
	assert.True(t, old.ValidTo.Equal(renamed))

	deleted := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err = repo.SoftDelete(ctx, current, deleted, "tester")
	require.NoError(t, err)

	_, err = repo.Get(ctx, orgID, acct.ID, version.Filter{})
	assert.True(t, errors.IsNotFound(err))
}

func TestAccountRepository_ConflictOnStaleVersion(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	repo := NewAccountRepository(store)
	orgID := uuid.New()

	created := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	acct := seedAccount(t, repo, orgID, "1000", account.Asset, created)

	stale, err := repo.Get(ctx, orgID, acct.ID, version.Filter{})
	require.NoError(t, err)

	first := "First"
	_, err = repo.Update(ctx, stale, &account.UpdateAccountRequest{Name: &first},
		time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC), "tester", "renamed")
	require.NoError(t, err)

	// The second writer still holds the closed version
	second := "Second"
	_, err = repo.Update(ctx, stale, &account.UpdateAccountRequest{Name: &second},
		time.Date(2026, 1, 3, 9, 0, 0, 0, time.UTC), "tester", "renamed")
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	current, err := repo.Get(ctx, orgID, acct.ID, version.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "First", current.Name)
}

func TestTransactionRepository_PostingMovesBalances(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	accounts := NewAccountRepository(store)
	txns := NewTransactionRepository(store)
	orgID := uuid.New()

	asOf := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cash := seedAccount(t, accounts, orgID, "1000", account.Asset, asOf)
	donations := seedAccount(t, accounts, orgID, "4000", account.Revenue, asOf)

	txn := &transaction.Transaction{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		TransactionDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Type:            transaction.Income,
		Amount:          decimal.NewFromInt(500),
		DebitAccountID:  cash.ID,
		CreditAccountID: donations.ID,
		Description:     "Spring gala donations",
		Meta:            version.NewMeta(asOf, "tester", "created"),
	}
	result, err := txns.CreatePosted(ctx, txn)
	require.NoError(t, err)
	assert.True(t, result.DebitBalance.Equal(decimal.NewFromInt(500)))
	assert.True(t, result.CreditBalance.Equal(decimal.NewFromInt(500)))

	stored, err := accounts.Get(ctx, orgID, cash.ID, version.Filter{})
	require.NoError(t, err)
	assert.True(t, stored.CurrentBalance.Equal(decimal.NewFromInt(500)))

	// Voiding reverses the balance effect exactly
	current, err := txns.Get(ctx, orgID, txn.ID, version.Filter{})
	require.NoError(t, err)
	voided, err := txns.Void(ctx, current, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), "tester", "duplicate entry")
	require.NoError(t, err)
	assert.True(t, voided.Transaction.IsVoided)
	assert.True(t, voided.DebitBalance.IsZero())
	assert.True(t, voided.CreditBalance.IsZero())

	stored, err = accounts.Get(ctx, orgID, donations.ID, version.Filter{})
	require.NoError(t, err)
	assert.True(t, stored.CurrentBalance.IsZero())

	current, err = txns.Get(ctx, orgID, txn.ID, version.Filter{})
	require.NoError(t, err)
	assert.True(t, current.IsVoided)
	assert.Equal(t, txn.VersionID, current.PreviousVersionID)
}

func TestTransactionRepository_ListUnreconciled(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	accounts := NewAccountRepository(store)
	txns := NewTransactionRepository(store)
	orgID := uuid.New()

	asOf := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cash := seedAccount(t, accounts, orgID, "1000", account.Asset, asOf)
	donations := seedAccount(t, accounts, orgID, "4000", account.Revenue, asOf)

	early := seedPosting(t, txns, orgID, cash.ID, donations.ID, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), 500, "")
	late := seedPosting(t, txns, orgID, cash.ID, donations.ID, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), 250, "")
	seedPosting(t, txns, orgID, cash.ID, donations.ID, time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), 900, "")

	require.NoError(t, txns.SetReconciled(ctx, orgID, []uuid.UUID{early.ID}, true))

	pool, err := txns.ListUnreconciled(ctx, orgID, cash.ID,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, late.ID, pool[0].ID)
}

func TestReconciliationRepository_MatchClaimBackstop(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	repo := NewReconciliationRepository(store)
	orgID := uuid.New()

	ba := &reconciliation.BankAccount{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		Name:            "Community Checking",
		LedgerAccountID: uuid.New(),
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, repo.CreateBankAccount(ctx, ba))

	st := &reconciliation.BankStatement{
		ID:             uuid.New(),
		OrganizationID: orgID,
		BankAccountID:  ba.ID,
		PeriodStart:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:      time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:         reconciliation.StatementInProgress,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, repo.CreateStatement(ctx, st))

	lines := []reconciliation.StatementLine{
		{
			ID:              ulid.Make().String(),
			BankStatementID: st.ID,
			TransactionDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
			Description:     "Deposit",
			Amount:          decimal.NewFromInt(500),
			Status:          reconciliation.LineUnmatched,
			Confidence:      reconciliation.ConfidenceUnmatched,
		},
		{
			ID:              ulid.Make().String(),
			BankStatementID: st.ID,
			TransactionDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
			Description:     "Duplicate deposit",
			Amount:          decimal.NewFromInt(500),
			Status:          reconciliation.LineUnmatched,
			Confidence:      reconciliation.ConfidenceUnmatched,
		},
	}
	require.NoError(t, repo.InsertLines(ctx, lines))

	txnID := uuid.New()
	matches, err := repo.ApplyAutoMatches(ctx, []reconciliation.ClaimedPair{{
		Line:          &lines[0],
		TransactionID: txnID,
		Amount:        decimal.NewFromInt(500),
		Confidence:    reconciliation.ConfidenceExact,
	}})
	require.NoError(t, err)
	require.Len(t, matches, 1)

	// A second claim on the same transaction trips the unique constraint
	// and leaves the second line untouched.
	_, err = repo.ApplyAutoMatches(ctx, []reconciliation.ClaimedPair{{
		Line:          &lines[1],
		TransactionID: txnID,
		Amount:        decimal.NewFromInt(500),
		Confidence:    reconciliation.ConfidenceExact,
	}})
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	second, err := repo.GetLine(ctx, lines[1].ID)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.LineUnmatched, second.Status)

	// Releasing the first line's matches frees the transaction
	first, err := repo.GetLine(ctx, lines[0].ID)
	require.NoError(t, err)
	require.NoError(t, repo.DeleteMatchesForLine(ctx, first, []uuid.UUID{txnID}))

	_, err = repo.ApplyAutoMatches(ctx, []reconciliation.ClaimedPair{{
		Line:          &lines[1],
		TransactionID: txnID,
		Amount:        decimal.NewFromInt(500),
		Confidence:    reconciliation.ConfidenceExact,
	}})
	require.NoError(t, err)
}

func TestReconciliationRepository_CompleteStatementOnce(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	repo := NewReconciliationRepository(store)
	orgID := uuid.New()

	ba := &reconciliation.BankAccount{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		Name:            "Community Checking",
		LedgerAccountID: uuid.New(),
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, repo.CreateBankAccount(ctx, ba))

	st := &reconciliation.BankStatement{
		ID:             uuid.New(),
		OrganizationID: orgID,
		BankAccountID:  ba.ID,
		PeriodStart:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:      time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:         reconciliation.StatementInProgress,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, repo.CreateStatement(ctx, st))

	require.NoError(t, repo.CompleteStatement(ctx, st))

	err := repo.CompleteStatement(ctx, st)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	stored, err := repo.GetStatement(ctx, orgID, st.ID)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.StatementCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
}
