package fiscalperiod

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brightfund/ledgercore/internal/domain/account"
	"github.com/brightfund/ledgercore/internal/domain/balance"
	"github.com/brightfund/ledgercore/internal/domain/errors"
	"github.com/brightfund/ledgercore/internal/domain/organization"
	"github.com/brightfund/ledgercore/internal/domain/transaction"
	"github.com/brightfund/ledgercore/internal/domain/version"
)

// Test implementations of the repositories

type testOrgRepo struct {
	orgs map[uuid.UUID]*organization.Organization
}

func newTestOrgRepo() *testOrgRepo {
	return &testOrgRepo{orgs: make(map[uuid.UUID]*organization.Organization)}
}

func (r *testOrgRepo) CreateOrganization(ctx context.Context, org *organization.Organization) error {
	r.orgs[org.ID] = org
	return nil
}

func (r *testOrgRepo) GetOrganization(ctx context.Context, orgID uuid.UUID, f version.Filter) (*organization.Organization, error) {
	org, ok := r.orgs[orgID]
	if !ok {
		return nil, errors.NewNotFoundError("organization not found")
	}
	copied := *org
	return &copied, nil
}

func (r *testOrgRepo) UpdateOrganization(ctx context.Context, current *organization.Organization, req *organization.UpdateOrganizationRequest, asOf time.Time, actorID, reason string) (*organization.Organization, error) {
	return current, nil
}

func (r *testOrgRepo) SoftDeleteOrganization(ctx context.Context, current *organization.Organization, asOf time.Time, actorID string) (*organization.Organization, error) {
	return current, nil
}

func (r *testOrgRepo) CreateContact(ctx context.Context, c *organization.Contact) error { return nil }

func (r *testOrgRepo) GetContact(ctx context.Context, orgID, contactID uuid.UUID, f version.Filter) (*organization.Contact, error) {
	return nil, errors.NewNotFoundError("contact not found")
}

func (r *testOrgRepo) ListContacts(ctx context.Context, orgID uuid.UUID, kind organization.ContactKind) ([]organization.Contact, error) {
	return nil, nil
}

func (r *testOrgRepo) UpdateContact(ctx context.Context, current *organization.Contact, req *organization.UpdateContactRequest, asOf time.Time, actorID, reason string) (*organization.Contact, error) {
	return current, nil
}

func (r *testOrgRepo) SoftDeleteContact(ctx context.Context, current *organization.Contact, asOf time.Time, actorID string) (*organization.Contact, error) {
	return current, nil
}

func (r *testOrgRepo) CreateMembership(ctx context.Context, m *organization.Membership) error {
	return nil
}

func (r *testOrgRepo) GetMembership(ctx context.Context, orgID uuid.UUID, userID string) (*organization.Membership, error) {
	return nil, errors.NewNotFoundError("membership not found")
}

func (r *testOrgRepo) ListMemberships(ctx context.Context, orgID uuid.UUID) ([]organization.Membership, error) {
	return nil, nil
}

func (r *testOrgRepo) UpdateMembershipRole(ctx context.Context, current *organization.Membership, role organization.Role, asOf time.Time, actorID string) (*organization.Membership, error) {
	return current, nil
}

func (r *testOrgRepo) SoftDeleteMembership(ctx context.Context, current *organization.Membership, asOf time.Time, actorID string) (*organization.Membership, error) {
	return current, nil
}

type testAccountRepo struct {
	accounts map[uuid.UUID]*account.Account
}

func newTestAccountRepo() *testAccountRepo {
	return &testAccountRepo{accounts: make(map[uuid.UUID]*account.Account)}
}

func (r *testAccountRepo) add(orgID uuid.UUID, code string, t account.Type, bal int64) *account.Account {
	acct := &account.Account{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Code:           code,
		Name:           code,
		Type:           t,
		CurrentBalance: decimal.NewFromInt(bal),
		IsActive:       true,
		Meta:           version.NewMeta(time.Now().UTC(), "test", "created"),
	}
	r.accounts[acct.ID] = acct
	return acct
}

func (r *testAccountRepo) Create(ctx context.Context, acct *account.Account) error {
	r.accounts[acct.ID] = acct
	return nil
}

func (r *testAccountRepo) Get(ctx context.Context, orgID, accountID uuid.UUID, f version.Filter) (*account.Account, error) {
	acct, ok := r.accounts[accountID]
	if !ok || acct.OrganizationID != orgID {
		return nil, errors.NewNotFoundError("account not found")
	}
	copied := *acct
	return &copied, nil
}

func (r *testAccountRepo) GetByCode(ctx context.Context, orgID uuid.UUID, code string) (*account.Account, error) {
	for _, acct := range r.accounts {
		if acct.OrganizationID == orgID && acct.Code == code {
			copied := *acct
			return &copied, nil
		}
	}
	return nil, errors.NewNotFoundError("account not found")
}

func (r *testAccountRepo) List(ctx context.Context, orgID uuid.UUID, f account.ListFilter) ([]account.Account, error) {
	var out []account.Account
	for _, acct := range r.accounts {
		if acct.OrganizationID != orgID {
			continue
		}
		if f.ActiveOnly && !acct.IsActive {
			continue
		}
		if len(f.Types) > 0 {
			match := false
			for _, t := range f.Types {
				if acct.Type == t {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *acct)
	}
	return out, nil
}

func (r *testAccountRepo) Update(ctx context.Context, current *account.Account, req *account.UpdateAccountRequest, asOf time.Time, actorID, reason string) (*account.Account, error) {
	return current, nil
}

func (r *testAccountRepo) SoftDelete(ctx context.Context, current *account.Account, asOf time.Time, actorID string) (*account.Account, error) {
	return current, nil
}

type testTxnRepo struct {
	txns map[uuid.UUID]*transaction.Transaction
}

func newTestTxnRepo() *testTxnRepo {
	return &testTxnRepo{txns: make(map[uuid.UUID]*transaction.Transaction)}
}

func (r *testTxnRepo) CreatePosted(ctx context.Context, txn *transaction.Transaction) (*transaction.PostingResult, error) {
	r.txns[txn.ID] = txn
	return &transaction.PostingResult{Transaction: txn}, nil
}

func (r *testTxnRepo) Get(ctx context.Context, orgID, txnID uuid.UUID, f version.Filter) (*transaction.Transaction, error) {
	txn, ok := r.txns[txnID]
	if !ok || txn.OrganizationID != orgID || txn.IsDeleted {
		return nil, errors.NewNotFoundError("transaction not found")
	}
	copied := *txn
	return &copied, nil
}

func (r *testTxnRepo) List(ctx context.Context, orgID uuid.UUID, f transaction.ListFilter) ([]transaction.Transaction, error) {
	return nil, nil
}

func (r *testTxnRepo) ListUnreconciled(ctx context.Context, orgID, accountID uuid.UUID, start, end time.Time) ([]transaction.Transaction, error) {
	return nil, nil
}

func (r *testTxnRepo) UpdateAmount(ctx context.Context, current *transaction.Transaction, amount decimal.Decimal, asOf time.Time, actorID, reason string) (*transaction.PostingResult, error) {
	return nil, errors.NewInternalError("not supported in test", nil)
}

func (r *testTxnRepo) Void(ctx context.Context, current *transaction.Transaction, asOf time.Time, actorID, reason string) (*transaction.PostingResult, error) {
	return nil, errors.NewInternalError("not supported in test", nil)
}

func (r *testTxnRepo) SoftDelete(ctx context.Context, current *transaction.Transaction, asOf time.Time, actorID string) (*transaction.PostingResult, error) {
	return nil, errors.NewInternalError("not supported in test", nil)
}

func (r *testTxnRepo) SetReconciled(ctx context.Context, orgID uuid.UUID, txnIDs []uuid.UUID, reconciled bool) error {
	return nil
}

// testPeriodRepo applies closing postings to the shared account fixtures so
// close and reopen tests observe real balance movement.
type testPeriodRepo struct {
	periods  map[uuid.UUID]*FiscalPeriod
	accounts *testAccountRepo
	txnRepo  *testTxnRepo
}

func newTestPeriodRepo(accounts *testAccountRepo, txnRepo *testTxnRepo) *testPeriodRepo {
	return &testPeriodRepo{
		periods:  make(map[uuid.UUID]*FiscalPeriod),
		accounts: accounts,
		txnRepo:  txnRepo,
	}
}

func (r *testPeriodRepo) applyBalances(txn *transaction.Transaction, reverse bool) {
	debit := r.accounts.accounts[txn.DebitAccountID]
	credit := r.accounts.accounts[txn.CreditAccountID]
	if reverse {
		debit.CurrentBalance, credit.CurrentBalance = balance.Reverse(debit.Type, credit.Type, debit.CurrentBalance, credit.CurrentBalance, txn.Amount)
	} else {
		debit.CurrentBalance, credit.CurrentBalance = balance.Post(debit.Type, credit.Type, debit.CurrentBalance, credit.CurrentBalance, txn.Amount)
	}
}

func (r *testPeriodRepo) Create(ctx context.Context, p *FiscalPeriod) error {
	copied := *p
	r.periods[p.ID] = &copied
	return nil
}

func (r *testPeriodRepo) Get(ctx context.Context, orgID, periodID uuid.UUID, f version.Filter) (*FiscalPeriod, error) {
	p, ok := r.periods[periodID]
	if !ok || p.OrganizationID != orgID {
		return nil, errors.NewNotFoundError("fiscal period not found")
	}
	copied := *p
	return &copied, nil
}

func (r *testPeriodRepo) List(ctx context.Context, orgID uuid.UUID) ([]FiscalPeriod, error) {
	var out []FiscalPeriod
	for _, p := range r.periods {
		if p.OrganizationID == orgID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *testPeriodRepo) ListOverlapping(ctx context.Context, orgID uuid.UUID, start, end time.Time) ([]FiscalPeriod, error) {
	var out []FiscalPeriod
	for _, p := range r.periods {
		if p.OrganizationID == orgID && !p.StartDate.After(end) && !p.EndDate.Before(start) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *testPeriodRepo) AnyClosedCovering(ctx context.Context, orgID uuid.UUID, date time.Time) (bool, error) {
	for _, p := range r.periods {
		if p.OrganizationID == orgID && p.Status == Closed && p.Contains(date) {
			return true, nil
		}
	}
	return false, nil
}

func (r *testPeriodRepo) ExecuteClose(ctx context.Context, current *FiscalPeriod, closings []transaction.Transaction, asOf time.Time, actorID string) (*FiscalPeriod, []transaction.Transaction, error) {
	next := *current
	next.Meta = current.Meta.Successor(asOf, actorID, "period closed")
	next.Status = Closed
	next.ClosingTransactionIDs = nil
	for i := range closings {
		txn := closings[i]
		r.txnRepo.txns[txn.ID] = &txn
		r.applyBalances(&txn, false)
		next.ClosingTransactionIDs = append(next.ClosingTransactionIDs, txn.ID)
	}
	r.periods[next.ID] = &next
	return &next, closings, nil
}

func (r *testPeriodRepo) Reopen(ctx context.Context, current *FiscalPeriod, closings []*transaction.Transaction, asOf time.Time, actorID string) (*FiscalPeriod, error) {
	for _, txn := range closings {
		r.applyBalances(txn, true)
		deleted := *txn
		deleted.Meta = txn.Meta.Deletion(asOf, actorID)
		r.txnRepo.txns[deleted.ID] = &deleted
	}
	next := *current
	next.Meta = current.Meta.Successor(asOf, actorID, "period reopened")
	next.Status = Open
	r.periods[next.ID] = &next
	return &next, nil
}

type fixture struct {
	orgID   uuid.UUID
	orgs    *testOrgRepo
	accts   *testAccountRepo
	txns    *testTxnRepo
	periods *testPeriodRepo
	service *Service
	fund    *account.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	orgs := newTestOrgRepo()
	accts := newTestAccountRepo()
	txns := newTestTxnRepo()
	periods := newTestPeriodRepo(accts, txns)

	orgID := uuid.New()
	fund := accts.add(orgID, "3000", account.Equity, 0)
	orgs.orgs[orgID] = &organization.Organization{
		ID:                   orgID,
		Name:                 "Bright Fund",
		FiscalYearStartMonth: 1,
		FundBalanceAccountID: &fund.ID,
		Meta:                 version.NewMeta(time.Now().UTC(), "test", "created"),
	}

	return &fixture{
		orgID:   orgID,
		orgs:    orgs,
		accts:   accts,
		txns:    txns,
		periods: periods,
		service: NewService(periods, orgs, accts, txns, zap.NewNop()),
		fund:    fund,
	}
}

func (f *fixture) createPeriod(t *testing.T, name string, start, end time.Time) *FiscalPeriod {
	t.Helper()
	p, err := f.service.CreatePeriod(context.Background(), &CreatePeriodRequest{
		OrganizationID: f.orgID,
		Name:           name,
		StartDate:      start,
		EndDate:        end,
	}, "user-1")
	require.NoError(t, err)
	return p
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestService_CreatePeriod(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		p := f.createPeriod(t, "FY2026", date(2026, 1, 1), date(2026, 12, 31))
		assert.Equal(t, Open, p.Status)
		assert.True(t, p.Contains(date(2026, 6, 15)))
		assert.True(t, p.Contains(date(2026, 1, 1)))
		assert.True(t, p.Contains(date(2026, 12, 31)))
		assert.False(t, p.Contains(date(2027, 1, 1)))
	})

	t.Run("RejectsOverlap", func(t *testing.T) {
		f := newFixture(t)
		f.createPeriod(t, "FY2026", date(2026, 1, 1), date(2026, 12, 31))

		_, err := f.service.CreatePeriod(ctx, &CreatePeriodRequest{
			OrganizationID: f.orgID,
			Name:           "H2 2026",
			StartDate:      date(2026, 7, 1),
			EndDate:        date(2027, 6, 30),
		}, "user-1")
		require.Error(t, err)
		var appErr errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "PERIOD_OVERLAP", appErr.Code)
	})

	t.Run("RejectsInvertedRange", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.CreatePeriod(ctx, &CreatePeriodRequest{
			OrganizationID: f.orgID,
			Name:           "Backwards",
			StartDate:      date(2026, 12, 31),
			EndDate:        date(2026, 1, 1),
		}, "user-1")
		assert.Error(t, err)
	})

	t.Run("AdjacentPeriodsAllowed", func(t *testing.T) {
		f := newFixture(t)
		f.createPeriod(t, "FY2026", date(2026, 1, 1), date(2026, 12, 31))
		f.createPeriod(t, "FY2027", date(2027, 1, 1), date(2027, 12, 31))
	})
}

func TestService_PreviewClose(t *testing.T) {
	ctx := context.Background()

	t.Run("DirectionAndTotals", func(t *testing.T) {
		f := newFixture(t)
		donations := f.accts.add(f.orgID, "4000", account.Revenue, 5000)
		supplies := f.accts.add(f.orgID, "5000", account.Expense, 3000)
		p := f.createPeriod(t, "FY2026", date(2026, 1, 1), date(2026, 12, 31))

		preview, err := f.service.PreviewClose(ctx, f.orgID, p.ID)
		require.NoError(t, err)
		require.Len(t, preview.Entries, 2)

		byAccount := map[uuid.UUID]ClosingEntry{}
		for _, e := range preview.Entries {
			byAccount[e.AccountID] = e
		}
		// Positive revenue is debited away into the fund
		rev := byAccount[donations.ID]
		assert.Equal(t, donations.ID, rev.DebitAccountID)
		assert.Equal(t, f.fund.ID, rev.CreditAccountID)
		assert.True(t, rev.Amount.Equal(decimal.NewFromInt(5000)))
		// Positive expense is credited away
		exp := byAccount[supplies.ID]
		assert.Equal(t, f.fund.ID, exp.DebitAccountID)
		assert.Equal(t, supplies.ID, exp.CreditAccountID)

		assert.True(t, preview.TotalRevenue.Equal(decimal.NewFromInt(5000)))
		assert.True(t, preview.TotalExpenses.Equal(decimal.NewFromInt(3000)))
		assert.True(t, preview.NetSurplusOrDeficit.Equal(decimal.NewFromInt(2000)))
	})

	t.Run("NegativeExpenseBalanceFlipsSides", func(t *testing.T) {
		f := newFixture(t)
		// Reimbursements exceeded spending
		refunds := f.accts.add(f.orgID, "5100", account.Expense, -200)
		p := f.createPeriod(t, "FY2026", date(2026, 1, 1), date(2026, 12, 31))

		preview, err := f.service.PreviewClose(ctx, f.orgID, p.ID)
		require.NoError(t, err)
		require.Len(t, preview.Entries, 1)

		entry := preview.Entries[0]
		assert.Equal(t, refunds.ID, entry.DebitAccountID)
		assert.Equal(t, f.fund.ID, entry.CreditAccountID)
		assert.True(t, entry.Amount.Equal(decimal.NewFromInt(200)))
		// Raw signed totals: negative expenses reduce TotalExpenses
		assert.True(t, preview.TotalExpenses.Equal(decimal.NewFromInt(-200)))
		assert.True(t, preview.NetSurplusOrDeficit.Equal(decimal.NewFromInt(200)))
	})

	t.Run("ZeroBalanceAccountsSkipped", func(t *testing.T) {
		f := newFixture(t)
		f.accts.add(f.orgID, "4000", account.Revenue, 0)
		p := f.createPeriod(t, "FY2026", date(2026, 1, 1), date(2026, 12, 31))

		preview, err := f.service.PreviewClose(ctx, f.orgID, p.ID)
		require.NoError(t, err)
		assert.Empty(t, preview.Entries)
	})

	t.Run("NoFundBalanceAccountConfigured", func(t *testing.T) {
		f := newFixture(t)
		f.orgs.orgs[f.orgID].FundBalanceAccountID = nil
		f.accts.add(f.orgID, "4000", account.Revenue, 100)
		p := f.createPeriod(t, "FY2026", date(2026, 1, 1), date(2026, 12, 31))

		_, err := f.service.PreviewClose(ctx, f.orgID, p.ID)
		require.Error(t, err)
		var appErr errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "CONFIGURATION_ERROR", appErr.Code)
	})
}

func TestService_ExecuteClose(t *testing.T) {
	ctx := context.Background()

	t.Run("ZeroesAccountsIntoFund", func(t *testing.T) {
		f := newFixture(t)
		donations := f.accts.add(f.orgID, "4000", account.Revenue, 5000)
		supplies := f.accts.add(f.orgID, "5000", account.Expense, 3000)
		p := f.createPeriod(t, "FY2026", date(2026, 1, 1), date(2026, 12, 31))

		closed, err := f.service.ExecuteClose(ctx, f.orgID, p.ID, "user-1")
		require.NoError(t, err)

		assert.Equal(t, Closed, closed.Status)
		assert.Len(t, closed.ClosingTransactionIDs, 2)
		assert.True(t, donations.CurrentBalance.IsZero())
		assert.True(t, supplies.CurrentBalance.IsZero())
		assert.True(t, f.fund.CurrentBalance.Equal(decimal.NewFromInt(2000)))

		// Closing transactions are dated on the period end
		for _, id := range closed.ClosingTransactionIDs {
			txn, err := f.txns.Get(ctx, f.orgID, id, version.Filter{})
			require.NoError(t, err)
			assert.Equal(t, transaction.Closing, txn.Type)
			assert.Equal(t, p.EndDate, txn.TransactionDate)
		}
	})

	t.Run("NegativeExpenseBalance", func(t *testing.T) {
		f := newFixture(t)
		donations := f.accts.add(f.orgID, "4000", account.Revenue, 2500)
		refunds := f.accts.add(f.orgID, "5100", account.Expense, -200)
		p := f.createPeriod(t, "FY2026", date(2026, 1, 1), date(2026, 12, 31))

		_, err := f.service.ExecuteClose(ctx, f.orgID, p.ID, "user-1")
		require.NoError(t, err)

		assert.True(t, donations.CurrentBalance.IsZero())
		assert.True(t, refunds.CurrentBalance.IsZero())
		assert.True(t, f.fund.CurrentBalance.Equal(decimal.NewFromInt(2700)))
	})

	t.Run("NothingToClose", func(t *testing.T) {
		f := newFixture(t)
		p := f.createPeriod(t, "FY2026", date(2026, 1, 1), date(2026, 12, 31))

		_, err := f.service.ExecuteClose(ctx, f.orgID, p.ID, "user-1")
		require.Error(t, err)
		var appErr errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "NO_ACCOUNTS_TO_CLOSE", appErr.Code)
	})

	t.Run("AlreadyClosed", func(t *testing.T) {
		f := newFixture(t)
		f.accts.add(f.orgID, "4000", account.Revenue, 100)
		p := f.createPeriod(t, "FY2026", date(2026, 1, 1), date(2026, 12, 31))

		_, err := f.service.ExecuteClose(ctx, f.orgID, p.ID, "user-1")
		require.NoError(t, err)
		_, err = f.service.ExecuteClose(ctx, f.orgID, p.ID, "user-1")
		assert.Error(t, err)
	})

	t.Run("BlocksPostingIntoClosedDates", func(t *testing.T) {
		f := newFixture(t)
		f.accts.add(f.orgID, "4000", account.Revenue, 100)
		p := f.createPeriod(t, "FY2026", date(2026, 1, 1), date(2026, 12, 31))

		closed, err := f.service.IsDateInClosedPeriod(ctx, f.orgID, date(2026, 6, 1))
		require.NoError(t, err)
		assert.False(t, closed)

		_, err = f.service.ExecuteClose(ctx, f.orgID, p.ID, "user-1")
		require.NoError(t, err)

		closed, err = f.service.IsDateInClosedPeriod(ctx, f.orgID, date(2026, 6, 1))
		require.NoError(t, err)
		assert.True(t, closed)
	})
}

func TestService_ReopenPeriod(t *testing.T) {
	ctx := context.Background()

	t.Run("RestoresBalances", func(t *testing.T) {
		f := newFixture(t)
		donations := f.accts.add(f.orgID, "4000", account.Revenue, 5000)
		supplies := f.accts.add(f.orgID, "5000", account.Expense, 3000)
		p := f.createPeriod(t, "FY2026", date(2026, 1, 1), date(2026, 12, 31))

		closed, err := f.service.ExecuteClose(ctx, f.orgID, p.ID, "user-1")
		require.NoError(t, err)

		reopened, err := f.service.ReopenPeriod(ctx, f.orgID, p.ID, "user-1")
		require.NoError(t, err)

		assert.Equal(t, Open, reopened.Status)
		assert.True(t, donations.CurrentBalance.Equal(decimal.NewFromInt(5000)))
		assert.True(t, supplies.CurrentBalance.Equal(decimal.NewFromInt(3000)))
		assert.True(t, f.fund.CurrentBalance.IsZero())

		// The closing transactions are gone from current reads
		for _, id := range closed.ClosingTransactionIDs {
			_, err := f.txns.Get(ctx, f.orgID, id, version.Filter{})
			assert.True(t, errors.IsNotFound(err))
		}
	})

	t.Run("RejectsOpenPeriod", func(t *testing.T) {
		f := newFixture(t)
		p := f.createPeriod(t, "FY2026", date(2026, 1, 1), date(2026, 12, 31))

		_, err := f.service.ReopenPeriod(ctx, f.orgID, p.ID, "user-1")
		assert.Error(t, err)
	})

	t.Run("CloseReopenCloseIsStable", func(t *testing.T) {
		f := newFixture(t)
		donations := f.accts.add(f.orgID, "4000", account.Revenue, 1000)
		p := f.createPeriod(t, "FY2026", date(2026, 1, 1), date(2026, 12, 31))

		_, err := f.service.ExecuteClose(ctx, f.orgID, p.ID, "user-1")
		require.NoError(t, err)
		_, err = f.service.ReopenPeriod(ctx, f.orgID, p.ID, "user-1")
		require.NoError(t, err)
		_, err = f.service.ExecuteClose(ctx, f.orgID, p.ID, "user-1")
		require.NoError(t, err)

		assert.True(t, donations.CurrentBalance.IsZero())
		assert.True(t, f.fund.CurrentBalance.Equal(decimal.NewFromInt(1000)))
	})
}
