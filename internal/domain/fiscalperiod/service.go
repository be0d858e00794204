package fiscalperiod

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brightfund/ledgercore/internal/domain/account"
	"github.com/brightfund/ledgercore/internal/domain/errors"
	"github.com/brightfund/ledgercore/internal/domain/organization"
	"github.com/brightfund/ledgercore/internal/domain/transaction"
	"github.com/brightfund/ledgercore/internal/domain/version"
)

// Service computes, posts and reverses fiscal period closing entries
type Service struct {
	repo         Repository
	orgs         organization.Repository
	accounts     account.Repository
	transactions transaction.Repository
	logger       *zap.Logger
	now          func() time.Time
}

// NewService creates a new fiscal period service
func NewService(repo Repository, orgs organization.Repository, accounts account.Repository, transactions transaction.Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:         repo,
		orgs:         orgs,
		accounts:     accounts,
		transactions: transactions,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CreatePeriod creates a fiscal period after checking it does not intersect
// any existing period of the organization.
func (s *Service) CreatePeriod(ctx context.Context, req *CreatePeriodRequest, actorID string) (*FiscalPeriod, error) {
	if req.Name == "" {
		return nil, errors.NewValidationError("period name is required")
	}
	start := req.StartDate.UTC().Truncate(24 * time.Hour)
	end := req.EndDate.UTC().Truncate(24 * time.Hour)
	if start.IsZero() || end.IsZero() {
		return nil, errors.NewValidationError("period start and end dates are required")
	}
	if end.Before(start) {
		return nil, errors.NewValidationError("period end date must not precede start date")
	}

	overlapping, err := s.repo.ListOverlapping(ctx, req.OrganizationID, start, end)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		other := overlapping[0]
		return nil, errors.NewOverlapError(
			fmt.Sprintf("period intersects %q (%s to %s)",
				other.Name, other.StartDate.Format("2006-01-02"), other.EndDate.Format("2006-01-02"))).
			WithDetail("conflictingPeriodId", other.ID.String())
	}

	p := &FiscalPeriod{
		ID:             uuid.New(),
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		StartDate:      start,
		EndDate:        end,
		Status:         Open,
		Meta:           version.NewMeta(s.now(), actorID, "created"),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("fiscal period created",
		zap.String("periodId", p.ID.String()),
		zap.String("name", p.Name))
	return p, nil
}

// GetPeriod retrieves a fiscal period version
func (s *Service) GetPeriod(ctx context.Context, orgID, periodID uuid.UUID, f version.Filter) (*FiscalPeriod, error) {
	return s.repo.Get(ctx, orgID, periodID, f)
}

// ListPeriods lists the organization's fiscal periods
func (s *Service) ListPeriods(ctx context.Context, orgID uuid.UUID) ([]FiscalPeriod, error) {
	return s.repo.List(ctx, orgID)
}

// IsDateInClosedPeriod reports whether the date falls inside a CLOSED
// period. Transaction writes consult this before accepting a posting.
func (s *Service) IsDateInClosedPeriod(ctx context.Context, orgID uuid.UUID, date time.Time) (bool, error) {
	return s.repo.AnyClosedCovering(ctx, orgID, date)
}

// PreviewClose computes the closing entries that ExecuteClose would post,
// without writing anything.
func (s *Service) PreviewClose(ctx context.Context, orgID, periodID uuid.UUID) (*ClosePreview, error) {
	period, err := s.repo.Get(ctx, orgID, periodID, version.Filter{})
	if err != nil {
		return nil, err
	}
	if period.Status != Open {
		return nil, errors.NewInvalidStateError(fmt.Sprintf("period %q is already closed", period.Name))
	}

	fund, err := s.fundBalanceAccount(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return s.buildPreview(ctx, orgID, fund)
}

func (s *Service) fundBalanceAccount(ctx context.Context, orgID uuid.UUID) (*account.Account, error) {
	org, err := s.orgs.GetOrganization(ctx, orgID, version.Filter{})
	if err != nil {
		return nil, err
	}
	if org.FundBalanceAccountID == nil {
		return nil, errors.NewConfigurationError("organization has no fund balance account configured")
	}
	return s.accounts.Get(ctx, orgID, *org.FundBalanceAccountID, version.Filter{})
}

func (s *Service) buildPreview(ctx context.Context, orgID uuid.UUID, fund *account.Account) (*ClosePreview, error) {
	accts, err := s.accounts.List(ctx, orgID, account.ListFilter{
		Types:      []account.Type{account.Revenue, account.Expense},
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}

	preview := &ClosePreview{FundBalanceAccountName: fund.Name}
	for _, acct := range accts {
		bal := acct.CurrentBalance
		if acct.Type == account.Revenue {
			preview.TotalRevenue = preview.TotalRevenue.Add(bal)
		} else {
			preview.TotalExpenses = preview.TotalExpenses.Add(bal)
		}
		if bal.IsZero() {
			continue
		}

		entry := ClosingEntry{
			AccountID:   acct.ID,
			AccountCode: acct.Code,
			AccountName: acct.Name,
			AccountType: acct.Type,
			Balance:     bal,
			Amount:      bal.Abs(),
		}
		// The debit/credit direction is whichever zeroes the account:
		// positive revenue is debited away, positive expense credited
		// away; negative balances flip the sides.
		zeroesWithDebit := (acct.Type == account.Revenue) == bal.IsPositive()
		if zeroesWithDebit {
			entry.DebitAccountID = acct.ID
			entry.CreditAccountID = fund.ID
		} else {
			entry.DebitAccountID = fund.ID
			entry.CreditAccountID = acct.ID
		}
		preview.Entries = append(preview.Entries, entry)
	}

	preview.NetSurplusOrDeficit = preview.TotalRevenue.Sub(preview.TotalExpenses)
	return preview, nil
}

// ExecuteClose re-derives the closing entries, posts one CLOSING
// transaction per entry, records the transaction ids on the period and
// flips it to CLOSED, all in one atomic unit.
func (s *Service) ExecuteClose(ctx context.Context, orgID, periodID uuid.UUID, actorID string) (*FiscalPeriod, error) {
	period, err := s.repo.Get(ctx, orgID, periodID, version.Filter{})
	if err != nil {
		return nil, err
	}
	if period.Status != Open {
		return nil, errors.NewInvalidStateError(fmt.Sprintf("period %q is already closed", period.Name))
	}

	fund, err := s.fundBalanceAccount(ctx, orgID)
	if err != nil {
		return nil, err
	}
	preview, err := s.buildPreview(ctx, orgID, fund)
	if err != nil {
		return nil, err
	}
	if len(preview.Entries) == 0 {
		return nil, errors.NewNoAccountsError("no revenue or expense accounts with a balance to close")
	}

	asOf := s.now()
	closings := make([]transaction.Transaction, 0, len(preview.Entries))
	for _, entry := range preview.Entries {
		closings = append(closings, transaction.Transaction{
			ID:              uuid.New(),
			OrganizationID:  orgID,
			TransactionDate: period.EndDate,
			Type:            transaction.Closing,
			Amount:          entry.Amount,
			DebitAccountID:  entry.DebitAccountID,
			CreditAccountID: entry.CreditAccountID,
			Description:     fmt.Sprintf("Closing entry for %s (%s)", entry.AccountName, period.Name),
			Meta:            version.NewMeta(asOf, actorID, "period close"),
		})
	}

	closed, posted, err := s.repo.ExecuteClose(ctx, period, closings, asOf, actorID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("fiscal period closed",
		zap.String("periodId", periodID.String()),
		zap.Int("closingEntries", len(posted)),
		zap.String("netSurplusOrDeficit", preview.NetSurplusOrDeficit.String()))
	return closed, nil
}

// ReopenPeriod exactly undoes ExecuteClose: every closing transaction's
// balance effect is reversed and the transaction soft-deleted, then the
// period returns to OPEN.
func (s *Service) ReopenPeriod(ctx context.Context, orgID, periodID uuid.UUID, actorID string) (*FiscalPeriod, error) {
	period, err := s.repo.Get(ctx, orgID, periodID, version.Filter{})
	if err != nil {
		return nil, err
	}
	if period.Status != Closed {
		return nil, errors.NewInvalidStateError(fmt.Sprintf("period %q is not closed", period.Name))
	}

	closings := make([]*transaction.Transaction, 0, len(period.ClosingTransactionIDs))
	for _, id := range period.ClosingTransactionIDs {
		txn, err := s.transactions.Get(ctx, orgID, id, version.Filter{})
		if err != nil {
			return nil, err
		}
		closings = append(closings, txn)
	}

	reopened, err := s.repo.Reopen(ctx, period, closings, s.now(), actorID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("fiscal period reopened",
		zap.String("periodId", periodID.String()),
		zap.Int("reversedEntries", len(closings)))
	return reopened, nil
}
