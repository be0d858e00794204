package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightfund/ledgercore/internal/domain/account"
	"github.com/brightfund/ledgercore/internal/domain/errors"
	"github.com/brightfund/ledgercore/internal/domain/version"
)

// PeriodGuard answers whether a date falls inside a closed fiscal period.
// Satisfied by the fiscal period service; declared here so the transaction
// package does not depend on it.
type PeriodGuard interface {
	IsDateInClosedPeriod(ctx context.Context, orgID uuid.UUID, date time.Time) (bool, error)
}

// Service provides transaction posting and editing business logic
type Service struct {
	repo     Repository
	accounts account.Repository
	periods  PeriodGuard
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new transaction service
func NewService(repo Repository, accounts account.Repository, periods PeriodGuard, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		periods:  periods,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and posts a new transaction. The posting row and both
// balance adjustments commit in one atomic unit; the returned result
// carries the new balances for caller-side auditing.
func (s *Service) Create(ctx context.Context, req *CreateTransactionRequest, actorID string) (*PostingResult, error) {
	if err := s.validateCreate(ctx, req); err != nil {
		return nil, err
	}

	txn := &Transaction{
		ID:              uuid.New(),
		OrganizationID:  req.OrganizationID,
		TransactionDate: req.TransactionDate.UTC().Truncate(24 * time.Hour),
		Type:            req.Type,
		Amount:          req.Amount,
		DebitAccountID:  req.DebitAccountID,
		CreditAccountID: req.CreditAccountID,
		Description:     req.Description,
		ReferenceNumber: req.ReferenceNumber,
		ContactID:       req.ContactID,
		Meta:            version.NewMeta(s.now(), actorID, "created"),
	}

	result, err := s.repo.CreatePosted(ctx, txn)
	if err != nil {
		return nil, err
	}
	s.logger.Info("transaction posted",
		zap.String("transactionId", txn.ID.String()),
		zap.String("type", string(txn.Type)),
		zap.String("amount", txn.Amount.String()))
	return result, nil
}

func (s *Service) validateCreate(ctx context.Context, req *CreateTransactionRequest) error {
	if !req.Type.Valid() {
		return errors.NewValidationError(fmt.Sprintf("unknown transaction type %q", req.Type))
	}
	if req.Type == Closing {
		return errors.NewValidationError("closing transactions are posted by the period closer")
	}
	if !req.Amount.IsPositive() {
		return errors.NewValidationError("transaction amount must be positive")
	}
	if req.DebitAccountID == req.CreditAccountID {
		return errors.NewValidationError("debit and credit accounts must differ")
	}
	if req.TransactionDate.IsZero() {
		return errors.NewValidationError("transaction date is required")
	}

	for _, id := range []uuid.UUID{req.DebitAccountID, req.CreditAccountID} {
		acct, err := s.accounts.Get(ctx, req.OrganizationID, id, version.Filter{})
		if err != nil {
			return err
		}
		if !acct.IsActive {
			return errors.NewInvalidStateError(fmt.Sprintf("account %s is inactive", acct.Code))
		}
	}

	return s.ensureDateOpen(ctx, req.OrganizationID, req.TransactionDate)
}

func (s *Service) ensureDateOpen(ctx context.Context, orgID uuid.UUID, date time.Time) error {
	closed, err := s.periods.IsDateInClosedPeriod(ctx, orgID, date)
	if err != nil {
		return err
	}
	if closed {
		return errors.NewInvalidStateError(
			fmt.Sprintf("date %s falls inside a closed fiscal period", date.Format("2006-01-02")))
	}
	return nil
}

// Get retrieves a transaction, optionally at a historical point in time
func (s *Service) Get(ctx context.Context, orgID, txnID uuid.UUID, f version.Filter) (*Transaction, error) {
	return s.repo.Get(ctx, orgID, txnID, f)
}

// List retrieves transactions matching the filter
func (s *Service) List(ctx context.Context, orgID uuid.UUID, f ListFilter) ([]Transaction, error) {
	return s.repo.List(ctx, orgID, f)
}

// UpdateAmount applies a versioned amount edit: the old balance effect is
// reversed, the new one applied, and the version chain extended, all in one
// atomic unit.
func (s *Service) UpdateAmount(ctx context.Context, orgID, txnID uuid.UUID, amount decimal.Decimal, actorID, reason string) (*PostingResult, error) {
	if !amount.IsPositive() {
		return nil, errors.NewValidationError("transaction amount must be positive")
	}
	current, err := s.repo.Get(ctx, orgID, txnID, version.Filter{})
	if err != nil {
		return nil, err
	}
	if current.IsVoided {
		return nil, errors.NewInvalidStateError("cannot edit a voided transaction")
	}
	if current.Type == Closing {
		return nil, errors.NewInvalidStateError("closing transactions can only be undone by reopening the period")
	}
	if err := s.ensureDateOpen(ctx, orgID, current.TransactionDate); err != nil {
		return nil, err
	}

	result, err := s.repo.UpdateAmount(ctx, current, amount, s.now(), actorID, reason)
	if err != nil {
		return nil, err
	}
	s.logger.Info("transaction amount updated",
		zap.String("transactionId", txnID.String()),
		zap.String("amount", amount.String()))
	return result, nil
}

// Void reverses a transaction's balance effect and marks it voided via a
// new version. The original version is never mutated.
func (s *Service) Void(ctx context.Context, orgID, txnID uuid.UUID, actorID, reason string) (*PostingResult, error) {
	current, err := s.repo.Get(ctx, orgID, txnID, version.Filter{})
	if err != nil {
		return nil, err
	}
	if current.IsVoided {
		return nil, errors.NewInvalidStateError("transaction is already voided")
	}
	if current.Type == Closing {
		return nil, errors.NewInvalidStateError("closing transactions can only be undone by reopening the period")
	}
	if current.Reconciled {
		return nil, errors.NewInvalidStateError("cannot void a reconciled transaction")
	}
	if err := s.ensureDateOpen(ctx, orgID, current.TransactionDate); err != nil {
		return nil, err
	}

	result, err := s.repo.Void(ctx, current, s.now(), actorID, reason)
	if err != nil {
		return nil, err
	}
	s.logger.Info("transaction voided", zap.String("transactionId", txnID.String()))
	return result, nil
}

// Delete soft-deletes a transaction, reversing its balance effect
func (s *Service) Delete(ctx context.Context, orgID, txnID uuid.UUID, actorID string) error {
	current, err := s.repo.Get(ctx, orgID, txnID, version.Filter{})
	if err != nil {
		return err
	}
	if current.Type == Closing {
		return errors.NewInvalidStateError("closing transactions can only be undone by reopening the period")
	}
	if current.Reconciled {
		return errors.NewInvalidStateError("cannot delete a reconciled transaction")
	}
	if err := s.ensureDateOpen(ctx, orgID, current.TransactionDate); err != nil {
		return err
	}

	if _, err := s.repo.SoftDelete(ctx, current, s.now(), actorID); err != nil {
		return err
	}
	s.logger.Info("transaction deleted", zap.String("transactionId", txnID.String()))
	return nil
}
