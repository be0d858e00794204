package account

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brightfund/ledgercore/internal/domain/errors"
	"github.com/brightfund/ledgercore/internal/domain/version"
)

// Service provides account-related business logic
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new account service
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateAccount creates a new account in the organization's chart of accounts
func (s *Service) CreateAccount(ctx context.Context, req *CreateAccountRequest, actorID string) (*Account, error) {
	if req.Code == "" {
		return nil, errors.NewValidationError("account code is required")
	}
	if req.Name == "" {
		return nil, errors.NewValidationError("account name is required")
	}
	if !req.Type.Valid() {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown account type %q", req.Type))
	}

	// Code must be unique among current versions within the organization
	if _, err := s.repo.GetByCode(ctx, req.OrganizationID, req.Code); err == nil {
		return nil, errors.NewValidationError(fmt.Sprintf("account code %q is already in use", req.Code))
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	if req.ParentAccountID != nil {
		parent, err := s.repo.Get(ctx, req.OrganizationID, *req.ParentAccountID, version.Filter{})
		if err != nil {
			return nil, err
		}
		if parent.Type != req.Type {
			return nil, errors.NewValidationError("parent account must have the same type")
		}
	}

	acct := &Account{
		ID:              uuid.New(),
		OrganizationID:  req.OrganizationID,
		Code:            req.Code,
		Name:            req.Name,
		Type:            req.Type,
		ParentAccountID: req.ParentAccountID,
		IsActive:        true,
		Meta:            version.NewMeta(s.now(), actorID, "created"),
	}

	if err := s.repo.Create(ctx, acct); err != nil {
		return nil, err
	}
	s.logger.Info("account created",
		zap.String("accountId", acct.ID.String()),
		zap.String("code", acct.Code),
		zap.String("type", string(acct.Type)))
	return acct, nil
}

// GetAccount retrieves an account, optionally at a historical point in time
func (s *Service) GetAccount(ctx context.Context, orgID, accountID uuid.UUID, f version.Filter) (*Account, error) {
	return s.repo.Get(ctx, orgID, accountID, f)
}

// ListAccounts retrieves accounts matching the filter
func (s *Service) ListAccounts(ctx context.Context, orgID uuid.UUID, f ListFilter) ([]Account, error) {
	return s.repo.List(ctx, orgID, f)
}

// UpdateAccount applies a versioned edit to an account. The current version
// is closed and a successor appended; a lost close race surfaces as a
// conflict the caller may retry.
func (s *Service) UpdateAccount(ctx context.Context, orgID, accountID uuid.UUID, req *UpdateAccountRequest, actorID, reason string) (*Account, error) {
	current, err := s.repo.Get(ctx, orgID, accountID, version.Filter{})
	if err != nil {
		return nil, err
	}

	if req.Code != nil && *req.Code != current.Code {
		if _, err := s.repo.GetByCode(ctx, orgID, *req.Code); err == nil {
			return nil, errors.NewValidationError(fmt.Sprintf("account code %q is already in use", *req.Code))
		} else if !errors.IsNotFound(err) {
			return nil, err
		}
	}
	if req.ParentAccountID != nil {
		if *req.ParentAccountID == accountID {
			return nil, errors.NewValidationError("account cannot be its own parent")
		}
		if _, err := s.repo.Get(ctx, orgID, *req.ParentAccountID, version.Filter{}); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, current, req, s.now(), actorID, reason)
	if err != nil {
		return nil, err
	}
	s.logger.Info("account updated",
		zap.String("accountId", accountID.String()),
		zap.String("versionId", updated.VersionID))
	return updated, nil
}

// DeactivateAccount marks an account inactive without deleting it
func (s *Service) DeactivateAccount(ctx context.Context, orgID, accountID uuid.UUID, actorID string) (*Account, error) {
	inactive := false
	return s.UpdateAccount(ctx, orgID, accountID, &UpdateAccountRequest{IsActive: &inactive}, actorID, "deactivated")
}

// DeleteAccount soft-deletes an account by appending a deletion version.
// Accounts carrying a balance cannot be deleted; the balance must be
// transferred or reversed first.
func (s *Service) DeleteAccount(ctx context.Context, orgID, accountID uuid.UUID, actorID string) error {
	current, err := s.repo.Get(ctx, orgID, accountID, version.Filter{})
	if err != nil {
		return err
	}
	if !current.CurrentBalance.IsZero() {
		return errors.NewInvalidStateError(
			fmt.Sprintf("account %s has a non-zero balance of %s", current.Code, current.CurrentBalance.String()))
	}

	if _, err := s.repo.SoftDelete(ctx, current, s.now(), actorID); err != nil {
		return err
	}
	s.logger.Info("account deleted", zap.String("accountId", accountID.String()))
	return nil
}
