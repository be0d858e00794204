package organization

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brightfund/ledgercore/internal/domain/account"
	"github.com/brightfund/ledgercore/internal/domain/errors"
	"github.com/brightfund/ledgercore/internal/domain/version"
)

// Service provides organization, contact and membership business logic
type Service struct {
	repo     Repository
	accounts account.Repository
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new organization service
func NewService(repo Repository, accounts account.Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrganization creates a new organization and an owner membership for
// the creating user.
func (s *Service) CreateOrganization(ctx context.Context, req *CreateOrganizationRequest, actorID string) (*Organization, error) {
	if req.Name == "" {
		return nil, errors.NewValidationError("organization name is required")
	}
	month := req.FiscalYearStartMonth
	if month == 0 {
		month = 1
	}
	if month < 1 || month > 12 {
		return nil, errors.NewValidationError("fiscal year start month must be between 1 and 12")
	}

	asOf := s.now()
	org := &Organization{
		ID:                   uuid.New(),
		Name:                 req.Name,
		FiscalYearStartMonth: month,
		Meta:                 version.NewMeta(asOf, actorID, "created"),
	}
	if err := s.repo.CreateOrganization(ctx, org); err != nil {
		return nil, err
	}

	owner := &Membership{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		UserID:         actorID,
		Role:           RoleOwner,
		Meta:           version.NewMeta(asOf, actorID, "created"),
	}
	if err := s.repo.CreateMembership(ctx, owner); err != nil {
		return nil, err
	}

	s.logger.Info("organization created",
		zap.String("organizationId", org.ID.String()),
		zap.String("owner", actorID))
	return org, nil
}

// GetOrganization retrieves an organization version
func (s *Service) GetOrganization(ctx context.Context, orgID uuid.UUID, f version.Filter) (*Organization, error) {
	return s.repo.GetOrganization(ctx, orgID, f)
}

// UpdateOrganization applies a versioned edit to an organization
func (s *Service) UpdateOrganization(ctx context.Context, orgID uuid.UUID, req *UpdateOrganizationRequest, actorID, reason string) (*Organization, error) {
	current, err := s.repo.GetOrganization(ctx, orgID, version.Filter{})
	if err != nil {
		return nil, err
	}
	if req.FiscalYearStartMonth != nil && (*req.FiscalYearStartMonth < 1 || *req.FiscalYearStartMonth > 12) {
		return nil, errors.NewValidationError("fiscal year start month must be between 1 and 12")
	}
	if req.FundBalanceAccountID != nil {
		if err := s.validateFundBalanceAccount(ctx, orgID, *req.FundBalanceAccountID); err != nil {
			return nil, err
		}
	}
	return s.repo.UpdateOrganization(ctx, current, req, s.now(), actorID, reason)
}

// SetFundBalanceAccount designates the equity account that period closes
// post into.
func (s *Service) SetFundBalanceAccount(ctx context.Context, orgID, accountID uuid.UUID, actorID string) (*Organization, error) {
	req := &UpdateOrganizationRequest{FundBalanceAccountID: &accountID}
	return s.UpdateOrganization(ctx, orgID, req, actorID, "fund balance account set")
}

func (s *Service) validateFundBalanceAccount(ctx context.Context, orgID, accountID uuid.UUID) error {
	acct, err := s.accounts.Get(ctx, orgID, accountID, version.Filter{})
	if err != nil {
		return err
	}
	if acct.Type != account.Equity {
		return errors.NewValidationError(
			fmt.Sprintf("fund balance account must be an equity account, %s is %s", acct.Code, acct.Type))
	}
	if !acct.IsActive {
		return errors.NewValidationError("fund balance account must be active")
	}
	return nil
}

// DeleteOrganization soft-deletes an organization
func (s *Service) DeleteOrganization(ctx context.Context, orgID uuid.UUID, actorID string) error {
	current, err := s.repo.GetOrganization(ctx, orgID, version.Filter{})
	if err != nil {
		return err
	}
	_, err = s.repo.SoftDeleteOrganization(ctx, current, s.now(), actorID)
	return err
}

// CreateContact creates a new contact
func (s *Service) CreateContact(ctx context.Context, req *CreateContactRequest, actorID string) (*Contact, error) {
	if req.Name == "" {
		return nil, errors.NewValidationError("contact name is required")
	}
	switch req.Kind {
	case Donor, Vendor, Member:
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unknown contact kind %q", req.Kind))
	}

	c := &Contact{
		ID:             uuid.New(),
		OrganizationID: req.OrganizationID,
		Kind:           req.Kind,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Notes:          req.Notes,
		Meta:           version.NewMeta(s.now(), actorID, "created"),
	}
	if err := s.repo.CreateContact(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetContact retrieves a contact version
func (s *Service) GetContact(ctx context.Context, orgID, contactID uuid.UUID, f version.Filter) (*Contact, error) {
	return s.repo.GetContact(ctx, orgID, contactID, f)
}

// ListContacts lists current contact versions, optionally by kind
func (s *Service) ListContacts(ctx context.Context, orgID uuid.UUID, kind ContactKind) ([]Contact, error) {
	return s.repo.ListContacts(ctx, orgID, kind)
}

// UpdateContact applies a versioned edit to a contact
func (s *Service) UpdateContact(ctx context.Context, orgID, contactID uuid.UUID, req *UpdateContactRequest, actorID, reason string) (*Contact, error) {
	current, err := s.repo.GetContact(ctx, orgID, contactID, version.Filter{})
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateContact(ctx, current, req, s.now(), actorID, reason)
}

// DeleteContact soft-deletes a contact
func (s *Service) DeleteContact(ctx context.Context, orgID, contactID uuid.UUID, actorID string) error {
	current, err := s.repo.GetContact(ctx, orgID, contactID, version.Filter{})
	if err != nil {
		return err
	}
	_, err = s.repo.SoftDeleteContact(ctx, current, s.now(), actorID)
	return err
}

// AddMember grants a user membership in an organization
func (s *Service) AddMember(ctx context.Context, orgID uuid.UUID, userID string, role Role, actorID string) (*Membership, error) {
	if userID == "" {
		return nil, errors.NewValidationError("user id is required")
	}
	switch role {
	case RoleOwner, RoleBookkeeper, RoleViewer:
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unknown role %q", role))
	}
	if _, err := s.repo.GetMembership(ctx, orgID, userID); err == nil {
		return nil, errors.NewValidationError("user is already a member")
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	m := &Membership{
		ID:             uuid.New(),
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		Meta:           version.NewMeta(s.now(), actorID, "created"),
	}
	if err := s.repo.CreateMembership(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ChangeMemberRole applies a versioned role change
func (s *Service) ChangeMemberRole(ctx context.Context, orgID uuid.UUID, userID string, role Role, actorID string) (*Membership, error) {
	current, err := s.repo.GetMembership(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateMembershipRole(ctx, current, role, s.now(), actorID)
}

// RemoveMember soft-deletes a membership
func (s *Service) RemoveMember(ctx context.Context, orgID uuid.UUID, userID, actorID string) error {
	current, err := s.repo.GetMembership(ctx, orgID, userID)
	if err != nil {
		return err
	}
	_, err = s.repo.SoftDeleteMembership(ctx, current, s.now(), actorID)
	return err
}
