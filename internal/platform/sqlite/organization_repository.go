package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brightfund/ledgercore/internal/domain/errors"
	"github.com/brightfund/ledgercore/internal/domain/organization"
	"github.com/brightfund/ledgercore/internal/domain/version"
)

// OrganizationRepository implements organization.Repository on SQLite
type OrganizationRepository struct {
	store *Store
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(store *Store) *OrganizationRepository {
	return &OrganizationRepository{store: store}
}

const organizationColumns = metaColumns + `, id, name, fiscal_year_start_month, fund_balance_account_id`

func scanOrganization(s scanner) (*organization.Organization, error) {
	var mr metaRow
	var (
		id, name string
		month    int
		fundID   sql.NullString
	)
	dest := append(mr.dest(), &id, &name, &month, &fundID)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	org := &organization.Organization{
		ID:                   uuid.MustParse(id),
		Name:                 name,
		FiscalYearStartMonth: month,
		Meta:                 mr.toMeta(),
	}
	if fundID.Valid {
		fid := uuid.MustParse(fundID.String)
		org.FundBalanceAccountID = &fid
	}
	return org, nil
}

func insertOrganization(ctx context.Context, q dbtx, o *organization.Organization) error {
	args := append(metaValues(o.Meta),
		o.ID.String(), o.Name, o.FiscalYearStartMonth, uuidPtr(o.FundBalanceAccountID))
	_, err := q.ExecContext(ctx,
		"INSERT INTO organizations ("+organizationColumns+") VALUES ("+metaPlaceholders+", ?, ?, ?, ?)",
		args...)
	if err != nil {
		return errors.NewInternalError("failed to insert organization version", err)
	}
	return nil
}

// CreateOrganization inserts the head version of a new organization chain
func (r *OrganizationRepository) CreateOrganization(ctx context.Context, org *organization.Organization) error {
	return insertOrganization(ctx, r.store.db, org)
}

// GetOrganization returns the version selected by the temporal filter
func (r *OrganizationRepository) GetOrganization(ctx context.Context, orgID uuid.UUID, f version.Filter) (*organization.Organization, error) {
	clause, args := temporalClause(f)
	query := fmt.Sprintf("SELECT %s FROM organizations WHERE id = ? AND %s", organizationColumns, clause)
	args = append([]any{orgID.String()}, args...)

	org, err := scanOrganization(r.store.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("organization not found")
	}
	if err != nil {
		return nil, errors.NewInternalError("failed to query organization", err)
	}
	return org, nil
}

// UpdateOrganization closes the current version and appends a successor
// with the requested changes, atomically.
func (r *OrganizationRepository) UpdateOrganization(ctx context.Context, current *organization.Organization, req *organization.UpdateOrganizationRequest, asOf time.Time, actorID, reason string) (*organization.Organization, error) {
	next := *current
	next.Meta = current.Meta.Successor(asOf, actorID, reason)
	if req.Name != nil {
		next.Name = *req.Name
	}
	if req.FiscalYearStartMonth != nil {
		next.FiscalYearStartMonth = *req.FiscalYearStartMonth
	}
	if req.FundBalanceAccountID != nil {
		next.FundBalanceAccountID = req.FundBalanceAccountID
	}

	err := r.store.transact(ctx, func(tx *sql.Tx) error {
		if err := closeVersion(ctx, tx, "organizations", current.VersionID, asOf, "organization"); err != nil {
			return err
		}
		return insertOrganization(ctx, tx, &next)
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// SoftDeleteOrganization closes the current version and appends a deletion
// version.
func (r *OrganizationRepository) SoftDeleteOrganization(ctx context.Context, current *organization.Organization, asOf time.Time, actorID string) (*organization.Organization, error) {
	next := *current
	next.Meta = current.Meta.Deletion(asOf, actorID)

	err := r.store.transact(ctx, func(tx *sql.Tx) error {
		if err := closeVersion(ctx, tx, "organizations", current.VersionID, asOf, "organization"); err != nil {
			return err
		}
		return insertOrganization(ctx, tx, &next)
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

const contactColumns = metaColumns + `, id, organization_id, kind, name, email, phone, notes`

func scanContact(s scanner) (*organization.Contact, error) {
	var mr metaRow
	var (
		id, orgID, kind, name string
		email, phone, notes   sql.NullString
	)
	dest := append(mr.dest(), &id, &orgID, &kind, &name, &email, &phone, &notes)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	return &organization.Contact{
		ID:             uuid.MustParse(id),
		OrganizationID: uuid.MustParse(orgID),
		Kind:           organization.ContactKind(kind),
		Name:           name,
		Email:          email.String,
		Phone:          phone.String,
		Notes:          notes.String,
		Meta:           mr.toMeta(),
	}, nil
}

func insertContact(ctx context.Context, q dbtx, c *organization.Contact) error {
	args := append(metaValues(c.Meta),
		c.ID.String(), c.OrganizationID.String(), string(c.Kind), c.Name,
		nullString(c.Email), nullString(c.Phone), nullString(c.Notes))
	_, err := q.ExecContext(ctx,
		"INSERT INTO contacts ("+contactColumns+") VALUES ("+metaPlaceholders+", ?, ?, ?, ?, ?, ?, ?)",
		args...)
	if err != nil {
		return errors.NewInternalError("failed to insert contact version", err)
	}
	return nil
}

// CreateContact inserts the head version of a new contact chain
func (r *OrganizationRepository) CreateContact(ctx context.Context, c *organization.Contact) error {
	return insertContact(ctx, r.store.db, c)
}

// GetContact returns the version selected by the temporal filter
func (r *OrganizationRepository) GetContact(ctx context.Context, orgID, contactID uuid.UUID, f version.Filter) (*organization.Contact, error) {
	clause, args := temporalClause(f)
	query := fmt.Sprintf("SELECT %s FROM contacts WHERE id = ? AND organization_id = ? AND %s", contactColumns, clause)
	args = append([]any{contactID.String(), orgID.String()}, args...)

	c, err := scanContact(r.store.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("contact not found")
	}
	if err != nil {
		return nil, errors.NewInternalError("failed to query contact", err)
	}
	return c, nil
}

// ListContacts lists current contact versions, optionally by kind
func (r *OrganizationRepository) ListContacts(ctx context.Context, orgID uuid.UUID, kind organization.ContactKind) ([]organization.Contact, error) {
	clause, args := temporalClause(version.Filter{})
	query := fmt.Sprintf("SELECT %s FROM contacts WHERE organization_id = ? AND %s", contactColumns, clause)
	args = append([]any{orgID.String()}, args...)
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY name ASC"

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternalError("failed to query contacts", err)
	}
	defer rows.Close()

	var contacts []organization.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, errors.NewInternalError("failed to scan contact", err)
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

// UpdateContact closes the current version and appends a successor
func (r *OrganizationRepository) UpdateContact(ctx context.Context, current *organization.Contact, req *organization.UpdateContactRequest, asOf time.Time, actorID, reason string) (*organization.Contact, error) {
	next := *current
	next.Meta = current.Meta.Successor(asOf, actorID, reason)
	if req.Kind != nil {
		next.Kind = *req.Kind
	}
	if req.Name != nil {
		next.Name = *req.Name
	}
	if req.Email != nil {
		next.Email = *req.Email
	}
	if req.Phone != nil {
		next.Phone = *req.Phone
	}
	if req.Notes != nil {
		next.Notes = *req.Notes
	}

	err := r.store.transact(ctx, func(tx *sql.Tx) error {
		if err := closeVersion(ctx, tx, "contacts", current.VersionID, asOf, "contact"); err != nil {
			return err
		}
		return insertContact(ctx, tx, &next)
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// SoftDeleteContact closes the current version and appends a deletion version
func (r *OrganizationRepository) SoftDeleteContact(ctx context.Context, current *organization.Contact, asOf time.Time, actorID string) (*organization.Contact, error) {
	next := *current
	next.Meta = current.Meta.Deletion(asOf, actorID)

	err := r.store.transact(ctx, func(tx *sql.Tx) error {
		if err := closeVersion(ctx, tx, "contacts", current.VersionID, asOf, "contact"); err != nil {
			return err
		}
		return insertContact(ctx, tx, &next)
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

const membershipColumns = metaColumns + `, id, organization_id, user_id, role`

func scanMembership(s scanner) (*organization.Membership, error) {
	var mr metaRow
	var id, orgID, userID, role string
	dest := append(mr.dest(), &id, &orgID, &userID, &role)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	return &organization.Membership{
		ID:             uuid.MustParse(id),
		OrganizationID: uuid.MustParse(orgID),
		UserID:         userID,
		Role:           organization.Role(role),
		Meta:           mr.toMeta(),
	}, nil
}

func insertMembership(ctx context.Context, q dbtx, m *organization.Membership) error {
	args := append(metaValues(m.Meta),
		m.ID.String(), m.OrganizationID.String(), m.UserID, string(m.Role))
	_, err := q.ExecContext(ctx,
		"INSERT INTO memberships ("+membershipColumns+") VALUES ("+metaPlaceholders+", ?, ?, ?, ?)",
		args...)
	if err != nil {
		return errors.NewInternalError("failed to insert membership version", err)
	}
	return nil
}

// CreateMembership inserts the head version of a new membership chain
func (r *OrganizationRepository) CreateMembership(ctx context.Context, m *organization.Membership) error {
	return insertMembership(ctx, r.store.db, m)
}

// GetMembership returns the current membership of a user in an organization
func (r *OrganizationRepository) GetMembership(ctx context.Context, orgID uuid.UUID, userID string) (*organization.Membership, error) {
	clause, args := temporalClause(version.Filter{})
	query := fmt.Sprintf("SELECT %s FROM memberships WHERE organization_id = ? AND user_id = ? AND %s", membershipColumns, clause)
	args = append([]any{orgID.String(), userID}, args...)

	m, err := scanMembership(r.store.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("membership not found")
	}
	if err != nil {
		return nil, errors.NewInternalError("failed to query membership", err)
	}
	return m, nil
}

// ListMemberships lists current memberships of an organization
func (r *OrganizationRepository) ListMemberships(ctx context.Context, orgID uuid.UUID) ([]organization.Membership, error) {
	clause, args := temporalClause(version.Filter{})
	query := fmt.Sprintf("SELECT %s FROM memberships WHERE organization_id = ? AND %s ORDER BY user_id ASC", membershipColumns, clause)
	args = append([]any{orgID.String()}, args...)

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternalError("failed to query memberships", err)
	}
	defer rows.Close()

	var members []organization.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, errors.NewInternalError("failed to scan membership", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// UpdateMembershipRole closes the current version and appends a successor
// with the new role.
func (r *OrganizationRepository) UpdateMembershipRole(ctx context.Context, current *organization.Membership, role organization.Role, asOf time.Time, actorID string) (*organization.Membership, error) {
	next := *current
	next.Meta = current.Meta.Successor(asOf, actorID, "role changed")
	next.Role = role

	err := r.store.transact(ctx, func(tx *sql.Tx) error {
		if err := closeVersion(ctx, tx, "memberships", current.VersionID, asOf, "membership"); err != nil {
			return err
		}
		return insertMembership(ctx, tx, &next)
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// SoftDeleteMembership closes the current version and appends a deletion
// version.
func (r *OrganizationRepository) SoftDeleteMembership(ctx context.Context, current *organization.Membership, asOf time.Time, actorID string) (*organization.Membership, error) {
	next := *current
	next.Meta = current.Meta.Deletion(asOf, actorID)

	err := r.store.transact(ctx, func(tx *sql.Tx) error {
		if err := closeVersion(ctx, tx, "memberships", current.VersionID, asOf, "membership"); err != nil {
			return err
		}
		return insertMembership(ctx, tx, &next)
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}
