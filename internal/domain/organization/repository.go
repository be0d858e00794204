package organization

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brightfund/ledgercore/internal/domain/version"
)

// Repository defines the interface for organization, contact and membership
// data operations. All versioned writes follow the read-close-append
// protocol inside one atomic unit.
type Repository interface {
	CreateOrganization(ctx context.Context, org *Organization) error
	GetOrganization(ctx context.Context, orgID uuid.UUID, f version.Filter) (*Organization, error)
	UpdateOrganization(ctx context.Context, current *Organization, req *UpdateOrganizationRequest, asOf time.Time, actorID, reason string) (*Organization, error)
	SoftDeleteOrganization(ctx context.Context, current *Organization, asOf time.Time, actorID string) (*Organization, error)

	CreateContact(ctx context.Context, c *Contact) error
	GetContact(ctx context.Context, orgID, contactID uuid.UUID, f version.Filter) (*Contact, error)
	ListContacts(ctx context.Context, orgID uuid.UUID, kind ContactKind) ([]Contact, error)
	UpdateContact(ctx context.Context, current *Contact, req *UpdateContactRequest, asOf time.Time, actorID, reason string) (*Contact, error)
	SoftDeleteContact(ctx context.Context, current *Contact, asOf time.Time, actorID string) (*Contact, error)

	CreateMembership(ctx context.Context, m *Membership) error
	GetMembership(ctx context.Context, orgID uuid.UUID, userID string) (*Membership, error)
	ListMemberships(ctx context.Context, orgID uuid.UUID) ([]Membership, error)
	UpdateMembershipRole(ctx context.Context, current *Membership, role Role, asOf time.Time, actorID string) (*Membership, error)
	SoftDeleteMembership(ctx context.Context, current *Membership, asOf time.Time, actorID string) (*Membership, error)
}
