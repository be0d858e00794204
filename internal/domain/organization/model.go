package organization

import (
	"github.com/google/uuid"

	"github.com/brightfund/ledgercore/internal/domain/version"
)

// Organization represents one version of a nonprofit organization record.
// FundBalanceAccountID designates the equity account that period closes
// post into; it must be configured before a fiscal period can close.
type Organization struct {
	ID                   uuid.UUID  `json:"id"`
	Name                 string     `json:"name"`
	FiscalYearStartMonth int        `json:"fiscalYearStartMonth"` // 1-12
	FundBalanceAccountID *uuid.UUID `json:"fundBalanceAccountId,omitempty"`

	version.Meta
}

// ContactKind classifies a contact
type ContactKind string

const (
	Donor  ContactKind = "DONOR"
	Vendor ContactKind = "VENDOR"
	Member ContactKind = "MEMBER"
)

// Contact represents one version of a donor, vendor or member record
type Contact struct {
	ID             uuid.UUID   `json:"id"`
	OrganizationID uuid.UUID   `json:"organizationId"`
	Kind           ContactKind `json:"kind"`
	Name           string      `json:"name"`
	Email          string      `json:"email,omitempty"`
	Phone          string      `json:"phone,omitempty"`
	Notes          string      `json:"notes,omitempty"`

	version.Meta
}

// Role is a membership role within an organization
type Role string

const (
	RoleOwner      Role = "OWNER"
	RoleBookkeeper Role = "BOOKKEEPER"
	RoleViewer     Role = "VIEWER"
)

// Membership represents one version of a user's membership in an
// organization. Scoping checks resolve through the current version.
type Membership struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationId"`
	UserID         string    `json:"userId"`
	Role           Role      `json:"role"`

	version.Meta
}

// CreateOrganizationRequest represents the data needed to create an organization
type CreateOrganizationRequest struct {
	Name                 string `json:"name"`
	FiscalYearStartMonth int    `json:"fiscalYearStartMonth"`
}

// UpdateOrganizationRequest carries a versioned organization edit. Nil
// fields are carried forward unchanged.
type UpdateOrganizationRequest struct {
	Name                 *string    `json:"name,omitempty"`
	FiscalYearStartMonth *int       `json:"fiscalYearStartMonth,omitempty"`
	FundBalanceAccountID *uuid.UUID `json:"fundBalanceAccountId,omitempty"`
}

// CreateContactRequest represents the data needed to create a contact
type CreateContactRequest struct {
	OrganizationID uuid.UUID   `json:"organizationId"`
	Kind           ContactKind `json:"kind"`
	Name           string      `json:"name"`
	Email          string      `json:"email,omitempty"`
	Phone          string      `json:"phone,omitempty"`
	Notes          string      `json:"notes,omitempty"`
}

// UpdateContactRequest carries a versioned contact edit
type UpdateContactRequest struct {
	Kind  *ContactKind `json:"kind,omitempty"`
	Name  *string      `json:"name,omitempty"`
	Email *string      `json:"email,omitempty"`
	Phone *string      `json:"phone,omitempty"`
	Notes *string      `json:"notes,omitempty"`
}
