package account

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightfund/ledgercore/internal/domain/version"
)

// Type classifies an account in the chart of accounts
type Type string

const (
	// Asset represents an asset account (bank, receivables)
	Asset Type = "ASSET"
	// Liability represents a liability account
	Liability Type = "LIABILITY"
	// Revenue represents a revenue account (donations, grants, dues)
	Revenue Type = "REVENUE"
	// Expense represents an expense account
	Expense Type = "EXPENSE"
	// Equity represents a fund-balance (equity) account
	Equity Type = "EQUITY"
)

// Valid reports whether t is a known account type
func (t Type) Valid() bool {
	switch t {
	case Asset, Liability, Revenue, Expense, Equity:
		return true
	}
	return false
}

// Account represents one version of an account in the chart of accounts.
// CurrentBalance is derived state: it is written only by the balance engine,
// in the same atomic unit as the posting that moves it, and is never part of
// a versioned edit.
type Account struct {
	ID              uuid.UUID       `json:"id"`
	OrganizationID  uuid.UUID       `json:"organizationId"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Type            Type            `json:"type"`
	ParentAccountID *uuid.UUID      `json:"parentAccountId,omitempty"`
	CurrentBalance  decimal.Decimal `json:"currentBalance"`
	IsActive        bool            `json:"isActive"`

	version.Meta
}

// CreateAccountRequest represents the request to create a new account
type CreateAccountRequest struct {
	OrganizationID  uuid.UUID  `json:"organizationId"`
	Code            string     `json:"code"`
	Name            string     `json:"name"`
	Type            Type       `json:"type"`
	ParentAccountID *uuid.UUID `json:"parentAccountId,omitempty"`
}

// UpdateAccountRequest represents the request to update an existing account.
// Nil fields are carried forward from the current version unchanged.
// CurrentBalance is deliberately absent: balances move only through postings.
type UpdateAccountRequest struct {
	Code            *string    `json:"code,omitempty"`
	Name            *string    `json:"name,omitempty"`
	ParentAccountID *uuid.UUID `json:"parentAccountId,omitempty"`
	IsActive        *bool      `json:"isActive,omitempty"`
}

// ListFilter represents the filtering criteria for account queries
type ListFilter struct {
	Types      []Type
	ActiveOnly bool
	Temporal   version.Filter
}
