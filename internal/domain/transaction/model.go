package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightfund/ledgercore/internal/domain/version"
)

// Type classifies a transaction
type Type string

const (
	Income   Type = "INCOME"
	Expense  Type = "EXPENSE"
	Transfer Type = "TRANSFER"
	General  Type = "GENERAL"
	// Closing marks an entry generated by a fiscal period close. Closing
	// transactions can only be undone by reopening the period.
	Closing Type = "CLOSING"
)

// Valid reports whether t is a known transaction type
func (t Type) Valid() bool {
	switch t {
	case Income, Expense, Transfer, General, Closing:
		return true
	}
	return false
}

// Transaction represents one version of a posted double-entry transaction:
// exactly one debit account and one credit account for the same positive
// amount. A reversal never mutates an existing version; it posts an
// offsetting balance adjustment and appends a new version.
type Transaction struct {
	ID              uuid.UUID       `json:"id"`
	OrganizationID  uuid.UUID       `json:"organizationId"`
	TransactionDate time.Time       `json:"transactionDate"`
	Type            Type            `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	DebitAccountID  uuid.UUID       `json:"debitAccountId"`
	CreditAccountID uuid.UUID       `json:"creditAccountId"`
	Description     string          `json:"description"`
	ReferenceNumber string          `json:"referenceNumber,omitempty"`
	ContactID       *uuid.UUID      `json:"contactId,omitempty"`
	Reconciled      bool            `json:"reconciled"`
	IsVoided        bool            `json:"isVoided"`

	version.Meta
}

// CreateTransactionRequest represents the data needed to post a transaction
type CreateTransactionRequest struct {
	OrganizationID  uuid.UUID       `json:"organizationId"`
	TransactionDate time.Time       `json:"transactionDate"`
	Type            Type            `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	DebitAccountID  uuid.UUID       `json:"debitAccountId"`
	CreditAccountID uuid.UUID       `json:"creditAccountId"`
	Description     string          `json:"description"`
	ReferenceNumber string          `json:"referenceNumber,omitempty"`
	ContactID       *uuid.UUID      `json:"contactId,omitempty"`
}

// PostingResult reports the outcome of a balance-moving write. The balances
// are returned from the same atomic unit that applied them, not re-read.
type PostingResult struct {
	Transaction   *Transaction    `json:"transaction"`
	DebitBalance  decimal.Decimal `json:"debitBalance"`
	CreditBalance decimal.Decimal `json:"creditBalance"`
}

// ListFilter represents the filtering criteria for transaction queries
type ListFilter struct {
	AccountID     *uuid.UUID
	ContactID     *uuid.UUID
	Type          Type
	StartDate     time.Time
	EndDate       time.Time
	IncludeVoided bool
	Temporal      version.Filter
}
