package fiscalperiod

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightfund/ledgercore/internal/domain/account"
	"github.com/brightfund/ledgercore/internal/domain/version"
)

// Status is the lifecycle state of a fiscal period. The only legal
// transitions are OPEN -> CLOSED (close) and CLOSED -> OPEN (reopen).
type Status string

const (
	Open   Status = "OPEN"
	Closed Status = "CLOSED"
)

// FiscalPeriod represents one version of a fiscal period. Periods of the
// same organization never have intersecting date ranges.
type FiscalPeriod struct {
	ID                    uuid.UUID   `json:"id"`
	OrganizationID        uuid.UUID   `json:"organizationId"`
	Name                  string      `json:"name"`
	StartDate             time.Time   `json:"startDate"`
	EndDate               time.Time   `json:"endDate"`
	Status                Status      `json:"status"`
	ClosingTransactionIDs []uuid.UUID `json:"closingTransactionIds,omitempty"`

	version.Meta
}

// Contains reports whether the date falls inside the period's range,
// boundaries included.
func (p *FiscalPeriod) Contains(date time.Time) bool {
	d := date.UTC().Truncate(24 * time.Hour)
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}

// CreatePeriodRequest represents the data needed to create a fiscal period
type CreatePeriodRequest struct {
	OrganizationID uuid.UUID `json:"organizationId"`
	Name           string    `json:"name"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
}

// ClosingEntry is one candidate closing posting: it zeroes the balance of a
// single revenue or expense account into the fund balance account. Amount
// is always the absolute value of the account balance; the debit/credit
// direction encodes the sign.
type ClosingEntry struct {
	AccountID       uuid.UUID       `json:"accountId"`
	AccountCode     string          `json:"accountCode"`
	AccountName     string          `json:"accountName"`
	AccountType     account.Type    `json:"accountType"`
	Balance         decimal.Decimal `json:"balance"`
	DebitAccountID  uuid.UUID       `json:"debitAccountId"`
	CreditAccountID uuid.UUID       `json:"creditAccountId"`
	Amount          decimal.Decimal `json:"amount"`
}

// ClosePreview is the dry-run result of closing a period. Totals are raw
// signed balance sums, not absolute values, so a reimbursement-heavy
// expense account with a negative balance reduces TotalExpenses.
type ClosePreview struct {
	Entries                []ClosingEntry  `json:"entries"`
	TotalRevenue           decimal.Decimal `json:"totalRevenue"`
	TotalExpenses          decimal.Decimal `json:"totalExpenses"`
	NetSurplusOrDeficit    decimal.Decimal `json:"netSurplusOrDeficit"`
	FundBalanceAccountName string          `json:"fundBalanceAccountName"`
}
