package reconciliation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineStatus is the resolution state of a statement line
type LineStatus string

const (
	LineUnmatched LineStatus = "UNMATCHED"
	LineMatched   LineStatus = "MATCHED"
	LineConfirmed LineStatus = "CONFIRMED"
	LineSkipped   LineStatus = "SKIPPED"
)

// MatchConfidence records how a line was matched
type MatchConfidence string

const (
	ConfidenceUnmatched MatchConfidence = "UNMATCHED"
	ConfidenceManual    MatchConfidence = "MANUAL"
	ConfidenceExact     MatchConfidence = "AUTO_EXACT"
	ConfidenceFuzzy     MatchConfidence = "AUTO_FUZZY"
)

// StatementStatus is the lifecycle state of an imported statement
type StatementStatus string

const (
	StatementInProgress StatementStatus = "IN_PROGRESS"
	StatementCompleted  StatementStatus = "COMPLETED"
)

// BankAccount links an external bank account to the ledger asset account
// its statement lines reconcile against.
type BankAccount struct {
	ID              uuid.UUID `json:"id"`
	OrganizationID  uuid.UUID `json:"organizationId"`
	Name            string    `json:"name"`
	LedgerAccountID uuid.UUID `json:"ledgerAccountId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// BankStatement is one imported statement: a dated set of lines for a bank
// account. Statements and their lines are reconciliation working state, not
// ledger truth, so they are mutated directly rather than versioned.
type BankStatement struct {
	ID            uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID      `json:"organizationId"`
	BankAccountID uuid.UUID       `json:"bankAccountId"`
	PeriodStart   time.Time       `json:"periodStart"`
	PeriodEnd     time.Time       `json:"periodEnd"`
	Status        StatementStatus `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
}

// StatementLine is one externally reported bank movement. IDs are ULIDs, so
// ascending id order is import order; the auto matcher depends on that for
// deterministic processing. Amount keeps the bank's sign: negative for
// money leaving the account.
type StatementLine struct {
	ID              string          `json:"id"`
	BankStatementID uuid.UUID       `json:"bankStatementId"`
	TransactionDate time.Time       `json:"transactionDate"`
	Description     string          `json:"description"`
	ReferenceNumber string          `json:"referenceNumber,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Status          LineStatus      `json:"status"`
	Confidence      MatchConfidence `json:"matchConfidence"`
	Notes           string          `json:"notes,omitempty"`
}

// ImportLine is one pre-parsed statement line. File format parsing happens
// outside the core; importers hand the matcher this shape.
type ImportLine struct {
	TransactionDate time.Time       `json:"transactionDate"`
	Description     string          `json:"description"`
	ReferenceNumber string          `json:"referenceNumber,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
}

// Match pairs a statement line with a ledger transaction for some portion
// of the line amount. The amounts of all matches for one line never exceed
// the line's absolute amount, and a transaction is never claimed by more
// than one match.
type Match struct {
	ID            string          `json:"id"`
	LineID        string          `json:"lineId"`
	TransactionID uuid.UUID       `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Confidence    MatchConfidence `json:"confidence"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Allocation is one requested manual pairing of a transaction and a
// partial amount against a line.
type Allocation struct {
	TransactionID uuid.UUID       `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
}

// ClaimedPair is one line/transaction pairing produced by an auto-match
// run, applied atomically with the rest of the run.
type ClaimedPair struct {
	Line          *StatementLine
	TransactionID uuid.UUID
	Amount        decimal.Decimal
	Confidence    MatchConfidence
}

// AutoMatchSummary reports the outcome of one auto-match pass
type AutoMatchSummary struct {
	Total        int     `json:"total"`
	ExactMatches int     `json:"exactMatches"`
	FuzzyMatches int     `json:"fuzzyMatches"`
	Unmatched    int     `json:"unmatched"`
	Matches      []Match `json:"matches"`
}
