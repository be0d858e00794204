package reconciliation

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for reconciliation data operations.
// Matches and line status changes that belong to one logical operation are
// applied in one atomic unit; a unique constraint on the matched
// transaction id backstops the no-double-claim guarantee at the store.
type Repository interface {
	CreateBankAccount(ctx context.Context, ba *BankAccount) error
	GetBankAccount(ctx context.Context, orgID, bankAccountID uuid.UUID) (*BankAccount, error)
	ListBankAccounts(ctx context.Context, orgID uuid.UUID) ([]BankAccount, error)

	CreateStatement(ctx context.Context, st *BankStatement) error
	GetStatement(ctx context.Context, orgID, statementID uuid.UUID) (*BankStatement, error)

	// InsertLines bulk-inserts imported lines as UNMATCHED
	InsertLines(ctx context.Context, lines []StatementLine) error

	// ListLines returns the statement's lines in ascending id order,
	// optionally restricted to the given statuses
	ListLines(ctx context.Context, statementID uuid.UUID, statuses ...LineStatus) ([]StatementLine, error)

	GetLine(ctx context.Context, lineID string) (*StatementLine, error)

	ListMatchesForLine(ctx context.Context, lineID string) ([]Match, error)

	// ApplyAutoMatches persists a whole auto-match run atomically: one
	// full-amount match per claimed pair plus the line status flips. If any
	// claimed transaction was matched concurrently, the entire run aborts.
	ApplyAutoMatches(ctx context.Context, pairs []ClaimedPair) ([]Match, error)

	// AddManualMatches inserts manual match rows for one line and updates
	// its status, atomically
	AddManualMatches(ctx context.Context, line *StatementLine, matches []Match, newStatus LineStatus) error

	// DeleteMatchesForLine removes all of the line's matches, resets the
	// line to UNMATCHED, and clears the reconciled flag on the listed
	// transactions, atomically
	DeleteMatchesForLine(ctx context.Context, line *StatementLine, txnIDs []uuid.UUID) error

	// UpdateLineStatus sets a line's status, confidence and notes
	UpdateLineStatus(ctx context.Context, lineID string, status LineStatus, confidence MatchConfidence, notes string) error

	// ConfirmLine flips the line to CONFIRMED and marks the matched
	// transactions reconciled, atomically
	ConfirmLine(ctx context.Context, line *StatementLine, txnIDs []uuid.UUID) error

	// CountUnresolvedLines counts lines that are neither matched,
	// confirmed nor skipped
	CountUnresolvedLines(ctx context.Context, statementID uuid.UUID) (int, error)

	// CompleteStatement marks the statement finished
	CompleteStatement(ctx context.Context, st *BankStatement) error
}
