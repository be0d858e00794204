package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightfund/ledgercore/internal/domain/version"
)

// Repository defines the interface for transaction data operations. Every
// balance-moving method applies the posting row and both account balance
// adjustments inside one atomic unit, so a crash can never leave balances
// out of step with posted entries.
type Repository interface {
	// CreatePosted inserts the head version of a transaction and applies
	// its balance effect through the balance engine, atomically.
	CreatePosted(ctx context.Context, txn *Transaction) (*PostingResult, error)

	// Get returns the version of a transaction selected by the temporal filter
	Get(ctx context.Context, orgID, txnID uuid.UUID, f version.Filter) (*Transaction, error)

	// List returns transactions matching the filter
	List(ctx context.Context, orgID uuid.UUID, f ListFilter) ([]Transaction, error)

	// ListUnreconciled returns current, non-voided, unreconciled
	// transactions touching the account within the date range, ordered by
	// date then id. The reconciliation matcher builds its candidate pool
	// from this.
	ListUnreconciled(ctx context.Context, orgID, accountID uuid.UUID, start, end time.Time) ([]Transaction, error)

	// UpdateAmount closes the current version, appends a successor with the
	// new amount, reverses the old balance effect and applies the new one,
	// all atomically.
	UpdateAmount(ctx context.Context, current *Transaction, amount decimal.Decimal, asOf time.Time, actorID, reason string) (*PostingResult, error)

	// Void appends a voided successor version and reverses the balance
	// effect, atomically.
	Void(ctx context.Context, current *Transaction, asOf time.Time, actorID, reason string) (*PostingResult, error)

	// SoftDelete appends a deletion version and reverses the balance
	// effect, atomically.
	SoftDelete(ctx context.Context, current *Transaction, asOf time.Time, actorID string) (*PostingResult, error)

	// SetReconciled flips the reconciled working flag on the current
	// version in place. Reconciliation state is not a business edit and
	// does not grow the version chain.
	SetReconciled(ctx context.Context, orgID uuid.UUID, txnIDs []uuid.UUID, reconciled bool) error
}
