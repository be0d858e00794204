package fiscalperiod

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brightfund/ledgercore/internal/domain/transaction"
	"github.com/brightfund/ledgercore/internal/domain/version"
)

// Repository defines the interface for fiscal period data operations
type Repository interface {
	// Create inserts the head version of a new period chain
	Create(ctx context.Context, p *FiscalPeriod) error

	// Get returns the version of a period selected by the temporal filter
	Get(ctx context.Context, orgID, periodID uuid.UUID, f version.Filter) (*FiscalPeriod, error)

	// List returns the organization's current period versions ordered by
	// start date
	List(ctx context.Context, orgID uuid.UUID) ([]FiscalPeriod, error)

	// ListOverlapping returns current periods whose date range intersects
	// [start, end]
	ListOverlapping(ctx context.Context, orgID uuid.UUID, start, end time.Time) ([]FiscalPeriod, error)

	// AnyClosedCovering reports whether a current CLOSED period contains
	// the date
	AnyClosedCovering(ctx context.Context, orgID uuid.UUID, date time.Time) (bool, error)

	// ExecuteClose atomically posts every closing transaction (through the
	// balance engine), records their ids on the period, and flips the
	// period to CLOSED via a new version. Partial closes are never
	// observable.
	ExecuteClose(ctx context.Context, current *FiscalPeriod, closings []transaction.Transaction, asOf time.Time, actorID string) (*FiscalPeriod, []transaction.Transaction, error)

	// Reopen atomically reverses the balance effect of each closing
	// transaction, soft-deletes it, and flips the period back to OPEN via a
	// new version.
	Reopen(ctx context.Context, current *FiscalPeriod, closings []*transaction.Transaction, asOf time.Time, actorID string) (*FiscalPeriod, error)
}
