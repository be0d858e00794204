package account

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brightfund/ledgercore/internal/domain/version"
)

// Repository defines the interface for account data operations. Reads apply
// the current-version predicate unless the caller passes a temporal filter.
type Repository interface {
	// Create inserts the head version of a new account chain
	Create(ctx context.Context, acct *Account) error

	// Get returns the version of an account selected by the temporal filter
	Get(ctx context.Context, orgID, accountID uuid.UUID, f version.Filter) (*Account, error)

	// GetByCode returns the current version of the account with the given code
	GetByCode(ctx context.Context, orgID uuid.UUID, code string) (*Account, error)

	// List returns accounts matching the filter
	List(ctx context.Context, orgID uuid.UUID, f ListFilter) ([]Account, error)

	// Update closes the current version and appends a successor with the
	// requested changes, atomically. Returns the new version.
	Update(ctx context.Context, current *Account, req *UpdateAccountRequest, asOf time.Time, actorID, reason string) (*Account, error)

	// SoftDelete closes the current version and appends a deletion version
	SoftDelete(ctx context.Context, current *Account, asOf time.Time, actorID string) (*Account, error)
}
