package sqlite

import (
	"github.com/brightfund/ledgercore/internal/domain/account"
	"github.com/brightfund/ledgercore/internal/domain/fiscalperiod"
	"github.com/brightfund/ledgercore/internal/domain/organization"
	"github.com/brightfund/ledgercore/internal/domain/reconciliation"
	"github.com/brightfund/ledgercore/internal/domain/transaction"
)

// Factory creates repository instances sharing one store
type Factory struct {
	store *Store
}

// NewFactory creates a new repository factory
func NewFactory(store *Store) *Factory {
	return &Factory{store: store}
}

// OrganizationRepository returns an implementation of the organization.Repository interface
func (f *Factory) OrganizationRepository() organization.Repository {
	return NewOrganizationRepository(f.store)
}

// AccountRepository returns an implementation of the account.Repository interface
func (f *Factory) AccountRepository() account.Repository {
	return NewAccountRepository(f.store)
}

// TransactionRepository returns an implementation of the transaction.Repository interface
func (f *Factory) TransactionRepository() transaction.Repository {
	return NewTransactionRepository(f.store)
}

// FiscalPeriodRepository returns an implementation of the fiscalperiod.Repository interface
func (f *Factory) FiscalPeriodRepository() fiscalperiod.Repository {
	return NewFiscalPeriodRepository(f.store)
}

// ReconciliationRepository returns an implementation of the reconciliation.Repository interface
func (f *Factory) ReconciliationRepository() reconciliation.Repository {
	return NewReconciliationRepository(f.store)
}
