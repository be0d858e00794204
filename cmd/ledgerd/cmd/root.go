// Package cmd provides CLI commands for ledgerd.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brightfund/ledgercore/internal/common/config"
	"github.com/brightfund/ledgercore/internal/domain/account"
	"github.com/brightfund/ledgercore/internal/domain/fiscalperiod"
	"github.com/brightfund/ledgercore/internal/domain/organization"
	"github.com/brightfund/ledgercore/internal/domain/reconciliation"
	"github.com/brightfund/ledgercore/internal/domain/transaction"
	"github.com/brightfund/ledgercore/internal/platform/sqlite"
)

var (
	dbPath string
	actor  string
	debug  bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledgerd",
	Short: "Nonprofit fund accounting ledger",
	Long: `ledgerd manages a bitemporal double-entry ledger for nonprofit
organizations: accounts, transactions, fiscal period close and bank
statement reconciliation.

Example:
  ledgerd migrate
  ledgerd close-period --org <id> --period <id> --preview
  ledgerd automatch --org <id> --statement <id>`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default from SQLITE_PATH)")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "cli", "actor id recorded on versioned writes")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createPeriodCmd)
	rootCmd.AddCommand(closePeriodCmd)
	rootCmd.AddCommand(reopenPeriodCmd)
	rootCmd.AddCommand(automatchCmd)
	rootCmd.AddCommand(statementStatusCmd)
	rootCmd.AddCommand(completeStatementCmd)
}

// app bundles the wired services behind the CLI commands
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *sqlite.Store

	organizations  *organization.Service
	accounts       *account.Service
	transactions   *transaction.Service
	periods        *fiscalperiod.Service
	reconciliation *reconciliation.Service
}

func newApp() (*app, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.SQLitePath = dbPath
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(cfg.SQLitePath, logger)
	if err != nil {
		return nil, err
	}

	factory := sqlite.NewFactory(store)
	orgRepo := factory.OrganizationRepository()
	accountRepo := factory.AccountRepository()
	txnRepo := factory.TransactionRepository()
	periodRepo := factory.FiscalPeriodRepository()
	reconRepo := factory.ReconciliationRepository()

	periods := fiscalperiod.NewService(periodRepo, orgRepo, accountRepo, txnRepo, logger)
	recon := reconciliation.NewService(reconRepo, txnRepo, accountRepo, logger)
	recon.SetFuzzyWindow(cfg.Matcher.FuzzyWindowDays)

	return &app{
		cfg:            cfg,
		logger:         logger,
		store:          store,
		organizations:  organization.NewService(orgRepo, accountRepo, logger),
		accounts:       account.NewService(accountRepo, logger),
		transactions:   transaction.NewService(txnRepo, accountRepo, periods, logger),
		periods:        periods,
		reconciliation: recon,
	}, nil
}

func (a *app) close() {
	a.store.Close()
	a.logger.Sync()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProd() && !debug {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// exitOnError prints the error and exits with a non-zero status
func exitOnError(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
