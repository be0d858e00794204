package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Initialize the database schema",
	Long: `Open the SQLite database and apply the schema. The schema is
idempotent, so running migrate against an existing database is safe.

Example:
  ledgerd migrate --db ./data/ledger.db`,
	Run: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) {
	a, err := newApp()
	exitOnError(err, "failed to initialize")
	defer a.close()

	fmt.Printf("Database ready at %s\n", a.cfg.SQLitePath)
}
