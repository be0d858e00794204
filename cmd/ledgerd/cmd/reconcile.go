package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brightfund/ledgercore/pkg/validator"
)

var (
	reconOrgID  string
	statementID string
)

// automatchCmd represents the automatch command.
var automatchCmd = &cobra.Command{
	Use:   "automatch",
	Short: "Auto-match a bank statement",
	Long: `Run the auto matcher over a statement's unmatched lines. Lines
are matched greedily in import order against unreconciled ledger
transactions on the linked account: exact matches first (same amount and
day, compatible reference), then fuzzy matches within the configured date
window.

Example:
  ledgerd automatch --org <id> --statement <id>`,
	Run: runAutomatch,
}

// statementStatusCmd represents the statement-status command.
var statementStatusCmd = &cobra.Command{
	Use:   "statement-status",
	Short: "Show a statement's reconciliation progress",
	Long: `Show the line counts of a statement by resolution state.

Example:
  ledgerd statement-status --org <id> --statement <id>`,
	Run: runStatementStatus,
}

// completeStatementCmd represents the complete-statement command.
var completeStatementCmd = &cobra.Command{
	Use:   "complete-statement",
	Short: "Finalize a fully reconciled statement",
	Long: `Mark a statement completed. Every line must be matched,
confirmed or explicitly skipped first.

Example:
  ledgerd complete-statement --org <id> --statement <id>`,
	Run: runCompleteStatement,
}

func init() {
	for _, c := range []*cobra.Command{automatchCmd, statementStatusCmd, completeStatementCmd} {
		c.Flags().StringVar(&reconOrgID, "org", "", "organization id")
		c.Flags().StringVar(&statementID, "statement", "", "bank statement id")
	}
}

func runAutomatch(cmd *cobra.Command, args []string) {
	orgID, err := validator.UUID("--org", reconOrgID)
	exitOnError(err, "invalid arguments")
	stID, err := validator.UUID("--statement", statementID)
	exitOnError(err, "invalid arguments")

	a, err := newApp()
	exitOnError(err, "failed to initialize")
	defer a.close()

	summary, err := a.reconciliation.AutoMatchStatement(context.Background(), orgID, stID)
	exitOnError(err, "auto match failed")

	fmt.Printf("\n=== Auto match ===\n")
	fmt.Printf("Lines processed: %d\n", summary.Total)
	fmt.Printf("Exact matches:   %d\n", summary.ExactMatches)
	fmt.Printf("Fuzzy matches:   %d\n", summary.FuzzyMatches)
	fmt.Printf("Unmatched:       %d\n", summary.Unmatched)
}

func runStatementStatus(cmd *cobra.Command, args []string) {
	orgID, err := validator.UUID("--org", reconOrgID)
	exitOnError(err, "invalid arguments")
	stID, err := validator.UUID("--statement", statementID)
	exitOnError(err, "invalid arguments")

	a, err := newApp()
	exitOnError(err, "failed to initialize")
	defer a.close()
	ctx := context.Background()

	st, err := a.reconciliation.GetStatement(ctx, orgID, stID)
	exitOnError(err, "failed to load statement")
	lines, err := a.reconciliation.ListLines(ctx, orgID, stID)
	exitOnError(err, "failed to load lines")

	counts := map[string]int{}
	for _, line := range lines {
		counts[string(line.Status)]++
	}

	fmt.Printf("\n=== Statement %s ===\n", st.ID)
	fmt.Printf("Period: %s .. %s\n", st.PeriodStart.Format(validator.DateLayout), st.PeriodEnd.Format(validator.DateLayout))
	fmt.Printf("Status: %s\n", st.Status)
	fmt.Printf("Lines:  %d\n", len(lines))
	for _, status := range []string{"UNMATCHED", "MATCHED", "CONFIRMED", "SKIPPED"} {
		fmt.Printf("  %-10s %d\n", status, counts[status])
	}
}

func runCompleteStatement(cmd *cobra.Command, args []string) {
	orgID, err := validator.UUID("--org", reconOrgID)
	exitOnError(err, "invalid arguments")
	stID, err := validator.UUID("--statement", statementID)
	exitOnError(err, "invalid arguments")

	a, err := newApp()
	exitOnError(err, "failed to initialize")
	defer a.close()

	st, err := a.reconciliation.CompleteStatement(context.Background(), orgID, stID)
	exitOnError(err, "failed to complete statement")
	fmt.Printf("Statement %s completed\n", st.ID)
}
