package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brightfund/ledgercore/internal/domain/fiscalperiod"
	"github.com/brightfund/ledgercore/pkg/validator"
)

var (
	periodOrgID  string
	periodID     string
	periodName   string
	periodStart  string
	periodEnd    string
	closePreview bool
)

// createPeriodCmd represents the create-period command.
var createPeriodCmd = &cobra.Command{
	Use:   "create-period",
	Short: "Create a fiscal period",
	Long: `Create an OPEN fiscal period. Periods of one organization must
not overlap.

Example:
  ledgerd create-period --org <id> --name "FY2026" --start 2026-01-01 --end 2026-12-31`,
	Run: runCreatePeriod,
}

// closePeriodCmd represents the close-period command.
var closePeriodCmd = &cobra.Command{
	Use:   "close-period",
	Short: "Close a fiscal period",
	Long: `Close an open fiscal period: zero every revenue and expense
account into the organization's fund balance account through closing
transactions dated on the period end.

With --preview, show the closing entries without posting anything.

Example:
  ledgerd close-period --org <id> --period <id> --preview
  ledgerd close-period --org <id> --period <id>`,
	Run: runClosePeriod,
}

// reopenPeriodCmd represents the reopen-period command.
var reopenPeriodCmd = &cobra.Command{
	Use:   "reopen-period",
	Short: "Reopen a closed fiscal period",
	Long: `Reopen a closed fiscal period, reversing and removing its
closing transactions.

Example:
  ledgerd reopen-period --org <id> --period <id>`,
	Run: runReopenPeriod,
}

func init() {
	for _, c := range []*cobra.Command{createPeriodCmd, closePeriodCmd, reopenPeriodCmd} {
		c.Flags().StringVar(&periodOrgID, "org", "", "organization id")
	}
	createPeriodCmd.Flags().StringVar(&periodName, "name", "", "period name")
	createPeriodCmd.Flags().StringVar(&periodStart, "start", "", "period start date (YYYY-MM-DD)")
	createPeriodCmd.Flags().StringVar(&periodEnd, "end", "", "period end date (YYYY-MM-DD)")
	closePeriodCmd.Flags().StringVar(&periodID, "period", "", "fiscal period id")
	closePeriodCmd.Flags().BoolVar(&closePreview, "preview", false, "show closing entries without posting")
	reopenPeriodCmd.Flags().StringVar(&periodID, "period", "", "fiscal period id")
}

func runCreatePeriod(cmd *cobra.Command, args []string) {
	orgID, err := validator.UUID("--org", periodOrgID)
	exitOnError(err, "invalid arguments")
	start, err := validator.Date("--start", periodStart)
	exitOnError(err, "invalid arguments")
	end, err := validator.Date("--end", periodEnd)
	exitOnError(err, "invalid arguments")

	a, err := newApp()
	exitOnError(err, "failed to initialize")
	defer a.close()

	period, err := a.periods.CreatePeriod(context.Background(), &fiscalperiod.CreatePeriodRequest{
		OrganizationID: orgID,
		Name:           periodName,
		StartDate:      start,
		EndDate:        end,
	}, actor)
	exitOnError(err, "failed to create period")

	fmt.Printf("Created period %s (%s .. %s)\n",
		period.ID, period.StartDate.Format(validator.DateLayout), period.EndDate.Format(validator.DateLayout))
}

func runClosePeriod(cmd *cobra.Command, args []string) {
	orgID, err := validator.UUID("--org", periodOrgID)
	exitOnError(err, "invalid arguments")
	pID, err := validator.UUID("--period", periodID)
	exitOnError(err, "invalid arguments")

	a, err := newApp()
	exitOnError(err, "failed to initialize")
	defer a.close()
	ctx := context.Background()

	preview, err := a.periods.PreviewClose(ctx, orgID, pID)
	exitOnError(err, "failed to compute closing entries")

	fmt.Printf("\n=== Closing preview ===\n")
	for _, e := range preview.Entries {
		fmt.Printf("%-8s %-30s %s %s\n", e.AccountCode, e.AccountName, e.AccountType, e.Balance.String())
	}
	fmt.Printf("Total revenue:  %s\n", preview.TotalRevenue.String())
	fmt.Printf("Total expenses: %s\n", preview.TotalExpenses.String())
	fmt.Printf("Net result:     %s (into %s)\n\n", preview.NetSurplusOrDeficit.String(), preview.FundBalanceAccountName)

	if closePreview {
		return
	}

	period, err := a.periods.ExecuteClose(ctx, orgID, pID, actor)
	exitOnError(err, "failed to close period")
	fmt.Printf("Period %s closed with %d closing transactions\n", period.Name, len(period.ClosingTransactionIDs))
}

func runReopenPeriod(cmd *cobra.Command, args []string) {
	orgID, err := validator.UUID("--org", periodOrgID)
	exitOnError(err, "invalid arguments")
	pID, err := validator.UUID("--period", periodID)
	exitOnError(err, "invalid arguments")

	a, err := newApp()
	exitOnError(err, "failed to initialize")
	defer a.close()

	period, err := a.periods.ReopenPeriod(context.Background(), orgID, pID, actor)
	exitOnError(err, "failed to reopen period")
	fmt.Printf("Period %s reopened\n", period.Name)
}
