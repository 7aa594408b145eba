package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mthec/crafter/internal/domain"
	"github.com/mthec/crafter/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(earningsCmd)
	earningsCmd.Flags().IntP("recent", "n", 0, "Also show the N most recent ledger rows")
}

var earningsCmd = &cobra.Command{
	Use:   "earnings",
	Short: "Show earnings totals per account",
	RunE:  runEarnings,
}

func runEarnings(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := sqlite.Open(cfg.DB.Dir)
	if err != nil {
		return err
	}
	defer db.Close()

	totals, err := db.TotalsByAccount()
	if err != nil {
		return err
	}

	var total domain.Coins
	for _, account := range []domain.Account{domain.AccountWorker, domain.AccountUpkeep, domain.AccountTreasury} {
		amount := totals[account]
		fmt.Printf("%-10s %s\n", account, amount)
		total += amount
	}
	fmt.Printf("%-10s %s\n", "total", total)

	recent, _ := cmd.Flags().GetInt("recent")
	if recent <= 0 {
		return nil
	}
	rows, err := db.RecentEarnings(recent)
	if err != nil {
		return err
	}
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACCOUNT\tAMOUNT\tREASON\tJOB")
	for _, e := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04"), e.Account, e.Amount, e.Reason, shortID(e.JobID))
	}
	w.Flush()
	return nil
}
