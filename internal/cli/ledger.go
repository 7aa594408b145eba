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
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.Flags().Bool("all", false, "Include collected records")
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show the work book ledger",
	RunE:  runLedger,
}

func runLedger(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := sqlite.Open(cfg.DB.Dir)
	if err != nil {
		return err
	}
	defer db.Close()

	jobs, err := db.ListJobs()
	if err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREQUESTER\tITEM\tTARGET\tKIND\tSTATE\tPRICE\tMAIL")
	shown := 0
	for _, j := range jobs {
		if !all && j.State == domain.JobCollected {
			continue
		}
		mail := ""
		if j.MailOnCompletion {
			mail = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			shortID(j.ID), j.RequesterID, j.ItemID, j.TargetQuality,
			j.Kind, j.State, j.PriceCharged, mail)
		shown++
	}
	w.Flush()
	fmt.Printf("\n%d record(s)\n", shown)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
