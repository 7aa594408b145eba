// Package cli implements the crafter command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mthec/crafter/internal/daemon"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "crafter",
	Short: "Autonomous crafting service",
	Long: `crafter runs an autonomous crafting worker: a priced improvement
service with a bounded work book, barter-based negotiation, and a settled
earnings ledger.

The negotiation itself happens inside the host's barter sessions; this
binary runs the completion loop and the read-only HTTP surface, and offers
offline queries against the same price curve and ledger.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.crafter/config.toml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads the configured or default config file.
func loadConfig() (daemon.Config, error) {
	return daemon.Load(configPath)
}
