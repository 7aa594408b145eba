package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mthec/crafter/internal/domain"
	"github.com/mthec/crafter/internal/pricing"
)

func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.Flags().StringP("material", "m", string(domain.MaterialIron), "Item material")
	quoteCmd.Flags().Int("skill", 0, "Override the configured worker skill")
}

var quoteCmd = &cobra.Command{
	Use:   "quote GROUP START TARGET",
	Short: "Price an improvement offline",
	Long: `Price improving an item from START to TARGET quality in the given
skill group, using the configured worker's skill and the same curve the
live negotiation uses.

Example:
  crafter quote blacksmithing 20 50
  crafter quote weaponsmithing 10 70 -m adamantine`,
	Args: cobra.ExactArgs(3),
	RunE: runQuote,
}

func runQuote(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	group := domain.SkillGroup(args[0])
	start, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("start quality %q is not an integer", args[1])
	}
	target, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("target quality %q is not an integer", args[2])
	}
	materialFlag, _ := cmd.Flags().GetString("material")
	material := domain.Material(materialFlag)

	skill, _ := cmd.Flags().GetInt("skill")
	if skill == 0 {
		var ok bool
		skill, ok = cfg.BuildWorker().Skill(group)
		if !ok {
			return fmt.Errorf("worker has no %q skill configured; pass --skill", group)
		}
	}

	pricer := pricing.New(cfg.PricingConfig())
	price, err := pricer.Quote(skill, start, target, group, material)
	if err != nil {
		return err
	}

	fmt.Printf("%s %d → %d at skill %d (%s): %s\n", group, start, target, skill, material, price)
	return nil
}
