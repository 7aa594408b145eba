// Package daemon holds the service configuration: a TOML file layered over
// compiled-in defaults. A missing config file is not an error — the service
// runs on defaults until one is written.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/mthec/crafter/internal/domain"
	"github.com/mthec/crafter/internal/pricing"
	"github.com/mthec/crafter/internal/settlement"
	"github.com/mthec/crafter/internal/workbook"
)

// ─── Config Structure ───────────────────────────────────────────────────────

// Config is the full service configuration.
type Config struct {
	Worker   WorkerConfig   `toml:"worker"`
	Payment  PaymentConfig  `toml:"payment"`
	Pricing  PricingConfig  `toml:"pricing"`
	WorkBook WorkBookConfig `toml:"workbook"`
	API      APIConfig      `toml:"api"`
	DB       DBConfig       `toml:"db"`
}

// WorkerConfig describes the crafting worker this service animates.
type WorkerConfig struct {
	Name      string         `toml:"name"`
	Community string         `toml:"community"`
	Skills    map[string]int `toml:"skills"` // Skill group → level
}

// PaymentConfig selects the settlement policy.
type PaymentConfig struct {
	Policy        string `toml:"policy"` // all_tax | tax_and_upkeep | for_owner
	UpkeepPercent int    `toml:"upkeep_percent"`
}

// PricingConfig overrides pricing knobs. Zero values fall back to defaults;
// base_prices entries overlay the stock table one skill group at a time.
type PricingConfig struct {
	MailSurcharge  int64            `toml:"mail_surcharge"` // Irons
	SkillCap       int              `toml:"skill_cap"`
	RareMultiplier int64            `toml:"rare_multiplier"`
	BasePrices     map[string]int64 `toml:"base_prices"` // Irons per quality point
}

// WorkBookConfig bounds the work book.
type WorkBookConfig struct {
	Capacity int `toml:"capacity"`
}

// APIConfig configures the read-only HTTP surface.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// DBConfig locates the SQLite database.
type DBConfig struct {
	Dir string `toml:"dir"`
}

// ─── Defaults ───────────────────────────────────────────────────────────────

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Worker: WorkerConfig{
			Name: "crafter",
			Skills: map[string]int{
				string(domain.GroupBlacksmithing): 50,
			},
		},
		Payment: PaymentConfig{
			Policy:        string(settlement.PolicyTaxAndUpkeep),
			UpkeepPercent: 20,
		},
		Pricing: PricingConfig{
			MailSurcharge: 10,
			SkillCap:      99,
		},
		WorkBook: WorkBookConfig{
			Capacity: workbook.DefaultCapacity,
		},
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    7316,
			Metrics: true,
		},
		DB: DBConfig{
			Dir: defaultDataDir(),
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crafter"
	}
	return filepath.Join(home, ".crafter")
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.toml")
}

// ─── Loading ────────────────────────────────────────────────────────────────

// Load reads the config file at path over the defaults. A missing file
// yields the defaults without error; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	pay := settlement.Config{
		Policy:        settlement.Policy(c.Payment.Policy),
		UpkeepPercent: c.Payment.UpkeepPercent,
	}
	if err := pay.Validate(); err != nil {
		return err
	}
	if c.WorkBook.Capacity <= 0 {
		return fmt.Errorf("workbook capacity %d must be positive", c.WorkBook.Capacity)
	}
	if c.Pricing.SkillCap <= 0 || c.Pricing.SkillCap > 100 {
		return fmt.Errorf("skill cap %d out of range", c.Pricing.SkillCap)
	}
	if c.Pricing.RareMultiplier < 0 {
		return fmt.Errorf("rare multiplier %d must not be negative", c.Pricing.RareMultiplier)
	}
	for group, rate := range c.Pricing.BasePrices {
		if rate <= 0 {
			return fmt.Errorf("base price for %q must be positive, got %d", group, rate)
		}
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api port %d out of range", c.API.Port)
	}
	for group, level := range c.Worker.Skills {
		if level < 1 || level > 100 {
			return fmt.Errorf("skill %q level %d out of range", group, level)
		}
	}
	return nil
}

// ─── Derived Values ─────────────────────────────────────────────────────────

// SettlementConfig converts the payment section.
func (c Config) SettlementConfig() settlement.Config {
	return settlement.Config{
		Policy:        settlement.Policy(c.Payment.Policy),
		UpkeepPercent: c.Payment.UpkeepPercent,
	}
}

// PricingConfig converts the pricing section, overlaying non-zero knobs on
// the stock price tables.
func (c Config) PricingConfig() pricing.Config {
	pc := pricing.DefaultConfig()
	if c.Pricing.MailSurcharge > 0 {
		pc.MailSurcharge = domain.Coins(c.Pricing.MailSurcharge)
	}
	if c.Pricing.SkillCap > 0 {
		pc.SkillCap = c.Pricing.SkillCap
	}
	for group, rate := range c.Pricing.BasePrices {
		pc.BasePrices[domain.SkillGroup(group)] = rate
	}
	if c.Pricing.RareMultiplier > 0 {
		for material := range pc.Multipliers {
			pc.Multipliers[material] = c.Pricing.RareMultiplier
		}
	}
	return pc
}

// BuildWorker constructs the domain worker from the worker section.
func (c Config) BuildWorker() *domain.Worker {
	skills := make(map[domain.SkillGroup]int, len(c.Worker.Skills))
	for group, level := range c.Worker.Skills {
		skills[domain.SkillGroup(group)] = level
	}
	return &domain.Worker{
		ID:          domain.WorkerID(c.Worker.Name),
		Name:        c.Worker.Name,
		Skills:      skills,
		CommunityID: c.Worker.Community,
	}
}
