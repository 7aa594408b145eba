// Package pricing implements the price-calculation curve for improvement
// work.
//
// A quote is a deterministic, side-effect-free function of the worker's
// skill, the item's starting quality, the requested target quality, the
// skill group's base rate, and the item material. It never consults session
// state.
//
// The curve switches at the skill threshold (70): apprentices below the
// threshold charge a premium that shrinks as skill grows; masters at or
// above it discount with further skill. The two curves agree exactly at the
// threshold — integer arithmetic, no floats near the seam.
package pricing

import (
	"fmt"

	"github.com/mthec/crafter/internal/domain"
)

// SkillThreshold is the skill level where the pricing curve switches.
const SkillThreshold = 70

// ─── Configuration ──────────────────────────────────────────────────────────

// Config is the static pricing snapshot. It is constructed once at startup
// and passed by reference — no ambient global state.
type Config struct {
	// BasePrices is the rate in irons per quality point of remaining work,
	// as charged exactly at the skill threshold.
	BasePrices map[domain.SkillGroup]int64

	// Multipliers maps materials to integer price multipliers. Materials
	// not listed multiply by 1.
	Multipliers map[domain.Material]int64

	// MailSurcharge is the flat fee in irons added once per committed
	// round when the mail option is selected.
	MailSurcharge domain.Coins

	// SkillCap is the global maximum quality any worker may produce.
	SkillCap int
}

// DefaultConfig returns the stock price table.
func DefaultConfig() Config {
	return Config{
		BasePrices: map[domain.SkillGroup]int64{
			domain.GroupBlacksmithing:  10,
			domain.GroupWeaponsmithing: 12,
			domain.GroupCarpentry:      8,
			domain.GroupFletching:      8,
			domain.GroupLeatherwork:    8,
			domain.GroupClothTailoring: 6,
			domain.GroupStonecutting:   12,
			domain.GroupPottery:        6,
		},
		Multipliers: map[domain.Material]int64{
			domain.MaterialAdamantine:   10,
			domain.MaterialGlimmersteel: 10,
			domain.MaterialSeryll:       10,
		},
		MailSurcharge: 10,
		SkillCap:      99,
	}
}

// ─── Engine ─────────────────────────────────────────────────────────────────

// Engine answers quote requests against an immutable config snapshot.
type Engine struct {
	cfg Config
}

// New creates a price engine over the given snapshot.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Quote prices improving an item of startQuality up to targetQuality with
// the given skill, in irons. A target at or below the starting quality
// quotes zero — there is no remaining work to charge for.
func (e *Engine) Quote(skill, startQuality, targetQuality int, group domain.SkillGroup, material domain.Material) (domain.Coins, error) {
	if skill < 1 {
		return 0, fmt.Errorf("skill %d out of range", skill)
	}
	if startQuality < 0 || targetQuality < 1 {
		return 0, fmt.Errorf("quality out of range: start=%d target=%d", startQuality, targetQuality)
	}
	base, ok := e.cfg.BasePrices[group]
	if !ok {
		return 0, fmt.Errorf("no price table entry for group %q", group)
	}

	work := int64(targetQuality - startQuality)
	if work <= 0 {
		return 0, nil
	}

	// Single truncating division, then the material multiplier, so a rare
	// material prices at an exact multiple of the plain quote.
	price := base * work * curvePercent(skill) / 100
	price *= e.Multiplier(material)
	return domain.Coins(price), nil
}

// Multiplier returns the integer price multiplier for a material (1 when
// unlisted).
func (e *Engine) Multiplier(m domain.Material) int64 {
	if mult, ok := e.cfg.Multipliers[m]; ok && mult > 0 {
		return mult
	}
	return 1
}

// MailSurcharge returns the flat per-round mail fee.
func (e *Engine) MailSurcharge() domain.Coins { return e.cfg.MailSurcharge }

// SkillCap returns the global skill cap.
func (e *Engine) SkillCap() int { return e.cfg.SkillCap }

// BasePrice returns the per-point rate for a group and whether the group is
// priced at all.
func (e *Engine) BasePrice(group domain.SkillGroup) (int64, bool) {
	base, ok := e.cfg.BasePrices[group]
	return base, ok
}

// ─── Curve ──────────────────────────────────────────────────────────────────

// curvePercent returns the per-point rate as a percentage of the base price.
// Both branches evaluate to exactly 100 at the threshold.
func curvePercent(skill int) int64 {
	if skill < SkillThreshold {
		return curveBelow(skill)
	}
	return curveAtOrAbove(skill)
}

// curveBelow is curve A: a linear premium of 3% per missing skill point.
func curveBelow(skill int) int64 {
	return 100 + 3*int64(SkillThreshold-skill)
}

// curveAtOrAbove is curve B: a hyperbolic discount of 2 denominator points
// per skill point past the threshold.
func curveAtOrAbove(skill int) int64 {
	return 10000 / (100 + 2*int64(skill-SkillThreshold))
}

// ─── Improve Steps ──────────────────────────────────────────────────────────

// Steps returns the target-quality steps offered for a skill value: every
// multiple of 10 up to the capped skill, plus one final partial step when
// the capped value is not an exact multiple of 10. The global skill cap
// bounds the highest step.
func (e *Engine) Steps(skill int) []int {
	capped := skill
	if capped > e.cfg.SkillCap {
		capped = e.cfg.SkillCap
	}
	if capped < 10 {
		if capped < 1 {
			return nil
		}
		return []int{capped}
	}

	steps := make([]int, 0, capped/10+1)
	for q := 10; q <= capped; q += 10 {
		steps = append(steps, q)
	}
	if last := steps[len(steps)-1]; capped > last {
		steps = append(steps, capped)
	}
	return steps
}
