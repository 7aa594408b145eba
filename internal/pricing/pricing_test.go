package pricing

import (
	"testing"

	"github.com/mthec/crafter/internal/domain"
)

func newTestEngine() *Engine {
	return New(DefaultConfig())
}

// ─── Curve Continuity ───────────────────────────────────────────────────────

func TestCurve_ContinuousAtThreshold(t *testing.T) {
	below := curveBelow(SkillThreshold)
	above := curveAtOrAbove(SkillThreshold)
	if below != above {
		t.Fatalf("curves disagree at threshold %d: below=%d above=%d",
			SkillThreshold, below, above)
	}
	if below != 100 {
		t.Errorf("curve at threshold = %d, want 100", below)
	}
}

func TestCurve_MonotonicInSkill(t *testing.T) {
	// Higher skill never charges a higher per-point rate.
	prev := curvePercent(1)
	for skill := 2; skill <= 99; skill++ {
		cur := curvePercent(skill)
		if cur > prev {
			t.Fatalf("curvePercent(%d) = %d > curvePercent(%d) = %d",
				skill, cur, skill-1, prev)
		}
		prev = cur
	}
}

// ─── Quote Properties ───────────────────────────────────────────────────────

func TestQuote_StrictlyDecreasingInStartQuality(t *testing.T) {
	e := newTestEngine()
	const target = 70

	for _, skill := range []int{1, 30, SkillThreshold, 85, 99} {
		prev := domain.Coins(-1)
		for start := target - 1; start >= 0; start-- {
			got, err := e.Quote(skill, start, target, domain.GroupBlacksmithing, domain.MaterialIron)
			if err != nil {
				t.Fatalf("Quote(skill=%d start=%d) error: %v", skill, start, err)
			}
			if got <= prev {
				t.Fatalf("skill=%d: quote(start=%d)=%d not greater than quote(start=%d)=%d",
					skill, start, got, start+1, prev)
			}
			prev = got
		}
	}
}

func TestQuote_NoRemainingWork(t *testing.T) {
	e := newTestEngine()

	got, err := e.Quote(70, 50, 50, domain.GroupCarpentry, domain.MaterialWood)
	if err != nil {
		t.Fatalf("Quote() error: %v", err)
	}
	if got != 0 {
		t.Errorf("quote with target == start = %d, want 0", got)
	}

	got, err = e.Quote(70, 60, 50, domain.GroupCarpentry, domain.MaterialWood)
	if err != nil {
		t.Fatalf("Quote() error: %v", err)
	}
	if got != 0 {
		t.Errorf("quote with target < start = %d, want 0", got)
	}
}

func TestQuote_RareMaterialExactlyTenfold(t *testing.T) {
	e := newTestEngine()

	for _, skill := range []int{35, SkillThreshold, 93} {
		for start := 0; start < 60; start += 7 {
			plain, err := e.Quote(skill, start, 60, domain.GroupBlacksmithing, domain.MaterialIron)
			if err != nil {
				t.Fatalf("Quote(iron) error: %v", err)
			}
			rare, err := e.Quote(skill, start, 60, domain.GroupBlacksmithing, domain.MaterialAdamantine)
			if err != nil {
				t.Fatalf("Quote(adamantine) error: %v", err)
			}
			if rare != plain*10 {
				t.Errorf("skill=%d start=%d: rare quote = %d, want exactly 10x plain %d",
					skill, start, rare, plain)
			}
		}
	}
}

func TestQuote_Deterministic(t *testing.T) {
	e := newTestEngine()
	a, _ := e.Quote(48, 13, 40, domain.GroupLeatherwork, domain.MaterialLeather)
	b, _ := e.Quote(48, 13, 40, domain.GroupLeatherwork, domain.MaterialLeather)
	if a != b {
		t.Errorf("identical inputs quoted differently: %d vs %d", a, b)
	}
}

func TestQuote_UnknownGroup(t *testing.T) {
	e := newTestEngine()
	if _, err := e.Quote(70, 10, 20, domain.SkillGroup("basketry"), domain.MaterialWood); err == nil {
		t.Error("expected error for group without a price table entry")
	}
}

func TestQuote_InvalidInputs(t *testing.T) {
	e := newTestEngine()
	if _, err := e.Quote(0, 10, 20, domain.GroupPottery, domain.MaterialClay); err == nil {
		t.Error("expected error for skill 0")
	}
	if _, err := e.Quote(50, -1, 20, domain.GroupPottery, domain.MaterialClay); err == nil {
		t.Error("expected error for negative start quality")
	}
}

func TestMultiplier_DefaultsToOne(t *testing.T) {
	e := newTestEngine()
	if got := e.Multiplier(domain.MaterialIron); got != 1 {
		t.Errorf("Multiplier(iron) = %d, want 1", got)
	}
	if got := e.Multiplier(domain.MaterialGlimmersteel); got != 10 {
		t.Errorf("Multiplier(glimmersteel) = %d, want 10", got)
	}
}

// ─── Improve Steps ──────────────────────────────────────────────────────────

func TestSteps(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name  string
		skill int
		want  []int
	}{
		{"exact multiple of 10", 50, []int{10, 20, 30, 40, 50}},
		{"partial final step", 47, []int{10, 20, 30, 40, 47}},
		{"threshold skill", 70, []int{10, 20, 30, 40, 50, 60, 70}},
		{"clamped to global cap", 120, []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 99}},
		{"below first step", 7, []int{7}},
		{"single step", 10, []int{10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Steps(tt.skill)
			if len(got) != len(tt.want) {
				t.Fatalf("Steps(%d) = %v, want %v", tt.skill, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Steps(%d) = %v, want %v", tt.skill, got, tt.want)
				}
			}
		})
	}
}
