package domain

// ─── Item Types ─────────────────────────────────────────────────────────────
// Items are owned by the host environment. The work book only keeps weak
// references; "item no longer exists" is a detectable condition, never a
// crash.

// ItemID identifies an externally-owned item.
type ItemID string

// SkillGroup is a crafting category the worker may accept work in.
type SkillGroup string

const (
	GroupBlacksmithing  SkillGroup = "blacksmithing"
	GroupWeaponsmithing SkillGroup = "weaponsmithing"
	GroupCarpentry      SkillGroup = "carpentry"
	GroupFletching      SkillGroup = "fletching"
	GroupLeatherwork    SkillGroup = "leatherwork"
	GroupClothTailoring SkillGroup = "cloth_tailoring"
	GroupStonecutting   SkillGroup = "stonecutting"
	GroupPottery        SkillGroup = "pottery"
)

// Material is the substance an item is made of. Rare materials carry a
// configured price multiplier.
type Material string

const (
	MaterialIron    Material = "iron"
	MaterialSteel   Material = "steel"
	MaterialWood    Material = "wood"
	MaterialLeather Material = "leather"
	MaterialCotton  Material = "cotton"
	MaterialStone   Material = "stone"
	MaterialClay    Material = "clay"

	// Rare materials
	MaterialAdamantine   Material = "adamantine"
	MaterialGlimmersteel Material = "glimmersteel"
	MaterialSeryll       Material = "seryll"
)

// Item is a read-only snapshot of an externally-owned item.
type Item struct {
	ID       ItemID     `json:"id"`
	Name     string     `json:"name"`
	Group    SkillGroup `json:"group"`
	Material Material   `json:"material"`
	Quality  int        `json:"quality"` // Current craftsmanship level, 1–100

	NewbieItem bool `json:"newbie_item"` // Starter gear — never accepted
	NoImprove  bool `json:"no_improve"`  // Flagged improve-disabled
}

// ─── Worker ─────────────────────────────────────────────────────────────────

// WorkerID identifies a service-providing worker entity.
type WorkerID string

// Worker is the service-providing entity holding a work book.
type Worker struct {
	ID          WorkerID           `json:"id"`
	Name        string             `json:"name"`
	Skills      map[SkillGroup]int `json:"skills"` // Accepted groups → skill level
	CommunityID string             `json:"community_id,omitempty"`
}

// Skill returns the worker's skill level for a group and whether the group
// is accepted at all.
func (w *Worker) Skill(g SkillGroup) (int, bool) {
	if w == nil || w.Skills == nil {
		return 0, false
	}
	s, ok := w.Skills[g]
	return s, ok
}

// Accepts reports whether the worker takes work in the given group.
func (w *Worker) Accepts(g SkillGroup) bool {
	_, ok := w.Skill(g)
	return ok
}

// HasCommunity reports whether the worker belongs to a community whose
// upkeep fund can receive a settlement share.
func (w *Worker) HasCommunity() bool {
	return w != nil && w.CommunityID != ""
}
