package domain

// ─── Barter Session Types ───────────────────────────────────────────────────
// The four-compartment barter container is a host primitive. This module
// only consumes it through the Container interface; the host supplies the
// real implementation and its UI.

// Party identifies one side of a barter session.
type Party int

const (
	PartyWorker Party = iota
	PartyCustomer
)

// String returns the party label.
func (p Party) String() string {
	if p == PartyWorker {
		return "worker"
	}
	return "customer"
}

// Compartment addresses one of the four windows of a barter container.
type Compartment int

const (
	// OfferWorker lists selectable service options and ready-for-collection
	// items, populated by the negotiation controller.
	OfferWorker Compartment = iota
	// OfferCustomer holds items and coins the customer has submitted.
	OfferCustomer
	// AcceptToWorker holds goods that will transfer to the worker on swap.
	AcceptToWorker
	// AcceptToCustomer holds goods that will transfer to the customer on swap.
	AcceptToCustomer
)

// ─── Service Options ────────────────────────────────────────────────────────

// OptionKind classifies a selectable service option.
type OptionKind int

const (
	OptionImprove OptionKind = iota
	OptionDonate
	OptionMail
)

// ServiceOption is a transient, non-persistent marker for one selectable
// action in the offer compartment. Options are regenerated every time the
// compartment is rebuilt and destroyed at session end.
type ServiceOption struct {
	ID            string     `json:"id"`
	Kind          OptionKind `json:"kind"`
	Group         SkillGroup `json:"group,omitempty"`          // Improve options
	TargetQuality int        `json:"target_quality,omitempty"` // Improve options
	Price         Coins      `json:"price,omitempty"`          // Mail surcharge display
	Label         string     `json:"label"`
}

// ─── Trade Entries ──────────────────────────────────────────────────────────

// EntryKind classifies a row in a barter compartment.
type EntryKind int

const (
	EntryItem   EntryKind = iota // An item reference
	EntryCoins                   // A stack of coins
	EntryOption                  // A transient service option
)

// TradeEntry is one row in a barter compartment.
type TradeEntry struct {
	ID     string         `json:"id"`
	Kind   EntryKind      `json:"kind"`
	ItemID ItemID         `json:"item_id,omitempty"`
	Amount Coins          `json:"amount,omitempty"`
	Option *ServiceOption `json:"option,omitempty"`
}

// Container is the two-party, four-compartment barter primitive supplied by
// the host environment.
type Container interface {
	Add(c Compartment, e TradeEntry)
	// Remove takes an entry out of a compartment. The second return is
	// false when no entry with that ID is present.
	Remove(c Compartment, entryID string) (TradeEntry, bool)
	Entries(c Compartment) []TradeEntry
	SetSatisfied(p Party, satisfied bool)
	Satisfied(p Party) bool
	// Swap executes the ownership exchange of the two accept compartments
	// and empties them.
	Swap() error
}

// ─── Notifications ──────────────────────────────────────────────────────────

// Notice is an outbound notification produced by the negotiation controller.
// Notices are returned as values, never pushed to a UI sink, so the core
// stays deterministic and testable.
type Notice struct {
	To   Party  `json:"to"`
	Text string `json:"text"`
}
