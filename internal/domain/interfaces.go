package domain

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// ItemStore abstracts the host's externally-owned item inventory.
// The negotiation controller and work book only ever hold weak ItemID
// references into it.
type ItemStore interface {
	// Get returns a snapshot of the item, or false if the item no longer
	// exists.
	Get(id ItemID) (Item, bool)
}

// CurrencyService abstracts the host's coin handling: exact denomination
// breakdown for an amount and the physical return of a coin to a party.
type CurrencyService interface {
	Breakdown(amount Coins) []Coins
	ReturnCoin(recipient string, denomination Coins) error
}

// JobStore abstracts persistent job-record storage. The in-memory work book
// stays authoritative; persistence is write-through and restorable.
type JobStore interface {
	UpsertJob(j JobRecord) error
	ListJobs() ([]JobRecord, error)
	DeleteJob(id string) error
}

// EarningsStore abstracts the append-only earnings ledger.
type EarningsStore interface {
	InsertEarning(e EarningEntry) error
	AccountBalance(a Account) (Coins, error)
	TotalsByAccount() (map[Account]Coins, error)
}
