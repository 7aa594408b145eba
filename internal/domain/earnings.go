package domain

import "time"

// ─── Earnings Ledger Types ──────────────────────────────────────────────────
// Settlement proceeds are recorded as append-only ledger rows. Account
// balances are sums over the rows — money is never mutated in place.

// Account names a destination for settlement proceeds.
type Account string

const (
	AccountWorker   Account = "worker"   // Retained earnings
	AccountUpkeep   Account = "upkeep"   // Community upkeep fund
	AccountTreasury Account = "treasury" // Central treasury tax
)

// EarningReason is the business reason for a ledger row.
type EarningReason string

const (
	ReasonJobDone   EarningReason = "JOB_DONE"  // Worker cut, credited on completion
	ReasonTax       EarningReason = "TAX"       // Treasury share at commit
	ReasonUpkeep    EarningReason = "UPKEEP"    // Community share at commit
	ReasonSurcharge EarningReason = "SURCHARGE" // Mail surcharge share at commit
)

// EarningEntry is a single row in the earnings ledger.
type EarningEntry struct {
	ID        int64         `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Account   Account       `json:"account"`
	Amount    Coins         `json:"amount"`
	JobID     string        `json:"job_id,omitempty"`
	Reason    EarningReason `json:"reason"`
}
