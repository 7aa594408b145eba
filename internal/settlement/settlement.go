// Package settlement divides committed trade proceeds among the worker's
// retained earnings, the community upkeep fund, and the central treasury.
//
// Splits use integer truncation; any truncation remainder goes to the
// treasury so the input sum is conserved exactly. The worker's own share is
// only credited when a job record transitions to Done — payment is earned
// on completion, not on commit.
package settlement

import (
	"fmt"
	"log"
	"time"

	"github.com/mthec/crafter/internal/domain"
	"github.com/mthec/crafter/internal/infra/observability"
)

// ─── Policy ─────────────────────────────────────────────────────────────────

// Policy selects how committed proceeds are divided.
type Policy string

const (
	// PolicyAllTax sends 100% to the treasury.
	PolicyAllTax Policy = "all_tax"
	// PolicyTaxAndUpkeep sends the configured percentage to the worker's
	// community upkeep fund (treasury if the worker has no community) and
	// the remainder to the treasury.
	PolicyTaxAndUpkeep Policy = "tax_and_upkeep"
	// PolicyForOwner retains 90% as worker earnings and taxes 10%.
	PolicyForOwner Policy = "for_owner"
)

// ownerRetainedPercent is the fixed worker share under PolicyForOwner.
const ownerRetainedPercent = 90

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	switch p {
	case PolicyAllTax, PolicyTaxAndUpkeep, PolicyForOwner:
		return true
	}
	return false
}

// Config is the settlement policy snapshot.
type Config struct {
	Policy        Policy
	UpkeepPercent int // Community share under tax_and_upkeep, 0–100
}

// DefaultConfig returns the stock policy.
func DefaultConfig() Config {
	return Config{Policy: PolicyTaxAndUpkeep, UpkeepPercent: 20}
}

// Validate checks policy and percentage ranges.
func (c Config) Validate() error {
	if !c.Policy.Valid() {
		return fmt.Errorf("unknown payment policy %q", c.Policy)
	}
	if c.UpkeepPercent < 0 || c.UpkeepPercent > 100 {
		return fmt.Errorf("upkeep percentage %d out of range", c.UpkeepPercent)
	}
	return nil
}

// ─── Split ──────────────────────────────────────────────────────────────────

// Split is the division of one price among the three accounts.
// Worker + Upkeep + Treasury always equals the input price.
type Split struct {
	Worker   domain.Coins `json:"worker"`
	Upkeep   domain.Coins `json:"upkeep"`
	Treasury domain.Coins `json:"treasury"`
}

// Total returns the conserved sum.
func (s Split) Total() domain.Coins {
	return s.Worker + s.Upkeep + s.Treasury
}

// Split divides a price according to the policy. hasCommunity routes the
// upkeep share to the treasury when the worker belongs to no community.
func (c Config) Split(price domain.Coins, hasCommunity bool) Split {
	if price <= 0 {
		return Split{}
	}

	switch c.Policy {
	case PolicyForOwner:
		worker := price * ownerRetainedPercent / 100
		return Split{Worker: worker, Treasury: price - worker}

	case PolicyTaxAndUpkeep:
		upkeep := price * domain.Coins(c.UpkeepPercent) / 100
		if !hasCommunity {
			return Split{Treasury: price}
		}
		return Split{Upkeep: upkeep, Treasury: price - upkeep}

	default: // PolicyAllTax and anything unrecognized taxes everything.
		return Split{Treasury: price}
	}
}

// ─── Recorder ───────────────────────────────────────────────────────────────

// Recorder applies splits to the earnings ledger. Ledger failures are
// logged and swallowed: external I/O must never abort a valid commit.
type Recorder struct {
	cfg   Config
	store domain.EarningsStore

	// Injectable clock for testing.
	now func() time.Time
}

// NewRecorder creates a settlement recorder over an earnings store.
func NewRecorder(cfg Config, store domain.EarningsStore) *Recorder {
	return &Recorder{cfg: cfg, store: store, now: time.Now}
}

// Config returns the active policy snapshot.
func (r *Recorder) Config() Config { return r.cfg }

// SettleCommit executes the split for one committed round. Treasury and
// upkeep shares are credited immediately; each job's worker cut is returned
// per job ID for the caller to stash on the record, to be credited on
// completion. The mail surcharge is split under the same policy, with the
// worker share credited immediately since mailing is not deferred work.
func (r *Recorder) SettleCommit(jobs []*domain.JobRecord, surcharge domain.Coins, hasCommunity bool) map[string]domain.Coins {
	cuts := make(map[string]domain.Coins, len(jobs))

	for _, job := range jobs {
		if job.Kind == domain.KindDonation || job.PriceCharged == 0 {
			continue
		}
		sp := r.cfg.Split(job.PriceCharged, hasCommunity)
		cuts[job.ID] = sp.Worker
		r.credit(domain.AccountTreasury, sp.Treasury, job.ID, domain.ReasonTax)
		r.credit(domain.AccountUpkeep, sp.Upkeep, job.ID, domain.ReasonUpkeep)
	}

	if surcharge > 0 {
		sp := r.cfg.Split(surcharge, hasCommunity)
		r.credit(domain.AccountWorker, sp.Worker, "", domain.ReasonSurcharge)
		r.credit(domain.AccountTreasury, sp.Treasury, "", domain.ReasonSurcharge)
		r.credit(domain.AccountUpkeep, sp.Upkeep, "", domain.ReasonSurcharge)
	}

	return cuts
}

// JobDone credits the worker's retained cut for a completed record.
func (r *Recorder) JobDone(job domain.JobRecord) {
	if job.WorkerCut <= 0 {
		return
	}
	r.credit(domain.AccountWorker, job.WorkerCut, job.ID, domain.ReasonJobDone)
}

func (r *Recorder) credit(account domain.Account, amount domain.Coins, jobID string, reason domain.EarningReason) {
	if amount <= 0 {
		return
	}
	observability.CoinsSplit.WithLabelValues(string(account)).Add(float64(amount))
	if r.store == nil {
		return
	}
	err := r.store.InsertEarning(domain.EarningEntry{
		Timestamp: r.now(),
		Account:   account,
		Amount:    amount,
		JobID:     jobID,
		Reason:    reason,
	})
	if err != nil {
		log.Printf("[settlement] credit %s %s: %v", account, amount, err)
	}
}
