package domain

import "time"

// ─── Job Record Types ───────────────────────────────────────────────────────
// A JobRecord is one queued unit of improvement work. Donations are the
// same record type with a kind discriminant and a zero price — all code
// paths branch on the discriminant, there is no subclass hierarchy.

// JobState is the lifecycle state of a job record.
type JobState int

const (
	JobTodo      JobState = iota // Queued, not yet worked
	JobDone                      // Improved, awaiting collection
	JobCollected                 // Removed by the customer — terminal
)

// String returns the state label used in logs and API responses.
func (s JobState) String() string {
	switch s {
	case JobTodo:
		return "TODO"
	case JobDone:
		return "DONE"
	case JobCollected:
		return "COLLECTED"
	default:
		return "UNKNOWN"
	}
}

// JobKind discriminates paid jobs from altruistic donations.
type JobKind int

const (
	KindPaid JobKind = iota
	KindDonation
)

// String returns the kind label.
func (k JobKind) String() string {
	switch k {
	case KindPaid:
		return "PAID"
	case KindDonation:
		return "DONATION"
	default:
		return "UNKNOWN"
	}
}

// JobRecord is a single unit of requested work in a worker's work book.
// The item reference is weak: the record never owns item lifetime.
type JobRecord struct {
	ID               string   `json:"id"`
	RequesterID      string   `json:"requester_id"`
	ItemID           ItemID   `json:"item_id"`
	TargetQuality    int      `json:"target_quality"`
	MailOnCompletion bool     `json:"mail_on_completion"`
	PriceCharged     Coins    `json:"price_charged"` // Immutable once set; 0 for donations
	State            JobState `json:"state"`
	Kind             JobKind  `json:"kind"`

	// WorkerCut is the retained-earnings share computed at commit and
	// credited only when the record transitions to Done.
	WorkerCut Coins     `json:"worker_cut"`
	CreatedAt time.Time `json:"created_at"`
}

// Outstanding reports whether the record still represents pending work.
func (j *JobRecord) Outstanding() bool {
	return j.State == JobTodo
}

// IsDonation reports whether this is a zero-price donation record.
func (j *JobRecord) IsDonation() bool {
	return j.Kind == KindDonation
}
