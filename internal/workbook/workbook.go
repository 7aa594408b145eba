// Package workbook implements the capacity-bounded work ledger owned by a
// single worker.
//
// The book holds insertion-ordered job records and is mutated only through
// the negotiation controller bound to its worker — no external actor
// appends or edits records directly. Persistence is write-through to an
// optional JobStore; the in-memory book stays authoritative, and store
// failures are logged and swallowed so they never abort a valid commit.
package workbook

import (
	"iter"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mthec/crafter/internal/domain"
)

// DefaultCapacity is the stock work book size.
const DefaultCapacity = 10

// Book is one worker's work ledger.
type Book struct {
	mu       sync.RWMutex
	owner    *domain.Worker
	capacity int
	records  []*domain.JobRecord
	byID     map[string]*domain.JobRecord
	store    domain.JobStore // optional write-through

	// Injectable clock for testing.
	now func() time.Time
}

// ForWorker attaches a new work book to a worker. A nil worker gets no
// book — callers receive ErrNoWorkBook from every operation on the nil
// *Book that results.
func ForWorker(w *domain.Worker, capacity int) *Book {
	if w == nil {
		return nil
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Book{
		owner:    w,
		capacity: capacity,
		byID:     make(map[string]*domain.JobRecord),
		now:      time.Now,
	}
}

// SetStore attaches a write-through persistence store.
func (b *Book) SetStore(s domain.JobStore) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.store = s
	b.mu.Unlock()
}

// Owner returns the worker this book belongs to.
func (b *Book) Owner() *domain.Worker {
	if b == nil {
		return nil
	}
	return b.owner
}

// ─── Mutations ──────────────────────────────────────────────────────────────

// AddJob appends a job record in insertion order. Donations are forced to a
// zero price regardless of the price argument.
func (b *Book) AddJob(requesterID string, itemID domain.ItemID, targetQuality int, mail bool, price domain.Coins, kind domain.JobKind) (*domain.JobRecord, error) {
	if b == nil {
		return nil, domain.ErrNoWorkBook
	}
	if price < 0 {
		return nil, domain.ErrNegativeAmount
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.records) >= b.capacity {
		return nil, domain.ErrWorkBookFull
	}

	if kind == domain.KindDonation {
		price = 0
	}

	rec := &domain.JobRecord{
		ID:               uuid.NewString(),
		RequesterID:      requesterID,
		ItemID:           itemID,
		TargetQuality:    targetQuality,
		MailOnCompletion: mail,
		PriceCharged:     price,
		State:            domain.JobTodo,
		Kind:             kind,
		CreatedAt:        b.now(),
	}
	b.records = append(b.records, rec)
	b.byID[rec.ID] = rec
	b.persist(rec)
	return rec, nil
}

// MarkDone transitions a record Todo→Done. The transition is idempotent:
// a record already Done or Collected reports changed=false without error.
func (b *Book) MarkDone(id string) (changed bool, err error) {
	if b == nil {
		return false, domain.ErrNoWorkBook
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.byID[id]
	if !ok {
		return false, domain.ErrUnknownJob
	}
	if rec.State != domain.JobTodo {
		return false, nil
	}
	rec.State = domain.JobDone
	b.persist(rec)
	return true, nil
}

// MarkCollected transitions a record Done→Collected, the terminal state.
func (b *Book) MarkCollected(id string) error {
	if b == nil {
		return domain.ErrNoWorkBook
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.byID[id]
	if !ok {
		return domain.ErrUnknownJob
	}
	if rec.State != domain.JobDone {
		return domain.ErrBadTransition
	}
	rec.State = domain.JobCollected
	b.persist(rec)
	return nil
}

// SetWorkerCut stores the settlement share to credit when the record
// completes. Called once at commit.
func (b *Book) SetWorkerCut(id string, cut domain.Coins) error {
	if b == nil {
		return domain.ErrNoWorkBook
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.byID[id]
	if !ok {
		return domain.ErrUnknownJob
	}
	rec.WorkerCut = cut
	b.persist(rec)
	return nil
}

// Restore loads previously persisted records, replacing the book contents.
// Used once at boot; records beyond capacity are kept so no history is
// dropped, but new insertions stay capacity-bounded.
func (b *Book) Restore(records []domain.JobRecord) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = b.records[:0]
	b.byID = make(map[string]*domain.JobRecord, len(records))
	for i := range records {
		rec := records[i]
		r := &rec
		b.records = append(b.records, r)
		b.byID[r.ID] = r
	}
}

// persist writes through to the attached store. Store failures are logged
// and swallowed — the in-memory book is authoritative.
func (b *Book) persist(rec *domain.JobRecord) {
	if b.store == nil {
		return
	}
	if err := b.store.UpsertJob(*rec); err != nil {
		log.Printf("[workbook] persist job %s: %v", rec.ID, err)
	}
}

// ─── Queries ────────────────────────────────────────────────────────────────

// Get returns a copy of the record with the given ID.
func (b *Book) Get(id string) (domain.JobRecord, error) {
	if b == nil {
		return domain.JobRecord{}, domain.ErrNoWorkBook
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.byID[id]
	if !ok {
		return domain.JobRecord{}, domain.ErrUnknownJob
	}
	return *rec, nil
}

// Len returns the number of records in the book.
func (b *Book) Len() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// Capacity returns the maximum record count.
func (b *Book) Capacity() int {
	if b == nil {
		return 0
	}
	return b.capacity
}

// Free returns the remaining insertion slots.
func (b *Book) Free() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	free := b.capacity - len(b.records)
	if free < 0 {
		free = 0
	}
	return free
}

// OutstandingPaid counts paid records still awaiting work.
func (b *Book) OutstandingPaid() int {
	return b.countOutstanding(domain.KindPaid)
}

// OutstandingDonations counts donation records still awaiting work.
func (b *Book) OutstandingDonations() int {
	return b.countOutstanding(domain.KindDonation)
}

func (b *Book) countOutstanding(kind domain.JobKind) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, rec := range b.records {
		if rec.Kind == kind && rec.Outstanding() {
			n++
		}
	}
	return n
}

// Iterate returns a lazy, restartable sequence of record copies in
// insertion order. The snapshot is taken when iteration starts, so callers
// may mutate the book mid-range without invalidating the walk.
func (b *Book) Iterate() iter.Seq[domain.JobRecord] {
	return func(yield func(domain.JobRecord) bool) {
		if b == nil {
			return
		}
		b.mu.RLock()
		snapshot := make([]domain.JobRecord, 0, len(b.records))
		for _, rec := range b.records {
			snapshot = append(snapshot, *rec)
		}
		b.mu.RUnlock()

		for _, rec := range snapshot {
			if !yield(rec) {
				return
			}
		}
	}
}
