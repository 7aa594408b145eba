package workbook

import (
	"errors"
	"testing"

	"github.com/mthec/crafter/internal/domain"
)

func testWorker() *domain.Worker {
	return &domain.Worker{
		ID:     "worker-1",
		Name:   "Smith",
		Skills: map[domain.SkillGroup]int{domain.GroupBlacksmithing: 70},
	}
}

// ─── Attachment ─────────────────────────────────────────────────────────────

func TestForWorker_NilWorker(t *testing.T) {
	b := ForWorker(nil, 10)
	if b != nil {
		t.Fatal("ForWorker(nil) should return no book")
	}

	// Every operation on the missing book surfaces ErrNoWorkBook.
	if _, err := b.AddJob("req", "item", 50, false, 100, domain.KindPaid); !errors.Is(err, domain.ErrNoWorkBook) {
		t.Errorf("AddJob on nil book: err = %v, want ErrNoWorkBook", err)
	}
	if _, err := b.MarkDone("x"); !errors.Is(err, domain.ErrNoWorkBook) {
		t.Errorf("MarkDone on nil book: err = %v, want ErrNoWorkBook", err)
	}
	if b.Len() != 0 || b.OutstandingPaid() != 0 {
		t.Error("nil book should report empty counts")
	}
	for range b.Iterate() {
		t.Fatal("nil book iteration should yield nothing")
	}
}

func TestForWorker_DefaultCapacity(t *testing.T) {
	b := ForWorker(testWorker(), 0)
	if b.Capacity() != DefaultCapacity {
		t.Errorf("Capacity() = %d, want %d", b.Capacity(), DefaultCapacity)
	}
}

// ─── AddJob ─────────────────────────────────────────────────────────────────

func TestAddJob_InsertionOrder(t *testing.T) {
	b := ForWorker(testWorker(), 5)

	ids := []domain.ItemID{"a", "b", "c"}
	for _, id := range ids {
		if _, err := b.AddJob("req", id, 40, false, 100, domain.KindPaid); err != nil {
			t.Fatalf("AddJob(%s) error: %v", id, err)
		}
	}

	var got []domain.ItemID
	for rec := range b.Iterate() {
		got = append(got, rec.ItemID)
	}
	if len(got) != 3 {
		t.Fatalf("iterated %d records, want 3", len(got))
	}
	for i := range ids {
		if got[i] != ids[i] {
			t.Errorf("record %d item = %s, want %s", i, got[i], ids[i])
		}
	}
}

func TestAddJob_CapacityBound(t *testing.T) {
	b := ForWorker(testWorker(), 2)

	b.AddJob("req", "a", 40, false, 100, domain.KindPaid)
	b.AddJob("req", "b", 40, false, 100, domain.KindPaid)

	_, err := b.AddJob("req", "c", 40, false, 100, domain.KindPaid)
	if !errors.Is(err, domain.ErrWorkBookFull) {
		t.Fatalf("AddJob over capacity: err = %v, want ErrWorkBookFull", err)
	}
	if b.Len() != 2 {
		t.Errorf("Len() = %d after rejected insert, want 2", b.Len())
	}
	if b.Free() != 0 {
		t.Errorf("Free() = %d, want 0", b.Free())
	}
}

func TestAddJob_DonationPriceForcedZero(t *testing.T) {
	b := ForWorker(testWorker(), 5)

	rec, err := b.AddJob("req", "a", 40, false, 500, domain.KindDonation)
	if err != nil {
		t.Fatalf("AddJob() error: %v", err)
	}
	if rec.PriceCharged != 0 {
		t.Errorf("donation PriceCharged = %d, want 0", rec.PriceCharged)
	}
	if rec.Kind != domain.KindDonation {
		t.Errorf("Kind = %v, want donation", rec.Kind)
	}
}

func TestAddJob_NegativePrice(t *testing.T) {
	b := ForWorker(testWorker(), 5)
	if _, err := b.AddJob("req", "a", 40, false, -1, domain.KindPaid); !errors.Is(err, domain.ErrNegativeAmount) {
		t.Errorf("AddJob(-1) err = %v, want ErrNegativeAmount", err)
	}
}

// ─── State Transitions ──────────────────────────────────────────────────────

func TestMarkDone_Idempotent(t *testing.T) {
	b := ForWorker(testWorker(), 5)
	rec, _ := b.AddJob("req", "a", 40, false, 100, domain.KindPaid)

	changed, err := b.MarkDone(rec.ID)
	if err != nil {
		t.Fatalf("MarkDone() error: %v", err)
	}
	if !changed {
		t.Error("first MarkDone should report changed=true")
	}

	changed, err = b.MarkDone(rec.ID)
	if err != nil {
		t.Fatalf("second MarkDone() error: %v", err)
	}
	if changed {
		t.Error("second MarkDone should be a no-op")
	}

	got, _ := b.Get(rec.ID)
	if got.State != domain.JobDone {
		t.Errorf("State = %v, want Done", got.State)
	}
}

func TestMarkDone_UnknownJob(t *testing.T) {
	b := ForWorker(testWorker(), 5)
	if _, err := b.MarkDone("missing"); !errors.Is(err, domain.ErrUnknownJob) {
		t.Errorf("MarkDone(missing) err = %v, want ErrUnknownJob", err)
	}
}

func TestMarkCollected(t *testing.T) {
	b := ForWorker(testWorker(), 5)
	rec, _ := b.AddJob("req", "a", 40, false, 100, domain.KindPaid)

	// Todo → Collected is not a legal transition.
	if err := b.MarkCollected(rec.ID); !errors.Is(err, domain.ErrBadTransition) {
		t.Errorf("MarkCollected(todo) err = %v, want ErrBadTransition", err)
	}

	b.MarkDone(rec.ID)
	if err := b.MarkCollected(rec.ID); err != nil {
		t.Fatalf("MarkCollected() error: %v", err)
	}
	got, _ := b.Get(rec.ID)
	if got.State != domain.JobCollected {
		t.Errorf("State = %v, want Collected", got.State)
	}

	// Terminal: collecting again is a bad transition.
	if err := b.MarkCollected(rec.ID); !errors.Is(err, domain.ErrBadTransition) {
		t.Errorf("repeat MarkCollected err = %v, want ErrBadTransition", err)
	}
}

// ─── Counts ─────────────────────────────────────────────────────────────────

func TestOutstandingCounts(t *testing.T) {
	b := ForWorker(testWorker(), 10)

	p1, _ := b.AddJob("req", "a", 40, false, 100, domain.KindPaid)
	b.AddJob("req", "b", 40, false, 100, domain.KindPaid)
	b.AddJob("req", "c", 40, false, 0, domain.KindDonation)

	if got := b.OutstandingPaid(); got != 2 {
		t.Errorf("OutstandingPaid() = %d, want 2", got)
	}
	if got := b.OutstandingDonations(); got != 1 {
		t.Errorf("OutstandingDonations() = %d, want 1", got)
	}

	// Done records are no longer outstanding.
	b.MarkDone(p1.ID)
	if got := b.OutstandingPaid(); got != 1 {
		t.Errorf("OutstandingPaid() after done = %d, want 1", got)
	}
}

// ─── Iteration ──────────────────────────────────────────────────────────────

func TestIterate_Restartable(t *testing.T) {
	b := ForWorker(testWorker(), 5)
	b.AddJob("req", "a", 40, false, 100, domain.KindPaid)
	b.AddJob("req", "b", 40, false, 100, domain.KindPaid)

	seq := b.Iterate()
	first, second := 0, 0
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	if first != 2 || second != 2 {
		t.Errorf("restarted iteration yielded %d then %d, want 2 and 2", first, second)
	}
}

func TestIterate_EarlyStop(t *testing.T) {
	b := ForWorker(testWorker(), 5)
	b.AddJob("req", "a", 40, false, 100, domain.KindPaid)
	b.AddJob("req", "b", 40, false, 100, domain.KindPaid)

	n := 0
	for range b.Iterate() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("early stop yielded %d, want 1", n)
	}
}

// ─── Restore ────────────────────────────────────────────────────────────────

func TestRestore(t *testing.T) {
	b := ForWorker(testWorker(), 5)
	b.AddJob("req", "old", 40, false, 100, domain.KindPaid)

	b.Restore([]domain.JobRecord{
		{ID: "r1", ItemID: "x", State: domain.JobTodo, Kind: domain.KindPaid, PriceCharged: 50},
		{ID: "r2", ItemID: "y", State: domain.JobDone, Kind: domain.KindDonation},
	})

	if b.Len() != 2 {
		t.Fatalf("Len() after restore = %d, want 2", b.Len())
	}
	rec, err := b.Get("r2")
	if err != nil {
		t.Fatalf("Get(r2) error: %v", err)
	}
	if rec.State != domain.JobDone {
		t.Errorf("restored state = %v, want Done", rec.State)
	}
}
