package improver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mthec/crafter/internal/domain"
	"github.com/mthec/crafter/internal/settlement"
	"github.com/mthec/crafter/internal/workbook"
)

// ─── Fakes ──────────────────────────────────────────────────────────────────

type fakeItems struct {
	items map[domain.ItemID]domain.Item
}

func (f *fakeItems) Get(id domain.ItemID) (domain.Item, bool) {
	it, ok := f.items[id]
	return it, ok
}

type fakeBackend struct {
	improved []domain.ItemID
	err      error
}

func (f *fakeBackend) Improve(_ context.Context, item domain.Item, _ int) error {
	if f.err != nil {
		return f.err
	}
	f.improved = append(f.improved, item.ID)
	return nil
}

type fakeMailer struct {
	mailed []domain.ItemID
	err    error
}

func (f *fakeMailer) Mail(_ string, itemID domain.ItemID) error {
	if f.err != nil {
		return f.err
	}
	f.mailed = append(f.mailed, itemID)
	return nil
}

type memEarnings struct {
	entries []domain.EarningEntry
}

func (m *memEarnings) InsertEarning(e domain.EarningEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memEarnings) AccountBalance(a domain.Account) (domain.Coins, error) {
	var sum domain.Coins
	for _, e := range m.entries {
		if e.Account == a {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (m *memEarnings) TotalsByAccount() (map[domain.Account]domain.Coins, error) {
	out := make(map[domain.Account]domain.Coins)
	for _, e := range m.entries {
		out[e.Account] += e.Amount
	}
	return out, nil
}

// ─── Setup ──────────────────────────────────────────────────────────────────

func testRunner(t *testing.T, backend Backend, mailer Mailer) (*Runner, *workbook.Book, *fakeItems, *memEarnings) {
	t.Helper()
	worker := &domain.Worker{
		ID:     "w1",
		Name:   "Smith",
		Skills: map[domain.SkillGroup]int{domain.GroupBlacksmithing: 50},
	}
	book := workbook.ForWorker(worker, 10)
	items := &fakeItems{items: make(map[domain.ItemID]domain.Item)}
	earnings := &memEarnings{}
	recorder := settlement.NewRecorder(settlement.Config{Policy: settlement.PolicyForOwner}, earnings)
	r := New(Config{Interval: time.Minute, WorkTimeout: time.Second}, book, items, recorder, backend, mailer)
	return r, book, items, earnings
}

// ─── Tests ──────────────────────────────────────────────────────────────────

func TestTick_CompletesOutstandingJob(t *testing.T) {
	backend := &fakeBackend{}
	r, book, items, earnings := testRunner(t, backend, nil)

	items.items["sword"] = domain.Item{ID: "sword", Name: "sword", Group: domain.GroupBlacksmithing, Quality: 20}
	rec, _ := book.AddJob("alice", "sword", 50, false, 480, domain.KindPaid)
	book.SetWorkerCut(rec.ID, 432)

	r.Tick(context.Background())

	if len(backend.improved) != 1 || backend.improved[0] != "sword" {
		t.Fatalf("improved = %v, want [sword]", backend.improved)
	}
	got, _ := book.Get(rec.ID)
	if got.State != domain.JobDone {
		t.Errorf("state = %v, want Done", got.State)
	}

	// The stashed worker cut is credited at completion.
	balance, _ := earnings.AccountBalance(domain.AccountWorker)
	if balance != 432 {
		t.Errorf("worker balance = %d, want 432", balance)
	}

	stats := r.Stats()
	if stats.Completed != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestTick_DonationCompletesWithoutEarnings(t *testing.T) {
	backend := &fakeBackend{}
	r, book, items, earnings := testRunner(t, backend, nil)

	items.items["axe"] = domain.Item{ID: "axe", Name: "axe", Group: domain.GroupBlacksmithing, Quality: 10}
	rec, _ := book.AddJob("bob", "axe", 50, false, 0, domain.KindDonation)

	r.Tick(context.Background())

	got, _ := book.Get(rec.ID)
	if got.State != domain.JobDone {
		t.Errorf("state = %v, want Done", got.State)
	}
	if len(earnings.entries) != 0 {
		t.Errorf("donation produced %d ledger rows, want 0", len(earnings.entries))
	}
}

func TestTick_VanishedItemSetAside(t *testing.T) {
	backend := &fakeBackend{}
	r, book, _, _ := testRunner(t, backend, nil)

	book.AddJob("alice", "ghost", 50, false, 100, domain.KindPaid)

	r.Tick(context.Background())
	r.Tick(context.Background())

	if len(backend.improved) != 0 {
		t.Errorf("backend ran for a vanished item")
	}
	stats := r.Stats()
	if stats.SetAside != 1 {
		t.Errorf("set aside = %d, want 1", stats.SetAside)
	}
	// Set aside once, not re-counted every tick.
	if stats.Failed != 1 {
		t.Errorf("failed = %d, want 1", stats.Failed)
	}
}

func TestTick_BackendFailureRetriesLater(t *testing.T) {
	backend := &fakeBackend{err: errors.New("forge is cold")}
	r, book, items, _ := testRunner(t, backend, nil)

	items.items["sword"] = domain.Item{ID: "sword", Name: "sword", Group: domain.GroupBlacksmithing, Quality: 20}
	rec, _ := book.AddJob("alice", "sword", 50, false, 480, domain.KindPaid)

	r.Tick(context.Background())

	got, _ := book.Get(rec.ID)
	if got.State != domain.JobTodo {
		t.Errorf("state = %v, want Todo after backend failure", got.State)
	}

	// The record is retried once the backend recovers.
	backend.err = nil
	r.Tick(context.Background())
	got, _ = book.Get(rec.ID)
	if got.State != domain.JobDone {
		t.Errorf("state = %v, want Done after recovery", got.State)
	}
}

func TestTick_MailOnCompletion(t *testing.T) {
	backend := &fakeBackend{}
	mailer := &fakeMailer{}
	r, book, items, _ := testRunner(t, backend, mailer)

	items.items["sword"] = domain.Item{ID: "sword", Name: "sword", Group: domain.GroupBlacksmithing, Quality: 20}
	rec, _ := book.AddJob("alice", "sword", 50, true, 480, domain.KindPaid)

	r.Tick(context.Background())

	if len(mailer.mailed) != 1 || mailer.mailed[0] != "sword" {
		t.Fatalf("mailed = %v, want [sword]", mailer.mailed)
	}
	// A mailed item leaves the book like a collected one.
	got, _ := book.Get(rec.ID)
	if got.State != domain.JobCollected {
		t.Errorf("state = %v, want Collected after mailing", got.State)
	}
}

func TestTick_MailedDonationStaysDone(t *testing.T) {
	backend := &fakeBackend{}
	mailer := &fakeMailer{}
	r, book, items, earnings := testRunner(t, backend, mailer)

	items.items["sword"] = domain.Item{ID: "sword", Name: "sword", Group: domain.GroupBlacksmithing, Quality: 20}
	rec, _ := book.AddJob("alice", "sword", 50, true, 0, domain.KindDonation)

	r.Tick(context.Background())

	if len(mailer.mailed) != 1 || mailer.mailed[0] != "sword" {
		t.Fatalf("mailed = %v, want [sword]", mailer.mailed)
	}
	// Donation records never move past Done, delivered or not.
	got, _ := book.Get(rec.ID)
	if got.State != domain.JobDone {
		t.Errorf("state = %v, want Done for a mailed donation", got.State)
	}
	if len(earnings.entries) != 0 {
		t.Errorf("donation produced %d earnings entries, want 0", len(earnings.entries))
	}
}

func TestTick_MailFailureKeepsItemReady(t *testing.T) {
	backend := &fakeBackend{}
	mailer := &fakeMailer{err: errors.New("courier unavailable")}
	r, book, items, _ := testRunner(t, backend, mailer)

	items.items["sword"] = domain.Item{ID: "sword", Name: "sword", Group: domain.GroupBlacksmithing, Quality: 20}
	rec, _ := book.AddJob("alice", "sword", 50, true, 480, domain.KindPaid)

	r.Tick(context.Background())

	// The item stays Done and collectable in person.
	got, _ := book.Get(rec.ID)
	if got.State != domain.JobDone {
		t.Errorf("state = %v, want Done when mailing fails", got.State)
	}
}

func TestTick_SkipsNonOutstanding(t *testing.T) {
	backend := &fakeBackend{}
	r, book, items, _ := testRunner(t, backend, nil)

	items.items["sword"] = domain.Item{ID: "sword", Name: "sword", Group: domain.GroupBlacksmithing, Quality: 20}
	rec, _ := book.AddJob("alice", "sword", 50, false, 480, domain.KindPaid)
	book.MarkDone(rec.ID)

	r.Tick(context.Background())

	if len(backend.improved) != 0 {
		t.Errorf("runner reprocessed a Done record")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	backend := &fakeBackend{}
	r, _, _, _ := testRunner(t, backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
