// Package improver works through the queue: it picks up outstanding job
// records, runs the host's improvement action, marks records Done, and
// credits the worker's deferred cut on completion.
//
// The lifecycle per record is take, improve, mark Done, settle, optionally
// mail. Records whose item vanished are set aside rather than retried every
// tick; they become visible again after a restart.
package improver

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mthec/crafter/internal/domain"
	"github.com/mthec/crafter/internal/infra/observability"
	"github.com/mthec/crafter/internal/settlement"
	"github.com/mthec/crafter/internal/workbook"
)

// Backend performs the actual improvement of an item. The host owns item
// state; the runner only drives the lifecycle.
type Backend interface {
	Improve(ctx context.Context, item domain.Item, targetQuality int) error
}

// Mailer dispatches a finished item to its requester.
type Mailer interface {
	Mail(recipientID string, itemID domain.ItemID) error
}

// Config controls runner behavior.
type Config struct {
	Interval    time.Duration // Scan interval (default: 30s)
	WorkTimeout time.Duration // Per-item improvement timeout (default: 2m)
}

// DefaultConfig returns safe runner defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    30 * time.Second,
		WorkTimeout: 2 * time.Minute,
	}
}

// Runner drives outstanding records to completion.
type Runner struct {
	mu       sync.Mutex
	config   Config
	book     *workbook.Book
	items    domain.ItemStore
	recorder *settlement.Recorder
	backend  Backend
	mailer   Mailer // nil when the host cannot mail

	skipped   map[string]bool // Job IDs set aside this process lifetime
	completed int64
	failed    int64
}

// New creates a runner over the work book.
func New(cfg Config, book *workbook.Book, items domain.ItemStore, recorder *settlement.Recorder, backend Backend, mailer Mailer) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.WorkTimeout <= 0 {
		cfg.WorkTimeout = DefaultConfig().WorkTimeout
	}
	return &Runner{
		config:   cfg,
		book:     book,
		items:    items,
		recorder: recorder,
		backend:  backend,
		mailer:   mailer,
		skipped:  make(map[string]bool),
	}
}

// Run scans on the configured interval until the context ends.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick processes every outstanding record once, oldest first.
func (r *Runner) Tick(ctx context.Context) {
	for rec := range r.book.Iterate() {
		if !rec.Outstanding() {
			continue
		}
		r.mu.Lock()
		skip := r.skipped[rec.ID]
		r.mu.Unlock()
		if skip {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		r.process(ctx, rec)
	}
}

func (r *Runner) process(ctx context.Context, rec domain.JobRecord) {
	item, ok := r.items.Get(rec.ItemID)
	if !ok {
		log.Printf("[improver] item %s for job %s no longer exists, setting aside", rec.ItemID, rec.ID)
		r.setAside(rec.ID)
		return
	}

	workCtx, cancel := context.WithTimeout(ctx, r.config.WorkTimeout)
	err := r.backend.Improve(workCtx, item, rec.TargetQuality)
	cancel()
	if err != nil {
		log.Printf("[improver] improve %s to %d for job %s: %v", item.ID, rec.TargetQuality, rec.ID, err)
		r.mu.Lock()
		r.failed++
		r.mu.Unlock()
		return
	}

	changed, err := r.book.MarkDone(rec.ID)
	if err != nil || !changed {
		return
	}

	// Payment is earned on completion: credit the stashed worker cut now.
	done, err := r.book.Get(rec.ID)
	if err == nil {
		r.recorder.JobDone(done)
	}

	observability.JobsCompleted.Inc()
	observability.JobsOutstanding.WithLabelValues(domain.KindPaid.String()).Set(float64(r.book.OutstandingPaid()))
	observability.JobsOutstanding.WithLabelValues(domain.KindDonation.String()).Set(float64(r.book.OutstandingDonations()))

	r.mu.Lock()
	r.completed++
	r.mu.Unlock()

	log.Printf("[improver] job %s done: %s improved to %d", rec.ID, item.Name, rec.TargetQuality)

	if rec.MailOnCompletion && r.mailer != nil {
		if err := r.mailer.Mail(rec.RequesterID, rec.ItemID); err != nil {
			log.Printf("[improver] mail %s to %s: %v", rec.ItemID, rec.RequesterID, err)
			return
		}
		// Mailed paid items leave the book the same way collected ones
		// do. Donation records stop at done regardless of delivery.
		if rec.Kind == domain.KindDonation {
			return
		}
		if err := r.book.MarkCollected(rec.ID); err != nil {
			log.Printf("[improver] mark mailed job %s collected: %v", rec.ID, err)
		}
	}
}

func (r *Runner) setAside(jobID string) {
	r.mu.Lock()
	r.skipped[jobID] = true
	r.failed++
	r.mu.Unlock()
}

// Stats is a snapshot of runner counters.
type Stats struct {
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	SetAside  int   `json:"set_aside"`
}

// Stats returns current counters.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Completed: r.completed,
		Failed:    r.failed,
		SetAside:  len(r.skipped),
	}
}
