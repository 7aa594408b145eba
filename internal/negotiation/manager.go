package negotiation

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mthec/crafter/internal/domain"
	"github.com/mthec/crafter/internal/infra/observability"
	"github.com/mthec/crafter/internal/pricing"
	"github.com/mthec/crafter/internal/settlement"
	"github.com/mthec/crafter/internal/workbook"
)

// ─── Session Admission ──────────────────────────────────────────────────────

// Manager admits at most one active session per worker. Rejecting a second
// concurrent session eliminates cross-session races on the work book by
// construction.
type Manager struct {
	mu       sync.Mutex
	pricer   *pricing.Engine
	recorder *settlement.Recorder
	active   map[domain.WorkerID]*Session
}

// NewManager creates a session manager over shared pricing and settlement.
func NewManager(pricer *pricing.Engine, recorder *settlement.Recorder) *Manager {
	return &Manager{
		pricer:   pricer,
		recorder: recorder,
		active:   make(map[domain.WorkerID]*Session),
	}
}

// Begin opens a negotiation session between a worker and a customer over a
// barter container. It fails with ErrSessionBusy if the worker is already
// negotiating, and ErrNoWorkBook if the worker has no ledger attached.
func (m *Manager) Begin(worker *domain.Worker, customerID string, book *workbook.Book, container domain.Container, items domain.ItemStore) (*Session, error) {
	if worker == nil || book == nil {
		return nil, domain.ErrNoWorkBook
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.active[worker.ID]; busy {
		observability.SessionsRejected.Inc()
		return nil, domain.ErrSessionBusy
	}

	s := &Session{
		id:              uuid.NewString(),
		worker:          worker,
		customer:        customerID,
		book:            book,
		container:       container,
		items:           items,
		pricer:          m.pricer,
		recorder:        m.recorder,
		state:           StateIdle,
		options:         make(map[string]*domain.ServiceOption),
		selected:        make(map[string]*domain.ServiceOption),
		readyByEntry:    make(map[string]string),
		selectedCollect: make(map[string]bool),
	}
	s.release = func() { m.end(worker.ID) }
	m.active[worker.ID] = s
	return s, nil
}

// Active returns the worker's current session, if any.
func (m *Manager) Active(workerID domain.WorkerID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.active[workerID]
	return s, ok
}

// ActiveCount returns the number of live sessions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

func (m *Manager) end(workerID domain.WorkerID) {
	m.mu.Lock()
	delete(m.active, workerID)
	m.mu.Unlock()
}
