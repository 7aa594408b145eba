// Package negotiation implements the stateful trade-negotiation controller.
//
// A session is bound 1:1 to a live barter container between a worker and a
// customer. It builds the offer compartment, reconciles the customer's
// submitted items and coins against the selected service options on every
// negotiation round, and on mutual agreement commits job records into the
// work book and hands the proceeds to the settlement recorder.
//
// Execution is single-threaded per session: rounds are processed
// synchronously inside the host's turn loop, and the session mutex only
// guards against the host calling accessors from elsewhere. The commit is
// atomic — either all eligible items and exactly the required currency move
// together, or nothing moves.
package negotiation

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/mthec/crafter/internal/domain"
	"github.com/mthec/crafter/internal/infra/observability"
	"github.com/mthec/crafter/internal/pricing"
	"github.com/mthec/crafter/internal/settlement"
	"github.com/mthec/crafter/internal/workbook"
)

// ─── States ─────────────────────────────────────────────────────────────────

// State is the negotiation state machine position.
type State int

const (
	StateIdle State = iota
	StateAwaitingFunds
	StateCommitted
	StateClosed
)

// String returns the state label.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateAwaitingFunds:
		return "AWAITING_FUNDS"
	case StateCommitted:
		return "COMMITTED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ─── Rejections ─────────────────────────────────────────────────────────────

// RejectReason classifies why an item was routed back to the customer.
// Rejection is a normal reconciliation outcome, not an error.
type RejectReason string

const (
	RejectUnknownCategory RejectReason = "unknown_category"
	RejectNewbieItem      RejectReason = "newbie_item"
	RejectNoImprove       RejectReason = "improve_disabled"
	RejectAlreadyMet      RejectReason = "already_meets_target"
	RejectAtSkillCap      RejectReason = "at_skill_cap"
	RejectNoService       RejectReason = "no_service_selected"
	RejectBookFull        RejectReason = "work_book_full"
	RejectItemGone        RejectReason = "item_gone"
)

// Rejection records one routed-back item and the reason.
type Rejection struct {
	EntryID string        `json:"entry_id"`
	ItemID  domain.ItemID `json:"item_id"`
	Reason  RejectReason  `json:"reason"`
	Text    string        `json:"text"`
}

// AcceptedItem records one item taken into the work book at commit.
type AcceptedItem struct {
	EntryID       string         `json:"entry_id"`
	ItemID        domain.ItemID  `json:"item_id"`
	TargetQuality int            `json:"target_quality"`
	Price         domain.Coins   `json:"price"`
	Kind          domain.JobKind `json:"kind"`
}

// Result is the outcome of one reconciliation round. Notices are returned
// as values so the core stays deterministic without a live UI sink.
type Result struct {
	State     State              `json:"state"`
	Quoted    domain.Coins       `json:"quoted"`
	Offered   domain.Coins       `json:"offered"`
	Shortfall domain.Coins       `json:"shortfall"`
	Change    domain.Coins       `json:"change"`
	Accepted  []AcceptedItem     `json:"accepted"`
	Rejected  []Rejection        `json:"rejected"`
	Jobs      []domain.JobRecord `json:"jobs"`
	Collected []string           `json:"collected"` // Job IDs collected this round
	Notices   []domain.Notice    `json:"notices"`
}

// ─── Session ────────────────────────────────────────────────────────────────

// Session is one live negotiation bound to a barter container.
type Session struct {
	mu sync.Mutex

	id        string
	worker    *domain.Worker
	customer  string
	book      *workbook.Book
	container domain.Container
	items     domain.ItemStore
	pricer    *pricing.Engine
	recorder  *settlement.Recorder
	currency  domain.CurrencyService // optional, host-provided

	state  State
	rounds int // committed rounds

	// Transient round state
	options                      map[string]*domain.ServiceOption // entry ID → option in the offer compartment
	selected                     map[string]*domain.ServiceOption // entry ID → selected option
	readyByEntry                 map[string]string                // ready-item entry ID → job ID
	selectedCollect              map[string]bool                  // ready-item entry IDs chosen for collection
	hasNotifiedInsufficientFunds bool

	release func() // Manager callback, invoked once on close
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current state machine position.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Rounds returns the number of committed rounds so far.
func (s *Session) Rounds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rounds
}

// SetCurrencyService attaches the host's coin handling. When set, change is
// handed back as physical coins in exact denomination breakdown instead of
// a single container entry.
func (s *Session) SetCurrencyService(cs domain.CurrencyService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currency = cs
}

// ─── Offer Compartment ──────────────────────────────────────────────────────

// BuildOfferCompartment (re)populates the worker's offer compartment: one
// improve option per 10-quality step per accepted skill group, a donate
// option while any accepted group is below the global skill cap, a mail
// option, and one row per Done record awaiting collection. Invoked whenever
// the compartment must be recomputed, not only once per session.
func (s *Session) BuildOfferCompartment() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return domain.ErrSessionClosed
	}
	if s.state == StateCommitted {
		// New round begins when the compartment is rebuilt.
		s.state = StateIdle
	}

	s.clearOfferLocked()

	donateAvailable := false
	for group := range s.worker.Skills {
		skill, _ := s.worker.Skill(group)
		if skill < s.pricer.SkillCap() {
			donateAvailable = true
		}
		for _, step := range s.pricer.Steps(skill) {
			opt := &domain.ServiceOption{
				ID:            uuid.NewString(),
				Kind:          domain.OptionImprove,
				Group:         group,
				TargetQuality: step,
				Label:         fmt.Sprintf("Improve to %d (%s)", step, group),
			}
			s.addOptionLocked(opt)
		}
	}

	if donateAvailable {
		s.addOptionLocked(&domain.ServiceOption{
			ID:    uuid.NewString(),
			Kind:  domain.OptionDonate,
			Label: "Donate",
		})
	}
	s.addOptionLocked(&domain.ServiceOption{
		ID:    uuid.NewString(),
		Kind:  domain.OptionMail,
		Price: s.pricer.MailSurcharge(),
		Label: fmt.Sprintf("Mail on completion (%s)", s.pricer.MailSurcharge()),
	})

	// Done records ready for collection. Records whose item vanished are
	// skipped — a detectable condition, never a crash.
	for rec := range s.book.Iterate() {
		if rec.State != domain.JobDone {
			continue
		}
		if _, ok := s.items.Get(rec.ItemID); !ok {
			log.Printf("[negotiation] ready item %s for job %s no longer exists", rec.ItemID, rec.ID)
			continue
		}
		entry := domain.TradeEntry{
			ID:     uuid.NewString(),
			Kind:   domain.EntryItem,
			ItemID: rec.ItemID,
		}
		s.container.Add(domain.OfferWorker, entry)
		s.readyByEntry[entry.ID] = rec.ID
	}

	return nil
}

func (s *Session) addOptionLocked(opt *domain.ServiceOption) {
	entry := domain.TradeEntry{
		ID:     uuid.NewString(),
		Kind:   domain.EntryOption,
		Option: opt,
	}
	s.container.Add(domain.OfferWorker, entry)
	s.options[entry.ID] = opt
}

// clearOfferLocked removes every entry this session placed in the offer
// compartment and forgets the transient option markers.
func (s *Session) clearOfferLocked() {
	for entryID := range s.options {
		s.container.Remove(domain.OfferWorker, entryID)
	}
	for entryID := range s.readyByEntry {
		s.container.Remove(domain.OfferWorker, entryID)
	}
	s.options = make(map[string]*domain.ServiceOption)
	s.selected = make(map[string]*domain.ServiceOption)
	s.readyByEntry = make(map[string]string)
	s.selectedCollect = make(map[string]bool)
}

// ─── Selection ──────────────────────────────────────────────────────────────

// Select marks an offer-compartment entry (a service option or a
// ready-for-collection item) as chosen by the customer. Any selection
// change is an alteration of the offer and resets notification suppression.
func (s *Session) Select(entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return domain.ErrSessionClosed
	}
	if opt, ok := s.options[entryID]; ok {
		s.selected[entryID] = opt
		s.markChangedLocked()
		return nil
	}
	if _, ok := s.readyByEntry[entryID]; ok {
		s.selectedCollect[entryID] = true
		s.markChangedLocked()
		return nil
	}
	return fmt.Errorf("no selectable entry %q in the offer compartment", entryID)
}

// Deselect removes a previous selection.
func (s *Session) Deselect(entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return domain.ErrSessionClosed
	}
	if _, ok := s.selected[entryID]; ok {
		delete(s.selected, entryID)
		s.markChangedLocked()
		return nil
	}
	if s.selectedCollect[entryID] {
		delete(s.selectedCollect, entryID)
		s.markChangedLocked()
		return nil
	}
	return fmt.Errorf("entry %q is not selected", entryID)
}

// MarkChanged signals that the offer changed (items or coins added or
// removed on the customer side). It is the single reset point for the
// insufficient-funds notification suppression.
func (s *Session) MarkChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markChangedLocked()
}

func (s *Session) markChangedLocked() {
	s.hasNotifiedInsufficientFunds = false
}

// ─── Reconciliation ─────────────────────────────────────────────────────────

// Reconcile processes one negotiation round: decide accept/reject per
// submitted item, price the accepted set, and either wait for funds or
// commit atomically.
func (s *Session) Reconcile() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil, domain.ErrSessionClosed
	}
	observability.RoundsReconciled.Inc()

	donate := s.donateSelectedLocked()
	mail := s.mailSelectedLocked()

	// Phase 1: decide per item. Nothing moves yet.
	var accepted []AcceptedItem
	var rejected []Rejection
	var offered domain.Coins
	free := s.book.Free()

	for _, entry := range s.container.Entries(domain.OfferCustomer) {
		switch entry.Kind {
		case domain.EntryCoins:
			offered += entry.Amount
		case domain.EntryItem:
			acc, rej := s.decideLocked(entry, donate)
			if rej != nil {
				rejected = append(rejected, *rej)
				continue
			}
			if len(accepted) >= free {
				rejected = append(rejected, Rejection{
					EntryID: entry.ID,
					ItemID:  entry.ItemID,
					Reason:  RejectBookFull,
					Text:    "My work book is full. I cannot take on more work right now.",
				})
				continue
			}
			accepted = append(accepted, *acc)
		}
	}

	for _, rej := range rejected {
		observability.ItemsRejected.WithLabelValues(string(rej.Reason)).Inc()
	}

	// Phase 2: price the accepted set.
	var quoted domain.Coins
	paidCount := 0
	for _, acc := range accepted {
		quoted += acc.Price
		if acc.Kind == domain.KindPaid {
			paidCount++
		}
	}
	if mail && paidCount > 0 {
		quoted += s.pricer.MailSurcharge()
	}

	res := &Result{
		Quoted:   quoted,
		Offered:  offered,
		Accepted: accepted,
		Rejected: rejected,
	}
	for _, rej := range rejected {
		res.Notices = append(res.Notices, domain.Notice{To: domain.PartyCustomer, Text: rej.Text})
	}

	// An empty round — nothing accepted, nothing to collect — changes no
	// state. Repeated identical rounds are idempotent.
	if len(accepted) == 0 && len(s.selectedCollect) == 0 {
		res.State = s.state
		return res, nil
	}

	// Phase 3: funds check.
	if offered < quoted {
		s.state = StateAwaitingFunds
		res.State = StateAwaitingFunds
		res.Shortfall = quoted - offered
		if !s.hasNotifiedInsufficientFunds {
			res.Notices = append(res.Notices, domain.Notice{
				To:   domain.PartyCustomer,
				Text: fmt.Sprintf("I need %s more for that.", res.Shortfall),
			})
			s.hasNotifiedInsufficientFunds = true
		}
		return res, nil
	}

	// Phase 4: atomic commit.
	if err := s.commitLocked(res, mail, paidCount); err != nil {
		return nil, err
	}
	return res, nil
}

// decideLocked applies the per-item accept/reject rules.
func (s *Session) decideLocked(entry domain.TradeEntry, donate bool) (*AcceptedItem, *Rejection) {
	reject := func(reason RejectReason, text string) (*AcceptedItem, *Rejection) {
		return nil, &Rejection{EntryID: entry.ID, ItemID: entry.ItemID, Reason: reason, Text: text}
	}

	item, ok := s.items.Get(entry.ItemID)
	if !ok {
		return reject(RejectItemGone, "That item no longer exists.")
	}

	skill, accepts := s.worker.Skill(item.Group)
	if !accepts {
		return reject(RejectUnknownCategory,
			fmt.Sprintf("I do not work with %s items.", item.Group))
	}
	if item.NewbieItem {
		return reject(RejectNewbieItem, "I will not touch starter gear.")
	}
	if item.NoImprove {
		return reject(RejectNoImprove, "That item cannot be improved.")
	}

	// Donation intent overrides any simultaneously selected paid options.
	if donate {
		return &AcceptedItem{
			EntryID:       entry.ID,
			ItemID:        item.ID,
			TargetQuality: item.Quality,
			Price:         0,
			Kind:          domain.KindDonation,
		}, nil
	}

	target, ok := s.highestSelectedTargetLocked(item.Group)
	if !ok {
		return reject(RejectNoService,
			fmt.Sprintf("Select an improvement for %s items first.", item.Group))
	}

	capped := skill
	if capped > s.pricer.SkillCap() {
		capped = s.pricer.SkillCap()
	}
	if item.Quality >= capped {
		return reject(RejectAtSkillCap, "I cannot improve that any further.")
	}
	if item.Quality >= target {
		return reject(RejectAlreadyMet, "That item already meets the selected quality.")
	}

	price, err := s.pricer.Quote(skill, item.Quality, target, item.Group, item.Material)
	if err != nil {
		// A priced group was validated above; treat the rest as unusable.
		return reject(RejectUnknownCategory, "I cannot price that item.")
	}

	return &AcceptedItem{
		EntryID:       entry.ID,
		ItemID:        item.ID,
		TargetQuality: target,
		Price:         price,
		Kind:          domain.KindPaid,
	}, nil
}

// highestSelectedTargetLocked returns the highest target quality among the
// selected improve options applicable to a group.
func (s *Session) highestSelectedTargetLocked(group domain.SkillGroup) (int, bool) {
	best, found := 0, false
	for _, opt := range s.selected {
		if opt.Kind == domain.OptionImprove && opt.Group == group && opt.TargetQuality > best {
			best = opt.TargetQuality
			found = true
		}
	}
	return best, found
}

func (s *Session) donateSelectedLocked() bool {
	for _, opt := range s.selected {
		if opt.Kind == domain.OptionDonate {
			return true
		}
	}
	return false
}

func (s *Session) mailSelectedLocked() bool {
	for _, opt := range s.selected {
		if opt.Kind == domain.OptionMail {
			return true
		}
	}
	return false
}

// ─── Commit ─────────────────────────────────────────────────────────────────

// commitLocked moves accepted items and exactly the required currency into
// the accept compartments, returns change, swaps ownership, appends job
// records, and settles proceeds. Every staging move is tracked so a failure
// before or during the swap puts the escrow back where the customer left
// it; book records are only written once the swap has succeeded.
func (s *Session) commitLocked(res *Result, mail bool, paidCount int) error {
	var (
		movedItems    []domain.TradeEntry
		collected     domain.Coins
		physical      domain.Coins
		quotedEntryID string
		changeEntryID string
		handedOver    []readyHandover
	)
	restore := func() {
		for _, entry := range movedItems {
			s.container.Remove(domain.AcceptToWorker, entry.ID)
			s.container.Add(domain.OfferCustomer, entry)
		}
		if quotedEntryID != "" {
			s.container.Remove(domain.AcceptToWorker, quotedEntryID)
		}
		if changeEntryID != "" {
			s.container.Remove(domain.AcceptToCustomer, changeEntryID)
		}
		for _, h := range handedOver {
			s.container.Remove(domain.AcceptToCustomer, h.entry.ID)
			s.container.Add(domain.OfferWorker, h.entry)
		}
		// Change already handed over as physical coins stays with the
		// customer; the restored escrow shrinks by that amount so no
		// coin is duplicated or lost.
		if remaining := collected - physical; remaining > 0 {
			s.container.Add(domain.OfferCustomer, domain.TradeEntry{
				ID:     uuid.NewString(),
				Kind:   domain.EntryCoins,
				Amount: remaining,
			})
		}
		s.container.SetSatisfied(domain.PartyWorker, false)
		s.container.SetSatisfied(domain.PartyCustomer, false)
	}

	// Move accepted items to the worker's side.
	for _, acc := range res.Accepted {
		entry, ok := s.container.Remove(domain.OfferCustomer, acc.EntryID)
		if !ok {
			restore()
			return fmt.Errorf("accepted entry %s vanished from the offer", acc.EntryID)
		}
		s.container.Add(domain.AcceptToWorker, entry)
		movedItems = append(movedItems, entry)
	}

	// Collect the coins; return any excess as change.
	for _, entry := range s.container.Entries(domain.OfferCustomer) {
		if entry.Kind != domain.EntryCoins {
			continue
		}
		if _, ok := s.container.Remove(domain.OfferCustomer, entry.ID); ok {
			collected += entry.Amount
		}
	}
	if res.Quoted > 0 {
		quotedEntryID = uuid.NewString()
		s.container.Add(domain.AcceptToWorker, domain.TradeEntry{
			ID:     quotedEntryID,
			Kind:   domain.EntryCoins,
			Amount: res.Quoted,
		})
	}
	if change := collected - res.Quoted; change > 0 {
		res.Change = change
		physical, changeEntryID = s.returnChangeLocked(change)
	}

	// Stage selected ready-for-collection items. Their records move to
	// collected only after the swap has gone through.
	for entryID := range s.selectedCollect {
		jobID, ok := s.readyByEntry[entryID]
		if !ok {
			continue
		}
		entry, ok := s.container.Remove(domain.OfferWorker, entryID)
		if !ok {
			continue
		}
		s.container.Add(domain.AcceptToCustomer, entry)
		handedOver = append(handedOver, readyHandover{entry: entry, jobID: jobID})
	}

	s.container.SetSatisfied(domain.PartyWorker, true)
	s.container.SetSatisfied(domain.PartyCustomer, true)
	if err := s.container.Swap(); err != nil {
		restore()
		return fmt.Errorf("ownership swap: %w", err)
	}

	for _, h := range handedOver {
		if err := s.book.MarkCollected(h.jobID); err != nil {
			log.Printf("[negotiation] mark collected %s: %v", h.jobID, err)
			continue
		}
		delete(s.readyByEntry, h.entry.ID)
		res.Collected = append(res.Collected, h.jobID)
	}

	// Append job records. Capacity was reserved during decide and only
	// this controller mutates the book, so insertion cannot fail.
	jobs := make([]*domain.JobRecord, 0, len(res.Accepted))
	for _, acc := range res.Accepted {
		rec, err := s.book.AddJob(s.customer, acc.ItemID, acc.TargetQuality, mail, acc.Price, acc.Kind)
		if err != nil {
			return fmt.Errorf("append job record: %w", err)
		}
		jobs = append(jobs, rec)
		res.Jobs = append(res.Jobs, *rec)
	}

	// Settle: treasury and upkeep now, worker cut stashed for completion.
	cuts := s.recorder.SettleCommit(jobs, s.surchargeLocked(mail, paidCount), s.worker.HasCommunity())
	for id, cut := range cuts {
		if err := s.book.SetWorkerCut(id, cut); err != nil {
			log.Printf("[negotiation] stash worker cut for %s: %v", id, err)
		}
	}

	observability.TradesCommitted.Inc()
	observability.CoinsCollected.Add(float64(res.Quoted))
	observability.JobsOutstanding.WithLabelValues(domain.KindPaid.String()).Set(float64(s.book.OutstandingPaid()))
	observability.JobsOutstanding.WithLabelValues(domain.KindDonation.String()).Set(float64(s.book.OutstandingDonations()))
	observability.WorkBookFree.Set(float64(s.book.Free()))

	if n := len(res.Jobs); n > 0 {
		res.Notices = append(res.Notices, domain.Notice{
			To:   domain.PartyCustomer,
			Text: fmt.Sprintf("Agreed. %d job(s) queued for %s.", n, res.Quoted),
		})
	}

	// Round complete: back to Idle for the next round.
	s.rounds++
	s.state = StateIdle
	s.selected = make(map[string]*domain.ServiceOption)
	s.selectedCollect = make(map[string]bool)
	s.hasNotifiedInsufficientFunds = false
	res.State = StateCommitted
	return nil
}

// readyHandover records a finished item staged for collection so the swap
// can be unwound and its record marked only once the trade is final.
type readyHandover struct {
	entry domain.TradeEntry
	jobID string
}

// returnChangeLocked hands excess coins back to the customer: physical
// coins in denomination breakdown when the host provides a currency
// service, a single accept-compartment entry otherwise. A failed physical
// return falls back to the container so no amount is ever lost. It reports
// the amount already handed over physically and the ID of any fallback
// entry so a failed commit can account for both.
func (s *Session) returnChangeLocked(change domain.Coins) (physical domain.Coins, entryID string) {
	remaining := change
	if s.currency != nil {
		for _, denom := range s.currency.Breakdown(change) {
			if err := s.currency.ReturnCoin(s.customer, denom); err != nil {
				log.Printf("[negotiation] return %s to %s: %v", denom, s.customer, err)
				break
			}
			remaining -= denom
		}
	}
	if remaining > 0 {
		entryID = uuid.NewString()
		s.container.Add(domain.AcceptToCustomer, domain.TradeEntry{
			ID:     entryID,
			Kind:   domain.EntryCoins,
			Amount: remaining,
		})
	}
	return change - remaining, entryID
}

func (s *Session) surchargeLocked(mail bool, paidCount int) domain.Coins {
	if mail && paidCount > 0 {
		return s.pricer.MailSurcharge()
	}
	return 0
}

// ─── Close ──────────────────────────────────────────────────────────────────

// Close ends the session: every transient service option is destroyed and
// anything uncommitted stays with its original holder — items still sitting
// in the offer compartments were never moved, so there is nothing to roll
// back. Committed rounds are never undone. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return
	}
	s.clearOfferLocked()
	s.state = StateClosed
	if s.release != nil {
		s.release()
		s.release = nil
	}
}
