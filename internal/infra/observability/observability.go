// Package observability defines the Prometheus metrics for the crafting
// service: negotiation rounds, committed trades, coin flow by account, and
// work book load. The /metrics endpoint is served by the API layer behind a
// config flag.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Negotiation Metrics ────────────────────────────────────────────────────

// RoundsReconciled tracks total negotiation rounds processed.
var RoundsReconciled = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "crafter",
	Subsystem: "negotiation",
	Name:      "rounds_total",
	Help:      "Total negotiation rounds reconciled.",
})

// TradesCommitted tracks rounds that reached an atomic commit.
var TradesCommitted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "crafter",
	Subsystem: "negotiation",
	Name:      "trades_committed_total",
	Help:      "Total negotiation rounds committed.",
})

// ItemsRejected tracks reconciliation rejections by reason.
var ItemsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "crafter",
	Subsystem: "negotiation",
	Name:      "items_rejected_total",
	Help:      "Total items routed back to the customer by rejection reason.",
}, []string{"reason"})

// SessionsRejected tracks admission refusals for busy workers.
var SessionsRejected = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "crafter",
	Subsystem: "negotiation",
	Name:      "sessions_rejected_total",
	Help:      "Total session admissions refused because the worker was busy.",
})

// ─── Money Metrics ──────────────────────────────────────────────────────────

// CoinsCollected tracks total irons collected at commit.
var CoinsCollected = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "crafter",
	Subsystem: "settlement",
	Name:      "coins_collected_irons_total",
	Help:      "Total currency collected from committed rounds, in irons.",
})

// CoinsSplit tracks settlement output by destination account.
var CoinsSplit = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "crafter",
	Subsystem: "settlement",
	Name:      "coins_split_irons_total",
	Help:      "Settlement proceeds by destination account, in irons.",
}, []string{"account"})

// ─── Work Book Metrics ──────────────────────────────────────────────────────

// JobsOutstanding tracks outstanding records by kind.
var JobsOutstanding = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "crafter",
	Subsystem: "workbook",
	Name:      "jobs_outstanding",
	Help:      "Outstanding job records by kind.",
}, []string{"kind"})

// JobsCompleted tracks records transitioned to Done.
var JobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "crafter",
	Subsystem: "workbook",
	Name:      "jobs_completed_total",
	Help:      "Total job records transitioned to Done.",
})

// WorkBookFree tracks remaining work book slots.
var WorkBookFree = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "crafter",
	Subsystem: "workbook",
	Name:      "free_slots",
	Help:      "Remaining insertion slots in the work book.",
})
