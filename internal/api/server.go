// Package api provides the read-only HTTP surface for the crafting service:
// health, price quotes, the work ledger, and earnings totals.
//
// Nothing here mutates service state — negotiation happens only through the
// live barter session, never over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mthec/crafter/internal/domain"
	"github.com/mthec/crafter/internal/pricing"
	"github.com/mthec/crafter/internal/workbook"
)

// Server is the crafting service HTTP API server.
type Server struct {
	worker         *domain.Worker
	book           *workbook.Book
	pricer         *pricing.Engine
	earnings       domain.EarningsStore
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(worker *domain.Worker, book *workbook.Book, pricer *pricing.Engine, earnings domain.EarningsStore) *Server {
	return &Server{worker: worker, book: book, pricer: pricer, earnings: earnings}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/quote", s.handleQuote)
		r.Get("/ledger", s.handleLedger)
		r.Get("/earnings", s.handleEarnings)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Handlers ───────────────────────────────────────────────────────────────

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	skills := make(map[string]int, len(s.worker.Skills))
	for group, level := range s.worker.Skills {
		skills[string(group)] = level
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"worker":        s.worker.Name,
		"community":     s.worker.CommunityID,
		"skills":        skills,
		"book_size":     s.book.Len(),
		"book_capacity": s.book.Capacity(),
		"outstanding":   s.book.OutstandingPaid(),
		"donations":     s.book.OutstandingDonations(),
	})
}

// handleQuote prices a hypothetical improvement using the worker's own
// skill for the requested group.
//
//	GET /api/quote?group=blacksmithing&start=20&target=50&material=iron
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	group := domain.SkillGroup(r.URL.Query().Get("group"))
	start, err := strconv.Atoi(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be an integer")
		return
	}
	target, err := strconv.Atoi(r.URL.Query().Get("target"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "target must be an integer")
		return
	}
	material := domain.Material(r.URL.Query().Get("material"))
	if material == "" {
		material = domain.MaterialIron
	}

	skill, ok := s.worker.Skill(group)
	if !ok {
		writeError(w, http.StatusNotFound, "worker does not serve that skill group")
		return
	}

	price, err := s.pricer.Quote(skill, start, target, group, material)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"group":    string(group),
		"material": string(material),
		"start":    start,
		"target":   target,
		"skill":    skill,
		"price":    int64(price),
		"display":  price.String(),
	})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	jobs := make([]domain.JobRecord, 0, s.book.Len())
	for rec := range s.book.Iterate() {
		jobs = append(jobs, rec)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":                  jobs,
		"count":                 len(jobs),
		"outstanding_paid":      s.book.OutstandingPaid(),
		"outstanding_donations": s.book.OutstandingDonations(),
	})
}

func (s *Server) handleEarnings(w http.ResponseWriter, r *http.Request) {
	totals, err := s.earnings.TotalsByAccount()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make(map[string]interface{}, len(totals))
	var total domain.Coins
	for account, amount := range totals {
		out[string(account)] = map[string]interface{}{
			"irons":   int64(amount),
			"display": amount.String(),
		}
		total += amount
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": out,
		"total":    int64(total),
		"display":  total.String(),
	})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}
