package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dialdirect/backend/internal/eventlog"
	"github.com/dialdirect/backend/internal/ledger"
	"github.com/dialdirect/backend/internal/types"
	"github.com/rs/zerolog"
)

// StatsHandler provides REST endpoints for dispatch stats and history
type StatsHandler struct {
	eventlog *eventlog.EventLog
	ledger   *ledger.Ledger
	logger   zerolog.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(log *eventlog.EventLog, l *ledger.Ledger, logger zerolog.Logger) *StatsHandler {
	return &StatsHandler{
		eventlog: log,
		ledger:   l,
		logger:   logger.With().Str("component", "stats_handler").Logger(),
	}
}

// GetStats returns today's aggregate
// GET /api/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	today := h.eventlog.Today()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(today)
}

// GetProcesses returns recent finished processes, newest first
// GET /api/processes?limit=N
func (h *StatsHandler) GetProcesses(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	processes := h.eventlog.Recent(limit)
	if processes == nil {
		processes = []types.LeadProcess{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(processes)
}

// GetProcessesByDay returns stored process records for one date
// GET /api/processes/day?date=YYYY-MM-DD
func (h *StatsHandler) GetProcessesByDay(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if _, err := time.Parse(types.DateKeyFormat, date); err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	records, err := h.eventlog.ProcessesForDay(date)
	if err != nil {
		h.logger.Error().Err(err).Str("date", date).Msg("failed to get process records")
		http.Error(w, "failed to retrieve processes", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []types.ProcessRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// GetAnalytics merges daily aggregates for a date range
// GET /api/analytics?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *StatsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(types.DateKeyFormat, r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to, err := time.Parse(types.DateKeyFormat, r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "to must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if to.Before(from) {
		http.Error(w, "to must not be before from", http.StatusBadRequest)
		return
	}
	if to.Sub(from) > 92*24*time.Hour {
		http.Error(w, "range too large, max 92 days", http.StatusBadRequest)
		return
	}

	summary, err := h.eventlog.Analytics(from, to)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to compute analytics")
		http.Error(w, "failed to compute analytics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// GetLedger returns the current distribution state for inspection
// GET /api/ledger
func (h *StatsHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	state, err := h.ledger.Load(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load distribution state")
		http.Error(w, "failed to load distribution state", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state)
}
