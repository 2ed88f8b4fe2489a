package api

import (
	"encoding/json"
	"net/http"

	"github.com/dialdirect/backend/internal/orchestrator"
	"github.com/dialdirect/backend/internal/types"
	"github.com/rs/zerolog"
)

// LeadHandler accepts incoming leads and runs them through the dispatch
// pipeline synchronously. The response carries the full process record.
type LeadHandler struct {
	orchestrator *orchestrator.Orchestrator
	logger       zerolog.Logger
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(o *orchestrator.Orchestrator, logger zerolog.Logger) *LeadHandler {
	return &LeadHandler{
		orchestrator: o,
		logger:       logger.With().Str("component", "lead_handler").Logger(),
	}
}

// HandleLead handles POST /internal/lead
func (h *LeadHandler) HandleLead(w http.ResponseWriter, r *http.Request) {
	var lead types.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if lead.Phone == "" {
		http.Error(w, "phone is required", http.StatusBadRequest)
		return
	}

	process := h.orchestrator.Process(r.Context(), lead)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForProcess(process.FinalStatus))
	json.NewEncoder(w).Encode(process)
}

// statusForProcess maps the pipeline's final classification to an HTTP
// status. Failures that the caller can fix are 4xx; the rest are 502/503
// so upstream form handlers can retry.
func statusForProcess(status types.ProcessStatus) int {
	switch status {
	case types.ProcessCompleted:
		return http.StatusOK
	case types.ProcessDataError:
		return http.StatusUnprocessableEntity
	case types.ProcessNoAgents, types.ProcessAgentsExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
