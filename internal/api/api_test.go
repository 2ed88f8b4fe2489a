package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dialdirect/backend/internal/dispatch"
	"github.com/dialdirect/backend/internal/eventlog"
	"github.com/dialdirect/backend/internal/ledger"
	"github.com/dialdirect/backend/internal/orchestrator"
	"github.com/dialdirect/backend/internal/prober"
	"github.com/dialdirect/backend/internal/storage"
	"github.com/dialdirect/backend/internal/types"
	"github.com/rs/zerolog"
)

type fakePlatform struct {
	agents   []types.PlatformAgent
	placeErr map[string]error
}

func (f *fakePlatform) ListAgents(context.Context) ([]types.PlatformAgent, error) {
	return f.agents, nil
}

func (f *fakePlatform) ListRecentCalls(context.Context, time.Duration) ([]types.CallEntry, error) {
	return nil, nil
}

func (f *fakePlatform) PlaceCall(_ context.Context, agentID, _ string) error {
	return f.placeErr[agentID]
}

type fakeCRM struct{}

func (fakeCRM) EnsureContact(_ context.Context, lead types.Lead) (string, error) {
	return "contact-1", nil
}

type fixture struct {
	leads *LeadHandler
	stats *StatsHandler
}

func newFixture(pf *fakePlatform) *fixture {
	store := storage.NewMemoryStore()
	l := ledger.New(store, zerolog.Nop())
	d := dispatch.New(l, pf, 3, time.Millisecond, zerolog.Nop())
	pr := prober.New(pf, 5*time.Minute, 0, zerolog.Nop())
	log := eventlog.New(store, zerolog.Nop())
	o := orchestrator.New(fakeCRM{}, pr, d, log, nil, zerolog.Nop())
	return &fixture{
		leads: NewLeadHandler(o, zerolog.Nop()),
		stats: NewStatsHandler(log, l, zerolog.Nop()),
	}
}

func onlinePlatformAgents(ids ...string) []types.PlatformAgent {
	out := make([]types.PlatformAgent, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.PlatformAgent{ID: id, Name: "Agent " + id, Status: types.StatusOnline})
	}
	return out
}

func TestHandleLeadSuccess(t *testing.T) {
	f := newFixture(&fakePlatform{agents: onlinePlatformAgents("a1")})

	body, _ := json.Marshal(types.Lead{Name: "Jane", Phone: "+15550001234"})
	req := httptest.NewRequest(http.MethodPost, "/internal/lead", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	f.leads.HandleLead(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var process types.LeadProcess
	if err := json.Unmarshal(rec.Body.Bytes(), &process); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if process.FinalStatus != types.ProcessCompleted {
		t.Errorf("expected completed, got %s", process.FinalStatus)
	}
	if process.Outcome.AgentID != "a1" {
		t.Errorf("expected agent a1, got %s", process.Outcome.AgentID)
	}
}

func TestHandleLeadInvalidJSON(t *testing.T) {
	f := newFixture(&fakePlatform{})

	req := httptest.NewRequest(http.MethodPost, "/internal/lead", bytes.NewReader([]byte("{broken")))
	rec := httptest.NewRecorder()

	f.leads.HandleLead(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleLeadMissingPhone(t *testing.T) {
	f := newFixture(&fakePlatform{})

	body, _ := json.Marshal(types.Lead{Name: "Jane"})
	req := httptest.NewRequest(http.MethodPost, "/internal/lead", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	f.leads.HandleLead(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleLeadBadPhoneReturns422(t *testing.T) {
	f := newFixture(&fakePlatform{agents: onlinePlatformAgents("a1")})

	body, _ := json.Marshal(types.Lead{Name: "Jane", Phone: "not-a-number"})
	req := httptest.NewRequest(http.MethodPost, "/internal/lead", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	f.leads.HandleLead(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

func TestHandleLeadNoAgentsReturns503(t *testing.T) {
	f := newFixture(&fakePlatform{agents: []types.PlatformAgent{
		{ID: "a1", Status: types.StatusPaused},
	}})

	body, _ := json.Marshal(types.Lead{Phone: "+15550001234"})
	req := httptest.NewRequest(http.MethodPost, "/internal/lead", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	f.leads.HandleLead(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestGetStats(t *testing.T) {
	f := newFixture(&fakePlatform{agents: onlinePlatformAgents("a1")})

	// Run one lead through so the aggregate is non-empty.
	body, _ := json.Marshal(types.Lead{Phone: "+15550001234"})
	f.leads.HandleLead(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/internal/lead", bytes.NewReader(body)))

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	f.stats.GetStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var today types.DailyMetrics
	if err := json.Unmarshal(rec.Body.Bytes(), &today); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if today.TotalProcesses != 1 || today.Succeeded != 1 {
		t.Errorf("unexpected aggregate: %+v", today)
	}
}

func TestGetProcessesLimit(t *testing.T) {
	f := newFixture(&fakePlatform{agents: onlinePlatformAgents("a1")})

	for i := 0; i < 4; i++ {
		body, _ := json.Marshal(types.Lead{Phone: "+15550001234"})
		f.leads.HandleLead(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/internal/lead", bytes.NewReader(body)))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/processes?limit=2", nil)
	rec := httptest.NewRecorder()
	f.stats.GetProcesses(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var processes []types.LeadProcess
	if err := json.Unmarshal(rec.Body.Bytes(), &processes); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(processes) != 2 {
		t.Errorf("expected 2 processes, got %d", len(processes))
	}
}

func TestGetProcessesBadLimit(t *testing.T) {
	f := newFixture(&fakePlatform{})

	req := httptest.NewRequest(http.MethodGet, "/api/processes?limit=abc", nil)
	rec := httptest.NewRecorder()
	f.stats.GetProcesses(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGetAnalyticsValidation(t *testing.T) {
	f := newFixture(&fakePlatform{})

	tests := []struct {
		name  string
		query string
		code  int
	}{
		{"missing from", "?to=2026-01-31", http.StatusBadRequest},
		{"missing to", "?from=2026-01-01", http.StatusBadRequest},
		{"inverted range", "?from=2026-01-31&to=2026-01-01", http.StatusBadRequest},
		{"too large", "?from=2025-01-01&to=2026-01-01", http.StatusBadRequest},
		{"valid", "?from=2026-01-01&to=2026-01-31", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/analytics"+tt.query, nil)
			rec := httptest.NewRecorder()
			f.stats.GetAnalytics(rec, req)
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, rec.Code)
			}
		})
	}
}

func TestGetLedger(t *testing.T) {
	f := newFixture(&fakePlatform{agents: onlinePlatformAgents("a1")})

	body, _ := json.Marshal(types.Lead{Phone: "+15550001234"})
	f.leads.HandleLead(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/internal/lead", bytes.NewReader(body)))

	req := httptest.NewRequest(http.MethodGet, "/api/ledger", nil)
	rec := httptest.NewRecorder()
	f.stats.GetLedger(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var state types.DistributionState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if state.LastAgentID != "a1" {
		t.Errorf("expected cursor at a1, got %s", state.LastAgentID)
	}
	if len(state.History) != 1 {
		t.Errorf("expected 1 decision in history, got %d", len(state.History))
	}
}
