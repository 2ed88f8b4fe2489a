package prober

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dialdirect/backend/internal/metrics"
	"github.com/dialdirect/backend/internal/platform"
	"github.com/dialdirect/backend/internal/types"
	"github.com/rs/zerolog"
)

// availableStatuses is the allow-list mapping raw platform status tags to
// dispatch availability. Anything not listed, including "calling" and
// unknown future tags, is unavailable. This is the single place where the
// platform's open status enum is interpreted.
var availableStatuses = map[types.AgentStatus]bool{
	types.StatusOnline: true,
}

// StatusAvailable reports whether a raw status tag counts as available.
func StatusAvailable(status types.AgentStatus) bool {
	return availableStatuses[status]
}

// Prober joins the agent roster with the recent-call feed to decide which
// agents are truly free to take a call right now. Results are cached for a
// short TTL to bound remote call volume; Invalidate forces the next Probe
// to hit the platform again.
type Prober struct {
	platform platform.Client
	window   time.Duration
	ttl      time.Duration
	logger   zerolog.Logger

	mu       sync.Mutex
	cached   []types.Agent
	cachedAt time.Time
}

// New creates a Prober with the given call-feed lookback window and cache TTL.
func New(client platform.Client, window, ttl time.Duration, logger zerolog.Logger) *Prober {
	return &Prober{
		platform: client,
		window:   window,
		ttl:      ttl,
		logger:   logger.With().Str("component", "prober").Logger(),
	}
}

// Probe returns the current dispatch view of every agent on the roster.
// The result is all-or-nothing: if either remote read fails, no agents are
// reported rather than a silently stale subset.
func (p *Prober) Probe(ctx context.Context) ([]types.Agent, error) {
	m := metrics.Get()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil && time.Since(p.cachedAt) < p.ttl {
		m.RecordProbeCacheHit()
		p.logger.Debug().Int("agents", len(p.cached)).Msg("probe served from cache")
		return cloneAgents(p.cached), nil
	}

	roster, err := p.platform.ListAgents(ctx)
	if err != nil {
		m.RecordProbe(true)
		return nil, fmt.Errorf("probe failed: %w", err)
	}

	calls, err := p.platform.ListRecentCalls(ctx, p.window)
	if err != nil {
		m.RecordProbe(true)
		return nil, fmt.Errorf("probe failed: %w", err)
	}

	activeByAgent := make(map[string]*types.ActiveCall)
	for _, entry := range calls {
		if !entry.IsActive() {
			continue
		}
		activeByAgent[entry.AgentID] = &types.ActiveCall{
			CallID:         entry.CallID,
			AgentID:        entry.AgentID,
			StartedAt:      entry.StartedAt,
			ExternalNumber: entry.ExternalNumber,
		}
	}

	agents := make([]types.Agent, 0, len(roster))
	available := 0
	for _, entry := range roster {
		agent := types.Agent{
			ID:     entry.ID,
			Name:   entry.Name,
			Status: entry.Status,
		}
		if active, onCall := activeByAgent[entry.ID]; onCall {
			// An active call always wins over the raw status tag.
			agent.ActiveCall = active
		} else {
			agent.Available = StatusAvailable(entry.Status)
		}
		if agent.Available {
			available++
		}
		agents = append(agents, agent)
	}

	p.cached = agents
	p.cachedAt = time.Now()
	m.RecordProbe(false)

	p.logger.Debug().
		Int("roster", len(roster)).
		Int("active_calls", len(activeByAgent)).
		Int("available", available).
		Msg("probe completed")

	return cloneAgents(agents), nil
}

// Invalidate drops the cached probe result. Called after a failed dispatch
// attempt, because stale availability data is the main source of
// mis-dispatch.
func (p *Prober) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.cachedAt = time.Time{}
	p.mu.Unlock()
}

func cloneAgents(agents []types.Agent) []types.Agent {
	out := make([]types.Agent, len(agents))
	copy(out, agents)
	return out
}
