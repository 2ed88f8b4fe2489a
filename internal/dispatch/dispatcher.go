package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/dialdirect/backend/internal/ledger"
	"github.com/dialdirect/backend/internal/metrics"
	"github.com/dialdirect/backend/internal/platform"
	"github.com/dialdirect/backend/internal/selector"
	"github.com/dialdirect/backend/internal/storage"
	"github.com/dialdirect/backend/internal/types"
	"github.com/rs/zerolog"
)

// CallPlacer is the subset of the platform client the dispatcher needs.
type CallPlacer interface {
	PlaceCall(ctx context.Context, agentID, phoneNumber string) error
}

// Result pairs the outcome of a dispatch with its final classification.
type Result struct {
	Outcome types.DispatchOutcome
	Status  types.ProcessStatus
}

// Dispatcher walks the available agents in selector order until a call is
// placed or the pool is exhausted. The ledger read-modify-write is
// serialized in-process with a mutex; the store's version check covers the
// multi-instance case.
type Dispatcher struct {
	ledger  *ledger.Ledger
	placer  CallPlacer
	logger  zerolog.Logger
	retries int
	backoff time.Duration

	mu sync.Mutex
}

// New creates a Dispatcher. retries bounds the internal CAS retry loop;
// backoff is the initial delay, doubled per retry.
func New(l *ledger.Ledger, placer CallPlacer, retries int, backoff time.Duration, logger zerolog.Logger) *Dispatcher {
	if retries < 1 {
		retries = 1
	}
	return &Dispatcher{
		ledger:  l,
		placer:  placer,
		logger:  logger.With().Str("component", "dispatcher").Logger(),
		retries: retries,
		backoff: backoff,
	}
}

// Dispatch selects an agent for the lead and attempts to place the call,
// falling back through the remaining available agents on retryable
// failures. Every attempt is recorded in the returned outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, lead types.Lead, available []types.Agent) Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	m := metrics.Get()
	outcome := types.DispatchOutcome{Attempts: []types.DispatchAttempt{}}

	state, err := d.ledger.Load(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to load distribution state")
		return Result{Outcome: outcome, Status: types.ProcessTransportError}
	}

	pool := selector.StableOrder(available)

	for attempt := 1; ; attempt++ {
		sel := selector.Next(pool, state)
		if sel.Agent == nil {
			if attempt == 1 {
				return Result{Outcome: outcome, Status: types.ProcessNoAgents}
			}
			m.RecordExhausted()
			d.logger.Warn().
				Int("attempts", attempt-1).
				Str("phone", lead.Phone).
				Msg("all available agents busy or failed")
			return Result{Outcome: outcome, Status: types.ProcessAgentsExhausted}
		}

		agent := *sel.Agent
		m.RecordDispatchAttempt()

		err := d.placer.PlaceCall(ctx, agent.ID, lead.Phone)
		result := platform.ResultOf(err)

		record := types.DispatchAttempt{
			AgentID:   agent.ID,
			AgentName: agent.Name,
			Attempt:   attempt,
			Result:    result,
			Timestamp: time.Now(),
		}
		if err != nil {
			record.Message = err.Error()
		}
		outcome.Attempts = append(outcome.Attempts, record)

		d.logger.Info().
			Str("agent_id", agent.ID).
			Int("attempt", attempt).
			Str("result", string(result)).
			Str("selection_reason", string(sel.Reason)).
			Msg("dispatch attempt")

		switch {
		case result == types.AttemptSuccess:
			outcome.AgentID = agent.ID
			outcome.AgentName = agent.Name
			outcome.Success = true
			outcome.UsedFallback = attempt > 1
			if outcome.UsedFallback {
				m.RecordFallback()
			}

			if err := d.commitDecision(ctx, state, agent.ID); err != nil {
				// The call was placed; losing the cursor write is an
				// operational failure, not a dispatch failure.
				d.logger.Error().Err(err).Str("agent_id", agent.ID).Msg("failed to persist distribution state")
				return Result{Outcome: outcome, Status: types.ProcessLedgerError}
			}
			return Result{Outcome: outcome, Status: types.ProcessCompleted}

		case result.Retryable():
			// Drop this agent from the pool and continue in selector order.
			pool = removeAgent(pool, agent.ID)

		default:
			// Lead-data or transport problem; no other agent can fix it.
			status := types.ProcessTransportError
			if result == types.AttemptInvalidTarget {
				status = types.ProcessDataError
			}
			return Result{Outcome: outcome, Status: status}
		}
	}
}

// commitDecision records the successful dispatch in the ledger, retrying a
// bounded number of times when another writer advanced the cursor first.
func (d *Dispatcher) commitDecision(ctx context.Context, state *types.DistributionState, agentID string) error {
	m := metrics.Get()
	backoff := d.backoff

	var err error
	for try := 0; try < d.retries; try++ {
		if try > 0 {
			time.Sleep(backoff)
			backoff *= 2
			if state, err = d.ledger.Load(ctx); err != nil {
				return err
			}
		}

		ledger.RecordDecision(state, agentID, types.AttemptSuccess)
		err = d.ledger.Commit(ctx, state)
		if err == nil {
			return nil
		}
		if err != storage.ErrVersionConflict {
			return err
		}
		m.RecordLedgerConflict()
		d.logger.Warn().Int("try", try+1).Msg("distribution state version conflict, retrying")
	}
	return err
}

func removeAgent(pool []types.Agent, agentID string) []types.Agent {
	out := make([]types.Agent, 0, len(pool))
	for _, a := range pool {
		if a.ID != agentID {
			out = append(out, a)
		}
	}
	return out
}
