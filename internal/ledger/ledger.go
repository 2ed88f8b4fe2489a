package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/dialdirect/backend/internal/storage"
	"github.com/dialdirect/backend/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Ledger wraps the distribution-state storage with the cursor semantics:
// load the current state, record a dispatch decision, commit with the
// version that was loaded. A commit that loses the version race returns
// storage.ErrVersionConflict for the caller to retry.
type Ledger struct {
	store  storage.Store
	logger zerolog.Logger
}

// New creates a Ledger over the given store.
func New(store storage.Store, logger zerolog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		logger: logger.With().Str("component", "ledger").Logger(),
	}
}

// Load returns the current distribution state. Before the first dispatch it
// returns an empty state at version 0.
func (l *Ledger) Load(ctx context.Context) (*types.DistributionState, error) {
	state, err := l.store.LoadDistributionState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load distribution state: %w", err)
	}
	if state == nil {
		return &types.DistributionState{}, nil
	}
	return state, nil
}

// RecordDecision appends a decision to the state's history, evicting the
// oldest entries beyond the cap, and advances the cursor.
func RecordDecision(state *types.DistributionState, agentID string, outcome types.AttemptResult) {
	now := time.Now()
	state.History = append(state.History, types.DispatchDecision{
		DecisionID: uuid.New().String(),
		AgentID:    agentID,
		Timestamp:  now,
		Outcome:    outcome,
	})
	if len(state.History) > types.HistoryCap {
		state.History = state.History[len(state.History)-types.HistoryCap:]
	}
	state.LastAgentID = agentID
	state.LastDispatchTime = now
}

// Commit persists the state, using its loaded version as the CAS guard.
func (l *Ledger) Commit(ctx context.Context, state *types.DistributionState) error {
	if err := l.store.SaveDistributionState(ctx, state, state.Version); err != nil {
		if err == storage.ErrVersionConflict {
			return err
		}
		return fmt.Errorf("failed to commit distribution state: %w", err)
	}
	state.Version++

	l.logger.Debug().
		Str("last_agent", state.LastAgentID).
		Int64("version", state.Version).
		Int("history", len(state.History)).
		Msg("distribution state committed")
	return nil
}
