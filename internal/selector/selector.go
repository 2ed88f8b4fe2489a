package selector

import (
	"sort"

	"github.com/dialdirect/backend/internal/types"
)

// Result is the outcome of one selection.
type Result struct {
	Agent  *types.Agent
	Reason types.SelectionReason
}

// StableOrder returns the agents sorted by id. The remote roster returns
// agents in arbitrary order; round-robin only works if the index of the
// last-dispatched agent is reproducible across calls.
func StableOrder(agents []types.Agent) []types.Agent {
	ordered := make([]types.Agent, len(agents))
	copy(ordered, agents)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

// Next picks the next agent for dispatch from the available set, continuing
// the round-robin rotation recorded in the ledger cursor.
func Next(available []types.Agent, state *types.DistributionState) Result {
	if len(available) == 0 {
		return Result{Reason: types.ReasonNoAgentsAvailable}
	}

	ordered := StableOrder(available)

	if len(ordered) == 1 {
		return Result{Agent: &ordered[0], Reason: types.ReasonSingleAgent}
	}

	if state == nil || state.LastAgentID == "" {
		return Result{Agent: &ordered[0], Reason: types.ReasonFirstDistribution}
	}

	for i := range ordered {
		if ordered[i].ID == state.LastAgentID {
			next := (i + 1) % len(ordered)
			reason := types.ReasonRoundRobinNext
			if next == 0 {
				reason = types.ReasonRoundRobinWrapped
			}
			return Result{Agent: &ordered[next], Reason: reason}
		}
	}

	// The last-dispatched agent went offline; restart from the top.
	return Result{Agent: &ordered[0], Reason: types.ReasonLastAgentGone}
}
