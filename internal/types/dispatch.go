package types

import "time"

// AttemptResult classifies a single call-placement attempt against one agent.
type AttemptResult string

const (
	AttemptSuccess       AttemptResult = "success"
	AttemptBusy          AttemptResult = "busy"
	AttemptUnavailable   AttemptResult = "unavailable"
	AttemptInvalidTarget AttemptResult = "invalid_target"
	AttemptError         AttemptResult = "error"
)

// Retryable reports whether the fallback cascade may continue with another
// agent after this result. Busy and unavailable are availability problems;
// everything else is either success or a problem no other agent can fix.
func (r AttemptResult) Retryable() bool {
	return r == AttemptBusy || r == AttemptUnavailable
}

// SelectionReason explains why the fair selector picked (or did not pick)
// an agent.
type SelectionReason string

const (
	ReasonNoAgentsAvailable SelectionReason = "NO_AGENTS_AVAILABLE"
	ReasonSingleAgent       SelectionReason = "SINGLE_AGENT"
	ReasonFirstDistribution SelectionReason = "FIRST_DISTRIBUTION"
	ReasonRoundRobinNext    SelectionReason = "ROUND_ROBIN_NEXT"
	ReasonRoundRobinWrapped SelectionReason = "ROUND_ROBIN_WRAPPED"
	ReasonLastAgentGone     SelectionReason = "LAST_AGENT_GONE_FALLBACK_TO_FIRST"
)

// DispatchAttempt records one agent tried within a single lead's dispatch.
type DispatchAttempt struct {
	AgentID   string        `json:"agentId"`
	AgentName string        `json:"agentName,omitempty"`
	Attempt   int           `json:"attempt"`
	Result    AttemptResult `json:"result"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// DispatchOutcome aggregates all attempts for one lead.
type DispatchOutcome struct {
	AgentID      string            `json:"agentId,omitempty"`
	AgentName    string            `json:"agentName,omitempty"`
	UsedFallback bool              `json:"usedFallback"`
	Attempts     []DispatchAttempt `json:"attempts"`
	Success      bool              `json:"success"`
}
