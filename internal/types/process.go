package types

import "time"

// ProcessStage tracks where a lead is in its processing state machine.
type ProcessStage string

const (
	StageStarted        ProcessStage = "started"
	StageContactEnsured ProcessStage = "contact_ensured"
	StageAgentSelected  ProcessStage = "agent_selected"
	StageCallPlaced     ProcessStage = "call_placed"
	StageDone           ProcessStage = "done"

	// Terminal failure stages, reachable from any step.
	StageContactFailed ProcessStage = "contact_failed"
	StageNoAgent       ProcessStage = "no_agent"
	StageCallFailed    ProcessStage = "call_failed"
)

// ProcessStatus is the final classification of a lead process.
type ProcessStatus string

const (
	ProcessCompleted       ProcessStatus = "completed"
	ProcessDataError       ProcessStatus = "data_error"
	ProcessContactFailed   ProcessStatus = "contact_failed"
	ProcessNoAgents        ProcessStatus = "no_agents_available"
	ProcessAgentsExhausted ProcessStatus = "all_agents_exhausted"
	ProcessTransportError  ProcessStatus = "remote_transport_error"
	ProcessLedgerError     ProcessStatus = "ledger_contention"
)

// IsFailure reports whether the status is a terminal failure.
func (s ProcessStatus) IsFailure() bool {
	return s != ProcessCompleted
}

// LeadProcess is the immutable record of one lead's journey through the
// dispatcher. It is created when processing starts, appended to the event
// log when finished, and never mutated afterwards.
type LeadProcess struct {
	ProcessID   string          `json:"processId"`
	Lead        Lead            `json:"lead"`
	ContactID   string          `json:"contactId,omitempty"`
	Stage       ProcessStage    `json:"stage"`
	FinalStatus ProcessStatus   `json:"finalStatus"`
	Outcome     DispatchOutcome `json:"outcome"`
	Error       string          `json:"error,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	FinishedAt  time.Time       `json:"finishedAt"`
}
