package types

import "time"

// HistoryCap bounds the dispatch decision history kept in the ledger.
const HistoryCap = 50

// DispatchDecision is one entry in the ledger's bounded history.
type DispatchDecision struct {
	DecisionID string        `json:"decisionId" dynamodbav:"DecisionID"`
	AgentID    string        `json:"agentId" dynamodbav:"AgentID"`
	Timestamp  time.Time     `json:"timestamp" dynamodbav:"Timestamp"`
	Outcome    AttemptResult `json:"outcome" dynamodbav:"Outcome"`
}

// DistributionState is the durable round-robin cursor. LastAgentID is empty
// until the first dispatch. Version implements optimistic concurrency: a
// save only succeeds when the stored version still equals the one that was
// loaded, and the stored version is bumped on every successful save.
type DistributionState struct {
	LastAgentID      string             `json:"lastAgentId" dynamodbav:"LastAgentID"`
	LastDispatchTime time.Time          `json:"lastDispatchTime" dynamodbav:"LastDispatchTime"`
	History          []DispatchDecision `json:"history" dynamodbav:"History"`
	Version          int64              `json:"version" dynamodbav:"Version"`
}
