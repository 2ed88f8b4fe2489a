package types

import "time"

// AgentStatus is the raw status tag reported by the call-center platform.
// The platform treats this as an open string enum; new values may appear
// without notice, so availability is derived through an allow-list rather
// than by switching over every known value.
type AgentStatus string

const (
	StatusOnline  AgentStatus = "online"
	StatusCalling AgentStatus = "calling"
	StatusPaused  AgentStatus = "paused"
	StatusAway    AgentStatus = "away"
	StatusOffline AgentStatus = "offline"
)

// Agent is the dispatch view of a platform agent. It is recomputed on every
// probe and never persisted on its own.
type Agent struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Status     AgentStatus `json:"status"`
	Available  bool        `json:"available"`
	ActiveCall *ActiveCall `json:"activeCall,omitempty"`
}

// ActiveCall describes a call that has a start time but no end time yet.
// It only exists transiently, reconstructed from the recent-call feed.
type ActiveCall struct {
	CallID         string    `json:"callId"`
	AgentID        string    `json:"agentId"`
	StartedAt      time.Time `json:"startedAt"`
	ExternalNumber string    `json:"externalNumber,omitempty"`
}

// Elapsed returns how long the call has been running.
func (c ActiveCall) Elapsed() time.Duration {
	return time.Since(c.StartedAt)
}

// Lead is an inbound request to call a phone number.
type Lead struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// PlatformAgent is the roster entry shape returned by the platform's
// listAgents operation.
type PlatformAgent struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Status AgentStatus `json:"status"`
}

// CallEntry is one row of the platform's recent-call feed.
type CallEntry struct {
	CallID         string     `json:"callId"`
	AgentID        string     `json:"agentId"`
	StartedAt      time.Time  `json:"startedAt"`
	EndedAt        *time.Time `json:"endedAt,omitempty"`
	ExternalNumber string     `json:"externalNumber,omitempty"`
}

// IsActive reports whether the entry represents a call still in progress.
func (e CallEntry) IsActive() bool {
	return !e.StartedAt.IsZero() && e.EndedAt == nil
}
