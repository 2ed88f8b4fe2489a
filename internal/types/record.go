package types

// DateKeyFormat is the layout for per-day partition keys.
const DateKeyFormat = "2006-01-02"

// ProcessRecord is a flattened LeadProcess for persistence.
type ProcessRecord struct {
	DateKey      string `json:"dateKey" dynamodbav:"DateKey"`   // YYYY-MM-DD (partition key)
	ProcessID    string `json:"processId" dynamodbav:"ProcessID"` // sort key
	LeadName     string `json:"leadName" dynamodbav:"LeadName"`
	LeadPhone    string `json:"leadPhone" dynamodbav:"LeadPhone"`
	ContactID    string `json:"contactId" dynamodbav:"ContactID"`
	AgentID      string `json:"agentId" dynamodbav:"AgentID"`
	FinalStatus  string `json:"finalStatus" dynamodbav:"FinalStatus"`
	UsedFallback bool   `json:"usedFallback" dynamodbav:"UsedFallback"`
	AttemptCount int    `json:"attemptCount" dynamodbav:"AttemptCount"`
	Success      bool   `json:"success" dynamodbav:"Success"`
	StartedAt    string `json:"startedAt" dynamodbav:"StartedAt"`   // RFC3339
	FinishedAt   string `json:"finishedAt" dynamodbav:"FinishedAt"` // RFC3339
}

// AgentDayStats holds per-agent counters within one day's metrics.
type AgentDayStats struct {
	AgentID     string  `json:"agentId" dynamodbav:"AgentID"`
	Assigned    int     `json:"assigned" dynamodbav:"Assigned"`
	Succeeded   int     `json:"succeeded" dynamodbav:"Succeeded"`
	Failed      int     `json:"failed" dynamodbav:"Failed"`
	SuccessRate float64 `json:"successRate" dynamodbav:"SuccessRate"` // 0-100%
}

// DailyMetrics is the per-calendar-day aggregate, mutated incrementally as
// lead processes complete and rotated at local-day boundaries.
type DailyMetrics struct {
	Date             string                `json:"date" dynamodbav:"Date"` // YYYY-MM-DD (partition key)
	TotalProcesses   int                   `json:"totalProcesses" dynamodbav:"TotalProcesses"`
	Succeeded        int                   `json:"succeeded" dynamodbav:"Succeeded"`
	Failed           int                   `json:"failed" dynamodbav:"Failed"`
	FailuresByStatus map[string]int        `json:"failuresByStatus" dynamodbav:"FailuresByStatus"`
	Agents           map[string]*AgentDayStats `json:"agents" dynamodbav:"Agents"`
	FallbacksUsed    int                   `json:"fallbacksUsed" dynamodbav:"FallbacksUsed"`
}

// NewDailyMetrics returns an empty aggregate for the given date key.
func NewDailyMetrics(date string) *DailyMetrics {
	return &DailyMetrics{
		Date:             date,
		FailuresByStatus: make(map[string]int),
		Agents:           make(map[string]*AgentDayStats),
	}
}

// Record folds one finished lead process into the aggregate.
func (m *DailyMetrics) Record(p LeadProcess) {
	m.TotalProcesses++
	if p.FinalStatus == ProcessCompleted {
		m.Succeeded++
	} else {
		m.Failed++
		m.FailuresByStatus[string(p.FinalStatus)]++
	}
	if p.Outcome.UsedFallback {
		m.FallbacksUsed++
	}

	for _, attempt := range p.Outcome.Attempts {
		stats := m.Agents[attempt.AgentID]
		if stats == nil {
			stats = &AgentDayStats{AgentID: attempt.AgentID}
			m.Agents[attempt.AgentID] = stats
		}
		stats.Assigned++
		if attempt.Result == AttemptSuccess {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
		if stats.Assigned > 0 {
			stats.SuccessRate = float64(stats.Succeeded) / float64(stats.Assigned) * 100.0
		}
	}
}

// Merge folds another day's aggregate into this one. Used for range
// analytics, which is a plain per-day merge rather than a query engine.
func (m *DailyMetrics) Merge(other *DailyMetrics) {
	m.TotalProcesses += other.TotalProcesses
	m.Succeeded += other.Succeeded
	m.Failed += other.Failed
	m.FallbacksUsed += other.FallbacksUsed
	for status, count := range other.FailuresByStatus {
		m.FailuresByStatus[status] += count
	}
	for id, stats := range other.Agents {
		merged := m.Agents[id]
		if merged == nil {
			merged = &AgentDayStats{AgentID: id}
			m.Agents[id] = merged
		}
		merged.Assigned += stats.Assigned
		merged.Succeeded += stats.Succeeded
		merged.Failed += stats.Failed
		if merged.Assigned > 0 {
			merged.SuccessRate = float64(merged.Succeeded) / float64(merged.Assigned) * 100.0
		}
	}
}

// AnalyticsSummary is the result of aggregating a date range.
type AnalyticsSummary struct {
	From    string          `json:"from"`
	To      string          `json:"to"`
	Days    int             `json:"days"`
	Totals  DailyMetrics    `json:"totals"`
	PerDay  []*DailyMetrics `json:"perDay,omitempty"`
}
