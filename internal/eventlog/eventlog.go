package eventlog

import (
	"sync"
	"time"

	"github.com/dialdirect/backend/internal/metrics"
	"github.com/dialdirect/backend/internal/storage"
	"github.com/dialdirect/backend/internal/types"
	"github.com/rs/zerolog"
)

// recentCap bounds the in-memory ring of recent processes served to the
// dashboard. Older entries remain in the store, partitioned by day.
const recentCap = 200

// EventLog keeps the append-only history of finished lead processes and the
// per-day aggregates derived from them. Updates are incremental; the day's
// aggregate rotates at the local date boundary.
type EventLog struct {
	store  storage.Store
	logger zerolog.Logger

	mu     sync.RWMutex
	today  *types.DailyMetrics
	recent []types.LeadProcess

	now func() time.Time // overridable in tests
}

// New creates an EventLog, hydrating today's aggregate from the store so a
// restart mid-day does not reset the counters.
func New(store storage.Store, logger zerolog.Logger) *EventLog {
	log := logger.With().Str("component", "eventlog").Logger()
	e := &EventLog{
		store:  store,
		logger: log,
		now:    time.Now,
	}

	dateKey := e.now().Format(types.DateKeyFormat)
	if existing, err := store.GetDailyMetrics(dateKey); err != nil {
		log.Error().Err(err).Str("date", dateKey).Msg("failed to hydrate daily metrics")
	} else if existing != nil {
		e.today = existing
		log.Info().Str("date", dateKey).Int("processes", existing.TotalProcesses).Msg("hydrated daily metrics")
	}
	if e.today == nil {
		e.today = types.NewDailyMetrics(dateKey)
	}
	return e
}

// Append records a finished lead process: persists the flattened record,
// folds it into today's aggregate and writes the aggregate back. The
// in-memory state is updated even when persistence fails, so the dashboard
// stays live during a store outage.
func (e *EventLog) Append(p types.LeadProcess) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	metrics.Get().RecordProcess(p.FinalStatus == types.ProcessCompleted)

	dateKey := e.now().Format(types.DateKeyFormat)
	e.rotateLocked(dateKey)

	e.today.Record(p)
	e.recent = append(e.recent, p)
	if len(e.recent) > recentCap {
		e.recent = e.recent[len(e.recent)-recentCap:]
	}

	if err := e.store.SaveProcessRecord(flatten(dateKey, p)); err != nil {
		e.logger.Error().Err(err).Str("process_id", p.ProcessID).Msg("failed to persist process record")
		return err
	}
	if err := e.store.SaveDailyMetrics(*e.today); err != nil {
		e.logger.Error().Err(err).Str("date", dateKey).Msg("failed to persist daily metrics")
		return err
	}
	return nil
}

// rotateLocked starts a fresh aggregate when the local date has changed.
// Caller must hold e.mu.
func (e *EventLog) rotateLocked(dateKey string) {
	if e.today.Date == dateKey {
		return
	}
	e.logger.Info().Str("from", e.today.Date).Str("to", dateKey).Msg("rotating daily metrics")
	e.today = types.NewDailyMetrics(dateKey)
}

// Today returns a snapshot of the current day's aggregate.
func (e *EventLog) Today() types.DailyMetrics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := *e.today
	snap.FailuresByStatus = make(map[string]int, len(e.today.FailuresByStatus))
	for k, v := range e.today.FailuresByStatus {
		snap.FailuresByStatus[k] = v
	}
	snap.Agents = make(map[string]*types.AgentDayStats, len(e.today.Agents))
	for id, stats := range e.today.Agents {
		copied := *stats
		snap.Agents[id] = &copied
	}
	return snap
}

// Recent returns up to limit finished processes, newest first.
func (e *EventLog) Recent(limit int) []types.LeadProcess {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if limit <= 0 || limit > len(e.recent) {
		limit = len(e.recent)
	}
	out := make([]types.LeadProcess, 0, limit)
	for i := len(e.recent) - 1; i >= len(e.recent)-limit; i-- {
		out = append(out, e.recent[i])
	}
	return out
}

// Analytics merges the stored per-day aggregates across [from, to]
// inclusive. Days with no data are skipped but still counted in Days.
func (e *EventLog) Analytics(from, to time.Time) (*types.AnalyticsSummary, error) {
	fromKey := from.Format(types.DateKeyFormat)
	toKey := to.Format(types.DateKeyFormat)

	summary := &types.AnalyticsSummary{
		From:   fromKey,
		To:     toKey,
		Totals: *types.NewDailyMetrics(""),
	}

	todayKey := e.now().Format(types.DateKeyFormat)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(types.DateKeyFormat)
		summary.Days++

		var dm *types.DailyMetrics
		if key == todayKey {
			snap := e.Today()
			dm = &snap
		} else {
			stored, err := e.store.GetDailyMetrics(key)
			if err != nil {
				return nil, err
			}
			dm = stored
		}
		if dm == nil || dm.TotalProcesses == 0 {
			continue
		}
		summary.Totals.Merge(dm)
		summary.PerDay = append(summary.PerDay, dm)
	}
	return summary, nil
}

// ProcessesForDay reads the stored flattened records for one date key.
func (e *EventLog) ProcessesForDay(dateKey string) ([]types.ProcessRecord, error) {
	return e.store.GetProcessRecords(dateKey)
}

func flatten(dateKey string, p types.LeadProcess) types.ProcessRecord {
	return types.ProcessRecord{
		DateKey:      dateKey,
		ProcessID:    p.ProcessID,
		LeadName:     p.Lead.Name,
		LeadPhone:    p.Lead.Phone,
		ContactID:    p.ContactID,
		AgentID:      p.Outcome.AgentID,
		FinalStatus:  string(p.FinalStatus),
		UsedFallback: p.Outcome.UsedFallback,
		AttemptCount: len(p.Outcome.Attempts),
		Success:      p.Outcome.Success,
		StartedAt:    p.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:   p.FinishedAt.UTC().Format(time.RFC3339),
	}
}
