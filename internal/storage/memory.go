package storage

import (
	"context"
	"sync"

	"github.com/dialdirect/backend/internal/types"
)

// MemoryStore is an in-process implementation used when DynamoDB is
// disabled and in tests. It applies the same version discipline as the
// DynamoDB store so the dispatcher's CAS path is exercised either way.
type MemoryStore struct {
	mu       sync.Mutex
	records  map[string][]types.ProcessRecord
	daily    map[string]types.DailyMetrics
	state    *types.DistributionState
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]types.ProcessRecord),
		daily:   make(map[string]types.DailyMetrics),
	}
}

func (s *MemoryStore) SaveProcessRecord(record types.ProcessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.DateKey] = append(s.records[record.DateKey], record)
	return nil
}

func (s *MemoryStore) GetProcessRecords(dateKey string) ([]types.ProcessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.records[dateKey]
	out := make([]types.ProcessRecord, len(records))
	copy(out, records)
	return out, nil
}

func (s *MemoryStore) SaveDailyMetrics(metrics types.DailyMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.daily[metrics.Date] = metrics
	return nil
}

func (s *MemoryStore) GetDailyMetrics(dateKey string) (*types.DailyMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	metrics, ok := s.daily[dateKey]
	if !ok {
		return nil, nil
	}
	return &metrics, nil
}

func (s *MemoryStore) LoadDistributionState(_ context.Context) (*types.DistributionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, nil
	}
	cp := *s.state
	cp.History = append([]types.DispatchDecision(nil), s.state.History...)
	return &cp, nil
}

func (s *MemoryStore) SaveDistributionState(_ context.Context, state *types.DistributionState, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if s.state != nil {
		current = s.state.Version
	}
	if current != expectedVersion {
		return ErrVersionConflict
	}

	cp := *state
	cp.History = append([]types.DispatchDecision(nil), state.History...)
	cp.Version = expectedVersion + 1
	s.state = &cp
	return nil
}

func (s *MemoryStore) TruncateAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string][]types.ProcessRecord)
	s.daily = make(map[string]types.DailyMetrics)
	s.state = nil
	return nil
}
