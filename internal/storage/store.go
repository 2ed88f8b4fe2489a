package storage

import (
	"context"
	"errors"

	"github.com/dialdirect/backend/internal/types"
)

// ErrVersionConflict is returned when a distribution-state save loses a
// compare-and-swap race: the stored version moved since it was loaded.
var ErrVersionConflict = errors.New("distribution state version conflict")

// Store defines the storage interface
type Store interface {
	// Event log
	SaveProcessRecord(record types.ProcessRecord) error
	GetProcessRecords(dateKey string) ([]types.ProcessRecord, error)

	// Daily aggregates
	SaveDailyMetrics(metrics types.DailyMetrics) error
	GetDailyMetrics(dateKey string) (*types.DailyMetrics, error)

	// Distribution ledger. Load returns (nil, nil) before the first save.
	// Save succeeds only when the stored version equals expectedVersion
	// (0 when nothing is stored yet) and bumps the stored version.
	LoadDistributionState(ctx context.Context) (*types.DistributionState, error)
	SaveDistributionState(ctx context.Context, state *types.DistributionState, expectedVersion int64) error

	TruncateAll() error
}
