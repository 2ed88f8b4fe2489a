package ticker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dialdirect/backend/internal/eventlog"
	"github.com/dialdirect/backend/internal/types"
	"github.com/dialdirect/backend/internal/websocket"
	"github.com/rs/zerolog"
)

// StatsMessage carries the periodic dashboard snapshot sent to clients
type StatsMessage struct {
	Type       string             `json:"type"`
	Timestamp  string             `json:"timestamp"`
	ServerTime int64              `json:"serverTime"`
	Today      types.DailyMetrics `json:"today"`
}

// Ticker periodically broadcasts today's dispatch stats to the hub
type Ticker struct {
	hub      *websocket.Hub
	eventlog *eventlog.EventLog
	interval time.Duration
	logger   zerolog.Logger
}

// NewTicker creates a new Ticker
func NewTicker(hub *websocket.Hub, log *eventlog.EventLog, interval time.Duration, logger zerolog.Logger) *Ticker {
	return &Ticker{
		hub:      hub,
		eventlog: log,
		interval: interval,
		logger:   logger,
	}
}

// Start begins broadcasting stats snapshots
func (t *Ticker) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info().Dur("interval", t.interval).Msg("stats ticker started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("stats ticker stopped")
			return

		case now := <-ticker.C:
			if t.hub.ClientCount() == 0 {
				continue
			}

			message := StatsMessage{
				Type:       "stats_snapshot",
				Timestamp:  now.Format(time.RFC3339),
				ServerTime: now.Unix(),
				Today:      t.eventlog.Today(),
			}

			data, err := json.Marshal(message)
			if err != nil {
				t.logger.Error().Err(err).Msg("failed to marshal stats message")
				continue
			}

			t.hub.Broadcast(data)
			t.logger.Debug().
				Int("clients", t.hub.ClientCount()).
				Msg("broadcasted stats snapshot")
		}
	}
}
