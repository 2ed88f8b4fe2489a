package ticker

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dialdirect/backend/internal/eventlog"
	"github.com/dialdirect/backend/internal/storage"
	"github.com/dialdirect/backend/internal/websocket"
	"github.com/rs/zerolog"
)

func TestNewTicker(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := websocket.NewHub(logger)
	log := eventlog.New(storage.NewMemoryStore(), logger)
	ticker := NewTicker(hub, log, 1*time.Second, logger)

	if ticker == nil {
		t.Fatal("expected ticker to be created")
	}

	if ticker.hub != hub {
		t.Error("ticker hub not set correctly")
	}

	if ticker.interval != 1*time.Second {
		t.Errorf("expected interval 1s, got %v", ticker.interval)
	}
}

func TestTickerStopsOnContextCancel(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := websocket.NewHub(logger)
	go hub.Run()

	log := eventlog.New(storage.NewMemoryStore(), logger)
	ticker := NewTicker(hub, log, 50*time.Millisecond, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan bool)
	go func() {
		ticker.Start(ctx)
		done <- true
	}()

	<-ctx.Done()

	select {
	case <-done:
		// Ticker stopped cleanly
	case <-time.After(500 * time.Millisecond):
		t.Error("ticker did not stop after context cancellation")
	}
}
