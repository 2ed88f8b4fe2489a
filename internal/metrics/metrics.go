package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Lead processing metrics
	ProcessesTotal     int64
	ProcessesSucceeded int64
	ProcessesFailed    int64

	// Dispatch metrics
	DispatchAttemptsTotal int64
	FallbacksTotal        int64
	ExhaustedTotal        int64
	LedgerConflictsTotal  int64

	// Prober metrics
	ProbesTotal     int64
	ProbeErrors     int64
	ProbeCacheHits  int64

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	activeConnections            int64

	// HTTP metrics
	httpRequestsTotal map[string]map[int]int64 // endpoint -> status -> count

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			httpRequestsTotal: make(map[string]map[int]int64),
			startTime:         time.Now(),
		}
	})
	return instance
}

// RecordProcess records a finished lead process
func (m *Metrics) RecordProcess(success bool) {
	m.mu.Lock()
	m.ProcessesTotal++
	if success {
		m.ProcessesSucceeded++
	} else {
		m.ProcessesFailed++
	}
	m.mu.Unlock()
}

// RecordDispatchAttempt increments the per-agent attempt counter
func (m *Metrics) RecordDispatchAttempt() {
	m.mu.Lock()
	m.DispatchAttemptsTotal++
	m.mu.Unlock()
}

// RecordFallback records a dispatch that needed the fallback cascade
func (m *Metrics) RecordFallback() {
	m.mu.Lock()
	m.FallbacksTotal++
	m.mu.Unlock()
}

// RecordExhausted records a dispatch that ran out of agents
func (m *Metrics) RecordExhausted() {
	m.mu.Lock()
	m.ExhaustedTotal++
	m.mu.Unlock()
}

// RecordLedgerConflict records a lost CAS race on the distribution ledger
func (m *Metrics) RecordLedgerConflict() {
	m.mu.Lock()
	m.LedgerConflictsTotal++
	m.mu.Unlock()
}

// RecordProbe records a completed availability probe
func (m *Metrics) RecordProbe(err bool) {
	m.mu.Lock()
	m.ProbesTotal++
	if err {
		m.ProbeErrors++
	}
	m.mu.Unlock()
}

// RecordProbeCacheHit records a probe served from cache
func (m *Metrics) RecordProbeCacheHit() {
	m.mu.Lock()
	m.ProbeCacheHits++
	m.mu.Unlock()
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Helper to write metric
		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		// System metrics
		write("dialdirect_uptime_seconds", time.Since(m.startTime).Seconds())

		// Lead processing metrics
		write("dialdirect_processes_total", m.ProcessesTotal)
		write("dialdirect_processes_succeeded_total", m.ProcessesSucceeded)
		write("dialdirect_processes_failed_total", m.ProcessesFailed)

		// Dispatch metrics
		write("dialdirect_dispatch_attempts_total", m.DispatchAttemptsTotal)
		write("dialdirect_fallbacks_total", m.FallbacksTotal)
		write("dialdirect_exhausted_total", m.ExhaustedTotal)
		write("dialdirect_ledger_conflicts_total", m.LedgerConflictsTotal)

		// Prober metrics
		write("dialdirect_probes_total", m.ProbesTotal)
		write("dialdirect_probe_errors_total", m.ProbeErrors)
		write("dialdirect_probe_cache_hits_total", m.ProbeCacheHits)

		// WebSocket metrics
		write("dialdirect_websocket_connections_total", m.WebSocketConnectionsTotal)
		write("dialdirect_websocket_disconnections_total", m.WebSocketDisconnectionsTotal)
		write("dialdirect_websocket_active_connections", m.activeConnections)

		// HTTP metrics
		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("dialdirect_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
	}
}
