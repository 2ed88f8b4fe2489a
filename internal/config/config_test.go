package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default values",
			env:  map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Port != "8080" {
					t.Errorf("expected port 8080, got %s", cfg.Port)
				}
				if cfg.LogLevel != "info" {
					t.Errorf("expected log level info, got %s", cfg.LogLevel)
				}
				if cfg.ProbeWindow != 5*time.Minute {
					t.Errorf("expected ProbeWindow 5m, got %v", cfg.ProbeWindow)
				}
				if cfg.ProbeCacheTTL != 20*time.Second {
					t.Errorf("expected ProbeCacheTTL 20s, got %v", cfg.ProbeCacheTTL)
				}
				if cfg.LedgerRetries != 3 {
					t.Errorf("expected 3 ledger retries, got %d", cfg.LedgerRetries)
				}
				if cfg.LedgerBackoff != 50*time.Millisecond {
					t.Errorf("expected 50ms ledger backoff, got %v", cfg.LedgerBackoff)
				}
				if cfg.RequestTimeout != 10*time.Second {
					t.Errorf("expected RequestTimeout 10s, got %v", cfg.RequestTimeout)
				}
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"PORT":                 "9000",
				"LOG_LEVEL":            "debug",
				"PLATFORM_BASE_URL":    "https://platform.example.com",
				"PROBE_WINDOW_MINUTES": "10",
				"PROBE_CACHE_TTL":      "5",
				"LEDGER_RETRIES":       "5",
				"ALLOWED_ORIGINS":      "http://example.com,http://test.com",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Port != "9000" {
					t.Errorf("expected port 9000, got %s", cfg.Port)
				}
				if cfg.PlatformBaseURL != "https://platform.example.com" {
					t.Errorf("unexpected platform base URL %s", cfg.PlatformBaseURL)
				}
				if cfg.ProbeWindow != 10*time.Minute {
					t.Errorf("expected ProbeWindow 10m, got %v", cfg.ProbeWindow)
				}
				if cfg.ProbeCacheTTL != 5*time.Second {
					t.Errorf("expected ProbeCacheTTL 5s, got %v", cfg.ProbeCacheTTL)
				}
				if cfg.LedgerRetries != 5 {
					t.Errorf("expected 5 ledger retries, got %d", cfg.LedgerRetries)
				}
				if len(cfg.AllowedOrigins) != 2 {
					t.Errorf("expected 2 allowed origins, got %d", len(cfg.AllowedOrigins))
				}
			},
		},
		{
			name: "invalid PROBE_CACHE_TTL",
			env: map[string]string{
				"PROBE_CACHE_TTL": "invalid",
			},
			wantErr: true,
		},
		{
			name: "invalid LEDGER_RETRIES",
			env: map[string]string{
				"LEDGER_RETRIES": "invalid",
			},
			wantErr: true,
		},
		{
			name: "invalid WS_READ_TIMEOUT",
			env: map[string]string{
				"WS_READ_TIMEOUT": "invalid",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			// Load config
			cfg, err := Load()

			// Check error
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			// Run custom checks
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestWebSocketConstants(t *testing.T) {
	// Clear environment and set clean defaults
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// PongWait should equal WSReadTimeout
	if cfg.PongWait != cfg.WSReadTimeout {
		t.Errorf("PongWait (%v) should equal WSReadTimeout (%v)", cfg.PongWait, cfg.WSReadTimeout)
	}

	// PingPeriod should be less than PongWait
	if cfg.PingPeriod >= cfg.PongWait {
		t.Errorf("PingPeriod (%v) should be less than PongWait (%v)", cfg.PingPeriod, cfg.PongWait)
	}

	// MaxMessageSize should be set
	if cfg.MaxMessageSize <= 0 {
		t.Errorf("MaxMessageSize should be positive, got %d", cfg.MaxMessageSize)
	}
}
