package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// Remote call-center platform
	PlatformBaseURL string
	PlatformToken   string
	CRMBaseURL      string
	CRMToken        string
	RequestTimeout  time.Duration

	// Availability prober
	ProbeWindow   time.Duration // lookback over the recent-call feed
	ProbeCacheTTL time.Duration

	// Distribution ledger
	LedgerRetries int           // CAS retries before surfacing contention
	LedgerBackoff time.Duration // initial retry backoff, doubled per retry

	// WebSocket tuning for the live event feed
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:            getEnv("PORT", "8080"),
		AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		PlatformBaseURL: getEnv("PLATFORM_BASE_URL", "http://localhost:9090"),
		PlatformToken:   getEnv("PLATFORM_TOKEN", ""),
		CRMBaseURL:      getEnv("CRM_BASE_URL", "http://localhost:9091"),
		CRMToken:        getEnv("CRM_TOKEN", ""),
	}

	requestTimeout, err := strconv.Atoi(getEnv("REQUEST_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	config.RequestTimeout = time.Duration(requestTimeout) * time.Second

	probeWindow, err := strconv.Atoi(getEnv("PROBE_WINDOW_MINUTES", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROBE_WINDOW_MINUTES: %w", err)
	}
	config.ProbeWindow = time.Duration(probeWindow) * time.Minute

	probeTTL, err := strconv.Atoi(getEnv("PROBE_CACHE_TTL", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROBE_CACHE_TTL: %w", err)
	}
	config.ProbeCacheTTL = time.Duration(probeTTL) * time.Second

	config.LedgerRetries, err = strconv.Atoi(getEnv("LEDGER_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_RETRIES: %w", err)
	}

	ledgerBackoff, err := strconv.Atoi(getEnv("LEDGER_BACKOFF_MS", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_BACKOFF_MS: %w", err)
	}
	config.LedgerBackoff = time.Duration(ledgerBackoff) * time.Millisecond

	// Parse WebSocket timeouts
	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	// Calculate WebSocket constants
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 512

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
