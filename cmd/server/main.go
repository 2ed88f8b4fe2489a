package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dialdirect/backend/internal/api"
	"github.com/dialdirect/backend/internal/auth"
	"github.com/dialdirect/backend/internal/config"
	"github.com/dialdirect/backend/internal/dispatch"
	"github.com/dialdirect/backend/internal/eventlog"
	"github.com/dialdirect/backend/internal/ledger"
	"github.com/dialdirect/backend/internal/metrics"
	"github.com/dialdirect/backend/internal/orchestrator"
	"github.com/dialdirect/backend/internal/platform"
	"github.com/dialdirect/backend/internal/prober"
	"github.com/dialdirect/backend/internal/storage"
	"github.com/dialdirect/backend/internal/ticker"
	"github.com/dialdirect/backend/internal/websocket"
	"github.com/dialdirect/backend/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Str("platform_url", cfg.PlatformBaseURL).
		Msg("starting DialDirect backend server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage (DynamoDB or in-memory, per DYNAMO_MODE)
	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Remote platform clients
	platformClient := platform.NewHTTPClient(cfg.PlatformBaseURL, cfg.PlatformToken, cfg.RequestTimeout, log.Logger)
	crmClient := platform.NewCRMHTTPClient(cfg.CRMBaseURL, cfg.CRMToken, cfg.RequestTimeout, log.Logger)

	// Dispatch pipeline
	distLedger := ledger.New(store, log.Logger)
	availabilityProber := prober.New(platformClient, cfg.ProbeWindow, cfg.ProbeCacheTTL, log.Logger)
	dispatcher := dispatch.New(distLedger, platformClient, cfg.LedgerRetries, cfg.LedgerBackoff, log.Logger)
	processLog := eventlog.New(store, log.Logger)

	// WebSocket hub for the live dashboard feed
	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	leadOrchestrator := orchestrator.New(crmClient, availabilityProber, dispatcher, processLog, hub, log.Logger)

	// Periodic stats snapshots for connected dashboards
	statsTicker := ticker.NewTicker(hub, processLog, 5*time.Second, log.Logger)
	go statsTicker.Start(ctx)

	// Handlers
	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)
	leadHandler := api.NewLeadHandler(leadOrchestrator, log.Logger)
	statsHandler := api.NewStatsHandler(processLog, distLedger, log.Logger)
	adminHandler := api.NewAdminHandler(store, availabilityProber, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())

	// Internal routes (no auth - for trusted lead sources behind the LB)
	r.Route("/internal", func(r chi.Router) {
		r.Post("/lead", leadHandler.HandleLead)
	})

	// Add auth middleware for protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Get("/ws", wsHandler.ServeHTTP)

		r.Route("/api", func(r chi.Router) {
			r.Get("/stats", statsHandler.GetStats)
			r.Get("/processes", statsHandler.GetProcesses)
			r.Get("/processes/day", statsHandler.GetProcessesByDay)
			r.Get("/analytics", statsHandler.GetAnalytics)
			r.Get("/ledger", statsHandler.GetLedger)

			r.Route("/admin", func(r chi.Router) {
				r.Use(api.RequireAdmin)
				r.Post("/wipe", adminHandler.WipeData)
				r.Post("/probe/invalidate", adminHandler.InvalidateProbeCache)
			})
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"dialdirect-backend"}`)
}
