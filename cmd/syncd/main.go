// Package main is the entry point of the reports service.
//
// syncd keeps a local copy of every institute sheet, serves the aggregated
// report pages over HTTP and forwards form submissions to the sheets
// endpoint:
//   - page loads answer from the local copy and sync in the background
//   - manual refreshes and submissions sync before answering
//   - a scheduler re-syncs every sheet on a fixed interval
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/halaqat-hub/halaqat-reports/config"
	"github.com/halaqat-hub/halaqat-reports/internal/application/aggregation"
	"github.com/halaqat-hub/halaqat-reports/internal/application/sheetsync"
	"github.com/halaqat-hub/halaqat-reports/internal/infrastructure/external/sheets"
	"github.com/halaqat-hub/halaqat-reports/internal/infrastructure/persistence"
	"github.com/halaqat-hub/halaqat-reports/internal/infrastructure/scheduler"
	"github.com/halaqat-hub/halaqat-reports/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/halaqat-hub/halaqat-reports/internal/interface/http"
	"github.com/halaqat-hub/halaqat-reports/internal/interface/http/handlers"
	"github.com/halaqat-hub/halaqat-reports/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Level:     cfg.Observability.LogLevel,
		Format:    cfg.Observability.LogFormat,
		Output:    os.Stdout,
		AddSource: cfg.App.Debug,
	})
	slog.SetDefault(log)

	log.Info("starting reports service",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. STORAGE (PostgreSQL or memory, optional Redis in front)
	// ─────────────────────────────────────────────────────────────────────────
	storage, err := persistence.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing storage...")
		storage.Close()
	}()
	log.Info("sheet store ready", "backend", storage.Backend, "cache", storage.Redis != nil)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. SHEETS CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	clientCfg := sheets.DefaultClientConfig(cfg.Sheets.URL)
	clientCfg.Timeout = cfg.Sheets.RequestTimeout
	clientCfg.RateLimiterConfig.RequestsPerSecond = cfg.Sheets.RateLimit
	clientCfg.RateLimiterConfig.BurstSize = cfg.Sheets.RateLimitBurst
	clientCfg.MaxAttempts = cfg.Sheets.MaxRetries
	clientCfg.BreakerFailureThreshold = cfg.Sheets.CircuitBreakerThreshold
	clientCfg.BreakerTimeout = cfg.Sheets.CircuitBreakerTimeout
	clientCfg.UserAgent = cfg.App.Name + "/" + cfg.App.Version
	clientCfg.Logger = log
	clientCfg.Debug = cfg.App.Debug
	client := sheets.NewClient(clientCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. AGGREGATION & SYNC
	// ─────────────────────────────────────────────────────────────────────────
	engine := aggregation.NewEngine(
		aggregation.WithLocation(cfg.App.Location),
		aggregation.WithLogger(log),
	)
	orch := sheetsync.NewOrchestrator(storage.Store, client, engine, log,
		sheetsync.WithSettleDelay(cfg.Sync.SettleDelay),
	)
	defer orch.Wait()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{
		Logger:     log,
		Timezone:   cfg.App.Location,
		JobTimeout: cfg.Scheduler.JobTimeout,
	})
	syncJob := jobs.NewSyncSheetsJob(orch, log)
	if err := sched.Register(syncJob, scheduler.NewIntervalSchedule(cfg.Scheduler.SyncInterval)); err != nil {
		return fmt.Errorf("failed to register sync job: %w", err)
	}
	if !cfg.Scheduler.Enabled {
		if err := sched.SetEnabled(syncJob.Name(), false); err != nil {
			return fmt.Errorf("failed to disable sync job: %w", err)
		}
	}

	var runOnStart []string
	if cfg.Scheduler.Enabled && cfg.Scheduler.RunOnStart {
		runOnStart = append(runOnStart, syncJob.Name())
	}
	if err := sched.Start(ctx, runOnStart...); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer func() {
		log.Info("stopping scheduler...")
		_ = sched.Stop()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	if storage.Postgres != nil {
		health.AddCheck("postgres", handlers.NewPingCheck(storage.Postgres))
	}
	if storage.Redis != nil {
		health.AddNonCriticalCheck("redis", handlers.NewPingCheck(storage.Redis))
	}
	health.AddNonCriticalCheck("sheets", handlers.NewBreakerCheck(func() string {
		return client.Status().Breaker
	}))

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpapi.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverCfg.Version = cfg.App.Version

	server := httpapi.NewServer(serverCfg, httpapi.Dependencies{
		Pages:  orch,
		Jobs:   sched,
		Health: health,
		Logger: log,
	})
	serverErr := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("reports service is running", "address", cfg.HTTP.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			log.Error("http server stopped", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.App.ShutdownTimeout > 0 {
		return cfg.App.ShutdownTimeout
	}
	return 15 * time.Second
}
