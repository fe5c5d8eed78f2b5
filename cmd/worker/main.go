package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/fantasy-roster/internal/app"
	"github.com/riskibarqy/fantasy-roster/internal/config"
	"github.com/riskibarqy/fantasy-roster/internal/observability"
	"github.com/riskibarqy/fantasy-roster/internal/platform/logging"
	"github.com/sourcegraph/conc"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	cfg.ServiceName += "-worker"

	logger := logging.NewJSON(cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.AppEnv)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := app.NewServices(ctx, cfg, logger)
	if err != nil {
		logger.Error("build services", "error", err)
		os.Exit(1)
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		runEvery(ctx, logger, "waivers", cfg.WaiverInterval, func(ctx context.Context) {
			result, err := svc.Maintenance.RunWaivers(ctx, nil)
			if err != nil {
				logger.ErrorContext(ctx, "waiver run failed", "error", err)
				return
			}
			logger.InfoContext(ctx, "waiver run finished",
				"leagues", result.LeagueCount,
				"completed", result.CompletedCount,
				"skipped", result.SkippedCount,
				"failed", result.FailedCount,
			)
		})
	})
	wg.Go(func() {
		runEvery(ctx, logger, "reservations-cleanup", cfg.ReservationSweepInterval, func(ctx context.Context) {
			if _, err := svc.Maintenance.RunReservationCleanup(ctx); err != nil {
				logger.ErrorContext(ctx, "reservation cleanup failed", "error", err)
			}
		})
	})

	logger.Info("worker started",
		"waiver_interval", cfg.WaiverInterval.String(),
		"sweep_interval", cfg.ReservationSweepInterval.String(),
		"storage", cfg.StorageDriver,
	)
	// A panic inside a job loop is re-raised here after the other loop stops.
	wg.Wait()

	if err := svc.Close(); err != nil {
		logger.Warn("close services failed", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("shutdown uptrace failed", "error", err)
	}

	logger.Info("worker stopped")
}

// runEvery calls fn immediately and then on every tick until ctx is done.
// Runs never overlap; a slow run delays the next tick.
func runEvery(ctx context.Context, logger *logging.Logger, name string, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		fn(ctx)

		select {
		case <-ctx.Done():
			logger.Info("job loop stopped", "job", name)
			return
		case <-ticker.C:
		}
	}
}
