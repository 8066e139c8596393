package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mtanig/nicocal/backend/internal/config"
	"github.com/mtanig/nicocal/backend/internal/logger"
	"github.com/mtanig/nicocal/backend/internal/store"
)

func main() {
	_ = godotenv.Load()

	log := logger.New("retention")
	cfg, err := config.LoadRetention()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Retry the database connection with backoff; retention often starts
	// before the database is up.
	var pg *store.Postgres
	retryDelay := 2 * time.Second
	for i := 0; i < 10; i++ {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		pg, err = store.OpenPostgres(connectCtx, cfg.PostgresDSN)
		cancel()
		if err == nil {
			break
		}

		log.Warn("postgres not ready, retrying",
			slog.Any("err", err),
			slog.Int("attempt", i+1),
			slog.Duration("retry_in", retryDelay),
		)

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			log.Info("shutdown signal received during startup")
			os.Exit(0)
		}
		retryDelay *= 2
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}
	}
	if pg == nil {
		log.Error("failed to connect to postgres after retries")
		os.Exit(1)
	}
	defer pg.Close()

	log.Info("retention job running",
		slog.Duration("interval", cfg.Interval),
		slog.Duration("max_age", cfg.MaxAge),
	)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	runOnce(ctx, log, pg, cfg)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			runOnce(ctx, log, pg, cfg)
		}
	}
}

func runOnce(ctx context.Context, log *slog.Logger, pg *store.Postgres, cfg *config.Retention) {
	subCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-cfg.MaxAge)
	deleted, err := pg.DeleteIndexesBefore(subCtx, cutoff)
	if err != nil {
		log.Warn("retention run failed (will retry on next interval)", slog.Any("err", err))
		return
	}

	if deleted > 0 {
		log.Info("retention run completed", slog.Int64("deleted", deleted), slog.Time("cutoff", cutoff))
	} else {
		log.Debug("retention run completed, no stale index rows")
	}
}
