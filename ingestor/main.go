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
	"github.com/mtanig/nicocal/backend/internal/dedupe"
	"github.com/mtanig/nicocal/backend/internal/feed"
	"github.com/mtanig/nicocal/backend/internal/logger"
	"github.com/mtanig/nicocal/backend/internal/models"
	"github.com/mtanig/nicocal/backend/internal/service"
	"github.com/mtanig/nicocal/backend/internal/store"
	"github.com/mtanig/nicocal/backend/internal/tokenizer"
)

type pipeline interface {
	Ingest(ctx context.Context, entries []feed.Entry) ([]string, error)
	CreateIndex(ctx context.Context, b *models.Broadcast) ([]string, error)
	FindByKey(ctx context.Context, key string) (*models.Broadcast, error)
}

type feedSource interface {
	FetchURL(ctx context.Context, url string) ([]feed.Entry, error)
}

func main() {
	_ = godotenv.Load()

	log := logger.New("ingestor")
	cfg, err := config.LoadIngestor()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	policy, err := service.ParsePolicy(cfg.OnDuplicateLink)
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	pg, err := store.OpenPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("connect postgres", slog.Any("err", err))
		os.Exit(1)
	}
	defer pg.Close()

	if err := pg.Ensure(ctx); err != nil {
		log.Error("ensure schema", slog.Any("err", err))
		os.Exit(1)
	}

	// The dictionary loads once for the whole process; a failure here means
	// indexing can never work, so give up immediately.
	tok, err := tokenizer.New()
	if err != nil {
		log.Error("init tokenizer", slog.Any("err", err))
		os.Exit(1)
	}

	svc, err := service.New(pg, tok, log, service.Options{
		OnDuplicateLink: policy,
		StripMarkup:     cfg.StripMarkup,
	})
	if err != nil {
		log.Error("init service", slog.Any("err", err))
		os.Exit(1)
	}

	parser := feed.NewParser(cfg.ExtensionPrefix)
	cache := dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL)

	log.Info("ingestor started",
		slog.String("feed", cfg.FeedURL),
		slog.Duration("interval", cfg.Interval),
		slog.String("on_duplicate_link", string(policy)),
	)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	runOnce(ctx, log, svc, parser, cache, cfg, policy)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			runOnce(ctx, log, svc, parser, cache, cfg, policy)
		}
	}
}

func runOnce(ctx context.Context, log *slog.Logger, svc pipeline, src feedSource, cache *dedupe.Cache, cfg *config.Ingestor, policy service.DuplicatePolicy) {
	subCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	entries, err := src.FetchURL(subCtx, cfg.FeedURL)
	if err != nil {
		log.Warn("fetch feed failed (will retry on next interval)", slog.Any("err", err))
		return
	}

	// Under the skip policy a link ingested within the TTL window cannot
	// produce a new record, so drop it before it costs a store lookup.
	if policy == service.DuplicateSkip {
		fresh := make([]feed.Entry, 0, len(entries))
		for _, e := range entries {
			if e.Broadcast != nil && cache.Seen(e.Link) {
				continue
			}
			fresh = append(fresh, e)
		}
		entries = fresh
	}

	keys, err := svc.Ingest(subCtx, entries)
	if err != nil {
		log.Warn("ingest failed", slog.Any("err", err))
		return
	}

	indexed := 0
	for _, key := range keys {
		b, err := svc.FindByKey(subCtx, key)
		if err != nil || b == nil {
			log.Warn("load broadcast for indexing", slog.String("key", key), slog.Any("err", err))
			continue
		}

		if _, err := svc.CreateIndex(subCtx, b); err != nil {
			log.Warn("create index", slog.String("key", key), slog.Any("err", err))
			continue
		}

		cache.Remember(b.Link)
		indexed++
	}

	log.Info("feed processed",
		slog.Int("entries", len(entries)),
		slog.Int("ingested", len(keys)),
		slog.Int("indexed", indexed),
	)
}
