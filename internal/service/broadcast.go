package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mtanig/nicocal/backend/internal/feed"
	"github.com/mtanig/nicocal/backend/internal/models"
	"github.com/mtanig/nicocal/backend/internal/processing"
	"github.com/mtanig/nicocal/backend/internal/store"
	"github.com/mtanig/nicocal/backend/internal/tokenizer"
)

// ErrInvalidArgument marks calls rejected before any store mutation because
// a required parameter was absent.
var ErrInvalidArgument = errors.New("invalid argument")

// DuplicatePolicy decides what happens when a feed entry's link already has
// a stored broadcast.
type DuplicatePolicy string

const (
	// DuplicateSkip leaves the stored record untouched.
	DuplicateSkip DuplicatePolicy = "skip"
	// DuplicateOverwrite refreshes every field from the feed, keeping the key.
	DuplicateOverwrite DuplicatePolicy = "overwrite"
)

// ParsePolicy maps a config string onto a DuplicatePolicy.
func ParsePolicy(raw string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(raw) {
	case DuplicateSkip, DuplicateOverwrite:
		return DuplicatePolicy(raw), nil
	case "":
		return DuplicateSkip, nil
	default:
		return "", fmt.Errorf("unknown duplicate-link policy %q", raw)
	}
}

// Options tune the ingestion and indexing behavior.
type Options struct {
	OnDuplicateLink DuplicatePolicy
	StripMarkup     bool
}

// Broadcasts ingests feed entries into broadcast records and maintains
// their keyword index.
type Broadcasts struct {
	store store.Store
	tok   tokenizer.Tokenizer
	log   *slog.Logger
	opts  Options
}

// New wires the service. The tokenizer may be nil for callers that only
// query; CreateIndex then fails until one is provided.
func New(st store.Store, tok tokenizer.Tokenizer, log *slog.Logger, opts Options) (*Broadcasts, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: store is nil", ErrInvalidArgument)
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.OnDuplicateLink == "" {
		opts.OnDuplicateLink = DuplicateSkip
	}
	return &Broadcasts{store: st, tok: tok, log: log, opts: opts}, nil
}

// Ingest turns feed entries into broadcast records and writes them as one
// batch. Entries without a broadcast extension block are not live events and
// are skipped; an entry with an unparsable timestamp is logged and skipped
// without touching the rest of the batch. Returned keys cover the written
// records in collection order.
func (s *Broadcasts) Ingest(ctx context.Context, entries []feed.Entry) ([]string, error) {
	if entries == nil {
		return nil, fmt.Errorf("%w: feed is nil", ErrInvalidArgument)
	}

	overwrite := s.opts.OnDuplicateLink == DuplicateOverwrite
	batch := make([]models.Broadcast, 0, len(entries))
	for _, e := range entries {
		if e.Broadcast == nil {
			continue
		}

		existing, err := s.store.BroadcastByLink(ctx, e.Link)
		if err != nil {
			return nil, fmt.Errorf("look up link %s: %w", e.Link, err)
		}
		if existing != nil && !overwrite {
			s.log.Debug("link already ingested", slog.String("link", e.Link))
			continue
		}

		openTime, err := processing.ParseFeedTime(e.Broadcast.OpenTime)
		if err != nil {
			s.log.Warn("skip entry with bad openTime", slog.String("link", e.Link), slog.Any("err", err))
			continue
		}
		startTime, err := processing.ParseFeedTime(e.Broadcast.StartTime)
		if err != nil {
			s.log.Warn("skip entry with bad startTime", slog.String("link", e.Link), slog.Any("err", err))
			continue
		}

		b := models.Broadcast{
			Title:       e.Title,
			Description: e.Description,
			OpenTime:    openTime,
			StartTime:   startTime,
			Type:        e.Broadcast.Type,
			Password:    e.Broadcast.Password,
			PremiumOnly: e.Broadcast.PremiumOnly,
			Link:        e.Link,
		}
		if existing != nil {
			b.Key = existing.Key
		}
		batch = append(batch, b)
	}

	keys, err := s.store.PutBroadcasts(ctx, batch, overwrite)
	if err != nil {
		return nil, fmt.Errorf("put broadcasts: %w", err)
	}
	return keys, nil
}

// CreateIndex tokenizes the broadcast's title and description and inserts
// one keyword index row per distinct surface form not yet indexed for this
// broadcast. Returned keys cover newly inserted rows only, so re-indexing an
// unchanged broadcast yields an empty result.
func (s *Broadcasts) CreateIndex(ctx context.Context, b *models.Broadcast) ([]string, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: broadcast is nil", ErrInvalidArgument)
	}
	if s.tok == nil {
		return nil, fmt.Errorf("tokenizer is not initialized")
	}

	seen := make(map[string]struct{})
	var keywords []string
	add := func(tokens []string) {
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			keywords = append(keywords, tok)
		}
	}

	titleTokens, err := s.tok.Tokenize(b.Title)
	if err != nil {
		return nil, fmt.Errorf("tokenize title: %w", err)
	}
	add(titleTokens)

	// Description problems are non-fatal: the title tokens alone still make
	// a usable index, and a broken description must not sink the broadcast.
	description := b.Description
	indexDescription := true
	if s.opts.StripMarkup {
		stripped, err := processing.StripMarkup(description)
		if err != nil {
			s.log.Warn("strip markup failed, indexing title only",
				slog.String("broadcast", b.Key), slog.Any("err", err))
			indexDescription = false
		} else {
			description = stripped
		}
	}
	if indexDescription {
		descTokens, err := s.tok.Tokenize(description)
		if err != nil {
			s.log.Warn("tokenize description failed, indexing title only",
				slog.String("broadcast", b.Key), slog.Any("err", err))
		} else {
			add(descTokens)
		}
	}

	indexes := make([]models.KeywordIndex, 0, len(keywords))
	for _, kw := range keywords {
		indexes = append(indexes, models.KeywordIndex{
			Keyword:      kw,
			BroadcastKey: b.Key,
			OpenTime:     b.OpenTime,
		})
	}

	keys, err := s.store.PutIndexes(ctx, indexes)
	if err != nil {
		return nil, fmt.Errorf("put indexes: %w", err)
	}
	return keys, nil
}

// DeleteOldIndex removes every keyword index row whose open time is at or
// before cutoff.
func (s *Broadcasts) DeleteOldIndex(ctx context.Context, cutoff time.Time) error {
	if cutoff.IsZero() {
		return fmt.Errorf("%w: cutoff is zero", ErrInvalidArgument)
	}

	deleted, err := s.store.DeleteIndexesBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete old indexes: %w", err)
	}
	s.log.Info("pruned keyword index", slog.Int64("deleted", deleted), slog.Time("cutoff", cutoff))
	return nil
}

// DeleteAllIndex clears the whole keyword index ahead of a full reindex.
func (s *Broadcasts) DeleteAllIndex(ctx context.Context) error {
	if err := s.store.DeleteAllIndexes(ctx); err != nil {
		return fmt.Errorf("delete all indexes: %w", err)
	}
	return nil
}

// FindByTimeRange lists broadcasts by open time, ascending. A nil end means
// everything from start onwards.
func (s *Broadcasts) FindByTimeRange(ctx context.Context, start time.Time, end *time.Time) ([]models.Broadcast, error) {
	if start.IsZero() {
		return nil, fmt.Errorf("%w: start is zero", ErrInvalidArgument)
	}
	return s.store.BroadcastsOpenedBetween(ctx, start, end)
}

// FindByKey returns the broadcast stored under key, or nil when absent.
func (s *Broadcasts) FindByKey(ctx context.Context, key string) (*models.Broadcast, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: key is empty", ErrInvalidArgument)
	}
	return s.store.BroadcastByKey(ctx, key)
}
