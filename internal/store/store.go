package store

import (
	"context"
	"time"

	"github.com/mtanig/nicocal/backend/internal/models"
)

// Store is the persistence port for broadcasts and their keyword index.
//
// Uniqueness of a broadcast's link and of a (keyword, broadcast key) pair is
// enforced by the implementation itself, not by callers, so concurrent
// writers cannot race a check-then-insert into duplicate rows.
type Store interface {
	// PutBroadcasts writes the batch. Records without a key are inserted
	// under a freshly allocated key. A record whose link already exists is
	// skipped when overwrite is false, or has all its fields refreshed when
	// overwrite is true. Returned keys cover the affected rows only, in
	// input order.
	PutBroadcasts(ctx context.Context, broadcasts []models.Broadcast, overwrite bool) ([]string, error)

	// BroadcastByLink returns the broadcast with the exact link, or nil.
	BroadcastByLink(ctx context.Context, link string) (*models.Broadcast, error)

	// BroadcastByKey returns the broadcast with the key, or nil.
	BroadcastByKey(ctx context.Context, key string) (*models.Broadcast, error)

	// BroadcastsOpenedBetween lists broadcasts with start <= openTime, and
	// openTime <= end when end is non-nil, ascending by openTime.
	BroadcastsOpenedBetween(ctx context.Context, start time.Time, end *time.Time) ([]models.Broadcast, error)

	// PutIndexes inserts the batch, ignoring entries whose
	// (keyword, broadcast key) pair is already indexed. Returned keys cover
	// newly inserted rows only, in input order.
	PutIndexes(ctx context.Context, indexes []models.KeywordIndex) ([]string, error)

	// CountIndexes counts index rows for the exact (keyword, broadcast key)
	// pair.
	CountIndexes(ctx context.Context, keyword, broadcastKey string) (int, error)

	// DeleteIndexesBefore removes every index row whose open time is at or
	// before cutoff and reports how many rows went away.
	DeleteIndexesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteAllIndexes clears the keyword index for a full reindex cycle.
	DeleteAllIndexes(ctx context.Context) error

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error
}
