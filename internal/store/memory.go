package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mtanig/nicocal/backend/internal/models"
)

// Memory is an in-process Store with the same uniqueness semantics as the
// Postgres implementation. It backs tests and database-less local runs.
type Memory struct {
	mu         sync.Mutex
	broadcasts map[string]models.Broadcast    // key -> record
	byLink     map[string]string              // link -> key
	indexes    map[string]models.KeywordIndex // key -> record
	byPair     map[indexPair]string           // (keyword, broadcastKey) -> key
}

type indexPair struct {
	keyword      string
	broadcastKey string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		broadcasts: make(map[string]models.Broadcast),
		byLink:     make(map[string]string),
		indexes:    make(map[string]models.KeywordIndex),
		byPair:     make(map[indexPair]string),
	}
}

func (m *Memory) PutBroadcasts(_ context.Context, broadcasts []models.Broadcast, overwrite bool) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(broadcasts))
	for _, b := range broadcasts {
		if existingKey, ok := m.byLink[b.Link]; ok {
			if !overwrite {
				continue
			}
			b.Key = existingKey
			m.broadcasts[existingKey] = b
			keys = append(keys, existingKey)
			continue
		}

		if b.Key == "" {
			b.Key = uuid.NewString()
		}
		m.broadcasts[b.Key] = b
		m.byLink[b.Link] = b.Key
		keys = append(keys, b.Key)
	}
	return keys, nil
}

func (m *Memory) BroadcastByLink(_ context.Context, link string) (*models.Broadcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, ok := m.byLink[link]
	if !ok {
		return nil, nil
	}
	b := m.broadcasts[key]
	return &b, nil
}

func (m *Memory) BroadcastByKey(_ context.Context, key string) (*models.Broadcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.broadcasts[key]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *Memory) BroadcastsOpenedBetween(_ context.Context, start time.Time, end *time.Time) ([]models.Broadcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Broadcast
	for _, b := range m.broadcasts {
		if b.OpenTime.Before(start) {
			continue
		}
		if end != nil && b.OpenTime.After(*end) {
			continue
		}
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].OpenTime.Before(out[j].OpenTime)
	})
	return out, nil
}

func (m *Memory) PutIndexes(_ context.Context, indexes []models.KeywordIndex) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		pair := indexPair{keyword: idx.Keyword, broadcastKey: idx.BroadcastKey}
		if _, ok := m.byPair[pair]; ok {
			continue
		}

		if idx.Key == "" {
			idx.Key = uuid.NewString()
		}
		m.indexes[idx.Key] = idx
		m.byPair[pair] = idx.Key
		keys = append(keys, idx.Key)
	}
	return keys, nil
}

func (m *Memory) CountIndexes(_ context.Context, keyword, broadcastKey string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byPair[indexPair{keyword: keyword, broadcastKey: broadcastKey}]; ok {
		return 1, nil
	}
	return 0, nil
}

func (m *Memory) DeleteIndexesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for key, idx := range m.indexes {
		if idx.OpenTime.After(cutoff) {
			continue
		}
		delete(m.indexes, key)
		delete(m.byPair, indexPair{keyword: idx.Keyword, broadcastKey: idx.BroadcastKey})
		deleted++
	}
	return deleted, nil
}

func (m *Memory) DeleteAllIndexes(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.indexes = make(map[string]models.KeywordIndex)
	m.byPair = make(map[indexPair]string)
	return nil
}

func (m *Memory) Ping(_ context.Context) error {
	return nil
}

// IndexCount reports the total number of index rows. Test helper.
func (m *Memory) IndexCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.indexes)
}
