package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mtanig/nicocal/backend/internal/models"
	"github.com/mtanig/nicocal/backend/internal/store"
)

func TestPutBroadcastsSkipExistingLink(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	keys, err := s.PutBroadcasts(ctx, []models.Broadcast{
		{Title: "第一回", Link: "http://live.example.jp/watch/lv1"},
	}, false)
	require.NoError(t, err)
	require.Len(t, keys, 1)

	again, err := s.PutBroadcasts(ctx, []models.Broadcast{
		{Title: "改題", Link: "http://live.example.jp/watch/lv1"},
	}, false)
	require.NoError(t, err)
	require.Empty(t, again)

	stored, err := s.BroadcastByLink(ctx, "http://live.example.jp/watch/lv1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "第一回", stored.Title)
	require.Equal(t, keys[0], stored.Key)
}

func TestPutBroadcastsOverwriteKeepsKey(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	keys, err := s.PutBroadcasts(ctx, []models.Broadcast{
		{Title: "第一回", Link: "http://live.example.jp/watch/lv1"},
	}, true)
	require.NoError(t, err)
	require.Len(t, keys, 1)

	again, err := s.PutBroadcasts(ctx, []models.Broadcast{
		{Title: "改題", Link: "http://live.example.jp/watch/lv1"},
	}, true)
	require.NoError(t, err)
	require.Equal(t, keys, again)

	stored, err := s.BroadcastByKey(ctx, keys[0])
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "改題", stored.Title)
}

func TestBroadcastByKeyAbsent(t *testing.T) {
	s := store.NewMemory()

	b, err := s.BroadcastByKey(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, b)
}

func TestPutIndexesIgnoresDuplicatePair(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	now := time.Now()

	keys, err := s.PutIndexes(ctx, []models.KeywordIndex{
		{Keyword: "テスト", BroadcastKey: "b1", OpenTime: now},
		{Keyword: "テスト", BroadcastKey: "b2", OpenTime: now},
	})
	require.NoError(t, err)
	require.Len(t, keys, 2)

	again, err := s.PutIndexes(ctx, []models.KeywordIndex{
		{Keyword: "テスト", BroadcastKey: "b1", OpenTime: now},
	})
	require.NoError(t, err)
	require.Empty(t, again)

	count, err := s.CountIndexes(ctx, "テスト", "b1")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestDeleteIndexesBeforeBoundary(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.PutIndexes(ctx, []models.KeywordIndex{
		{Keyword: "a", BroadcastKey: "b1", OpenTime: base.Add(-48 * time.Hour)},
		{Keyword: "b", BroadcastKey: "b1", OpenTime: base.Add(-24 * time.Hour)},
		{Keyword: "c", BroadcastKey: "b1", OpenTime: base},
	})
	require.NoError(t, err)

	// Cutoff is inclusive.
	deleted, err := s.DeleteIndexesBefore(ctx, base.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)
	require.Equal(t, 1, s.IndexCount())
}

func TestDeleteAllIndexes(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	_, err := s.PutIndexes(ctx, []models.KeywordIndex{
		{Keyword: "a", BroadcastKey: "b1", OpenTime: time.Now()},
		{Keyword: "b", BroadcastKey: "b2", OpenTime: time.Now()},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAllIndexes(ctx))
	require.Equal(t, 0, s.IndexCount())

	// A cleared pair can be indexed again.
	keys, err := s.PutIndexes(ctx, []models.KeywordIndex{
		{Keyword: "a", BroadcastKey: "b1", OpenTime: time.Now()},
	})
	require.NoError(t, err)
	require.Len(t, keys, 1)
}
