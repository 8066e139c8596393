package dedupe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mtanig/nicocal/backend/internal/dedupe"
)

func TestCacheRemembersLink(t *testing.T) {
	cache := dedupe.NewCache(10, time.Minute)
	require.False(t, cache.Seen("http://live.example.jp/watch/lv1"))
	cache.Remember("http://live.example.jp/watch/lv1")
	require.True(t, cache.Seen("http://live.example.jp/watch/lv1"))
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := dedupe.NewCache(10, 20*time.Millisecond)
	cache.Remember("http://live.example.jp/watch/lv2")
	time.Sleep(25 * time.Millisecond)
	require.False(t, cache.Seen("http://live.example.jp/watch/lv2"))
}

func TestCacheCapacityEvictsOldest(t *testing.T) {
	cache := dedupe.NewCache(1, time.Minute)
	cache.Remember("first")
	cache.Remember("second")

	require.False(t, cache.Seen("first"))
	require.True(t, cache.Seen("second"))
}
