package feed_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mtanig/nicocal/backend/internal/feed"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:nicolive="http://live.nicovideo.jp/rss/2.0/">
  <channel>
    <title>放送予定</title>
    <link>http://live.example.jp/</link>
    <description>テストRSS</description>
    <item>
      <title>テスト0</title>
      <description>&lt;p&gt;テスト説明0&lt;/p&gt;</description>
      <link>http://live.example.jp/watch/lv0</link>
      <nicolive:openTime>2011-01-01 00:00:00</nicolive:openTime>
      <nicolive:startTime>2011-01-01 00:10:00</nicolive:startTime>
      <nicolive:type>official</nicolive:type>
      <nicolive:password>false</nicolive:password>
      <nicolive:premiumOnly>true</nicolive:premiumOnly>
    </item>
    <item>
      <title>おしらせ</title>
      <description>放送ではないお知らせ</description>
      <link>http://live.example.jp/news/1</link>
    </item>
  </channel>
</rss>`

func TestParseExtractsBroadcastExtension(t *testing.T) {
	p := feed.NewParser("")

	entries, err := p.Parse(strings.NewReader(sampleFeed))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	require.Equal(t, "テスト0", first.Title)
	require.Equal(t, "http://live.example.jp/watch/lv0", first.Link)
	require.Contains(t, first.Description, "テスト説明0")

	require.NotNil(t, first.Broadcast)
	require.Equal(t, "2011-01-01 00:00:00", first.Broadcast.OpenTime)
	require.Equal(t, "2011-01-01 00:10:00", first.Broadcast.StartTime)
	require.Equal(t, "official", first.Broadcast.Type)
	require.False(t, first.Broadcast.Password)
	require.True(t, first.Broadcast.PremiumOnly)
}

func TestParseEntryWithoutExtension(t *testing.T) {
	p := feed.NewParser("")

	entries, err := p.Parse(strings.NewReader(sampleFeed))
	require.NoError(t, err)

	require.Nil(t, entries[1].Broadcast)
	require.Equal(t, "おしらせ", entries[1].Title)
}

func TestParseInvalidDocument(t *testing.T) {
	p := feed.NewParser("")

	_, err := p.Parse(strings.NewReader("not a feed"))
	require.Error(t, err)
}
