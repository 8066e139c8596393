package processing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mtanig/nicocal/backend/internal/processing"
)

func TestParseFeedTime(t *testing.T) {
	ts, err := processing.ParseFeedTime("2011-01-01 12:30:45")
	require.NoError(t, err)

	require.Equal(t, 2011, ts.Year())
	require.Equal(t, time.January, ts.Month())
	require.Equal(t, 1, ts.Day())
	require.Equal(t, 12, ts.Hour())
	require.Equal(t, 30, ts.Minute())
	require.Equal(t, 45, ts.Second())

	_, offset := ts.Zone()
	require.Equal(t, 9*60*60, offset)

	// Same instant as 03:30:45 UTC.
	require.True(t, ts.Equal(time.Date(2011, 1, 1, 3, 30, 45, 0, time.UTC)))
}

func TestParseFeedTimeTrimsWhitespace(t *testing.T) {
	ts, err := processing.ParseFeedTime("  2024-02-03 04:05:06 ")
	require.NoError(t, err)
	require.Equal(t, 2024, ts.Year())
}

func TestParseFeedTimeInvalid(t *testing.T) {
	for _, raw := range []string{"", "not a date", "2011/01/01 00:00:00", "2011-01-01T00:00:00Z"} {
		_, err := processing.ParseFeedTime(raw)
		require.Error(t, err, "input %q", raw)
	}
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "plain text", input: "本日は晴天なり。", want: "本日は晴天なり。"},
		{name: "tags", input: "<p>本日は<b>晴天</b>なり。</p>", want: "本日は晴天なり。"},
		{name: "entities", input: "A &amp; B", want: "A & B"},
		{name: "collapse whitespace", input: "<div>foo</div>\n\t<div>bar</div>", want: "foo bar"},
		{name: "links", input: `詳細は<a href="https://example.com">こちら</a>`, want: "詳細はこちら"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := processing.StripMarkup(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
