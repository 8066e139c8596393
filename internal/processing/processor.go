package processing

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// FeedTimeLayout is the fixed textual format the broadcast feed uses for
// openTime and startTime.
const FeedTimeLayout = "2006-01-02 15:04:05"

// The feed publishes wall-clock times in UTC+9. A fixed zone keeps parsing
// independent of the host's tz database.
var jst = time.FixedZone("JST", 9*60*60)

var whitespace = regexp.MustCompile(`\s+`)

// ParseFeedTime parses a feed timestamp like "2011-01-01 00:00:00" as JST.
func ParseFeedTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	ts, err := time.ParseInLocation(FeedTimeLayout, raw, jst)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return ts, nil
}

// StripMarkup removes HTML tags and entities from a broadcast description,
// collapsing the remaining text into single-space separated plain text.
func StripMarkup(input string) (string, error) {
	if input == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}

	text := whitespace.ReplaceAllString(doc.Text(), " ")
	return strings.TrimSpace(text), nil
}
