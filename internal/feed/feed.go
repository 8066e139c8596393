package feed

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// DefaultExtensionPrefix is the namespace prefix the live-broadcast feed
// uses for its per-entry extension block.
const DefaultExtensionPrefix = "nicolive"

// Entry is one feed item in the shape the ingestor consumes. Broadcast is
// nil when the item carries no broadcast extension block, meaning the item
// is not a live event and must be skipped.
type Entry struct {
	Title       string
	Description string
	Link        string
	Broadcast   *BroadcastInfo
}

// BroadcastInfo carries the raw extension payload of a feed entry. The
// timestamps stay strings here; parsing them is the ingestor's job so a
// malformed entry can be skipped without failing the whole feed.
type BroadcastInfo struct {
	OpenTime    string
	StartTime   string
	Type        string
	Password    bool
	PremiumOnly bool
}

// Parser fetches and parses the broadcast RSS/Atom feed.
type Parser struct {
	parser *gofeed.Parser
	prefix string
}

// NewParser creates a feed parser reading the given extension namespace
// prefix. An empty prefix falls back to DefaultExtensionPrefix.
func NewParser(extensionPrefix string) *Parser {
	prefix := strings.TrimSpace(extensionPrefix)
	if prefix == "" {
		prefix = DefaultExtensionPrefix
	}
	return &Parser{
		parser: gofeed.NewParser(),
		prefix: prefix,
	}
}

// FetchURL downloads and parses the feed at the given URL.
func (p *Parser) FetchURL(ctx context.Context, url string) ([]Entry, error) {
	parsed, err := p.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}
	return p.entries(parsed), nil
}

// Parse reads a feed document from r.
func (p *Parser) Parse(r io.Reader) ([]Entry, error) {
	parsed, err := p.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return p.entries(parsed), nil
}

func (p *Parser) entries(parsed *gofeed.Feed) []Entry {
	out := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		out = append(out, Entry{
			Title:       item.Title,
			Description: item.Description,
			Link:        item.Link,
			Broadcast:   p.broadcastInfo(item),
		})
	}
	return out
}

func (p *Parser) broadcastInfo(item *gofeed.Item) *BroadcastInfo {
	fields, ok := item.Extensions[p.prefix]
	if !ok || len(fields) == 0 {
		return nil
	}

	return &BroadcastInfo{
		OpenTime:    extensionValue(fields, "openTime"),
		StartTime:   extensionValue(fields, "startTime"),
		Type:        extensionValue(fields, "type"),
		Password:    extensionBool(fields, "password"),
		PremiumOnly: extensionBool(fields, "premiumOnly"),
	}
}

func extensionValue(fields map[string][]ext.Extension, name string) string {
	values := fields[name]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}

func extensionBool(fields map[string][]ext.Extension, name string) bool {
	raw := extensionValue(fields, name)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return v
}
