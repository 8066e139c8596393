package models

import "time"

// Broadcast represents one scheduled live event taken from the feed.
// Key is assigned by the store on first insert and stays stable across
// updates. Link is the canonical URL of the event and acts as its
// business key: at most one Broadcast exists per link.
type Broadcast struct {
	Key         string    `json:"key"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OpenTime    time.Time `json:"open_time"`
	StartTime   time.Time `json:"start_time"`
	Type        string    `json:"type"`
	Password    bool      `json:"password"`
	PremiumOnly bool      `json:"premium_only"`
	Link        string    `json:"link"`
}

// KeywordIndex is one (keyword, broadcast) association used for full-text
// lookup. OpenTime carries the owning broadcast's open time and drives
// retention pruning.
type KeywordIndex struct {
	Key          string    `json:"key"`
	Keyword      string    `json:"keyword"`
	BroadcastKey string    `json:"broadcast_key"`
	OpenTime     time.Time `json:"open_time"`
}
