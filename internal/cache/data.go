package cache

import (
	"encoding/json"
	"time"
)

// Entry is one cached value with its creation time and an optional TTL
// override. A nil TTL means "use the store's configured default TTL".
type Entry struct {
	Data      json.RawMessage
	CreatedAt time.Time
	TTL       *time.Duration
}

// entryDTO is the persisted shape of an entry: the file maps cache key to
// { data, timestamp (floating-point unix seconds), ttl (seconds or null) }.
// Loaders must stay forward-compatible with this format.
type entryDTO struct {
	Data      json.RawMessage `json:"data"`
	Timestamp float64         `json:"timestamp"`
	TTL       *float64        `json:"ttl"`
}

// Statistics is a read-only snapshot of store contents and limits.
type Statistics struct {
	TotalEntries   int
	ValidEntries   int
	ExpiredEntries int
	SizeLimit      int
	DefaultTTL     time.Duration
	OldestEntry    time.Time
	NewestEntry    time.Time
	FilePath       string
}

// Config controls expiry and capacity. Zero values fall back to the
// defaults the rest of the application assumes.
type Config struct {
	// DefaultTTL applies to entries stored without their own TTL.
	DefaultTTL time.Duration
	// MaxSize bounds the number of entries; the oldest are evicted first.
	MaxSize int
}

const (
	DefaultTTL     = 30 * 24 * time.Hour
	DefaultMaxSize = 10000
)

func (c Config) withDefaults() Config {
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = DefaultTTL
	}
	if c.MaxSize <= 0 {
		c.MaxSize = DefaultMaxSize
	}
	return c
}
