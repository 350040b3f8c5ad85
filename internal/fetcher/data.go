package fetcher

import (
	"time"
)

// HTTP boundary defaults

const (
	DefaultTimeout         = 10 * time.Second
	DefaultConcurrency     = 5
	DefaultRequestInterval = 1 * time.Second
	DefaultMaxRetries      = 3
	DefaultRetryDelay      = 1 * time.Second
	DefaultFreshness       = 24 * time.Hour

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// default Retry-After when a 429 response omits or mangles the header
	defaultRetryAfter = 60 * time.Second
)

type Options struct {
	Timeout         time.Duration
	UserAgent       string
	Concurrency     int64
	RequestInterval time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
	Freshness       time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.RequestInterval <= 0 {
		o.RequestInterval = DefaultRequestInterval
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.Freshness <= 0 {
		o.Freshness = DefaultFreshness
	}
	return o
}

// pageEntry is one fetched page held in the session cache.
type pageEntry struct {
	Text      string
	FetchedAt time.Time
}

// pageDTO is the persisted form of a pageEntry.
type pageDTO struct {
	Data      string  `json:"data"`
	Timestamp float64 `json:"timestamp"`
}
