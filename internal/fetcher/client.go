package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/rohmanhakim/salon-scraper/pkg/failure"
	"github.com/rohmanhakim/salon-scraper/pkg/fileutil"
	"github.com/rohmanhakim/salon-scraper/pkg/limiter"
	"github.com/rohmanhakim/salon-scraper/pkg/retry"
	"github.com/rohmanhakim/salon-scraper/pkg/timeutil"
)

/*
Responsibilities

- Perform HTTP requests under the concurrency gate and pacing rule
- Apply headers and timeouts
- Classify responses into retryable/fatal error kinds
- Retry retryable failures with a fixed delay
- Short-circuit through the per-URL session cache

Fetch Semantics

- A page fresher than the freshness window is served from the session
  cache with zero outbound calls
- The gate slot is held across the whole retry sequence, so retries of
  one page never multiply in-flight parallelism
- 429 responses become RateLimitError with the server's Retry-After hint
- Other HTTP error statuses and transport failures become NetworkError

The fetcher never parses content; it only returns page text.

Known limitation: the session cache has no per-key in-flight
de-duplication, so two concurrent first-time fetches of the same URL can
both reach the network. The second write wins; the returned values are
identical, so this only costs one extra request.
*/

type ResilientFetcher struct {
	client    *resty.Client
	gate      *limiter.Gate
	policy    retry.Policy
	freshness time.Duration

	mu    sync.Mutex
	pages map[string]pageEntry

	logger *logrus.Entry
}

func NewResilientFetcher(opts Options, logger *logrus.Logger) *ResilientFetcher {
	opts = opts.withDefaults()
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "ja-JP,ja;q=0.9,en;q=0.5")

	return &ResilientFetcher{
		client:    client,
		gate:      limiter.NewGate(opts.Concurrency, opts.RequestInterval),
		policy:    retry.NewPolicy(opts.MaxRetries, opts.RetryDelay, nil),
		freshness: opts.Freshness,
		pages:     make(map[string]pageEntry),
		logger:    logger.WithField("component", "fetcher"),
	}
}

func (f *ResilientFetcher) Fetch(
	ctx context.Context,
	pageURL string,
) (string, failure.ClassifiedError) {
	if text, ok := f.cachedPage(pageURL, time.Now()); ok {
		f.logger.WithField("url", pageURL).Debug("session cache hit")
		return text, nil
	}

	if err := f.gate.Pace(ctx); err != nil {
		return "", &NetworkError{
			Message:   fmt.Sprintf("interrupted while pacing: %v", err),
			Retryable: false,
		}
	}
	if err := f.gate.Acquire(ctx); err != nil {
		return "", &NetworkError{
			Message:   fmt.Sprintf("interrupted while waiting for a request slot: %v", err),
			Retryable: false,
		}
	}
	defer f.gate.Release()

	text, fetchErr := retry.Do(ctx, f.policy, func() (string, failure.ClassifiedError) {
		return f.perform(ctx, pageURL)
	})
	if fetchErr != nil {
		f.logger.WithError(fetchErr).WithField("url", pageURL).Warn("fetch failed")
		return "", fetchErr
	}

	f.storePage(pageURL, text, time.Now())
	return text, nil
}

func (f *ResilientFetcher) perform(ctx context.Context, pageURL string) (string, failure.ClassifiedError) {
	resp, err := f.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return "", &NetworkError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
		}
	}

	code := resp.StatusCode()
	switch {
	case code == http.StatusTooManyRequests:
		return "", &RateLimitError{
			Message:    "too many requests",
			RetryAfter: retryAfterHint(resp),
		}

	case code >= 400:
		return "", &NetworkError{
			Message:    http.StatusText(code),
			StatusCode: code,
			Retryable:  true,
		}
	}

	return resp.String(), nil
}

// retryAfterHint reads the Retry-After header as whole seconds, falling
// back to a fixed default when the header is absent or not a number.
func retryAfterHint(resp *resty.Response) time.Duration {
	raw := resp.Header().Get("Retry-After")
	if raw == "" {
		return defaultRetryAfter
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

func (f *ResilientFetcher) cachedPage(pageURL string, now time.Time) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.pages[pageURL]
	if !ok {
		return "", false
	}
	if now.Sub(entry.FetchedAt) >= f.freshness {
		return "", false
	}
	return entry.Text, true
}

func (f *ResilientFetcher) storePage(pageURL string, text string, now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[pageURL] = pageEntry{Text: text, FetchedAt: now}
}

// CachedPageCount reports how many pages the session cache currently holds.
func (f *ResilientFetcher) CachedPageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pages)
}

// LoadPages restores the session cache from a file written by SavePages.
// Pages older than the freshness window are dropped. A missing or corrupt
// file is non-fatal: the cache stays empty and a warning is logged.
// It returns the number of pages restored.
func (f *ResilientFetcher) LoadPages(path string) int {
	content, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.logger.WithError(err).WithField("path", path).Warn("failed to read session cache file")
		}
		return 0
	}

	var raw map[string]pageDTO
	if err := json.Unmarshal(content, &raw); err != nil {
		f.logger.WithError(err).WithField("path", path).Warn("session cache file is corrupt, starting empty")
		return 0
	}

	now := time.Now()
	loaded := 0

	f.mu.Lock()
	defer f.mu.Unlock()
	for pageURL, dto := range raw {
		fetchedAt := timeutil.FromUnixSeconds(dto.Timestamp)
		if now.Sub(fetchedAt) >= f.freshness {
			continue
		}
		f.pages[pageURL] = pageEntry{Text: dto.Data, FetchedAt: fetchedAt}
		loaded++
	}

	f.logger.WithFields(logrus.Fields{"path": path, "pages": loaded}).Debug("session cache loaded")
	return loaded
}

// SavePages writes the session cache to a file for the next run.
func (f *ResilientFetcher) SavePages(path string) failure.ClassifiedError {
	f.mu.Lock()
	out := make(map[string]pageDTO, len(f.pages))
	for pageURL, entry := range f.pages {
		out[pageURL] = pageDTO{
			Data:      entry.Text,
			Timestamp: timeutil.UnixSeconds(entry.FetchedAt),
		}
	}
	f.mu.Unlock()

	if err := fileutil.EnsureParentDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return &fileutil.FileError{
			Message:   fmt.Sprintf("failed to encode session cache: %v", err),
			Retryable: false,
			Cause:     fileutil.ErrCausePathError,
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &fileutil.FileError{
			Message:   fmt.Sprintf("failed to write session cache: %v", err),
			Retryable: false,
			Cause:     fileutil.ErrCausePathError,
		}
	}
	return nil
}

// SeedPageForTest inserts a page into the session cache with a chosen
// fetch time. This allows test packages to exercise freshness behavior
// without touching unexported fields.
func (f *ResilientFetcher) SeedPageForTest(pageURL string, text string, fetchedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[pageURL] = pageEntry{Text: text, FetchedAt: fetchedAt}
}
