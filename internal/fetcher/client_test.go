package fetcher_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/salon-scraper/internal/fetcher"
	"github.com/rohmanhakim/salon-scraper/pkg/retry"
)

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newFetcher(opts fetcher.Options) *fetcher.ResilientFetcher {
	// keep tests fast: near-zero pacing and retry delay
	if opts.RequestInterval == 0 {
		opts.RequestInterval = time.Millisecond
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Millisecond
	}
	return fetcher.NewResilientFetcher(opts, silentLogger())
}

func TestFetch_ReturnsPageText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>salon page</body></html>"))
	}))
	defer server.Close()

	f := newFetcher(fetcher.Options{RequestInterval: time.Millisecond, RetryDelay: time.Millisecond})

	text, err := f.Fetch(context.Background(), server.URL)
	require.Nil(t, err)
	assert.Contains(t, text, "salon page")
	assert.Equal(t, 1, f.CachedPageCount())
}

func TestFetch_FreshCacheShortCircuits(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("live"))
	}))
	defer server.Close()

	f := newFetcher(fetcher.Options{})
	f.SeedPageForTest(server.URL, "cached", time.Now())

	text, err := f.Fetch(context.Background(), server.URL)
	require.Nil(t, err)
	assert.Equal(t, "cached", text)
	assert.Equal(t, int32(0), calls.Load(), "a fresh cache entry must cause zero outbound calls")
}

func TestFetch_StaleCacheRefetches(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("live"))
	}))
	defer server.Close()

	f := newFetcher(fetcher.Options{Freshness: time.Minute})
	f.SeedPageForTest(server.URL, "cached", time.Now().Add(-2*time.Minute))

	text, err := f.Fetch(context.Background(), server.URL)
	require.Nil(t, err)
	assert.Equal(t, "live", text)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("finally"))
	}))
	defer server.Close()

	f := newFetcher(fetcher.Options{MaxRetries: 3})

	text, err := f.Fetch(context.Background(), server.URL)
	require.Nil(t, err)
	assert.Equal(t, "finally", text)
	assert.Equal(t, int32(3), calls.Load(), "two failures then a success is exactly 3 attempts")
}

func TestFetch_ExhaustedRetriesPropagateLastError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := newFetcher(fetcher.Options{MaxRetries: 3})

	_, err := f.Fetch(context.Background(), server.URL)
	require.NotNil(t, err)
	assert.Equal(t, int32(3), calls.Load())

	var retryErr *retry.Error
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, 3, retryErr.Attempts)

	var netErr *fetcher.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusServiceUnavailable, netErr.StatusCode)
}

func TestFetch_TooManyRequestsClassifiedAsRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	f := newFetcher(fetcher.Options{MaxRetries: 1})

	_, err := f.Fetch(context.Background(), server.URL)
	require.NotNil(t, err)

	var rateErr *fetcher.RateLimitError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, 30*time.Second, rateErr.RetryAfter)
	assert.True(t, rateErr.IsRetryable())
}

func TestFetch_MissingRetryAfterFallsBackToDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	f := newFetcher(fetcher.Options{MaxRetries: 1})

	_, err := f.Fetch(context.Background(), server.URL)
	require.NotNil(t, err)

	var rateErr *fetcher.RateLimitError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, 60*time.Second, rateErr.RetryAfter)
}

func TestFetch_ClientErrorCarriesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := newFetcher(fetcher.Options{MaxRetries: 1})

	_, err := f.Fetch(context.Background(), server.URL)
	require.NotNil(t, err)

	var netErr *fetcher.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)
}

func TestFetch_TransportFailureHasNoStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	f := newFetcher(fetcher.Options{MaxRetries: 1})

	_, err := f.Fetch(context.Background(), server.URL)
	require.NotNil(t, err)

	var netErr *fetcher.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Zero(t, netErr.StatusCode)
	assert.True(t, netErr.IsRetryable())
}

func TestSessionCache_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.json")

	f := newFetcher(fetcher.Options{})
	f.SeedPageForTest("https://example.test/fresh", "<html>fresh</html>", time.Now())
	f.SeedPageForTest("https://example.test/stale", "<html>stale</html>", time.Now().Add(-48*time.Hour))
	require.Nil(t, f.SavePages(path))

	restored := newFetcher(fetcher.Options{})
	loaded := restored.LoadPages(path)

	assert.Equal(t, 1, loaded, "pages older than the freshness window are dropped on load")
	assert.Equal(t, 1, restored.CachedPageCount())

	// the restored page must short-circuit a fetch
	text, err := restored.Fetch(context.Background(), "https://example.test/fresh")
	require.Nil(t, err)
	assert.Equal(t, "<html>fresh</html>", text)
}

func TestSessionCache_LoadMissingFileIsNonFatal(t *testing.T) {
	f := newFetcher(fetcher.Options{})
	assert.Equal(t, 0, f.LoadPages(filepath.Join(t.TempDir(), "absent.json")))
}

func TestSessionCache_LoadCorruptFileIsNonFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	f := newFetcher(fetcher.Options{})
	assert.Equal(t, 0, f.LoadPages(path))
	assert.Equal(t, 0, f.CachedPageCount())
}
