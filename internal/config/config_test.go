package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rohmanhakim/salon-scraper/internal/config"
)

func TestWithDefault(t *testing.T) {
	cfg := config.WithDefault("https://beauty.hotpepper.jp/slnH000000000/")

	if cfg == nil {
		t.Fatal("WithDefault() returned nil")
	}

	builtCfg, err := cfg.Build()

	if err != nil {
		t.Errorf("should not have any error, got %v", err)
	}

	// Verify target defaults
	if builtCfg.SalonDomain() != "beauty.hotpepper.jp" {
		t.Errorf("expected SalonDomain 'beauty.hotpepper.jp', got '%s'", builtCfg.SalonDomain())
	}
	if builtCfg.SalonPathPattern() != `/sln[A-Z][0-9]+/` {
		t.Errorf("unexpected SalonPathPattern '%s'", builtCfg.SalonPathPattern())
	}

	// Verify selectors
	selectors := builtCfg.Selectors()
	if selectors.StylistLink != "p.mT10.fs16.b > a[href*='/stylist/T']" {
		t.Errorf("unexpected StylistLink selector '%s'", selectors.StylistLink)
	}
	if selectors.StylistName != ".fs16.b" {
		t.Errorf("unexpected StylistName selector '%s'", selectors.StylistName)
	}
	if selectors.StylistDescription != ".fgPink" {
		t.Errorf("unexpected StylistDescription selector '%s'", selectors.StylistDescription)
	}
	if selectors.CouponClassName != "couponMenuName" {
		t.Errorf("unexpected CouponClassName '%s'", selectors.CouponClassName)
	}

	// Verify pagination defaults
	if builtCfg.CouponPageParameterName() != "PN" {
		t.Errorf("expected CouponPageParameterName 'PN', got '%s'", builtCfg.CouponPageParameterName())
	}
	if builtCfg.CouponPageStartNumber() != 2 {
		t.Errorf("expected CouponPageStartNumber 2, got %d", builtCfg.CouponPageStartNumber())
	}
	if builtCfg.CouponPageLimit() != 3 {
		t.Errorf("expected CouponPageLimit 3, got %d", builtCfg.CouponPageLimit())
	}

	// Verify politeness defaults
	if builtCfg.Timeout() != 10*time.Second {
		t.Errorf("expected Timeout 10s, got %v", builtCfg.Timeout())
	}
	if builtCfg.MaxRetries() != 3 {
		t.Errorf("expected MaxRetries 3, got %d", builtCfg.MaxRetries())
	}
	if builtCfg.RetryDelay() != time.Second {
		t.Errorf("expected RetryDelay 1s, got %v", builtCfg.RetryDelay())
	}
	if builtCfg.RequestInterval() != time.Second {
		t.Errorf("expected RequestInterval 1s, got %v", builtCfg.RequestInterval())
	}
	if builtCfg.Concurrency() != 5 {
		t.Errorf("expected Concurrency 5, got %d", builtCfg.Concurrency())
	}
	if builtCfg.FreshnessWindow() != 24*time.Hour {
		t.Errorf("expected FreshnessWindow 24h, got %v", builtCfg.FreshnessWindow())
	}

	// Verify batching defaults
	if builtCfg.ChunkSize() != 5 {
		t.Errorf("expected ChunkSize 5, got %d", builtCfg.ChunkSize())
	}
	if builtCfg.ChunkDelay() != time.Second {
		t.Errorf("expected ChunkDelay 1s, got %v", builtCfg.ChunkDelay())
	}

	// Verify cache defaults
	if builtCfg.CacheTTL() != 30*24*time.Hour {
		t.Errorf("expected CacheTTL 720h, got %v", builtCfg.CacheTTL())
	}
	if builtCfg.CacheMaxSize() != 10000 {
		t.Errorf("expected CacheMaxSize 10000, got %d", builtCfg.CacheMaxSize())
	}
}

func TestBuildRejectsNonHTTPBaseURL(t *testing.T) {
	_, err := config.WithDefault("not a url").Build()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	_, err = config.WithDefault("").Build()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for empty baseUrl, got %v", err)
	}
}

func TestBuildRejectsNonPositiveNumbers(t *testing.T) {
	_, err := config.WithDefault("https://beauty.hotpepper.jp/slnH000000000/").
		WithMaxRetries(0).
		Build()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for zero maxRetries, got %v", err)
	}

	_, err = config.WithDefault("https://beauty.hotpepper.jp/slnH000000000/").
		WithCouponPageLimit(-1).
		Build()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for negative couponPageLimit, got %v", err)
	}

	_, err = config.WithDefault("https://beauty.hotpepper.jp/slnH000000000/").
		WithTimeout(0).
		Build()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for zero timeout, got %v", err)
	}
}

func TestBuilderOverrides(t *testing.T) {
	builtCfg, err := config.WithDefault("https://beauty.hotpepper.jp/slnH000000000/").
		WithConcurrency(2).
		WithRequestInterval(250 * time.Millisecond).
		WithCouponPageLimit(5).
		WithUserAgent("salon-scraper-test/1.0").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if builtCfg.Concurrency() != 2 {
		t.Errorf("expected Concurrency 2, got %d", builtCfg.Concurrency())
	}
	if builtCfg.RequestInterval() != 250*time.Millisecond {
		t.Errorf("expected RequestInterval 250ms, got %v", builtCfg.RequestInterval())
	}
	if builtCfg.CouponPageLimit() != 5 {
		t.Errorf("expected CouponPageLimit 5, got %d", builtCfg.CouponPageLimit())
	}
	if builtCfg.UserAgent() != "salon-scraper-test/1.0" {
		t.Errorf("expected overridden UserAgent, got '%s'", builtCfg.UserAgent())
	}
}

func TestWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	content := `{
		"baseUrl": "https://beauty.hotpepper.jp/slnH000000000/",
		"concurrency": 3,
		"couponPageLimit": 4,
		"userAgent": "from-file/1.0"
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := config.WithConfigFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Concurrency() != 3 {
		t.Errorf("expected Concurrency 3, got %d", cfg.Concurrency())
	}
	if cfg.CouponPageLimit() != 4 {
		t.Errorf("expected CouponPageLimit 4, got %d", cfg.CouponPageLimit())
	}
	if cfg.UserAgent() != "from-file/1.0" {
		t.Errorf("expected UserAgent 'from-file/1.0', got '%s'", cfg.UserAgent())
	}

	// Untouched fields keep their defaults
	if cfg.MaxRetries() != 3 {
		t.Errorf("expected default MaxRetries 3, got %d", cfg.MaxRetries())
	}
}

func TestWithConfigFileMissing(t *testing.T) {
	_, err := config.WithConfigFile(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, config.ErrFileDoesNotExist) {
		t.Errorf("expected ErrFileDoesNotExist, got %v", err)
	}
}

func TestWithConfigFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := config.WithConfigFile(path)
	if !errors.Is(err, config.ErrConfigParsingFail) {
		t.Errorf("expected ErrConfigParsingFail, got %v", err)
	}
}
