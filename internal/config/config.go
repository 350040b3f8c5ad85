package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rohmanhakim/salon-scraper/internal/extractor"
)

type Config struct {
	//===============
	//  Scrape target
	//===============
	// Base salon URL the scraper operates on.
	baseURL string
	// Hostname suffix a salon URL must carry to be accepted.
	salonDomain string
	// Regular expression the salon URL path must match (the salon identifier).
	salonPathPattern string

	//===============
	// Selectors
	//===============
	// Anchor elements pointing to stylist detail pages on the listing page.
	stylistLinkSelector string
	// Stylist name element on a detail page.
	stylistNameSelector string
	// Stylist description element on a detail page.
	stylistDescriptionSelector string
	// Stylist position element on a detail page. Optional on the page.
	stylistPositionSelector string
	// Bare class name of coupon title elements.
	couponClassName string
	// Coupon price element inside a coupon's table.
	couponPriceSelector string
	// Element carrying the "current/total ページ" pagination marker.
	paginationMarkerSelector string

	//===============
	// Pagination
	//===============
	// Query parameter carrying the coupon page number.
	couponPageParameterName string
	// First coupon page fetched after page 1.
	couponPageStartNumber int
	// Upper bound on coupon pages fetched, whatever the marker says.
	couponPageLimit int

	//===============
	// Politeness
	//===============
	// Maximum time of a single fetch request.
	timeout time.Duration
	// Total attempts per fetch, including the first one.
	maxRetries int
	// Fixed wait between retry attempts.
	retryDelay time.Duration
	// Minimum spacing between two outbound requests.
	requestInterval time.Duration
	// Maximum number of simultaneous in-flight requests.
	concurrency int
	// User agent sent in the request header. In raw string.
	userAgent string
	// How long a fetched page stays fresh in the session cache.
	freshnessWindow time.Duration

	//===============
	// Batching
	//===============
	// Stylist detail pages fetched per chunk.
	chunkSize int
	// Wait between consecutive chunks, layered on top of request pacing.
	chunkDelay time.Duration

	//===============
	// Cache
	//===============
	// File backing the general result cache.
	cacheFile string
	// File backing the fetcher's session cache.
	pageCacheFile string
	// Default TTL of result cache entries.
	cacheTTL time.Duration
	// Maximum number of result cache entries.
	cacheMaxSize int
}

type configDTO struct {
	BaseURL                    string        `json:"baseUrl"`
	SalonDomain                string        `json:"salonDomain,omitempty"`
	SalonPathPattern           string        `json:"salonPathPattern,omitempty"`
	StylistLinkSelector        string        `json:"stylistLinkSelector,omitempty"`
	StylistNameSelector        string        `json:"stylistNameSelector,omitempty"`
	StylistDescriptionSelector string        `json:"stylistDescriptionSelector,omitempty"`
	StylistPositionSelector    string        `json:"stylistPositionSelector,omitempty"`
	CouponClassName            string        `json:"couponClassName,omitempty"`
	CouponPriceSelector        string        `json:"couponPriceSelector,omitempty"`
	PaginationMarkerSelector   string        `json:"paginationMarkerSelector,omitempty"`
	CouponPageParameterName    string        `json:"couponPageParameterName,omitempty"`
	CouponPageStartNumber      int           `json:"couponPageStartNumber,omitempty"`
	CouponPageLimit            int           `json:"couponPageLimit,omitempty"`
	Timeout                    time.Duration `json:"timeout,omitempty"`
	MaxRetries                 int           `json:"maxRetries,omitempty"`
	RetryDelay                 time.Duration `json:"retryDelay,omitempty"`
	RequestInterval            time.Duration `json:"requestInterval,omitempty"`
	Concurrency                int           `json:"concurrency,omitempty"`
	UserAgent                  string        `json:"userAgent,omitempty"`
	FreshnessWindow            time.Duration `json:"freshnessWindow,omitempty"`
	ChunkSize                  int           `json:"chunkSize,omitempty"`
	ChunkDelay                 time.Duration `json:"chunkDelay,omitempty"`
	CacheFile                  string        `json:"cacheFile,omitempty"`
	PageCacheFile              string        `json:"pageCacheFile,omitempty"`
	CacheTTL                   time.Duration `json:"cacheTtl,omitempty"`
	CacheMaxSize               int           `json:"cacheMaxSize,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {

	// Start with default config
	cfg := *WithDefault(dto.BaseURL)

	// For other fields, only override if non-zero value is provided
	if dto.SalonDomain != "" {
		cfg.salonDomain = dto.SalonDomain
	}
	if dto.SalonPathPattern != "" {
		cfg.salonPathPattern = dto.SalonPathPattern
	}
	if dto.StylistLinkSelector != "" {
		cfg.stylistLinkSelector = dto.StylistLinkSelector
	}
	if dto.StylistNameSelector != "" {
		cfg.stylistNameSelector = dto.StylistNameSelector
	}
	if dto.StylistDescriptionSelector != "" {
		cfg.stylistDescriptionSelector = dto.StylistDescriptionSelector
	}
	if dto.StylistPositionSelector != "" {
		cfg.stylistPositionSelector = dto.StylistPositionSelector
	}
	if dto.CouponClassName != "" {
		cfg.couponClassName = dto.CouponClassName
	}
	if dto.CouponPriceSelector != "" {
		cfg.couponPriceSelector = dto.CouponPriceSelector
	}
	if dto.PaginationMarkerSelector != "" {
		cfg.paginationMarkerSelector = dto.PaginationMarkerSelector
	}
	if dto.CouponPageParameterName != "" {
		cfg.couponPageParameterName = dto.CouponPageParameterName
	}
	if dto.CouponPageStartNumber != 0 {
		cfg.couponPageStartNumber = dto.CouponPageStartNumber
	}
	if dto.CouponPageLimit != 0 {
		cfg.couponPageLimit = dto.CouponPageLimit
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.MaxRetries != 0 {
		cfg.maxRetries = dto.MaxRetries
	}
	if dto.RetryDelay != 0 {
		cfg.retryDelay = dto.RetryDelay
	}
	if dto.RequestInterval != 0 {
		cfg.requestInterval = dto.RequestInterval
	}
	if dto.Concurrency != 0 {
		cfg.concurrency = dto.Concurrency
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.FreshnessWindow != 0 {
		cfg.freshnessWindow = dto.FreshnessWindow
	}
	if dto.ChunkSize != 0 {
		cfg.chunkSize = dto.ChunkSize
	}
	if dto.ChunkDelay != 0 {
		cfg.chunkDelay = dto.ChunkDelay
	}
	if dto.CacheFile != "" {
		cfg.cacheFile = dto.CacheFile
	}
	if dto.PageCacheFile != "" {
		cfg.pageCacheFile = dto.PageCacheFile
	}
	if dto.CacheTTL != 0 {
		cfg.cacheTTL = dto.CacheTTL
	}
	if dto.CacheMaxSize != 0 {
		cfg.cacheMaxSize = dto.CacheMaxSize
	}

	return cfg.Build()
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg, err := newConfigFromDTO(cfgDTO)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithDefault creates a new Config with the provided base URL and default
// values for all other fields. baseURL is mandatory and must start with
// http or https - Build will return an error otherwise.
func WithDefault(baseURL string) *Config {
	defaultConfig := Config{
		baseURL:                    baseURL,
		salonDomain:                "beauty.hotpepper.jp",
		salonPathPattern:           `/sln[A-Z][0-9]+/`,
		stylistLinkSelector:        "p.mT10.fs16.b > a[href*='/stylist/T']",
		stylistNameSelector:        ".fs16.b",
		stylistDescriptionSelector: ".fgPink",
		stylistPositionSelector:    "p.fs12",
		couponClassName:            "couponMenuName",
		couponPriceSelector:        "span.fs16.fgPink",
		paginationMarkerSelector:   "p.pa.bottom0.right0",
		couponPageParameterName:    "PN",
		couponPageStartNumber:      2,
		couponPageLimit:            3,
		timeout:                    10 * time.Second,
		maxRetries:                 3,
		retryDelay:                 time.Second,
		requestInterval:            time.Second,
		concurrency:                5,
		userAgent:                  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		freshnessWindow:            24 * time.Hour,
		chunkSize:                  5,
		chunkDelay:                 time.Second,
		cacheFile:                  "cache/results.json",
		pageCacheFile:              "cache/pages.json",
		cacheTTL:                   30 * 24 * time.Hour,
		cacheMaxSize:               10000,
	}
	return &defaultConfig
}

func (c *Config) WithBaseURL(baseURL string) *Config {
	c.baseURL = baseURL
	return c
}

func (c *Config) WithSalonDomain(domain string) *Config {
	c.salonDomain = domain
	return c
}

func (c *Config) WithSalonPathPattern(pattern string) *Config {
	c.salonPathPattern = pattern
	return c
}

func (c *Config) WithStylistLinkSelector(selector string) *Config {
	c.stylistLinkSelector = selector
	return c
}

func (c *Config) WithStylistNameSelector(selector string) *Config {
	c.stylistNameSelector = selector
	return c
}

func (c *Config) WithStylistDescriptionSelector(selector string) *Config {
	c.stylistDescriptionSelector = selector
	return c
}

func (c *Config) WithStylistPositionSelector(selector string) *Config {
	c.stylistPositionSelector = selector
	return c
}

func (c *Config) WithCouponClassName(className string) *Config {
	c.couponClassName = className
	return c
}

func (c *Config) WithCouponPriceSelector(selector string) *Config {
	c.couponPriceSelector = selector
	return c
}

func (c *Config) WithPaginationMarkerSelector(selector string) *Config {
	c.paginationMarkerSelector = selector
	return c
}

func (c *Config) WithCouponPageParameterName(name string) *Config {
	c.couponPageParameterName = name
	return c
}

func (c *Config) WithCouponPageStartNumber(start int) *Config {
	c.couponPageStartNumber = start
	return c
}

func (c *Config) WithCouponPageLimit(limit int) *Config {
	c.couponPageLimit = limit
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithMaxRetries(retries int) *Config {
	c.maxRetries = retries
	return c
}

func (c *Config) WithRetryDelay(delay time.Duration) *Config {
	c.retryDelay = delay
	return c
}

func (c *Config) WithRequestInterval(interval time.Duration) *Config {
	c.requestInterval = interval
	return c
}

func (c *Config) WithConcurrency(concurrency int) *Config {
	c.concurrency = concurrency
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithFreshnessWindow(window time.Duration) *Config {
	c.freshnessWindow = window
	return c
}

func (c *Config) WithChunkSize(size int) *Config {
	c.chunkSize = size
	return c
}

func (c *Config) WithChunkDelay(delay time.Duration) *Config {
	c.chunkDelay = delay
	return c
}

func (c *Config) WithCacheFile(path string) *Config {
	c.cacheFile = path
	return c
}

func (c *Config) WithPageCacheFile(path string) *Config {
	c.pageCacheFile = path
	return c
}

func (c *Config) WithCacheTTL(ttl time.Duration) *Config {
	c.cacheTTL = ttl
	return c
}

func (c *Config) WithCacheMaxSize(size int) *Config {
	c.cacheMaxSize = size
	return c
}

func (c *Config) Build() (Config, error) {
	if !strings.HasPrefix(c.baseURL, "http://") && !strings.HasPrefix(c.baseURL, "https://") {
		return Config{}, fmt.Errorf("%w: baseUrl must start with http:// or https://", ErrInvalidConfig)
	}

	positives := map[string]int{
		"couponPageStartNumber": c.couponPageStartNumber,
		"couponPageLimit":       c.couponPageLimit,
		"maxRetries":            c.maxRetries,
		"concurrency":           c.concurrency,
		"chunkSize":             c.chunkSize,
		"cacheMaxSize":          c.cacheMaxSize,
	}
	for name, value := range positives {
		if value <= 0 {
			return Config{}, fmt.Errorf("%w: %s must be a positive number", ErrInvalidConfig, name)
		}
	}

	positiveDurations := map[string]time.Duration{
		"timeout":         c.timeout,
		"retryDelay":      c.retryDelay,
		"requestInterval": c.requestInterval,
		"freshnessWindow": c.freshnessWindow,
		"cacheTtl":        c.cacheTTL,
	}
	for name, value := range positiveDurations {
		if value <= 0 {
			return Config{}, fmt.Errorf("%w: %s must be a positive duration", ErrInvalidConfig, name)
		}
	}

	return *c, nil
}

func (c Config) BaseURL() string {
	return c.baseURL
}

func (c Config) SalonDomain() string {
	return c.salonDomain
}

func (c Config) SalonPathPattern() string {
	return c.salonPathPattern
}

// Selectors assembles the extraction selectors this config carries.
func (c Config) Selectors() extractor.Selectors {
	return extractor.Selectors{
		StylistLink:        c.stylistLinkSelector,
		StylistName:        c.stylistNameSelector,
		StylistDescription: c.stylistDescriptionSelector,
		StylistPosition:    c.stylistPositionSelector,
		CouponClassName:    c.couponClassName,
		CouponPrice:        c.couponPriceSelector,
		PaginationMarker:   c.paginationMarkerSelector,
	}
}

func (c Config) CouponPageParameterName() string {
	return c.couponPageParameterName
}

func (c Config) CouponPageStartNumber() int {
	return c.couponPageStartNumber
}

func (c Config) CouponPageLimit() int {
	return c.couponPageLimit
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) MaxRetries() int {
	return c.maxRetries
}

func (c Config) RetryDelay() time.Duration {
	return c.retryDelay
}

func (c Config) RequestInterval() time.Duration {
	return c.requestInterval
}

func (c Config) Concurrency() int {
	return c.concurrency
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) FreshnessWindow() time.Duration {
	return c.freshnessWindow
}

func (c Config) ChunkSize() int {
	return c.chunkSize
}

func (c Config) ChunkDelay() time.Duration {
	return c.chunkDelay
}

func (c Config) CacheFile() string {
	return c.cacheFile
}

func (c Config) PageCacheFile() string {
	return c.pageCacheFile
}

func (c Config) CacheTTL() time.Duration {
	return c.cacheTTL
}

func (c Config) CacheMaxSize() int {
	return c.cacheMaxSize
}
