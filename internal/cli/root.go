package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohmanhakim/salon-scraper/internal/build"
	"github.com/rohmanhakim/salon-scraper/internal/cache"
	"github.com/rohmanhakim/salon-scraper/internal/config"
	"github.com/rohmanhakim/salon-scraper/internal/extractor"
	"github.com/rohmanhakim/salon-scraper/internal/fetcher"
	"github.com/rohmanhakim/salon-scraper/internal/scraper"
)

const salonDataKey = "salon_data"

var (
	cfgFile         string
	concurrency     int
	timeout         time.Duration
	maxRetries      int
	retryDelay      time.Duration
	requestInterval time.Duration
	couponPageLimit int
	userAgent       string
	cacheFile       string
	pageCacheFile   string
	cacheTTL        time.Duration
	noCache         bool
	verbose         bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "salon-scraper <salon-url>",
	Short: "Scrape stylists and coupons from a salon page.",
	Long: `salon-scraper fetches a HotPepper Beauty salon page and collects its
stylist roster and coupon listing, politely: requests are paced, bounded
in parallelism, retried on transient failures, and cached across runs.

Results are printed as tables and cached so repeated runs of the same
salon stay off the network until the cache expires.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd.Context(), args[0])
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = build.FullVersion()
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "maximum simultaneous requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for HTTP requests")
	rootCmd.PersistentFlags().IntVar(&maxRetries, "max-retries", 0, "attempts per request, including the first")
	rootCmd.PersistentFlags().DurationVar(&retryDelay, "retry-delay", 0, "fixed wait between retry attempts")
	rootCmd.PersistentFlags().DurationVar(&requestInterval, "request-interval", 0, "minimum spacing between requests")
	rootCmd.PersistentFlags().IntVar(&couponPageLimit, "coupon-page-limit", 0, "maximum coupon pages to fetch")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().StringVar(&cacheFile, "cache-file", "", "file backing the result cache")
	rootCmd.PersistentFlags().StringVar(&pageCacheFile, "page-cache-file", "", "file backing the fetched-page cache")
	rootCmd.PersistentFlags().DurationVar(&cacheTTL, "cache-ttl", 0, "default TTL of result cache entries")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the result cache for this run")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func runScrape(ctx context.Context, salonURL string) error {
	cfg, err := InitConfigWithError(salonURL)
	if err != nil {
		return err
	}

	logger := newLogger()
	resultStore := cache.New(cfg.CacheFile(), cache.Config{
		DefaultTTL: cfg.CacheTTL(),
		MaxSize:    cfg.CacheMaxSize(),
	}, logger)

	if !noCache {
		var data scraper.SalonData
		if resultStore.GetInto(salonDataKey, salonURL, &data) {
			logger.WithField("url", salonURL).Info("serving cached results")
			renderSalonData(data)
			return nil
		}
	}

	pageFetcher := fetcher.NewResilientFetcher(fetcher.Options{
		Timeout:         cfg.Timeout(),
		UserAgent:       cfg.UserAgent(),
		Concurrency:     int64(cfg.Concurrency()),
		RequestInterval: cfg.RequestInterval(),
		MaxRetries:      cfg.MaxRetries(),
		RetryDelay:      cfg.RetryDelay(),
		Freshness:       cfg.FreshnessWindow(),
	}, logger)
	pageFetcher.LoadPages(cfg.PageCacheFile())

	orch, err := scraper.NewOrchestrator(pageFetcher, extractor.NewPageParser(cfg.Selectors()), cfg, logger)
	if err != nil {
		return err
	}

	data, scrapeErr := orch.FetchAllData(ctx, salonURL)
	if scrapeErr != nil {
		return scrapeErr
	}

	if saveErr := pageFetcher.SavePages(cfg.PageCacheFile()); saveErr != nil {
		logger.WithError(saveErr).Warn("failed to persist fetched pages")
	}
	if !noCache {
		if setErr := resultStore.Set(salonDataKey, data, nil, salonURL); setErr != nil {
			logger.WithError(setErr).Warn("failed to cache results")
		}
	}

	renderSalonData(data)
	return nil
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

func renderSalonData(data scraper.SalonData) {
	fmt.Printf("Stylists: %d\n", len(data.Stylists))
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Name", "Position", "Description"})
	for _, stylist := range data.Stylists {
		t.AppendRow(table.Row{stylist.Name, stylist.Position, stylist.Description})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	fmt.Printf("\nCoupons: %d\n", len(data.Coupons))
	t = table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Name", "Price"})
	for _, coupon := range data.Coupons {
		t.AppendRow(table.Row{coupon.Name, coupon.Price})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// InitConfigWithError builds the effective config from the config file or
// from CLI flag overrides on top of the defaults.
func InitConfigWithError(salonURL string) (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	// Start with default config and apply overrides using method chaining
	configBuilder := config.WithDefault(salonURL)

	if concurrency > 0 {
		configBuilder = configBuilder.WithConcurrency(concurrency)
	}
	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}
	if maxRetries > 0 {
		configBuilder = configBuilder.WithMaxRetries(maxRetries)
	}
	if retryDelay > 0 {
		configBuilder = configBuilder.WithRetryDelay(retryDelay)
	}
	if requestInterval > 0 {
		configBuilder = configBuilder.WithRequestInterval(requestInterval)
	}
	if couponPageLimit > 0 {
		configBuilder = configBuilder.WithCouponPageLimit(couponPageLimit)
	}
	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}
	if cacheFile != "" {
		configBuilder = configBuilder.WithCacheFile(cacheFile)
	}
	if pageCacheFile != "" {
		configBuilder = configBuilder.WithPageCacheFile(pageCacheFile)
	}
	if cacheTTL > 0 {
		configBuilder = configBuilder.WithCacheTTL(cacheTTL)
	}

	return configBuilder.Build()
}

func ResetFlags() {
	cfgFile = ""
	concurrency = 0
	timeout = 0
	maxRetries = 0
	retryDelay = 0
	requestInterval = 0
	couponPageLimit = 0
	userAgent = ""
	cacheFile = ""
	pageCacheFile = ""
	cacheTTL = 0
	noCache = false
	verbose = false
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetConcurrencyForTest(conc int) {
	concurrency = conc
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetMaxRetriesForTest(retries int) {
	maxRetries = retries
}

func SetCouponPageLimitForTest(limit int) {
	couponPageLimit = limit
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetCacheFileForTest(path string) {
	cacheFile = path
}
