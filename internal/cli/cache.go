package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rohmanhakim/salon-scraper/internal/cache"
)

var clearPattern string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the result cache.",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show result cache statistics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openResultStore()
		if err != nil {
			return err
		}

		stats := store.Statistics()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRows([]table.Row{
			{"File", stats.FilePath},
			{"Total entries", stats.TotalEntries},
			{"Valid entries", stats.ValidEntries},
			{"Expired entries", stats.ExpiredEntries},
			{"Size limit", stats.SizeLimit},
			{"Default TTL", stats.DefaultTTL},
		})
		if stats.TotalEntries > 0 {
			t.AppendRows([]table.Row{
				{"Oldest entry", stats.OldestEntry.Format("2006-01-02 15:04:05")},
				{"Newest entry", stats.NewestEntry.Format("2006-01-02 15:04:05")},
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached results, all of them or by key pattern.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openResultStore()
		if err != nil {
			return err
		}

		removed, clearErr := store.Clear(clearPattern)
		if clearErr != nil {
			return clearErr
		}
		fmt.Printf("Removed %d entries\n", removed)
		return nil
	},
}

var cacheCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired entries and enforce the size bound.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openResultStore()
		if err != nil {
			return err
		}

		removed, cleanupErr := store.Cleanup()
		if cleanupErr != nil {
			return cleanupErr
		}
		fmt.Printf("Removed %d expired entries\n", removed)
		return nil
	},
}

func openResultStore() (*cache.Store, error) {
	// Cache maintenance needs no salon URL; the default target only
	// supplies the cache file location unless flags override it.
	cfg, err := InitConfigWithError("https://beauty.hotpepper.jp/")
	if err != nil {
		return nil, err
	}
	return cache.New(cfg.CacheFile(), cache.Config{
		DefaultTTL: cfg.CacheTTL(),
		MaxSize:    cfg.CacheMaxSize(),
	}, newLogger()), nil
}

func init() {
	cacheClearCmd.Flags().StringVar(&clearPattern, "pattern", "", "remove only keys containing this substring")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheCleanupCmd)
	rootCmd.AddCommand(cacheCmd)
}
