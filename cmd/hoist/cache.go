package main

import (
	"fmt"
	"time"

	"github.com/panbanda/hoist/internal/cache"
	"github.com/panbanda/hoist/internal/output"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the parse cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show parse cache statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every parse cache entry",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

// openCache opens the configured cache, or nil when caching is disabled.
func openCache() (*cache.Cache, string, error) {
	loaded, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	cfg := loaded.Config.Cache
	if !cfg.Enabled {
		return nil, cfg.Dir, nil
	}
	c, err := cache.New(cfg.Dir, cfg.TTL, true)
	return c, cfg.Dir, err
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	c, dir, err := openCache()
	if err != nil {
		return err
	}
	if c == nil {
		output.NewStatus(cmd.OutOrStdout()).Warning("Cache is disabled")
		return nil
	}
	stats, err := c.GetStats()
	if err != nil {
		return err
	}

	table := output.NewTable("Parse Cache", []string{"Metric", "Value"}, [][]string{
		{"Directory", dir},
		{"Entries", fmt.Sprintf("%d", stats.Entries)},
		{"Size", fmt.Sprintf("%.1f KiB", float64(stats.TotalSize)/1024)},
		{"Oldest entry", stats.OldestAge.Round(time.Second).String()},
	}, nil, stats)
	return table.RenderText(cmd.OutOrStdout(), false)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	c, dir, err := openCache()
	if err != nil {
		return err
	}
	if c == nil {
		output.NewStatus(cmd.OutOrStdout()).Warning("Cache is disabled")
		return nil
	}
	if err := c.Clear(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", dir, err)
	}
	output.NewStatus(cmd.OutOrStdout()).Success("Cleared %s", dir)
	return nil
}
