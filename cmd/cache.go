package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmoreira/worldstatus/internal/cache"
	"github.com/dmoreira/worldstatus/internal/settings"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the fetch cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache contents and size",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := settings.CachePath()
		db, err := cache.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		count, size, err := db.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		fmt.Printf("Cache: %s\n", dbPath)
		fmt.Printf("Entries: %d\n", count)
		fmt.Printf("Size: %s\n", formatBytes(size))

		entries, err := db.Entries()
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("  %-10s fetched %s (%d bytes)\n",
				e.Source, e.FetchedAt.Format("2006-01-02 15:04:05"), len(e.Payload))
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := cache.Open(settings.CachePath())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		if err := db.Clear(); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Println("Cache cleared.")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
