package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmoreira/worldstatus/internal/cache"
	"github.com/dmoreira/worldstatus/internal/providers"
	"github.com/dmoreira/worldstatus/internal/settings"
)

// refreshCmd fetches every source once and updates the cache, so the
// dashboard starts warm (or cron can keep it warm).
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch all sources once and update the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openSettings()
		if err != nil {
			return err
		}
		cfg := store.Current()

		db, err := cache.Open(settings.CachePath())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		client := providers.New(cfg.APIKey)

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		g, ctx := errgroup.WithContext(ctx)
		for _, source := range cfg.Sources() {
			g.Go(func() error {
				payload, err := client.Fetch(ctx, source, cfg)
				if err != nil {
					fmt.Printf("  [warn] %v\n", err)
					return nil // one source failing must not stop the rest
				}
				if _, err := db.Put(source, payload); err != nil {
					return err
				}
				fmt.Printf("  %s: ok\n", source)
				return nil
			})
		}
		return g.Wait()
	},
}
