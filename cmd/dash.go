package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmoreira/worldstatus/internal/cache"
	"github.com/dmoreira/worldstatus/internal/logging"
	"github.com/dmoreira/worldstatus/internal/settings"
	"github.com/dmoreira/worldstatus/internal/tui"
)

func runDashboard(cmd *cobra.Command, args []string) error {
	store, err := openSettings()
	if err != nil {
		return err
	}

	db, err := cache.Open(settings.CachePath())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer db.Close()

	if err := logging.Init(); err != nil {
		// The dashboard works fine without a log file.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	defer logging.Close()

	return tui.Run(tui.RunOpts{Store: store, DB: db})
}

// openSettings loads settings and, when no API key is configured
// anywhere, runs the onboarding prompt before the TUI takes over the
// terminal. Declining the prompt is allowed: the dashboard still runs and
// the news pane shows the missing-credential hint.
func openSettings() (*settings.Store, error) {
	store, err := settings.Open(flagConfig)
	if err == nil {
		return store, nil
	}
	if !errors.Is(err, settings.ErrOnboardingRequired) {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	fmt.Println("No xAI API key found.")
	fmt.Printf("Enter API key (saved to %s, blank to skip): ", store.Path())
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	key := strings.TrimSpace(line)
	if key == "" {
		return store, nil
	}
	if err := store.SetAPIKey(key); err != nil {
		return nil, fmt.Errorf("saving API key: %w", err)
	}
	return store, nil
}
