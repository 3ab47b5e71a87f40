package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "worldstatus",
	Short: "Terminal dashboard for weather, news and stocks",
	Long:  "worldstatus shows live weather, a curated X news feed and stock quotes in one terminal dashboard, refreshing each source on its own schedule.",
	RunE:  runDashboard,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to settings file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(cacheCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("worldstatus %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
