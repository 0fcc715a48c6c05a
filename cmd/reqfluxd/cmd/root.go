// Package cmd implements the reqfluxd CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "reqfluxd",
	Short: "Asynchronous HTTP request orchestrator",
	Long: `reqfluxd queues, builds, retries, and delivers outbound HTTP
requests with circuit breaking, rate limiting, deduplication, and
alerting.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
