package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sievelabs/opalfix/internal/log"
)

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "opalfix",
	Short: "OPAL query auto-fix and validation service",
	Long: `opalfix validates and repairs OPAL queries before they reach the
observability platform: known anti-patterns are rewritten automatically and
ambiguous ones are blocked with an explanation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return log.Configure(logLevel, logFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, console)")
}

func Execute() error {
	return rootCmd.Execute()
}
