package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sievelabs/opalfix/internal/core/config"
	"github.com/sievelabs/opalfix/internal/core/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE:  runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

// resolveDBURL prefers the --db-url flag and falls back to the config
// file's db.url, matching how serve picks its database.
func resolveDBURL() (string, error) {
	if dbURL != "" {
		return dbURL, nil
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return "", fmt.Errorf("no database configured: set --db-url or db.url")
	}
	return cfg.DatabaseURL, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	url, err := resolveDBURL()
	if err != nil {
		return err
	}

	database, err := db.Open(url)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := db.MigrateUp(database); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	url, err := resolveDBURL()
	if err != nil {
		return err
	}

	database, err := db.Open(url)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	statuses, err := db.MigrateStatus(database)
	if err != nil {
		return err
	}

	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", s.ID, state)
	}
	return nil
}
