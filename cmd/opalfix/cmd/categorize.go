package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sievelabs/opalfix/internal/catalog"
	"github.com/sievelabs/opalfix/internal/core/config"
	"github.com/sievelabs/opalfix/internal/core/db"
	"github.com/sievelabs/opalfix/internal/log"
)

var categorizeBatchSize int

var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Label uncategorized datasets with the LLM",
	Long: `Runs the offline categorization job: every dataset without a category is
sent to the model for a category and purpose. Resumable; already-labeled
datasets are skipped. Requires ANTHROPIC_API_KEY.`,
	RunE: runCategorize,
}

func init() {
	rootCmd.AddCommand(categorizeCmd)
	categorizeCmd.Flags().IntVar(&categorizeBatchSize, "batch-size", 20, "datasets per progress batch")
}

func runCategorize(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY required")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}
	store, err := catalog.NewStore(queries)
	if err != nil {
		return err
	}

	labeler, err := catalog.NewClaudeLabeler(cfg.LLMModel)
	if err != nil {
		return err
	}

	job, err := catalog.NewJob(store, labeler, categorizeBatchSize)
	if err != nil {
		return err
	}

	summary, err := job.Run(context.Background())
	if err != nil {
		return err
	}

	log.Info("labeling run finished",
		zap.String("run_id", string(summary.RunID)),
		zap.Int("pending", summary.Pending),
		zap.Int("labeled", summary.Labeled),
		zap.Int("failed", summary.Failed))
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d labeled, %d failed of %d pending\n",
		summary.RunID, summary.Labeled, summary.Failed, summary.Pending)
	return nil
}
