package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sievelabs/opalfix/internal/core/config"
	"github.com/sievelabs/opalfix/internal/opal"
	"github.com/sievelabs/opalfix/internal/types"
)

var fixJSON bool

var fixCmd = &cobra.Command{
	Use:   "fix [query]",
	Short: "Rewrite one OPAL query and print the result",
	Long: `Runs the auto-fix engine over a single query, given as an argument or on
stdin, and prints the corrected query with the applied-fix feedback.
Exits 1 when the query is blocked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFix,
}

func init() {
	rootCmd.AddCommand(fixCmd)
	fixCmd.Flags().BoolVar(&fixJSON, "json", false, "emit the full validation result as JSON")
}

func runFix(cmd *cobra.Command, args []string) error {
	var query string
	if len(args) == 1 {
		query = args[0]
	} else {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		query = string(raw)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return types.ErrEmptyQuery
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	engine := opal.NewEngine(opal.WithAlignWindow(cfg.AlignWindow))
	result := engine.Apply(query, types.QueryContext{})

	if fixJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if result.Blocked != "" {
			return fmt.Errorf("query blocked")
		}
		return nil
	}

	if result.Blocked != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "blocked:", result.Blocked)
		return fmt.Errorf("query blocked")
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.TransformedQuery)
	if feedback := opal.FormatFeedback(result.Applied); feedback != "" {
		fmt.Fprint(cmd.ErrOrStderr(), "\n"+feedback)
	}
	return nil
}
