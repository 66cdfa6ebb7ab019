package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sievelabs/opalfix/internal/catalog"
	"github.com/sievelabs/opalfix/internal/core/api"
	"github.com/sievelabs/opalfix/internal/core/auth"
	"github.com/sievelabs/opalfix/internal/core/config"
	"github.com/sievelabs/opalfix/internal/core/db"
	"github.com/sievelabs/opalfix/internal/core/server"
	"github.com/sievelabs/opalfix/internal/docsearch"
	"github.com/sievelabs/opalfix/internal/execution"
	"github.com/sievelabs/opalfix/internal/log"
	"github.com/sievelabs/opalfix/internal/opal"
)

const Version = "0.1.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the query validation HTTP service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "HTTP server host")
	serveCmd.Flags().Int("port", 8080, "HTTP server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		cfg.Host = host
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		cfg.Port = port
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}

	apiToken, err := config.APIToken()
	if err != nil {
		return err
	}
	if apiToken == "" && cfg.Host != "127.0.0.1" && cfg.Host != "localhost" {
		return fmt.Errorf("OPALFIX_API_TOKEN required when binding %s (unauthenticated serving is loopback-only)", cfg.Host)
	}
	authenticator := auth.NewAuthenticator(apiToken)

	var store *catalog.Store
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	statuses, err := db.MigrateStatus(database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			return fmt.Errorf("migration %s not applied - run 'opalfix migrate' first", s.ID)
		}
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}
	store, err = catalog.NewStore(queries)
	if err != nil {
		return fmt.Errorf("failed to create catalog store: %w", err)
	}

	var executor execution.Executor
	if cfg.PlatformURL != "" {
		platformToken, err := config.PlatformToken()
		if err != nil {
			return err
		}
		client, err := execution.NewClient(cfg.PlatformURL, platformToken, cfg.QueryTimeout)
		if err != nil {
			return fmt.Errorf("failed to create execution client: %w", err)
		}
		executor = client
	} else {
		log.Warn("no platform URL configured, /v1/query/run disabled")
	}

	var docs *docsearch.Index
	if _, statErr := os.Stat(cfg.DocsDir); statErr == nil {
		docs, err = docsearch.BuildIndex(cfg.DocsDir)
		if err != nil {
			return fmt.Errorf("failed to build docs index: %w", err)
		}
		defer docs.Close()
	} else {
		log.Warn("docs directory not found, /v1/docs/search disabled",
			zap.String("dir", cfg.DocsDir))
	}

	engine := opal.NewEngine(opal.WithAlignWindow(cfg.AlignWindow))
	service, err := api.NewService(engine, authenticator, executor, store, docs)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	httpServer, err := server.NewHTTPServer(cfg, service)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Info("starting opalfix",
		zap.String("version", Version),
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port))

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		log.Info("shutting down gracefully")
		return httpServer.Shutdown(ctx)
	}
}
