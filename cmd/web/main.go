package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/fuzzie-io/flow-engine/pkg/server"
	"github.com/fuzzie-io/flow-engine/pkg/services/actions"
	"github.com/fuzzie-io/flow-engine/pkg/services/credit"
	"github.com/fuzzie-io/flow-engine/pkg/services/drive"
	"github.com/fuzzie-io/flow-engine/pkg/services/engine"
	"github.com/fuzzie-io/flow-engine/pkg/services/scheduler"
	"github.com/fuzzie-io/flow-engine/pkg/services/trigger"
	"github.com/fuzzie-io/flow-engine/pkg/store/duckdb"
	accountstore "github.com/fuzzie-io/flow-engine/pkg/store/duckdb/account"
	workflowstore "github.com/fuzzie-io/flow-engine/pkg/store/duckdb/workflow"
)

var (
	cfgPath string
	dbPath  string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the Fuzzie workflow execution engine",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "flow-engine.yaml",
		"Path to the engine config file")
	rootCmd.Flags().StringVar(&dbPath, "db", "flow-engine.db",
		"Path to the engine database file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: dbPath})
	if err != nil {
		return fmt.Errorf("failed to open engine database: %w", err)
	}

	accounts, err := accountstore.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create account store: %w", err)
	}
	workflows, err := workflowstore.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create workflow store: %w", err)
	}
	ledger, err := credit.NewLedger(accounts)
	if err != nil {
		return fmt.Errorf("failed to create credit ledger: %w", err)
	}

	schedulerCfg, err := scheduler.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load scheduler config: %w", err)
	}
	emailCfg, err := actions.LoadEmailConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load email config: %w", err)
	}

	registry := actions.NewRegistry()
	for _, adapter := range []actions.Adapter{
		actions.NewDiscordAdapter(),
		actions.NewSlackAdapter(),
		actions.NewNotionAdapter(),
		actions.NewEmailAdapter(*emailCfg),
		actions.NewWaitAdapter(scheduler.NewRegistrar(*schedulerCfg)),
	} {
		if err := registry.Register(adapter); err != nil {
			return fmt.Errorf("failed to register %s adapter: %w", adapter.Kind(), err)
		}
	}

	sequencer, err := engine.NewSequencer(workflows, accounts, ledger, registry)
	if err != nil {
		return fmt.Errorf("failed to create sequencer: %w", err)
	}

	// Payload resolution needs Google credentials; without them the
	// engine still runs, with payload-less trigger events.
	var fetcher drive.Fetcher
	if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" {
		fetcher, err = drive.NewFetcher(ctx, option.WithCredentialsFile(creds))
		if err != nil {
			return fmt.Errorf("failed to create drive fetcher: %w", err)
		}
	} else {
		logger.Warn().Msg("GOOGLE_APPLICATION_CREDENTIALS not set, file payloads disabled")
	}

	ingestor, err := trigger.NewIngestor(accounts, fetcher)
	if err != nil {
		return fmt.Errorf("failed to create trigger ingestor: %w", err)
	}

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")
	if host == "" || port == "" {
		logger.Error().Msg("Missing server configuration from .env file")
		os.Exit(1)
	}

	api := server.NewWebAPI(logger, server.Config{
		Addr:            net.JoinHostPort(host, port),
		ShutdownTimeout: 10 * time.Second,
		Dependencies: server.Dependencies{
			Ingestor:  ingestor,
			Sequencer: sequencer,
			Workflows: workflows,
		},
	})

	return api.Start()
}
