package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
	"github.com/fuzzie-io/flow-engine/pkg/models/store"
	"github.com/fuzzie-io/flow-engine/pkg/store/duckdb"
	accountstore "github.com/fuzzie-io/flow-engine/pkg/store/duckdb/account"
	workflowstore "github.com/fuzzie-io/flow-engine/pkg/store/duckdb/workflow"
)

var (
	dbPath         string
	resourceID     string
	credits        int
	unlimited      bool
	steps          string
	discordWebhook string
	engineURL      string
	fileID         string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Operator tooling for the Fuzzie workflow engine",
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "flow-engine.db",
		"Path to the engine database file")

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo account, resource mapping and workflow",
		RunE:  runSeed,
	}
	seedCmd.Flags().StringVar(&resourceID, "resource-id", "", "Watch resource id to map to the account")
	seedCmd.Flags().IntVar(&credits, "credits", 10, "Initial credit balance")
	seedCmd.Flags().BoolVar(&unlimited, "unlimited", false, "Put the account on the unlimited tier")
	seedCmd.Flags().StringVar(&steps, "steps", "Discord", "Comma-separated step sequence")
	seedCmd.Flags().StringVar(&discordWebhook, "discord-webhook", "", "Discord webhook URL for message-post steps")
	_ = seedCmd.MarkFlagRequired("resource-id")

	triggerCmd := &cobra.Command{
		Use:   "trigger",
		Short: "Fire a drive change notification at a running engine",
		RunE:  runTrigger,
	}
	triggerCmd.Flags().StringVar(&engineURL, "url", "http://localhost:8080", "Engine base URL")
	triggerCmd.Flags().StringVar(&resourceID, "resource-id", "", "Watch resource id")
	triggerCmd.Flags().StringVar(&fileID, "file-id", "", "Optional file id to resolve")
	_ = triggerCmd.MarkFlagRequired("resource-id")

	rootCmd.AddCommand(seedCmd, triggerCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: dbPath})
	if err != nil {
		return fmt.Errorf("failed to open engine database: %w", err)
	}
	defer db.Close()

	accounts, err := accountstore.NewStore(db)
	if err != nil {
		return err
	}
	workflows, err := workflowstore.NewStore(db)
	if err != nil {
		return err
	}

	tags := strings.Split(steps, ",")
	kinds, err := domain.ParseStepKinds(tags)
	if err != nil {
		return fmt.Errorf("invalid step sequence: %w", err)
	}
	flowPath, err := json.Marshal(tags)
	if err != nil {
		return err
	}

	tier := string(domain.TierFree)
	if unlimited {
		tier = string(domain.TierUnlimited)
	}

	accountID := uuid.NewString()
	if err := accounts.CreateAccount(ctx, &store.Account{
		ID:        accountID,
		UserID:    "demo-user",
		Credits:   credits,
		Unlimited: unlimited,
		Tier:      tier,
	}); err != nil {
		return err
	}
	if err := accounts.CreateResourceMapping(ctx, store.ResourceMapping{
		ResourceID: resourceID,
		AccountID:  accountID,
	}); err != nil {
		return err
	}

	workflowID := uuid.NewString()
	if err := workflows.CreateWorkflow(ctx, &store.Workflow{
		ID:                workflowID,
		AccountID:         accountID,
		Name:              "demo-workflow",
		FlowPath:          string(flowPath),
		DiscordWebhookURL: discordWebhook,
	}); err != nil {
		return err
	}

	fmt.Printf("account: %s\nworkflow: %s\nsteps: %v\n", accountID, workflowID, kinds)
	return nil
}

func runTrigger(cmd *cobra.Command, _ []string) error {
	body, err := json.Marshal(map[string]string{"fileId": fileID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
		engineURL+"/api/drive-activity/notification", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("x-goog-resource-id", resourceID)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Printf("%d %s\n", resp.StatusCode, string(raw))
	return nil
}
