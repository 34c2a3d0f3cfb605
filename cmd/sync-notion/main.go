package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/edufin/internal/app"
	"github.com/dvloznov/edufin/internal/config"
	"github.com/dvloznov/edufin/internal/logger"
	"github.com/dvloznov/edufin/internal/notionsync"
)

func main() {
	configPath := flag.String("config", os.Getenv("EDUFIN_CONFIG"), "Path to YAML config (or set EDUFIN_CONFIG env)")
	notionToken := flag.String("notion-token", "", "Notion API token (overrides config)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (overrides config)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	prune := flag.Bool("prune", false, "Archive Notion pages whose payment is no longer in the ledger")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logger.New(logger.Options{})
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize structured logger
	log := logger.New(logger.Options{Level: cfg.Logging.Level, Console: cfg.Logging.Console})

	if *notionToken != "" {
		cfg.Notion.Token = *notionToken
	}
	if *notionDBID != "" {
		cfg.Notion.DatabaseID = *notionDBID
	}
	if cfg.Notion.Token == "" {
		log.Fatal().Msg("Error: --notion-token or NOTION_TOKEN is required")
	}
	if cfg.Notion.DatabaseID == "" {
		log.Fatal().Msg("Error: --notion-db-id or NOTION_DATABASE_ID is required")
	}
	if cfg.SQLite.Path == "" && cfg.BigQuery.ProjectID == "" {
		log.Fatal().Msg("Error: configure sqlite.path or bigquery.project_id as the ledger to sync from")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	rt, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ledger")
	}
	defer rt.Close()

	log.Info().
		Bool("dry_run", *dryRun).
		Bool("prune", *prune).
		Msg("Starting Notion sync")

	stats, err := rt.Syncer().SyncPayments(ctx, rt.Ledger, notionsync.Options{DryRun: *dryRun, Prune: *prune})
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d archived, %d failed.\n",
		stats.Created, stats.Updated, stats.Archived, stats.Failed)
}
