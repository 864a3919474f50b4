// Package main provides the unified worker command that exports,
// normalizes, merges and uploads survey responses.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"surveysync/internal/config"
	"surveysync/internal/formatter"
	"surveysync/internal/logger"
	"surveysync/internal/pipeline"
)

func main() {
	// Load .env before flag defaults read the environment
	_ = godotenv.Load()

	// 1. Define Command-Line Flags
	// ----------------------------
	configFile := flag.String("config", "configs/worker.yaml", "Path to YAML configuration file")
	surveyID := flag.String("survey", "", "Run for a single survey ID (overrides config sources)")
	apiToken := flag.String("api-token", os.Getenv("QUALTRICS_API_TOKEN"), "Survey platform API token (overrides config)")
	datacenter := flag.String("datacenter", "", "Datacenter ID (overrides config)")
	bucket := flag.String("bucket", "", "Destination bucket (overrides config)")
	objectName := flag.String("object", "", "Destination object name (overrides config)")

	flag.Parse()

	// Initialize Logger
	log := logger.NewLogger("info")

	// 2. Configuration
	// ----------------
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Failed to load config: %v", err))
		os.Exit(1)
	}

	log.SetLevel(cfg.Exporter.Logging.Level)

	if *surveyID != "" {
		cfg.Exporter.Sources = []config.SourceConfig{
			{SurveyID: *surveyID, Name: *surveyID, Enabled: true},
		}
	}

	if *apiToken != "" {
		cfg.Exporter.API.Token = *apiToken
	}

	if *datacenter != "" {
		cfg.Exporter.API.Datacenter = *datacenter
	}

	if *bucket != "" {
		cfg.Exporter.Storage.Bucket = *bucket
	}

	if *objectName != "" {
		cfg.Exporter.Storage.ObjectName = *objectName
	}

	if cfg.Exporter.API.Token == "" {
		log.Error("❌ No API token: set -api-token or QUALTRICS_API_TOKEN")
		os.Exit(1)
	}

	runID := uuid.New().String()[:8]
	log = log.With("run_id", runID)

	log.Info("🚀 Starting Survey Sync Pipeline")
	log.Info(fmt.Sprintf("📍 Sources: %d enabled", len(cfg.GetEnabledSources())))
	log.Info(fmt.Sprintf("🎯 Destination: gs://%s/%s", cfg.Exporter.Storage.Bucket, cfg.Exporter.Storage.ObjectName))

	// 3. Pipeline
	// -----------
	ctx := context.Background()

	runner, err := pipeline.NewRunner(ctx, cfg, log)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Failed to initialize pipeline: %v", err))
		os.Exit(1)
	}
	defer runner.Close()

	run, runErr := runner.Run(ctx)

	// 4. Final Report
	// ---------------
	fmt.Println("\n------------------------------------------------")
	fmt.Println("📊 Summary Report")
	fmt.Println("------------------------------------------------")

	if len(run.Sources) > 0 {
		fmt.Print(formatter.FormatSummary(run.Sources))
	}

	if run.Upload != nil {
		action := "replaced"
		if run.Upload.Created {
			action = "created"
		}

		if run.Upload.Fallback {
			action = "created as fallback"
		}

		fmt.Printf("Upload: gs://%s/%s %s (%d bytes)\n", run.Upload.Bucket, run.Upload.ObjectName, action, run.Upload.Bytes)
	}

	fmt.Printf("Total Duration: %v\n", run.Duration)
	fmt.Println("------------------------------------------------")

	if runErr != nil {
		log.Error(fmt.Sprintf("❌ Pipeline failed: %v", runErr))
		os.Exit(1)
	}

	log.Info("✨ Pipeline Complete!")
}
