// Package main provides the exporter command-line tool for downloading survey responses to local CSV files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"surveysync/internal/config"
	"surveysync/internal/export"
	"surveysync/internal/formatter"
	"surveysync/internal/logger"
	"surveysync/internal/normalizer"
)

func main() {
	// Load .env before flag defaults read the environment
	_ = godotenv.Load()

	// Define command-line flags
	configFile := flag.String("config", "", "Path to YAML configuration file")
	surveyID := flag.String("survey", "", "Survey ID to export (overrides config sources)")
	apiToken := flag.String("api-token", os.Getenv("QUALTRICS_API_TOKEN"), "Survey platform API token")
	datacenter := flag.String("datacenter", "", "Datacenter ID, e.g. pdx1 (overrides config)")
	output := flag.String("output", "", "Output CSV file path (overrides config)")
	showUsage := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *showUsage {
		printUsage()
		os.Exit(0)
	}

	var cfg *config.Config

	var err error

	// Load configuration
	if *configFile != "" {
		fmt.Printf("⚙️  Loading configuration from: %s\n", *configFile)

		cfg, err = config.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("❌ Failed to load config: %v\n", err)
		}

		fmt.Printf("✅ Configuration loaded: %s\n\n", cfg)
	} else if *surveyID != "" {
		// Create minimal config from CLI flags
		cfg = createConfigFromCLI(*surveyID, *datacenter)

		fmt.Println("⚙️  Using command-line arguments")
		fmt.Println()
	} else {
		// Try to load default config
		defaultConfig := "configs/worker.yaml"
		if _, statErr := os.Stat(defaultConfig); statErr == nil {
			fmt.Printf("⚙️  Loading default configuration: %s\n", defaultConfig)

			cfg, err = config.LoadConfig(defaultConfig)
			if err != nil {
				log.Fatalf("❌ Failed to load default config: %v\n", err)
			}

			fmt.Printf("✅ Configuration loaded: %s\n\n", cfg)
		} else {
			log.Fatal("❌ Please provide -config file or -survey flag, or place configs/worker.yaml in working directory")
		}
	}

	// Apply CLI overrides
	if *apiToken != "" {
		cfg.Exporter.API.Token = *apiToken
	}

	if *datacenter != "" {
		cfg.Exporter.API.Datacenter = *datacenter
	}

	if cfg.Exporter.API.Token == "" {
		log.Fatal("❌ No API token: set -api-token or QUALTRICS_API_TOKEN")
	}

	printExporterHeader(cfg)

	appLogger := logger.NewLogger(cfg.Exporter.Logging.Level)
	exporter := export.NewExporter(cfg, appLogger)
	processor := normalizer.NewProcessorWithBounds(cfg.Exporter.Validation.MinRecords, cfg.Exporter.Validation.MaxRecords)

	// Process each enabled source
	enabledSources := cfg.GetEnabledSources()
	fmt.Printf("🚀 Processing %d enabled sources...\n", len(enabledSources))

	saved := 0

	for i, source := range enabledSources {
		fmt.Printf("\n----------------------------------------------------------------\n")
		fmt.Printf("📦 Source %d/%d: %s (%s)\n", i+1, len(enabledSources), source.Name, source.SurveyID)

		// Fetch export from the survey platform
		fmt.Printf("⏳ Exporting responses for %s\n", source.SurveyID)

		start := time.Now()

		raw, fetchErr := exporter.Fetch(source.SurveyID)
		if fetchErr != nil {
			fmt.Printf("❌ Export failed: %v (%.2fs)\n", fetchErr, time.Since(start).Seconds())
			fmt.Printf("⚠️  Skipping source %s due to export failure\n", source.Name)

			continue
		}

		fmt.Printf("✅ Successfully downloaded %d bytes (%.2fs)\n", len(raw), time.Since(start).Seconds())

		// Normalize the raw export
		fmt.Println("\n📊 Normalizing response table...")

		table, procErr := processor.Process(raw)
		if procErr != nil {
			if normalizer.IsStructural(procErr) {
				fmt.Printf("⚠️  No usable records: %v, skipping...\n", procErr)
			} else {
				fmt.Printf("❌ Normalization failed: %v\n", procErr)
			}

			continue
		}

		fmt.Printf("✅ Successfully extracted %d records (%d columns)\n", len(table.Records), len(table.Header))

		// Determine output path
		fmt.Println("\n📝 Saving to CSV...")

		outputPath := cfg.GetOutputPath(source.SurveyID)
		if *output != "" && len(enabledSources) == 1 {
			// Only override output path if processing a single source
			outputPath = *output
		}

		data, writeErr := formatter.WriteCSV(table)
		if writeErr != nil {
			fmt.Printf("❌ CSV encoding failed: %v\n", writeErr)

			continue
		}

		if saveErr := export.SaveLocal(outputPath, data, cfg.Exporter.Output.CreateBackup); saveErr != nil {
			fmt.Printf("❌ Save failed: %v\n", saveErr)

			continue
		}

		fmt.Printf("✅ Saved to: %s\n", outputPath)

		saved++
	}

	fmt.Printf("\n✨ Export complete! %d/%d sources saved\n", saved, len(enabledSources))

	if saved == 0 && len(enabledSources) > 0 {
		os.Exit(1)
	}
}

// createConfigFromCLI creates a config from CLI arguments.
func createConfigFromCLI(surveyID, datacenter string) *config.Config {
	if datacenter == "" {
		datacenter = "pdx1"
	}

	cfg := &config.Config{
		Exporter: config.ExporterConfig{
			Sources: []config.SourceConfig{
				{
					SurveyID: surveyID,
					Name:     "CLI Input",
					Enabled:  true,
				},
			},
			API: config.APIConfig{
				Datacenter: datacenter,
				TimeoutSec: 60,
			},
			Poll: config.PollConfig{
				IntervalMs: 2000,
				TimeoutSec: 300,
			},
			Output: config.OutputConfig{
				BasePath:     "./data/exports",
				CreateBackup: true,
			},
			Validation: config.ValidationConfig{
				MinRecords: 0,
				MaxRecords: 0,
			},
			Logging: config.LoggingConfig{
				Level: "info",
			},
		},
		Advanced: config.AdvancedConfig{
			DownloadLimitKb: 10240,
		},
	}

	return cfg
}

func printExporterHeader(cfg *config.Config) {
	fmt.Println("📥 SurveySync Response Exporter")
	fmt.Printf("Available sources: %d\n", len(cfg.GetEnabledSources()))
	fmt.Printf("API endpoint: %s\n", cfg.BaseURL())
	fmt.Printf("Poll policy: every %v, %v deadline\n", cfg.GetPollInterval(), cfg.GetPollTimeout())
	fmt.Printf("Output: %s\n", cfg.Exporter.Output.BasePath)
	fmt.Println()
}

func printUsage() {
	fmt.Println("📥 SurveySync Response Exporter")
	fmt.Println()
	fmt.Println("Downloads survey responses through the export API and saves them")
	fmt.Println("as normalized CSV files, one per survey.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  exporter -config configs/worker.yaml")
	fmt.Println("  exporter -survey SV_abc123 -api-token <token>")
	fmt.Println("  exporter -survey SV_abc123 -datacenter fra1 -output responses.csv")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
