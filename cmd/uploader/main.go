// Package main provides the uploader command-line tool for syncing CSV files to Cloud Storage.
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"surveysync/internal/config"
	"surveysync/internal/logger"
	"surveysync/internal/storage"
)

func main() {
	// Load .env before flag defaults read the environment
	_ = godotenv.Load()

	// Command line flags
	inputFile := flag.String("input", "", "Path to CSV file to upload (required)")
	bucket := flag.String("bucket", os.Getenv("GCS_BUCKET"), "Target Cloud Storage bucket")
	object := flag.String("object", "responses.csv", "Destination object name")
	credentials := flag.String("credentials", "", "Service account credentials file (optional)")
	verify := flag.Bool("verify", false, "Parse the CSV before uploading")

	flag.Parse()

	// Validate required flags
	if *inputFile == "" {
		fmt.Println("Error: --input flag is required")
		fmt.Println("Usage: uploader --input <path> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *bucket == "" {
		fmt.Println("Error: --bucket flag or GCS_BUCKET is required")
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger("info")
	log.Info(fmt.Sprintf("Starting uploader: input=%s, destination=gs://%s/%s", *inputFile, *bucket, *object))

	data, err := os.ReadFile(*inputFile)
	if err != nil {
		log.Error(fmt.Sprintf("Error reading file: %v", err))
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("Loaded CSV data: bytes=%d", len(data)))

	if *verify {
		// The input is already normalized, so strict parsing applies
		rows, verifyErr := csv.NewReader(bytes.NewReader(data)).ReadAll()
		if verifyErr != nil {
			log.Error(fmt.Sprintf("Verification failed: %v", verifyErr))
			os.Exit(1)
		}

		if len(rows) == 0 {
			log.Error("Verification failed: file has no rows")
			os.Exit(1)
		}

		log.Info(fmt.Sprintf("Verified CSV: records=%d, columns=%d", len(rows)-1, len(rows[0])))
	}

	cfg := &config.Config{
		Exporter: config.ExporterConfig{
			Storage: config.StorageConfig{
				Bucket:          *bucket,
				ObjectName:      *object,
				CredentialsFile: *credentials,
			},
		},
	}

	ctx := context.Background()

	uploader, err := storage.NewUploader(ctx, cfg, log)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to create uploader: %v", err))
		os.Exit(1)
	}
	defer uploader.Close()

	result, err := uploader.Upload(ctx, *object, data)
	if err != nil {
		log.Error(fmt.Sprintf("Upload failed: %v", err))
		os.Exit(1)
	}

	// Report results
	action := "created"
	if result.Replaced {
		action = "replaced"
	}

	if result.Fallback {
		action = "created as fallback"

		log.Warn(fmt.Sprintf("Replace was denied, wrote fallback object: %s", result.ObjectName))
	}

	fmt.Printf("\n✓ Successfully uploaded %d bytes to gs://%s/%s (%s)\n",
		result.Bytes, result.Bucket, result.ObjectName, action)
}
