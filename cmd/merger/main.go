// Package main provides the merger command-line tool for combining exported CSV files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"surveysync/internal/formatter"
	"surveysync/internal/models"
	"surveysync/internal/normalizer"
)

func main() {
	outputPath := flag.String("output", "data/merged.csv", "Path to merged output CSV file")
	flag.Parse()

	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Println("Usage: merger [-output <merged.csv>] <input.csv> [<input.csv> ...]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	processor := normalizer.NewProcessor()
	merger := normalizer.NewMerger()

	var tables []models.Table

	for _, path := range inputs {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Error reading file: %v\n", err)
		}

		fmt.Printf("📂 Reading: %s (%d bytes)\n", path, len(content))

		table, procErr := processor.Process(content)
		if procErr != nil {
			if normalizer.IsStructural(procErr) {
				fmt.Printf("⚠️  No usable records in %s: %v, skipping...\n", path, procErr)

				continue
			}

			log.Fatalf("Error normalizing %s: %v\n", path, procErr)
		}

		fmt.Printf("📊 Parsed: %d records, %d columns\n", len(table.Records), len(table.Header))

		tables = append(tables, table)
	}

	merged, err := merger.Merge(tables)
	if err != nil {
		log.Fatalf("Error merging tables: %v\n", err)
	}

	fmt.Printf("🔗 Merged %d tables: %d records, %d columns\n", len(tables), len(merged.Records), len(merged.Header))

	data, err := formatter.WriteCSV(merged)
	if err != nil {
		log.Fatalf("Error encoding CSV: %v\n", err)
	}

	// Ensure directory exists
	if mkdirErr := os.MkdirAll(filepath.Dir(*outputPath), 0755); mkdirErr != nil {
		log.Fatalf("Error creating directory: %v\n", mkdirErr)
	}

	if err := os.WriteFile(*outputPath, data, 0644); err != nil {
		log.Fatalf("Error writing file: %v\n", err)
	}

	fmt.Printf("✅ Saved to: %s\n", *outputPath)
}
