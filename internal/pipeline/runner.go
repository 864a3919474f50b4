// Package pipeline orchestrates the full export run: fetch each source,
// normalize it, merge the survivors and upload the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"surveysync/internal/config"
	"surveysync/internal/export"
	"surveysync/internal/formatter"
	"surveysync/internal/logger"
	"surveysync/internal/models"
	"surveysync/internal/normalizer"
	"surveysync/internal/storage"
)

// ErrNoUsableTables is returned when no source produced a usable table.
var ErrNoUsableTables = errors.New("no usable tables from any source")

// Runner executes the pipeline for the configured sources. One code
// path serves both the single-source and the multi-source flow; a
// single source is simply a sequence of one.
type Runner struct {
	cfg       *config.Config
	exporter  *export.Exporter
	processor *normalizer.Processor
	merger    *normalizer.Merger
	uploader  *storage.Uploader
	logger    *logger.Logger
}

// NewRunner wires the pipeline from configuration.
func NewRunner(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Runner, error) {
	uploader, err := storage.NewUploader(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create uploader: %w", err)
	}

	return NewRunnerWithDeps(cfg, export.NewExporter(cfg, log), uploader, log), nil
}

// NewRunnerWithDeps wires the pipeline with injected collaborators
// (useful for testing).
func NewRunnerWithDeps(cfg *config.Config, exporter *export.Exporter, uploader *storage.Uploader, log *logger.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		exporter:  exporter,
		processor: normalizer.NewProcessorWithBounds(cfg.Exporter.Validation.MinRecords, cfg.Exporter.Validation.MaxRecords),
		merger:    normalizer.NewMerger(),
		uploader:  uploader,
		logger:    log,
	}
}

// Close releases held resources.
func (r *Runner) Close() error {
	return r.uploader.Close()
}

// Run drives one full pipeline pass. The returned RunResult is always
// populated as far as the run got, even when err is non-nil.
//
// Failure policy: a failed source aborts a single-source run but is
// logged and skipped in a multi-source run. Structurally empty sources
// are never fatal on their own. A run with several requested sources
// and no usable table fails with ErrNoUsableTables.
func (r *Runner) Run(ctx context.Context) (*models.RunResult, error) {
	start := time.Now()

	sources := r.cfg.GetEnabledSources()
	single := len(sources) == 1

	run := &models.RunResult{}

	var tables []models.Table

	// 1. Export and normalize every enabled source
	for _, src := range sources {
		result, table := r.processSource(src)
		run.Sources = append(run.Sources, result)

		if result.Status == models.SourceStatusFailed {
			if single {
				run.Duration = time.Since(start)

				return run, result.Err
			}

			continue
		}

		if result.Status == models.SourceStatusOK {
			tables = append(tables, table)
		}
	}

	// 2. Nothing usable: a no-op for a lone empty source, fatal otherwise
	if len(tables) == 0 {
		run.Duration = time.Since(start)

		if single {
			r.logger.Warn("Source produced no data, nothing to upload")

			return run, nil
		}

		return run, ErrNoUsableTables
	}

	// 3. Merge the surviving tables under the superset header
	merged, err := r.merger.Merge(tables)
	if err != nil {
		run.Duration = time.Since(start)

		return run, fmt.Errorf("failed to merge tables: %w", err)
	}

	run.Merged = len(tables) > 1

	// 4. Serialize and upload
	data, err := formatter.WriteCSV(merged)
	if err != nil {
		run.Duration = time.Since(start)

		return run, fmt.Errorf("failed to serialize output: %w", err)
	}

	upload, err := r.uploader.Upload(ctx, r.cfg.Exporter.Storage.ObjectName, data)
	if err != nil {
		run.Duration = time.Since(start)

		return run, fmt.Errorf("failed to upload output: %w", err)
	}

	run.Upload = upload
	run.Duration = time.Since(start)

	r.logger.Info(fmt.Sprintf("Uploaded %d bytes to gs://%s/%s (%d records, %d columns)",
		upload.Bytes, upload.Bucket, upload.ObjectName, len(merged.Records), len(merged.Header)))

	return run, nil
}

// processSource exports and normalizes one survey.
func (r *Runner) processSource(src config.SourceConfig) (models.SourceResult, models.Table) {
	start := time.Now()

	result := models.SourceResult{
		SurveyID: src.SurveyID,
		Name:     src.Name,
	}

	raw, err := r.exporter.Fetch(src.SurveyID)
	if err != nil {
		r.logger.Error(fmt.Sprintf("Source %s export failed: %v", src.SurveyID, err))

		result.Status = models.SourceStatusFailed
		result.Err = err
		result.Duration = time.Since(start)

		return result, models.Table{}
	}

	table, err := r.processor.Process(raw)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)

		if normalizer.IsStructural(err) {
			r.logger.Warn(fmt.Sprintf("Source %s has no usable data: %v", src.SurveyID, err))

			result.Status = models.SourceStatusEmpty

			return result, table
		}

		r.logger.Error(fmt.Sprintf("Source %s processing failed: %v", src.SurveyID, err))

		result.Status = models.SourceStatusFailed

		return result, models.Table{}
	}

	result.Status = models.SourceStatusOK
	result.Rows = len(table.Records)
	result.Columns = len(table.Header)
	result.Duration = time.Since(start)

	r.logger.Info(fmt.Sprintf("Source %s ready: %d records, %d columns", src.SurveyID, result.Rows, result.Columns))

	return result, table
}
