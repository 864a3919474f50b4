package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"surveysync/internal/config"
	"surveysync/internal/logger"
	"surveysync/internal/models"
	"surveysync/pkg/ziputil"
)

// Export job errors.
var (
	ErrExportFailed   = errors.New("export job failed")
	ErrExportTimeout  = errors.New("export did not complete before the poll deadline")
	ErrNoFileID       = errors.New("no file id in completed export")
	ErrNoCSVInArchive = errors.New("no csv entry in export archive")
)

// Exporter drives one export job from start to extracted CSV bytes.
type Exporter struct {
	client       Client
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       *logger.Logger
}

// NewExporter creates an exporter backed by the platform API client.
func NewExporter(cfg *config.Config, log *logger.Logger) *Exporter {
	return &Exporter{
		client:       NewQualtricsClient(cfg, log),
		pollInterval: cfg.GetPollInterval(),
		pollTimeout:  cfg.GetPollTimeout(),
		logger:       log,
	}
}

// NewExporterWithClient creates an exporter with an injected API client.
func NewExporterWithClient(client Client, pollInterval, pollTimeout time.Duration, log *logger.Logger) *Exporter {
	return &Exporter{
		client:       client,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		logger:       log,
	}
}

// Fetch runs the full export sequence for one survey and returns the
// raw CSV bytes extracted from the downloaded archive.
func (e *Exporter) Fetch(surveyID string) ([]byte, error) {
	// 1. Start the export job
	progressID, err := e.client.StartExport(surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to start export: %w", err)
	}

	// 2. Poll until the job reaches a terminal state or the deadline
	fileID, err := e.awaitCompletion(surveyID, progressID)
	if err != nil {
		return nil, err
	}

	// 3. Download the compressed archive
	archive, err := e.client.DownloadFile(surveyID, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to download export: %w", err)
	}

	// 4. Extract the first CSV entry
	content, err := ziputil.ExtractFirstMatch(archive, isCSVName)
	if err != nil {
		if errors.Is(err, ziputil.ErrNoMatch) {
			return nil, fmt.Errorf("%w: survey %s", ErrNoCSVInArchive, surveyID)
		}

		return nil, fmt.Errorf("failed to extract archive: %w", err)
	}

	return content, nil
}

// awaitCompletion polls the job status until it completes, fails or the
// poll deadline expires. The deadline is checked after each poll, so
// even a very short deadline gets one status check.
func (e *Exporter) awaitCompletion(surveyID, progressID string) (string, error) {
	deadline := time.Now().Add(e.pollTimeout)

	for {
		progress, err := e.client.GetProgress(surveyID, progressID)
		if err != nil {
			return "", fmt.Errorf("failed to check progress: %w", err)
		}

		if e.logger != nil {
			e.logger.Debug(fmt.Sprintf("Export %s at %.0f%% (%s)", progressID, progress.PercentComplete, progress.Status))
		}

		if progress.IsTerminal() {
			if progress.Status == models.ExportStatusFailed {
				return "", fmt.Errorf("%w: survey %s", ErrExportFailed, surveyID)
			}

			if progress.FileID == "" {
				return "", fmt.Errorf("%w: survey %s", ErrNoFileID, surveyID)
			}

			return progress.FileID, nil
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w: survey %s after %v", ErrExportTimeout, surveyID, e.pollTimeout)
		}

		time.Sleep(e.pollInterval)
	}
}

// isCSVName matches archive entry names ending in .csv, compared
// case-insensitively.
func isCSVName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".csv")
}

// SaveLocal writes exported CSV bytes to a local file. When backup is
// requested an existing file is renamed aside first.
func SaveLocal(path string, data []byte, backup bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if backup {
		if _, err := os.Stat(path); err == nil {
			if err := os.Rename(path, path+".bak"); err != nil {
				return fmt.Errorf("failed to create backup: %w", err)
			}
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
