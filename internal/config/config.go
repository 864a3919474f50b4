// Package config handles loading and validation of the surveysync YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoSources            = errors.New("no sources defined in configuration")
	ErrNoEnabledSources     = errors.New("no enabled sources in configuration")
	ErrMissingSurveyID      = errors.New("source missing survey_id")
	ErrMissingEndpoint      = errors.New("api section requires a datacenter or base_url")
	ErrInvalidAPITimeout    = errors.New("api timeout_sec must be positive")
	ErrInvalidPollInterval  = errors.New("poll interval_ms must be positive")
	ErrInvalidPollTimeout   = errors.New("poll timeout_sec must be positive")
	ErrPollTimeoutTooShort  = errors.New("poll timeout must not be shorter than the poll interval")
	ErrMissingBucket        = errors.New("storage bucket is required")
	ErrMissingObjectName    = errors.New("storage object_name is required")
	ErrInvalidLogLevel      = errors.New("invalid logging level")
	ErrInvalidRecordBounds  = errors.New("validation min_records exceeds max_records")
	ErrNegativeRecordBounds = errors.New("validation record bounds must not be negative")
	ErrInvalidDownloadLimit = errors.New("advanced download_limit_kb must be positive")
)

// Config is the root configuration structure.
type Config struct {
	Exporter ExporterConfig `yaml:"exporter"`
	Features FeaturesConfig `yaml:"features"`
	Advanced AdvancedConfig `yaml:"advanced"`
}

// ExporterConfig groups everything the export pipeline needs.
type ExporterConfig struct {
	Sources    []SourceConfig   `yaml:"sources"`
	API        APIConfig        `yaml:"api"`
	Poll       PollConfig       `yaml:"poll"`
	Storage    StorageConfig    `yaml:"storage"`
	Output     OutputConfig     `yaml:"output"`
	Validation ValidationConfig `yaml:"validation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SourceConfig identifies one survey to export.
type SourceConfig struct {
	SurveyID string `yaml:"survey_id"`
	Name     string `yaml:"name"`
	Enabled  bool   `yaml:"enabled"`
}

// APIConfig holds the survey platform endpoint and credentials.
type APIConfig struct {
	Datacenter string `yaml:"datacenter"`
	BaseURL    string `yaml:"base_url"`
	Token      string `yaml:"api_token"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// PollConfig bounds the export job status loop.
type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
	TimeoutSec int `yaml:"timeout_sec"`
}

// StorageConfig identifies the upload destination.
type StorageConfig struct {
	Bucket          string `yaml:"bucket"`
	ObjectName      string `yaml:"object_name"`
	CredentialsFile string `yaml:"credentials_file"`
}

// OutputConfig controls local CSV output for the exporter binary.
type OutputConfig struct {
	BasePath     string `yaml:"base_path"`
	CreateBackup bool   `yaml:"create_backup"`
}

// ValidationConfig bounds the record count of a usable table. Zero
// means unbounded.
type ValidationConfig struct {
	MinRecords int `yaml:"min_records"`
	MaxRecords int `yaml:"max_records"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// FeaturesConfig contains feature toggles.
type FeaturesConfig struct {
	UseLabels *bool `yaml:"use_labels"`
}

// AdvancedConfig contains advanced tuning options.
type AdvancedConfig struct {
	DownloadLimitKb int `yaml:"download_limit_kb"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes the configuration back to a YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for structural problems. The API
// token is deliberately not required here: binaries may inject it from
// a flag or environment variable after loading.
func (c *Config) Validate() error {
	if len(c.Exporter.Sources) == 0 {
		return ErrNoSources
	}

	if len(c.GetEnabledSources()) == 0 {
		return ErrNoEnabledSources
	}

	for i, src := range c.Exporter.Sources {
		if src.SurveyID == "" {
			return fmt.Errorf("%w: source %d", ErrMissingSurveyID, i)
		}
	}

	if c.Exporter.API.Datacenter == "" && c.Exporter.API.BaseURL == "" {
		return ErrMissingEndpoint
	}

	if c.Exporter.API.TimeoutSec <= 0 {
		return ErrInvalidAPITimeout
	}

	if c.Exporter.Poll.IntervalMs <= 0 {
		return ErrInvalidPollInterval
	}

	if c.Exporter.Poll.TimeoutSec <= 0 {
		return ErrInvalidPollTimeout
	}

	if c.GetPollTimeout() < c.GetPollInterval() {
		return ErrPollTimeoutTooShort
	}

	if c.Exporter.Storage.Bucket == "" {
		return ErrMissingBucket
	}

	if c.Exporter.Storage.ObjectName == "" {
		return ErrMissingObjectName
	}

	if c.Exporter.Validation.MinRecords < 0 || c.Exporter.Validation.MaxRecords < 0 {
		return ErrNegativeRecordBounds
	}

	if c.Exporter.Validation.MaxRecords > 0 && c.Exporter.Validation.MinRecords > c.Exporter.Validation.MaxRecords {
		return ErrInvalidRecordBounds
	}

	switch c.Exporter.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Exporter.Logging.Level)
	}

	if c.Advanced.DownloadLimitKb <= 0 {
		return ErrInvalidDownloadLimit
	}

	return nil
}

// GetEnabledSources returns only the sources marked enabled.
func (c *Config) GetEnabledSources() []SourceConfig {
	var enabled []SourceConfig

	for _, src := range c.Exporter.Sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}

	return enabled
}

// BaseURL returns the survey platform base URL, either the explicit
// override or one derived from the datacenter.
func (c *Config) BaseURL() string {
	if c.Exporter.API.BaseURL != "" {
		return strings.TrimRight(c.Exporter.API.BaseURL, "/")
	}

	return fmt.Sprintf("https://%s.qualtrics.com", c.Exporter.API.Datacenter)
}

// GetAPITimeout returns the per-request HTTP timeout.
func (c *Config) GetAPITimeout() time.Duration {
	return time.Duration(c.Exporter.API.TimeoutSec) * time.Second
}

// GetPollInterval returns the delay between export status polls.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Exporter.Poll.IntervalMs) * time.Millisecond
}

// GetPollTimeout returns the overall deadline for one export job.
func (c *Config) GetPollTimeout() time.Duration {
	return time.Duration(c.Exporter.Poll.TimeoutSec) * time.Second
}

// GetOutputPath returns the local CSV path for a survey, used by the
// exporter binary.
func (c *Config) GetOutputPath(surveyID string) string {
	base := c.Exporter.Output.BasePath
	if base == "" {
		base = "."
	}

	return filepath.Join(base, surveyID+".csv")
}

// DownloadLimitBytes returns the archive download size cap in bytes.
func (c *Config) DownloadLimitBytes() int64 {
	return int64(c.Advanced.DownloadLimitKb) * 1024
}

// LabelsEnabled reports whether exports should request label text
// instead of numeric recode values. Defaults to true when unset.
func (f FeaturesConfig) LabelsEnabled() bool {
	if f.UseLabels == nil {
		return true
	}

	return *f.UseLabels
}

// String returns a short human-readable summary of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{sources: %d (%d enabled), base_url: %s, bucket: %s, object: %s, poll: %v/%v}",
		len(c.Exporter.Sources),
		len(c.GetEnabledSources()),
		c.BaseURL(),
		c.Exporter.Storage.Bucket,
		c.Exporter.Storage.ObjectName,
		c.GetPollInterval(),
		c.GetPollTimeout(),
	)
}
