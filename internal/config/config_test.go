package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "worker.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

// validConfigYAML is a minimal valid configuration.
const validConfigYAML = `
exporter:
  sources:
    - survey_id: "SV_abc123"
      name: "Customer Satisfaction"
      enabled: true
  api:
    datacenter: "fra1"
    api_token: "secret"
    timeout_sec: 30
  poll:
    interval_ms: 2000
    timeout_sec: 300
  storage:
    bucket: "survey-exports"
    object_name: "responses.csv"
  output:
    base_path: "./output"
  validation:
    min_records: 0
    max_records: 0
  logging:
    level: "info"
features:
  use_labels: true
advanced:
  download_limit_kb: 65536
`

// baseConfig returns a fully valid in-memory config for mutation tests.
func baseConfig() *Config {
	return &Config{
		Exporter: ExporterConfig{
			Sources: []SourceConfig{
				{SurveyID: "SV_abc123", Name: "Customer Satisfaction", Enabled: true},
			},
			API:        APIConfig{Datacenter: "fra1", Token: "secret", TimeoutSec: 30},
			Poll:       PollConfig{IntervalMs: 2000, TimeoutSec: 300},
			Storage:    StorageConfig{Bucket: "survey-exports", ObjectName: "responses.csv"},
			Validation: ValidationConfig{MinRecords: 0, MaxRecords: 0},
			Logging:    LoggingConfig{Level: "info"},
		},
		Advanced: AdvancedConfig{DownloadLimitKb: 65536},
	}
}

func TestLoadConfig_Valid(t *testing.T) {
	configPath := createTempConfigFile(t, validConfigYAML)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg == nil {
		t.Fatal("Expected config, got nil")
	}

	if len(cfg.Exporter.Sources) != 1 {
		t.Errorf("Expected 1 source, got %d", len(cfg.Exporter.Sources))
	}

	if cfg.Exporter.Sources[0].SurveyID != "SV_abc123" {
		t.Errorf("Expected SurveyID 'SV_abc123', got '%s'", cfg.Exporter.Sources[0].SurveyID)
	}

	if !cfg.Features.LabelsEnabled() {
		t.Error("Expected use_labels true")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/worker.yaml")
	if err == nil {
		t.Fatal("Expected error for nonexistent file, got nil")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := createTempConfigFile(t, "invalid: yaml: content: [}")

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestConfig_Validate_NoSources(t *testing.T) {
	cfg := baseConfig()
	cfg.Exporter.Sources = nil

	if err := cfg.Validate(); !errors.Is(err, ErrNoSources) {
		t.Fatalf("Expected ErrNoSources, got %v", err)
	}
}

func TestConfig_Validate_NoEnabledSources(t *testing.T) {
	cfg := baseConfig()
	cfg.Exporter.Sources = []SourceConfig{
		{SurveyID: "SV_abc123", Enabled: false},
	}

	if err := cfg.Validate(); !errors.Is(err, ErrNoEnabledSources) {
		t.Fatalf("Expected ErrNoEnabledSources, got %v", err)
	}
}

func TestConfig_Validate_MissingSurveyID(t *testing.T) {
	cfg := baseConfig()
	cfg.Exporter.Sources = []SourceConfig{
		{SurveyID: "SV_abc123", Enabled: true},
		{Name: "No ID", Enabled: true},
	}

	if err := cfg.Validate(); !errors.Is(err, ErrMissingSurveyID) {
		t.Fatalf("Expected ErrMissingSurveyID, got %v", err)
	}
}

func TestConfig_Validate_MissingEndpoint(t *testing.T) {
	cfg := baseConfig()
	cfg.Exporter.API.Datacenter = ""
	cfg.Exporter.API.BaseURL = ""

	if err := cfg.Validate(); !errors.Is(err, ErrMissingEndpoint) {
		t.Fatalf("Expected ErrMissingEndpoint, got %v", err)
	}
}

func TestConfig_Validate_MissingToken_Allowed(t *testing.T) {
	// The token may be injected from a flag or environment variable
	// after loading, so Validate must not require it.
	cfg := baseConfig()
	cfg.Exporter.API.Token = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected missing token to validate, got %v", err)
	}
}

func TestConfig_Validate_InvalidPoll(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"zero interval", func(c *Config) { c.Exporter.Poll.IntervalMs = 0 }, ErrInvalidPollInterval},
		{"zero timeout", func(c *Config) { c.Exporter.Poll.TimeoutSec = 0 }, ErrInvalidPollTimeout},
		{"timeout below interval", func(c *Config) {
			c.Exporter.Poll.IntervalMs = 5000
			c.Exporter.Poll.TimeoutSec = 2
		}, ErrPollTimeoutTooShort},
		{"zero api timeout", func(c *Config) { c.Exporter.API.TimeoutSec = 0 }, ErrInvalidAPITimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)

			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_Storage(t *testing.T) {
	cfg := baseConfig()
	cfg.Exporter.Storage.Bucket = ""

	if err := cfg.Validate(); !errors.Is(err, ErrMissingBucket) {
		t.Fatalf("Expected ErrMissingBucket, got %v", err)
	}

	cfg = baseConfig()
	cfg.Exporter.Storage.ObjectName = ""

	if err := cfg.Validate(); !errors.Is(err, ErrMissingObjectName) {
		t.Fatalf("Expected ErrMissingObjectName, got %v", err)
	}
}

func TestConfig_Validate_RecordBounds(t *testing.T) {
	cfg := baseConfig()
	cfg.Exporter.Validation.MinRecords = 100
	cfg.Exporter.Validation.MaxRecords = 10

	if err := cfg.Validate(); !errors.Is(err, ErrInvalidRecordBounds) {
		t.Fatalf("Expected ErrInvalidRecordBounds, got %v", err)
	}

	cfg = baseConfig()
	cfg.Exporter.Validation.MinRecords = -1

	if err := cfg.Validate(); !errors.Is(err, ErrNegativeRecordBounds) {
		t.Fatalf("Expected ErrNegativeRecordBounds, got %v", err)
	}
}

func TestConfig_Validate_InvalidLoggingLevel(t *testing.T) {
	cfg := baseConfig()
	cfg.Exporter.Logging.Level = "verbose"

	if err := cfg.Validate(); !errors.Is(err, ErrInvalidLogLevel) {
		t.Fatalf("Expected ErrInvalidLogLevel, got %v", err)
	}
}

func TestConfig_Validate_InvalidDownloadLimit(t *testing.T) {
	cfg := baseConfig()
	cfg.Advanced.DownloadLimitKb = 0

	if err := cfg.Validate(); !errors.Is(err, ErrInvalidDownloadLimit) {
		t.Fatalf("Expected ErrInvalidDownloadLimit, got %v", err)
	}
}

// --- Helper Method Tests ---

func TestConfig_GetEnabledSources(t *testing.T) {
	cfg := baseConfig()
	cfg.Exporter.Sources = []SourceConfig{
		{SurveyID: "SV_1", Enabled: true},
		{SurveyID: "SV_2", Enabled: false},
		{SurveyID: "SV_3", Enabled: true},
	}

	enabled := cfg.GetEnabledSources()
	if len(enabled) != 2 {
		t.Fatalf("Expected 2 enabled sources, got %d", len(enabled))
	}

	if enabled[0].SurveyID != "SV_1" || enabled[1].SurveyID != "SV_3" {
		t.Errorf("Enabled sources out of order: %v", enabled)
	}
}

func TestConfig_BaseURL(t *testing.T) {
	tests := []struct {
		name     string
		api      APIConfig
		expected string
	}{
		{"datacenter only", APIConfig{Datacenter: "fra1"}, "https://fra1.qualtrics.com"},
		{"explicit base url", APIConfig{BaseURL: "https://api.example.com"}, "https://api.example.com"},
		{"base url trailing slash", APIConfig{BaseURL: "https://api.example.com/"}, "https://api.example.com"},
		{"base url wins over datacenter", APIConfig{Datacenter: "fra1", BaseURL: "https://other.example.com"}, "https://other.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.Exporter.API = tt.api

			if got := cfg.BaseURL(); got != tt.expected {
				t.Errorf("BaseURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := baseConfig()

	if got := cfg.GetPollInterval(); got != 2*time.Second {
		t.Errorf("GetPollInterval() = %v, want 2s", got)
	}

	if got := cfg.GetPollTimeout(); got != 5*time.Minute {
		t.Errorf("GetPollTimeout() = %v, want 5m", got)
	}

	if got := cfg.GetAPITimeout(); got != 30*time.Second {
		t.Errorf("GetAPITimeout() = %v, want 30s", got)
	}
}

func TestConfig_GetOutputPath(t *testing.T) {
	cfg := baseConfig()
	cfg.Exporter.Output.BasePath = "./data"

	path := cfg.GetOutputPath("SV_abc123")
	expected := filepath.Join("./data", "SV_abc123.csv")

	if path != expected {
		t.Errorf("GetOutputPath() = %v, want %v", path, expected)
	}
}

func TestConfig_GetOutputPath_DefaultBase(t *testing.T) {
	cfg := baseConfig()
	cfg.Exporter.Output.BasePath = ""

	path := cfg.GetOutputPath("SV_abc123")
	if path != "SV_abc123.csv" {
		t.Errorf("GetOutputPath() = %v, want SV_abc123.csv", path)
	}
}

func TestConfig_DownloadLimitBytes(t *testing.T) {
	cfg := baseConfig()
	cfg.Advanced.DownloadLimitKb = 64

	if got := cfg.DownloadLimitBytes(); got != 64*1024 {
		t.Errorf("DownloadLimitBytes() = %d, want %d", got, 64*1024)
	}
}

func TestFeaturesConfig_LabelsEnabled(t *testing.T) {
	var f FeaturesConfig
	if !f.LabelsEnabled() {
		t.Error("Expected labels enabled by default")
	}

	off := false
	f.UseLabels = &off

	if f.LabelsEnabled() {
		t.Error("Expected labels disabled when set to false")
	}
}

func TestConfig_String(t *testing.T) {
	cfg := baseConfig()

	str := cfg.String()
	if str == "" {
		t.Error("Expected non-empty string representation")
	}
}

func TestConfig_SaveConfig(t *testing.T) {
	cfg := baseConfig()

	tmpDir := t.TempDir()
	savePath := filepath.Join(tmpDir, "saved_worker.yaml")

	err := cfg.SaveConfig(savePath)
	if err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	if _, statErr := os.Stat(savePath); os.IsNotExist(statErr) {
		t.Fatal("Expected saved config file to exist")
	}

	loaded, err := LoadConfig(savePath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.Exporter.Sources[0].SurveyID != "SV_abc123" {
		t.Error("Loaded config does not match saved config")
	}
}
