package models

import "time"

// Per-source processing outcomes.
const (
	SourceStatusOK     = "ok"
	SourceStatusEmpty  = "empty"
	SourceStatusFailed = "failed"
)

// SourceResult records the outcome of processing one survey source.
type SourceResult struct {
	SurveyID string
	Name     string
	Status   string
	Rows     int
	Columns  int
	Err      error
	Duration time.Duration
}

// UploadResult describes what the storage upload actually did.
type UploadResult struct {
	Bucket     string
	ObjectName string
	Created    bool
	Replaced   bool
	Fallback   bool
	Bytes      int
}

// RunResult aggregates a full pipeline run.
type RunResult struct {
	Sources  []SourceResult
	Upload   *UploadResult
	Merged   bool
	Duration time.Duration
}
