package models

// Export job status values, normalized from the vendor's wire statuses.
const (
	ExportStatusPending  = "pending"
	ExportStatusComplete = "complete"
	ExportStatusFailed   = "failed"
)

// ExportProgress is a snapshot of an asynchronous export job.
type ExportProgress struct {
	Status          string
	PercentComplete float64
	FileID          string
}

// IsTerminal reports whether the job has finished, successfully or not.
func (p ExportProgress) IsTerminal() bool {
	return p.Status == ExportStatusComplete || p.Status == ExportStatusFailed
}
