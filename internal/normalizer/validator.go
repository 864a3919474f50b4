package normalizer

import (
	"errors"
	"fmt"

	"surveysync/internal/models"
)

// Structural validation errors. The pipeline treats these as skip
// conditions, never as fatal failures.
var (
	ErrNoHeader       = errors.New("no header row detected")
	ErrNoRecords      = errors.New("no records after cleaning")
	ErrTooFewRecords  = errors.New("fewer records than configured minimum")
	ErrTooManyRecords = errors.New("more records than configured maximum")
)

// Validator checks normalized tables against structural expectations.
type Validator struct {
	minRecords int
	maxRecords int
}

// NewValidator creates a validator with the given record-count bounds.
// A zero bound is unbounded.
func NewValidator(minRecords, maxRecords int) *Validator {
	return &Validator{minRecords: minRecords, maxRecords: maxRecords}
}

// Validate reports the structural condition of a table.
func (v *Validator) Validate(t models.Table) error {
	if t.IsEmpty() {
		return ErrNoHeader
	}

	if len(t.Records) == 0 {
		return ErrNoRecords
	}

	if v.minRecords > 0 && len(t.Records) < v.minRecords {
		return fmt.Errorf("%w: %d < %d", ErrTooFewRecords, len(t.Records), v.minRecords)
	}

	if v.maxRecords > 0 && len(t.Records) > v.maxRecords {
		return fmt.Errorf("%w: %d > %d", ErrTooManyRecords, len(t.Records), v.maxRecords)
	}

	return nil
}

// IsStructural reports whether an error is one of the structural
// conditions that should skip a source rather than fail the run.
func IsStructural(err error) bool {
	return errors.Is(err, ErrNoHeader) ||
		errors.Is(err, ErrNoRecords) ||
		errors.Is(err, ErrTooFewRecords) ||
		errors.Is(err, ErrTooManyRecords)
}
