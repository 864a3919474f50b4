// Package normalizer provides functionality for normalizing raw survey
// exports into standard tables.
package normalizer

import (
	"fmt"

	"surveysync/internal/models"
)

// Processor runs the full cleaning and normalization sequence for a
// single raw export.
type Processor struct {
	cleaner    *Cleaner
	normalizer *Normalizer
	validator  *Validator
}

// NewProcessor creates a processor without record-count bounds.
func NewProcessor() *Processor {
	return NewProcessorWithBounds(0, 0)
}

// NewProcessorWithBounds creates a processor that also enforces
// record-count bounds during validation.
func NewProcessorWithBounds(minRecords, maxRecords int) *Processor {
	return &Processor{
		cleaner:    NewCleaner(),
		normalizer: NewNormalizer(),
		validator:  NewValidator(minRecords, maxRecords),
	}
}

// Process cleans and normalizes a raw CSV payload. When the result is
// structurally deficient (no header, no records, bounds violated) the
// table is still returned alongside the structural error so callers can
// decide how to proceed.
func (p *Processor) Process(raw []byte) (models.Table, error) {
	// 1. Strip vendor noise from the raw export
	rows, err := p.cleaner.Clean(raw)
	if err != nil {
		return models.Table{}, fmt.Errorf("cleaning failed: %w", err)
	}

	// 2. Key the surviving rows by unique header labels
	table := p.normalizer.Normalize(rows)

	// 3. Check structural expectations
	if err := p.validator.Validate(table); err != nil {
		return table, err
	}

	return table, nil
}
