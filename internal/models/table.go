// Package models defines the data structures shared across the surveysync pipeline.
package models

// Record maps header labels to cell values for a single data row.
type Record map[string]string

// Table is the normalized unit of survey data: an ordered header plus
// the records keyed by its labels. Header labels are unique and
// non-empty once a table has passed through the normalizer.
type Table struct {
	Header  []string
	Records []Record
}

// IsEmpty reports whether the table has no header, meaning the source
// produced nothing processable.
func (t Table) IsEmpty() bool {
	return len(t.Header) == 0
}
