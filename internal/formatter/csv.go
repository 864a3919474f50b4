// Package formatter renders normalized tables into their output formats.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"surveysync/internal/models"
)

// WriteCSV serializes a table as CSV: one header row, then one row per
// record with cells in header order. Quoting follows the standard csv
// rules, lines end with a plain \n and the output carries no byte
// order mark. An empty table serializes to no bytes.
func WriteCSV(table models.Table) ([]byte, error) {
	if table.IsEmpty() {
		return nil, nil
	}

	var buf bytes.Buffer

	w := csv.NewWriter(&buf)

	if err := w.Write(table.Header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(table.Header))

	for _, rec := range table.Records {
		for i, label := range table.Header {
			row[i] = rec[label]
		}

		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write record: %w", err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush output: %w", err)
	}

	return buf.Bytes(), nil
}
