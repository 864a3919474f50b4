package normalizer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"
)

// utf8BOM is the byte order mark some exports prepend to the CSV body.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// footerMarker identifies the serialized-object footer line the export
// vendor appends after the response rows.
const footerMarker = "ImportId"

// auxiliaryRowCount is the number of metadata rows the vendor inserts
// directly after the header: one with the full question text, one with
// internal question identifiers. The skip is positional; if the vendor
// ever changes the export format this constant must follow.
const auxiliaryRowCount = 2

// Cleaner strips vendor noise from a raw CSV export, leaving the header
// row and the response rows.
type Cleaner struct{}

// NewCleaner creates a new cleaner instance.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean parses raw CSV bytes and removes the vendor's auxiliary rows,
// blank rows and footer metadata. Surviving rows keep their original
// order with the header first. Input without a single non-empty row
// yields an empty result and no error.
func (c *Cleaner) Clean(raw []byte) ([][]string, error) {
	rows, err := parseCSV(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse export: %w", err)
	}

	headerIdx := findHeaderRow(rows)
	if headerIdx < 0 {
		return nil, nil
	}

	cleaned := make([][]string, 0, len(rows)-headerIdx)

	for i := headerIdx; i < len(rows); i++ {
		// Positional skip of the auxiliary rows after the header.
		if i > headerIdx && i <= headerIdx+auxiliaryRowCount {
			continue
		}

		row := rows[i]

		joined := strings.TrimSpace(strings.Join(row, ""))
		if joined == "" {
			continue
		}

		if strings.HasPrefix(joined, "{") && strings.Contains(joined, footerMarker) {
			continue
		}

		cleaned = append(cleaned, row)
	}

	return cleaned, nil
}

// parseCSV reads delimited text into rows. Field counts may vary and
// quoting is lax, matching what survey exports actually emit.
func parseCSV(raw []byte) ([][]string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(sanitizeUTF8(raw)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	return reader.ReadAll()
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with the replacement
// rune so the csv reader never sees broken encoding.
func sanitizeUTF8(raw []byte) []byte {
	if utf8.Valid(raw) {
		return raw
	}

	return bytes.ToValidUTF8(raw, []byte(string(utf8.RuneError)))
}

// findHeaderRow returns the index of the first row containing at least
// one non-empty trimmed cell, or -1 when no such row exists.
func findHeaderRow(rows [][]string) int {
	for i, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return i
			}
		}
	}

	return -1
}
