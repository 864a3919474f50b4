package normalizer

import (
	"fmt"
	"strings"

	"surveysync/internal/models"
)

// Normalizer converts cleaned rows into a Table with unique, non-empty
// header labels and label-keyed records.
type Normalizer struct{}

// NewNormalizer creates a new normalizer instance.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize treats the first row as the header and every following row
// as one record. Blank header cells become col_<n> placeholders and
// duplicate labels get a numeric suffix. Record cells beyond the header
// length are ignored; missing trailing cells become empty strings.
func (n *Normalizer) Normalize(rows [][]string) models.Table {
	if len(rows) == 0 {
		return models.Table{}
	}

	header := normalizeHeader(rows[0])

	records := make([]models.Record, 0, len(rows)-1)

	for _, row := range rows[1:] {
		record := make(models.Record, len(header))

		for i, label := range header {
			if i < len(row) {
				record[label] = row[i]
			} else {
				record[label] = ""
			}
		}

		records = append(records, record)
	}

	return models.Table{Header: header, Records: records}
}

// normalizeHeader produces unique, non-empty labels for the header row.
// Labels are trimmed; blanks become col_<1-based-index>; a label equal
// to an already-assigned one gets the first free _2, _3, ... suffix,
// compared case-sensitively.
func normalizeHeader(raw []string) []string {
	labels := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for i, cell := range raw {
		label := strings.TrimSpace(cell)
		if label == "" {
			label = fmt.Sprintf("col_%d", i+1)
		}

		if _, taken := seen[label]; taken {
			for suffix := 2; ; suffix++ {
				candidate := fmt.Sprintf("%s_%d", label, suffix)
				if _, taken := seen[candidate]; !taken {
					label = candidate

					break
				}
			}
		}

		seen[label] = struct{}{}
		labels = append(labels, label)
	}

	return labels
}
