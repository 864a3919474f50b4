package normalizer

import (
	"errors"

	"surveysync/internal/models"
)

// ErrNoTables is returned when merge is called with nothing to merge.
var ErrNoTables = errors.New("no tables to merge")

// Merger combines normalized tables into a single table over the union
// of their headers.
type Merger struct{}

// NewMerger creates a new merger instance.
func NewMerger() *Merger {
	return &Merger{}
}

// Merge builds the superset header in first-appearance order and
// re-keys every record onto it, filling fields absent from a record's
// own table with the empty string. Table order and record order are
// preserved, so the result is deterministic for a given input order.
func (m *Merger) Merge(tables []models.Table) (models.Table, error) {
	if len(tables) == 0 {
		return models.Table{}, ErrNoTables
	}

	var header []string

	seen := make(map[string]struct{})

	for _, t := range tables {
		for _, label := range t.Header {
			if _, ok := seen[label]; ok {
				continue
			}

			seen[label] = struct{}{}
			header = append(header, label)
		}
	}

	var records []models.Record

	for _, t := range tables {
		own := make(map[string]struct{}, len(t.Header))
		for _, label := range t.Header {
			own[label] = struct{}{}
		}

		for _, rec := range t.Records {
			merged := make(models.Record, len(header))

			for _, label := range header {
				// A value only carries over when the label belonged to
				// the record's own table.
				if _, ok := own[label]; ok {
					merged[label] = rec[label]
				} else {
					merged[label] = ""
				}
			}

			records = append(records, merged)
		}
	}

	return models.Table{Header: header, Records: records}, nil
}
