package formatter

import (
	"strconv"
	"strings"
	"time"

	"surveysync/internal/models"

	"github.com/mattn/go-runewidth"
)

// FormatSummary renders per-source results as an aligned text table for
// the end-of-run report. Column widths use display width so survey
// names with wide characters still line up.
func FormatSummary(results []models.SourceResult) string {
	rows := [][]string{{"SURVEY", "NAME", "STATUS", "ROWS", "COLUMNS", "DURATION"}}

	for _, r := range results {
		status := r.Status
		if r.Err != nil {
			status = status + ": " + r.Err.Error()
		}

		rows = append(rows, []string{
			r.SurveyID,
			r.Name,
			status,
			strconv.Itoa(r.Rows),
			strconv.Itoa(r.Columns),
			r.Duration.Round(time.Millisecond).String(),
		})
	}

	// 1. Calculate max widths (using display width)
	widths := make([]int, len(rows[0]))

	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	// 2. Reconstruct lines with a two-space gutter
	var sb strings.Builder

	for _, row := range rows {
		for i, cell := range row {
			sb.WriteString(cell)

			if i < len(row)-1 {
				padding := widths[i] - runewidth.StringWidth(cell)
				sb.WriteString(strings.Repeat(" ", padding+2))
			}
		}

		sb.WriteString("\n")
	}

	return sb.String()
}
