package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"dataco-dashboard/internal/models"
	"dataco-dashboard/internal/present"
)

var (
	accent = lipgloss.Color("#8BC34A")
	muted  = lipgloss.Color("#6b7280")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(muted)
)

// renderSummary prints one view as a table, or its no-data message.
func renderSummary(s models.Summary) string {
	if s.NoData {
		var sb strings.Builder
		sb.WriteString(titleStyle.Render(s.Title))
		sb.WriteString("\n")
		sb.WriteString(mutedStyle.Render(s.Message))
		sb.WriteString("\n")
		return sb.String()
	}

	rows := make([][]string, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = present.Row(s.Columns, r)
	}
	return renderTable(s.Title, present.Headers(s.Columns), rows)
}

func renderTable(title string, headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	// Padding counts toward the style width.
	for i := range widths {
		widths[i] += 2
	}

	var sb strings.Builder
	if title != "" {
		sb.WriteString(titleStyle.Render(title))
		sb.WriteString("\n")
	}

	sep := mutedStyle.Render("|")
	for i, h := range headers {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(headerStyle.Width(widths[i]).Render(h))
	}
	sb.WriteString("\n")

	total := len(headers) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(mutedStyle.Render(strings.Repeat("-", max(total, 0))))
	sb.WriteString("\n")

	for _, row := range rows {
		for i := range headers {
			if i > 0 {
				sb.WriteString(sep)
			}
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			sb.WriteString(cellStyle.Width(widths[i]).Render(cell))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
