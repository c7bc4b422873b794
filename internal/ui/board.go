package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/andreisalomia/mini-jira/internal/query"
)

// minColumnWidth keeps narrow terminals readable; the board wraps past it.
const minColumnWidth = 24

// RenderBoard lays the columns out side by side, each sized to a third of
// width.
func RenderBoard(columns []query.Column, width int) string {
	if len(columns) == 0 {
		return ""
	}
	// Border plus padding take four cells per column.
	colWidth := width/len(columns) - 4
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}

	rendered := make([]string, 0, len(columns))
	for _, col := range columns {
		var b strings.Builder
		b.WriteString(RenderCategory(string(col.Status)))
		b.WriteString(RenderMuted(" (" + strconv.Itoa(len(col.Issues)) + ")"))
		for _, issue := range col.Issues {
			b.WriteString("\n")
			b.WriteString(RenderID(issue.ID))
			b.WriteString(" ")
			b.WriteString(RenderPriority(issue.Priority))
			b.WriteString("\n  ")
			b.WriteString(TruncateSimple(issue.Title, colWidth-2))
		}
		rendered = append(rendered, ColumnStyle.Width(colWidth).Render(b.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
