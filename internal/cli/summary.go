package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorDim     = lipgloss.Color("#7A8291")
	colorSuccess = lipgloss.Color("#A3BE8C")
	colorError   = lipgloss.Color("#BF616A")

	labelStyle   = lipgloss.NewStyle().Foreground(colorDim)
	valueStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
)

type summaryRow struct {
	Label string
	Value string
}

func renderSummary(rows []summaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, len(row.Label))
		valueWidth = max(valueWidth, len(row.Value))
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}
	for _, row := range rows {
		label := fmt.Sprintf("%-*s", labelWidth, row.Label)
		lines = append(lines, labelStyle.Render(label)+" | "+valueStyle.Render(row.Value))
	}
	lines = append(lines, hline)

	return strings.Join(lines, "\n")
}
