package tui

import (
	"github.com/charmbracelet/lipgloss"

	"bulletin/internal/pipeline"
)

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)
	// TitleStyle styles banners such as the renderer name.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	FaintStyle   = lipgloss.NewStyle().Faint(true)

	statusStyles = map[pipeline.Status]lipgloss.Style{
		pipeline.StatusDone:    SuccessStyle,
		pipeline.StatusRunning: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		pipeline.StatusWarning: WarningStyle,
		pipeline.StatusSkipped: WarningStyle,
		pipeline.StatusFailed:  ErrorStyle,
		pipeline.StatusPending: FaintStyle,
	}

	statusIcons = map[pipeline.Status]string{
		pipeline.StatusPending: "·",
		pipeline.StatusRunning: "→",
		pipeline.StatusDone:    "✓",
		pipeline.StatusWarning: "⚠",
		pipeline.StatusSkipped: "-",
		pipeline.StatusFailed:  "✗",
	}
)

// StatusStyle returns the lipgloss style for the given stage status.
func StatusStyle(status pipeline.Status) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// StatusIcon returns the single-glyph marker used in plain output.
func StatusIcon(status pipeline.Status) string {
	if icon, ok := statusIcons[status]; ok {
		return icon
	}
	return "?"
}
