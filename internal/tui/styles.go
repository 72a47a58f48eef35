package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	accent  = lipgloss.Color("#8BC34A")
	muted   = lipgloss.Color("#6B7280")
	danger  = lipgloss.Color("#E53935")
	border  = lipgloss.Color("#2A3850")
	focused = lipgloss.Color("#2196F3")
)

// Styles groups every style the browser renders with.
type Styles struct {
	Title       lipgloss.Style
	Pane        lipgloss.Style
	FocusedPane lipgloss.Style
	Info        lipgloss.Style
	Label       lipgloss.Style
	Muted       lipgloss.Style
	Error       lipgloss.Style
	Status      lipgloss.Style
	Placeholder lipgloss.Style
	Grid        table.Styles
}

func DefaultStyles() Styles {
	grid := table.DefaultStyles()
	grid.Header = grid.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(border).
		BorderBottom(true).
		Bold(true)
	grid.Selected = grid.Selected.
		Foreground(lipgloss.Color("#101F38")).
		Background(accent).
		Bold(false)

	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)

	return Styles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(accent),
		Pane:        pane,
		FocusedPane: pane.BorderForeground(focused),
		Info:        lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB")),
		Label:       lipgloss.NewStyle().Foreground(muted).Width(15),
		Muted:       lipgloss.NewStyle().Foreground(muted),
		Error:       lipgloss.NewStyle().Foreground(danger).Bold(true),
		Status:      lipgloss.NewStyle().Foreground(muted).Italic(true),
		Placeholder: lipgloss.NewStyle().Foreground(muted).Padding(1, 2),
		Grid:        grid,
	}
}
