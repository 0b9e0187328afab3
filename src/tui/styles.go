// Package tui renders a live view of a merge run's progress event stream.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3498DB")).
			Bold(true)

	stageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("2"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1"))

	strategyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5DADE2"))
)
