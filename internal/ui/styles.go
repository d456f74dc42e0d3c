package ui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor  = lipgloss.Color("#5FAFAF")
	subtleColor  = lipgloss.Color("#666666")
	successColor = lipgloss.Color("#87AF87")
	errorColor   = lipgloss.Color("#AF5F5F")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	backendStyle = lipgloss.NewStyle().
			Foreground(subtleColor).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(subtleColor).
			PaddingLeft(1).
			MarginLeft(1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	subtleStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	doneStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(10)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtleColor).
			Padding(0, 1)
)
