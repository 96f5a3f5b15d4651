package tui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorPurple = lipgloss.Color("#7C3AED")
	ColorGreen  = lipgloss.Color("#10B981")
	ColorAmber  = lipgloss.Color("#F59E0B")
	ColorRed    = lipgloss.Color("#EF4444")
	ColorGray   = lipgloss.Color("#6B7280")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	AgentLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)

	CandidateLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorGreen)

	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorAmber)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPurple).
			Padding(1, 2)
)
