package theme

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha.
var (
	Base     = lipgloss.Color("#1e1e2e")
	Mantle   = lipgloss.Color("#181825")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Peach    = lipgloss.Color("#fab387")
	Yellow   = lipgloss.Color("#f9e2af")
	Red      = lipgloss.Color("#f38ba8")
	Coral    = lipgloss.Color("#eba0ac")

	Sheet = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Peach).
		Background(Mantle).
		Foreground(Text).
		Padding(1, 2)

	Card = lipgloss.NewStyle().
		Background(Surface0).
		Foreground(Text).
		Padding(0, 1)

	Title   = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted   = lipgloss.NewStyle().Foreground(Subtext0)
	Hot     = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	Coin    = lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	Err     = lipgloss.NewStyle().Foreground(Red)
	Big     = lipgloss.NewStyle().Foreground(Text).Bold(true)
	Liked   = lipgloss.NewStyle().Foreground(Red)
	InZone  = lipgloss.NewStyle().Foreground(Mantle).Background(Green).Bold(true).Padding(0, 1)
	OutZone = lipgloss.NewStyle().Foreground(Mantle).Background(Peach).Bold(true).Padding(0, 1)
)
