package cli

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	bulletStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).PaddingRight(1)
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
