package preview

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	bulletStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).PaddingRight(1)
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	trackStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)
