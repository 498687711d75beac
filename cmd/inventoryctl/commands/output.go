package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	headerStyle  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	lowCellStyle = cellStyle.Foreground(colorWarning)
)

func success(format string, args ...interface{}) {
	fmt.Print(successStyle.Render("✓ "))
	fmt.Printf(format+"\n", args...)
}

func warning(format string, args ...interface{}) {
	fmt.Print(warningStyle.Render("⚠ "))
	fmt.Printf(format+"\n", args...)
}

func muted(format string, args ...interface{}) {
	fmt.Println(mutedStyle.Render(fmt.Sprintf(format, args...)))
}
