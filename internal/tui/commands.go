package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// tickCmd creates a command that sends a tick message every second
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
