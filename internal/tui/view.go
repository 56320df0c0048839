package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rusenback/logship/internal/model"
)

// View renders the TUI interface
func (m Model) View() string {
	if m.width == 0 {
		return "Starting..."
	}

	topHeight := 9
	bottomHeight := max(m.height-topHeight-2, 6)
	leftWidth := int(float64(m.width) * 0.6)
	rightWidth := m.width - leftWidth

	topRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderRunPanel(leftWidth, topHeight),
		m.renderCountersPanel(rightWidth, topHeight))

	shippedHeight := int(float64(bottomHeight) * 0.65)
	body := lipgloss.JoinVertical(lipgloss.Left,
		topRow,
		m.renderShippedPanel(m.width, shippedHeight),
		m.renderLogPanel(m.width, bottomHeight-shippedHeight),
		m.renderHelp())
	return body
}

func (m Model) renderRunPanel(width, height int) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("🐳 Container") + "\n")

	id := m.containerID
	if id == "" {
		id = "-"
	}
	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("image:  "), truncate(m.image, width-14))
	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("command:"), truncate(m.command, width-14))
	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("id:     "), id)
	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("state:  "), renderState(m.state))
	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("sink:   "), truncate(m.target.String(), width-14))
	fmt.Fprintf(&s, "%s %s", labelStyle.Render("elapsed:"), m.now.Sub(m.started).Truncate(time.Second))

	return panelStyle.Width(width - 4).Height(height - 2).Render(s.String())
}

func (m Model) renderCountersPanel(width, height int) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("📦 Shipping") + "\n")
	fmt.Fprintf(&s, "%s %d\n", labelStyle.Render("batches:  "), m.batches)
	fmt.Fprintf(&s, "%s %d\n", labelStyle.Render("records:  "), m.records)
	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("delivered:"), runningStyle.Render(fmt.Sprint(m.delivered)))
	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("rejected: "), countStyle(m.rejected).Render(fmt.Sprint(m.rejected)))
	fmt.Fprintf(&s, "%s %s", labelStyle.Render("failed:   "), countStyle(m.deliveryErrors).Render(fmt.Sprint(m.deliveryErrors)))

	return panelStyle.Width(width - 4).Height(height - 2).Render(s.String())
}

func (m Model) renderShippedPanel(width, height int) string {
	var s strings.Builder
	scroll := ""
	if !m.logsAutoScroll {
		scroll = " (scroll paused)"
	}
	s.WriteString(titleStyle.Render("📜 Shipped output"+scroll) + "\n")

	visible := max(height-3, 1)
	start := min(m.logsScroll, max(len(m.shipped)-visible, 0))
	if m.logsAutoScroll {
		start = max(len(m.shipped)-visible, 0)
	}
	end := min(start+visible, len(m.shipped))
	for _, r := range m.shipped[start:end] {
		s.WriteString(styleLogRecord(r, width-6) + "\n")
	}

	return panelStyle.Width(width - 4).Height(height - 2).Render(s.String())
}

func (m Model) renderLogPanel(width, height int) string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(" logship ") + "\n")

	visible := max(height-3, 1)
	start := max(len(m.logs)-visible, 0)
	for _, line := range m.logs[start:] {
		s.WriteString(styleMessage(truncate(line, width-6), logLevelStyle(line)) + "\n")
	}

	return panelStyle.Width(width - 4).Height(height - 2).Render(s.String())
}

func (m Model) renderHelp() string {
	help := "q/ctrl+c: stop container • pgup/pgdown/home/end: scroll • a: auto-scroll"
	if m.done {
		help = "q: quit"
	}
	if m.message != "" {
		help = m.message + "  •  " + help
	}
	return helpStyle.Render(help)
}

func renderState(s model.ContainerState) string {
	switch {
	case s == "":
		return pendingStyle.Render("starting")
	case s == model.StateRunning:
		return runningStyle.Render(s.String())
	case s.KeepPolling():
		return pendingStyle.Render(s.String())
	default:
		return stoppedStyle.Render(s.String())
	}
}

func countStyle(n int) lipgloss.Style {
	if n > 0 {
		return stoppedStyle
	}
	return labelStyle
}
