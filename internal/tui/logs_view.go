package tui

import (
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rusenback/logship/internal/model"
)

var (
	// Log level patterns, including zerolog's console abbreviations
	errorPattern   = regexp.MustCompile(`(?i)\b(error|err|fatal|ftl|fail|failed|exception|panic)\b`)
	warningPattern = regexp.MustCompile(`(?i)\b(warn|warning|wrn|caution)\b`)
	infoPattern    = regexp.MustCompile(`(?i)\b(info|information|inf)\b`)
	debugPattern   = regexp.MustCompile(`(?i)\b(debug|dbg|trace)\b`)

	// Pattern highlighting
	ipPattern  = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	urlPattern = regexp.MustCompile(`https?://[^\s]+`)

	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")) // Dim gray

	errorLogStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")) // Red
	warningLogStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAB387")) // Orange
	infoLogStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA")) // Blue
	debugLogStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")) // Dim
	defaultLogStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4")) // Normal

	ipStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")) // Yellow
	urlStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#89DCEB")) // Cyan
)

// styleLogRecord renders one shipped record with its poll timestamp
func styleLogRecord(r model.LogRecord, maxWidth int) string {
	timestamp := timestampStyle.Render(r.Timestamp.Format("15:04:05"))
	room := maxWidth - lipgloss.Width(timestamp) - 1
	return timestamp + " " + styleMessage(truncate(r.Message, room), logLevelStyle(r.Message))
}

// logLevelStyle picks a color from the level words found in message
func logLevelStyle(message string) lipgloss.Style {
	switch {
	case errorPattern.MatchString(message):
		return errorLogStyle
	case warningPattern.MatchString(message):
		return warningLogStyle
	case infoPattern.MatchString(message):
		return infoLogStyle
	case debugPattern.MatchString(message):
		return debugLogStyle
	default:
		return defaultLogStyle
	}
}

// styleMessage applies base style and highlights patterns
func styleMessage(message string, baseStyle lipgloss.Style) string {
	var b strings.Builder
	last := 0
	for _, loc := range highlights(message) {
		b.WriteString(baseStyle.Render(message[last:loc.start]))
		b.WriteString(loc.style.Render(message[loc.start:loc.end]))
		last = loc.end
	}
	b.WriteString(baseStyle.Render(message[last:]))
	return b.String()
}

type highlight struct {
	start, end int
	style      lipgloss.Style
}

// highlights returns the non-overlapping IP and URL matches in order.
func highlights(message string) []highlight {
	var out []highlight
	for _, loc := range urlPattern.FindAllStringIndex(message, -1) {
		out = append(out, highlight{loc[0], loc[1], urlStyle})
	}
	for _, loc := range ipPattern.FindAllStringIndex(message, -1) {
		inURL := false
		for _, h := range out {
			if loc[0] < h.end && loc[1] > h.start {
				inURL = true
				break
			}
		}
		if !inURL {
			out = append(out, highlight{loc[0], loc[1], ipStyle})
		}
	}
	slices.SortFunc(out, func(a, b highlight) int { return a.start - b.start })
	return out
}
