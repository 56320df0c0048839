package tui

// truncate shortens a string to a maximum length
func truncate(s string, max int) string {
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// calculateVisibleLogLines calculates how many shipped lines fit in the panel
func (m Model) calculateVisibleLogLines() int {
	// Shipped lines get 60% of the height minus borders, title and help
	return max(int(float64(m.height)*0.6)-6, 3)
}

// calculateMaxScroll calculates the maximum scroll position
func (m Model) calculateMaxScroll() int {
	return max(len(m.shipped)-m.calculateVisibleLogLines(), 0)
}
