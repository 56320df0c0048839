package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rusenback/logship/internal/shipper"
)

// Update handles messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.done {
				return m, tea.Quit
			}
			if !m.stopping {
				m.stopping = true
				m.message = "Stopping the container..."
				if m.cancel != nil {
					m.cancel()
				}
			}

		case "pgup":
			// Scroll logs up by half page for better readability
			scrollAmount := max(m.calculateVisibleLogLines()/2, 1)
			m.logsScroll = max(m.logsScroll-scrollAmount, 0)
			m.logsAutoScroll = false

		case "pgdown":
			scrollAmount := max(m.calculateVisibleLogLines()/2, 1)
			maxScroll := m.calculateMaxScroll()
			m.logsScroll += scrollAmount
			if m.logsScroll >= maxScroll {
				m.logsScroll = maxScroll
				m.logsAutoScroll = true
			}

		case "home":
			m.logsScroll = 0
			m.logsAutoScroll = false

		case "end":
			m.logsScroll = m.calculateMaxScroll()
			m.logsAutoScroll = true

		case "a":
			// Toggle auto-scroll
			m.logsAutoScroll = !m.logsAutoScroll
			if m.logsAutoScroll {
				m.logsScroll = m.calculateMaxScroll()
			}
		}

	case tickMsg:
		m.now = time.Time(msg)
		if m.done {
			return m, nil
		}
		return m, tickCmd()

	case eventMsg:
		m = m.applyEvent(msg.event)

	case logLineMsg:
		m.logs = appendBounded(m.logs, string(msg))

	case doneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		if msg.result.ContainerID != "" {
			m.containerID = msg.result.ContainerID
		}
		if msg.err != nil {
			m.message = fmt.Sprintf("Run failed: %v", msg.err)
		} else {
			m.message = fmt.Sprintf("Done, container %s", msg.result.Teardown)
		}
		return m, tea.Quit
	}

	return m, nil
}

// applyEvent folds one shipper event into the counters.
func (m Model) applyEvent(ev shipper.Event) Model {
	switch ev.Kind {
	case shipper.EventState:
		m.state = ev.State
	case shipper.EventDelivered:
		m.batches++
		m.records += len(ev.Records)
		m.delivered += ev.Result.Accepted
		m.rejected += ev.Result.Rejected
		m.shipped = appendBounded(m.shipped, ev.Records...)
		if m.logsAutoScroll {
			m.logsScroll = m.calculateMaxScroll()
		}
	case shipper.EventDeliveryFailed:
		m.batches++
		m.records += len(ev.Records)
		m.deliveryErrors++
		m.message = fmt.Sprintf("Delivery failed: %v", ev.Err)
	case shipper.EventRefreshFailed, shipper.EventReadFailed:
		m.message = fmt.Sprintf("Docker: %v", ev.Err)
	case shipper.EventInterrupted:
		m.stopping = true
		m.message = "Interrupted, stopping the container..."
	case shipper.EventStopped:
		if ev.State != "" {
			m.state = ev.State
		}
	}
	return m
}
