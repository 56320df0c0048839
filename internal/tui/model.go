package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rusenback/logship/internal/model"
	"github.com/rusenback/logship/internal/runner"
	"github.com/rusenback/logship/internal/shipper"
)

// maxLines bounds the shipped lines and log lines kept for display.
const maxLines = 500

// Model represents the TUI application state
type Model struct {
	image   string
	command string
	target  model.SinkTarget

	state       model.ContainerState
	containerID string
	started     time.Time
	now         time.Time

	batches        int
	records        int
	delivered      int
	rejected       int
	deliveryErrors int

	shipped []model.LogRecord
	logs    []string

	message  string
	stopping bool
	done     bool
	result   runner.Result
	err      error

	// cancel interrupts the run
	cancel func()

	width  int
	height int

	logsScroll     int
	logsAutoScroll bool
}

// Message types for Bubbletea update loop
type tickMsg time.Time

type eventMsg struct {
	event shipper.Event
}

type logLineMsg string

type doneMsg struct {
	result runner.Result
	err    error
}

// NewModel creates the status view of a run. cancel is called when the user
// asks to stop the run.
func NewModel(image, command string, target model.SinkTarget, cancel func()) Model {
	now := time.Now()
	return Model{
		image:          image,
		command:        command,
		target:         target,
		cancel:         cancel,
		started:        now,
		now:            now,
		logsAutoScroll: true,
	}
}

// Init initializes the model and returns initial commands
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// appendBounded appends to s and drops the oldest entries beyond maxLines.
func appendBounded[T any](s []T, items ...T) []T {
	s = append(s, items...)
	if over := len(s) - maxLines; over > 0 {
		s = append(s[:0:0], s[over:]...)
	}
	return s
}
