package tui

import (
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rusenback/logship/internal/runner"
	"github.com/rusenback/logship/internal/shipper"
)

// Program runs the status view next to a run and feeds it.
type Program struct {
	p *tea.Program
}

// NewProgram prepares the full screen program for m.
func NewProgram(m Model, opts ...tea.ProgramOption) *Program {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return &Program{p: tea.NewProgram(m, opts...)}
}

// Run blocks until the view quits. Messages sent afterwards are dropped.
func (p *Program) Run() error {
	_, err := p.p.Run()
	p.p.Kill()
	return err
}

// Observer forwards shipper events to the view.
func (p *Program) Observer() shipper.Observer {
	return func(ev shipper.Event) {
		p.p.Send(eventMsg{event: ev})
	}
}

// Done tells the view the run is over; the view quits.
func (p *Program) Done(res runner.Result, err error) {
	p.p.Send(doneMsg{result: res, err: err})
}

// LogWriter returns a writer that shows each written log line in the view.
func (p *Program) LogWriter() io.Writer {
	return logWriter{p: p.p}
}

type logWriter struct {
	p *tea.Program
}

func (w logWriter) Write(b []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(b), "\n"), "\n") {
		if line != "" {
			w.p.Send(logLineMsg(line))
		}
	}
	return len(b), nil
}
