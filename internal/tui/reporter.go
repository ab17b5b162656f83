package tui

import (
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"bulletin/internal/pipeline"
)

// ProgramReporter forwards stage events to a running bubbletea program.
type ProgramReporter struct {
	send func(tea.Msg)
}

// NewProgramReporter wraps send, usually tea.Program.Send.
func NewProgramReporter(send func(tea.Msg)) *ProgramReporter {
	return &ProgramReporter{send: send}
}

// Report implements pipeline.Reporter.
func (r *ProgramReporter) Report(e pipeline.Event) {
	r.send(EventMsg(e))
}

// LineReporter prints one styled line per stage transition. Repeated running
// events for a stage (progress output) are dropped so logs stay readable.
type LineReporter struct {
	w       io.Writer
	mu      sync.Mutex
	running map[pipeline.Stage]bool
}

// NewLineReporter returns a reporter writing to w.
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w, running: make(map[pipeline.Stage]bool)}
}

// Report implements pipeline.Reporter.
func (r *LineReporter) Report(e pipeline.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.Status == pipeline.StatusRunning {
		if r.running[e.Stage] {
			return
		}
		r.running[e.Stage] = true
	} else {
		delete(r.running, e.Stage)
	}

	line := StatusIcon(e.Status) + " " + e.Stage.Label()
	if e.Detail != "" && e.Status != pipeline.StatusRunning {
		line += ": " + e.Detail
	}
	fmt.Fprintln(r.w, StatusStyle(e.Status).Render(line))
}
