package tui

import "bulletin/internal/pipeline"

// EventMsg carries a stage event into the progress model.
type EventMsg pipeline.Event

// WorkDoneMsg signals that all background work has completed.
type WorkDoneMsg struct{}

// ErrorMsg signals a fatal error; the TUI should quit.
type ErrorMsg struct {
	Err error
}
