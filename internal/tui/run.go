package tui

import (
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"bulletin/internal/pipeline"
)

// RunWithWork creates a bubbletea program, launches workFn in a goroutine,
// and blocks until both the program and the work have finished. workFn
// reports stage events through the reporter it receives. The returned error
// is workFn's; a UI failure is only returned when the work succeeded.
func RunWithWork(out io.Writer, model StageModel, workFn func(pipeline.Reporter) error) error {
	p := tea.NewProgram(model, tea.WithOutput(out))

	workErr := make(chan error, 1)
	go func() {
		// Let bubbletea start its event loop and render the initial frame.
		time.Sleep(50 * time.Millisecond)

		err := workFn(NewProgramReporter(p.Send))
		if err != nil {
			p.Send(ErrorMsg{Err: err})
		} else {
			p.Send(WorkDoneMsg{})
		}
		workErr <- err
	}()

	_, uiErr := p.Run()
	if err := <-workErr; err != nil {
		return err
	}
	return uiErr
}
