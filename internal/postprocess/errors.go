package postprocess

import (
	"errors"
	"fmt"
	"strings"
)

// ErrScratchBusy is returned when another run holds the scratch directory
// next to the same output.
var ErrScratchBusy = errors.New("scratch directory is in use by another post-processing run")

// ToolUnavailableError means ffmpeg could not be run at all.
type ToolUnavailableError struct {
	Tool  string
	Hints []string
	Err   error
}

func (e *ToolUnavailableError) Error() string {
	name := e.Tool
	if e.Tool == "ffmpeg" {
		name = "FFmpeg"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s is not installed or not accessible.\n", name)
	if len(e.Hints) > 0 {
		fmt.Fprintf(&b, "Please install %s:\n", name)
		for _, hint := range e.Hints {
			fmt.Fprintf(&b, "  %s\n", hint)
		}
	}
	b.WriteString("\nOr use --skip-audio to skip post-processing.")
	return b.String()
}

func (e *ToolUnavailableError) Unwrap() error { return e.Err }

// MissingInputError names an input clip or track that does not exist.
type MissingInputError struct {
	Name string
	Path string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Name, e.Path)
}
