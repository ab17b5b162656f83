package render

import (
	"fmt"
	"strings"
)

// ToolExitError means the render tool started but exited with a nonzero
// status.
type ToolExitError struct {
	Tool     string
	ExitCode int
	// Output holds the last lines the tool wrote to stderr.
	Output string
}

func (e *ToolExitError) Error() string {
	return fmt.Sprintf("render tool %s exited with code %d", e.Tool, e.ExitCode)
}

const outputTailLines = 20

func tailLines(output []byte, n int) string {
	lines := strings.Split(strings.TrimRight(string(output), "\r\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
