package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"bulletin/internal/postprocess"
	"bulletin/internal/render"
	"bulletin/internal/runner"
	"bulletin/internal/tui"
	"bulletin/pkg/bulletin"
)

// failure is the categorised view of an error printed to the user.
type failure struct {
	Code     string `json:"code"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Details  string `json:"details,omitempty"`
}

func classify(err error) failure {
	var (
		loadErr  bulletin.Error
		spawnErr *runner.ProcessSpawnError
		exitErr  *render.ToolExitError
		toolErr  *postprocess.ToolUnavailableError
		inputErr *postprocess.MissingInputError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return failure{Code: "CANCELLED", Category: "process", Message: "render cancelled"}
	case errors.As(err, &loadErr):
		f := failure{Code: string(loadErr.Code()), Category: loadErr.Code().Category(), Message: loadErr.Error()}
		if cause := errors.Unwrap(loadErr); cause != nil {
			f.Details = cause.Error()
		}
		return f
	case errors.As(err, &spawnErr):
		return failure{Code: "PROCESS_SPAWN_ERROR", Category: "process", Message: spawnErr.Error(), Details: causeText(spawnErr.Err)}
	case errors.As(err, &exitErr):
		return failure{Code: "RENDER_TOOL_FAILED", Category: "process", Message: exitErr.Error(), Details: exitErr.Output}
	case errors.As(err, &toolErr):
		return failure{Code: "TOOL_UNAVAILABLE", Category: "process", Message: toolErr.Error(), Details: causeText(toolErr.Err)}
	case errors.As(err, &inputErr):
		return failure{Code: "MISSING_INPUT", Category: "io", Message: inputErr.Error()}
	}
	return failure{Code: "UNKNOWN_ERROR", Category: "unknown", Message: err.Error()}
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// printFailure writes the "✗ <title>" block with code, message and details.
func printFailure(w io.Writer, title string, err error) {
	f := classify(err)
	fmt.Fprintln(w)
	fmt.Fprintln(w, tui.ErrorStyle.Render("✗ "+title))
	fmt.Fprintln(w, tui.ErrorStyle.Render("  Error Code: "+f.Code))
	fmt.Fprintln(w, tui.ErrorStyle.Render("  Message: "+indentContinuation(f.Message)))
	if f.Details != "" {
		fmt.Fprintln(w, tui.FaintStyle.Render("  Details: "+indentContinuation(f.Details)))
	}
	fmt.Fprintln(w)
}

func indentContinuation(text string) string {
	return strings.ReplaceAll(strings.TrimRight(text, "\n"), "\n", "\n    ")
}
