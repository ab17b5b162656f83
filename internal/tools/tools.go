package tools

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"bulletin/internal/runner"
)

// Definition describes an external program the pipeline shells out to.
type Definition struct {
	Name string
	// Command is the executable followed by any fixed leading arguments,
	// e.g. ["npx", "remotion"].
	Command       []string
	VersionSwitch string
}

// Status captures availability and version details for a tool.
type Status struct {
	Tool      string `json:"tool"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// Detect reports the status of each definition, in order.
func Detect(ctx context.Context, run runner.Runner, defs []Definition) []Status {
	statuses := make([]Status, 0, len(defs))
	for _, def := range defs {
		statuses = append(statuses, detectOne(ctx, run, def))
	}
	return statuses
}

func detectOne(ctx context.Context, run runner.Runner, def Definition) Status {
	status := Status{Tool: def.Name}
	if len(def.Command) == 0 {
		status.Error = "no command configured"
		return status
	}

	path, err := exec.LookPath(def.Command[0])
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			status.Error = "not found"
		} else {
			status.Error = err.Error()
		}
		return status
	}
	status.Path = path
	status.Available = true

	version, err := readVersion(ctx, run, def, path)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Version = version
	return status
}

// CheckAvailable runs the tool's version switch and fails when the tool
// cannot be started or exits nonzero.
func CheckAvailable(ctx context.Context, run runner.Runner, def Definition) error {
	if len(def.Command) == 0 {
		return fmt.Errorf("%s: no command configured", def.Name)
	}
	args := append(append([]string{}, def.Command[1:]...), def.VersionSwitch)
	res, err := run.Run(ctx, def.Command[0], args, runner.Options{Stdio: runner.Ignore})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%s %s exited with code %d", def.Command[0], def.VersionSwitch, res.ExitCode)
	}
	return nil
}

func readVersion(ctx context.Context, run runner.Runner, def Definition, path string) (string, error) {
	args := append(append([]string{}, def.Command[1:]...), def.VersionSwitch)
	res, err := run.Run(ctx, path, args, runner.Options{Stdio: runner.Pipe})
	if err != nil {
		return "", fmt.Errorf("%s version: %w", def.Name, err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%s version: exit code %d", def.Name, res.ExitCode)
	}

	line := firstLine(strings.TrimSpace(string(res.Stdout)))
	switch def.Name {
	case "ffmpeg", "ffprobe":
		return normalizeFFmpegVersion(line), nil
	default:
		return line, nil
	}
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}

var ffmpegVersionRegex = regexp.MustCompile(`([0-9]+)(?:\.([0-9]+))?(?:\.([0-9]+))?`)

func normalizeFFmpegVersion(line string) string {
	rest := line
	if idx := strings.Index(line, "version"); idx >= 0 {
		rest = line[idx+len("version"):]
	}
	if match := ffmpegVersionRegex.FindString(rest); match != "" {
		return match
	}
	return line
}
