package media

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"bulletin/internal/runner"
)

// Prober reads container durations with ffprobe.
type Prober struct {
	Runner  runner.Runner
	FFprobe string
}

// Duration returns the media duration in seconds.
func (p Prober) Duration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	res, err := p.runner().Run(ctx, p.binary(), args, runner.Options{Stdio: runner.Pipe})
	if err != nil {
		return 0, err
	}
	if res.ExitCode != 0 {
		return 0, &ProbeError{Path: path, ExitCode: res.ExitCode, Output: strings.TrimSpace(string(res.Stderr))}
	}

	out := strings.TrimSpace(string(res.Stdout))
	seconds, err := strconv.ParseFloat(out, 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, &ProbeError{Path: path, Output: out}
	}
	if seconds < 0 {
		return 0, &ProbeError{Path: path, Output: out, Err: fmt.Errorf("negative duration %s", out)}
	}
	return seconds, nil
}

func (p Prober) runner() runner.Runner {
	if p.Runner == nil {
		return runner.CmdRunner{}
	}
	return p.Runner
}

func (p Prober) binary() string {
	if p.FFprobe == "" {
		return "ffprobe"
	}
	return p.FFprobe
}
