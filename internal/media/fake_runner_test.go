package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"bulletin/internal/runner"
)

type call struct {
	command string
	args    []string
	opts    runner.Options
}

// fakeRunner imitates ffmpeg and ffprobe. Successful ffmpeg runs write the
// last argument as the output file.
type fakeRunner struct {
	calls []call

	probeOut  string
	probeExit int

	spawnFail    map[string]bool
	concatExit   int
	concatStderr string
	mixExit      int
	mixStderr    string
	stderrLines  []string

	manifest       string
	manifestExists bool
}

func (f *fakeRunner) Run(_ context.Context, command string, args []string, opts runner.Options) (runner.Result, error) {
	f.calls = append(f.calls, call{command: command, args: append([]string(nil), args...), opts: opts})
	base := filepath.Base(command)
	if f.spawnFail[base] {
		return runner.Result{ExitCode: -1}, &runner.ProcessSpawnError{Executable: command, Err: errors.New("executable file not found in $PATH")}
	}

	switch base {
	case "ffprobe":
		if f.probeExit != 0 {
			return runner.Result{ExitCode: f.probeExit, Stderr: []byte("probe failed")}, nil
		}
		return runner.Result{Stdout: []byte(f.probeOut)}, nil
	case "ffmpeg":
		for _, line := range f.stderrLines {
			if opts.OnStderr != nil {
				opts.OnStderr(line)
			}
		}
		output := args[len(args)-1]
		if hasArg(args, "-filter_complex") {
			if f.mixExit != 0 {
				return runner.Result{ExitCode: f.mixExit, Stderr: []byte(f.mixStderr)}, nil
			}
			return runner.Result{}, os.WriteFile(output, []byte("mixed"), 0o644)
		}
		manifest := argAfter(args, "-i")
		if data, err := os.ReadFile(manifest); err == nil {
			f.manifest = string(data)
			f.manifestExists = true
		}
		if f.concatExit != 0 {
			return runner.Result{ExitCode: f.concatExit, Stderr: []byte(f.concatStderr)}, nil
		}
		return runner.Result{}, os.WriteFile(output, []byte("concatenated:"+f.manifest), 0o644)
	}
	return runner.Result{ExitCode: 127}, nil
}

func hasArg(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func argAfter(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strings.Repeat("x", 16)), 0o644)
}
