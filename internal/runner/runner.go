// Package runner starts external tools and reports how they exited.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// Stdio selects what happens to a child's output.
type Stdio int

const (
	// Pipe captures output and forwards it line by line to the callbacks.
	Pipe Stdio = iota
	// Inherit streams output to the terminal (or Options.Stdout/Stderr) and
	// captures it as well.
	Inherit
	// Ignore discards output.
	Ignore
)

func (s Stdio) String() string {
	switch s {
	case Pipe:
		return "pipe"
	case Inherit:
		return "inherit"
	case Ignore:
		return "ignore"
	default:
		return "stdio(" + strconv.Itoa(int(s)) + ")"
	}
}

type Options struct {
	Stdio Stdio
	Dir   string
	Env   []string
	// Stdout and Stderr receive a copy of the output. With Inherit they
	// default to the process's own streams.
	Stdout io.Writer
	Stderr io.Writer
	// OnStdout and OnStderr receive complete lines in Pipe mode. Lines are
	// split on both \n and \r. The callbacks never run concurrently.
	OnStdout func(line string)
	OnStderr func(line string)
}

type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner runs a command to completion. A nonzero exit status is reported in
// Result.ExitCode, not as an error; callers decide what it means.
type Runner interface {
	Run(ctx context.Context, executable string, args []string, opts Options) (Result, error)
}

// ProcessSpawnError means the executable could not be started at all.
type ProcessSpawnError struct {
	Executable string
	Err        error
}

func (e *ProcessSpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Executable, e.Err)
}

func (e *ProcessSpawnError) Unwrap() error { return e.Err }

type CmdRunner struct{}

func (CmdRunner) Run(ctx context.Context, executable string, args []string, opts Options) (Result, error) {
	cmd := exec.CommandContext(ctx, executable, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	var lines []*LineWriter

	switch opts.Stdio {
	case Inherit:
		cmd.Stdin = os.Stdin
		cmd.Stdout = io.MultiWriter(&stdoutBuf, orDefault(opts.Stdout, os.Stdout))
		cmd.Stderr = io.MultiWriter(&stderrBuf, orDefault(opts.Stderr, os.Stderr))
	case Ignore:
	default:
		var mu sync.Mutex
		stdoutLines := NewLineWriter(&mu, opts.OnStdout)
		stderrLines := NewLineWriter(&mu, opts.OnStderr)
		lines = append(lines, stdoutLines, stderrLines)
		cmd.Stdout = tee(&stdoutBuf, stdoutLines, opts.Stdout)
		cmd.Stderr = tee(&stderrBuf, stderrLines, opts.Stderr)
	}

	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{ExitCode: -1}, ctxErr
		}
		return Result{ExitCode: -1}, &ProcessSpawnError{Executable: executable, Err: err}
	}

	waitErr := cmd.Wait()
	for _, lw := range lines {
		lw.Flush()
	}

	result := Result{Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("wait for %s: %w", executable, waitErr)
	}
	return result, nil
}

var _ Runner = CmdRunner{}

func orDefault(w, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}

func tee(buf *bytes.Buffer, lines *LineWriter, extra io.Writer) io.Writer {
	if extra == nil {
		return io.MultiWriter(buf, lines)
	}
	return io.MultiWriter(buf, lines, extra)
}

// ProgressLine reports whether an ffmpeg output line carries encoding
// progress.
func ProgressLine(line string) bool {
	return strings.Contains(line, "frame=") || strings.Contains(line, "time=")
}

// FormatCommand renders a command line for logs, quoting arguments that
// contain whitespace or quotes.
func FormatCommand(executable string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{executable}, args...) {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
