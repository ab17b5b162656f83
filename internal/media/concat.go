package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"bulletin/internal/runner"
)

// Concatenator joins the header, main and tail clips with the ffmpeg concat
// demuxer, without re-encoding.
type Concatenator struct {
	Runner  runner.Runner
	FFmpeg  string
	Verbose bool
	// OnProgress receives ffmpeg progress lines when not verbose.
	OnProgress func(line string)
	Logger     *slog.Logger
}

// Concatenate writes header+main+tail to output. The manifest written next to
// output is removed on every return path.
func (c Concatenator) Concatenate(ctx context.Context, header, main, tail, output string) (err error) {
	manifest := filepath.Join(filepath.Dir(output), "concat-list-"+uuid.NewString()+".txt")
	defer func() {
		if rmErr := os.Remove(manifest); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			logger(c.Logger).Warn("remove concat manifest", "path", manifest, "error", rmErr)
		}
	}()

	if err := WriteManifest(manifest, []string{header, main, tail}); err != nil {
		return err
	}

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-c", "copy",
		"-y",
		output,
	}
	bin := orDefault(c.FFmpeg, "ffmpeg")
	logger(c.Logger).Debug("concatenate clips", "header", header, "main", main, "tail", tail, "output", output,
		"command", runner.FormatCommand(bin, args))

	res, err := c.runner().Run(ctx, bin, args, progressOptions(c.Verbose, c.OnProgress))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &ConcatenationError{ExitCode: res.ExitCode, Stderr: strings.TrimSpace(string(res.Stderr))}
	}
	return nil
}

func (c Concatenator) runner() runner.Runner {
	if c.Runner == nil {
		return runner.CmdRunner{}
	}
	return c.Runner
}

// WriteManifest writes an ffmpeg concat demuxer list. Paths are made
// absolute and use forward slashes; single quotes are escaped.
func WriteManifest(path string, inputs []string) error {
	var b strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			abs = in
		}
		abs = strings.ReplaceAll(filepath.ToSlash(abs), `\`, "/")
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write concat manifest: %w", err)
	}
	return nil
}

func progressOptions(verbose bool, onProgress func(string)) runner.Options {
	if verbose {
		return runner.Options{Stdio: runner.Inherit}
	}
	opts := runner.Options{Stdio: runner.Pipe}
	if onProgress != nil {
		opts.OnStderr = func(line string) {
			if runner.ProgressLine(line) {
				onProgress(strings.TrimSpace(line))
			}
		}
	}
	return opts
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
