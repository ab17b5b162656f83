package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"
	"testing"
	"time"
)

func helperOptions(opts Options) Options {
	opts.Env = append(opts.Env, "RUNNER_HELPER_PROCESS=1")
	return opts
}

func helperArgs(mode string) []string {
	return []string{"-test.run=TestHelperProcess", "--", mode}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("RUNNER_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}
	if len(args) == 0 {
		os.Exit(2)
	}
	switch args[0] {
	case "progress":
		fmt.Fprint(os.Stdout, "frame=1\rframe=2\rdone\n\nlast")
		fmt.Fprint(os.Stderr, "warn\r\n")
	case "exit":
		fmt.Fprint(os.Stderr, "boom\n")
		os.Exit(3)
	case "sleep":
		time.Sleep(30 * time.Second)
	}
	os.Exit(0)
}

type lineCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *lineCollector) add(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

func TestCmdRunnerPipeSplitsLines(t *testing.T) {
	var stdout, stderr lineCollector
	res, err := CmdRunner{}.Run(context.Background(), os.Args[0], helperArgs("progress"), helperOptions(Options{
		Stdio:    Pipe,
		OnStdout: stdout.add,
		OnStderr: stderr.add,
	}))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, want 0", res.ExitCode)
	}

	wantOut := []string{"frame=1", "frame=2", "done", "last"}
	if !reflect.DeepEqual(stdout.lines, wantOut) {
		t.Fatalf("stdout lines = %q, want %q", stdout.lines, wantOut)
	}
	if !reflect.DeepEqual(stderr.lines, []string{"warn"}) {
		t.Fatalf("stderr lines = %q", stderr.lines)
	}
	if got := string(res.Stdout); got != "frame=1\rframe=2\rdone\n\nlast" {
		t.Fatalf("captured stdout = %q", got)
	}
}

func TestCmdRunnerNonzeroExitIsNotAnError(t *testing.T) {
	res, err := CmdRunner{}.Run(context.Background(), os.Args[0], helperArgs("exit"), helperOptions(Options{}))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", res.ExitCode)
	}
	if !bytes.Contains(res.Stderr, []byte("boom")) {
		t.Fatalf("stderr = %q", res.Stderr)
	}
}

func TestCmdRunnerSpawnFailure(t *testing.T) {
	_, err := CmdRunner{}.Run(context.Background(), "/definitely/not/a/tool", nil, Options{})
	var spawnErr *ProcessSpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("expected ProcessSpawnError, got %T: %v", err, err)
	}
	if spawnErr.Executable != "/definitely/not/a/tool" {
		t.Fatalf("executable = %q", spawnErr.Executable)
	}
}

func TestCmdRunnerInheritTeesToWriters(t *testing.T) {
	var out bytes.Buffer
	res, err := CmdRunner{}.Run(context.Background(), os.Args[0], helperArgs("progress"), helperOptions(Options{
		Stdio:  Inherit,
		Stdout: &out,
		Stderr: &bytes.Buffer{},
	}))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if out.String() != string(res.Stdout) || out.Len() == 0 {
		t.Fatalf("forwarded %q, captured %q", out.String(), res.Stdout)
	}
}

func TestCmdRunnerIgnoreDiscardsOutput(t *testing.T) {
	called := false
	res, err := CmdRunner{}.Run(context.Background(), os.Args[0], helperArgs("progress"), helperOptions(Options{
		Stdio:    Ignore,
		OnStdout: func(string) { called = true },
	}))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(res.Stdout) != 0 || called {
		t.Fatalf("expected no output, got %q (callback %v)", res.Stdout, called)
	}
}

func TestCmdRunnerCancellationKillsChild(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := CmdRunner{}.Run(ctx, os.Args[0], helperArgs("sleep"), helperOptions(Options{}))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("child was not killed, waited %s", elapsed)
	}
}

func TestLineWriterAcrossChunks(t *testing.T) {
	var got []string
	w := NewLineWriter(nil, func(line string) { got = append(got, line) })

	for _, chunk := range []string{"fra", "me=10 time=00:00:01\r", "fra", "me=11\r\n", "tail"} {
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	w.Flush()

	want := []string{"frame=10 time=00:00:01", "frame=11", "tail"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
}

func TestProgressLine(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{line: "frame=  120 fps= 30 q=-1.0 size=1024kB time=00:00:04.00", want: true},
		{line: "size=    2048kB time=00:00:08.00 bitrate= 2097.2kbits/s", want: true},
		{line: "Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'main.mp4':"},
		{line: ""},
	}
	for _, tc := range cases {
		if got := ProgressLine(tc.line); got != tc.want {
			t.Errorf("ProgressLine(%q) = %v, want %v", tc.line, got, tc.want)
		}
	}
}

func TestFormatCommand(t *testing.T) {
	got := FormatCommand("ffmpeg", []string{"-i", "my clip.mp4", "-y", "out.mp4"})
	want := `ffmpeg -i "my clip.mp4" -y out.mp4`
	if got != want {
		t.Fatalf("FormatCommand = %q, want %q", got, want)
	}
}
