package render

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bulletin/internal/config"
	"bulletin/internal/pipeline"
	"bulletin/internal/postprocess"
	"bulletin/internal/runner"
	"bulletin/pkg/bulletin"
)

type fakeRunner struct {
	calls    [][]string
	exitCode int
	stderr   string
	err      error
	// props captures the props file contents while the tool "runs".
	props []byte
}

func (f *fakeRunner) Run(_ context.Context, command string, args []string, opts runner.Options) (runner.Result, error) {
	f.calls = append(f.calls, append([]string{filepath.Base(command)}, args...))
	if f.err != nil {
		return runner.Result{}, f.err
	}
	switch filepath.Base(command) {
	case "npx":
		for _, arg := range args {
			if strings.HasPrefix(arg, "--props=") {
				f.props, _ = os.ReadFile(strings.TrimPrefix(arg, "--props="))
			}
			if strings.HasPrefix(arg, "--output=") && f.exitCode == 0 {
				_ = os.WriteFile(strings.TrimPrefix(arg, "--output="), []byte("MAIN"), 0o644)
			}
		}
		if opts.OnStderr != nil {
			opts.OnStderr("Rendered 10/10")
		}
	}
	return runner.Result{ExitCode: f.exitCode, Stderr: []byte(f.stderr)}, nil
}

type fakePost struct {
	calls []postCall
	err   error
}

type postCall struct {
	main, final string
	opts        postprocess.Options
}

func (f *fakePost) Process(_ context.Context, mainPath, finalPath string, opts postprocess.Options) (string, error) {
	f.calls = append(f.calls, postCall{main: mainPath, final: finalPath, opts: opts})
	if f.err != nil {
		return "", f.err
	}
	return finalPath, nil
}

type recorder struct {
	events []pipeline.Event
}

func (r *recorder) Report(e pipeline.Event) { r.events = append(r.events, e) }

func (r *recorder) last(stage pipeline.Stage) pipeline.Status {
	var status pipeline.Status
	for _, e := range r.events {
		if e.Stage == stage {
			status = e.Status
		}
	}
	return status
}

type fixture struct {
	root    string
	tempDir string
	run     *fakeRunner
	post    *fakePost
	rec     *recorder
	svc     *Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "public", "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "release.yaml"), []byte("version: v1.2.0\nreleaseDate: \"2026-01-15\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := fixture{
		root:    root,
		tempDir: t.TempDir(),
		run:     &fakeRunner{},
		post:    &fakePost{},
		rec:     &recorder{},
	}
	loader := bulletin.NewLoader(root)
	loader.Cache = bulletin.NewCache()
	f.svc = &Service{
		Root:          root,
		Config:        config.Default(),
		Loader:        loader,
		Runner:        f.run,
		PostProcessor: f.post,
		Reporter:      f.rec,
		TempDir:       f.tempDir,
	}
	return f
}

func assertNoProps(t *testing.T, dir string) {
	t.Helper()
	matches, _ := filepath.Glob(filepath.Join(dir, "remotion-props-*.json"))
	if len(matches) != 0 {
		t.Fatalf("props files left behind: %v", matches)
	}
}

func TestRenderRunsToolAndPostProcesses(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Render(context.Background(), "public/data/release.yaml", Options{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	wantOut := filepath.Join(f.root, "out", "myvideo.mp4")
	if res.OutputPath != wantOut || res.CompositionID != bulletin.CompositionUpdateBulletin {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.SourcePath != filepath.Join(f.root, "public", "data", "release.yaml") {
		t.Fatalf("source path = %s", res.SourcePath)
	}
	if !res.PostProcessed || res.PostProcessErr != nil {
		t.Fatalf("expected post-processing, got %+v", res)
	}

	if len(f.run.calls) != 1 {
		t.Fatalf("expected one render call, got %v", f.run.calls)
	}
	args := f.run.calls[0]
	if args[0] != "npx" || args[1] != "remotion" || args[2] != "render" || args[3] != bulletin.CompositionUpdateBulletin {
		t.Fatalf("unexpected render args %q", args)
	}
	if args[5] != "--output="+wantOut || args[6] != "--overwrite" {
		t.Fatalf("unexpected render args %q", args)
	}

	var props map[string]any
	if err := json.Unmarshal(f.run.props, &props); err != nil {
		t.Fatalf("props not JSON: %v (%s)", err, f.run.props)
	}
	if props["version"] != "v1.2.0" || props["releaseDate"] != "2026-01-15" {
		t.Fatalf("unexpected props %v", props)
	}
	assertNoProps(t, f.tempDir)

	if len(f.post.calls) != 1 {
		t.Fatalf("expected one post-process call")
	}
	call := f.post.calls[0]
	if call.main != wantOut || call.final != wantOut {
		t.Fatalf("expected main == final == output, got %+v", call)
	}
	if call.opts.HeaderPath != filepath.Join(f.root, "public", "video", "header.mp4") {
		t.Fatalf("header = %s", call.opts.HeaderPath)
	}
	if call.opts.AudioVolume != 0.3 || call.opts.FadeOut.Seconds() != 3 {
		t.Fatalf("audio options = %+v", call.opts)
	}

	if f.rec.last(pipeline.StageLoad) != pipeline.StatusDone || f.rec.last(pipeline.StageRender) != pipeline.StatusDone {
		t.Fatalf("unexpected events %+v", f.rec.events)
	}
}

func TestRenderMobileCompositionUsesMobileClips(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Render(context.Background(), "public/data/release.yaml", Options{
		Composition: bulletin.CompositionReleaseNotesMobile,
		Output:      "build/mobile.mp4",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.CompositionID != bulletin.CompositionReleaseNotesMobile {
		t.Fatalf("composition = %s", res.CompositionID)
	}
	if _, err := os.Stat(filepath.Join(f.root, "build")); err != nil {
		t.Fatalf("output dir not created: %v", err)
	}
	opts := f.post.calls[0].opts
	if filepath.Base(opts.HeaderPath) != "header_mobile.mp4" || filepath.Base(opts.TailPath) != "tail_mobile.mp4" {
		t.Fatalf("unexpected clips %+v", opts)
	}
}

func TestRenderToolExitFailure(t *testing.T) {
	f := newFixture(t)
	f.run.exitCode = 1
	f.run.stderr = "line one\nError: composition crashed\n"

	_, err := f.svc.Render(context.Background(), "public/data/release.yaml", Options{})
	var exitErr *ToolExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ToolExitError, got %v", err)
	}
	if exitErr.ExitCode != 1 || !strings.Contains(exitErr.Output, "composition crashed") {
		t.Fatalf("unexpected exit error %+v", exitErr)
	}
	if len(f.post.calls) != 0 {
		t.Fatalf("post-processing ran after failed render")
	}
	if f.rec.last(pipeline.StageRender) != pipeline.StatusFailed {
		t.Fatalf("render stage not marked failed")
	}
	assertNoProps(t, f.tempDir)
}

func TestRenderSpawnFailure(t *testing.T) {
	f := newFixture(t)
	f.run.err = &runner.ProcessSpawnError{Executable: "npx", Err: os.ErrNotExist}

	_, err := f.svc.Render(context.Background(), "public/data/release.yaml", Options{})
	var spawnErr *runner.ProcessSpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("expected ProcessSpawnError, got %v", err)
	}
	assertNoProps(t, f.tempDir)
}

func TestRenderLoadFailureSkipsTool(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Render(context.Background(), "public/data/missing.yaml", Options{})
	var notFound *bulletin.FileNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected FileNotFoundError, got %v", err)
	}
	if len(f.run.calls) != 0 {
		t.Fatalf("render tool ran after load failure")
	}
	if f.rec.last(pipeline.StageLoad) != pipeline.StatusFailed {
		t.Fatalf("load stage not marked failed")
	}
}

func TestRenderSkipAudioSkipsPostProcessing(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Render(context.Background(), "public/data/release.yaml", Options{SkipAudio: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.PostProcessed || len(f.post.calls) != 0 {
		t.Fatalf("post-processing should be skipped")
	}
	for _, stage := range []pipeline.Stage{pipeline.StagePreflight, pipeline.StageConcat, pipeline.StageMix, pipeline.StageFinalize} {
		if got := f.rec.last(stage); got != pipeline.StatusSkipped {
			t.Errorf("%s = %q, want skipped", stage, got)
		}
	}
}

func TestRenderPostProcessFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.post.err = &postprocess.MissingInputError{Name: "Header video", Path: "/nope/header.mp4"}

	res, err := f.svc.Render(context.Background(), "public/data/release.yaml", Options{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	var missing *postprocess.MissingInputError
	if !errors.As(res.PostProcessErr, &missing) {
		t.Fatalf("expected MissingInputError in result, got %v", res.PostProcessErr)
	}
	if res.PostProcessed {
		t.Fatalf("PostProcessed should be false")
	}
	if _, err := os.Stat(res.OutputPath); err != nil {
		t.Fatalf("main video should remain: %v", err)
	}
}

func TestRenderUnconfiguredComposition(t *testing.T) {
	f := newFixture(t)
	f.svc.Config.Compositions = nil

	res, err := f.svc.Render(context.Background(), "public/data/release.yaml", Options{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.PostProcessErr == nil || !strings.Contains(res.PostProcessErr.Error(), "HagicodeUpdateBulletin") {
		t.Fatalf("expected missing clips error, got %v", res.PostProcessErr)
	}
	if len(f.post.calls) != 0 {
		t.Fatalf("post-processing ran without clips")
	}
}

func TestRenderCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Render(ctx, "public/data/release.yaml", Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	assertNoProps(t, f.tempDir)
}

func TestTailLines(t *testing.T) {
	out := []byte("a\nb\nc\nd\n")
	if got := tailLines(out, 2); got != "c\nd" {
		t.Fatalf("tailLines = %q", got)
	}
	if got := tailLines(nil, 2); got != "" {
		t.Fatalf("tailLines(nil) = %q", got)
	}
}
