// Package postprocess joins the rendered video with its header and tail
// clips and lays background music under the result.
package postprocess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"bulletin/internal/fileutil"
	"bulletin/internal/media"
	"bulletin/internal/pipeline"
	"bulletin/internal/runner"
	"bulletin/internal/tools"
)

const scratchDirName = ".tmp"

type Concatenator interface {
	Concatenate(ctx context.Context, header, main, tail, output string) error
}

type Mixer interface {
	Mix(ctx context.Context, video, audio, output string, opts media.MixOptions) error
}

type Options struct {
	HeaderPath  string
	TailPath    string
	AudioPath   string
	AudioVolume float64
	FadeOut     time.Duration
	SkipAudio   bool
	Verbose     bool
}

// Processor runs the post-processing steps. Concatenator and Mixer default
// to the ffmpeg implementations in package media.
type Processor struct {
	Runner       runner.Runner
	FFmpeg       string
	FFprobe      string
	Concatenator Concatenator
	Mixer        Mixer
	Reporter     pipeline.Reporter
	Logger       *slog.Logger
}

// Process concatenates header, main and tail into finalPath and mixes in the
// background track. Mixing is best effort: when it fails the concatenated
// video is delivered instead and no error is returned. mainPath may equal
// finalPath.
func (p *Processor) Process(ctx context.Context, mainPath, finalPath string, opts Options) (string, error) {
	rep := pipeline.Or(p.Reporter)
	log := p.logger()

	rep.Report(pipeline.Event{Stage: pipeline.StagePreflight, Status: pipeline.StatusRunning})
	if err := p.preflight(ctx, mainPath, opts); err != nil {
		rep.Report(pipeline.Event{Stage: pipeline.StagePreflight, Status: pipeline.StatusFailed, Detail: err.Error()})
		return "", err
	}
	rep.Report(pipeline.Event{Stage: pipeline.StagePreflight, Status: pipeline.StatusDone})

	outDir := filepath.Dir(finalPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure output dir: %w", err)
	}

	lock := flock.New(filepath.Join(outDir, scratchDirName+".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return "", fmt.Errorf("lock scratch dir: %w", err)
	}
	if !locked {
		return "", ErrScratchBusy
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("unlock scratch dir", "error", err)
		}
		if err := os.Remove(lock.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Debug("remove scratch lock", "path", lock.Path(), "error", err)
		}
	}()

	scratch := filepath.Join(outDir, scratchDirName)
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}

	runID := uuid.NewString()
	concatenated := filepath.Join(scratch, "concatenated-"+runID+".mp4")

	rep.Report(pipeline.Event{Stage: pipeline.StageConcat, Status: pipeline.StatusRunning})
	if err := p.concatenator(opts).Concatenate(ctx, opts.HeaderPath, mainPath, opts.TailPath, concatenated); err != nil {
		rep.Report(pipeline.Event{Stage: pipeline.StageConcat, Status: pipeline.StatusFailed, Detail: err.Error()})
		p.purge(scratch)
		return "", fmt.Errorf("concatenate videos: %w", err)
	}
	rep.Report(pipeline.Event{Stage: pipeline.StageConcat, Status: pipeline.StatusDone})

	source := concatenated
	mixed := filepath.Join(scratch, "final-"+runID+".mp4")
	if opts.SkipAudio {
		rep.Report(pipeline.Event{Stage: pipeline.StageMix, Status: pipeline.StatusSkipped})
	} else {
		rep.Report(pipeline.Event{Stage: pipeline.StageMix, Status: pipeline.StatusRunning})
		mixOpts := media.MixOptions{Volume: opts.AudioVolume, FadeOut: opts.FadeOut}
		if err := p.mixer(opts).Mix(ctx, concatenated, opts.AudioPath, mixed, mixOpts); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				p.purge(scratch)
				return "", ctxErr
			}
			log.Warn("background music failed, keeping video without music", "audio", opts.AudioPath, "error", err)
			rep.Report(pipeline.Event{Stage: pipeline.StageMix, Status: pipeline.StatusWarning, Detail: err.Error()})
		} else {
			source = mixed
			rep.Report(pipeline.Event{Stage: pipeline.StageMix, Status: pipeline.StatusDone})
		}
	}

	rep.Report(pipeline.Event{Stage: pipeline.StageFinalize, Status: pipeline.StatusRunning})
	if err := fileutil.ReplaceFile(source, finalPath); err != nil {
		rep.Report(pipeline.Event{Stage: pipeline.StageFinalize, Status: pipeline.StatusFailed, Detail: err.Error()})
		p.purge(scratch)
		return "", fmt.Errorf("move final video: %w", err)
	}
	rep.Report(pipeline.Event{Stage: pipeline.StageFinalize, Status: pipeline.StatusDone, Detail: finalPath})

	p.cleanup(scratch, concatenated, mixed)
	return finalPath, nil
}

func (p *Processor) preflight(ctx context.Context, mainPath string, opts Options) error {
	ffmpeg := tools.Definition{Name: "ffmpeg", Command: []string{p.ffmpeg()}, VersionSwitch: "-version"}
	if err := tools.CheckAvailable(ctx, p.runner(), ffmpeg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &ToolUnavailableError{Tool: "ffmpeg", Hints: tools.InstallHints("ffmpeg"), Err: err}
	}

	inputs := []struct{ name, path string }{
		{"Header video", opts.HeaderPath},
		{"Main video", mainPath},
		{"Tail video", opts.TailPath},
	}
	if !opts.SkipAudio {
		inputs = append(inputs, struct{ name, path string }{"Background audio", opts.AudioPath})
	}
	for _, in := range inputs {
		if in.path == "" {
			return &MissingInputError{Name: in.name, Path: "(not configured)"}
		}
		if _, err := os.Stat(in.path); err != nil {
			return &MissingInputError{Name: in.name, Path: in.path}
		}
	}
	return nil
}

// cleanup removes intermediates and the scratch dir if it is empty. Failures
// are logged only.
func (p *Processor) cleanup(scratch string, files ...string) {
	log := p.logger()
	for _, f := range files {
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("remove intermediate file", "path", f, "error", err)
		}
	}
	entries, err := os.ReadDir(scratch)
	if err != nil {
		log.Debug("read scratch dir", "path", scratch, "error", err)
		return
	}
	if len(entries) > 0 {
		log.Debug("scratch dir not empty, leaving it", "path", scratch, "entries", len(entries))
		return
	}
	if err := os.Remove(scratch); err != nil {
		log.Debug("remove scratch dir", "path", scratch, "error", err)
	}
}

// purge deletes the scratch directory and everything in it.
func (p *Processor) purge(scratch string) {
	if err := os.RemoveAll(scratch); err != nil {
		p.logger().Warn("purge scratch dir", "path", scratch, "error", err)
	}
}

func (p *Processor) concatenator(opts Options) Concatenator {
	if p.Concatenator != nil {
		return p.Concatenator
	}
	return media.Concatenator{
		Runner:     p.runner(),
		FFmpeg:     p.ffmpeg(),
		Verbose:    opts.Verbose,
		OnProgress: p.progress(pipeline.StageConcat),
		Logger:     p.logger(),
	}
}

func (p *Processor) mixer(opts Options) Mixer {
	if p.Mixer != nil {
		return p.Mixer
	}
	return media.Mixer{
		Runner:     p.runner(),
		FFmpeg:     p.ffmpeg(),
		Prober:     media.Prober{Runner: p.runner(), FFprobe: p.FFprobe},
		Verbose:    opts.Verbose,
		OnProgress: p.progress(pipeline.StageMix),
		Logger:     p.logger(),
	}
}

func (p *Processor) progress(stage pipeline.Stage) func(string) {
	rep := pipeline.Or(p.Reporter)
	return func(line string) {
		rep.Report(pipeline.Event{Stage: stage, Status: pipeline.StatusRunning, Detail: line})
	}
}

func (p *Processor) runner() runner.Runner {
	if p.Runner == nil {
		return runner.CmdRunner{}
	}
	return p.Runner
}

func (p *Processor) ffmpeg() string {
	if p.FFmpeg == "" {
		return "ffmpeg"
	}
	return p.FFmpeg
}

func (p *Processor) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}
