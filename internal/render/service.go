// Package render drives the external video renderer and hands its output to
// post-processing.
package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"bulletin/internal/config"
	"bulletin/internal/pipeline"
	"bulletin/internal/postprocess"
	"bulletin/internal/runner"
	"bulletin/pkg/bulletin"
)

// Loader loads and validates a bulletin data file relative to the project
// root.
type Loader interface {
	Load(relativePath string, opts bulletin.LoadOptions) (bulletin.LoadedConfig, error)
}

// PostProcessor wraps the rendered video with its clips and music.
type PostProcessor interface {
	Process(ctx context.Context, mainPath, finalPath string, opts postprocess.Options) (string, error)
}

// Service renders one bulletin video per call.
type Service struct {
	// Root is the project directory; relative paths resolve against it and
	// the render tool runs inside it.
	Root          string
	Config        config.Config
	Loader        Loader
	Runner        runner.Runner
	PostProcessor PostProcessor
	Reporter      pipeline.Reporter
	Logger        *slog.Logger
	// Stdout and Stderr receive child output in verbose mode.
	Stdout io.Writer
	Stderr io.Writer
	// TempDir holds the props handoff file. Empty means os.TempDir().
	TempDir string
}

// Options controls a single render.
type Options struct {
	// Output overrides the configured output path.
	Output string
	// Composition overrides composition inference.
	Composition string
	// SkipAudio skips post-processing entirely.
	SkipAudio bool
	Verbose   bool
}

// Result describes a finished render.
type Result struct {
	CompositionID string
	SourcePath    string
	OutputPath    string
	Data          bulletin.Data
	// PostProcessed is true when the clips were joined into the output.
	PostProcessed bool
	// PostProcessErr is set when post-processing failed. The rendered main
	// video is still at OutputPath.
	PostProcessErr error
}

// Render loads dataFile, runs the render tool and post-processes the result.
func (s *Service) Render(ctx context.Context, dataFile string, opts Options) (Result, error) {
	rep := pipeline.Or(s.Reporter)
	log := s.logger()

	if dataFile == "" {
		dataFile = s.Config.Data.DefaultFile
	}

	rep.Report(pipeline.Event{Stage: pipeline.StageLoad, Status: pipeline.StatusRunning, Detail: dataFile})
	loaded, err := s.loader().Load(dataFile, bulletin.LoadOptions{CompositionOverride: opts.Composition})
	if err != nil {
		rep.Report(pipeline.Event{Stage: pipeline.StageLoad, Status: pipeline.StatusFailed, Detail: err.Error()})
		return Result{}, err
	}
	rep.Report(pipeline.Event{Stage: pipeline.StageLoad, Status: pipeline.StatusDone, Detail: loaded.CompositionID})

	result := Result{
		CompositionID: loaded.CompositionID,
		SourcePath:    loaded.SourcePath,
		OutputPath:    s.outputPath(opts.Output),
		Data:          loaded.Data,
	}
	log = log.With("composition", result.CompositionID, "output", result.OutputPath)

	if err := os.MkdirAll(filepath.Dir(result.OutputPath), 0o755); err != nil {
		return result, fmt.Errorf("create output directory: %w", err)
	}

	rep.Report(pipeline.Event{Stage: pipeline.StageRender, Status: pipeline.StatusRunning})
	if err := s.runRenderTool(ctx, loaded, result.OutputPath, opts.Verbose); err != nil {
		rep.Report(pipeline.Event{Stage: pipeline.StageRender, Status: pipeline.StatusFailed, Detail: err.Error()})
		return result, err
	}
	rep.Report(pipeline.Event{Stage: pipeline.StageRender, Status: pipeline.StatusDone, Detail: result.OutputPath})
	log.Info("main video rendered")

	if opts.SkipAudio {
		for _, stage := range []pipeline.Stage{pipeline.StagePreflight, pipeline.StageConcat, pipeline.StageMix, pipeline.StageFinalize} {
			rep.Report(pipeline.Event{Stage: stage, Status: pipeline.StatusSkipped})
		}
		log.Info("post-processing skipped")
		return result, nil
	}

	ppOpts, err := s.postOptions(result.CompositionID, opts.Verbose)
	if err == nil {
		_, err = s.postProcessor().Process(ctx, result.OutputPath, result.OutputPath, ppOpts)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		log.Warn("post-processing failed, main video kept", "error", err)
		result.PostProcessErr = err
		return result, nil
	}
	result.PostProcessed = true
	log.Info("post-processing complete")
	return result, nil
}

func (s *Service) runRenderTool(ctx context.Context, loaded bulletin.LoadedConfig, output string, verbose bool) error {
	if len(s.Config.Render.Command) == 0 || s.Config.Render.Command[0] == "" {
		return errors.New("render command is not configured")
	}

	propsPath, err := s.writeProps(loaded.Data)
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(propsPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger().Warn("remove props file", "path", propsPath, "error", err)
		}
	}()

	exe := s.Config.Render.Command[0]
	args := append([]string{}, s.Config.Render.Command[1:]...)
	args = append(args,
		"render", loaded.CompositionID,
		"--props="+propsPath,
		"--output="+output,
		"--overwrite",
	)
	s.logger().Debug("running render tool", "command", runner.FormatCommand(exe, args))

	runOpts := runner.Options{Dir: s.Root}
	if verbose {
		runOpts.Stdio = runner.Inherit
		runOpts.Stdout = s.Stdout
		runOpts.Stderr = s.Stderr
		if s.Stdout != nil {
			fmt.Fprintf(s.Stdout, "$ %s\n", runner.FormatCommand(exe, args))
		}
	} else {
		rep := pipeline.Or(s.Reporter)
		progress := func(line string) {
			rep.Report(pipeline.Event{Stage: pipeline.StageRender, Status: pipeline.StatusRunning, Detail: line})
		}
		runOpts.OnStdout = progress
		runOpts.OnStderr = progress
	}

	res, err := s.runner().Run(ctx, exe, args, runOpts)
	if err != nil {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if res.ExitCode != 0 {
		return &ToolExitError{Tool: exe, ExitCode: res.ExitCode, Output: tailLines(res.Stderr, outputTailLines)}
	}
	return nil
}

// writeProps stores data as the render tool's input props.
func (s *Service) writeProps(data bulletin.Data) (string, error) {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode props: %w", err)
	}
	dir := s.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "remotion-props-"+uuid.NewString()+".json")
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return "", fmt.Errorf("write props file: %w", err)
	}
	return path, nil
}

func (s *Service) postOptions(compositionID string, verbose bool) (postprocess.Options, error) {
	comp, ok := s.Config.Composition(compositionID)
	if !ok {
		return postprocess.Options{}, fmt.Errorf("no header and tail clips configured for composition %s", compositionID)
	}
	return postprocess.Options{
		HeaderPath:  config.ResolvePath(s.Root, comp.Header),
		TailPath:    config.ResolvePath(s.Root, comp.Tail),
		AudioPath:   config.ResolvePath(s.Root, s.Config.Audio.Path),
		AudioVolume: s.Config.Audio.Volume,
		FadeOut:     time.Duration(s.Config.Audio.FadeOutSec * float64(time.Second)),
		Verbose:     verbose,
	}, nil
}

func (s *Service) outputPath(override string) string {
	out := override
	if out == "" {
		out = s.Config.Output.DefaultPath
	}
	out = config.ResolvePath(s.Root, out)
	if abs, err := filepath.Abs(out); err == nil {
		return abs
	}
	return out
}

func (s *Service) loader() Loader {
	if s.Loader == nil {
		return bulletin.NewLoader(s.Root)
	}
	return s.Loader
}

func (s *Service) runner() runner.Runner {
	if s.Runner == nil {
		return runner.CmdRunner{}
	}
	return s.Runner
}

func (s *Service) postProcessor() PostProcessor {
	if s.PostProcessor != nil {
		return s.PostProcessor
	}
	return &postprocess.Processor{
		Runner:   s.runner(),
		FFmpeg:   s.Config.Tools.FFmpeg,
		FFprobe:  s.Config.Tools.FFprobe,
		Reporter: s.Reporter,
		Logger:   s.logger(),
	}
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
