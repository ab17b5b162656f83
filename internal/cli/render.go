package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bulletin/internal/logx"
	"bulletin/internal/pipeline"
	"bulletin/internal/render"
	"bulletin/internal/runner"
	"bulletin/internal/tui"
)

const rendererTitle = "🎬 Update Bulletin Renderer"

var (
	renderOutput      string
	renderComposition string
	renderSkipAudio   bool
	renderVerbose     bool
	renderNoProgress  bool
)

func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output video path (default from config: out/myvideo.mp4)")
	cmd.Flags().StringVar(&renderComposition, "composition", "", "Override the composition ID")
	cmd.Flags().BoolVar(&renderSkipAudio, "skip-audio", false, "Skip FFmpeg post-processing (concatenation and background music)")
	cmd.Flags().BoolVar(&renderVerbose, "verbose", false, "Stream tool output and debug logs to the terminal")
	cmd.Flags().BoolVar(&renderNoProgress, "no-progress", false, "Disable interactive progress output")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	pp, cfg, err := loadProject()
	if err != nil {
		return err
	}

	logOpts := logx.Options{Dir: pp.LogsDir, Level: cfg.Logging.Level}
	if renderVerbose {
		logOpts.Console = stderr
		logOpts.Level = "debug"
	}
	logger, closer, err := logx.New(logOpts)
	if err != nil {
		return err
	}
	defer closer.Close()

	dataFile := cfg.Data.DefaultFile
	if len(args) == 1 {
		dataFile = pp.Rel(args[0])
	}

	loader := newLoader(pp)
	loader.Logger = logger
	svc := &render.Service{
		Root:    pp.Root,
		Config:  cfg,
		Loader:  loader,
		Runner:  runner.CmdRunner{},
		Logger:  logger,
		Stdout:  stdout,
		Stderr:  stderr,
		TempDir: os.TempDir(),
	}
	opts := render.Options{
		Output:      renderOutput,
		Composition: renderComposition,
		SkipAudio:   renderSkipAudio,
		Verbose:     renderVerbose,
	}
	logger.Info("render requested", "data_file", dataFile, "composition", opts.Composition,
		"skip_audio", opts.SkipAudio, "project", pp.Root)

	watch := &stageWatch{}
	var res render.Result
	mode := tui.DetectMode(stdout, renderNoProgress, renderVerbose)
	if mode == tui.ModeTUI {
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		model := tui.NewStageModel(rendererTitle, pipeline.Stages()).OnInterrupt(cancel)
		err = tui.RunWithWork(stdout, model, func(rep pipeline.Reporter) error {
			watch.next = rep
			svc.Reporter = watch
			var renderErr error
			res, renderErr = svc.Render(runCtx, dataFile, opts)
			return renderErr
		})
	} else {
		fmt.Fprintln(stdout, tui.TitleStyle.Render(rendererTitle))
		fmt.Fprintln(stdout)
		watch.next = tui.NewLineReporter(stdout)
		svc.Reporter = watch
		res, err = svc.Render(ctx, dataFile, opts)
	}

	if err != nil {
		logger.Error("render failed", "error", err)
		printFailure(stderr, "Render failed", err)
		return &reportedError{err: err}
	}

	printRenderSummary(stdout, stderr, res, watch)
	logger.Info("render finished", "output", res.OutputPath, "post_processed", res.PostProcessed)
	return nil
}

// stageWatch forwards events and remembers warnings for the final summary.
type stageWatch struct {
	next pipeline.Reporter

	mu       sync.Mutex
	warnings map[pipeline.Stage]string
}

func (w *stageWatch) Report(e pipeline.Event) {
	if e.Status == pipeline.StatusWarning {
		w.mu.Lock()
		if w.warnings == nil {
			w.warnings = make(map[pipeline.Stage]string)
		}
		w.warnings[e.Stage] = e.Detail
		w.mu.Unlock()
	}
	pipeline.Or(w.next).Report(e)
}

func (w *stageWatch) warning(stage pipeline.Stage) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	detail, ok := w.warnings[stage]
	return detail, ok
}

func printRenderSummary(stdout, stderr io.Writer, res render.Result, watch *stageWatch) {
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, tui.SuccessStyle.Render("✓ Data file loaded successfully"))
	fmt.Fprintln(stdout, tui.FaintStyle.Render("  File: "+res.SourcePath))
	fmt.Fprintln(stdout, tui.FaintStyle.Render("  Composition: "+res.CompositionID))
	fmt.Fprintln(stdout, tui.SuccessStyle.Render("✓ Main video rendered successfully"))

	switch {
	case res.PostProcessErr != nil:
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, tui.WarningStyle.Render("⚠ FFmpeg post-processing failed:"))
		fmt.Fprintln(stderr, tui.WarningStyle.Render("  "+indentContinuation(res.PostProcessErr.Error())))
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, tui.FaintStyle.Render("Tip: Use --skip-audio to skip post-processing"))
		fmt.Fprintln(stdout, tui.FaintStyle.Render("Tip: Install FFmpeg: https://ffmpeg.org/download.html"))
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, tui.FaintStyle.Render("The main video is still available at: "+res.OutputPath))
	case res.PostProcessed:
		if detail, ok := watch.warning(pipeline.StageMix); ok {
			fmt.Fprintln(stderr)
			fmt.Fprintln(stderr, tui.WarningStyle.Render("⚠ Background music addition failed"))
			if detail != "" {
				fmt.Fprintln(stderr, tui.WarningStyle.Render("  "+indentContinuation(detail)))
			}
			fmt.Fprintln(stdout, tui.FaintStyle.Render("Falling back to concatenated video without background music..."))
			fmt.Fprintln(stdout, tui.FaintStyle.Render("Tip: The video still has header + main content + tail"))
		}
		fmt.Fprintln(stdout, tui.SuccessStyle.Render("✓ Post-processing completed"))
		fmt.Fprintln(stdout, tui.FaintStyle.Render("  Final output: "+res.OutputPath+sizeSuffix(res.OutputPath)))
	default:
		fmt.Fprintln(stdout, tui.FaintStyle.Render("Skipped FFmpeg post-processing"))
		fmt.Fprintln(stdout, tui.FaintStyle.Render("  Output: "+res.OutputPath+sizeSuffix(res.OutputPath)))
	}
	fmt.Fprintln(stdout)
}

func sizeSuffix(path string) string {
	info, err := os.Stat(path)
	if err != nil || info.Size() <= 0 {
		return ""
	}
	return " (" + humanize.Bytes(uint64(info.Size())) + ")"
}
