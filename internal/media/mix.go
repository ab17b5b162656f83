package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bulletin/internal/runner"
)

const (
	DefaultVolume  = 0.3
	DefaultFadeOut = 3 * time.Second
)

// MixOptions tunes the background track. Zero values select the defaults.
type MixOptions struct {
	Volume  float64
	FadeOut time.Duration
}

func (o MixOptions) withDefaults() MixOptions {
	if o.Volume <= 0 {
		o.Volume = DefaultVolume
	}
	if o.FadeOut <= 0 {
		o.FadeOut = DefaultFadeOut
	}
	return o
}

// DurationProber is satisfied by Prober.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Mixer lays a background music track under a video and fades it out at the
// end.
type Mixer struct {
	Runner     runner.Runner
	FFmpeg     string
	Prober     DurationProber
	Verbose    bool
	OnProgress func(line string)
	Logger     *slog.Logger
}

// Mix writes video with audio mixed in to output. Every failure is an
// *AudioMixError.
func (m Mixer) Mix(ctx context.Context, video, audio, output string, opts MixOptions) error {
	opts = opts.withDefaults()

	absVideo, absAudio, absOutput := absPath(video), absPath(audio), absPath(output)
	if _, err := os.Stat(absVideo); err != nil {
		return &AudioMixError{Reason: MixMissingInput, Detail: "video file not found: " + absVideo, Err: err}
	}
	if _, err := os.Stat(absAudio); err != nil {
		return &AudioMixError{Reason: MixMissingInput, Detail: "audio file not found: " + absAudio, Err: err}
	}

	prober := m.Prober
	if prober == nil {
		prober = Prober{Runner: m.Runner}
	}
	duration, err := prober.Duration(ctx, absVideo)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return &AudioMixError{Reason: MixProbe, Detail: "could not read video duration: " + err.Error(), Err: err}
	}

	fade := opts.FadeOut.Seconds()
	fadeStart := math.Max(0, duration-fade)
	args := []string{
		"-i", absVideo,
		"-i", absAudio,
		"-filter_complex", MixFilter(opts.Volume, fadeStart, fade),
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		"-y",
		absOutput,
	}
	bin := orDefault(m.FFmpeg, "ffmpeg")
	logger(m.Logger).Debug("mix background music",
		"video", absVideo,
		"audio", absAudio,
		"output", absOutput,
		"volume", opts.Volume,
		"duration_s", duration,
		"fade_start_s", fadeStart,
		"command", runner.FormatCommand(bin, args),
	)

	run := m.Runner
	if run == nil {
		run = runner.CmdRunner{}
	}
	res, err := run.Run(ctx, bin, args, progressOptions(m.Verbose, m.OnProgress))
	if err != nil {
		var spawnErr *runner.ProcessSpawnError
		if errors.As(err, &spawnErr) {
			return &AudioMixError{Reason: MixSpawn, Detail: spawnErr.Error(), Err: err}
		}
		return err
	}
	if res.ExitCode != 0 {
		return classifyMixFailure(string(res.Stderr), res.ExitCode, absVideo, absAudio)
	}
	return nil
}

// MixFilter builds the audio filter graph: gain, then a linear fade out.
func MixFilter(volume, fadeStart, fade float64) string {
	return fmt.Sprintf("[1:a]volume=%s,afade=t=out:st=%s:d=%s[aout]",
		formatFloat(volume), formatFloat(fadeStart), formatFloat(fade))
}

func classifyMixFailure(stderr string, exitCode int, video, audio string) *AudioMixError {
	switch {
	case strings.Contains(stderr, "No such file or directory"):
		return &AudioMixError{
			Reason:   MixMissingInput,
			Detail:   fmt.Sprintf("input file not found. Video: %s, Audio: %s", video, audio),
			ExitCode: exitCode,
		}
	case strings.Contains(stderr, "Invalid data"):
		return &AudioMixError{Reason: MixInvalidFormat, Detail: "invalid audio format", ExitCode: exitCode}
	default:
		return &AudioMixError{
			Reason:   MixUnknown,
			Detail:   fmt.Sprintf("unknown ffmpeg error (exit code %d)", exitCode),
			ExitCode: exitCode,
		}
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
