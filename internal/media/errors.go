package media

import "fmt"

// ProbeError means ffprobe failed or printed something that is not a
// duration.
type ProbeError struct {
	Path     string
	ExitCode int
	Output   string
	Err      error
}

func (e *ProbeError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
	case e.ExitCode != 0:
		return fmt.Sprintf("probe %s: ffprobe exited with code %d: %s", e.Path, e.ExitCode, e.Output)
	default:
		return fmt.Sprintf("probe %s: invalid duration output %q", e.Path, e.Output)
	}
}

func (e *ProbeError) Unwrap() error { return e.Err }

// ConcatenationError reports a nonzero ffmpeg exit while joining clips.
type ConcatenationError struct {
	ExitCode int
	Stderr   string
}

func (e *ConcatenationError) Error() string {
	return fmt.Sprintf("ffmpeg concatenation failed with exit code %d", e.ExitCode)
}

// MixReason classifies an audio mixing failure.
type MixReason string

const (
	MixMissingInput  MixReason = "missing-input"
	MixInvalidFormat MixReason = "invalid-format"
	MixProbe         MixReason = "probe"
	MixSpawn         MixReason = "spawn"
	MixUnknown       MixReason = "unknown"
)

// AudioMixError carries a readable cause for a failed mix.
type AudioMixError struct {
	Reason   MixReason
	Detail   string
	ExitCode int
	Err      error
}

func (e *AudioMixError) Error() string {
	return "ffmpeg audio mixing failed: " + e.Detail
}

func (e *AudioMixError) Unwrap() error { return e.Err }
