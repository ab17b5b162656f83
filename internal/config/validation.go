package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// HasErrors reports whether any result is an error.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}

// Validate checks the configuration for values that would break a render.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateAudio()...)
	results = append(results, c.validateRender()...)
	results = append(results, c.validateCompositions()...)
	results = append(results, c.validateLogging()...)
	return results
}

func (c Config) validateAudio() []ValidationResult {
	var results []ValidationResult
	if c.Audio.Volume < 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("audio.volume must not be negative (got %g)", c.Audio.Volume),
		})
	} else if c.Audio.Volume > 2 {
		results = append(results, ValidationResult{
			Level:   "warning",
			Message: fmt.Sprintf("audio.volume %g will likely clip", c.Audio.Volume),
		})
	}
	if c.Audio.FadeOutSec < 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("audio.fade_out_s must not be negative (got %g)", c.Audio.FadeOutSec),
		})
	}
	return results
}

func (c Config) validateRender() []ValidationResult {
	if len(c.Render.Command) == 0 || strings.TrimSpace(c.Render.Command[0]) == "" {
		return []ValidationResult{{Level: "error", Message: "render.command must name an executable"}}
	}
	return nil
}

func (c Config) validateCompositions() []ValidationResult {
	var results []ValidationResult
	seen := make(map[string]bool, len(c.Compositions))
	for i, comp := range c.Compositions {
		if strings.TrimSpace(comp.ID) == "" {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("compositions[%d] has no id", i),
			})
			continue
		}
		if seen[comp.ID] {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("composition %q is defined more than once", comp.ID),
			})
		}
		seen[comp.ID] = true
		if comp.Header == "" || comp.Tail == "" {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("composition %q needs both header and tail clips", comp.ID),
			})
		}
	}
	return results
}

func (c Config) validateLogging() []ValidationResult {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
		return nil
	}
	return []ValidationResult{{
		Level:   "error",
		Message: fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level),
	}}
}

// ValidateAssets warns about configured clips and tracks missing under root.
func (c Config) ValidateAssets(root string) []ValidationResult {
	var results []ValidationResult
	check := func(label, path string) {
		if path == "" {
			return
		}
		if _, err := os.Stat(ResolvePath(root, path)); err != nil {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("%s %q not found", label, path),
			})
		}
	}
	for _, comp := range c.Compositions {
		check(comp.ID+" header", comp.Header)
		check(comp.ID+" tail", comp.Tail)
	}
	check("background audio", c.Audio.Path)
	return results
}

// ResolvePath joins relative paths onto root.
func ResolvePath(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
