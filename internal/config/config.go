package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the optional project configuration file.
const FileName = "bulletin.yaml"

type Config struct {
	Version      int                 `yaml:"version"`
	Data         DataConfig          `yaml:"data"`
	Output       OutputConfig        `yaml:"output"`
	Render       RenderConfig        `yaml:"render"`
	Tools        ToolsConfig         `yaml:"tools"`
	Audio        AudioConfig         `yaml:"audio"`
	Compositions []CompositionConfig `yaml:"compositions"`
	Logging      LoggingConfig       `yaml:"logging"`
}

type DataConfig struct {
	DefaultFile string `yaml:"default_file"`
}

type OutputConfig struct {
	DefaultPath string `yaml:"default_path"`
}

type RenderConfig struct {
	// Command is the render tool invocation without the "render" verb.
	Command []string `yaml:"command"`
}

type ToolsConfig struct {
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
}

type AudioConfig struct {
	Path       string  `yaml:"path"`
	Volume     float64 `yaml:"volume"`
	FadeOutSec float64 `yaml:"fade_out_s"`
}

// CompositionConfig maps a composition id to the clips wrapped around it.
type CompositionConfig struct {
	ID     string `yaml:"id"`
	Header string `yaml:"header"`
	Tail   string `yaml:"tail"`
}

type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		Data: DataConfig{
			DefaultFile: "public/data/update-bulletin/maximum-data.yaml",
		},
		Output: OutputConfig{
			DefaultPath: "out/myvideo.mp4",
		},
		Render: RenderConfig{
			Command: []string{"npx", "remotion"},
		},
		Tools: ToolsConfig{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Audio: AudioConfig{
			Path:       "public/audio/Geometry.mp3",
			Volume:     0.3,
			FadeOutSec: 3,
		},
		Compositions: []CompositionConfig{
			{ID: "HagicodeUpdateBulletin", Header: "public/video/header.mp4", Tail: "public/video/tail.mp4"},
			{ID: "HagicodeReleaseNotesMobile", Header: "public/video/header_mobile.mp4", Tail: "public/video/tail_mobile.mp4"},
		},
		Logging: LoggingConfig{
			Dir:   "logs",
			Level: "info",
		},
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// LoadProject loads <root>/.env into the environment (without overriding
// variables that are already set), then <root>/bulletin.yaml, then applies
// BULLETIN_* overrides.
func LoadProject(root string) (Config, error) {
	envFile := filepath.Join(root, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg, err := Load(filepath.Join(root, FileName))
	if err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyDefaults ensures nested fields fall back to sensible defaults when the
// YAML omits them.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.Data.DefaultFile == "" {
		c.Data.DefaultFile = defaults.Data.DefaultFile
	}
	if c.Output.DefaultPath == "" {
		c.Output.DefaultPath = defaults.Output.DefaultPath
	}
	if len(c.Render.Command) == 0 {
		c.Render.Command = defaults.Render.Command
	}
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaults.Tools.FFmpeg
	}
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaults.Tools.FFprobe
	}
	if c.Audio.Path == "" {
		c.Audio.Path = defaults.Audio.Path
	}
	if c.Audio.Volume == 0 {
		c.Audio.Volume = defaults.Audio.Volume
	}
	if c.Audio.FadeOutSec == 0 {
		c.Audio.FadeOutSec = defaults.Audio.FadeOutSec
	}
	for _, def := range defaults.Compositions {
		if _, ok := c.Composition(def.ID); !ok {
			c.Compositions = append(c.Compositions, def)
		}
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = defaults.Logging.Dir
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
}

// Environment variables that override the file configuration.
const (
	EnvFFmpeg        = "BULLETIN_FFMPEG"
	EnvFFprobe       = "BULLETIN_FFPROBE"
	EnvRenderCommand = "BULLETIN_RENDER_COMMAND"
	EnvAudioPath     = "BULLETIN_AUDIO_PATH"
	EnvAudioVolume   = "BULLETIN_AUDIO_VOLUME"
	EnvLogLevel      = "BULLETIN_LOG_LEVEL"
)

// ApplyEnv overrides fields from environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := nonEmpty(lookup, EnvFFmpeg); ok {
		c.Tools.FFmpeg = v
	}
	if v, ok := nonEmpty(lookup, EnvFFprobe); ok {
		c.Tools.FFprobe = v
	}
	if v, ok := nonEmpty(lookup, EnvRenderCommand); ok {
		c.Render.Command = strings.Fields(v)
	}
	if v, ok := nonEmpty(lookup, EnvAudioPath); ok {
		c.Audio.Path = v
	}
	if v, ok := nonEmpty(lookup, EnvAudioVolume); ok {
		volume, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAudioVolume, err)
		}
		c.Audio.Volume = volume
	}
	if v, ok := nonEmpty(lookup, EnvLogLevel); ok {
		c.Logging.Level = v
	}
	return nil
}

func nonEmpty(lookup func(string) (string, bool), key string) (string, bool) {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Composition returns the configured clips for id.
func (c Config) Composition(id string) (CompositionConfig, bool) {
	for _, comp := range c.Compositions {
		if comp.ID == id {
			return comp, true
		}
	}
	return CompositionConfig{}, false
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}
