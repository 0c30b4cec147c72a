// Package config loads stretchplay settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-stretch/dsp/core"
	"github.com/cwbudde/algo-stretch/dsp/dither"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Output modes.
const (
	ModeDevice = "device"
	ModeWAV    = "wav"
)

type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Output   OutputConfig   `yaml:"output"`
	Playback PlaybackConfig `yaml:"playback"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type EngineConfig struct {
	FrameSize int `yaml:"frame_size"`
	Overlap   int `yaml:"overlap"`
	BlockSize int `yaml:"block_size"`
}

type OutputConfig struct {
	Mode         string  `yaml:"mode"`
	Path         string  `yaml:"path"`
	VolumeDB     float64 `yaml:"volume_db"`
	BitDepth     int     `yaml:"bit_depth"`
	Dither       string  `yaml:"dither"` // none, rpdf or tpdf
	NoiseShaping bool    `yaml:"noise_shaping"`
	BufferMs     int     `yaml:"buffer_ms"`
	SampleRate   int     `yaml:"sample_rate"` // 0 keeps the file's rate
}

type PlaybackConfig struct {
	Rate      float64 `yaml:"rate"`
	Start     float64 `yaml:"start"`
	LoopStart float64 `yaml:"loop_start"`
	LoopEnd   float64 `yaml:"loop_end"`
	Duration  float64 `yaml:"duration"` // seconds of offline output; 0 renders to the end
}

type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in settings.
func Default() *Config {
	proc := core.DefaultProcessorConfig()

	return &Config{
		Engine: EngineConfig{
			FrameSize: proc.FrameSize,
			Overlap:   proc.Overlap,
			BlockSize: proc.BlockSize,
		},
		Output: OutputConfig{
			Mode:     ModeDevice,
			BitDepth: 16,
			BufferMs: 100,
		},
		Playback: PlaybackConfig{Rate: 1},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}

	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Engine.FrameSize = envInt("STRETCHPLAY_FRAME_SIZE", c.Engine.FrameSize)
	c.Engine.Overlap = envInt("STRETCHPLAY_OVERLAP", c.Engine.Overlap)
	c.Engine.BlockSize = envInt("STRETCHPLAY_BLOCK_SIZE", c.Engine.BlockSize)

	c.Output.Mode = envStr("STRETCHPLAY_OUTPUT", c.Output.Mode)
	c.Output.Path = envStr("STRETCHPLAY_OUTPUT_PATH", c.Output.Path)
	c.Output.VolumeDB = envFloat("STRETCHPLAY_VOLUME_DB", c.Output.VolumeDB)
	c.Output.BitDepth = envInt("STRETCHPLAY_BIT_DEPTH", c.Output.BitDepth)
	c.Output.Dither = envStr("STRETCHPLAY_DITHER", c.Output.Dither)
	c.Output.BufferMs = envInt("STRETCHPLAY_BUFFER_MS", c.Output.BufferMs)
	c.Output.SampleRate = envInt("STRETCHPLAY_SAMPLE_RATE", c.Output.SampleRate)

	c.Playback.Rate = envFloat("STRETCHPLAY_RATE", c.Playback.Rate)

	if v := os.Getenv("STRETCHPLAY_VERBOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.Verbose = b
		}
	}
}

// Validate checks every field the player and writers depend on.
func (c *Config) Validate() error {
	if c.Engine.FrameSize <= 0 || c.Engine.Overlap <= 0 || c.Engine.BlockSize <= 0 {
		return fmt.Errorf("%w: engine sizes must be > 0", ErrInvalid)
	}
	if err := core.ApplyProcessorOptions(c.ProcessorOptions()...).Validate(); err != nil {
		return fmt.Errorf("%w: engine: %w", ErrInvalid, err)
	}

	switch c.Output.Mode {
	case ModeDevice:
	case ModeWAV:
		if c.Output.Path == "" {
			return fmt.Errorf("%w: output.path is required for wav output", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: output.mode %q must be %q or %q", ErrInvalid, c.Output.Mode, ModeDevice, ModeWAV)
	}

	if c.Output.BitDepth != 16 && c.Output.BitDepth != 24 {
		return fmt.Errorf("%w: output.bit_depth %d must be 16 or 24", ErrInvalid, c.Output.BitDepth)
	}
	if _, err := dither.ParseType(c.Output.Dither); err != nil {
		return fmt.Errorf("%w: output.dither: %w", ErrInvalid, err)
	}
	if c.Output.BufferMs < 0 {
		return fmt.Errorf("%w: output.buffer_ms %d must be >= 0", ErrInvalid, c.Output.BufferMs)
	}
	if c.Output.SampleRate < 0 {
		return fmt.Errorf("%w: output.sample_rate %d must be >= 0", ErrInvalid, c.Output.SampleRate)
	}
	if math.IsNaN(c.Output.VolumeDB) || math.IsInf(c.Output.VolumeDB, 0) {
		return fmt.Errorf("%w: output.volume_db must be finite", ErrInvalid)
	}

	if !core.IsFinitePositive(c.Playback.Rate) {
		return fmt.Errorf("%w: playback.rate %g must be positive", ErrInvalid, c.Playback.Rate)
	}
	if c.Playback.Start < 0 || c.Playback.Duration < 0 {
		return fmt.Errorf("%w: playback.start and playback.duration must be >= 0", ErrInvalid)
	}

	if c.HasLoop() && (c.Playback.LoopStart < 0 || c.Playback.LoopStart >= c.Playback.LoopEnd) {
		return fmt.Errorf("%w: loop %g-%g must satisfy 0 <= start < end", ErrInvalid, c.Playback.LoopStart, c.Playback.LoopEnd)
	}

	return nil
}

// DitherOptions returns the quantizer options for WAV output. Call it only
// on a validated Config.
func (c *Config) DitherOptions() []dither.Option {
	t, _ := dither.ParseType(c.Output.Dither)

	opts := []dither.Option{dither.WithType(t)}
	if c.Output.NoiseShaping {
		opts = append(opts, dither.WithNoiseShaping())
	}
	return opts
}

// HasLoop reports whether a loop region was configured.
func (c *Config) HasLoop() bool {
	return c.Playback.LoopStart != 0 || c.Playback.LoopEnd != 0
}

// ProcessorOptions returns the engine options matching c.Engine.
func (c *Config) ProcessorOptions() []core.ProcessorOption {
	return []core.ProcessorOption{
		core.WithFrameSize(c.Engine.FrameSize),
		core.WithOverlap(c.Engine.Overlap),
		core.WithBlockSize(c.Engine.BlockSize),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
