package core

import (
	"fmt"
	"math"
)

const (
	minFrameSize = 64
	maxFrameSize = 1 << 16
)

// ProcessorConfig holds the time-stretch processing settings shared by the
// vocoder, the stretch engine and the playback controller.
type ProcessorConfig struct {
	// FrameSize is the STFT length in samples (power of two).
	FrameSize int
	// Overlap is frameSize / analysisHop.
	Overlap int
	// BlockSize is the largest render block the host will request.
	BlockSize int
	// MinAlpha and MaxAlpha bound the stretch ratio (output/input duration).
	MinAlpha float64
	MaxAlpha float64
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns defaults suited to music playback at 44.1/48 kHz.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		FrameSize: 2048,
		Overlap:   8,
		BlockSize: 4096,
		MinAlpha:  0.125,
		MaxAlpha:  4,
	}
}

// WithFrameSize sets the STFT frame size.
func WithFrameSize(frameSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if frameSize > 0 {
			cfg.FrameSize = frameSize
		}
	}
}

// WithOverlap sets the frame overlap factor (frameSize / analysisHop).
func WithOverlap(overlap int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if overlap > 0 {
			cfg.Overlap = overlap
		}
	}
}

// WithBlockSize sets the largest render block size.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// WithAlphaRange sets the stretch ratio clamp range.
func WithAlphaRange(minAlpha, maxAlpha float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if IsFinitePositive(minAlpha) && IsFinitePositive(maxAlpha) && minAlpha <= maxAlpha {
			cfg.MinAlpha = minAlpha
			cfg.MaxAlpha = maxAlpha
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// AnalysisHop returns frameSize / overlap.
func (cfg ProcessorConfig) AnalysisHop() int {
	if cfg.Overlap <= 0 {
		return cfg.FrameSize
	}
	return cfg.FrameSize / cfg.Overlap
}

// EffectiveAlphaRange returns the alpha range actually applied. The upper
// bound is capped at overlap/2 so the synthesis hop never exceeds half a
// frame and every output sample is covered by at least two frames.
func (cfg ProcessorConfig) EffectiveAlphaRange() (minAlpha, maxAlpha float64) {
	minAlpha, maxAlpha = cfg.MinAlpha, cfg.MaxAlpha
	if limit := float64(cfg.Overlap) / 2; cfg.Overlap > 0 && maxAlpha > limit {
		maxAlpha = limit
	}
	if minAlpha > maxAlpha {
		minAlpha = maxAlpha
	}
	return minAlpha, maxAlpha
}

// MaxSynthesisHop returns the largest synthesis hop a vocoder frame can emit.
func (cfg ProcessorConfig) MaxSynthesisHop() int {
	_, maxAlpha := cfg.EffectiveAlphaRange()
	return int(math.Ceil(float64(cfg.AnalysisHop()) * maxAlpha))
}

// Validate reports the first invalid field.
func (cfg ProcessorConfig) Validate() error {
	if cfg.FrameSize < minFrameSize || cfg.FrameSize > maxFrameSize || !IsPowerOf2(cfg.FrameSize) {
		return fmt.Errorf("frame size must be a power of two in [%d, %d]: %d", minFrameSize, maxFrameSize, cfg.FrameSize)
	}

	switch cfg.Overlap {
	case 2, 4, 8, 16:
	default:
		return fmt.Errorf("overlap must be one of 2, 4, 8, 16: %d", cfg.Overlap)
	}

	if cfg.BlockSize <= 0 {
		return fmt.Errorf("block size must be > 0: %d", cfg.BlockSize)
	}

	if !IsFinitePositive(cfg.MinAlpha) || !IsFinitePositive(cfg.MaxAlpha) || cfg.MinAlpha > cfg.MaxAlpha {
		return fmt.Errorf("alpha range must be positive and ordered: [%f, %f]", cfg.MinAlpha, cfg.MaxAlpha)
	}

	return nil
}
