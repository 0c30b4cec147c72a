package buffer

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoChannels is returned when a source is built without channel data.
	ErrNoChannels = errors.New("buffer: source needs at least one channel")
	// ErrRaggedChannels is returned when channels differ in length.
	ErrRaggedChannels = errors.New("buffer: channels must have equal length")
	// ErrInvalidSampleRate is returned for a non-positive or non-finite rate.
	ErrInvalidSampleRate = errors.New("buffer: sample rate must be positive and finite")
)

// Source is a decoded recording: planar samples, sample rate and duration.
// It is never mutated after construction and may be shared read-only across
// the control and render paths.
type Source struct {
	channels   [][]float64
	sampleRate float64
	frames     int
}

// NewSource takes ownership of channels. Callers must not modify the slices
// afterwards.
func NewSource(channels [][]float64, sampleRate float64) (*Source, error) {
	if len(channels) == 0 {
		return nil, ErrNoChannels
	}

	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: %f", ErrInvalidSampleRate, sampleRate)
	}

	frames := len(channels[0])
	for i, ch := range channels {
		if len(ch) != frames {
			return nil, fmt.Errorf("%w: channel %d has %d samples, want %d", ErrRaggedChannels, i, len(ch), frames)
		}
	}

	return &Source{channels: channels, sampleRate: sampleRate, frames: frames}, nil
}

// FromInterleaved splits interleaved samples into a planar Source. A trailing
// partial frame is dropped.
func FromInterleaved(samples []float32, numChannels int, sampleRate float64) (*Source, error) {
	if numChannels <= 0 {
		return nil, ErrNoChannels
	}

	frames := len(samples) / numChannels
	channels := make([][]float64, numChannels)
	for c := range channels {
		channels[c] = make([]float64, frames)
	}

	for f := 0; f < frames; f++ {
		base := f * numChannels
		for c := 0; c < numChannels; c++ {
			channels[c][f] = float64(samples[base+c])
		}
	}

	return NewSource(channels, sampleRate)
}

// Channels returns the channel count.
func (s *Source) Channels() int { return len(s.channels) }

// Frames returns the number of samples per channel.
func (s *Source) Frames() int { return s.frames }

// SampleRate returns the sample rate in Hz.
func (s *Source) SampleRate() float64 { return s.sampleRate }

// Duration returns the length in seconds.
func (s *Source) Duration() float64 { return float64(s.frames) / s.sampleRate }

// Channel returns the samples of channel i. The slice is shared; treat it as
// read-only.
func (s *Source) Channel(i int) []float64 { return s.channels[i] }
