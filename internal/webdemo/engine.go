// Package webdemo hosts a playback controller for the browser demo. The
// js/wasm bridge in web/wasm forwards calls to an Engine; everything here
// builds and tests on any platform.
package webdemo

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-stretch/dsp/buffer"
	"github.com/cwbudde/algo-stretch/dsp/core"
	"github.com/cwbudde/algo-stretch/dsp/resample"
	"github.com/cwbudde/algo-stretch/player"
)

const outputChannels = 2

// ErrNotLoaded is returned by transport calls before Load.
var ErrNotLoaded = errors.New("webdemo: no audio loaded")

// Status is a snapshot of the transport for the UI.
type Status struct {
	Loaded    bool
	Playing   bool
	Position  float64
	Duration  float64
	Rate      float64
	Looping   bool
	LoopStart float64
	LoopEnd   float64
	Volume    float64
	Error     string
}

// Engine renders the loaded recording as interleaved stereo float32 blocks
// for an AudioWorklet.
type Engine struct {
	sampleRate float64
	volume     float64
	lastErr    error

	ctrl     *player.Controller
	blk      *buffer.Block
	analyzer *analyzer
}

// NewEngine creates an engine for an audio context running at sampleRate.
func NewEngine(sampleRate float64) (*Engine, error) {
	if !core.IsFinitePositive(sampleRate) {
		return nil, fmt.Errorf("sample rate must be > 0: %f", sampleRate)
	}

	a, err := newAnalyzer(sampleRate)
	if err != nil {
		return nil, err
	}

	return &Engine{
		sampleRate: sampleRate,
		volume:     0.8,
		analyzer:   a,
	}, nil
}

// Load replaces the recording with interleaved samples, resampling them to
// the context rate when needed. Playback rate and volume carry over.
func (e *Engine) Load(interleaved []float32, channels int, sampleRate float64) error {
	src, err := buffer.FromInterleaved(interleaved, channels, sampleRate)
	if err != nil {
		return err
	}

	if src, err = resample.Source(src, e.sampleRate); err != nil {
		return fmt.Errorf("webdemo: %w", err)
	}

	ctrl, err := player.New(src)
	if err != nil {
		return err
	}

	if e.ctrl != nil {
		if err := ctrl.SetPlaybackRate(e.ctrl.PlaybackRate()); err != nil {
			return err
		}
	}

	e.ctrl = ctrl
	e.blk = buffer.NewBlock(ctrl.Channels(), ctrl.MaxBlockSize())
	e.lastErr = nil
	e.analyzer.reset()

	return nil
}

// Play starts playback, optionally from offset seconds when offset >= 0.
func (e *Engine) Play(offset float64) error {
	if e.ctrl == nil {
		return ErrNotLoaded
	}
	if offset >= 0 {
		e.ctrl.PlayFrom(offset)
	} else {
		e.ctrl.Play()
	}
	e.lastErr = nil
	return nil
}

// Stop pauses playback at the current position.
func (e *Engine) Stop() {
	if e.ctrl != nil {
		e.ctrl.Stop()
	}
}

// Seek moves the playhead to seconds.
func (e *Engine) Seek(seconds float64) error {
	if e.ctrl == nil {
		return ErrNotLoaded
	}
	e.ctrl.Seek(seconds)
	return nil
}

// SetLoop sets the loop region in seconds.
func (e *Engine) SetLoop(start, end float64) error {
	if e.ctrl == nil {
		return ErrNotLoaded
	}
	return e.ctrl.Loop(start, end)
}

// Unloop removes the loop region.
func (e *Engine) Unloop() {
	if e.ctrl != nil {
		e.ctrl.Unloop()
	}
}

// SetRate sets the playback rate.
func (e *Engine) SetRate(rate float64) error {
	if e.ctrl == nil {
		return ErrNotLoaded
	}
	return e.ctrl.SetPlaybackRate(rate)
}

// SetVolume sets the linear output gain, clamped to [0, 1].
func (e *Engine) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	e.volume = core.Clamp(v, 0, 1)
}

// Render fills dst with interleaved stereo PCM. A trailing odd sample is
// zeroed.
func (e *Engine) Render(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
	if e.ctrl == nil {
		return
	}

	frames := len(dst) / outputChannels
	for off := 0; off < frames; {
		n := min(frames-off, e.blk.Capacity())
		e.blk.Resize(n)

		if err := e.ctrl.RenderBlock(e.blk.Planes()); err != nil {
			e.lastErr = err
		}

		e.blk.Scale(e.volume)
		e.analyzer.push(e.blk.Planes())
		e.blk.Interleave(dst[off*outputChannels:], outputChannels)

		off += n
	}
}

// Status returns the transport snapshot.
func (e *Engine) Status() Status {
	st := Status{Volume: e.volume}
	if e.lastErr != nil {
		st.Error = e.lastErr.Error()
	}
	if e.ctrl == nil {
		return st
	}

	st.Loaded = true
	st.Playing = e.ctrl.IsPlaying()
	st.Position = e.ctrl.Position()
	st.Duration = e.ctrl.Duration()
	st.Rate = e.ctrl.PlaybackRate()
	if r, ok := e.ctrl.LoopRegion(); ok {
		st.Looping, st.LoopStart, st.LoopEnd = true, r.Start, r.End
	}

	return st
}

// DominantFrequency returns the strongest frequency in the most recently
// rendered audio, or 0 when there is not enough signal.
func (e *Engine) DominantFrequency() float64 {
	return e.analyzer.dominant()
}
