// Package stretch drives one phase vocoder per source channel and turns
// their variable-size output into exact-size render blocks.
package stretch

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-stretch/dsp/buffer"
	"github.com/cwbudde/algo-stretch/dsp/core"
	"github.com/cwbudde/algo-stretch/dsp/ring"
	"github.com/cwbudde/algo-stretch/dsp/vocoder"
)

var (
	// ErrUnderrun is returned when a pull cannot be satisfied in full.
	ErrUnderrun = errors.New("stretch: underrun")
	// ErrChannelMismatch is returned when the destination block does not
	// match the source channel layout.
	ErrChannelMismatch = errors.New("stretch: destination channel mismatch")
)

// Engine owns the per-channel vocoders and output rings for one source.
//
// Pull runs on the render path. RequestReposition and RequestAlpha are the
// control-path writers; they never block and the last write before a Pull
// wins. Playhead and Alpha may be read from any goroutine.
type Engine struct {
	src *buffer.Source

	channels []*vocoder.Channel
	rings    []*ring.Buffer

	maxBlock  int
	maxHop    int
	frameSize int

	pendingReposition latch
	pendingAlpha      latch

	playhead atomicFloat
	alpha    atomicFloat
}

// New builds an engine positioned at sample 0 with alpha 1.
func New(src *buffer.Source, opts ...core.ProcessorOption) (*Engine, error) {
	if src == nil {
		return nil, fmt.Errorf("stretch: %w", buffer.ErrNoChannels)
	}

	cfg := core.ApplyProcessorOptions(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("stretch: %w", err)
	}

	e := &Engine{
		src:       src,
		channels:  make([]*vocoder.Channel, src.Channels()),
		rings:     make([]*ring.Buffer, src.Channels()),
		maxBlock:  cfg.BlockSize,
		frameSize: cfg.FrameSize,
	}

	for i := range e.channels {
		ch, err := vocoder.New(src.Channel(i), opts...)
		if err != nil {
			return nil, fmt.Errorf("stretch: channel %d: %w", i, err)
		}
		e.channels[i] = ch
	}

	e.maxHop = e.channels[0].MaxSynthesisHop()

	for i := range e.rings {
		r, err := ring.New(e.maxBlock + e.maxHop + e.frameSize)
		if err != nil {
			return nil, fmt.Errorf("stretch: channel %d: %w", i, err)
		}
		e.rings[i] = r
	}

	e.alpha.Store(e.channels[0].Alpha())

	return e, nil
}

// Channels returns the number of channels per render block.
func (e *Engine) Channels() int { return len(e.channels) }

// SampleRate returns the source sample rate.
func (e *Engine) SampleRate() float64 { return e.src.SampleRate() }

// Frames returns the source length in samples.
func (e *Engine) Frames() int { return e.src.Frames() }

// MaxBlockSize returns the configured largest render block.
func (e *Engine) MaxBlockSize() int { return e.maxBlock }

// Alpha returns the stretch ratio in effect for the most recent Pull.
func (e *Engine) Alpha() float64 { return e.alpha.Load() }

// Playhead returns the source position, in samples, of the audio delivered
// so far. A reposition sets it; every Pull of n samples advances it by
// n/alpha.
func (e *Engine) Playhead() float64 { return e.playhead.Load() }

// ReadPosition returns the analysis cursor, which runs ahead of Playhead by
// the buffered lookahead. Render path only.
func (e *Engine) ReadPosition() float64 { return e.channels[0].Cursor() }

// Buffered returns the number of samples waiting in each channel ring.
// Render path only.
func (e *Engine) Buffered() int { return e.rings[0].Size() }

// RequestReposition asks the render path to restart synthesis at
// sampleOffset before its next block. Offsets are clamped to the source.
func (e *Engine) RequestReposition(sampleOffset float64) {
	e.pendingReposition.Store(sampleOffset)
}

// TryReposition requests a reposition only when none is pending and reports
// whether it did. The render path uses it for automatic jumps (loop wrap,
// end of track) so they never overwrite a control-path request.
func (e *Engine) TryReposition(sampleOffset float64) bool {
	return e.pendingReposition.StoreIfEmpty(sampleOffset)
}

// RepositionPending reports whether a reposition waits for the next Pull.
func (e *Engine) RepositionPending() bool { return e.pendingReposition.Pending() }

// RequestAlpha asks the render path to use ratio for frames synthesised
// from its next block on.
func (e *Engine) RequestAlpha(ratio float64) {
	e.pendingAlpha.Store(ratio)
}

// Pull fills every dst[c] with exactly len(dst[c]) samples. Pending
// reposition and alpha requests are applied first. On error dst is silenced.
func (e *Engine) Pull(dst [][]float64) error {
	if len(dst) != len(e.channels) {
		return fmt.Errorf("%w: got %d channels, want %d", ErrChannelMismatch, len(dst), len(e.channels))
	}

	n := len(dst[0])
	for c := range dst {
		if len(dst[c]) != n {
			return fmt.Errorf("%w: channel %d has %d samples, want %d", ErrChannelMismatch, c, len(dst[c]), n)
		}
	}

	e.applyPending()

	if n == 0 {
		return nil
	}

	if n > e.rings[0].Capacity()-e.maxHop {
		silence(dst)
		return fmt.Errorf("%w: block of %d exceeds %d", ErrUnderrun, n, e.rings[0].Capacity()-e.maxHop)
	}

	// Every Process call emits at least one sample, so n iterations always
	// suffice.
	for iter := 0; e.rings[0].Size() < n; iter++ {
		if iter >= n {
			silence(dst)
			return fmt.Errorf("%w: %d of %d samples after %d frames", ErrUnderrun, e.rings[0].Size(), n, iter)
		}

		for c, ch := range e.channels {
			if _, err := ch.Process(e.rings[c]); err != nil {
				silence(dst)
				return fmt.Errorf("%w: %w", ErrUnderrun, err)
			}
		}
	}

	for c := range dst {
		e.rings[c].ShiftInto(dst[c])
	}

	alpha := e.alpha.Load()
	e.playhead.Store(e.playhead.Load() + float64(n)/alpha)

	return nil
}

func (e *Engine) applyPending() {
	if offset, ok := e.pendingReposition.Take(); ok {
		offset = core.Clamp(offset, 0, float64(e.src.Frames()))
		if math.IsNaN(offset) {
			offset = 0
		}

		for c, ch := range e.channels {
			ch.Reseat(offset)
			e.rings[c].Reset()
		}
		e.playhead.Store(offset)
	}

	if alpha, ok := e.pendingAlpha.Take(); ok {
		for _, ch := range e.channels {
			ch.SetAlpha(alpha)
		}
		e.alpha.Store(e.channels[0].Alpha())
	}
}

func silence(dst [][]float64) {
	for _, d := range dst {
		core.Zero(d)
	}
}
