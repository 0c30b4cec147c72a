package player

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-stretch/dsp/buffer"
	"github.com/cwbudde/algo-stretch/dsp/core"
	"github.com/cwbudde/algo-stretch/dsp/stretch"
)

// Controller is the playback state machine for one loaded source.
type Controller struct {
	engine *stretch.Engine

	sampleRate float64
	frames     int
	duration   float64

	// mu serialises control-path commands. The render path never takes it.
	mu sync.Mutex

	state    atomic.Int32
	position atomic.Uint64
	rate     atomic.Uint64
	loop     atomic.Pointer[Region]

	onStart atomic.Pointer[func()]
	onStop  atomic.Pointer[func(StopReason)]
}

// New returns a stopped controller positioned at 0 with rate 1. Options
// configure the underlying stretch engine.
func New(src *buffer.Source, opts ...core.ProcessorOption) (*Controller, error) {
	engine, err := stretch.New(src, opts...)
	if err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}

	c := &Controller{
		engine:     engine,
		sampleRate: src.SampleRate(),
		frames:     src.Frames(),
		duration:   src.Duration(),
	}
	c.storeFloat(&c.rate, 1)

	return c, nil
}

// OnStart registers fn to run after every Stopped to Playing transition.
// Passing nil removes the observer.
func (c *Controller) OnStart(fn func()) {
	if fn == nil {
		c.onStart.Store(nil)
		return
	}
	c.onStart.Store(&fn)
}

// OnStop registers fn to run after every Playing to Stopped transition.
// Stops caused by the end of the track or an underrun call fn from the
// render path, so fn must not block. Passing nil removes the observer.
func (c *Controller) OnStop(fn func(StopReason)) {
	if fn == nil {
		c.onStop.Store(nil)
		return
	}
	c.onStop.Store(&fn)
}

// State returns the current playback state.
func (c *Controller) State() State { return State(c.state.Load()) }

// IsPlaying reports whether the controller is Playing.
func (c *Controller) IsPlaying() bool { return c.State() == Playing }

// Position returns the playback position in seconds.
func (c *Controller) Position() float64 { return c.loadFloat(&c.position) }

// Duration returns the track length in seconds.
func (c *Controller) Duration() float64 { return c.duration }

// SampleRate returns the source sample rate.
func (c *Controller) SampleRate() float64 { return c.sampleRate }

// Channels returns the number of channels RenderBlock expects.
func (c *Controller) Channels() int { return c.engine.Channels() }

// MaxBlockSize returns the largest block RenderBlock is sized for.
func (c *Controller) MaxBlockSize() int { return c.engine.MaxBlockSize() }

// PlaybackRate returns the last accepted playback rate.
func (c *Controller) PlaybackRate() float64 { return c.loadFloat(&c.rate) }

// Alpha returns the stretch ratio the engine is currently rendering with.
// It differs from 1/PlaybackRate only until the next block, or when the
// rate lies outside the engine's alpha range.
func (c *Controller) Alpha() float64 { return c.engine.Alpha() }

// Looping reports whether a loop region is active.
func (c *Controller) Looping() bool { return c.loop.Load() != nil }

// LoopRegion returns the active loop region.
func (c *Controller) LoopRegion() (Region, bool) {
	r := c.loop.Load()
	if r == nil {
		return Region{}, false
	}
	return *r, true
}

// LoopStart returns the loop start in seconds, or 0 without a loop.
func (c *Controller) LoopStart() float64 {
	r, _ := c.LoopRegion()
	return r.Start
}

// LoopEnd returns the loop end in seconds, or 0 without a loop.
func (c *Controller) LoopEnd() float64 {
	r, _ := c.LoopRegion()
	return r.End
}

// Play starts playback from the current position. It is a no-op while
// Playing.
func (c *Controller) Play() {
	c.mu.Lock()
	started := c.state.CompareAndSwap(int32(Stopped), int32(Playing))
	c.mu.Unlock()

	if started {
		c.notifyStart()
	}
}

// PlayFrom starts playback at offset seconds, clamped to the track. It is a
// no-op while Playing.
func (c *Controller) PlayFrom(offset float64) {
	c.mu.Lock()
	if c.State() == Playing {
		c.mu.Unlock()
		return
	}

	c.reposition(c.clampTime(offset))
	c.state.Store(int32(Playing))
	c.mu.Unlock()

	c.notifyStart()
}

// Stop halts playback immediately. Synthesised audio not yet delivered is
// dropped. It is a no-op while Stopped.
func (c *Controller) Stop() {
	c.mu.Lock()
	stopped := c.state.CompareAndSwap(int32(Playing), int32(Stopped))
	c.mu.Unlock()

	if stopped {
		c.notifyStop(StopRequested)
	}
}

// Seek moves playback to seconds, clamped to the track. Seeking outside an
// active loop region removes the loop.
func (c *Controller) Seek(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.clampTime(seconds)
	if r := c.loop.Load(); r != nil && !r.Contains(t) {
		c.loop.Store(nil)
	}

	c.reposition(t)
}

// Loop sets the loop region. It does not move the playback position.
func (c *Controller) Loop(start, end float64) error {
	if math.IsNaN(start) || math.IsNaN(end) || end <= start || start < 0 || end > c.duration {
		return fmt.Errorf("%w: [%g, %g] for duration %g", ErrInvalidRange, start, end, c.duration)
	}

	c.mu.Lock()
	c.loop.Store(&Region{Start: start, End: end})
	c.mu.Unlock()

	return nil
}

// Unloop clears the loop region. It does not move the playback position.
func (c *Controller) Unloop() {
	c.mu.Lock()
	c.loop.Store(nil)
	c.mu.Unlock()
}

// SetPlaybackRate changes the playback speed without changing pitch or
// position. A rate of 2 plays twice as fast.
func (c *Controller) SetPlaybackRate(rate float64) error {
	if !core.IsFinitePositive(rate) {
		return fmt.Errorf("%w: %g", ErrInvalidRate, rate)
	}

	c.mu.Lock()
	c.storeFloat(&c.rate, rate)
	c.engine.RequestAlpha(1 / rate)
	c.mu.Unlock()

	return nil
}

// Reset stops playback, removes the loop, restores rate 1 and rewinds to 0.
func (c *Controller) Reset() {
	c.Stop()

	c.mu.Lock()
	c.loop.Store(nil)
	c.storeFloat(&c.rate, 1)
	c.engine.RequestAlpha(1)
	c.reposition(0)
	c.mu.Unlock()
}

// RenderBlock fills out with the next block of audio, one slice per
// channel, all of equal length. While Stopped it writes silence. An error
// means playback was forced to Stopped; it wraps ErrUnderrun or
// stretch.ErrChannelMismatch.
func (c *Controller) RenderBlock(out [][]float64) error {
	if c.State() != Playing {
		for _, ch := range out {
			core.Zero(ch)
		}
		return nil
	}

	if err := c.engine.Pull(out); err != nil {
		for _, ch := range out {
			core.Zero(ch)
		}
		if c.state.CompareAndSwap(int32(Playing), int32(Stopped)) {
			c.notifyStop(StopUnderrun)
		}
		return fmt.Errorf("player: render: %w", err)
	}

	c.settle()

	return nil
}

// settle publishes the position reached by the block just pulled and
// performs the loop wrap or end-of-track stop it calls for.
func (c *Controller) settle() {
	// A reposition still pending here came from Seek or PlayFrom while the
	// block rendered. It wins over the automatic jumps below, and the
	// position it published stays.
	if c.engine.RepositionPending() {
		return
	}

	pos := c.engine.Playhead() / c.sampleRate

	if r := c.loop.Load(); r != nil && pos >= r.End {
		pos = r.Start + math.Mod(pos-r.End, r.Len())
		if c.engine.TryReposition(pos * c.sampleRate) {
			c.storeFloat(&c.position, pos)
		}
		return
	}

	if c.engine.Playhead() >= float64(c.frames) {
		if !c.engine.TryReposition(0) {
			return
		}
		c.storeFloat(&c.position, 0)
		if c.state.CompareAndSwap(int32(Playing), int32(Stopped)) {
			c.notifyStop(StopEndOfTrack)
		}
		return
	}

	c.storeFloat(&c.position, pos)
}

// reposition must be called with mu held.
func (c *Controller) reposition(t float64) {
	c.engine.RequestReposition(t * c.sampleRate)
	c.storeFloat(&c.position, t)
}

func (c *Controller) clampTime(t float64) float64 {
	if math.IsNaN(t) {
		return 0
	}
	return core.Clamp(t, 0, c.duration)
}

func (c *Controller) notifyStart() {
	if fn := c.onStart.Load(); fn != nil {
		(*fn)()
	}
}

func (c *Controller) notifyStop(reason StopReason) {
	if fn := c.onStop.Load(); fn != nil {
		(*fn)(reason)
	}
}

func (c *Controller) loadFloat(v *atomic.Uint64) float64 {
	return math.Float64frombits(v.Load())
}

func (c *Controller) storeFloat(v *atomic.Uint64, f float64) {
	v.Store(math.Float64bits(f))
}
