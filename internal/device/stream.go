// Package device plays a controller through the system audio output.
//
// Stream adapts the controller's planar float render path to the
// interleaved float32 little-endian byte stream audio backends consume.
// The oto backend is excluded with the headless build tag.
package device

import (
	"encoding/binary"
	"errors"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-stretch/dsp/buffer"
	"github.com/cwbudde/algo-stretch/dsp/core"
	"github.com/cwbudde/algo-stretch/player"
)

const bytesPerSample = 4

// ErrInvalidChannels is returned for an output channel count below one.
var ErrInvalidChannels = errors.New("device: output channels must be > 0")

// Stream is an io.Reader of interleaved float32 LE samples rendered from a
// controller. Read runs on the audio backend's goroutine; Swap and the
// accessors may be called from anywhere.
type Stream struct {
	ctrl     atomic.Pointer[player.Controller]
	lastErr  atomic.Pointer[error]
	failures atomic.Uint64
	gain     atomic.Uint64 // float64 bits

	channels int
	frames   int

	blk     *buffer.Block
	samples []float32
	bytes   []byte
	pending []byte
}

// NewStream returns a stream producing outChannels interleaved channels,
// rendering blockFrames frames at a time. ctrl may be nil, in which case the
// stream produces silence until Swap installs a controller.
func NewStream(ctrl *player.Controller, outChannels, blockFrames int) (*Stream, error) {
	if outChannels <= 0 {
		return nil, ErrInvalidChannels
	}
	if blockFrames <= 0 {
		blockFrames = 512
	}

	s := &Stream{
		channels: outChannels,
		frames:   blockFrames,
		samples:  make([]float32, blockFrames*outChannels),
		bytes:    make([]byte, blockFrames*outChannels*bytesPerSample),
	}
	s.ctrl.Store(ctrl)
	s.gain.Store(math.Float64bits(1))

	return s, nil
}

// SetVolumeDB sets the output gain. Non-finite values are ignored.
func (s *Stream) SetVolumeDB(db float64) {
	if math.IsNaN(db) || math.IsInf(db, 0) {
		return
	}
	s.gain.Store(math.Float64bits(core.DBToLinear(db)))
}

// VolumeDB returns the output gain in dB.
func (s *Stream) VolumeDB() float64 {
	return core.LinearToDB(math.Float64frombits(s.gain.Load()))
}

// Channels returns the interleaved output channel count.
func (s *Stream) Channels() int { return s.channels }

// Swap installs ctrl and returns the previous controller.
func (s *Stream) Swap(ctrl *player.Controller) *player.Controller {
	return s.ctrl.Swap(ctrl)
}

// Err returns the most recent render error, or nil.
func (s *Stream) Err() error {
	if p := s.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Failures returns how many blocks failed to render.
func (s *Stream) Failures() uint64 { return s.failures.Load() }

// Read fills p completely. Render errors are recorded and the affected block
// is silent; Read itself never fails.
func (s *Stream) Read(p []byte) (int, error) {
	n := copy(p, s.pending)
	s.pending = s.pending[n:]

	for n < len(p) {
		s.fill()

		c := copy(p[n:], s.pending)
		s.pending = s.pending[c:]
		n += c
	}

	return n, nil
}

func (s *Stream) fill() {
	ctrl := s.ctrl.Load()

	frames := s.frames
	if ctrl != nil {
		frames = min(frames, ctrl.MaxBlockSize())
		if s.blk == nil || s.blk.Channels() != ctrl.Channels() {
			s.blk = buffer.NewBlock(ctrl.Channels(), s.frames)
		}
	} else if s.blk == nil {
		s.blk = buffer.NewBlock(1, s.frames)
	}

	s.blk.Resize(frames)

	if ctrl == nil {
		s.blk.Zero()
	} else if err := ctrl.RenderBlock(s.blk.Planes()); err != nil {
		s.failures.Add(1)
		s.lastErr.Store(&err)
	}

	if g := math.Float64frombits(s.gain.Load()); g != 1 {
		s.blk.Scale(g)
	}

	count := s.blk.Interleave(s.samples, s.channels)
	for i, v := range s.samples[:count] {
		binary.LittleEndian.PutUint32(s.bytes[i*bytesPerSample:], math.Float32bits(v))
	}

	s.pending = s.bytes[:count*bytesPerSample]
}
