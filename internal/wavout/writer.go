// Package wavout renders a player offline into integer PCM WAV files.
package wavout

import (
	"errors"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-stretch/dsp/core"
	"github.com/cwbudde/algo-stretch/dsp/dither"
)

const pcmFormat = 1

// ErrClosed is returned by WriteBlock after Close.
var ErrClosed = errors.New("wavout: writer closed")

// Option configures a Writer.
type Option func(*Writer)

// WithGainDB scales every sample by the given gain in dB before
// quantisation.
func WithGainDB(db float64) Option {
	return func(w *Writer) {
		if !math.IsNaN(db) && !math.IsInf(db, 0) {
			w.gain = core.DBToLinear(db)
		}
	}
}

// WithDither quantizes through dither.Quantizer configured with opts, for
// example dither.WithType(dither.TypeTriangular). Without it samples are
// rounded.
func WithDither(opts ...dither.Option) Option {
	return func(w *Writer) {
		w.ditherOpts = append(w.ditherOpts, opts...)
	}
}

// Writer encodes planar float blocks as interleaved integer PCM.
type Writer struct {
	enc        *wav.Encoder
	buf        *goaudio.IntBuffer
	quant      []*dither.Quantizer
	ditherOpts []dither.Option
	channels   int
	bitDepth   int
	gain       float64
	frames     int
	clipped    int
	closed     bool
}

// NewWriter starts a WAV stream on w. bitDepth must be 16 or 24.
func NewWriter(w io.WriteSeeker, sampleRate, channels, bitDepth int, opts ...Option) (*Writer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wavout: sample rate must be > 0: %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("wavout: channels must be > 0: %d", channels)
	}
	if bitDepth != 16 && bitDepth != 24 {
		return nil, fmt.Errorf("wavout: bit depth must be 16 or 24: %d", bitDepth)
	}

	out := &Writer{
		enc:      wav.NewEncoder(w, sampleRate, bitDepth, channels, pcmFormat),
		channels: channels,
		bitDepth: bitDepth,
		gain:     1,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(out)
		}
	}

	out.quant = make([]*dither.Quantizer, channels)
	for c := range out.quant {
		q, err := dither.NewQuantizer(bitDepth, out.ditherOpts...)
		if err != nil {
			return nil, fmt.Errorf("wavout: %w", err)
		}
		out.quant[c] = q
	}

	return out, nil
}

// Frames returns the number of frames written.
func (w *Writer) Frames() int { return w.frames }

// Clipped returns how many samples were limited to full scale.
func (w *Writer) Clipped() int { return w.clipped }

// WriteBlock appends one planar block. All planes must have equal length and
// there must be one plane per channel.
func (w *Writer) WriteBlock(planes [][]float64) error {
	if w.closed {
		return ErrClosed
	}
	if len(planes) != w.channels {
		return fmt.Errorf("wavout: got %d channels, want %d", len(planes), w.channels)
	}

	frames := len(planes[0])
	for c, p := range planes {
		if len(p) != frames {
			return fmt.Errorf("wavout: channel %d has %d samples, want %d", c, len(p), frames)
		}
	}

	need := frames * w.channels
	if cap(w.buf.Data) < need {
		w.buf.Data = make([]int, need)
	}
	w.buf.Data = w.buf.Data[:need]

	for f := 0; f < frames; f++ {
		for c := 0; c < w.channels; c++ {
			v := planes[c][f] * w.gain
			if v > 1 || v < -1 {
				w.clipped++
				v = core.Clamp(v, -1, 1)
			}
			w.buf.Data[f*w.channels+c] = w.quant[c].Quantize(v)
		}
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("wavout: %w", err)
	}

	w.frames += frames

	return nil
}

// Close finalises the RIFF header. The underlying writer is not closed.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("wavout: %w", err)
	}
	return nil
}
