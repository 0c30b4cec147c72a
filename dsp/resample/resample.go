package resample

import (
	"errors"
	"math"
)

var (
	// ErrInvalidRatio indicates an invalid up/down ratio.
	ErrInvalidRatio = errors.New("resample: invalid ratio")
	// ErrInvalidRate indicates an invalid input/output sample rate.
	ErrInvalidRate = errors.New("resample: invalid sample rate")
)

const maxDenominator = 4096

// Quality selects the anti-aliasing filter length and stopband.
type Quality int

const (
	QualityFast Quality = iota
	QualityBalanced
	QualityBest
)

type profile struct {
	tapsPerPhase int
	cutoffScale  float64
	kaiserBeta   float64
}

func (q Quality) profile() profile {
	switch q {
	case QualityFast:
		return profile{tapsPerPhase: 16, cutoffScale: 0.88, kaiserBeta: 5}
	case QualityBest:
		return profile{tapsPerPhase: 64, cutoffScale: 0.96, kaiserBeta: 9}
	default:
		return profile{tapsPerPhase: 32, cutoffScale: 0.92, kaiserBeta: 7.5}
	}
}

// Option configures a Resampler.
type Option func(*Quality)

// WithQuality selects the filter quality. The default is QualityBalanced.
func WithQuality(q Quality) Option {
	return func(dst *Quality) { *dst = q }
}

// Resampler streams rational sample-rate conversion through a polyphase FIR.
type Resampler struct {
	up, down int
	phases   [][]float64
	delay    float64 // filter delay in output samples

	phase   int
	next    int // absolute input index of the next output
	consumed int
	history []float64
}

// NewRational returns a resampler producing up output samples for every
// down input samples.
func NewRational(up, down int, opts ...Option) (*Resampler, error) {
	if up <= 0 || down <= 0 {
		return nil, ErrInvalidRatio
	}

	g := gcd(up, down)
	up, down = up/g, down/g

	q := QualityBalanced
	for _, opt := range opts {
		if opt != nil {
			opt(&q)
		}
	}

	phases, taps, err := designPolyphase(up, down, q.profile())
	if err != nil {
		return nil, err
	}

	longest := len(phases[0])

	return &Resampler{
		up:      up,
		down:    down,
		phases:  phases,
		delay:   0.5 * float64(taps-1) / float64(down),
		history: make([]float64, 0, longest),
	}, nil
}

// NewForRates returns a resampler converting inRate to outRate. The ratio is
// approximated by a fraction with a denominator of at most 4096.
func NewForRates(inRate, outRate float64, opts ...Option) (*Resampler, error) {
	if !validRate(inRate) || !validRate(outRate) {
		return nil, ErrInvalidRate
	}

	up, down := approximateRatio(outRate/inRate, maxDenominator)
	return NewRational(up, down, opts...)
}

func validRate(r float64) bool {
	return r > 0 && !math.IsNaN(r) && !math.IsInf(r, 0)
}

// Ratio returns the reduced up/down factors.
func (r *Resampler) Ratio() (up, down int) { return r.up, r.down }

// Delay returns the filter group delay in output samples.
func (r *Resampler) Delay() float64 { return r.delay }

// Reset clears the streaming state.
func (r *Resampler) Reset() {
	r.phase = 0
	r.next = 0
	r.consumed = 0
	r.history = r.history[:0]
}

// Process converts the next block of input. State carries over between
// calls, so splitting the input differently yields the same output.
func (r *Resampler) Process(input []float64) []float64 {
	if len(input) == 0 {
		return nil
	}

	work := append(r.history, input...)
	base := r.consumed - len(r.history)
	last := r.consumed + len(input) - 1

	out := make([]float64, 0, len(input)*r.up/r.down+1)
	for r.next <= last {
		y := 0.0
		for k, c := range r.phases[r.phase] {
			idx := r.next - k
			if idx < base {
				break
			}
			y += c * work[idx-base]
		}
		out = append(out, y)

		r.phase += r.down
		r.next += r.phase / r.up
		r.phase %= r.up
	}

	r.consumed += len(input)

	keep := min(cap(r.history), len(work))
	r.history = append(make([]float64, 0, cap(r.history)), work[len(work)-keep:]...)

	return out
}
