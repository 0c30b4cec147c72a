package dither

import (
	"fmt"
	"math"
	"math/rand/v2"
)

type config struct {
	ditherType Type
	shaping    bool
	seed       uint64
	seeded     bool
}

// Option configures a Quantizer.
type Option func(*config) error

// WithType sets the dither noise PDF. The default is TypeNone.
func WithType(t Type) Option {
	return func(cfg *config) error {
		if !t.Valid() {
			return fmt.Errorf("dither: invalid type: %d", int(t))
		}
		cfg.ditherType = t
		return nil
	}
}

// WithNoiseShaping feeds each quantization error back into the next sample,
// moving the noise floor towards high frequencies.
func WithNoiseShaping() Option {
	return func(cfg *config) error {
		cfg.shaping = true
		return nil
	}
}

// WithSeed makes the dither noise reproducible.
func WithSeed(seed uint64) Option {
	return func(cfg *config) error {
		cfg.seed, cfg.seeded = seed, true
		return nil
	}
}

// Quantizer maps samples in [-1, 1] to signed integers of a fixed bit depth.
// It keeps error-feedback state and is not safe for concurrent use; use one
// per channel.
type Quantizer struct {
	bitDepth   int
	ditherType Type
	shaping    bool
	rng        *rand.Rand

	scale   float64
	lo, hi  int
	lastErr float64
	clipped int
}

// NewQuantizer returns a quantizer for bitDepth in [2, 32].
func NewQuantizer(bitDepth int, opts ...Option) (*Quantizer, error) {
	if bitDepth < 2 || bitDepth > 32 {
		return nil, fmt.Errorf("dither: bit depth must be in [2, 32]: %d", bitDepth)
	}

	var cfg config
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	seed := cfg.seed
	if !cfg.seeded {
		seed = rand.Uint64()
	}

	full := math.Exp2(float64(bitDepth - 1))

	return &Quantizer{
		bitDepth:   bitDepth,
		ditherType: cfg.ditherType,
		shaping:    cfg.shaping,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		scale:      full - 1,
		lo:         -int(full),
		hi:         int(full) - 1,
	}, nil
}

// BitDepth returns the target bit depth.
func (q *Quantizer) BitDepth() int { return q.bitDepth }

// Type returns the dither noise type.
func (q *Quantizer) Type() Type { return q.ditherType }

// Clipped returns how many results were limited to the integer range.
func (q *Quantizer) Clipped() int { return q.clipped }

// Quantize converts one sample.
func (q *Quantizer) Quantize(x float64) int {
	v := x * q.scale
	if q.shaping {
		v -= q.lastErr
	}

	out := int(math.Round(v + q.noise()))
	if out < q.lo || out > q.hi {
		q.clipped++
		out = max(q.lo, min(q.hi, out))
	}

	if q.shaping {
		// Dither and rounding stay within 1.5 LSB; only clipping exceeds the
		// bound.
		q.lastErr = math.Max(-2, math.Min(2, float64(out)-v))
	}

	return out
}

// QuantizeInto converts src into dst, which must be at least as long.
func (q *Quantizer) QuantizeInto(dst []int, src []float64) {
	for i, x := range src {
		dst[i] = q.Quantize(x)
	}
}

// Reset clears the error-feedback state.
func (q *Quantizer) Reset() {
	q.lastErr = 0
}

func (q *Quantizer) noise() float64 {
	switch q.ditherType {
	case TypeRectangular:
		return q.rng.Float64() - 0.5
	case TypeTriangular:
		return q.rng.Float64() - q.rng.Float64()
	default:
		return 0
	}
}
