package vocoder

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-stretch/dsp/core"
	"github.com/cwbudde/algo-stretch/dsp/ring"
	"github.com/cwbudde/algo-stretch/dsp/window"
)

// normFloor bounds the overlap-add normalisation from below so ramp-in
// samples covered only by a window tail are not amplified.
const normFloor = 1e-3

// Channel is a single-channel phase vocoder. It is not safe for concurrent
// use; the stretch engine drives it from the render path only.
type Channel struct {
	source []float64

	frameSize   int
	analysisHop int
	minAlpha    float64
	maxAlpha    float64

	alpha      float64
	cursor     float64
	hopResidue float64
	prevHop    int
	fresh      bool
	priming    int

	plan *algofft.Plan[complex128]

	windowCoeffs []float64
	windowSq     []float64
	omega        []float64
	prevPhase    []float64
	sumPhase     []float64

	frame     []float64
	spectrum  []complex128
	timeFrame []complex128
	re        []float64
	im        []float64
	mag       []float64

	acc  []float64
	norm []float64
}

// New returns a Channel reading source from sample 0 at alpha 1. source is
// not copied and must not change while the Channel is in use.
func New(source []float64, opts ...core.ProcessorOption) (*Channel, error) {
	cfg := core.ApplyProcessorOptions(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vocoder: %w", err)
	}

	c := &Channel{
		source:      source,
		frameSize:   cfg.FrameSize,
		analysisHop: cfg.AnalysisHop(),
		alpha:       1,
		fresh:       true,
	}
	c.minAlpha, c.maxAlpha = cfg.EffectiveAlphaRange()
	c.alpha = core.Clamp(1, c.minAlpha, c.maxAlpha)

	if err := c.rebuildState(); err != nil {
		return nil, err
	}
	c.Reseat(0)

	return c, nil
}

// FrameSize returns the STFT frame size.
func (c *Channel) FrameSize() int { return c.frameSize }

// AnalysisHop returns the source advance per frame in samples.
func (c *Channel) AnalysisHop() int { return c.analysisHop }

// SynthesisHop returns the nominal output advance per frame at the current
// alpha. Individual frames may emit one sample more or less so the long-run
// output length tracks alpha exactly.
func (c *Channel) SynthesisHop() int {
	return max(int(math.Round(float64(c.analysisHop)*c.alpha)), 1)
}

// MaxSynthesisHop returns the largest number of samples a single Process
// call can emit.
func (c *Channel) MaxSynthesisHop() int {
	return int(math.Ceil(float64(c.analysisHop) * c.maxAlpha))
}

// Latency returns how many source samples the analysis frame reads ahead of
// the first sample that is still being synthesised. After a Reseat the
// channel pre-rolls this much source before the cursor.
func (c *Channel) Latency() int { return c.frameSize - c.analysisHop }

// AlphaRange returns the clamp range applied by SetAlpha.
func (c *Channel) AlphaRange() (minAlpha, maxAlpha float64) { return c.minAlpha, c.maxAlpha }

// Alpha returns the stretch ratio used by the next Process call.
func (c *Channel) Alpha() float64 { return c.alpha }

// SetAlpha sets the stretch ratio for subsequent frames. The value is
// clamped to the configured range; non-finite or non-positive values are
// ignored. Phase state is kept, so a sustained tone continues without a
// discontinuity.
func (c *Channel) SetAlpha(alpha float64) {
	if !core.IsFinitePositive(alpha) {
		return
	}
	c.alpha = core.Clamp(alpha, c.minAlpha, c.maxAlpha)
}

// Cursor returns the read position (in source samples) of the first frame
// the next Process call emits.
func (c *Channel) Cursor() float64 {
	return c.cursor + float64(c.priming*c.analysisHop)
}

// Reseat moves the read cursor and clears all history: phase arrays,
// overlap-add accumulators and the hop residue. The next frame is analysed
// as if it were the first.
//
// Analysis restarts Latency() samples before cursor. The frames covering
// that pre-roll only fill the overlap-add accumulators; their output is
// dropped, so the first emitted sample is fully overlapped and lines up
// with cursor.
func (c *Channel) Reseat(cursor float64) {
	if math.IsNaN(cursor) || math.IsInf(cursor, 0) {
		cursor = 0
	}
	c.priming = c.frameSize/c.analysisHop - 1
	c.cursor = cursor - float64(c.priming*c.analysisHop)
	c.hopResidue = 0
	c.prevHop = 0
	c.fresh = true

	core.Zero(c.prevPhase)
	core.Zero(c.sumPhase)
	core.Zero(c.acc)
	core.Zero(c.norm)
}

// Process runs one analysis/synthesis frame, pushes the completed synthesis
// hop into dst and advances the cursor by one analysis hop. It returns the
// number of samples pushed (at least 1). The first call after a Reseat also
// runs the pre-roll frames.
func (c *Channel) Process(dst *ring.Buffer) (int, error) {
	for c.priming > 0 {
		if _, err := c.step(nil); err != nil {
			return 0, err
		}
		c.priming--
	}

	return c.step(dst)
}

// step runs one frame. A nil dst discards the completed hop.
func (c *Channel) step(dst *ring.Buffer) (int, error) {
	if err := c.analyze(); err != nil {
		return 0, err
	}

	// The phase advance must match the spacing between this frame and the
	// previous one in the output, which is the hop emitted last time.
	c.advancePhases(c.prevHop)

	if err := c.synthesize(); err != nil {
		return 0, err
	}

	hs := c.nextSynthesisHop()
	c.emit(dst, hs)
	c.prevHop = hs
	c.cursor += float64(c.analysisHop)

	return hs, nil
}

// nextSynthesisHop diffuses the fractional part of analysisHop*alpha across
// frames.
func (c *Channel) nextSynthesisHop() int {
	c.hopResidue += float64(c.analysisHop) * c.alpha

	hs := int(c.hopResidue)
	if hs < 1 {
		hs = 1
	}

	c.hopResidue -= float64(hs)
	if c.hopResidue < 0 {
		c.hopResidue = 0
	}

	return hs
}

func (c *Channel) analyze() error {
	start := int(math.Round(c.cursor))

	core.Zero(c.frame)
	lo := max(start, 0)
	hi := min(start+c.frameSize, len(c.source))
	if lo < hi {
		copy(c.frame[lo-start:], c.source[lo:hi])
	}

	if err := window.ApplyCoefficientsInPlace(c.frame, c.windowCoeffs); err != nil {
		return fmt.Errorf("vocoder: analysis window: %w", err)
	}

	for i, v := range c.frame {
		c.spectrum[i] = complex(v, 0)
	}

	if err := c.plan.Forward(c.spectrum, c.spectrum); err != nil {
		return fmt.Errorf("vocoder: forward FFT failed: %w", err)
	}

	bins := len(c.mag)
	for k := range bins {
		c.re[k] = real(c.spectrum[k])
		c.im[k] = imag(c.spectrum[k])
	}

	vecmath.Magnitude(c.mag, c.re, c.im)

	return nil
}

func (c *Channel) advancePhases(hs int) {
	ha := float64(c.analysisHop)
	ratio := float64(hs) / ha

	for k := range c.sumPhase {
		phase := math.Atan2(c.im[k], c.re[k])

		if c.fresh {
			c.sumPhase[k] = phase
		} else {
			expected := c.omega[k] * ha
			delta := core.WrapPhase(phase - c.prevPhase[k] - expected)
			c.sumPhase[k] = core.WrapPhase(c.sumPhase[k] + (expected+delta)*ratio)
		}

		c.prevPhase[k] = phase
	}

	c.fresh = false
}

func (c *Channel) synthesize() error {
	half := c.frameSize / 2

	for k := 1; k < half; k++ {
		m := c.mag[k]
		p := c.sumPhase[k]
		v := complex(m*math.Cos(p), m*math.Sin(p))
		c.spectrum[k] = v
		c.spectrum[c.frameSize-k] = complex(real(v), -imag(v))
	}

	// DC and Nyquist stay real; their sign carries the phase.
	c.spectrum[0] = complex(c.re[0], 0)
	c.spectrum[half] = complex(c.re[half], 0)

	if err := c.plan.Inverse(c.timeFrame, c.spectrum); err != nil {
		return fmt.Errorf("vocoder: inverse FFT failed: %w", err)
	}

	for i, v := range c.timeFrame {
		c.frame[i] = real(v)
	}

	if err := window.ApplyCoefficientsInPlace(c.frame, c.windowCoeffs); err != nil {
		return fmt.Errorf("vocoder: synthesis window: %w", err)
	}

	for i, v := range c.frame {
		c.acc[i] += v
		c.norm[i] += c.windowSq[i]
	}

	return nil
}

func (c *Channel) emit(dst *ring.Buffer, hs int) {
	for i := 0; dst != nil && i < hs; i++ {
		n := c.norm[i]
		if n < normFloor {
			n = normFloor
		}
		dst.Push(core.FlushDenormals(c.acc[i] / n))
	}

	core.ShiftLeft(c.acc, hs)
	core.ShiftLeft(c.norm, hs)
}

func (c *Channel) rebuildState() error {
	plan, err := algofft.NewPlan64(c.frameSize)
	if err != nil {
		return fmt.Errorf("vocoder: failed to create FFT plan: %w", err)
	}

	c.plan = plan

	coeffs := window.Generate(window.TypeHann, c.frameSize, window.WithPeriodic())
	if len(coeffs) != c.frameSize {
		return fmt.Errorf("vocoder: window generation failed for size %d", c.frameSize)
	}

	c.windowCoeffs = coeffs
	c.windowSq = make([]float64, c.frameSize)
	vecmath.MulBlock(c.windowSq, coeffs, coeffs)

	bins := c.frameSize/2 + 1

	c.omega = make([]float64, bins)
	for k := range bins {
		c.omega[k] = 2 * math.Pi * float64(k) / float64(c.frameSize)
	}

	c.prevPhase = make([]float64, bins)
	c.sumPhase = make([]float64, bins)
	c.re = make([]float64, bins)
	c.im = make([]float64, bins)
	c.mag = make([]float64, bins)

	c.frame = make([]float64, c.frameSize)
	c.spectrum = make([]complex128, c.frameSize)
	c.timeFrame = make([]complex128, c.frameSize)

	// A frame spans frameSize output samples and a hop never exceeds half a
	// frame, so frameSize is enough to hold every pending contribution.
	c.acc = make([]float64, c.frameSize)
	c.norm = make([]float64, c.frameSize)

	return nil
}
