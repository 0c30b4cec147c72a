package window

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
	TypeSqrtHann
)

// Metadata holds spectral properties of a window type.
type Metadata struct {
	Name                string
	ENBW                float64
	HighestSidelobe     float64
	CoherentGain        float64
	CoherentGainSquared float64
}

var (
	hannCoeffs     = []float64{0.5, -0.5}
	hammingCoeffs  = []float64{0.54, -0.46}
	blackmanCoeffs = []float64{0.42, -0.5, 0.08}
)

var metadataByType = map[Type]Metadata{
	TypeRectangular: {Name: "Rectangular", ENBW: 1.0, HighestSidelobe: -13.3, CoherentGain: 1.0, CoherentGainSquared: 1.0},
	TypeHann:        {Name: "Hann", ENBW: 1.5, HighestSidelobe: -31.5, CoherentGain: 0.5, CoherentGainSquared: 0.25},
	TypeHamming:     {Name: "Hamming", ENBW: 1.36, HighestSidelobe: -42.7, CoherentGain: 0.54, CoherentGainSquared: 0.2916},
	TypeBlackman:    {Name: "Blackman", ENBW: 1.73, HighestSidelobe: -58.1, CoherentGain: 0.42, CoherentGainSquared: 0.1764},
	TypeSqrtHann:    {Name: "SqrtHann", ENBW: 1.23, HighestSidelobe: -23.0, CoherentGain: 0.6366, CoherentGainSquared: 0.4053},
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic configures periodic form (FFT framing) instead of symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = evalWindow(t, samplePosition(i, length, cfg.periodic))
	}

	return out
}

// Info returns static metadata for a window type.
func Info(t Type) Metadata {
	if m, ok := metadataByType[t]; ok {
		return m
	}

	return Metadata{}
}

// String returns the window name.
func (t Type) String() string {
	if m, ok := metadataByType[t]; ok {
		return m.Name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType resolves a case-insensitive window name such as "hann".
func ParseType(name string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for t, m := range metadataByType {
		if strings.ToLower(m.Name) == key {
			return t, nil
		}
	}

	switch key {
	case "hanning":
		return TypeHann, nil
	case "rect", "none":
		return TypeRectangular, nil
	}

	return TypeRectangular, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// EquivalentNoiseBandwidth returns the ENBW in bins for a window.
func EquivalentNoiseBandwidth(coeffs []float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, errEmptyCoeffs
	}

	sum := 0.0
	sumSquares := 0.0

	for _, c := range coeffs {
		sum += c
		sumSquares += c * c
	}

	if sum == 0 {
		return 0, errZeroCoherentGain
	}

	return float64(len(coeffs)) * sumSquares / (sum * sum), nil
}

// OverlapGain returns the minimum and maximum of the summed squared window
// when copies are laid hop samples apart. This is the denominator a
// weighted overlap-add sees in steady state; max/min close to 1 means the
// analysis/synthesis pair reconstructs with little ripple.
func OverlapGain(coeffs []float64, hop int) (minGain, maxGain float64, err error) {
	if err := validateHop(len(coeffs), hop); err != nil {
		return 0, 0, err
	}

	minGain = math.Inf(1)
	for i := 0; i < hop; i++ {
		sum := 0.0
		for k := i; k < len(coeffs); k += hop {
			sum += coeffs[k] * coeffs[k]
		}
		minGain = math.Min(minGain, sum)
		maxGain = math.Max(maxGain, sum)
	}

	return minGain, maxGain, nil
}

// ApplyCoefficientsInPlace multiplies samples with coefficients in place.
func ApplyCoefficientsInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return errMismatchedLength
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}

func evalWindow(t Type, x float64) float64 {
	if x < 0 {
		x = 0
	}

	if x > 1 {
		x = 1
	}

	switch t {
	case TypeHann:
		return cosineFromCoeffs(x, hannCoeffs)
	case TypeHamming:
		return cosineFromCoeffs(x, hammingCoeffs)
	case TypeBlackman:
		return cosineFromCoeffs(x, blackmanCoeffs)
	case TypeSqrtHann:
		return math.Sqrt(math.Max(0, cosineFromCoeffs(x, hannCoeffs)))
	default:
		return 1
	}
}

func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}
