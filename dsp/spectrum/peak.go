package spectrum

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-stretch/dsp/window"
)

var (
	// ErrShortSignal is returned when there are too few samples to analyze.
	ErrShortSignal = errors.New("spectrum: signal too short")
	// ErrSilent is returned when the analyzed signal carries no energy.
	ErrSilent = errors.New("spectrum: signal is silent")
)

const minPeakLength = 16

// Peak describes the strongest spectral component of a signal.
type Peak struct {
	// FrequencyHz is the interpolated peak frequency.
	FrequencyHz float64
	// Bin is the integer FFT bin that held the maximum.
	Bin int
	// FFTSize is the transform length used for the estimate.
	FFTSize int
	// Magnitude is the linear magnitude of the peak bin.
	Magnitude float64
}

// DominantFrequency returns the frequency in Hz of the strongest component
// in signal.
func DominantFrequency(signal []float64, sampleRate float64) (float64, error) {
	p, err := FindPeak(signal, sampleRate)
	if err != nil {
		return 0, err
	}
	return p.FrequencyHz, nil
}

// FindPeak Hann-windows signal, zero-pads it to the next power of two and
// locates the largest non-DC bin. The bin offset is refined by parabolic
// interpolation over the log power of the peak and its neighbors.
func FindPeak(signal []float64, sampleRate float64) (Peak, error) {
	if len(signal) < minPeakLength {
		return Peak{}, fmt.Errorf("%w: %d samples", ErrShortSignal, len(signal))
	}
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return Peak{}, fmt.Errorf("spectrum: sample rate must be > 0: %f", sampleRate)
	}

	n := nextPow2(len(signal))
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return Peak{}, fmt.Errorf("spectrum: fft plan: %w", err)
	}

	coeffs := window.Generate(window.TypeHann, len(signal))
	buf := make([]complex128, n)
	for i, v := range signal {
		buf[i] = complex(v*coeffs[i], 0)
	}

	if err := plan.Forward(buf, buf); err != nil {
		return Peak{}, fmt.Errorf("spectrum: forward fft: %w", err)
	}

	half := n / 2
	power := make([]float64, 3*(half+1))
	Power(power[:half+1], buf[:half+1], power[half+1:2*(half+1)], power[2*(half+1):])
	power = power[:half+1]

	best := 1
	for k := 2; k < half; k++ {
		if power[k] > power[best] {
			best = k
		}
	}
	if power[best] == 0 {
		return Peak{}, ErrSilent
	}

	// The log of power is twice the log of magnitude, so the parabola vertex
	// lands on the same bin offset.
	offset := 0.0
	if best > 0 && best < half {
		a := logPower(power[best-1])
		b := logPower(power[best])
		c := logPower(power[best+1])
		if den := a - 2*b + c; den != 0 {
			offset = 0.5 * (a - c) / den
		}
	}

	return Peak{
		FrequencyHz: (float64(best) + offset) * sampleRate / float64(n),
		Bin:         best,
		FFTSize:     n,
		Magnitude:   math.Sqrt(power[best]),
	}, nil
}

func logPower(v float64) float64 {
	return math.Log(v + 1e-300)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
