package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Ramp returns 0, 1, ..., length-1 scaled by step. A ramp makes read
// positions visible in the output of anything that copies source samples.
func Ramp(length int, step float64) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = float64(i) * step
	}
	return out
}

// StereoSine returns two channels carrying sines at freqL and freqR.
func StereoSine(freqL, freqR, sampleRate, amplitude float64, length int) [][]float64 {
	return [][]float64{
		DeterministicSine(freqL, sampleRate, amplitude, length),
		DeterministicSine(freqR, sampleRate, amplitude, length),
	}
}

// RMS returns the root mean square of data, or 0 for an empty slice.
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(data)))
}

// MaxStep returns the largest absolute difference between neighbouring
// samples. Clicks at block or hop boundaries show up as outliers here.
func MaxStep(data []float64) float64 {
	maxStep := 0.0
	for i := 1; i < len(data); i++ {
		if d := math.Abs(data[i] - data[i-1]); d > maxStep {
			maxStep = d
		}
	}
	return maxStep
}

// Ones returns a slice of ones.
func Ones(length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = 1
	}
	return out
}
