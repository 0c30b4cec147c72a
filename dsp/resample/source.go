package resample

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-stretch/dsp/buffer"
	"github.com/cwbudde/algo-stretch/dsp/core"
)

// rateTolerance is the relative difference below which two sample rates are
// treated as the same.
const rateTolerance = 1e-9

// Source converts every channel of src to outRate. The result has
// round(frames*outRate/inRate) frames and is aligned with src: the filter
// delay is removed and the tail is flushed with silence. src is returned
// unchanged when the rates already match to within one part in 1e9.
func Source(src *buffer.Source, outRate float64, opts ...Option) (*buffer.Source, error) {
	if !validRate(outRate) {
		return nil, fmt.Errorf("%w: %f", ErrInvalidRate, outRate)
	}
	if core.NearlyEqual(src.SampleRate(), outRate, rateTolerance) {
		return src, nil
	}

	first, err := NewForRates(src.SampleRate(), outRate, opts...)
	if err != nil {
		return nil, err
	}
	up, down := first.Ratio()

	want := int(math.Round(float64(src.Frames()) * float64(up) / float64(down)))
	skip := int(math.Round(first.Delay()))
	tail := make([]float64, (skip+1)*down/up+1)

	channels := make([][]float64, src.Channels())
	for c := range channels {
		r := first
		if c > 0 {
			r, _ = NewRational(up, down, opts...)
		}

		out := r.Process(src.Channel(c))
		out = append(out, r.Process(tail)...)

		channels[c] = fit(out[min(skip, len(out)):], want)
	}

	// Approximated ratios can miss outRate slightly; report what the data is.
	return buffer.NewSource(channels, src.SampleRate()*float64(up)/float64(down))
}

func fit(data []float64, n int) []float64 {
	if len(data) >= n {
		return data[:n:n]
	}
	return append(data, make([]float64, n-len(data))...)
}
