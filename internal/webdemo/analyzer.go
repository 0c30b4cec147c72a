package webdemo

import (
	"github.com/cwbudde/algo-stretch/dsp/ring"
	"github.com/cwbudde/algo-stretch/dsp/spectrum"
)

const analyzerLength = 4096

// analyzer keeps the latest mono mix of the output for the pitch readout.
type analyzer struct {
	sampleRate float64
	history    *ring.Buffer
	scratch    []float64
}

func newAnalyzer(sampleRate float64) (*analyzer, error) {
	history, err := ring.New(analyzerLength)
	if err != nil {
		return nil, err
	}

	return &analyzer{
		sampleRate: sampleRate,
		history:    history,
		scratch:    make([]float64, analyzerLength),
	}, nil
}

func (a *analyzer) reset() { a.history.Reset() }

// push appends the channel average of planes, dropping the oldest samples
// once the history is full.
func (a *analyzer) push(planes [][]float64) {
	if len(planes) == 0 {
		return
	}

	inv := 1 / float64(len(planes))
	for i := range planes[0] {
		sum := 0.0
		for _, p := range planes {
			sum += p[i]
		}
		a.history.Push(sum * inv)
	}
}

func (a *analyzer) dominant() float64 {
	n := a.history.ShiftInto(a.scratch)
	a.history.PushSlice(a.scratch[:n])

	// Silence and a short history both read as "no pitch".
	f, err := spectrum.DominantFrequency(a.scratch[:n], a.sampleRate)
	if err != nil {
		return 0
	}

	return f
}
