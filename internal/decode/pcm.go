package decode

import (
	"fmt"

	"github.com/cwbudde/algo-stretch/dsp/buffer"
)

// intScale returns the full-scale magnitude for signed integer PCM.
func intScale(bitDepth int) (float64, error) {
	switch bitDepth {
	case 8:
		return 128.0, nil
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
}

// planarFromInts splits interleaved integer PCM into normalised channels.
func planarFromInts(data []int, numChannels, bitDepth int) ([][]float64, error) {
	if numChannels <= 0 {
		return nil, buffer.ErrNoChannels
	}

	scale, err := intScale(bitDepth)
	if err != nil {
		return nil, err
	}

	frames := len(data) / numChannels
	out := make([][]float64, numChannels)
	for c := range out {
		out[c] = make([]float64, frames)
	}

	inv := 1 / scale
	for f := 0; f < frames; f++ {
		base := f * numChannels
		for c := 0; c < numChannels; c++ {
			out[c][f] = float64(data[base+c]) * inv
		}
	}

	return out, nil
}
