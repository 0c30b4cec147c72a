package decode

import (
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"

	"github.com/cwbudde/algo-stretch/dsp/buffer"
)

const aiffChunkSamples = 8192

// AIFF decodes integer PCM AIFF files.
type AIFF struct{}

// Decode reads the whole file into memory.
func (AIFF) Decode(r io.ReadSeeker) (*buffer.Source, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotAiff
	}

	dec.ReadInfo()

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 {
		return nil, ErrNotAiff
	}

	chunk := &goaudio.IntBuffer{
		Data:   make([]int, aiffChunkSamples*format.NumChannels),
		Format: format,
	}

	var data []int
	for {
		n, err := dec.PCMBuffer(chunk)
		data = append(data, chunk.Data[:n]...)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("reading aiff pcm: %w", err)
		}
		if n == 0 {
			break
		}
	}

	channels, err := planarFromInts(data, format.NumChannels, int(dec.BitDepth))
	if err != nil {
		return nil, err
	}

	return buffer.NewSource(channels, float64(format.SampleRate))
}
