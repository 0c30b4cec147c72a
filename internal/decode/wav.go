package decode

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-stretch/dsp/buffer"
)

// WAV decodes integer PCM RIFF/WAVE files.
type WAV struct{}

// Decode reads the whole file into memory.
func (WAV) Decode(r io.ReadSeeker) (*buffer.Source, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotWav
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading wav pcm: %w", err)
	}
	if pcm == nil || pcm.Format == nil {
		return nil, ErrNotWav
	}

	// 8-bit WAV is unsigned with its midpoint at 128.
	if dec.BitDepth == 8 {
		for i, v := range pcm.Data {
			pcm.Data[i] = v - 128
		}
	}

	channels, err := planarFromInts(pcm.Data, pcm.Format.NumChannels, int(dec.BitDepth))
	if err != nil {
		return nil, err
	}

	return buffer.NewSource(channels, float64(pcm.Format.SampleRate))
}
