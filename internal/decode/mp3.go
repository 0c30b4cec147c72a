package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/cwbudde/algo-stretch/dsp/buffer"
)

// go-mp3 always produces 16-bit little-endian stereo.
const (
	mp3Channels      = 2
	mp3BytesPerFrame = mp3Channels * 2
)

// MP3 decodes MPEG-1/2 layer III files.
type MP3 struct{}

// Decode reads the whole stream into memory.
func (MP3) Decode(r io.ReadSeeker) (*buffer.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("opening mp3: %w", err)
	}

	var pcm []byte
	if n := dec.Length(); n > 0 {
		pcm = make([]byte, 0, n)
	}

	chunk := make([]byte, 16384)
	for {
		n, err := dec.Read(chunk)
		pcm = append(pcm, chunk[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading mp3: %w", err)
		}
	}

	frames := len(pcm) / mp3BytesPerFrame
	left := make([]float64, frames)
	right := make([]float64, frames)
	for f := 0; f < frames; f++ {
		b := pcm[f*mp3BytesPerFrame:]
		left[f] = float64(int16(binary.LittleEndian.Uint16(b[0:2]))) / 32768.0
		right[f] = float64(int16(binary.LittleEndian.Uint16(b[2:4]))) / 32768.0
	}

	return buffer.NewSource([][]float64{left, right}, float64(dec.SampleRate()))
}
