package decode

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/cwbudde/algo-stretch/dsp/buffer"
)

// Vorbis decodes Ogg Vorbis files.
type Vorbis struct{}

// Decode reads the whole stream into memory.
func (Vorbis) Decode(r io.ReadSeeker) (*buffer.Source, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading ogg vorbis: %w", err)
	}

	return buffer.FromInterleaved(data, format.Channels, float64(format.SampleRate))
}
