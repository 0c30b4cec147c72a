package wavout

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-stretch/dsp/buffer"
)

// Renderer is the render-path surface of a playback controller.
type Renderer interface {
	RenderBlock(out [][]float64) error
	Channels() int
	SampleRate() float64
	IsPlaying() bool
}

// Render pulls blocks of blockSize frames from r and writes them to w until
// seconds of output have been written or playback stops. A non-positive
// seconds value renders until playback stops. It returns the number of
// frames written.
func Render(r Renderer, w *Writer, seconds float64, blockSize int) (int, error) {
	if blockSize <= 0 {
		return 0, fmt.Errorf("wavout: block size must be > 0: %d", blockSize)
	}

	limit := math.MaxInt
	if seconds > 0 {
		limit = int(math.Round(seconds * r.SampleRate()))
	}

	blk := buffer.NewBlock(r.Channels(), blockSize)
	written := 0

	for written < limit && r.IsPlaying() {
		n := min(blockSize, limit-written)
		blk.Resize(n)

		if err := r.RenderBlock(blk.Planes()); err != nil {
			return written, fmt.Errorf("wavout: render: %w", err)
		}

		if err := w.WriteBlock(blk.Planes()); err != nil {
			return written, err
		}

		written += n
	}

	return written, nil
}
