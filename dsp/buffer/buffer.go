package buffer

import "github.com/cwbudde/algo-stretch/dsp/core"

// Block is a planar multi-channel render block with reuse-friendly
// semantics. Hosts allocate one Block up front and hand Planes() to the
// render path on every callback.
type Block struct {
	planes [][]float64
	frames int
}

// NewBlock returns a zero-filled Block with the given shape.
func NewBlock(numChannels, frames int) *Block {
	if numChannels < 0 {
		numChannels = 0
	}
	if frames < 0 {
		frames = 0
	}

	planes := make([][]float64, numChannels)
	backing := make([]float64, numChannels*frames)
	for c := range planes {
		planes[c] = backing[c*frames : (c+1)*frames : (c+1)*frames]
	}

	return &Block{planes: planes, frames: frames}
}

// Planes returns the per-channel slices.
func (b *Block) Planes() [][]float64 { return b.planes }

// Channels returns the channel count.
func (b *Block) Channels() int { return len(b.planes) }

// Frames returns the current number of samples per channel.
func (b *Block) Frames() int { return b.frames }

// Capacity returns the largest frame count Resize can set without allocating.
func (b *Block) Capacity() int {
	if len(b.planes) == 0 {
		return 0
	}
	return cap(b.planes[0])
}

// Resize sets the frame count, reusing capacity when possible. Returned
// planes share storage with the previous shape only when no growth happened.
func (b *Block) Resize(frames int) {
	if frames < 0 {
		frames = 0
	}
	if frames <= b.Capacity() {
		for c := range b.planes {
			b.planes[c] = b.planes[c][:frames]
		}
		b.frames = frames
		return
	}

	grown := NewBlock(len(b.planes), frames)
	for c := range b.planes {
		copy(grown.planes[c], b.planes[c])
	}
	*b = *grown
}

// Zero sets all samples to 0.
func (b *Block) Zero() {
	for _, p := range b.planes {
		core.Zero(p)
	}
}

// Scale multiplies every sample by gain.
func (b *Block) Scale(gain float64) {
	if gain == 1 {
		return
	}
	for _, p := range b.planes {
		for i := range p {
			p[i] *= gain
		}
	}
}

// Interleave writes frames into dst as interleaved float32 for outChannels
// output channels. Missing source channels repeat the last one (mono to
// stereo); extra source channels are dropped. It returns the number of values
// written.
func (b *Block) Interleave(dst []float32, outChannels int) int {
	if outChannels <= 0 || len(b.planes) == 0 {
		return 0
	}

	frames := b.frames
	if limit := len(dst) / outChannels; frames > limit {
		frames = limit
	}

	last := len(b.planes) - 1
	for f := 0; f < frames; f++ {
		base := f * outChannels
		for c := 0; c < outChannels; c++ {
			src := c
			if src > last {
				src = last
			}
			dst[base+c] = float32(b.planes[src][f])
		}
	}

	return frames * outChannels
}
