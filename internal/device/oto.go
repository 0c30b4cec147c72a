//go:build !headless

package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Output owns the oto context and the player reading from a Stream. Only
// one Output may exist per process.
type Output struct {
	ctx    *oto.Context
	player *oto.Player
	stream *Stream

	mu      sync.Mutex
	started bool
}

// Open creates the audio context and a paused player reading from stream.
// bufferSize is the backend buffer length; zero selects the driver default.
func Open(stream *Stream, sampleRate int, bufferSize time.Duration) (*Output, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: stream.Channels(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}

	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("device: open: %w", err)
	}
	<-ready

	return &Output{
		ctx:    ctx,
		player: ctx.NewPlayer(stream),
		stream: stream,
	}, nil
}

// Start begins pulling audio from the stream.
func (o *Output) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.started {
		o.player.Play()
		o.started = true
	}
}

// Err reports an error from the backend player or the stream.
func (o *Output) Err() error {
	if err := o.player.Err(); err != nil {
		return err
	}
	return o.stream.Err()
}

// Close stops and releases the player. The context stays alive.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.started = false
	return o.player.Close()
}
