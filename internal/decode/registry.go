package decode

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cwbudde/algo-stretch/dsp/buffer"
)

// Decoder turns an encoded stream into a Source.
type Decoder interface {
	Decode(r io.ReadSeeker) (*buffer.Source, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(r io.ReadSeeker) (*buffer.Source, error)

// Decode calls f(r).
func (f DecoderFunc) Decode(r io.ReadSeeker) (*buffer.Source, error) { return f(r) }

// Registry maps format names to decoders. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Decoder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

// DefaultRegistry returns a registry with every built-in decoder.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("wav", WAV{})
	r.Register("wave", WAV{})
	r.Register("aiff", AIFF{})
	r.Register("aif", AIFF{})
	r.Register("mp3", MP3{})
	r.Register("ogg", Vorbis{})
	r.Register("oga", Vorbis{})
	return r
}

// Register adds or replaces the decoder for format.
func (r *Registry) Register(format string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.codecs[normalizeFormat(format)] = d
}

// Get returns the decoder for format.
func (r *Registry) Get(format string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.codecs[normalizeFormat(format)]
	return d, ok
}

// Formats returns the registered format names in sorted order.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.codecs))
	for f := range r.codecs {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Decode decodes rs with the decoder registered for format.
func (r *Registry) Decode(rs io.ReadSeeker, format string) (*buffer.Source, error) {
	d, ok := r.Get(format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	src, err := d.Decode(rs)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", normalizeFormat(format), err)
	}

	if src.Frames() == 0 {
		return nil, fmt.Errorf("decode %s: %w", normalizeFormat(format), ErrEmpty)
	}

	return src, nil
}

// Load opens path and decodes it by file extension.
func (r *Registry) Load(path string) (*buffer.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	defer f.Close()

	return r.Decode(f, FormatOf(path))
}

// Load decodes path with the default registry.
func Load(path string) (*buffer.Source, error) {
	return DefaultRegistry().Load(path)
}

// FormatOf returns the lower-case extension of path without the dot.
func FormatOf(path string) string {
	return normalizeFormat(filepath.Ext(path))
}

func normalizeFormat(format string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
}
