package decode

import "errors"

var (
	// ErrUnsupportedFormat is returned when no decoder is registered for a
	// format.
	ErrUnsupportedFormat = errors.New("decode: unsupported format")
	// ErrNotWav is returned when a file lacks a valid RIFF/WAVE header.
	ErrNotWav = errors.New("decode: not a valid wav file")
	// ErrNotAiff is returned when a file lacks a valid FORM/AIFF header.
	ErrNotAiff = errors.New("decode: not a valid aiff file")
	// ErrUnsupportedBitDepth is returned for integer PCM depths other than
	// 8, 16, 24 or 32 bits.
	ErrUnsupportedBitDepth = errors.New("decode: unsupported bit depth")
	// ErrEmpty is returned when a file decodes to zero frames.
	ErrEmpty = errors.New("decode: no audio frames")
)
