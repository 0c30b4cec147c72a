package player

import (
	"errors"

	"github.com/cwbudde/algo-stretch/dsp/stretch"
)

var (
	// ErrInvalidRange is returned by Loop for malformed or out-of-track
	// bounds. The previous loop region is kept.
	ErrInvalidRange = errors.New("player: invalid loop range")
	// ErrInvalidRate is returned by SetPlaybackRate for non-positive or
	// non-finite rates. The previous rate is kept.
	ErrInvalidRate = errors.New("player: invalid playback rate")
	// ErrInvalidTime is returned by ParseTime for malformed input.
	ErrInvalidTime = errors.New("player: invalid time")
	// ErrUnderrun is wrapped by RenderBlock when the engine could not fill
	// a block. Playback has been forced to Stopped.
	ErrUnderrun = stretch.ErrUnderrun
)
