//go:build headless

package device

import (
	"errors"
	"time"
)

// ErrNoDevice is returned by Open in headless builds.
var ErrNoDevice = errors.New("device: built without audio output")

// Output is unavailable in headless builds.
type Output struct{}

// Open always fails with ErrNoDevice.
func Open(*Stream, int, time.Duration) (*Output, error) { return nil, ErrNoDevice }

// Start does nothing.
func (*Output) Start() {}

// Err returns ErrNoDevice.
func (*Output) Err() error { return ErrNoDevice }

// Close does nothing.
func (*Output) Close() error { return nil }
