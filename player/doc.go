// Package player is the playback control plane: a Stopped/Playing state
// machine with seek, loop and playback-rate control on top of a stretch
// engine.
//
// Control methods (Play, Stop, Seek, Loop, SetPlaybackRate, ...) may be
// called from any goroutine. RenderBlock is the render path: the host audio
// callback calls it periodically from a single goroutine, and it never
// blocks or takes a lock. Parameter changes cross from the control path to
// the render path through the engine's single-slot latches and are applied
// at the start of the next block.
//
// Positions are seconds at this boundary and samples inside the engine. The
// stretch ratio handed to the engine is alpha = 1/rate.
package player
