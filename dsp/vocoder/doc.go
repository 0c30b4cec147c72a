// Package vocoder implements a streaming, pitch-preserving phase vocoder
// over an immutable mono sample sequence.
//
// A Channel reads frameSize samples at a floating cursor, advances the
// cursor by a fixed analysis hop per frame and emits a synthesis hop of
// output per frame. The ratio of the two hops is the stretch ratio alpha
// (output duration / input duration). Per-bin instantaneous frequencies are
// estimated from phase differences between consecutive frames and
// re-accumulated at the synthesis hop, so pitch is preserved while duration
// scales by alpha.
package vocoder
