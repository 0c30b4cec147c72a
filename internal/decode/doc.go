// Package decode loads audio files into planar sources for the player.
//
// Decoders are looked up by format name (the lower-case file extension) in
// a Registry. The default registry knows WAV, AIFF, MP3 and Ogg Vorbis.
package decode
