// Package spectrum estimates the dominant frequency of a signal.
//
// FindPeak runs its own forward transform over a Hann-windowed copy of the
// input and searches the one-sided power spectrum. Tooling and tests use it
// to check that time-stretched output keeps its pitch.
package spectrum
