// Package buffer holds the PCM containers shared by the stretch engine and
// its hosts. Source is the immutable decoded recording; Block is the planar
// scratch a host hands to the render path. Both store float64 samples per
// channel, so DSP code can index channels without deinterleaving.
package buffer
