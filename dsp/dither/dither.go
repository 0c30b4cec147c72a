// Package dither quantizes normalized samples to signed integer PCM with
// optional dither noise and first-order noise shaping.
package dither

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned by ParseType for unrecognised names.
var ErrUnknownType = errors.New("dither: unknown type")

// Type selects the probability distribution of the dither noise.
type Type int

const (
	// TypeNone rounds without noise.
	TypeNone Type = iota
	// TypeRectangular adds uniform noise of one LSB peak to peak.
	TypeRectangular
	// TypeTriangular adds triangular (TPDF) noise of two LSB peak to peak.
	TypeTriangular

	typeCount
)

var typeNames = [typeCount]string{"none", "rectangular", "triangular"}

func (t Type) String() string {
	if t >= 0 && t < typeCount {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool { return t >= 0 && t < typeCount }

// ParseType accepts the String form and the short aliases "rpdf" and
// "tpdf".
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "off", "":
		return TypeNone, nil
	case "rectangular", "rpdf":
		return TypeRectangular, nil
	case "triangular", "tpdf":
		return TypeTriangular, nil
	default:
		return TypeNone, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
}
