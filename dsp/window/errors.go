package window

import (
	"errors"
	"fmt"
)

var (
	errEmptyCoeffs      = errors.New("window coefficients must not be empty")
	errZeroCoherentGain = errors.New("window coherent gain is zero")
	errMismatchedLength = errors.New("samples and coefficients must have same length")

	// ErrUnknownType is returned by ParseType for names it does not know.
	ErrUnknownType = errors.New("window: unknown type")
)

func validateLength(size int) error {
	if size <= 0 {
		return fmt.Errorf("window size must be > 0: %d", size)
	}
	return nil
}

func validateHop(size, hop int) error {
	if err := validateLength(size); err != nil {
		return err
	}
	if hop <= 0 || hop > size {
		return fmt.Errorf("hop must be in [1,%d]: %d", size, hop)
	}
	return nil
}
