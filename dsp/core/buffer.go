package core

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// ShiftLeft moves buf[n:] to the front of buf and zeroes the vacated tail.
// It is the advance step of an overlap-add accumulator.
func ShiftLeft(buf []float64, n int) {
	if n <= 0 {
		return
	}
	if n >= len(buf) {
		Zero(buf)
		return
	}
	copy(buf, buf[n:])
	Zero(buf[len(buf)-n:])
}
