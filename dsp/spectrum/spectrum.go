package spectrum

import (
	"github.com/cwbudde/algo-vecmath"
)

// Power writes |X[k]|^2 of bins into dst. re and im are caller-owned
// scratch for the split real and imaginary parts. dst, re and im must hold
// at least len(bins) values; only that prefix is written.
func Power(dst []float64, bins []complex128, re, im []float64) {
	n := len(bins)
	re, im, dst = re[:n], im[:n], dst[:n]

	for i, c := range bins {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Power(dst, re, im)
}
