package stats

import (
	"math/cmplx"

	"github.com/RyanBlaney/sonido-pulso/algorithms/common"
	"gonum.org/v1/gonum/dsp/fourier"
)

// AutoCorrelation computes the positive-lag autocorrelation of a signal
// through the power spectrum (Wiener-Khinchin). The signal is zero-padded
// to at least twice its length so the result is linear, not circular.
type AutoCorrelation struct{}

// NewAutoCorrelation creates an autocorrelation calculator
func NewAutoCorrelation() *AutoCorrelation {
	return &AutoCorrelation{}
}

// Compute returns r[0..len(signal)-1] divided by r[0]. A signal with no
// energy returns all zeros.
func (ac *AutoCorrelation) Compute(signal []float64) []float64 {
	n := len(signal)
	if n == 0 {
		return []float64{}
	}

	size := common.NextPowerOfTwo(2 * n)
	padded := make([]float64, size)
	copy(padded, signal)

	fft := fourier.NewFFT(size)
	coeffs := fft.Coefficients(nil, padded)
	for i, c := range coeffs {
		mag := cmplx.Abs(c)
		coeffs[i] = complex(mag*mag, 0)
	}
	raw := fft.Sequence(nil, coeffs)

	out := make([]float64, n)
	if raw[0] <= 0 {
		return out
	}
	for lag := range n {
		out[lag] = raw[lag] / raw[0]
	}
	return out
}
