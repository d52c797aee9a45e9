package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps the go-dsp transform used by every spectrogram in this module
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the complex spectrum of a real frame.
// go-dsp handles non power-of-two sizes as well.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// Magnitude returns |X[k]| for the non-negative frequencies of a real frame
func (f *FFT) Magnitude(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}
	spectrum := fft.FFTReal(x)
	bins := len(x)/2 + 1
	mag := make([]float64, bins)
	for k := range bins {
		mag[k] = cmplx.Abs(spectrum[k])
	}
	return mag
}

// BinFrequencies returns the center frequency in Hz of each of numBins
// one-sided bins for an fftSize-point transform.
func BinFrequencies(numBins, fftSize, sampleRate int) []float64 {
	freqs := make([]float64, numBins)
	if fftSize <= 0 {
		return freqs
	}
	step := float64(sampleRate) / float64(fftSize)
	for k := range freqs {
		freqs[k] = float64(k) * step
	}
	return freqs
}
