package spectral

import (
	"fmt"
	"math"
)

// HzToMel converts frequency in Hz to the HTK mel scale
func HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts HTK mel back to Hz
func MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// MelFilterBank is a set of area-normalized triangular filters laid over the
// one-sided bins of a fixed FFT size. Build it once per resolution.
type MelFilterBank struct {
	filters  [][]float64
	freqBins int
}

// NewMelFilterBank creates numFilters triangles between lowFreq and highFreq.
// Triangles are evaluated on bin center frequencies, so narrow low filters
// still receive weight from their neighbouring bins.
func NewMelFilterBank(numFilters, fftSize, sampleRate int, lowFreq, highFreq float64) (*MelFilterBank, error) {
	if numFilters <= 0 || fftSize <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid mel filter bank parameters: filters=%d fft=%d sr=%d", numFilters, fftSize, sampleRate)
	}
	nyquist := float64(sampleRate) / 2
	if highFreq <= 0 || highFreq > nyquist {
		highFreq = nyquist
	}
	if lowFreq < 0 || lowFreq >= highFreq {
		return nil, fmt.Errorf("invalid mel frequency range [%g, %g]", lowFreq, highFreq)
	}

	lowMel := HzToMel(lowFreq)
	highMel := HzToMel(highFreq)

	hzPoints := make([]float64, numFilters+2)
	melStep := (highMel - lowMel) / float64(numFilters+1)
	for i := range hzPoints {
		hzPoints[i] = MelToHz(lowMel + float64(i)*melStep)
	}

	freqBins := fftSize/2 + 1
	freqs := BinFrequencies(freqBins, fftSize, sampleRate)

	filters := make([][]float64, numFilters)
	for m := range filters {
		left, center, right := hzPoints[m], hzPoints[m+1], hzPoints[m+2]
		norm := 2.0 / (right - left)
		filter := make([]float64, freqBins)
		for k, f := range freqs {
			lower := (f - left) / (center - left)
			upper := (right - f) / (right - center)
			if w := math.Min(lower, upper); w > 0 {
				filter[k] = w * norm
			}
		}
		filters[m] = filter
	}

	return &MelFilterBank{filters: filters, freqBins: freqBins}, nil
}

// NumFilters returns the number of mel bands
func (mb *MelFilterBank) NumFilters() int {
	return len(mb.filters)
}

// Apply projects a power spectrum onto the mel bands
func (mb *MelFilterBank) Apply(powerSpectrum []float64) []float64 {
	melSpectrum := make([]float64, len(mb.filters))
	for i, filter := range mb.filters {
		sum := 0.0
		for j := 0; j < len(filter) && j < len(powerSpectrum); j++ {
			sum += powerSpectrum[j] * filter[j]
		}
		melSpectrum[i] = sum
	}
	return melSpectrum
}

// ApplyFrames projects every frame of a power spectrogram
func (mb *MelFilterBank) ApplyFrames(powerSpectrogram [][]float64) [][]float64 {
	mel := make([][]float64, len(powerSpectrogram))
	for t, frame := range powerSpectrogram {
		mel[t] = mb.Apply(frame)
	}
	return mel
}
