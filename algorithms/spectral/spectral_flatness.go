package spectral

import (
	"math"
)

// SpectralFlatness computes spectral flatness (Wiener entropy).
// Tonal frames sit near 0, white noise near 1.
type SpectralFlatness struct {
	minThreshold float64 // floor applied to every bin to avoid log(0)
}

// NewSpectralFlatness creates a new spectral flatness calculator
func NewSpectralFlatness() *SpectralFlatness {
	return &SpectralFlatness{
		minThreshold: 1e-10,
	}
}

// Compute returns the ratio of geometric to arithmetic mean of a power
// spectrum. Every bin is floored at minThreshold, so a silent frame reads
// as perfectly flat.
func (sf *SpectralFlatness) Compute(powerSpectrum []float64) float64 {
	if len(powerSpectrum) == 0 {
		return 0.0
	}

	logSum := 0.0
	arithmeticMean := 0.0
	for _, p := range powerSpectrum {
		v := math.Max(p, sf.minThreshold)
		logSum += math.Log(v)
		arithmeticMean += v
	}

	n := float64(len(powerSpectrum))
	geometricMean := math.Exp(logSum / n)
	arithmeticMean /= n

	return math.Min(geometricMean/arithmeticMean, 1.0)
}

// ComputeFrames processes every frame of a power spectrogram
func (sf *SpectralFlatness) ComputeFrames(spectrogram [][]float64) []float64 {
	flatness := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		flatness[t] = sf.Compute(spectrum)
	}
	return flatness
}
