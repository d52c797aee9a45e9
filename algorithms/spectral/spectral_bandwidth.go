package spectral

import (
	"math"
)

// SpectralBandwidth computes the weighted standard deviation of frequency
// around the centroid. Weighted by magnitude it is the classic bandwidth,
// weighted by power it is the spectral spread.
type SpectralBandwidth struct {
	sampleRate int
	freqBins   []float64
}

// NewSpectralBandwidth creates a new spectral bandwidth calculator
func NewSpectralBandwidth(sampleRate int) *SpectralBandwidth {
	return &SpectralBandwidth{
		sampleRate: sampleRate,
	}
}

// Compute returns the bandwidth in Hz of weights (magnitude or power) with
// respect to their own weighted centroid
func (sb *SpectralBandwidth) Compute(weights []float64) float64 {
	if len(weights) == 0 {
		return 0.0
	}

	if len(sb.freqBins) != len(weights) {
		sb.freqBins = BinFrequencies(len(weights), (len(weights)-1)*2, sb.sampleRate)
	}

	centroid := weightedMean(sb.freqBins, weights)

	num, den := 0.0, 0.0
	for i, w := range weights {
		d := sb.freqBins[i] - centroid
		num += w * d * d
		den += w
	}
	if den == 0 {
		return 0
	}

	return math.Sqrt(num / den)
}

// ComputeFrames processes every frame of a spectrogram
func (sb *SpectralBandwidth) ComputeFrames(spectrogram [][]float64) []float64 {
	bandwidths := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		bandwidths[t] = sb.Compute(spectrum)
	}
	return bandwidths
}
