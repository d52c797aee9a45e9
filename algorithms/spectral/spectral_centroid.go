package spectral

// SpectralCentroid computes the magnitude-weighted mean frequency of a spectrum
type SpectralCentroid struct {
	sampleRate int
	freqBins   []float64
}

// NewSpectralCentroid creates a new spectral centroid calculator
func NewSpectralCentroid(sampleRate int) *SpectralCentroid {
	return &SpectralCentroid{
		sampleRate: sampleRate,
	}
}

// Compute calculates spectral centroid in Hz for a single magnitude spectrum.
// A silent frame has centroid 0.
func (sc *SpectralCentroid) Compute(spectrum []float64) float64 {
	if len(spectrum) == 0 {
		return 0.0
	}

	if len(sc.freqBins) != len(spectrum) {
		sc.freqBins = BinFrequencies(len(spectrum), (len(spectrum)-1)*2, sc.sampleRate)
	}

	return weightedMean(sc.freqBins, spectrum)
}

// ComputeFrames processes every frame of a spectrogram
func (sc *SpectralCentroid) ComputeFrames(spectrogram [][]float64) []float64 {
	centroids := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		centroids[t] = sc.Compute(spectrum)
	}
	return centroids
}

func weightedMean(values, weights []float64) float64 {
	num, den := 0.0, 0.0
	for i, w := range weights {
		num += values[i] * w
		den += w
	}
	if den == 0 {
		return 0
	}
	return num / den
}
