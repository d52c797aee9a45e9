package spectral

// SpectralRolloff finds the frequency below which a fixed share of the
// spectral magnitude lies
type SpectralRolloff struct {
	sampleRate int
	threshold  float64
	freqBins   []float64
}

// NewSpectralRolloff creates a rolloff calculator; threshold is typically 0.85
func NewSpectralRolloff(sampleRate int, threshold float64) *SpectralRolloff {
	return &SpectralRolloff{
		sampleRate: sampleRate,
		threshold:  threshold,
	}
}

// Compute returns the rolloff frequency in Hz, 0 for a silent frame
func (sr *SpectralRolloff) Compute(spectrum []float64) float64 {
	if len(spectrum) == 0 {
		return 0.0
	}

	if len(sr.freqBins) != len(spectrum) {
		sr.freqBins = BinFrequencies(len(spectrum), (len(spectrum)-1)*2, sr.sampleRate)
	}

	total := 0.0
	for _, m := range spectrum {
		total += m
	}
	if total == 0 {
		return 0
	}

	target := sr.threshold * total
	cumulative := 0.0
	for i, m := range spectrum {
		cumulative += m
		if cumulative >= target {
			return sr.freqBins[i]
		}
	}

	return sr.freqBins[len(sr.freqBins)-1]
}

// ComputeFrames processes every frame of a spectrogram
func (sr *SpectralRolloff) ComputeFrames(spectrogram [][]float64) []float64 {
	rolloffs := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		rolloffs[t] = sr.Compute(spectrum)
	}
	return rolloffs
}
