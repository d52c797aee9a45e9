package spectral

// SpectralFlux measures frame-to-frame spectral increase
type SpectralFlux struct{}

// NewSpectralFlux creates a new spectral flux calculator
func NewSpectralFlux() *SpectralFlux {
	return &SpectralFlux{}
}

// Compute returns half-wave rectified flux averaged over bands. The first
// frame has no predecessor and gets 0, so the output has one value per
// input frame.
func (sf *SpectralFlux) Compute(spectrogram [][]float64) []float64 {
	flux := make([]float64, len(spectrogram))
	for t := 1; t < len(spectrogram); t++ {
		cur, prev := spectrogram[t], spectrogram[t-1]
		n := min(len(cur), len(prev))
		if n == 0 {
			continue
		}
		sum := 0.0
		for k := range n {
			if d := cur[k] - prev[k]; d > 0 {
				sum += d
			}
		}
		flux[t] = sum / float64(n)
	}
	return flux
}

// NormalizePeak scales a non-negative curve so its maximum is 1.
// An all-zero curve stays zero.
func NormalizePeak(curve []float64) []float64 {
	peak := 0.0
	for _, v := range curve {
		if v > peak {
			peak = v
		}
	}
	out := make([]float64, len(curve))
	if peak == 0 {
		return out
	}
	for i, v := range curve {
		out[i] = v / peak
	}
	return out
}
