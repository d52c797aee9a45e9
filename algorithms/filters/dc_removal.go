package filters

import (
	"math"
)

// DCRemoval is a one-pole DC blocking filter (high-pass) that strips the
// 0 Hz component before spectral analysis.
//
// References:
//   - Julius O. Smith III, "Introduction to Digital Filters with Audio Applications"
//     https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
//   - Udo Zölzer, "Digital Audio Signal Processing", 2nd Edition, Chapter 5
//
// The difference equation is y[n] = x[n] - x[n-1] + R*y[n-1].
type DCRemoval struct {
	poleLocation float64 // R parameter (0 < R < 1)
}

// NewDCRemoval creates a DC blocker with the given -3dB cutoff.
//
// The pole location R is calculated as:
// R = 1 - 2*pi*fc/fs
// which holds for fc << fs/2.
func NewDCRemoval(sampleRate int, cutoffFreq float64) *DCRemoval {
	pole := 0.995
	if sampleRate > 0 && cutoffFreq > 0 {
		pole = 1.0 - (2.0 * math.Pi * cutoffFreq / float64(sampleRate))
	}
	return &DCRemoval{poleLocation: min(max(pole, 0.001), 0.999999)}
}

// Apply filters a whole buffer. The filter state is primed with the first
// sample, so a constant signal maps to exact zeros instead of a decaying
// step transient.
func (dc *DCRemoval) Apply(input []float64) []float64 {
	output := make([]float64, len(input))
	if len(input) == 0 {
		return output
	}

	x1, y1 := input[0], 0.0
	for i, x := range input {
		y := x - x1 + dc.poleLocation*y1
		output[i] = y
		x1, y1 = x, y
	}
	return output
}

// PoleLocation returns R
func (dc *DCRemoval) PoleLocation() float64 {
	return dc.poleLocation
}

// FrequencyResponse returns the magnitude response at frequency.
//
// H(e^jw) = (1 - e^-jw) / (1 - R*e^-jw)
func (dc *DCRemoval) FrequencyResponse(frequency float64, sampleRate int) float64 {
	w := 2.0 * math.Pi * frequency / float64(sampleRate)
	num := complex(1-math.Cos(w), math.Sin(w))
	den := complex(1-dc.poleLocation*math.Cos(w), dc.poleLocation*math.Sin(w))
	h := num / den
	return math.Hypot(real(h), imag(h))
}
