package spectral

import (
	"math"
)

// PowerSpectrum converts magnitudes to power and power to decibels
type PowerSpectrum struct{}

// NewPowerSpectrum creates a new power spectrum calculator
func NewPowerSpectrum() *PowerSpectrum {
	return &PowerSpectrum{}
}

// Compute squares a magnitude spectrum
func (ps *PowerSpectrum) Compute(magnitudeSpectrum []float64) []float64 {
	power := make([]float64, len(magnitudeSpectrum))
	for i, mag := range magnitudeSpectrum {
		power[i] = mag * mag
	}
	return power
}

// ComputeFrames squares every frame of a spectrogram
func (ps *PowerSpectrum) ComputeFrames(spectrogram [][]float64) [][]float64 {
	power := make([][]float64, len(spectrogram))
	for t, frame := range spectrogram {
		power[t] = ps.Compute(frame)
	}
	return power
}

// ToDecibels converts a power matrix to dB with a 1e-10 floor, then clamps
// everything more than topDB below the global maximum. topDB <= 0 disables
// the clamp.
func (ps *PowerSpectrum) ToDecibels(power [][]float64, topDB float64) [][]float64 {
	out := make([][]float64, len(power))
	peak := math.Inf(-1)
	for t, frame := range power {
		out[t] = make([]float64, len(frame))
		for i, p := range frame {
			db := 10 * math.Log10(math.Max(p, 1e-10))
			out[t][i] = db
			peak = math.Max(peak, db)
		}
	}

	if topDB <= 0 || math.IsInf(peak, -1) {
		return out
	}

	floor := peak - topDB
	for _, frame := range out {
		for i, db := range frame {
			if db < floor {
				frame[i] = floor
			}
		}
	}
	return out
}
