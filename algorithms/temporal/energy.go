package temporal

import (
	"github.com/RyanBlaney/sonido-pulso/algorithms/common"
)

// Energy computes frame-level loudness
type Energy struct {
	frameSize int
	hopSize   int
}

// NewEnergy creates a new energy calculator
func NewEnergy(frameSize, hopSize int) *Energy {
	return &Energy{
		frameSize: frameSize,
		hopSize:   hopSize,
	}
}

// ComputeRMS returns one RMS value per frame. Frames are laid out like the
// spectrogram frames of the same size and hop: a signal shorter than one
// frame still yields a single value.
func (e *Energy) ComputeRMS(signal []float64) []float64 {
	if len(signal) == 0 || e.hopSize <= 0 || e.frameSize <= 0 {
		return []float64{}
	}

	numFrames := 1
	if len(signal) > e.frameSize {
		numFrames = (len(signal)-e.frameSize)/e.hopSize + 1
	}

	energies := make([]float64, numFrames)
	for i := range numFrames {
		start := i * e.hopSize
		end := min(start+e.frameSize, len(signal))
		energies[i] = common.RMS(signal[start:end])
	}

	return energies
}
