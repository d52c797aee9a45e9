package chroma

import (
	"math"

	"github.com/RyanBlaney/sonido-pulso/algorithms/spectral"
)

// PitchClassNames lists the chroma bins in order, C first
var PitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// ChromaSTFT folds an existing magnitude spectrogram into 12 pitch classes.
// It never runs its own transform, so the spectrogram computed for the
// spectral descriptors is reused as is.
type ChromaSTFT struct {
	tuningFreq float64 // A4 frequency (default 440 Hz)
	minFreq    float64 // lowest frequency considered
	maxFreq    float64 // highest frequency considered
}

// NewChromaSTFT creates a chromagram calculator for the given tuning and
// frequency range
func NewChromaSTFT(tuningFreq, minFreq, maxFreq float64) *ChromaSTFT {
	if tuningFreq <= 0 {
		tuningFreq = 440.0
	}
	return &ChromaSTFT{
		tuningFreq: tuningFreq,
		minFreq:    minFreq,
		maxFreq:    maxFreq,
	}
}

// NewChromaSTFTDefault uses A4=440Hz over roughly E2 to 8kHz
func NewChromaSTFTDefault() *ChromaSTFT {
	return NewChromaSTFT(440.0, 80.0, 8000.0)
}

// FromSTFT returns one unit-sum 12-bin frame per spectrogram frame.
// Frames without energy in range stay all zero.
func (cs *ChromaSTFT) FromSTFT(stftResult *spectral.STFTResult) [][]float64 {
	chromagram := make([][]float64, stftResult.TimeFrames)
	mapping := cs.chromaMapping(stftResult.FreqBins, stftResult.FreqResolution)

	for t, frame := range stftResult.Magnitude {
		chroma := make([]float64, 12)
		for f, bin := range mapping {
			if bin >= 0 && f < len(frame) {
				chroma[bin] += frame[f] * frame[f]
			}
		}
		normalizeFrame(chroma)
		chromagram[t] = chroma
	}

	return chromagram
}

// Profile sums a chromagram over time into a 12-bin pitch-class profile
func Profile(chromagram [][]float64) []float64 {
	profile := make([]float64, 12)
	for _, frame := range chromagram {
		for bin, v := range frame {
			profile[bin] += v
		}
	}
	return profile
}

// chromaMapping maps each FFT bin to a pitch class, or -1 when out of range
func (cs *ChromaSTFT) chromaMapping(freqBins int, freqResolution float64) []int {
	mapping := make([]int, freqBins)

	for f := range freqBins {
		frequency := float64(f) * freqResolution

		if frequency < cs.minFreq || frequency > cs.maxFreq || frequency <= 0 {
			mapping[f] = -1
			continue
		}

		// MIDI 69 is A4
		midi := 69.0 + 12.0*math.Log2(frequency/cs.tuningFreq)
		mapping[f] = ((int(math.Round(midi)) % 12) + 12) % 12
	}

	return mapping
}

func normalizeFrame(chromaFrame []float64) {
	total := 0.0
	for _, energy := range chromaFrame {
		total += energy
	}

	if total > 1e-10 {
		for i := range chromaFrame {
			chromaFrame[i] /= total
		}
	}
}
