package temporal

import (
	"fmt"
	"sync"

	"github.com/RyanBlaney/sonido-pulso/algorithms/common"
	"github.com/RyanBlaney/sonido-pulso/algorithms/spectral"
)

// OnsetDetection turns a magnitude spectrogram into a novelty curve and
// picks onsets from it
type OnsetDetection struct {
	numMelBands  int
	topDB        float64
	sensitivity  float64 // threshold = mean + sensitivity*std
	spectralFlux *spectral.SpectralFlux
	power        *spectral.PowerSpectrum

	mu         sync.Mutex
	melBank    *spectral.MelFilterBank
	melBankKey [2]int // fft size, sample rate the bank was built for
}

// NewOnsetDetection creates an onset detector over numMelBands mel bands
func NewOnsetDetection(numMelBands int, topDB, sensitivity float64) *OnsetDetection {
	return &OnsetDetection{
		numMelBands:  numMelBands,
		topDB:        topDB,
		sensitivity:  sensitivity,
		spectralFlux: spectral.NewSpectralFlux(),
		power:        spectral.NewPowerSpectrum(),
	}
}

// Envelope computes the onset strength curve: mel power in dB clamped
// topDB below its peak, positive flux averaged over bands, scaled to a
// maximum of 1. The curve has one value per spectrogram frame.
func (od *OnsetDetection) Envelope(stftResult *spectral.STFTResult) ([]float64, error) {
	if stftResult == nil || stftResult.TimeFrames == 0 {
		return []float64{}, nil
	}

	bank, err := od.filterBank(stftResult.WindowSize, stftResult.SampleRate)
	if err != nil {
		return nil, err
	}

	mel := bank.ApplyFrames(od.power.ComputeFrames(stftResult.Magnitude))
	melDB := od.power.ToDecibels(mel, od.topDB)

	return spectral.NormalizePeak(od.spectralFlux.Compute(melDB)), nil
}

// filterBank returns the cached mel bank, rebuilding it when the resolution
// changes. Safe for concurrent use.
func (od *OnsetDetection) filterBank(fftSize, sampleRate int) (*spectral.MelFilterBank, error) {
	od.mu.Lock()
	defer od.mu.Unlock()

	key := [2]int{fftSize, sampleRate}
	if od.melBank == nil || od.melBankKey != key {
		bank, err := spectral.NewMelFilterBank(od.numMelBands, fftSize, sampleRate, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to build onset mel bank: %w", err)
		}
		od.melBank, od.melBankKey = bank, key
	}
	return od.melBank, nil
}

// Threshold returns mean + sensitivity*std of the envelope
func (od *OnsetDetection) Threshold(envelope []float64) float64 {
	return common.Mean(envelope) + od.sensitivity*common.StandardDeviation(envelope)
}

// CountOnsets counts envelope samples strictly above the threshold
func (od *OnsetDetection) CountOnsets(envelope []float64) int {
	threshold := od.Threshold(envelope)
	count := 0
	for _, v := range envelope {
		if v > threshold {
			count++
		}
	}
	return count
}

// PickPeaks returns the frame indices of local maxima above the threshold
func (od *OnsetDetection) PickPeaks(envelope []float64) []int {
	threshold := od.Threshold(envelope)
	peaks := []int{}
	for _, i := range common.FindPeaks(envelope, threshold, 1) {
		if envelope[i] > threshold {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// PeakIntervals converts consecutive peak frames to seconds
func PeakIntervals(peaks []int, frameRate float64) []float64 {
	if len(peaks) < 2 || frameRate <= 0 {
		return []float64{}
	}
	intervals := make([]float64, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		intervals[i-1] = float64(peaks[i]-peaks[i-1]) / frameRate
	}
	return intervals
}
