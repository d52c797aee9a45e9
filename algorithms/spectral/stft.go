package spectral

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonido-pulso/logging"
)

// STFT provides Short-Time Fourier Transform functionality
type STFT struct {
	fft    *FFT
	logger logging.Logger
}

// STFTResult holds a one-sided magnitude spectrogram
type STFTResult struct {
	Magnitude      [][]float64 `json:"-"`               // Time x Frequency magnitude matrix
	TimeFrames     int         `json:"time_frames"`     // Number of time frames
	FreqBins       int         `json:"freq_bins"`       // Number of frequency bins
	SampleRate     int         `json:"sample_rate"`     // Sample rate
	WindowSize     int         `json:"window_size"`     // FFT window size
	HopSize        int         `json:"hop_size"`        // Hop size between frames
	FreqResolution float64     `json:"freq_resolution"` // Hz per bin
	TimeResolution float64     `json:"time_resolution"` // seconds per frame
}

// Window is anything that can taper a frame in place
type Window interface {
	ApplyInPlace(signal []float64) error
}

// NewSTFT creates a new STFT calculator
func NewSTFT() *STFT {
	return &STFT{
		fft:    NewFFT(),
		logger: logging.WithFields(logging.Fields{"component": "stft"}),
	}
}

// Compute computes a magnitude spectrogram with frames processed in
// parallel. Signals shorter than one window are zero-padded to a single
// frame; the tail after the last full hop is dropped.
func (s *STFT) Compute(signal []float64, windowSize, hopSize, sampleRate int, window Window) (*STFTResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive")
	}

	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive")
	}

	numFrames := 1
	if len(signal) > windowSize {
		numFrames = (len(signal)-windowSize)/hopSize + 1
	}

	freqBins := windowSize/2 + 1

	magnitude := make([][]float64, numFrames)

	numWorkers := s.getOptimalWorkerCount(numFrames)
	jobs := make(chan int, numFrames)

	var wg sync.WaitGroup
	var windowErr error
	var errOnce sync.Once

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			frameBuffer := make([]float64, windowSize)

			for frameIdx := range jobs {
				start := frameIdx * hopSize
				end := min(start+windowSize, len(signal))

				n := copy(frameBuffer, signal[start:end])
				clear(frameBuffer[n:])

				if window != nil {
					if err := window.ApplyInPlace(frameBuffer); err != nil {
						errOnce.Do(func() { windowErr = err })
						magnitude[frameIdx] = make([]float64, freqBins)
						continue
					}
				}

				magnitude[frameIdx] = s.fft.Magnitude(frameBuffer)
			}
		}()
	}

	for frameIdx := range numFrames {
		jobs <- frameIdx
	}
	close(jobs)

	wg.Wait()

	if windowErr != nil {
		return nil, fmt.Errorf("failed to apply window: %w", windowErr)
	}

	s.logger.Debug("Computed spectrogram", logging.Fields{
		"frames":      numFrames,
		"window_size": windowSize,
		"hop_size":    hopSize,
		"workers":     numWorkers,
	})

	return &STFTResult{
		Magnitude:      magnitude,
		TimeFrames:     numFrames,
		FreqBins:       freqBins,
		SampleRate:     sampleRate,
		WindowSize:     windowSize,
		HopSize:        hopSize,
		FreqResolution: float64(sampleRate) / float64(windowSize),
		TimeResolution: float64(hopSize) / float64(sampleRate),
	}, nil
}

// Frequencies returns the center frequency of every bin
func (r *STFTResult) Frequencies() []float64 {
	return BinFrequencies(r.FreqBins, r.WindowSize, r.SampleRate)
}

// FrameRate is the number of spectrogram frames per second
func (r *STFTResult) FrameRate() float64 {
	if r.HopSize == 0 {
		return 0
	}
	return float64(r.SampleRate) / float64(r.HopSize)
}

// getOptimalWorkerCount determines the optimal number of workers based on workload
func (s *STFT) getOptimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}

	// For medium workloads, use most CPUs
	if numFrames < 1000 {
		return min(numCPU, 8)
	}

	return numCPU
}
