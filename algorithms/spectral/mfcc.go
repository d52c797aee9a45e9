package spectral

import (
	"fmt"
	"math"
)

// MFCC computes Mel-Frequency Cepstral Coefficients from power spectra
type MFCC struct {
	numCoefficients int
	filterBank      *MelFilterBank
	dctMatrix       [][]float64
}

// MFCCParams contains parameters for MFCC computation
type MFCCParams struct {
	NumCoefficients int     `json:"num_coefficients" toml:"num_coefficients"` // default 13
	NumMelFilters   int     `json:"num_mel_filters" toml:"num_mel_filters"`   // default 26
	LowFreq         float64 `json:"low_freq" toml:"low_freq"`                 // default 0
	HighFreq        float64 `json:"high_freq" toml:"high_freq"`               // default nyquist
}

// NewMFCC builds the filter bank and DCT basis for one FFT size
func NewMFCC(sampleRate, fftSize int, params MFCCParams) (*MFCC, error) {
	if params.NumCoefficients <= 0 {
		params.NumCoefficients = 13
	}
	if params.NumMelFilters <= 0 {
		params.NumMelFilters = 26
	}
	if params.NumCoefficients > params.NumMelFilters {
		return nil, fmt.Errorf("cannot derive %d coefficients from %d mel filters",
			params.NumCoefficients, params.NumMelFilters)
	}

	bank, err := NewMelFilterBank(params.NumMelFilters, fftSize, sampleRate, params.LowFreq, params.HighFreq)
	if err != nil {
		return nil, fmt.Errorf("failed to create mel filter bank: %w", err)
	}

	mfcc := &MFCC{
		numCoefficients: params.NumCoefficients,
		filterBank:      bank,
	}
	mfcc.createDCTMatrix(params.NumMelFilters)

	return mfcc, nil
}

// Compute returns the cepstral coefficients of one power spectrum
func (mfcc *MFCC) Compute(powerSpectrum []float64) []float64 {
	melSpectrum := mfcc.filterBank.Apply(powerSpectrum)
	for i, v := range melSpectrum {
		melSpectrum[i] = math.Log(math.Max(v, 1e-10))
	}

	coeffs := make([]float64, mfcc.numCoefficients)
	for k, basis := range mfcc.dctMatrix {
		sum := 0.0
		for m, v := range melSpectrum {
			sum += basis[m] * v
		}
		coeffs[k] = sum
	}
	return coeffs
}

// ComputeFrames returns coefficients for every frame of a power spectrogram
func (mfcc *MFCC) ComputeFrames(powerSpectrogram [][]float64) [][]float64 {
	out := make([][]float64, len(powerSpectrogram))
	for t, frame := range powerSpectrogram {
		out[t] = mfcc.Compute(frame)
	}
	return out
}

// createDCTMatrix builds an orthonormal DCT-II basis truncated to the
// requested number of coefficients
func (mfcc *MFCC) createDCTMatrix(numFilters int) {
	mfcc.dctMatrix = make([][]float64, mfcc.numCoefficients)
	n := float64(numFilters)
	for k := range mfcc.dctMatrix {
		scale := math.Sqrt(2.0 / n)
		if k == 0 {
			scale = math.Sqrt(1.0 / n)
		}
		row := make([]float64, numFilters)
		for m := range row {
			row[m] = scale * math.Cos(math.Pi*float64(k)*(2*float64(m)+1)/(2*n))
		}
		mfcc.dctMatrix[k] = row
	}
}
