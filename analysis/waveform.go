package analysis

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/sonido-pulso/algorithms/common"
)

// RangeReader is the only input the analysis core consumes: decoded mono
// samples for an arbitrary time range, without decoding the whole file.
type RangeReader interface {
	// Duration returns the total length of the recording in seconds
	Duration(ctx context.Context) (float64, error)

	// ReadRange returns mono samples for [start, start+duration) seconds and
	// their sample rate. Ranges past the end are truncated.
	ReadRange(ctx context.Context, start, duration float64) ([]float64, int, error)
}

// Waveform is an immutable, peak-normalized mono buffer tagged with its
// position in the source recording
type Waveform struct {
	samples    []float64
	SampleRate int     `json:"sample_rate"`
	Offset     float64 `json:"offset"` // seconds from the start of the source
}

// NewWaveform copies samples and scales them so the largest magnitude is 1.
// Silent input stays silent.
func NewWaveform(samples []float64, sampleRate int, offset float64) (*Waveform, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyWaveform
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	normalized := make([]float64, len(samples))
	peak := common.PeakAbs(samples)
	if peak > 0 {
		for i, v := range samples {
			normalized[i] = v / peak
		}
	}

	return &Waveform{
		samples:    normalized,
		SampleRate: sampleRate,
		Offset:     offset,
	}, nil
}

// Samples returns the normalized samples. The slice is shared and must not
// be modified.
func (w *Waveform) Samples() []float64 {
	return w.samples
}

// Len returns the number of samples
func (w *Waveform) Len() int {
	return len(w.samples)
}

// Duration returns the length in seconds
func (w *Waveform) Duration() float64 {
	return float64(len(w.samples)) / float64(w.SampleRate)
}

// readWaveform reads one range and wraps every failure in ErrReadFailed
func readWaveform(ctx context.Context, src RangeReader, start, duration float64) (*Waveform, error) {
	samples, sampleRate, err := src.ReadRange(ctx, start, duration)
	if err != nil {
		return nil, fmt.Errorf("%w: range %.2fs+%.2fs: %w", ErrReadFailed, start, duration, err)
	}
	w, err := NewWaveform(samples, sampleRate, start)
	if err != nil {
		return nil, fmt.Errorf("%w: range %.2fs+%.2fs: %w", ErrReadFailed, start, duration, err)
	}
	return w, nil
}
