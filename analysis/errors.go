package analysis

import "errors"

var (
	// ErrEmptyWaveform is returned when a stage receives no samples
	ErrEmptyWaveform = errors.New("empty waveform")

	// ErrInvalidSampleRate is returned for non-positive sample rates
	ErrInvalidSampleRate = errors.New("invalid sample rate")

	// ErrReadFailed wraps any failure to read a sample range from the source.
	// There is no fallback: every stage needs real samples.
	ErrReadFailed = errors.New("read failed")
)
