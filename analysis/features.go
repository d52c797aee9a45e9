package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-pulso/algorithms/chroma"
	"github.com/RyanBlaney/sonido-pulso/algorithms/common"
	"github.com/RyanBlaney/sonido-pulso/algorithms/filters"
	"github.com/RyanBlaney/sonido-pulso/algorithms/spectral"
	"github.com/RyanBlaney/sonido-pulso/algorithms/temporal"
	"github.com/RyanBlaney/sonido-pulso/algorithms/windowing"
	"github.com/RyanBlaney/sonido-pulso/analysis/config"
	"github.com/RyanBlaney/sonido-pulso/logging"
)

// ScalarStats summarizes one per-frame descriptor
type ScalarStats = common.Summary

// VectorStats summarizes a per-frame vector descriptor dimension by
// dimension, plus the mean and std over every value
type VectorStats struct {
	Mean        []float64 `json:"mean"`
	Std         []float64 `json:"std"`
	Max         []float64 `json:"max"`
	OverallMean float64   `json:"overall_mean"`
	OverallStd  float64   `json:"overall_std"`
}

// BandEnergy is the mean per-frame power below the bass cutoff, between
// the cutoffs and above the high cutoff, with each band's share of the total
type BandEnergy struct {
	Bass      float64 `json:"bass"`
	Mid       float64 `json:"mid"`
	High      float64 `json:"high"`
	BassRatio float64 `json:"bass_ratio"`
	MidRatio  float64 `json:"mid_ratio"`
	HighRatio float64 `json:"high_ratio"`
	HFLFRatio float64 `json:"hf_lf_ratio"` // high / bass
}

// SpectralFeatureSet is every spectral statistic of one window. It is
// computed once and only read afterwards.
type SpectralFeatureSet struct {
	SampleRate int     `json:"sample_rate"`
	Duration   float64 `json:"duration"`

	Centroid  ScalarStats `json:"centroid"`
	Rolloff   ScalarStats `json:"rolloff"`
	Flatness  ScalarStats `json:"flatness"`
	Bandwidth ScalarStats `json:"bandwidth"`
	Spread    ScalarStats `json:"spread"`
	ZCR       ScalarStats `json:"zcr"`
	RMS       ScalarStats `json:"rms"`

	Bands BandEnergy `json:"bands"`

	MFCC          VectorStats `json:"mfcc"`
	Chroma        VectorStats `json:"chroma"`
	Tonnetz       VectorStats `json:"tonnetz"`
	ChromaProfile []float64   `json:"chroma_profile"`

	OnsetEnvelope  []float64 `json:"-"`
	OnsetFrameRate float64   `json:"onset_frame_rate"`
}

// Nyquist returns half the sample rate
func (f *SpectralFeatureSet) Nyquist() float64 {
	return float64(f.SampleRate) / 2
}

// FeatureBank computes spectral feature sets. One transform is run per
// resolution and every descriptor is derived from it. A FeatureBank is
// safe for concurrent use.
type FeatureBank struct {
	cfg         config.FeatureConfig
	stft        *spectral.STFT
	window      *windowing.Window
	onsetWindow *windowing.Window
	onset       *temporal.OnsetDetection
	power       *spectral.PowerSpectrum
	flatness    *spectral.SpectralFlatness
	chroma      *chroma.ChromaSTFT
	tonnetz     *chroma.Tonnetz
	logger      logging.Logger

	onPass func(w *Waveform) // called once per transform pass, may be nil
}

// NewFeatureBank creates a feature bank from the feature configuration
func NewFeatureBank(cfg config.FeatureConfig) (*FeatureBank, error) {
	kind, err := windowing.ParseType(cfg.Window)
	if err != nil {
		return nil, err
	}
	window, err := windowing.New(kind, cfg.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis window: %w", err)
	}
	onsetWindow, err := windowing.New(kind, cfg.OnsetWindowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create onset window: %w", err)
	}

	return &FeatureBank{
		cfg:         cfg,
		stft:        spectral.NewSTFT(),
		window:      window,
		onsetWindow: onsetWindow,
		onset:       temporal.NewOnsetDetection(cfg.OnsetMelBands, cfg.OnsetTopDB, cfg.OnsetSensitivity),
		power:       spectral.NewPowerSpectrum(),
		flatness:    spectral.NewSpectralFlatness(),
		chroma:      chroma.NewChromaSTFT(cfg.TuningFrequency, cfg.ChromaMinFreq, cfg.ChromaMaxFreq),
		tonnetz:     chroma.NewTonnetz(),
		logger:      logging.WithFields(logging.Fields{"component": "feature_bank"}),
	}, nil
}

// OnsetDetector exposes the detector whose threshold defines onsets
func (fb *FeatureBank) OnsetDetector() *temporal.OnsetDetection {
	return fb.onset
}

// Extract computes the full feature set of one window. This is the only
// place the bank runs its transforms.
func (fb *FeatureBank) Extract(ctx context.Context, w *Waveform) (*SpectralFeatureSet, error) {
	if w == nil || w.Len() == 0 {
		return nil, ErrEmptyWaveform
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fb.onPass != nil {
		fb.onPass(w)
	}

	sr := w.SampleRate
	samples := fb.prepare(w)

	spectrogram, err := fb.stft.Compute(samples, fb.cfg.WindowSize, fb.cfg.HopSize, sr, fb.window)
	if err != nil {
		return nil, fmt.Errorf("failed to compute spectrogram: %w", err)
	}
	power := fb.power.ComputeFrames(spectrogram.Magnitude)

	mfcc, err := spectral.NewMFCC(sr, fb.cfg.WindowSize, spectral.MFCCParams{
		NumCoefficients: fb.cfg.MFCCCoefficients,
		NumMelFilters:   fb.cfg.MFCCFilters,
	})
	if err != nil {
		return nil, err
	}

	envelope, frameRate, err := fb.onsetEnvelope(samples, sr)
	if err != nil {
		return nil, err
	}

	chromagram := fb.chroma.FromSTFT(spectrogram)

	features := &SpectralFeatureSet{
		SampleRate:     sr,
		Duration:       w.Duration(),
		Centroid:       common.Summarize(spectral.NewSpectralCentroid(sr).ComputeFrames(spectrogram.Magnitude)),
		Rolloff:        common.Summarize(spectral.NewSpectralRolloff(sr, fb.cfg.RolloffPercent).ComputeFrames(spectrogram.Magnitude)),
		Flatness:       common.Summarize(fb.flatness.ComputeFrames(power)),
		Bandwidth:      common.Summarize(spectral.NewSpectralBandwidth(sr).ComputeFrames(spectrogram.Magnitude)),
		Spread:         common.Summarize(spectral.NewSpectralBandwidth(sr).ComputeFrames(power)),
		ZCR:            common.Summarize(spectral.NewZeroCrossingRate(fb.cfg.WindowSize, fb.cfg.HopSize).ComputeFrames(samples)),
		RMS:            common.Summarize(temporal.NewEnergy(fb.cfg.WindowSize, fb.cfg.HopSize).ComputeRMS(samples)),
		Bands:          fb.bandEnergy(power, spectrogram.Frequencies()),
		MFCC:           summarizeVectors(mfcc.ComputeFrames(power)),
		Chroma:         summarizeVectors(chromagram),
		Tonnetz:        summarizeVectors(fb.tonnetz.ComputeFrames(chromagram)),
		ChromaProfile:  chroma.Profile(chromagram),
		OnsetEnvelope:  envelope,
		OnsetFrameRate: frameRate,
	}

	fb.logger.Debug("Extracted spectral features", logging.Fields{
		"offset":        w.Offset,
		"duration":      features.Duration,
		"frames":        spectrogram.TimeFrames,
		"onset_frames":  len(envelope),
		"centroid_mean": features.Centroid.Mean,
	})

	return features, nil
}

// prepare returns the samples the transforms run on, with the DC
// component removed when configured
func (fb *FeatureBank) prepare(w *Waveform) []float64 {
	if fb.cfg.DCCutoff <= 0 {
		return w.Samples()
	}
	return filters.NewDCRemoval(w.SampleRate, fb.cfg.DCCutoff).Apply(w.Samples())
}

// onsetEnvelope runs the onset-resolution transform and returns the
// novelty curve with its frame rate
func (fb *FeatureBank) onsetEnvelope(samples []float64, sampleRate int) ([]float64, float64, error) {
	spectrogram, err := fb.stft.Compute(samples, fb.cfg.OnsetWindowSize, fb.cfg.OnsetHopSize, sampleRate, fb.onsetWindow)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to compute onset spectrogram: %w", err)
	}
	envelope, err := fb.onset.Envelope(spectrogram)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to compute onset envelope: %w", err)
	}
	return envelope, spectrogram.FrameRate(), nil
}

// bandEnergy splits every power frame at the bass and high cutoffs
func (fb *FeatureBank) bandEnergy(power [][]float64, freqs []float64) BandEnergy {
	if len(power) == 0 {
		return BandEnergy{}
	}

	var bass, mid, high float64
	for _, frame := range power {
		for k, p := range frame {
			switch {
			case freqs[k] < fb.cfg.BassCutoff:
				bass += p
			case freqs[k] >= fb.cfg.HighCutoff:
				high += p
			default:
				mid += p
			}
		}
	}

	frames := float64(len(power))
	bass, mid, high = bass/frames, mid/frames, high/frames
	total := bass + mid + high

	return BandEnergy{
		Bass:      bass,
		Mid:       mid,
		High:      high,
		BassRatio: common.SafeDiv(bass, total, 0),
		MidRatio:  common.SafeDiv(mid, total, 0),
		HighRatio: common.SafeDiv(high, total, 0),
		HFLFRatio: common.SafeDiv(high, bass, 0),
	}
}

// summarizeVectors computes per-dimension statistics of a frame sequence
func summarizeVectors(frames [][]float64) VectorStats {
	if len(frames) == 0 || len(frames[0]) == 0 {
		return VectorStats{Mean: []float64{}, Std: []float64{}, Max: []float64{}}
	}

	dims := len(frames[0])
	stats := VectorStats{
		Mean: make([]float64, dims),
		Std:  make([]float64, dims),
		Max:  make([]float64, dims),
	}

	column := make([]float64, len(frames))
	all := make([]float64, 0, dims*len(frames))
	for d := range dims {
		peak := math.Inf(-1)
		for t, frame := range frames {
			v := 0.0
			if d < len(frame) {
				v = frame[d]
			}
			column[t] = v
			peak = math.Max(peak, v)
		}
		stats.Mean[d] = common.Mean(column)
		stats.Std[d] = common.StandardDeviation(column)
		stats.Max[d] = peak
		all = append(all, column...)
	}

	stats.OverallMean = common.Mean(all)
	stats.OverallStd = common.StandardDeviation(all)
	return stats
}
