package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-pulso/analysis/config"
	"github.com/RyanBlaney/sonido-pulso/logging"
)

// Result is the full analysis of one recording
type Result struct {
	Source   string             `json:"source,omitempty"`
	Segments *SegmentSelection  `json:"segments"`
	Tempo    *TempoEstimate     `json:"tempo"`
	Key      *KeyEstimate       `json:"key"`
	Features *MusicalFeatureSet `json:"features"`
	Elapsed  time.Duration      `json:"elapsed"`
}

// Analyzer runs the pipeline for one recording at a time: segment
// selection, one feature extraction per distinct window, tempo and key
// detection, then perceptual scoring. Nothing is kept between calls.
type Analyzer struct {
	cfg      *config.Config
	bank     *FeatureBank
	selector *SegmentSelector
	tempo    *TempoDetector
	key      *KeyDetector
	scorer   *PerceptualScorer
	logger   logging.Logger
}

// NewAnalyzer builds the pipeline stages from cfg
func NewAnalyzer(cfg *config.Config) (*Analyzer, error) {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}

	bank, err := NewFeatureBank(cfg.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to create feature bank: %w", err)
	}
	tempo, err := NewTempoDetector(cfg.Tempo)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		cfg:      cfg,
		bank:     bank,
		selector: NewSegmentSelector(cfg.Segment, bank),
		tempo:    tempo,
		key:      NewKeyDetector(cfg.Key),
		scorer:   NewPerceptualScorer(cfg.Danceability, cfg.Mood, bank.OnsetDetector()),
		logger:   logging.WithFields(logging.Fields{"component": "analyzer"}),
	}, nil
}

// SelectSegments picks the harmonic, percussive and tempo windows of src
func (a *Analyzer) SelectSegments(ctx context.Context, src RangeReader) (*SegmentSelection, error) {
	return a.selector.Select(ctx, src)
}

// ExtractFeatures computes the spectral feature set of one window
func (a *Analyzer) ExtractFeatures(ctx context.Context, w *Waveform) (*SpectralFeatureSet, error) {
	return a.bank.Extract(ctx, w)
}

// DetectTempo estimates the tempo of one window
func (a *Analyzer) DetectTempo(ctx context.Context, w *Waveform) (*TempoEstimate, error) {
	return a.tempo.Detect(ctx, w)
}

// DetectKey estimates key and mode from a feature set
func (a *Analyzer) DetectKey(features *SpectralFeatureSet) (*KeyEstimate, error) {
	return a.key.Detect(features)
}

// ScorePerceptual combines detector outputs into the musical feature set
func (a *Analyzer) ScorePerceptual(tempo *TempoEstimate, key *KeyEstimate, harmonic, rhythm *SpectralFeatureSet) *MusicalFeatureSet {
	return a.scorer.Score(tempo, key, harmonic, rhythm)
}

// Analyze runs the whole pipeline over src. Feature sets computed while
// selecting segments are reused, so every window is transformed once and
// windows that coincide share one feature set.
func (a *Analyzer) Analyze(ctx context.Context, src RangeReader) (*Result, error) {
	started := time.Now()

	segments, err := a.SelectSegments(ctx, src)
	if err != nil {
		return nil, err
	}

	harmonic, err := a.segmentFeatures(ctx, segments.Harmonic)
	if err != nil {
		return nil, fmt.Errorf("harmonic window: %w", err)
	}
	rhythm, err := a.segmentFeatures(ctx, segments.Tempo)
	if err != nil {
		return nil, fmt.Errorf("tempo window: %w", err)
	}

	tempo, err := a.DetectTempo(ctx, segments.Tempo.Waveform)
	if err != nil {
		return nil, fmt.Errorf("tempo window: %w", err)
	}
	key, err := a.DetectKey(harmonic)
	if err != nil {
		return nil, fmt.Errorf("harmonic window: %w", err)
	}

	result := &Result{
		Segments: segments,
		Tempo:    tempo,
		Key:      key,
		Features: a.ScorePerceptual(tempo, key, harmonic, rhythm),
		Elapsed:  time.Since(started),
	}

	a.logger.Debug("Analysis complete", logging.Fields{
		"bpm":          tempo.BPM,
		"key":          key.Key,
		"danceability": result.Features.Danceability.Score,
		"elapsed_ms":   result.Elapsed.Milliseconds(),
	})

	return result, nil
}

// segmentFeatures returns the feature set of a selected segment, extracting
// it only when selection did not keep one
func (a *Analyzer) segmentFeatures(ctx context.Context, seg Segment) (*SpectralFeatureSet, error) {
	if seg.Features != nil {
		return seg.Features, nil
	}
	return a.ExtractFeatures(ctx, seg.Waveform)
}
