package analysis

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/RyanBlaney/sonido-pulso/algorithms/common"
	"github.com/RyanBlaney/sonido-pulso/algorithms/temporal"
	"github.com/RyanBlaney/sonido-pulso/analysis/config"
	"github.com/RyanBlaney/sonido-pulso/logging"
)

// SegmentKind names what a window was selected for
type SegmentKind string

const (
	SegmentHarmonic   SegmentKind = "harmonic"
	SegmentPercussive SegmentKind = "percussive"
	SegmentTempo      SegmentKind = "tempo"
)

// SegmentWindow is a scored span of the source recording
type SegmentWindow struct {
	Kind     SegmentKind `json:"kind"`
	Start    float64     `json:"start"`
	Duration float64     `json:"duration"`
	Score    float64     `json:"score"`
}

// Segment pairs a window with its decoded, peak-normalized samples and
// the feature set computed while scoring it
type Segment struct {
	Window   SegmentWindow       `json:"window"`
	Waveform *Waveform           `json:"-"`
	Features *SpectralFeatureSet `json:"-"`
}

// SegmentSelection holds the best window of each kind. Windows that start
// at the same position share one Waveform and one feature set.
type SegmentSelection struct {
	Harmonic   Segment `json:"harmonic"`
	Percussive Segment `json:"percussive"`
	Tempo      Segment `json:"tempo"`
	Whole      bool    `json:"whole"` // the recording was shorter than one window
}

// ProbeScores are the three suitability scores of one candidate position
type ProbeScores struct {
	Harmonic   float64 `json:"harmonic"`
	Percussive float64 `json:"percussive"`
	Tempo      float64 `json:"tempo"`
}

// SegmentSelector scans a recording at evenly spaced positions and keeps
// the best window for harmonic, percussive and tempo analysis
type SegmentSelector struct {
	cfg    config.SegmentConfig
	bank   *FeatureBank
	logger logging.Logger
}

// NewSegmentSelector creates a selector that scores probes with bank
func NewSegmentSelector(cfg config.SegmentConfig, bank *FeatureBank) *SegmentSelector {
	return &SegmentSelector{
		cfg:    cfg,
		bank:   bank,
		logger: logging.WithFields(logging.Fields{"component": "segment_selector"}),
	}
}

type probe struct {
	start    float64
	waveform *Waveform
	features *SpectralFeatureSet
	scores   ProbeScores
	err      error
}

// Select reads and scores the probe windows of src and returns the best
// window of each kind. Any read failure is returned as ErrReadFailed.
func (s *SegmentSelector) Select(ctx context.Context, src RangeReader) (*SegmentSelection, error) {
	total, err := src.Duration(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: duration: %w", ErrReadFailed, err)
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: source has no duration", ErrReadFailed)
	}

	skip := s.cfg.SkipIntro
	available := total - skip
	if available <= 0 {
		s.logger.Warn("Intro skip exceeds duration, analyzing from the start", logging.Fields{
			"skip_intro": skip,
			"duration":   total,
		})
		skip, available = 0, total
	}

	if s.cfg.SampleDuration >= available {
		return s.selectWhole(ctx, src, skip, available)
	}

	probes := s.probePositions(skip, available)
	if len(probes) == 0 {
		return s.selectWhole(ctx, src, skip, available)
	}

	var wg sync.WaitGroup
	for i := range probes {
		wg.Add(1)
		go func(p *probe) {
			defer wg.Done()
			p.waveform, p.err = readWaveform(ctx, src, p.start, s.cfg.SampleDuration)
			if p.err != nil {
				return
			}
			p.features, p.scores, p.err = s.scoreWaveform(ctx, p.waveform)
		}(&probes[i])
	}
	wg.Wait()

	for _, p := range probes {
		if p.err != nil {
			return nil, p.err
		}
	}

	best := map[SegmentKind]int{SegmentHarmonic: 0, SegmentPercussive: 0, SegmentTempo: 0}
	for i, p := range probes {
		if p.scores.Harmonic > probes[best[SegmentHarmonic]].scores.Harmonic {
			best[SegmentHarmonic] = i
		}
		if p.scores.Percussive > probes[best[SegmentPercussive]].scores.Percussive {
			best[SegmentPercussive] = i
		}
		if p.scores.Tempo > probes[best[SegmentTempo]].scores.Tempo {
			best[SegmentTempo] = i
		}
	}

	segment := func(kind SegmentKind, score func(ProbeScores) float64) Segment {
		p := probes[best[kind]]
		return Segment{
			Window: SegmentWindow{
				Kind:     kind,
				Start:    p.start,
				Duration: p.waveform.Duration(),
				Score:    score(p.scores),
			},
			Waveform: p.waveform,
			Features: p.features,
		}
	}

	selection := &SegmentSelection{
		Harmonic:   segment(SegmentHarmonic, func(ps ProbeScores) float64 { return ps.Harmonic }),
		Percussive: segment(SegmentPercussive, func(ps ProbeScores) float64 { return ps.Percussive }),
		Tempo:      segment(SegmentTempo, func(ps ProbeScores) float64 { return ps.Tempo }),
	}

	s.logger.Debug("Selected segments", logging.Fields{
		"probes":     len(probes),
		"harmonic":   selection.Harmonic.Window.Start,
		"percussive": selection.Percussive.Window.Start,
		"tempo":      selection.Tempo.Window.Start,
	})

	return selection, nil
}

// probePositions spreads the probes over [skip, skip+available] and drops
// every position whose window would run past the end
func (s *SegmentSelector) probePositions(skip, available float64) []probe {
	count := max(s.cfg.Probes, 1)
	end := skip + available

	probes := make([]probe, 0, count)
	for i := range count {
		start := skip
		if count > 1 {
			start = skip + available*float64(i)/float64(count-1)
		}
		if start+s.cfg.SampleDuration > end+1e-9 {
			continue
		}
		probes = append(probes, probe{start: start})
	}
	return probes
}

// selectWhole reads the whole usable range once and returns it as the
// window of every kind
func (s *SegmentSelector) selectWhole(ctx context.Context, src RangeReader, skip, available float64) (*SegmentSelection, error) {
	waveform, err := readWaveform(ctx, src, skip, available)
	if err != nil {
		return nil, err
	}
	features, scores, err := s.scoreWaveform(ctx, waveform)
	if err != nil {
		return nil, err
	}

	window := func(kind SegmentKind, score float64) Segment {
		return Segment{
			Window: SegmentWindow{
				Kind:     kind,
				Start:    skip,
				Duration: waveform.Duration(),
				Score:    score,
			},
			Waveform: waveform,
			Features: features,
		}
	}

	s.logger.Debug("Recording shorter than one window, using it whole", logging.Fields{
		"start":    skip,
		"duration": waveform.Duration(),
	})

	return &SegmentSelection{
		Harmonic:   window(SegmentHarmonic, scores.Harmonic),
		Percussive: window(SegmentPercussive, scores.Percussive),
		Tempo:      window(SegmentTempo, scores.Tempo),
		Whole:      true,
	}, nil
}

// scoreWaveform extracts the feature set of one window and scores it for
// each kind. The feature set is kept so the winning windows are never
// transformed again.
func (s *SegmentSelector) scoreWaveform(ctx context.Context, w *Waveform) (*SpectralFeatureSet, ProbeScores, error) {
	features, err := s.bank.Extract(ctx, w)
	if err != nil {
		return nil, ProbeScores{}, err
	}
	return features, ScoreProbe(features, s.bank.OnsetDetector(), s.cfg), nil
}

// ScoreProbe computes the harmonic, percussive and tempo suitability of
// one probe window. Every score lies in [0, 1].
func ScoreProbe(f *SpectralFeatureSet, onsets *temporal.OnsetDetection, cfg config.SegmentConfig) ProbeScores {
	harmonic := cfg.HarmonicCentroidWeight*common.Rescale(f.Centroid.Mean, 0, f.Nyquist()) +
		cfg.HarmonicTonalWeight*(1-common.Clip01(f.Flatness.Mean))

	density := common.SafeDiv(float64(onsets.CountOnsets(f.OnsetEnvelope)), f.Duration, 0)
	percussive := cfg.PercussiveDensityWeight*common.Clip01(density/cfg.OnsetDensityScale) +
		cfg.PercussiveOnsetWeight*common.Clip01(common.Mean(f.OnsetEnvelope)*cfg.OnsetMeanScale)

	return ProbeScores{
		Harmonic:   common.Clip01(harmonic),
		Percussive: common.Clip01(percussive),
		Tempo:      common.Clip01(tempoSuitability(f, onsets, cfg)),
	}
}

// tempoSuitability rewards regular, strong, energetic pulses at a
// plausible rate. Fewer than MinTempoPeaks peaks score 0.
func tempoSuitability(f *SpectralFeatureSet, onsets *temporal.OnsetDetection, cfg config.SegmentConfig) float64 {
	peaks := onsets.PickPeaks(f.OnsetEnvelope)
	if len(peaks) < cfg.MinTempoPeaks {
		return 0
	}

	regularity := 0.0
	if cv, ok := common.CoefficientOfVariation(temporal.PeakIntervals(peaks, f.OnsetFrameRate)); ok {
		regularity = common.Clip01(1 - cv)
	}

	heights := make([]float64, len(peaks))
	for i, p := range peaks {
		heights[i] = f.OnsetEnvelope[p]
	}
	strength := common.Clip01(common.Mean(heights))
	energy := common.Clip01(f.RMS.Mean * cfg.EnergyScale)

	rate := common.SafeDiv(float64(len(peaks)), f.Duration, 0)
	density := 1.0
	switch {
	case rate < cfg.PreferredPeakRate.Min:
		density = common.SafeDiv(rate, cfg.PreferredPeakRate.Min, 0)
	case rate > cfg.PreferredPeakRate.Max:
		density = math.Max(0, 1-(rate-cfg.PreferredPeakRate.Max)/cfg.PreferredPeakRate.Max)
	}

	return cfg.RegularityWeight*regularity +
		cfg.StrengthWeight*strength +
		cfg.EnergyWeight*energy +
		cfg.DensityWeight*density
}
