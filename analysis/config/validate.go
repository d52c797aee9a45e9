package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-pulso/algorithms/windowing"
)

const weightTolerance = 1e-6

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSegment(); err != nil {
		return err
	}
	if err := c.validateFeatures(); err != nil {
		return err
	}
	if err := c.validateTempo(); err != nil {
		return err
	}
	if err := c.validateKey(); err != nil {
		return err
	}
	if err := c.validateDanceability(); err != nil {
		return err
	}
	return c.validateMood()
}

func (c *Config) validateSegment() error {
	s := c.Segment
	if s.SampleDuration <= 0 {
		return errors.New("segment.sample_duration must be positive")
	}
	if s.SkipIntro < 0 {
		return errors.New("segment.skip_intro must not be negative")
	}
	if s.Probes < 2 {
		return errors.New("segment.probes must be at least 2")
	}
	if s.MinTempoPeaks < 2 {
		return errors.New("segment.min_tempo_peaks must be at least 2")
	}
	if s.PreferredPeakRate.Min <= 0 || s.PreferredPeakRate.Max < s.PreferredPeakRate.Min {
		return errors.New("segment.preferred_peak_rate must be a positive, ordered range")
	}
	if err := sumsToOne("segment harmonic weights", s.HarmonicCentroidWeight, s.HarmonicTonalWeight); err != nil {
		return err
	}
	if err := sumsToOne("segment percussive weights", s.PercussiveDensityWeight, s.PercussiveOnsetWeight); err != nil {
		return err
	}
	return sumsToOne("segment tempo weights", s.RegularityWeight, s.StrengthWeight, s.EnergyWeight, s.DensityWeight)
}

func (c *Config) validateFeatures() error {
	f := c.Features
	if _, err := windowing.ParseType(f.Window); err != nil {
		return fmt.Errorf("features.window: %w", err)
	}
	if f.WindowSize <= 0 || f.HopSize <= 0 || f.OnsetWindowSize <= 0 || f.OnsetHopSize <= 0 {
		return errors.New("features window and hop sizes must be positive")
	}
	if f.RolloffPercent <= 0 || f.RolloffPercent > 1 {
		return errors.New("features.rolloff_percent must be in (0, 1]")
	}
	if f.BassCutoff <= 0 || f.HighCutoff <= f.BassCutoff {
		return errors.New("features band cutoffs must satisfy 0 < bass_cutoff < high_cutoff")
	}
	if f.DCCutoff < 0 || f.DCCutoff >= f.BassCutoff {
		return errors.New("features.dc_cutoff must be in [0, bass_cutoff)")
	}
	if f.MFCCCoefficients <= 0 || f.MFCCFilters < f.MFCCCoefficients {
		return errors.New("features.mfcc_filters must be at least mfcc_coefficients")
	}
	if f.OnsetMelBands <= 0 {
		return errors.New("features.onset_mel_bands must be positive")
	}
	if f.TuningFrequency <= 0 || f.ChromaMinFreq <= 0 || f.ChromaMaxFreq <= f.ChromaMinFreq {
		return errors.New("features chroma tuning and range must be positive and ordered")
	}
	return nil
}

func (c *Config) validateTempo() error {
	t := c.Tempo
	p := t.Periodicity
	if p.FineWindow <= 0 || p.FineHop <= 0 || p.CoarseWindow <= 0 || p.CoarseHop <= 0 {
		return errors.New("tempo.periodicity windows and hops must be positive")
	}
	if p.MinBPM <= 0 || p.MaxBPM <= p.MinBPM {
		return errors.New("tempo.periodicity BPM range must be positive and ordered")
	}
	if p.RangeTolerance < 0 || p.RangeTolerance >= 1 || p.MaxMultiple < 0 {
		return errors.New("tempo.periodicity range_tolerance must be in [0, 1) and max_multiple non-negative")
	}
	if t.DominanceRatio < 1 {
		return errors.New("tempo.dominance_ratio must be at least 1")
	}
	if t.Accepted.Max <= t.Accepted.Min {
		return errors.New("tempo.accepted must be an ordered range")
	}
	if t.HarmonicPeers < 0 || t.RatioTolerance < 0 {
		return errors.New("tempo harmonic settings must not be negative")
	}
	if t.FallbackBPM <= 0 {
		return errors.New("tempo.fallback_bpm must be positive")
	}
	return nil
}

func (c *Config) validateKey() error {
	k := c.Key
	if k.AlternateRatio <= 0 || k.AlternateRatio > 1 {
		return errors.New("key.alternate_ratio must be in (0, 1]")
	}
	if k.Mode.MinConfidence < 0 || k.Mode.MinConfidence > 1 {
		return errors.New("key.mode.min_confidence must be in [0, 1]")
	}
	return sumsToOne("key mode weights", k.Mode.StabilityWeight, k.Mode.ClarityWeight)
}

func (c *Config) validateDanceability() error {
	d := c.Danceability
	if len(d.TempoSteps) == 0 {
		return errors.New("danceability.tempo_steps must not be empty")
	}
	for i := 1; i < len(d.TempoSteps); i++ {
		if d.TempoSteps[i].UpTo <= d.TempoSteps[i-1].UpTo {
			return fmt.Errorf("danceability.tempo_steps must be ascending at step %d", i)
		}
	}
	if d.MinPeaks < 2 {
		return errors.New("danceability.min_peaks must be at least 2")
	}
	if d.Neutral < 0 || d.Neutral > 1 {
		return errors.New("danceability.neutral must be in [0, 1]")
	}
	if d.StabilityWindows < 1 {
		return errors.New("danceability.stability_windows must be at least 1")
	}
	if d.IntervalOutlier <= 0 || d.IntervalOutlier >= 1 {
		return errors.New("danceability.interval_outlier must be in (0, 1)")
	}
	if d.BassRange.Max <= d.BassRange.Min {
		return errors.New("danceability.bass_range must be an ordered range")
	}
	if d.SyncopationTolerance <= 0 || d.SyncopationTolerance >= 0.5 {
		return errors.New("danceability.syncopation_tolerance must be in (0, 0.5)")
	}
	if d.BonusMultiplier < 1 {
		return errors.New("danceability.bonus_multiplier must be at least 1")
	}
	if err := sumsToOne("danceability essential weights", d.EssentialBeat, d.EssentialRegularity, d.EssentialBass); err != nil {
		return err
	}
	if err := sumsToOne("danceability enhancement weights", d.EnhanceTempo, d.EnhanceEnergy, d.EnhanceStability); err != nil {
		return err
	}
	if err := sumsToOne("danceability shares", d.EssentialShare, d.EnhancementShare); err != nil {
		return err
	}
	if err := sumsToOne("danceability rhythm stability weights", d.StabilityWithin, d.StabilityAcross); err != nil {
		return err
	}
	return validateLabels("danceability.labels", d.Labels, d.FallbackLabel)
}

func (c *Config) validateMood() error {
	m := c.Mood
	for name, r := range map[string]Range{
		"brightness":  m.Brightness,
		"rolloff":     m.Rolloff,
		"hf_lf_ratio": m.HFLFRatio,
		"spread":      m.Spread,
		"tempo_range": m.TempoRange,
	} {
		if r.Max <= r.Min {
			return fmt.Errorf("mood.%s must be an ordered range", name)
		}
	}
	if m.FlatnessCeiling <= 0 {
		return errors.New("mood.flatness_ceiling must be positive")
	}
	if m.ModeWeightScale < 0 || m.ModeWeightScale+m.ValenceTempo+m.ValenceEnergy > 1 {
		return errors.New("mood valence fixed weights must leave room for the spectral terms")
	}
	if err := sumsToOne("mood balance weights", m.BalanceRolloff, m.BalanceHFLF, m.BalanceSpread); err != nil {
		return err
	}
	if err := sumsToOne("mood valence spectral split", m.ValenceBrightness, m.ValenceHarmonic, m.ValenceBalance); err != nil {
		return err
	}
	if err := sumsToOne("mood arousal weights", m.ArousalBeat, m.ArousalTempo, m.ArousalSyncopation,
		m.ArousalBrightness, m.ArousalEnergy, m.ArousalBalance, m.ArousalMode); err != nil {
		return err
	}
	if err := validateLabels("mood.valence_labels", m.ValenceLabels, m.ValenceFallback); err != nil {
		return err
	}
	return validateLabels("mood.arousal_labels", m.ArousalLabels, m.ArousalFallback)
}

func sumsToOne(name string, weights ...float64) error {
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%s must sum to 1, got %.4f", name, sum)
	}
	return nil
}

func validateLabels(name string, labels []Threshold, fallback string) error {
	if fallback == "" {
		return fmt.Errorf("%s needs a fallback label", name)
	}
	for i, l := range labels {
		if l.Label == "" {
			return fmt.Errorf("%s[%d] has an empty label", name, i)
		}
		if i > 0 && l.Min >= labels[i-1].Min {
			return fmt.Errorf("%s must be ordered from the highest bound down", name)
		}
	}
	return nil
}
