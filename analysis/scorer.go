package analysis

import (
	"math"
	"slices"

	"github.com/RyanBlaney/sonido-pulso/algorithms/common"
	"github.com/RyanBlaney/sonido-pulso/algorithms/temporal"
	"github.com/RyanBlaney/sonido-pulso/algorithms/tonal"
	"github.com/RyanBlaney/sonido-pulso/analysis/config"
	"github.com/RyanBlaney/sonido-pulso/logging"
)

// DanceFactors are the named inputs of the danceability model, each in [0, 1]
type DanceFactors struct {
	BeatStrength         float64 `json:"beat_strength"`
	TempoAppropriateness float64 `json:"tempo_appropriateness"`
	TempoRegularity      float64 `json:"tempo_regularity"`
	RhythmStability      float64 `json:"rhythm_stability"`
	BassPresence         float64 `json:"bass_presence"`
	EnergyFactor         float64 `json:"energy_factor"`
	Syncopation          float64 `json:"syncopation"`
}

// Danceability is the combined score with its intermediate terms
type Danceability struct {
	Score       float64      `json:"score"`
	Label       string       `json:"label"`
	Essential   float64      `json:"essential"`
	Enhancement float64      `json:"enhancement"`
	Bonus       bool         `json:"bonus"`
	Factors     DanceFactors `json:"factors"`
}

// MoodInputs are the measurements the valence/arousal model reads
type MoodInputs struct {
	CentroidMean   float64    `json:"centroid_mean"`
	FlatnessMean   float64    `json:"flatness_mean"`
	RolloffMean    float64    `json:"rolloff_mean"`
	HFLFRatio      float64    `json:"hf_lf_ratio"`
	SpreadMean     float64    `json:"spread_mean"`
	BPM            float64    `json:"bpm"`
	BeatStrength   float64    `json:"beat_strength"`
	Syncopation    float64    `json:"syncopation"`
	EnergyFactor   float64    `json:"energy_factor"`
	Mode           tonal.Mode `json:"mode"`
	ModeConfidence float64    `json:"mode_confidence"`
}

// MoodTerms are the normalized terms shared by valence and arousal
type MoodTerms struct {
	Brightness      float64 `json:"brightness"`
	HarmonicQuality float64 `json:"harmonic_quality"`
	SpectralBalance float64 `json:"spectral_balance"`
	TempoFactor     float64 `json:"tempo_factor"`
	ModeFactor      float64 `json:"mode_factor"`
	ModeWeight      float64 `json:"mode_weight"`
	SpectralWeight  float64 `json:"spectral_weight"`
	ValenceSpectral float64 `json:"valence_spectral"`
	ArousalSpectral float64 `json:"arousal_spectral"`
}

// Mood is the valence/arousal pair with labels
type Mood struct {
	Valence      float64   `json:"valence"`
	ValenceLabel string    `json:"valence_label"`
	Arousal      float64   `json:"arousal"`
	ArousalLabel string    `json:"arousal_label"`
	Terms        MoodTerms `json:"terms"`
}

// MusicalFeatureSet is the perceptual description of one recording
type MusicalFeatureSet struct {
	Danceability Danceability `json:"danceability"`
	Mood         Mood         `json:"mood"`
}

// PerceptualScorer turns detector outputs and feature sets into
// danceability, valence and arousal
type PerceptualScorer struct {
	dance  config.DanceabilityConfig
	mood   config.MoodConfig
	onsets *temporal.OnsetDetection
	logger logging.Logger
}

// NewPerceptualScorer creates a scorer. onsets must be the detector that
// produced the feature sets' onset envelopes.
func NewPerceptualScorer(dance config.DanceabilityConfig, mood config.MoodConfig, onsets *temporal.OnsetDetection) *PerceptualScorer {
	return &PerceptualScorer{
		dance:  dance,
		mood:   mood,
		onsets: onsets,
		logger: logging.WithFields(logging.Fields{"component": "perceptual_scorer"}),
	}
}

// Score computes the musical feature set. Rhythm, bass and energy are read
// from the rhythm window; timbre from the harmonic window.
func (ps *PerceptualScorer) Score(tempo *TempoEstimate, key *KeyEstimate, harmonic, rhythm *SpectralFeatureSet) *MusicalFeatureSet {
	peaks := ps.onsets.PickPeaks(rhythm.OnsetEnvelope)
	intervals := temporal.PeakIntervals(peaks, rhythm.OnsetFrameRate)

	factors := DanceFactors{
		BeatStrength:         common.Clip01(tempo.Strength),
		TempoAppropriateness: TempoAppropriateness(tempo.BPM, ps.dance),
		TempoRegularity:      TempoRegularity(intervals, ps.dance),
		RhythmStability:      RhythmStability(intervals, ps.dance),
		BassPresence:         BassPresence(rhythm.Bands.BassRatio, ps.dance),
		EnergyFactor:         EnergyFactor(rhythm.RMS.Mean, ps.dance),
		Syncopation:          Syncopation(rhythm.OnsetEnvelope, peaks, rhythm.OnsetFrameRate, tempo.BPM, ps.dance),
	}

	mood := ScoreMood(MoodInputs{
		CentroidMean:   harmonic.Centroid.Mean,
		FlatnessMean:   harmonic.Flatness.Mean,
		RolloffMean:    harmonic.Rolloff.Mean,
		HFLFRatio:      harmonic.Bands.HFLFRatio,
		SpreadMean:     harmonic.Spread.Mean,
		BPM:            tempo.BPM,
		BeatStrength:   factors.BeatStrength,
		Syncopation:    factors.Syncopation,
		EnergyFactor:   factors.EnergyFactor,
		Mode:           key.Mode,
		ModeConfidence: key.ModeConfidence,
	}, ps.mood)

	result := &MusicalFeatureSet{
		Danceability: ScoreDanceability(factors, ps.dance),
		Mood:         mood,
	}

	ps.logger.Debug("Scored perceptual features", logging.Fields{
		"danceability": result.Danceability.Score,
		"valence":      result.Mood.Valence,
		"arousal":      result.Mood.Arousal,
		"onset_peaks":  len(peaks),
	})

	return result
}

// TempoAppropriateness looks bpm up in the step table
func TempoAppropriateness(bpm float64, cfg config.DanceabilityConfig) float64 {
	for _, step := range cfg.TempoSteps {
		if bpm < step.UpTo || (!step.Open && bpm == step.UpTo) {
			return step.Score
		}
	}
	return cfg.TempoAbove
}

// TempoRegularity is 1/(1+CV) of the inter-onset intervals after dropping
// those further than IntervalOutlier from the median
func TempoRegularity(intervals []float64, cfg config.DanceabilityConfig) float64 {
	if len(intervals) < cfg.MinPeaks-1 {
		return cfg.Neutral
	}

	median := common.Median(intervals)
	lo, hi := median*(1-cfg.IntervalOutlier), median*(1+cfg.IntervalOutlier)
	kept := make([]float64, 0, len(intervals))
	for _, v := range intervals {
		if v >= lo && v <= hi {
			kept = append(kept, v)
		}
	}

	cv, ok := common.CoefficientOfVariation(kept)
	if !ok {
		return cfg.Neutral
	}
	return common.Clip01(1 / (1 + cv))
}

// RhythmStability splits the intervals into up to StabilityWindows
// contiguous chunks and combines the regularity inside the chunks with
// the agreement of their mean intervals
func RhythmStability(intervals []float64, cfg config.DanceabilityConfig) float64 {
	if len(intervals) < cfg.MinPeaks-1 {
		return cfg.Neutral
	}
	chunks := min(cfg.StabilityWindows, len(intervals)/2)
	if chunks < 1 {
		return cfg.Neutral
	}

	size := len(intervals) / chunks
	within := make([]float64, chunks)
	means := make([]float64, chunks)
	for c := range chunks {
		end := (c + 1) * size
		if c == chunks-1 {
			end = len(intervals)
		}
		chunk := intervals[c*size : end]
		means[c] = common.Mean(chunk)
		within[c] = cfg.Neutral
		if cv, ok := common.CoefficientOfVariation(chunk); ok {
			within[c] = 1 / (1 + cv)
		}
	}

	across := cfg.Neutral
	if cv, ok := common.CoefficientOfVariation(means); ok {
		across = 1 / (1 + cv)
	}

	return common.Clip01(cfg.StabilityWithin*common.Mean(within) + cfg.StabilityAcross*across)
}

// BassPresence rescales the share of power below the bass cutoff
func BassPresence(bassRatio float64, cfg config.DanceabilityConfig) float64 {
	return common.Rescale(bassRatio, cfg.BassRange.Min, cfg.BassRange.Max)
}

// EnergyFactor scales the mean frame RMS of a peak-normalized window
func EnergyFactor(rmsMean float64, cfg config.DanceabilityConfig) float64 {
	return common.Clip01(rmsMean * cfg.EnergyScale)
}

// Syncopation is the strength-weighted share of onset peaks that fall off
// the half-beat grid. The grid phase is the circular mean of the peak
// phases, so it needs no beat alignment.
func Syncopation(envelope []float64, peaks []int, frameRate, bpm float64, cfg config.DanceabilityConfig) float64 {
	if len(peaks) < cfg.MinPeaks || frameRate <= 0 || bpm <= 0 {
		return cfg.Neutral
	}

	halfBeat := 30 / bpm
	phases := make([]float64, len(peaks))
	weights := make([]float64, len(peaks))
	var sumSin, sumCos, total float64
	for i, p := range peaks {
		t := float64(p) / frameRate
		phases[i] = 2 * math.Pi * (t/halfBeat - math.Floor(t/halfBeat))
		weights[i] = envelope[p]
		sumSin += weights[i] * math.Sin(phases[i])
		sumCos += weights[i] * math.Cos(phases[i])
		total += weights[i]
	}
	if total < common.Epsilon {
		return cfg.Neutral
	}

	grid := math.Atan2(sumSin, sumCos)
	offGrid := 0.0
	for i, phase := range phases {
		deviation := math.Remainder(phase-grid, 2*math.Pi) / (2 * math.Pi)
		if math.Abs(deviation) > cfg.SyncopationTolerance {
			offGrid += weights[i]
		}
	}
	return common.Clip01(offGrid / total)
}

// ScoreDanceability combines the factors into the essential and
// enhancement terms and applies the groove bonus
func ScoreDanceability(f DanceFactors, cfg config.DanceabilityConfig) Danceability {
	essential := cfg.EssentialBeat*f.BeatStrength +
		cfg.EssentialRegularity*f.TempoRegularity +
		cfg.EssentialBass*f.BassPresence
	enhancement := cfg.EnhanceTempo*f.TempoAppropriateness +
		cfg.EnhanceEnergy*f.EnergyFactor +
		cfg.EnhanceStability*f.RhythmStability

	score := common.Clip01(cfg.EssentialShare*essential + cfg.EnhancementShare*enhancement)
	bonus := f.Syncopation < cfg.BonusMaxSyncopation &&
		f.BeatStrength > cfg.BonusMinBeat &&
		f.BassPresence > cfg.BonusMinBass
	if bonus {
		score = math.Min(1, score*cfg.BonusMultiplier)
	}

	return Danceability{
		Score:       score,
		Label:       Classify(score, cfg.Labels, cfg.FallbackLabel),
		Essential:   essential,
		Enhancement: enhancement,
		Bonus:       bonus,
		Factors:     f,
	}
}

// ComputeMoodTerms normalizes the mood measurements
func ComputeMoodTerms(in MoodInputs, cfg config.MoodConfig) MoodTerms {
	terms := MoodTerms{
		Brightness:      common.Rescale(in.CentroidMean, cfg.Brightness.Min, cfg.Brightness.Max),
		HarmonicQuality: common.Clip01(1 - in.FlatnessMean/cfg.FlatnessCeiling),
		SpectralBalance: common.Clip01(
			cfg.BalanceRolloff*common.Rescale(in.RolloffMean, cfg.Rolloff.Min, cfg.Rolloff.Max) +
				cfg.BalanceHFLF*common.Rescale(in.HFLFRatio, cfg.HFLFRatio.Min, cfg.HFLFRatio.Max) +
				cfg.BalanceSpread*common.Rescale(in.SpreadMean, cfg.Spread.Min, cfg.Spread.Max)),
		TempoFactor: common.Rescale(in.BPM, cfg.TempoRange.Min, cfg.TempoRange.Max),
		ModeFactor:  modeFactor(in.Mode, cfg),
		ModeWeight:  cfg.ModeWeightScale * common.Clip01(in.ModeConfidence),
	}
	terms.SpectralWeight = 1 - terms.ModeWeight - cfg.ValenceTempo - cfg.ValenceEnergy
	terms.ValenceSpectral = cfg.ValenceBrightness*terms.Brightness +
		cfg.ValenceHarmonic*terms.HarmonicQuality +
		cfg.ValenceBalance*terms.SpectralBalance
	terms.ArousalSpectral = cfg.ArousalBrightness*terms.Brightness +
		cfg.ArousalBalance*terms.SpectralBalance
	return terms
}

// ScoreMood computes valence and arousal. Mode carries a weight that
// grows with its confidence and the spectral terms take the remainder.
func ScoreMood(in MoodInputs, cfg config.MoodConfig) Mood {
	terms := ComputeMoodTerms(in, cfg)

	valence := common.Clip01(terms.SpectralWeight*terms.ValenceSpectral +
		terms.ModeWeight*terms.ModeFactor +
		cfg.ValenceTempo*terms.TempoFactor +
		cfg.ValenceEnergy*common.Clip01(in.EnergyFactor))

	arousal := common.Clip01(cfg.ArousalBeat*common.Clip01(in.BeatStrength) +
		cfg.ArousalTempo*terms.TempoFactor +
		cfg.ArousalSyncopation*common.Clip01(in.Syncopation) +
		cfg.ArousalEnergy*common.Clip01(in.EnergyFactor) +
		terms.ArousalSpectral +
		cfg.ArousalMode*terms.ModeFactor)

	return Mood{
		Valence:      valence,
		ValenceLabel: Classify(valence, cfg.ValenceLabels, cfg.ValenceFallback),
		Arousal:      arousal,
		ArousalLabel: Classify(arousal, cfg.ArousalLabels, cfg.ArousalFallback),
		Terms:        terms,
	}
}

func modeFactor(mode tonal.Mode, cfg config.MoodConfig) float64 {
	switch mode {
	case tonal.ModeMajor:
		return cfg.MajorFactor
	case tonal.ModeMinor:
		return cfg.MinorFactor
	}
	return cfg.AmbiguousFactor
}

// Classify returns the label of the first threshold value reaches.
// Thresholds are ordered from the highest bound down.
func Classify(value float64, thresholds []config.Threshold, fallback string) string {
	idx := slices.IndexFunc(thresholds, func(t config.Threshold) bool {
		return value >= t.Min
	})
	if idx < 0 {
		return fallback
	}
	return thresholds[idx].Label
}
