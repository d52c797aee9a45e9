package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/RyanBlaney/sonido-pulso/algorithms/temporal"
	"github.com/RyanBlaney/sonido-pulso/algorithms/tonal"
)

// Config holds every tunable constant of the analysis pipeline. Algorithm
// code reads weights, ranges and label tables from here, never from
// literals, so a table can be changed and tested on its own.
type Config struct {
	Segment      SegmentConfig      `toml:"segment" json:"segment"`
	Features     FeatureConfig      `toml:"features" json:"features"`
	Tempo        TempoConfig        `toml:"tempo" json:"tempo"`
	Key          KeyConfig          `toml:"key" json:"key"`
	Danceability DanceabilityConfig `toml:"danceability" json:"danceability"`
	Mood         MoodConfig         `toml:"mood" json:"mood"`
}

// Range is a closed interval used for rescaling raw measurements to [0, 1]
type Range struct {
	Min float64 `toml:"min" json:"min"`
	Max float64 `toml:"max" json:"max"`
}

// Contains reports whether v lies in [Min, Max]
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Threshold maps a lower bound to a label. Tables of thresholds are
// ordered from the highest bound down.
type Threshold struct {
	Min   float64 `toml:"min" json:"min"`
	Label string  `toml:"label" json:"label"`
}

// SegmentConfig controls probing of long recordings
type SegmentConfig struct {
	SampleDuration float64 `toml:"sample_duration" json:"sample_duration"` // seconds per analysis window
	SkipIntro      float64 `toml:"skip_intro" json:"skip_intro"`           // seconds ignored at the start
	Probes         int     `toml:"probes" json:"probes"`                   // candidate positions

	HarmonicCentroidWeight float64 `toml:"harmonic_centroid_weight" json:"harmonic_centroid_weight"`
	HarmonicTonalWeight    float64 `toml:"harmonic_tonal_weight" json:"harmonic_tonal_weight"`

	PercussiveDensityWeight float64 `toml:"percussive_density_weight" json:"percussive_density_weight"`
	PercussiveOnsetWeight   float64 `toml:"percussive_onset_weight" json:"percussive_onset_weight"`
	OnsetDensityScale       float64 `toml:"onset_density_scale" json:"onset_density_scale"` // onsets/s that saturate density
	OnsetMeanScale          float64 `toml:"onset_mean_scale" json:"onset_mean_scale"`

	MinTempoPeaks     int     `toml:"min_tempo_peaks" json:"min_tempo_peaks"`
	RegularityWeight  float64 `toml:"regularity_weight" json:"regularity_weight"`
	StrengthWeight    float64 `toml:"strength_weight" json:"strength_weight"`
	EnergyWeight      float64 `toml:"energy_weight" json:"energy_weight"`
	DensityWeight     float64 `toml:"density_weight" json:"density_weight"`
	EnergyScale       float64 `toml:"energy_scale" json:"energy_scale"`
	PreferredPeakRate Range   `toml:"preferred_peak_rate" json:"preferred_peak_rate"` // peaks/s scoring 1.0
}

// FeatureConfig controls the spectral feature bank
type FeatureConfig struct {
	Window         string  `toml:"window" json:"window"`
	WindowSize     int     `toml:"window_size" json:"window_size"`
	HopSize        int     `toml:"hop_size" json:"hop_size"`
	RolloffPercent float64 `toml:"rolloff_percent" json:"rolloff_percent"`
	BassCutoff     float64 `toml:"bass_cutoff" json:"bass_cutoff"` // Hz, bass is below
	HighCutoff     float64 `toml:"high_cutoff" json:"high_cutoff"` // Hz, high is at or above
	DCCutoff       float64 `toml:"dc_cutoff" json:"dc_cutoff"`     // Hz, 0 keeps the DC component

	MFCCCoefficients int `toml:"mfcc_coefficients" json:"mfcc_coefficients"`
	MFCCFilters      int `toml:"mfcc_filters" json:"mfcc_filters"`

	OnsetWindowSize  int     `toml:"onset_window_size" json:"onset_window_size"`
	OnsetHopSize     int     `toml:"onset_hop_size" json:"onset_hop_size"`
	OnsetMelBands    int     `toml:"onset_mel_bands" json:"onset_mel_bands"`
	OnsetTopDB       float64 `toml:"onset_top_db" json:"onset_top_db"`
	OnsetSensitivity float64 `toml:"onset_sensitivity" json:"onset_sensitivity"` // threshold = mean + k*std

	TuningFrequency float64 `toml:"tuning_frequency" json:"tuning_frequency"`
	ChromaMinFreq   float64 `toml:"chroma_min_freq" json:"chroma_min_freq"`
	ChromaMaxFreq   float64 `toml:"chroma_max_freq" json:"chroma_max_freq"`
}

// RangeBonus rewards candidate tempos inside a band
type RangeBonus struct {
	Min   float64 `toml:"min" json:"min"`
	Max   float64 `toml:"max" json:"max"`
	Bonus float64 `toml:"bonus" json:"bonus"`
}

// TempoConfig controls tempo candidate selection
type TempoConfig struct {
	Periodicity temporal.PeriodicityParams `toml:"periodicity" json:"periodicity"`

	DominanceRatio float64 `toml:"dominance_ratio" json:"dominance_ratio"` // top/second ratio for direct pick
	Accepted       Range   `toml:"accepted" json:"accepted"`               // BPM range a direct pick must fall in
	StrengthWeight float64 `toml:"strength_weight" json:"strength_weight"`

	RangeBonuses      []RangeBonus `toml:"range_bonuses" json:"range_bonuses"` // first match wins
	DefaultRangeBonus float64      `toml:"default_range_bonus" json:"default_range_bonus"`
	Penalized         Range        `toml:"penalized" json:"penalized"` // outside this range the penalty applies
	RangePenalty      float64      `toml:"range_penalty" json:"range_penalty"`

	HarmonicPeers      int     `toml:"harmonic_peers" json:"harmonic_peers"`
	RatioTolerance     float64 `toml:"ratio_tolerance" json:"ratio_tolerance"` // relative
	SameTempoBonus     float64 `toml:"same_tempo_bonus" json:"same_tempo_bonus"`
	DoubleTempoBonus   float64 `toml:"double_tempo_bonus" json:"double_tempo_bonus"`
	ThreeTwoTempoBonus float64 `toml:"three_two_tempo_bonus" json:"three_two_tempo_bonus"`

	FallbackBPM float64 `toml:"fallback_bpm" json:"fallback_bpm"`
}

// KeyConfig controls key and mode detection
type KeyConfig struct {
	AlternateRatio float64          `toml:"alternate_ratio" json:"alternate_ratio"`
	Mode           tonal.ModeParams `toml:"mode" json:"mode"`
}

// TempoStep scores every BPM up to and including UpTo, or strictly below it
// when Open is set. Steps are ordered by UpTo.
type TempoStep struct {
	UpTo  float64 `toml:"up_to" json:"up_to"`
	Score float64 `toml:"score" json:"score"`
	Open  bool    `toml:"open,omitempty" json:"open,omitempty"`
}

// DanceabilityConfig holds the danceability model
type DanceabilityConfig struct {
	TempoSteps []TempoStep `toml:"tempo_steps" json:"tempo_steps"`
	TempoAbove float64     `toml:"tempo_above" json:"tempo_above"` // score past the last step

	IntervalOutlier      float64 `toml:"interval_outlier" json:"interval_outlier"` // fraction of median kept on each side
	StabilityWindows     int     `toml:"stability_windows" json:"stability_windows"`
	StabilityWithin      float64 `toml:"stability_within" json:"stability_within"`
	StabilityAcross      float64 `toml:"stability_across" json:"stability_across"`
	BassRange            Range   `toml:"bass_range" json:"bass_range"`
	EnergyScale          float64 `toml:"energy_scale" json:"energy_scale"`
	SyncopationTolerance float64 `toml:"syncopation_tolerance" json:"syncopation_tolerance"` // fraction of a half beat
	MinPeaks             int     `toml:"min_peaks" json:"min_peaks"`                         // below this, rhythm factors are neutral
	Neutral              float64 `toml:"neutral" json:"neutral"`

	EssentialBeat       float64 `toml:"essential_beat" json:"essential_beat"`
	EssentialRegularity float64 `toml:"essential_regularity" json:"essential_regularity"`
	EssentialBass       float64 `toml:"essential_bass" json:"essential_bass"`
	EnhanceTempo        float64 `toml:"enhance_tempo" json:"enhance_tempo"`
	EnhanceEnergy       float64 `toml:"enhance_energy" json:"enhance_energy"`
	EnhanceStability    float64 `toml:"enhance_stability" json:"enhance_stability"`
	EssentialShare      float64 `toml:"essential_share" json:"essential_share"`
	EnhancementShare    float64 `toml:"enhancement_share" json:"enhancement_share"`

	BonusMultiplier     float64 `toml:"bonus_multiplier" json:"bonus_multiplier"`
	BonusMaxSyncopation float64 `toml:"bonus_max_syncopation" json:"bonus_max_syncopation"`
	BonusMinBeat        float64 `toml:"bonus_min_beat" json:"bonus_min_beat"`
	BonusMinBass        float64 `toml:"bonus_min_bass" json:"bonus_min_bass"`

	Labels        []Threshold `toml:"labels" json:"labels"`
	FallbackLabel string      `toml:"fallback_label" json:"fallback_label"`
}

// MoodConfig holds the valence/arousal model
type MoodConfig struct {
	Brightness      Range   `toml:"brightness" json:"brightness"` // centroid Hz
	FlatnessCeiling float64 `toml:"flatness_ceiling" json:"flatness_ceiling"`
	Rolloff         Range   `toml:"rolloff" json:"rolloff"`
	HFLFRatio       Range   `toml:"hf_lf_ratio" json:"hf_lf_ratio"`
	Spread          Range   `toml:"spread" json:"spread"`
	BalanceRolloff  float64 `toml:"balance_rolloff" json:"balance_rolloff"`
	BalanceHFLF     float64 `toml:"balance_hf_lf" json:"balance_hf_lf"`
	BalanceSpread   float64 `toml:"balance_spread" json:"balance_spread"`
	TempoRange      Range   `toml:"tempo_range" json:"tempo_range"`

	ModeWeightScale   float64 `toml:"mode_weight_scale" json:"mode_weight_scale"`
	ValenceTempo      float64 `toml:"valence_tempo" json:"valence_tempo"`
	ValenceEnergy     float64 `toml:"valence_energy" json:"valence_energy"`
	ValenceBrightness float64 `toml:"valence_brightness" json:"valence_brightness"`
	ValenceHarmonic   float64 `toml:"valence_harmonic" json:"valence_harmonic"`
	ValenceBalance    float64 `toml:"valence_balance" json:"valence_balance"`
	MajorFactor       float64 `toml:"major_factor" json:"major_factor"`
	MinorFactor       float64 `toml:"minor_factor" json:"minor_factor"`
	AmbiguousFactor   float64 `toml:"ambiguous_factor" json:"ambiguous_factor"`

	ArousalBeat        float64 `toml:"arousal_beat" json:"arousal_beat"`
	ArousalTempo       float64 `toml:"arousal_tempo" json:"arousal_tempo"`
	ArousalSyncopation float64 `toml:"arousal_syncopation" json:"arousal_syncopation"`
	ArousalBrightness  float64 `toml:"arousal_brightness" json:"arousal_brightness"`
	ArousalEnergy      float64 `toml:"arousal_energy" json:"arousal_energy"`
	ArousalBalance     float64 `toml:"arousal_balance" json:"arousal_balance"`
	ArousalMode        float64 `toml:"arousal_mode" json:"arousal_mode"`

	ValenceLabels   []Threshold `toml:"valence_labels" json:"valence_labels"`
	ValenceFallback string      `toml:"valence_fallback" json:"valence_fallback"`
	ArousalLabels   []Threshold `toml:"arousal_labels" json:"arousal_labels"`
	ArousalFallback string      `toml:"arousal_fallback" json:"arousal_fallback"`
}

// Load reads a TOML file over the defaults and validates the result.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s does not exist", path)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}

		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Encode renders the configuration as TOML
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	encoder.SetIndentTables(true)
	if err := encoder.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}
