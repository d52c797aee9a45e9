package config

import (
	"github.com/RyanBlaney/sonido-pulso/algorithms/temporal"
	"github.com/RyanBlaney/sonido-pulso/algorithms/tonal"
)

// Default returns the tuned constants for western popular and dance music
func Default() Config {
	return Config{
		Segment: SegmentConfig{
			SampleDuration: 10,
			SkipIntro:      0,
			Probes:         10,

			HarmonicCentroidWeight: 0.4,
			HarmonicTonalWeight:    0.6,

			PercussiveDensityWeight: 0.5,
			PercussiveOnsetWeight:   0.5,
			OnsetDensityScale:       8,
			OnsetMeanScale:          2,

			MinTempoPeaks:     4,
			RegularityWeight:  0.50,
			StrengthWeight:    0.25,
			EnergyWeight:      0.15,
			DensityWeight:     0.10,
			EnergyScale:       10,
			PreferredPeakRate: Range{Min: 1.5, Max: 5},
		},
		Features: FeatureConfig{
			Window:         "hann",
			WindowSize:     2048,
			HopSize:        512,
			RolloffPercent: 0.85,
			BassCutoff:     300,
			HighCutoff:     4000,
			DCCutoff:       5,

			MFCCCoefficients: 13,
			MFCCFilters:      26,

			OnsetWindowSize:  2048,
			OnsetHopSize:     1024,
			OnsetMelBands:    128,
			OnsetTopDB:       80,
			OnsetSensitivity: 0.5,

			TuningFrequency: 440,
			ChromaMinFreq:   80,
			ChromaMaxFreq:   8000,
		},
		Tempo: TempoConfig{
			Periodicity: temporal.DefaultPeriodicityParams(),

			DominanceRatio: 1.04,
			Accepted:       Range{Min: 70, Max: 180},
			StrengthWeight: 0.6,

			RangeBonuses: []RangeBonus{
				{Min: 120, Max: 140, Bonus: 0.15},
				{Min: 100, Max: 160, Bonus: 0.10},
				{Min: 80, Max: 180, Bonus: 0.05},
			},
			DefaultRangeBonus: 0.02,
			Penalized:         Range{Min: 70, Max: 170},
			RangePenalty:      0.3,

			HarmonicPeers:      10,
			RatioTolerance:     0.05,
			SameTempoBonus:     0.05,
			DoubleTempoBonus:   0.02,
			ThreeTwoTempoBonus: 0.01,

			FallbackBPM: 120,
		},
		Key: KeyConfig{
			AlternateRatio: 0.9,
			Mode:           tonal.DefaultModeParams(),
		},
		Danceability: DanceabilityConfig{
			TempoSteps: []TempoStep{
				{UpTo: 60, Score: 0.2},
				{UpTo: 70, Score: 0.3},
				{UpTo: 80, Score: 0.4},
				{UpTo: 90, Score: 0.5},
				{UpTo: 100, Score: 0.6},
				{UpTo: 110, Score: 0.7},
				{UpTo: 120, Score: 0.8},
				{UpTo: 130, Score: 0.9},
				{UpTo: 140, Score: 1.0},
				{UpTo: 150, Score: 0.9},
				{UpTo: 160, Score: 0.8},
				{UpTo: 170, Score: 0.7},
				{UpTo: 180, Score: 0.6},
				{UpTo: 190, Score: 0.5},
				{UpTo: 200, Score: 0.4, Open: true},
			},
			TempoAbove: 0.2,

			IntervalOutlier:      0.5,
			StabilityWindows:     8,
			StabilityWithin:      0.6,
			StabilityAcross:      0.4,
			BassRange:            Range{Min: 0.05, Max: 0.40},
			EnergyScale:          4,
			SyncopationTolerance: 0.25,
			MinPeaks:             4,
			Neutral:              0.5,

			EssentialBeat:       0.40,
			EssentialRegularity: 0.40,
			EssentialBass:       0.20,
			EnhanceTempo:        0.35,
			EnhanceEnergy:       0.40,
			EnhanceStability:    0.25,
			EssentialShare:      0.70,
			EnhancementShare:    0.30,

			BonusMultiplier:     1.1,
			BonusMaxSyncopation: 0.5,
			BonusMinBeat:        0.7,
			BonusMinBass:        0.8,

			Labels: []Threshold{
				{Min: 0.75, Label: "highly-danceable"},
				{Min: 0.60, Label: "danceable"},
				{Min: 0.55, Label: "moderately-danceable"},
				{Min: 0.35, Label: "slightly-danceable"},
				{Min: 0.20, Label: "minimally-danceable"},
				{Min: 0.10, Label: "ambient"},
			},
			FallbackLabel: "experimental",
		},
		Mood: MoodConfig{
			Brightness:      Range{Min: 500, Max: 6000},
			FlatnessCeiling: 0.35,
			Rolloff:         Range{Min: 1000, Max: 10000},
			HFLFRatio:       Range{Min: 0, Max: 1.5},
			Spread:          Range{Min: 500, Max: 4000},
			BalanceRolloff:  0.4,
			BalanceHFLF:     0.3,
			BalanceSpread:   0.3,
			TempoRange:      Range{Min: 70, Max: 170},

			ModeWeightScale:   0.15,
			ValenceTempo:      0.08,
			ValenceEnergy:     0.02,
			ValenceBrightness: 0.47,
			ValenceHarmonic:   0.30,
			ValenceBalance:    0.23,
			MajorFactor:       0.8,
			MinorFactor:       0.3,
			AmbiguousFactor:   0.5,

			ArousalBeat:        0.40,
			ArousalTempo:       0.25,
			ArousalSyncopation: 0.15,
			ArousalBrightness:  0.10,
			ArousalEnergy:      0.05,
			ArousalBalance:     0.03,
			ArousalMode:        0.02,

			ValenceLabels: []Threshold{
				{Min: 0.70, Label: "very-positive"},
				{Min: 0.55, Label: "positive"},
				{Min: 0.48, Label: "neutral"},
				{Min: 0.30, Label: "negative"},
			},
			ValenceFallback: "very-negative",
			ArousalLabels: []Threshold{
				{Min: 0.70, Label: "very-energetic"},
				{Min: 0.55, Label: "energetic"},
				{Min: 0.45, Label: "moderate"},
				{Min: 0.30, Label: "calm"},
			},
			ArousalFallback: "very-calm",
		},
	}
}
