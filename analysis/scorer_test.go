package analysis

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-pulso/algorithms/tonal"
	"github.com/RyanBlaney/sonido-pulso/analysis/config"
)

func TestTempoAppropriateness(t *testing.T) {
	cfg := config.Default().Danceability

	tests := []struct {
		bpm  float64
		want float64
	}{
		{50, 0.2},
		{60, 0.2},
		{80, 0.4},
		{90, 0.5},
		{100, 0.6},
		{110, 0.7},
		{120, 0.8},
		{125, 0.9},
		{130, 0.9},
		{135, 1.0},
		{140, 1.0},
		{160, 0.8},
		{180, 0.6},
		{199.9, 0.4},
		{200, 0.2},
		{240, 0.2},
	}

	for _, tt := range tests {
		if got := TempoAppropriateness(tt.bpm, cfg); got != tt.want {
			t.Errorf("TempoAppropriateness(%g) = %g, want %g", tt.bpm, got, tt.want)
		}
	}
}

func TestDanceabilityLabels(t *testing.T) {
	cfg := config.Default().Danceability

	tests := []struct {
		score float64
		want  string
	}{
		{1.0, "highly-danceable"},
		{0.75, "highly-danceable"},
		{0.7499, "danceable"},
		{0.60, "danceable"},
		{0.55, "moderately-danceable"},
		{0.40, "slightly-danceable"},
		{0.20, "minimally-danceable"},
		{0.10, "ambient"},
		{0.0999, "experimental"},
		{0.0, "experimental"},
	}

	for _, tt := range tests {
		if got := Classify(tt.score, cfg.Labels, cfg.FallbackLabel); got != tt.want {
			t.Errorf("Classify(%g) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestScoreMoodRegressionFixture(t *testing.T) {
	cfg := config.Default().Mood

	mood := ScoreMood(MoodInputs{
		CentroidMean:   3500,
		FlatnessMean:   0.05,
		RolloffMean:    7000,
		HFLFRatio:      0.9,
		SpreadMean:     2500,
		BPM:            122.3,
		BeatStrength:   0.58,
		Syncopation:    0.5,
		EnergyFactor:   0.8,
		Mode:           tonal.ModeMajor,
		ModeConfidence: 0.8,
	}, cfg)

	if mood.ValenceLabel != "positive" {
		t.Errorf("valence label = %q (%.3f), want positive", mood.ValenceLabel, mood.Valence)
	}
	if mood.ArousalLabel != "energetic" {
		t.Errorf("arousal label = %q (%.3f), want energetic", mood.ArousalLabel, mood.Arousal)
	}
	if math.Abs(mood.Valence-0.665) > 0.005 {
		t.Errorf("valence = %.4f, want ~0.665", mood.Valence)
	}
	if math.Abs(mood.Arousal-0.567) > 0.005 {
		t.Errorf("arousal = %.4f, want ~0.567", mood.Arousal)
	}
}

func TestScoreMoodModeWeighting(t *testing.T) {
	cfg := config.Default().Mood
	in := MoodInputs{CentroidMean: 2000, FlatnessMean: 0.2, BPM: 100, ModeConfidence: 1}

	in.Mode = tonal.ModeMajor
	major := ScoreMood(in, cfg)
	in.Mode = tonal.ModeMinor
	minor := ScoreMood(in, cfg)
	in.Mode = tonal.ModeAmbiguous
	ambiguous := ScoreMood(in, cfg)

	if !(major.Valence > ambiguous.Valence && ambiguous.Valence > minor.Valence) {
		t.Errorf("valence ordering major %.3f > ambiguous %.3f > minor %.3f violated",
			major.Valence, ambiguous.Valence, minor.Valence)
	}

	in.ModeConfidence = 0
	in.Mode = tonal.ModeMajor
	noWeightMajor := ScoreMood(in, cfg)
	in.Mode = tonal.ModeMinor
	noWeightMinor := ScoreMood(in, cfg)
	if noWeightMajor.Valence != noWeightMinor.Valence {
		t.Errorf("zero confidence should remove the mode from valence: %g vs %g",
			noWeightMajor.Valence, noWeightMinor.Valence)
	}
}

func TestScoreMoodExtremesStayInRange(t *testing.T) {
	cfg := config.Default().Mood

	for _, in := range []MoodInputs{
		{},
		{CentroidMean: 1e6, FlatnessMean: -1, RolloffMean: 1e6, HFLFRatio: 1e3, SpreadMean: 1e6,
			BPM: 400, BeatStrength: 5, Syncopation: 5, EnergyFactor: 5, Mode: tonal.ModeMajor, ModeConfidence: 5},
		{FlatnessMean: math.NaN(), BPM: math.NaN(), ModeConfidence: math.NaN()},
	} {
		mood := ScoreMood(in, cfg)
		if !inUnit(mood.Valence) || !inUnit(mood.Arousal) {
			t.Errorf("ScoreMood(%+v) = valence %g arousal %g, want both in [0,1]", in, mood.Valence, mood.Arousal)
		}
	}
}

func TestScoreDanceability(t *testing.T) {
	cfg := config.Default().Danceability

	t.Run("weighted combination", func(t *testing.T) {
		f := DanceFactors{
			BeatStrength:         0.6,
			TempoAppropriateness: 0.8,
			TempoRegularity:      0.5,
			RhythmStability:      0.5,
			BassPresence:         0.5,
			EnergyFactor:         0.5,
			Syncopation:          0.5,
		}
		got := ScoreDanceability(f, cfg)
		essential := 0.4*0.6 + 0.4*0.5 + 0.2*0.5
		enhancement := 0.35*0.8 + 0.4*0.5 + 0.25*0.5
		want := 0.7*essential + 0.3*enhancement
		if math.Abs(got.Score-want) > 1e-12 {
			t.Errorf("score = %g, want %g", got.Score, want)
		}
		if got.Bonus {
			t.Error("bonus should not apply")
		}
	})

	t.Run("groove bonus capped at one", func(t *testing.T) {
		f := DanceFactors{
			BeatStrength:         1,
			TempoAppropriateness: 1,
			TempoRegularity:      1,
			RhythmStability:      1,
			BassPresence:         1,
			EnergyFactor:         1,
			Syncopation:          0.1,
		}
		got := ScoreDanceability(f, cfg)
		if !got.Bonus {
			t.Fatal("bonus should apply")
		}
		if got.Score != 1 {
			t.Errorf("score = %g, want 1", got.Score)
		}
		if got.Label != "highly-danceable" {
			t.Errorf("label = %q", got.Label)
		}
	})

	t.Run("bonus multiplies", func(t *testing.T) {
		f := DanceFactors{BeatStrength: 0.8, BassPresence: 0.9, Syncopation: 0.2}
		got := ScoreDanceability(f, cfg)
		base := 0.7 * (0.4*0.8 + 0.2*0.9)
		if math.Abs(got.Score-base*1.1) > 1e-12 {
			t.Errorf("score = %g, want %g", got.Score, base*1.1)
		}
	})
}

func TestTempoRegularity(t *testing.T) {
	cfg := config.Default().Danceability

	if got := TempoRegularity([]float64{0.5, 0.5, 0.5, 0.5}, cfg); got != 1 {
		t.Errorf("steady intervals = %g, want 1", got)
	}
	if got := TempoRegularity([]float64{0.5, 0.5}, cfg); got != cfg.Neutral {
		t.Errorf("too few intervals = %g, want neutral", got)
	}
	// the 3s gap is an outlier and must not count
	withOutlier := TempoRegularity([]float64{0.5, 0.5, 3, 0.5, 0.5}, cfg)
	if withOutlier != 1 {
		t.Errorf("outlier not discarded: %g", withOutlier)
	}
	uneven := TempoRegularity([]float64{0.4, 0.6, 0.4, 0.6, 0.4, 0.6}, cfg)
	if uneven >= 1 || uneven <= 0.5 {
		t.Errorf("uneven intervals = %g, want in (0.5, 1)", uneven)
	}
}

func TestRhythmStability(t *testing.T) {
	cfg := config.Default().Danceability

	steady := make([]float64, 32)
	for i := range steady {
		steady[i] = 0.5
	}
	if got := RhythmStability(steady, cfg); math.Abs(got-1) > 1e-12 {
		t.Errorf("steady = %g, want 1", got)
	}

	// tempo doubles halfway through: each chunk is steady, chunks disagree
	drift := make([]float64, 32)
	for i := range drift {
		drift[i] = 0.5
		if i >= 16 {
			drift[i] = 0.25
		}
	}
	got := RhythmStability(drift, cfg)
	if got >= 1 || got < cfg.StabilityWithin {
		t.Errorf("drift = %g, want in [%g, 1)", got, cfg.StabilityWithin)
	}

	if got := RhythmStability(nil, cfg); got != cfg.Neutral {
		t.Errorf("empty = %g, want neutral", got)
	}
}

func TestSyncopation(t *testing.T) {
	cfg := config.Default().Danceability
	frameRate := 100.0
	bpm := 120.0 // half beat = 25 frames

	onGrid := make([]int, 16)
	for i := range onGrid {
		onGrid[i] = 10 + 25*i
	}
	envelope := make([]float64, 500)
	for _, p := range onGrid {
		envelope[p] = 1
	}
	if got := Syncopation(envelope, onGrid, frameRate, bpm, cfg); got != 0 {
		t.Errorf("on-grid peaks = %g, want 0", got)
	}

	// every fourth peak shifted by 12 frames, almost half of a half beat
	shifted := append([]int(nil), onGrid...)
	envelope = make([]float64, 500)
	for i := range shifted {
		if i%4 == 3 {
			shifted[i] += 12
		}
		envelope[shifted[i]] = 1
	}
	got := Syncopation(envelope, shifted, frameRate, bpm, cfg)
	if got <= 0 || got > 0.5 {
		t.Errorf("shifted peaks = %g, want in (0, 0.5]", got)
	}

	if got := Syncopation(envelope, shifted[:2], frameRate, bpm, cfg); got != cfg.Neutral {
		t.Errorf("too few peaks = %g, want neutral", got)
	}
}

func TestBassAndEnergyFactors(t *testing.T) {
	cfg := config.Default().Danceability

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"bass below range", BassPresence(0.01, cfg), 0},
		{"bass at top", BassPresence(0.40, cfg), 1},
		{"bass midway", BassPresence(0.225, cfg), 0.5},
		{"energy silent", EnergyFactor(0, cfg), 0},
		{"energy scaled", EnergyFactor(0.1, cfg), 0.4},
		{"energy saturates", EnergyFactor(0.5, cfg), 1},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > 1e-12 {
			t.Errorf("%s = %g, want %g", tt.name, tt.got, tt.want)
		}
	}
}
