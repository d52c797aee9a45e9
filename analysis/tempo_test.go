package analysis

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-pulso/algorithms/temporal"
	"github.com/RyanBlaney/sonido-pulso/analysis/config"
)

func TestSelectTempo(t *testing.T) {
	cfg := config.Default().Tempo

	tests := []struct {
		name       string
		candidates []temporal.TempoCandidate
		wantBPM    float64
		wantFailed bool
	}{
		{
			name:       "no peaks falls back",
			candidates: nil,
			wantBPM:    120,
			wantFailed: true,
		},
		{
			name:       "single peak is dominant",
			candidates: []temporal.TempoCandidate{{BPM: 97.5, Strength: 0.4}},
			wantBPM:    97.5,
		},
		{
			name: "dominant peak wins directly",
			candidates: []temporal.TempoCandidate{
				{BPM: 88, Strength: 0.8},
				{BPM: 128, Strength: 0.7},
			},
			wantBPM: 88,
		},
		{
			name: "close peaks are scored and the range bonus decides",
			candidates: []temporal.TempoCandidate{
				{BPM: 88, Strength: 0.71},
				{BPM: 128, Strength: 0.70},
			},
			wantBPM: 128,
		},
		{
			name: "agreeing peaks earn harmonic bonus",
			candidates: []temporal.TempoCandidate{
				{BPM: 105, Strength: 0.60},
				{BPM: 150, Strength: 0.59},
				{BPM: 75, Strength: 0.58},
				{BPM: 151, Strength: 0.30},
			},
			wantBPM: 150,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectTempo(tt.candidates, cfg)
			if got.BPM != tt.wantBPM {
				t.Errorf("BPM = %g, want %g (candidates %+v)", got.BPM, tt.wantBPM, got.Candidates)
			}
			if got.Failed != tt.wantFailed {
				t.Errorf("Failed = %v, want %v", got.Failed, tt.wantFailed)
			}
			if tt.wantFailed && got.Strength != 0 {
				t.Errorf("fallback strength = %g, want 0", got.Strength)
			}
			if !inUnit(got.Strength) {
				t.Errorf("strength %g outside [0,1]", got.Strength)
			}
		})
	}
}

func TestHarmonicBonus(t *testing.T) {
	cfg := config.Default().Tempo

	tests := []struct {
		ratio float64
		want  float64
	}{
		{1.0, cfg.SameTempoBonus},
		{1.04, cfg.SameTempoBonus},
		{2.0, cfg.DoubleTempoBonus},
		{0.5, cfg.DoubleTempoBonus},
		{1.5, cfg.ThreeTwoTempoBonus},
		{2.0 / 3.0, cfg.ThreeTwoTempoBonus},
		{1.25, 0},
	}
	for _, tt := range tests {
		if got := harmonicBonus(tt.ratio, cfg); got != tt.want {
			t.Errorf("harmonicBonus(%g) = %g, want %g", tt.ratio, got, tt.want)
		}
	}
}

func TestDetectTempoClickTracks(t *testing.T) {
	if testing.Short() {
		t.Skip("spectral analysis of several seconds of audio")
	}

	detector, err := NewTempoDetector(config.Default().Tempo)
	if err != nil {
		t.Fatal(err)
	}

	const sampleRate = 22050
	for _, bpm := range []float64{100, 120, 128} {
		w, err := NewWaveform(clickTrack(bpm, sampleRate, 8), sampleRate, 0)
		if err != nil {
			t.Fatal(err)
		}
		got, err := detector.Detect(context.Background(), w)
		if err != nil {
			t.Fatalf("Detect(%g BPM): %v", bpm, err)
		}
		if got.Failed {
			t.Fatalf("Detect(%g BPM) fell back", bpm)
		}
		if math.Abs(got.BPM-bpm) > 3 && math.Abs(got.BPM/2-bpm) > 3 {
			t.Errorf("Detect(%g BPM) = %g", bpm, got.BPM)
		}
		if got.Strength <= 0.5 {
			t.Errorf("Detect(%g BPM) strength = %g, want a clear pulse", bpm, got.Strength)
		}
	}
}

func TestDetectTempoAcrossRange(t *testing.T) {
	if testing.Short() {
		t.Skip("spectral analysis of many click tracks")
	}

	detector, err := NewTempoDetector(config.Default().Tempo)
	if err != nil {
		t.Fatal(err)
	}

	for _, sampleRate := range []int{22050, 44100} {
		total, hits := 0, 0
		var misses []string
		for bpm := 70.0; bpm <= 170; bpm += 4 {
			w, err := NewWaveform(clickTrack(bpm, sampleRate, 8), sampleRate, 0)
			if err != nil {
				t.Fatal(err)
			}
			got, err := detector.Detect(context.Background(), w)
			if err != nil {
				t.Fatalf("Detect(%g BPM at %d Hz): %v", bpm, sampleRate, err)
			}
			total++
			// a double-time reading of the same pulse counts as correct
			if math.Abs(got.BPM-bpm) <= 3 || math.Abs(got.BPM/2-bpm) <= 3 {
				hits++
			} else {
				misses = append(misses, fmt.Sprintf("%g->%g", bpm, got.BPM))
			}
		}
		if float64(hits) < 0.9*float64(total) {
			t.Errorf("%d Hz: %d of %d tempos detected, misses %v", sampleRate, hits, total, misses)
		}
	}
}

func TestDetectTempoIsRepeatable(t *testing.T) {
	detector, err := NewTempoDetector(config.Default().Tempo)
	if err != nil {
		t.Fatal(err)
	}
	w, err := NewWaveform(clickTrack(124, 22050, 6), 22050, 0)
	if err != nil {
		t.Fatal(err)
	}

	first, err := detector.Detect(context.Background(), w)
	if err != nil {
		t.Fatal(err)
	}
	second, err := detector.Detect(context.Background(), w)
	if err != nil {
		t.Fatal(err)
	}
	if first.BPM != second.BPM || first.Strength != second.Strength {
		t.Errorf("repeated detection differs: %+v vs %+v", first, second)
	}
}
