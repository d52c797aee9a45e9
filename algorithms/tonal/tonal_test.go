package tonal

import (
	"math"
	"testing"
)

func profileOf(pcs ...int) []float64 {
	p := make([]float64, 12)
	for _, pc := range pcs {
		p[pc] = 1
	}
	return p
}

func TestEstimateTriads(t *testing.T) {
	tests := []struct {
		name      string
		profile   []float64
		want      string
		camelot   string
		alternate string
	}{
		{"C major triad", profileOf(0, 4, 7), "C major", "8B", "E minor"},
		{"C minor triad", profileOf(0, 3, 7), "C minor", "5A", ""},
		{"C major scale", profileOf(0, 2, 4, 5, 7, 9, 11), "C major", "8B", "A minor"},
		{"G major triad", profileOf(7, 11, 2), "G major", "9B", "B minor"},
	}

	ke := NewKeyEstimator(0.9)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ke.Estimate(tt.profile)
			if err != nil {
				t.Fatal(err)
			}
			if res.Best.Name != tt.want || res.Best.Camelot != tt.camelot {
				t.Errorf("best = %s (%s), want %s (%s)", res.Best.Name, res.Best.Camelot, tt.want, tt.camelot)
			}
			gotAlt := ""
			if res.Alternate != nil {
				gotAlt = res.Alternate.Name
			}
			if gotAlt != tt.alternate {
				t.Errorf("alternate = %q, want %q", gotAlt, tt.alternate)
			}
			if len(res.Candidates) != 24 {
				t.Errorf("candidates = %d, want 24", len(res.Candidates))
			}
		})
	}
}

func TestEstimateDegenerateProfiles(t *testing.T) {
	flat := make([]float64, 12)
	for i := range flat {
		flat[i] = 0.5
	}
	for _, profile := range [][]float64{make([]float64, 12), flat} {
		res, err := NewKeyEstimator(0.9).Estimate(profile)
		if err != nil {
			t.Fatal(err)
		}
		for _, c := range res.Candidates {
			if math.IsNaN(c.Correlation) || c.Correlation != 0 {
				t.Fatalf("%s correlation = %v, want 0", c.Name, c.Correlation)
			}
		}
		if res.Best.Name != "C major" || res.Alternate != nil {
			t.Errorf("degenerate best = %s, alternate = %v", res.Best.Name, res.Alternate)
		}
	}

	if _, err := NewKeyEstimator(0.9).Estimate(make([]float64, 11)); err == nil {
		t.Error("expected error for short profile")
	}
}

func TestCamelotTable(t *testing.T) {
	majors := []string{"8B", "3B", "10B", "5B", "12B", "7B", "2B", "9B", "4B", "11B", "6B", "1B"}
	minors := []string{"5A", "12A", "7A", "2A", "9A", "4A", "11A", "6A", "1A", "8A", "3A", "10A"}
	seen := map[string]bool{}
	for pc := range 12 {
		if got := CamelotCode(pc, KeyModeMajor); got != majors[pc] {
			t.Errorf("major %d = %s, want %s", pc, got, majors[pc])
		}
		if got := CamelotCode(pc, KeyModeMinor); got != minors[pc] {
			t.Errorf("minor %d = %s, want %s", pc, got, minors[pc])
		}
		seen[majors[pc]] = true
		seen[minors[pc]] = true
	}
	if len(seen) != 24 {
		t.Errorf("table has %d distinct codes, want 24", len(seen))
	}
}

func TestCamelotCompatible(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"8B", "8A", true},
		{"8B", "9B", true},
		{"12A", "1A", true},
		{"8B", "10B", false},
		{"8B", "9A", false},
		{"13B", "1B", false},
		{"xB", "1B", false},
	}
	for _, tt := range tests {
		if got := CamelotCompatible(tt.a, tt.b); got != tt.want {
			t.Errorf("CamelotCompatible(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTonnetzMode(t *testing.T) {
	params := DefaultModeParams()
	tests := []struct {
		name string
		mean []float64
		want Mode
	}{
		{"sine dims dominate", []float64{0.5, 0.1, 0.3, 0.1, 0.2, 0}, ModeMajor},
		{"cosine dims dominate", []float64{0, 0.4, 0.1, 0.6, 0, 0.2}, ModeMinor},
		{"tie", []float64{0.2, 0.1, 0.1, 0.2, 0, 0}, ModeAmbiguous},
		{"too short", []float64{1, 0}, ModeAmbiguous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TonnetzMode(tt.mean, params); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestModeConfidence(t *testing.T) {
	params := DefaultModeParams()

	// silence: stability 1, clarity 0
	if got := ModeConfidence(make([]float64, 6), 0, 0, params); math.Abs(got-0.6) > 1e-12 {
		t.Errorf("silent confidence = %v, want 0.6", got)
	}

	// very unstable and flat falls back to the floor
	if got := ModeConfidence([]float64{1, 1, 1, 1, 1, 1}, 1, 100, params); got != 0.3 {
		t.Errorf("floor confidence = %v, want 0.3", got)
	}

	got := ModeConfidence([]float64{0.5, -0.5, 0, 0, 0, 0}, -0.1, 0, params)
	if got != 1 {
		t.Errorf("clear and stable confidence = %v, want 1", got)
	}
}
