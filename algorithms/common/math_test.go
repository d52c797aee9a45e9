package common

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{4, 1, 3, 2, 5})
	want := Summary{Mean: 3, Std: math.Sqrt(2), Median: 3, Min: 1, Max: 5, P25: 2, P75: 4}
	if !almostEqual(s.Mean, want.Mean, 1e-12) || !almostEqual(s.Std, want.Std, 1e-12) ||
		s.Median != want.Median || s.Min != want.Min || s.Max != want.Max ||
		s.P25 != want.P25 || s.P75 != want.P75 {
		t.Errorf("Summarize = %+v, want %+v", s, want)
	}

	if got := Summarize(nil); got != (Summary{}) {
		t.Errorf("empty Summarize = %+v", got)
	}
}

func TestPercentile(t *testing.T) {
	data := []float64{40, 10, 30, 20}
	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{"minimum", 0, 10},
		{"lower quartile", 0.25, 10},
		{"median takes the lower middle", 0.5, 20},
		{"upper quartile", 0.75, 30},
		{"maximum", 1, 40},
		{"out of range", 1.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentile(data, tt.p); got != tt.want {
				t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}

	if data[0] != 40 {
		t.Error("Percentile reordered its input")
	}
	if got := Median(nil); got != 0 {
		t.Errorf("empty median = %v", got)
	}
}

func TestPeakAbs(t *testing.T) {
	if got := PeakAbs([]float64{0.2, -0.7, 0.5}); got != 0.7 {
		t.Errorf("PeakAbs = %v, want 0.7", got)
	}
	if got := PeakAbs(nil); got != 0 {
		t.Errorf("empty PeakAbs = %v", got)
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	if _, ok := CoefficientOfVariation([]float64{1}); ok {
		t.Error("single value should not yield a CV")
	}
	if _, ok := CoefficientOfVariation([]float64{-1, 1}); ok {
		t.Error("zero mean should not yield a CV")
	}
	cv, ok := CoefficientOfVariation([]float64{2, 2, 2})
	if !ok || cv != 0 {
		t.Errorf("constant series CV = %v, %v", cv, ok)
	}
}

func TestClampAndRescale(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"clamp low", Clamp(-1, 0, 1), 0},
		{"clamp high", Clamp(2, 0, 1), 1},
		{"clamp nan", Clamp(math.NaN(), 0, 1), 0},
		{"rescale mid", Rescale(3250, 500, 6000), 0.5},
		{"rescale below", Rescale(100, 500, 6000), 0},
		{"rescale degenerate", Rescale(1, 2, 2), 0},
		{"safe div zero", SafeDiv(1, 0, 0.5), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !almostEqual(tt.got, tt.want, 1e-12) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestFindPeaks(t *testing.T) {
	data := []float64{0, 1, 0, 0.2, 0, 3, 2.9, 3.5, 0, 0.04, 0}
	got := FindPeaks(data, 0.05, 1)
	want := []int{1, 3, 5, 7}
	if len(got) != len(want) {
		t.Fatalf("FindPeaks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FindPeaks = %v, want %v", got, want)
		}
	}

	// 3 is too close to 1, and 7 replaces 5
	spaced := FindPeaks(data, 0.05, 3)
	if len(spaced) != 2 || spaced[0] != 1 || spaced[1] != 7 {
		t.Errorf("FindPeaks with spacing = %v", spaced)
	}
}

func TestParabolicOffset(t *testing.T) {
	// samples of -(x-0.25)^2 at x = -1, 0, 1
	data := []float64{-1.5625, -0.0625, -0.5625}
	if off := ParabolicOffset(data, 1); !almostEqual(off, 0.25, 1e-12) {
		t.Errorf("offset = %v, want 0.25", off)
	}
	if off := ParabolicOffset(data, 0); off != 0 {
		t.Errorf("edge offset = %v, want 0", off)
	}
}

func TestInterpolateAt(t *testing.T) {
	data := []float64{0, 10, 20}
	if v := InterpolateAt(data, 1.5); v != 15 {
		t.Errorf("InterpolateAt(1.5) = %v", v)
	}
	if v := InterpolateAt(data, 5); v != 20 {
		t.Errorf("InterpolateAt past end = %v", v)
	}
}
