package chroma

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-pulso/algorithms/spectral"
	"github.com/RyanBlaney/sonido-pulso/algorithms/windowing"
)

func TestFromSTFTFoldsOctaves(t *testing.T) {
	const sr = 22050
	signal := make([]float64, sr)
	// A3, A4 and A5 all land on pitch class A
	for _, f := range []float64{220, 440, 880} {
		for i := range signal {
			signal[i] += math.Sin(2 * math.Pi * f * float64(i) / sr)
		}
	}

	res, err := spectral.NewSTFT().Compute(signal, 4096, 1024, sr, windowing.NewHann(4096))
	if err != nil {
		t.Fatal(err)
	}

	chromagram := NewChromaSTFTDefault().FromSTFT(res)
	if len(chromagram) != res.TimeFrames {
		t.Fatalf("frames = %d, want %d", len(chromagram), res.TimeFrames)
	}

	profile := Profile(chromagram)
	best := 0
	for i, v := range profile {
		if v > profile[best] {
			best = i
		}
	}
	if PitchClassNames[best] != "A" {
		t.Errorf("dominant pitch class = %s, want A", PitchClassNames[best])
	}

	sum := 0.0
	for _, v := range chromagram[0] {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("frame sum = %v, want 1", sum)
	}
}

func TestTonnetzSinglePitchClass(t *testing.T) {
	tz := NewTonnetz()

	c := make([]float64, 12)
	c[0] = 1
	got := tz.Compute(c)
	want := []float64{0, 1, 0, 1, 0, 0.5}
	for d := range want {
		if math.Abs(got[d]-want[d]) > 1e-12 {
			t.Fatalf("tonnetz(C) = %v, want %v", got, want)
		}
	}

	// scaling the chroma does not move the point
	c[0] = 7
	scaled := tz.Compute(c)
	for d := range want {
		if math.Abs(scaled[d]-want[d]) > 1e-12 {
			t.Fatalf("tonnetz(7*C) = %v", scaled)
		}
	}
}

func TestTonnetzSilenceIsOrigin(t *testing.T) {
	for d, v := range NewTonnetz().Compute(make([]float64, 12)) {
		if v != 0 {
			t.Errorf("dim %d = %v, want 0", d, v)
		}
	}
}
