package spectral

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-pulso/algorithms/windowing"
)

const testRate = 22050

func sine(freq float64, seconds float64) []float64 {
	n := int(seconds * testRate)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / testRate)
	}
	return out
}

func argmax(x []float64) int {
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	return best
}

func TestSTFTSinePeak(t *testing.T) {
	freq := 100 * float64(testRate) / 2048
	res, err := NewSTFT().Compute(sine(freq, 1), 2048, 512, testRate, windowing.NewHann(2048))
	if err != nil {
		t.Fatal(err)
	}
	if res.FreqBins != 1025 {
		t.Errorf("FreqBins = %d", res.FreqBins)
	}
	wantFrames := (testRate-2048)/512 + 1
	if res.TimeFrames != wantFrames || len(res.Magnitude) != wantFrames {
		t.Fatalf("frames = %d, want %d", res.TimeFrames, wantFrames)
	}
	for i, frame := range res.Magnitude {
		if k := argmax(frame); k != 100 {
			t.Fatalf("frame %d peak bin = %d, want 100", i, k)
		}
	}
}

func TestSTFTShortSignalIsPadded(t *testing.T) {
	res, err := NewSTFT().Compute(make([]float64, 100), 2048, 512, testRate, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.TimeFrames != 1 {
		t.Errorf("TimeFrames = %d, want 1", res.TimeFrames)
	}

	if _, err := NewSTFT().Compute(nil, 2048, 512, testRate, nil); err == nil {
		t.Error("expected error for empty signal")
	}
}

func TestCentroidAndRolloffOfSingleBin(t *testing.T) {
	spectrum := make([]float64, 1025)
	spectrum[100] = 1
	want := 100 * float64(testRate) / 2048

	if c := NewSpectralCentroid(testRate).Compute(spectrum); math.Abs(c-want) > 1e-9 {
		t.Errorf("centroid = %v, want %v", c, want)
	}
	if r := NewSpectralRolloff(testRate, 0.85).Compute(spectrum); math.Abs(r-want) > 1e-9 {
		t.Errorf("rolloff = %v, want %v", r, want)
	}
	if b := NewSpectralBandwidth(testRate).Compute(spectrum); b != 0 {
		t.Errorf("bandwidth = %v, want 0", b)
	}
	if c := NewSpectralCentroid(testRate).Compute(make([]float64, 1025)); c != 0 {
		t.Errorf("silent centroid = %v", c)
	}
}

func TestFlatness(t *testing.T) {
	flat := make([]float64, 64)
	for i := range flat {
		flat[i] = 1
	}
	if f := NewSpectralFlatness().Compute(flat); math.Abs(f-1) > 1e-12 {
		t.Errorf("flat spectrum flatness = %v", f)
	}

	tonal := make([]float64, 64)
	tonal[10] = 1
	if f := NewSpectralFlatness().Compute(tonal); f > 0.01 {
		t.Errorf("tonal flatness = %v", f)
	}
}

func TestZeroCrossingRate(t *testing.T) {
	alt := []float64{1, -1, 1, -1, 1}
	if z := NewZeroCrossingRate(4, 2).Compute(alt); z != 1 {
		t.Errorf("alternating ZCR = %v", z)
	}
	frames := NewZeroCrossingRate(4, 2).ComputeFrames([]float64{1, 1, 1, 1, 1, 1, 1, 1})
	if len(frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(frames))
	}
	for _, z := range frames {
		if z != 0 {
			t.Errorf("constant ZCR = %v", z)
		}
	}
}

func TestMelFilterBankCoversSpectrum(t *testing.T) {
	bank, err := NewMelFilterBank(128, 2048, testRate, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if bank.NumFilters() != 128 {
		t.Fatalf("NumFilters = %d", bank.NumFilters())
	}
	flat := make([]float64, 1025)
	for i := range flat {
		flat[i] = 1
	}
	for m, v := range bank.Apply(flat) {
		if v <= 0 {
			t.Fatalf("mel band %d is empty", m)
		}
	}

	if _, err := NewMelFilterBank(0, 2048, testRate, 0, 0); err == nil {
		t.Error("expected error for zero filters")
	}
}

func TestMFCCShape(t *testing.T) {
	mfcc, err := NewMFCC(testRate, 2048, MFCCParams{})
	if err != nil {
		t.Fatal(err)
	}
	power := make([]float64, 1025)
	for i := range power {
		power[i] = 1
	}
	coeffs := mfcc.Compute(power)
	if len(coeffs) != 13 {
		t.Fatalf("len = %d", len(coeffs))
	}
	for i, c := range coeffs {
		if math.IsNaN(c) {
			t.Fatalf("coefficient %d is NaN", i)
		}
	}

	if _, err := NewMFCC(testRate, 2048, MFCCParams{NumCoefficients: 30, NumMelFilters: 20}); err == nil {
		t.Error("expected error when coefficients exceed filters")
	}
}

func TestSpectralFluxAndNormalize(t *testing.T) {
	frames := [][]float64{{0, 0}, {2, 0}, {1, 4}}
	flux := NewSpectralFlux().Compute(frames)
	want := []float64{0, 1, 2}
	for i := range want {
		if flux[i] != want[i] {
			t.Fatalf("flux = %v, want %v", flux, want)
		}
	}
	norm := NormalizePeak(flux)
	if norm[2] != 1 || norm[1] != 0.5 {
		t.Errorf("normalized = %v", norm)
	}
	if z := NormalizePeak([]float64{0, 0}); z[0] != 0 || z[1] != 0 {
		t.Errorf("zero curve = %v", z)
	}
}

func TestToDecibelsClamp(t *testing.T) {
	db := NewPowerSpectrum().ToDecibels([][]float64{{1, 1e-12}}, 80)
	if db[0][0] != 0 {
		t.Errorf("peak dB = %v", db[0][0])
	}
	if db[0][1] != -80 {
		t.Errorf("clamped dB = %v, want -80", db[0][1])
	}
}
