package common

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Epsilon guards divisions against zero denominators
const Epsilon = 1e-10

// Basic statistical functions used across algorithms using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// Variance calculates the population variance of a slice.
// Frame statistics describe the whole window, not a sample of it.
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	_, v := stat.PopMeanVariance(data, nil)
	return v
}

// StandardDeviation calculates the population standard deviation
func StandardDeviation(data []float64) float64 {
	return math.Sqrt(Variance(data))
}

// CoefficientOfVariation returns std/mean, or ok=false when the mean is
// too small for the ratio to mean anything.
func CoefficientOfVariation(data []float64) (cv float64, ok bool) {
	if len(data) < 2 {
		return 0, false
	}
	mean := Mean(data)
	if math.Abs(mean) < Epsilon {
		return 0, false
	}
	return StandardDeviation(data) / mean, true
}

// Percentile calculates the p-th percentile (p between 0 and 1) as the
// empirical quantile: the smallest value whose cumulative share reaches p.
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 || p < 0 || p > 1 {
		return 0.0
	}

	sorted := slices.Clone(data)
	slices.Sort(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Median is the 50th percentile
func Median(data []float64) float64 {
	return Percentile(data, 0.5)
}

// Summary holds the seven-number description of a scalar series
type Summary struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// Summarize computes Summary in a single sort. Empty input gives zeros.
func Summarize(data []float64) Summary {
	if len(data) == 0 {
		return Summary{}
	}
	sorted := slices.Clone(data)
	slices.Sort(sorted)
	return Summary{
		Mean:   Mean(data),
		Std:    StandardDeviation(data),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		P25:    stat.Quantile(0.25, stat.Empirical, sorted, nil),
		P75:    stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Sqrt(floats.Dot(data, data) / float64(len(data)))
}

// PeakAbs returns the largest absolute sample value
func PeakAbs(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Max(floats.Max(data), -floats.Min(data))
}

// Clamp constrains a value to a range. NaN maps to min.
func Clamp(value, min, max float64) float64 {
	if math.IsNaN(value) || value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Clip01 clamps to [0, 1]
func Clip01(value float64) float64 {
	return Clamp(value, 0, 1)
}

// Rescale maps value from [lo, hi] onto [0, 1] and clips
func Rescale(value, lo, hi float64) float64 {
	if hi-lo < Epsilon {
		return 0
	}
	return Clip01((value - lo) / (hi - lo))
}

// SafeDiv returns num/den, or fallback when den is ~0 or the result is not finite
func SafeDiv(num, den, fallback float64) float64 {
	if math.Abs(den) < Epsilon {
		return fallback
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return fallback
	}
	return r
}

// FindPeaks returns indices of strict local maxima at or above minHeight.
// Peaks closer than minDistance samples keep the higher one.
func FindPeaks(data []float64, minHeight float64, minDistance int) []int {
	if len(data) < 3 {
		return []int{}
	}

	peaks := []int{}
	for i := 1; i < len(data)-1; i++ {
		if data[i] <= data[i-1] || data[i] < data[i+1] || data[i] < minHeight {
			continue
		}
		if n := len(peaks); n > 0 && i-peaks[n-1] < minDistance {
			if data[i] > data[peaks[n-1]] {
				peaks[n-1] = i
			}
			continue
		}
		peaks = append(peaks, i)
	}

	return peaks
}

// ParabolicOffset fits a parabola through (i-1, i, i+1) and returns the
// fractional offset of its vertex from i, in [-0.5, 0.5].
func ParabolicOffset(data []float64, i int) float64 {
	if i <= 0 || i >= len(data)-1 {
		return 0
	}
	a, b, c := data[i-1], data[i], data[i+1]
	den := a - 2*b + c
	if math.Abs(den) < Epsilon {
		return 0
	}
	return Clamp(0.5*(a-c)/den, -0.5, 0.5)
}

// InterpolateAt linearly interpolates data at a fractional index
func InterpolateAt(data []float64, pos float64) float64 {
	if len(data) == 0 {
		return 0
	}
	if pos <= 0 {
		return data[0]
	}
	last := float64(len(data) - 1)
	if pos >= last {
		return data[len(data)-1]
	}
	i := int(pos)
	frac := pos - float64(i)
	return data[i] + frac*(data[i+1]-data[i])
}

// NextPowerOfTwo finds the next power of 2 >= n
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
