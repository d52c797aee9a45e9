package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// PearsonCorrelation returns the linear correlation of x and y.
// Mismatched lengths, fewer than two samples, or a zero-variance side
// resolve to 0 instead of NaN, so callers ranking candidates always get a
// comparable number.
func PearsonCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0.0
	}

	if isConstant(x) || isConstant(y) {
		return 0.0
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0.0
	}

	return clampCorrelation(r)
}

func isConstant(x []float64) bool {
	for _, v := range x[1:] {
		if math.Abs(v-x[0]) > 1e-12 {
			return false
		}
	}
	return true
}

func clampCorrelation(correlation float64) float64 {
	if correlation > 1.0 {
		return 1.0
	}
	if correlation < -1.0 {
		return -1.0
	}
	return correlation
}
