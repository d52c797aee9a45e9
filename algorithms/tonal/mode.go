package tonal

import (
	"math"

	"github.com/RyanBlaney/sonido-pulso/algorithms/common"
)

// Mode is the harmonic leaning read from the Tonnetz
type Mode string

const (
	ModeMajor     Mode = "major"
	ModeMinor     Mode = "minor"
	ModeAmbiguous Mode = "ambiguous"
)

// ModeParams weights the Tonnetz mode confidence
type ModeParams struct {
	StabilityWeight float64 `json:"stability_weight" toml:"stability_weight"`
	ClarityWeight   float64 `json:"clarity_weight" toml:"clarity_weight"`
	MinConfidence   float64 `json:"min_confidence" toml:"min_confidence"`
	TieTolerance    float64 `json:"tie_tolerance" toml:"tie_tolerance"`
}

// DefaultModeParams returns 0.6 stability, 0.4 clarity, floor 0.3
func DefaultModeParams() ModeParams {
	return ModeParams{
		StabilityWeight: 0.6,
		ClarityWeight:   0.4,
		MinConfidence:   0.3,
		TieTolerance:    1e-9,
	}
}

// TonnetzMode compares the summed sine dimensions (0, 2, 4) against the
// cosine dimensions (1, 3, 5) of a mean Tonnetz vector. The first sum
// reads as major-leaning, the second as minor-leaning.
func TonnetzMode(meanVector []float64, params ModeParams) Mode {
	if len(meanVector) < 6 {
		return ModeAmbiguous
	}
	majorWeight := meanVector[0] + meanVector[2] + meanVector[4]
	minorWeight := meanVector[1] + meanVector[3] + meanVector[5]

	switch {
	case math.Abs(majorWeight-minorWeight) < params.TieTolerance:
		return ModeAmbiguous
	case majorWeight > minorWeight:
		return ModeMajor
	default:
		return ModeMinor
	}
}

// ModeConfidence combines how steady the Tonnetz is over time (stability)
// with how strongly its dimensions differ (clarity). overallStd and
// overallMean summarize every Tonnetz value of the window; meanVector is the
// per-dimension mean. The result is in [MinConfidence, 1].
func ModeConfidence(meanVector []float64, overallMean, overallStd float64, params ModeParams) float64 {
	stability := 1.0 / (1.0 + math.Max(overallStd, 0))

	clarity := 0.0
	if len(meanVector) > 0 {
		lo, hi := meanVector[0], meanVector[0]
		for _, v := range meanVector[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		// the mean can be negative on the Tonnetz, only its size matters
		clarity = common.Clip01((hi - lo) / (math.Abs(overallMean) + common.Epsilon) / 2)
	}

	confidence := params.StabilityWeight*stability + params.ClarityWeight*clarity
	return common.Clip01(math.Max(params.MinConfidence, confidence))
}
