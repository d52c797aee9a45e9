package tonal

import (
	"fmt"
	"sort"

	"github.com/RyanBlaney/sonido-pulso/algorithms/chroma"
	"github.com/RyanBlaney/sonido-pulso/algorithms/stats"
)

// KeyMode represents major or minor mode
type KeyMode int

const (
	KeyModeMajor KeyMode = iota
	KeyModeMinor
)

func (m KeyMode) String() string {
	if m == KeyModeMinor {
		return "minor"
	}
	return "major"
}

// Krumhansl-Kessler probe-tone ratings, tonic first
var (
	KrumhanslMajor = [12]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	KrumhanslMinor = [12]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

// KeyCandidate is one of the 24 tonic/mode hypotheses
type KeyCandidate struct {
	Tonic       int     `json:"tonic"` // 0=C ... 11=B
	Mode        KeyMode `json:"-"`
	Name        string  `json:"name"` // e.g. "C major"
	Camelot     string  `json:"camelot"`
	Correlation float64 `json:"correlation"`
}

// KeyEstimationResult holds the ranked hypotheses for one profile
type KeyEstimationResult struct {
	Best       KeyCandidate   `json:"best"`
	Alternate  *KeyCandidate  `json:"alternate,omitempty"`
	Candidates []KeyCandidate `json:"candidates"`
}

// KeyEstimator implements Krumhansl-Schmuckler key finding: the pitch-class
// profile is correlated against every rotation of the major and minor
// templates and the best of the 24 wins.
type KeyEstimator struct {
	alternateRatio float64
}

// NewKeyEstimator creates a key estimator. A runner-up is reported as the
// alternate key when its correlation reaches alternateRatio of the best.
func NewKeyEstimator(alternateRatio float64) *KeyEstimator {
	return &KeyEstimator{alternateRatio: alternateRatio}
}

// Estimate ranks all 24 keys for a 12-bin profile. Degenerate profiles
// (silence, flat chroma) correlate at 0 with everything and resolve to
// C major with correlation 0.
func (ke *KeyEstimator) Estimate(profile []float64) (*KeyEstimationResult, error) {
	if len(profile) != 12 {
		return nil, fmt.Errorf("pitch-class profile must have 12 bins, got %d", len(profile))
	}

	candidates := make([]KeyCandidate, 0, 24)
	for tonic := range 12 {
		for _, mode := range []KeyMode{KeyModeMajor, KeyModeMinor} {
			candidates = append(candidates, KeyCandidate{
				Tonic:       tonic,
				Mode:        mode,
				Name:        KeyName(tonic, mode),
				Camelot:     CamelotCode(tonic, mode),
				Correlation: stats.PearsonCorrelation(profile, rotatedTemplate(tonic, mode)),
			})
		}
	}

	// stable: equal correlations keep C-first, major-first order
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Correlation > candidates[j].Correlation
	})

	result := &KeyEstimationResult{
		Best:       candidates[0],
		Candidates: candidates,
	}

	// the runner-up is the strongest candidate that differs from the best
	if best := candidates[0].Correlation; best > 0 && candidates[1].Correlation >= ke.alternateRatio*best {
		alt := candidates[1]
		result.Alternate = &alt
	}

	return result, nil
}

// rotatedTemplate returns the template for a tonic, indexed by pitch class
func rotatedTemplate(tonic int, mode KeyMode) []float64 {
	base := KrumhanslMajor
	if mode == KeyModeMinor {
		base = KrumhanslMinor
	}
	out := make([]float64, 12)
	for pc := range 12 {
		out[pc] = base[(pc-tonic+12)%12]
	}
	return out
}

// KeyName formats a key as "NOTE MODE"
func KeyName(tonic int, mode KeyMode) string {
	return chroma.PitchClassNames[((tonic%12)+12)%12] + " " + mode.String()
}
