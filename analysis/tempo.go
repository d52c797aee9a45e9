package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-pulso/algorithms/common"
	"github.com/RyanBlaney/sonido-pulso/algorithms/temporal"
	"github.com/RyanBlaney/sonido-pulso/analysis/config"
	"github.com/RyanBlaney/sonido-pulso/logging"
)

// ScoredTempo is a periodicity peak with its selection score
type ScoredTempo struct {
	BPM      float64 `json:"bpm"`
	Strength float64 `json:"strength"`
	Score    float64 `json:"score"`
}

// TempoEstimate is the detected tempo. Strength is the normalized
// autocorrelation of the chosen peak and doubles as beat strength.
type TempoEstimate struct {
	BPM        float64       `json:"bpm"`
	Strength   float64       `json:"strength"`
	Failed     bool          `json:"failed,omitempty"` // no peak in range, BPM is the fallback
	Candidates []ScoredTempo `json:"candidates,omitempty"`
}

// TempoDetector estimates BPM from dual-resolution autocorrelation
type TempoDetector struct {
	cfg        config.TempoConfig
	estimation *temporal.TempoEstimation
	logger     logging.Logger
}

// NewTempoDetector creates a tempo detector
func NewTempoDetector(cfg config.TempoConfig) (*TempoDetector, error) {
	estimation, err := temporal.NewTempoEstimation(cfg.Periodicity)
	if err != nil {
		return nil, fmt.Errorf("failed to create tempo estimation: %w", err)
	}
	return &TempoDetector{
		cfg:        cfg,
		estimation: estimation,
		logger:     logging.WithFields(logging.Fields{"component": "tempo_detector"}),
	}, nil
}

// Detect estimates the tempo of one window. A window without usable
// periodicity yields the flagged fallback estimate, not an error.
func (td *TempoDetector) Detect(ctx context.Context, w *Waveform) (*TempoEstimate, error) {
	if w == nil || w.Len() == 0 {
		return nil, ErrEmptyWaveform
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates, err := td.estimation.Candidates(w.Samples(), w.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to find tempo candidates: %w", err)
	}

	estimate := SelectTempo(candidates, td.cfg)
	if estimate.Failed {
		td.logger.Warn("No tempo peak in range, using fallback", logging.Fields{
			"offset":       w.Offset,
			"fallback_bpm": estimate.BPM,
		})
	} else {
		td.logger.Debug("Detected tempo", logging.Fields{
			"bpm":        estimate.BPM,
			"strength":   estimate.Strength,
			"candidates": len(candidates),
		})
	}
	return &estimate, nil
}

// SelectTempo picks one tempo from candidates ordered strongest first.
// A peak that clearly dominates the runner-up and lies in the accepted
// range wins outright; otherwise every peak is scored on strength, BPM
// range and agreement with the other peaks.
func SelectTempo(candidates []temporal.TempoCandidate, cfg config.TempoConfig) TempoEstimate {
	if len(candidates) == 0 {
		return TempoEstimate{BPM: cfg.FallbackBPM, Strength: 0, Failed: true}
	}

	scored := make([]ScoredTempo, len(candidates))
	for i, c := range candidates {
		scored[i] = ScoredTempo{
			BPM:      c.BPM,
			Strength: common.Clip01(c.Strength),
			Score:    candidateScore(candidates, i, cfg),
		}
	}

	top := candidates[0]
	second := 0.0
	if len(candidates) > 1 {
		second = candidates[1].Strength
	}
	if top.Strength >= cfg.DominanceRatio*second && cfg.Accepted.Contains(top.BPM) {
		return TempoEstimate{BPM: top.BPM, Strength: scored[0].Strength, Candidates: scored}
	}

	best := 0
	for i := 1; i < len(scored); i++ {
		if scored[i].Score > scored[best].Score {
			best = i
		}
	}
	return TempoEstimate{BPM: scored[best].BPM, Strength: scored[best].Strength, Candidates: scored}
}

// candidateScore is strength plus range bonus, minus the out-of-range
// penalty, plus bonuses for agreeing peaks
func candidateScore(candidates []temporal.TempoCandidate, i int, cfg config.TempoConfig) float64 {
	c := candidates[i]
	score := cfg.StrengthWeight*c.Strength + rangeBonus(c.BPM, cfg)
	if !cfg.Penalized.Contains(c.BPM) {
		score -= cfg.RangePenalty
	}

	peers := 0
	for j, other := range candidates {
		if j == i {
			continue
		}
		if peers >= cfg.HarmonicPeers {
			break
		}
		peers++
		score += harmonicBonus(other.BPM/c.BPM, cfg)
	}
	return score
}

// rangeBonus returns the bonus of the first band containing bpm
func rangeBonus(bpm float64, cfg config.TempoConfig) float64 {
	for _, band := range cfg.RangeBonuses {
		if bpm >= band.Min && bpm <= band.Max {
			return band.Bonus
		}
	}
	if cfg.Accepted.Contains(bpm) {
		return cfg.DefaultRangeBonus
	}
	return 0
}

// harmonicBonus rewards a peer at the same tempo, double or half of it,
// or in a 3:2 relation
func harmonicBonus(ratio float64, cfg config.TempoConfig) float64 {
	near := func(target float64) bool {
		return math.Abs(ratio-target) <= cfg.RatioTolerance*target
	}
	switch {
	case near(1):
		return cfg.SameTempoBonus
	case near(2), near(0.5):
		return cfg.DoubleTempoBonus
	case near(1.5), near(2.0/3.0):
		return cfg.ThreeTwoTempoBonus
	}
	return 0
}
