package analysis

import (
	"fmt"

	"github.com/RyanBlaney/sonido-pulso/algorithms/common"
	"github.com/RyanBlaney/sonido-pulso/algorithms/tonal"
	"github.com/RyanBlaney/sonido-pulso/analysis/config"
	"github.com/RyanBlaney/sonido-pulso/logging"
)

// KeyEstimate is the detected key with the Tonnetz mode used for scoring
type KeyEstimate struct {
	Key                 string     `json:"key"` // e.g. "A minor"
	Camelot             string     `json:"camelot"`
	Mode                tonal.Mode `json:"mode"`
	ModeConfidence      float64    `json:"mode_confidence"`
	KeyMode             string     `json:"key_mode"` // mode implied by the key template
	Correlation         float64    `json:"correlation"`
	AlternateKey        string     `json:"alternate_key,omitempty"`
	AlternateCamelot    string     `json:"alternate_camelot,omitempty"`
	AlternateCompatible bool       `json:"alternate_compatible,omitempty"` // alternate mixes harmonically with Camelot
}

// KeyDetector finds the key from a chroma profile and the harmonic mode
// from the Tonnetz summary of the same window
type KeyDetector struct {
	cfg       config.KeyConfig
	estimator *tonal.KeyEstimator
	logger    logging.Logger
}

// NewKeyDetector creates a key detector
func NewKeyDetector(cfg config.KeyConfig) *KeyDetector {
	return &KeyDetector{
		cfg:       cfg,
		estimator: tonal.NewKeyEstimator(cfg.AlternateRatio),
		logger:    logging.WithFields(logging.Fields{"component": "key_detector"}),
	}
}

// Detect estimates key and mode from an extracted feature set. Silent or
// flat input resolves to correlation 0 rather than failing.
func (kd *KeyDetector) Detect(features *SpectralFeatureSet) (*KeyEstimate, error) {
	if features == nil {
		return nil, ErrEmptyWaveform
	}

	result, err := kd.estimator.Estimate(features.ChromaProfile)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate key: %w", err)
	}

	tonnetz := features.Tonnetz
	estimate := &KeyEstimate{
		Key:            result.Best.Name,
		Camelot:        result.Best.Camelot,
		Mode:           tonal.TonnetzMode(tonnetz.Mean, kd.cfg.Mode),
		ModeConfidence: common.Clip01(tonal.ModeConfidence(tonnetz.Mean, tonnetz.OverallMean, tonnetz.OverallStd, kd.cfg.Mode)),
		KeyMode:        result.Best.Mode.String(),
		Correlation:    result.Best.Correlation,
	}
	if result.Alternate != nil {
		estimate.AlternateKey = result.Alternate.Name
		estimate.AlternateCamelot = result.Alternate.Camelot
		estimate.AlternateCompatible = tonal.CamelotCompatible(estimate.Camelot, estimate.AlternateCamelot)
	}

	kd.logger.Debug("Detected key", logging.Fields{
		"key":             estimate.Key,
		"camelot":         estimate.Camelot,
		"mode":            estimate.Mode,
		"mode_confidence": estimate.ModeConfidence,
		"alternate":       estimate.AlternateKey,
		"compatible":      estimate.AlternateCompatible,
	})

	return estimate, nil
}
