package temporal

import (
	"fmt"
	"math"
	"sort"

	"github.com/RyanBlaney/sonido-pulso/algorithms/common"
	"github.com/RyanBlaney/sonido-pulso/algorithms/filters"
	"github.com/RyanBlaney/sonido-pulso/algorithms/spectral"
	"github.com/RyanBlaney/sonido-pulso/algorithms/stats"
	"github.com/RyanBlaney/sonido-pulso/algorithms/windowing"
	"github.com/RyanBlaney/sonido-pulso/logging"
)

// PeriodicityParams configures the dual-resolution periodicity search
type PeriodicityParams struct {
	FineWindow     int     `json:"fine_window" toml:"fine_window"`
	FineHop        int     `json:"fine_hop" toml:"fine_hop"`
	CoarseWindow   int     `json:"coarse_window" toml:"coarse_window"`
	CoarseHop      int     `json:"coarse_hop" toml:"coarse_hop"`
	MinBPM         float64 `json:"min_bpm" toml:"min_bpm"`
	MaxBPM         float64 `json:"max_bpm" toml:"max_bpm"`
	MinPeakHeight  float64 `json:"min_peak_height" toml:"min_peak_height"`
	RangeTolerance float64 `json:"range_tolerance" toml:"range_tolerance"` // fraction each BPM bound widens by for refined lags
	MaxMultiple    int     `json:"max_multiple" toml:"max_multiple"`       // highest lag multiple used to refine a peak
}

// DefaultPeriodicityParams returns 4096/1024 and 8192/2048 resolutions
// searched over 70-170 BPM
func DefaultPeriodicityParams() PeriodicityParams {
	return PeriodicityParams{
		FineWindow:     4096,
		FineHop:        1024,
		CoarseWindow:   8192,
		CoarseHop:      2048,
		MinBPM:         70,
		MaxBPM:         170,
		MinPeakHeight:  0.05,
		RangeTolerance: 0.03,
		MaxMultiple:    4,
	}
}

// TempoCandidate is one autocorrelation peak expressed as a tempo
type TempoCandidate struct {
	BPM      float64 `json:"bpm"`
	Strength float64 `json:"strength"` // autocorrelation at the peak, lag 0 = 1
	Lag      float64 `json:"lag"`      // refined lag in fine-hop frames
}

// TempoEstimation finds periodicities in the spectral energy of a signal.
// Each resolution yields an onset curve (summed magnitude per frame,
// Savitzky-Golay smoothed) whose autocorrelation is computed; the coarse
// autocorrelation is resampled onto the fine lag grid before the two are
// averaged, so both describe the same lag in seconds.
type TempoEstimation struct {
	params    PeriodicityParams
	stft      *spectral.STFT
	smoother  *filters.SavitzkyGolay
	autocorr  *stats.AutoCorrelation
	fineWin   *windowing.Window
	coarseWin *windowing.Window
	logger    logging.Logger
}

// NewTempoEstimation creates a new tempo estimator
func NewTempoEstimation(params PeriodicityParams) (*TempoEstimation, error) {
	if params.FineHop <= 0 || params.CoarseHop <= 0 || params.FineWindow <= 0 || params.CoarseWindow <= 0 {
		return nil, fmt.Errorf("invalid periodicity resolutions: %+v", params)
	}
	if params.MinBPM <= 0 || params.MaxBPM <= params.MinBPM {
		return nil, fmt.Errorf("invalid BPM search range [%g, %g]", params.MinBPM, params.MaxBPM)
	}
	if params.RangeTolerance < 0 || params.RangeTolerance >= 1 {
		return nil, fmt.Errorf("invalid BPM range tolerance %g", params.RangeTolerance)
	}

	fineWin, err := windowing.New(windowing.TypeHann, params.FineWindow)
	if err != nil {
		return nil, err
	}
	coarseWin, err := windowing.New(windowing.TypeHann, params.CoarseWindow)
	if err != nil {
		return nil, err
	}

	return &TempoEstimation{
		params:    params,
		stft:      spectral.NewSTFT(),
		smoother:  filters.NewSavitzkyGolay(),
		autocorr:  stats.NewAutoCorrelation(),
		fineWin:   fineWin,
		coarseWin: coarseWin,
		logger:    logging.WithFields(logging.Fields{"component": "tempo_estimation"}),
	}, nil
}

// OnsetCurve returns the smoothed, mean-centered spectral energy curve for
// one resolution
func (te *TempoEstimation) OnsetCurve(signal []float64, sampleRate, windowSize, hopSize int, window spectral.Window) ([]float64, error) {
	res, err := te.stft.Compute(signal, windowSize, hopSize, sampleRate, window)
	if err != nil {
		return nil, fmt.Errorf("failed to compute %d-point spectrogram: %w", windowSize, err)
	}

	curve := make([]float64, res.TimeFrames)
	for t, frame := range res.Magnitude {
		sum := 0.0
		for _, m := range frame {
			sum += m
		}
		curve[t] = sum
	}

	curve = te.smoother.Apply(curve)
	mean := common.Mean(curve)
	for i := range curve {
		curve[i] -= mean
	}
	return curve, nil
}

// Periodicity returns the combined normalized autocorrelation indexed by
// lag in fine-hop frames
func (te *TempoEstimation) Periodicity(signal []float64, sampleRate int) ([]float64, error) {
	fine, err := te.OnsetCurve(signal, sampleRate, te.params.FineWindow, te.params.FineHop, te.fineWin)
	if err != nil {
		return nil, err
	}
	coarse, err := te.OnsetCurve(signal, sampleRate, te.params.CoarseWindow, te.params.CoarseHop, te.coarseWin)
	if err != nil {
		return nil, err
	}

	acFine := te.autocorr.Compute(fine)
	acCoarse := te.autocorr.Compute(coarse)

	// fine lag k covers k*fineHop samples, which is k*ratio coarse frames
	ratio := float64(te.params.FineHop) / float64(te.params.CoarseHop)
	length := len(acFine)
	if len(acCoarse) > 0 {
		length = min(length, int(float64(len(acCoarse)-1)/ratio)+1)
	} else {
		length = 0
	}

	// The coarse curve is resampled by interpolation rather than truncated
	// to its own lag count, so every fine lag gets a coarse value at the
	// same time offset.
	combined := make([]float64, length)
	for k := range combined {
		combined[k] = (acFine[k] + common.InterpolateAt(acCoarse, float64(k)*ratio)) / 2
	}
	return combined, nil
}

// Candidates returns every autocorrelation peak inside the BPM search range,
// strongest first. Peaks are searched one lag beyond each end of the range
// and kept when their refined BPM falls inside it, widened by
// RangeTolerance. Lags are refined by parabolic interpolation and the peaks
// at their multiples; BPM is rounded to 0.1.
func (te *TempoEstimation) Candidates(signal []float64, sampleRate int) ([]TempoCandidate, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	ac, err := te.Periodicity(signal, sampleRate)
	if err != nil {
		return nil, err
	}

	hop := float64(te.params.FineHop)
	sr := float64(sampleRate)
	minLag := max(1, int(math.Ceil(60*sr/(te.params.MaxBPM*hop)))-1)
	maxLag := min(len(ac)-2, int(math.Floor(60*sr/(te.params.MinBPM*hop)))+1)
	lowBPM := te.params.MinBPM * (1 - te.params.RangeTolerance)
	highBPM := te.params.MaxBPM * (1 + te.params.RangeTolerance)

	candidates := []TempoCandidate{}
	for k := minLag; k <= maxLag; k++ {
		if !te.isPeak(ac, k) {
			continue
		}
		lag := te.refineLag(ac, k)
		bpm := math.Round(600*sr/(lag*hop)) / 10
		if bpm < lowBPM || bpm > highBPM {
			continue
		}
		candidates = append(candidates, TempoCandidate{
			BPM:      bpm,
			Strength: ac[k],
			Lag:      lag,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Strength > candidates[j].Strength
	})

	te.logger.Debug("Periodicity peaks", logging.Fields{
		"candidates": len(candidates),
		"lag_range":  fmt.Sprintf("%d-%d", minLag, maxLag),
	})

	return candidates, nil
}

func (te *TempoEstimation) isPeak(ac []float64, k int) bool {
	return k >= 1 && k < len(ac)-1 &&
		ac[k] > ac[k-1] && ac[k] >= ac[k+1] && ac[k] >= te.params.MinPeakHeight
}

// refineLag interpolates the peak at k, then folds in the peaks found near
// its integer multiples: the summed lags divided by the summed multiples.
// Refinement stops at the first multiple without a peak.
func (te *TempoEstimation) refineLag(ac []float64, k int) float64 {
	lag := float64(k) + common.ParabolicOffset(ac, k)
	sum, weight := lag, 1.0
	for m := 2; m <= te.params.MaxMultiple; m++ {
		center := int(math.Round(lag * float64(m)))
		best := -1
		for j := center - 1; j <= center+1; j++ {
			if !te.isPeak(ac, j) {
				continue
			}
			if best < 0 || ac[j] > ac[best] {
				best = j
			}
		}
		if best < 0 {
			break
		}
		sum += float64(best) + common.ParabolicOffset(ac, best)
		weight += float64(m)
	}
	return sum / weight
}
