package analysis

import (
	"context"
	"errors"
	"math"
	"sync/atomic"

	"github.com/RyanBlaney/sonido-pulso/analysis/config"
	"github.com/RyanBlaney/sonido-pulso/logging"
)

func init() {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
}

// memoryReader serves ranges of an in-memory recording
type memoryReader struct {
	samples    []float64
	sampleRate int
	failAfter  int64 // fail reads once this many succeeded, 0 for never
	reads      atomic.Int64
}

func (m *memoryReader) Duration(context.Context) (float64, error) {
	return float64(len(m.samples)) / float64(m.sampleRate), nil
}

func (m *memoryReader) ReadRange(ctx context.Context, start, duration float64) ([]float64, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	n := m.reads.Add(1)
	if m.failAfter > 0 && n > m.failAfter {
		return nil, 0, errors.New("disk on fire")
	}
	from := min(len(m.samples), int(math.Round(start*float64(m.sampleRate))))
	to := min(len(m.samples), from+int(math.Round(duration*float64(m.sampleRate))))
	return append([]float64(nil), m.samples[from:to]...), m.sampleRate, nil
}

// clickTrack renders decaying 1 kHz clicks at bpm, starting at 50 ms
func clickTrack(bpm float64, sampleRate int, seconds float64) []float64 {
	n := int(float64(sampleRate) * seconds)
	out := make([]float64, n)
	period := 60 / bpm
	clickLen := int(0.03 * float64(sampleRate))
	for t := 0.05; t < seconds; t += period {
		start := int(t * float64(sampleRate))
		for i := 0; i < clickLen && start+i < n; i++ {
			out[start+i] += math.Sin(2*math.Pi*1000*float64(i)/float64(sampleRate)) *
				math.Exp(-float64(i)/(0.005*float64(sampleRate)))
		}
	}
	return out
}

// chord sums equal-amplitude sines
func chord(sampleRate int, seconds float64, freqs ...float64) []float64 {
	out := make([]float64, int(float64(sampleRate)*seconds))
	for i := range out {
		t := float64(i) / float64(sampleRate)
		for _, f := range freqs {
			out[i] += math.Sin(2 * math.Pi * f * t)
		}
	}
	return out
}

func defaultConfig() *config.Config {
	cfg := config.Default()
	return &cfg
}

func inUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
