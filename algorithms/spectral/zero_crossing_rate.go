package spectral

// ZeroCrossingRate counts sign changes per sample over framed audio
type ZeroCrossingRate struct {
	frameSize int
	hopSize   int
}

// NewZeroCrossingRate creates a calculator framed like the spectrogram it
// accompanies
func NewZeroCrossingRate(frameSize, hopSize int) *ZeroCrossingRate {
	return &ZeroCrossingRate{
		frameSize: frameSize,
		hopSize:   hopSize,
	}
}

// Compute returns the fraction of adjacent sample pairs that change sign
func (zcr *ZeroCrossingRate) Compute(frame []float64) float64 {
	if len(frame) < 2 {
		return 0.0
	}

	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			crossings++
		}
	}

	return float64(crossings) / float64(len(frame)-1)
}

// ComputeFrames frames the signal the same way STFT does and returns the
// per-frame rate
func (zcr *ZeroCrossingRate) ComputeFrames(signal []float64) []float64 {
	return applyFrames(signal, zcr.frameSize, zcr.hopSize, zcr.Compute)
}

// applyFrames runs fn over frames laid out exactly as STFT.Compute lays them
// out: at least one frame, hop-spaced, the last partial frame truncated.
func applyFrames(signal []float64, frameSize, hopSize int, fn func([]float64) float64) []float64 {
	if len(signal) == 0 || frameSize <= 0 || hopSize <= 0 {
		return []float64{}
	}

	numFrames := 1
	if len(signal) > frameSize {
		numFrames = (len(signal)-frameSize)/hopSize + 1
	}

	values := make([]float64, numFrames)
	for t := range numFrames {
		start := t * hopSize
		end := min(start+frameSize, len(signal))
		values[t] = fn(signal[start:end])
	}
	return values
}
