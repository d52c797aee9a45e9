package filters

import (
	"fmt"
)

// SavitzkyGolay smooths a sequence by fitting a low-order polynomial over a
// sliding window and evaluating it at each point. Narrow peaks keep their
// height and position.
//
// The filter is implemented for a 5-point window and a quadratic fit, the
// configuration used by the tempo detector. For a quadratic fit over
// x in {-2..2} the least-squares weight of sample j when evaluating at x0 is
//
//	w(x0, j) = 1/5 + x0*j/10 + (x0^2-2)(j^2-2)/14
//
// Interior points use x0=0, giving the classic (-3, 12, 17, 12, -3)/35
// kernel. The first and last two points are evaluated from the polynomial
// fitted to the first or last five samples, so no padding is invented.
//
// References:
//   - A. Savitzky, M.J.E. Golay, "Smoothing and Differentiation of Data by
//     Simplified Least Squares Procedures", Analytical Chemistry 36(8), 1964
type SavitzkyGolay struct {
	windowSize int
	weights    [5][5]float64 // weights[x0+2][j+2]
}

// NewSavitzkyGolay creates the 5-point quadratic smoother
func NewSavitzkyGolay() *SavitzkyGolay {
	sg := &SavitzkyGolay{windowSize: 5}
	for x0 := -2; x0 <= 2; x0++ {
		for j := -2; j <= 2; j++ {
			fx0, fj := float64(x0), float64(j)
			sg.weights[x0+2][j+2] = 1.0/5.0 + fx0*fj/10.0 + (fx0*fx0-2)*(fj*fj-2)/14.0
		}
	}
	return sg
}

// Apply returns the smoothed sequence. Inputs shorter than the window are
// returned unchanged.
func (sg *SavitzkyGolay) Apply(data []float64) []float64 {
	out := make([]float64, len(data))
	n := len(data)
	if n < sg.windowSize {
		copy(out, data)
		return out
	}

	for i := range n {
		center := min(max(i, 2), n-3)
		x0 := i - center
		sum := 0.0
		for j := -2; j <= 2; j++ {
			sum += sg.weights[x0+2][j+2] * data[center+j]
		}
		out[i] = sum
	}

	return out
}

// kernel returns the weights applied around sample x0 (-2..2) of the window
func (sg *SavitzkyGolay) kernel(x0 int) ([]float64, error) {
	if x0 < -2 || x0 > 2 {
		return nil, fmt.Errorf("evaluation point %d outside window", x0)
	}
	k := make([]float64, 5)
	copy(k, sg.weights[x0+2][:])
	return k, nil
}
