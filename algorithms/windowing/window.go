package windowing

import (
	"fmt"
	"strings"

	"github.com/mjibson/go-dsp/window"
)

// Type names a supported window shape
type Type string

const (
	TypeHann        Type = "hann"
	TypeHamming     Type = "hamming"
	TypeBlackman    Type = "blackman"
	TypeRectangular Type = "rectangular"
)

// ParseType accepts the names used in configuration files
func ParseType(name string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(name))); t {
	case TypeHann, TypeHamming, TypeBlackman, TypeRectangular:
		return t, nil
	case "":
		return TypeHann, nil
	default:
		return "", fmt.Errorf("unknown window type %q", name)
	}
}

// Window holds precomputed coefficients for one frame size.
// Coefficients come from go-dsp and are symmetric.
type Window struct {
	kind         Type
	size         int
	coefficients []float64
}

// New creates a window of the given type and size
func New(kind Type, size int) (*Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	var gen func(int) []float64
	switch kind {
	case TypeHann:
		gen = window.Hann
	case TypeHamming:
		gen = window.Hamming
	case TypeBlackman:
		gen = window.Blackman
	case TypeRectangular:
		gen = window.Rectangular
	default:
		return nil, fmt.Errorf("unknown window type %q", kind)
	}

	return &Window{kind: kind, size: size, coefficients: gen(size)}, nil
}

// NewHann creates a Hann window
func NewHann(size int) *Window {
	w, err := New(TypeHann, size)
	if err != nil {
		// only reachable with size <= 0
		return &Window{kind: TypeHann}
	}
	return w
}

// ApplyInPlace applies the window to a signal in-place
func (w *Window) ApplyInPlace(signal []float64) error {
	if len(signal) != w.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), w.size)
	}

	for i := range signal {
		signal[i] *= w.coefficients[i]
	}

	return nil
}

// Coefficients returns a copy of the window coefficients
func (w *Window) Coefficients() []float64 {
	coeffs := make([]float64, len(w.coefficients))
	copy(coeffs, w.coefficients)
	return coeffs
}

// Size returns the window size
func (w *Window) Size() int {
	return w.size
}

// Type returns the window type
func (w *Window) Type() Type {
	return w.kind
}
