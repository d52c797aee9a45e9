package chroma

import (
	"math"
)

// Tonnetz dimensions, in the order they are returned
const (
	FifthsSin = iota
	FifthsCos
	MinorThirdsSin
	MinorThirdsCos
	MajorThirdsSin
	MajorThirdsCos
	TonnetzDims
)

// Tonnetz projects chroma onto the circle of fifths, the circle of minor
// thirds and the circle of major thirds, giving a 6-D vector per frame.
// Major thirds use radius 0.5, the other circles radius 1.
type Tonnetz struct {
	basis [TonnetzDims][12]float64
}

// NewTonnetz creates a Tonnetz projector
func NewTonnetz() *Tonnetz {
	t := &Tonnetz{}
	circles := []struct {
		ratio  float64 // angle step per semitone in units of pi
		radius float64
	}{
		{7.0 / 6.0, 1.0},
		{3.0 / 2.0, 1.0},
		{2.0 / 3.0, 0.5},
	}
	for c, circle := range circles {
		for pc := range 12 {
			angle := math.Pi * circle.ratio * float64(pc)
			t.basis[2*c][pc] = circle.radius * math.Sin(angle)
			t.basis[2*c+1][pc] = circle.radius * math.Cos(angle)
		}
	}
	return t
}

// Compute projects one chroma frame. The frame is L1-normalized first;
// an empty frame maps to the origin.
func (t *Tonnetz) Compute(chroma []float64) []float64 {
	out := make([]float64, TonnetzDims)

	total := 0.0
	for _, v := range chroma {
		total += math.Abs(v)
	}
	if total < 1e-10 {
		return out
	}

	for d := range TonnetzDims {
		sum := 0.0
		for pc := 0; pc < 12 && pc < len(chroma); pc++ {
			sum += t.basis[d][pc] * chroma[pc]
		}
		out[d] = sum / total
	}
	return out
}

// ComputeFrames projects every frame of a chromagram
func (t *Tonnetz) ComputeFrames(chromagram [][]float64) [][]float64 {
	out := make([][]float64, len(chromagram))
	for i, frame := range chromagram {
		out[i] = t.Compute(frame)
	}
	return out
}
