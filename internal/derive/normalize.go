package derive

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MaxAbs returns the largest absolute value in changes, 0 for an empty slice.
func MaxAbs(changes []int8) float64 {
	if len(changes) == 0 {
		return 0
	}
	return floats.Norm(widen(changes), math.Inf(1))
}

// Normalize rescales a sign-change channel by its own maximum magnitude so
// every value lies in [-1, 1]. A channel that never changed is returned as an
// all-zero copy; there is no division in that case.
func Normalize(changes []int8) []float64 {
	out := widen(changes)
	if len(out) == 0 {
		return out
	}
	m := floats.Norm(out, math.Inf(1))
	if m == 0 {
		return out
	}
	for i := range out {
		out[i] /= m
	}
	return out
}

func widen(changes []int8) []float64 {
	out := make([]float64, len(changes))
	for i, v := range changes {
		out[i] = float64(v)
	}
	return out
}
