package attribution

import "math"

// SumHidden collapses a flat (seq, hidden) attribution buffer to one value
// per token.
func SumHidden(attr []float64, seq, hidden int) []float64 {
	out := make([]float64, seq)
	for i, v := range attr {
		out[i/hidden] += v
	}
	return out
}

// L2Normalize scales v to unit Euclidean norm, preserving signs. A zero
// vector comes back as zeros.
func L2Normalize(v []float64) []float64 {
	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	out := make([]float64, len(v))
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
