package utils

import "gonum.org/v1/gonum/floats"

// CosineSimilarity returns the cosine of the angle between a and b.
// Vectors of different length, empty vectors and zero vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

// RunningMean folds v into centroid c, which currently averages n vectors.
// The result is a new slice; c is not modified.
func RunningMean(c, v []float64, n int) []float64 {
	if n <= 0 || len(c) != len(v) {
		out := make([]float64, len(v))
		copy(out, v)
		return out
	}
	out := make([]float64, len(c))
	floats.SubTo(out, v, c)
	floats.Scale(1/float64(n+1), out)
	floats.Add(out, c)
	return out
}

// Normalize scales v to unit length in place. Zero vectors are left as is.
func Normalize(v []float64) {
	if n := floats.Norm(v, 2); n > 0 {
		floats.Scale(1/n, v)
	}
}
