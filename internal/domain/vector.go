package domain

import "math"

// CosineSimilarity returns the cosine similarity of two vectors:
// dot(a,b) / (||a|| * ||b||), computed in float64.
//
// Returns 0.0 when the vectors differ in length or either has zero norm,
// so callers never divide by zero on degenerate input.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
