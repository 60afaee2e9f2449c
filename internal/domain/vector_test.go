package domain

import (
	"math"
	"testing"
)

func TestCosineSimilarity_Identity(t *testing.T) {
	t.Parallel()

	a := []float32{0.3, -1.2, 4.5, 0.01}
	got := CosineSimilarity(a, a)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("sim(a,a) = %v, want 1.0", got)
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	t.Parallel()

	a := []float32{1, 2, 3}
	b := []float32{-4, 0.5, 2}

	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Errorf("sim(a,b) != sim(b,a)")
	}
}

func TestCosineSimilarity_Bounded(t *testing.T) {
	t.Parallel()

	vectors := [][]float32{
		{1, 0, 0},
		{-1, 0, 0},
		{0.5, 0.5, 0.5},
		{100, -200, 300},
		{0.001, 0.002, -0.003},
	}

	for i, a := range vectors {
		for j, b := range vectors {
			got := CosineSimilarity(a, b)
			if got < -1.0-1e-9 || got > 1.0+1e-9 {
				t.Errorf("sim(vectors[%d], vectors[%d]) = %v, out of [-1,1]", i, j, got)
			}
		}
	}
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	t.Parallel()

	got := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if math.Abs(got) > 1e-9 {
		t.Errorf("sim of orthogonal vectors = %v, want 0", got)
	}
}

func TestCosineSimilarity_Opposite(t *testing.T) {
	t.Parallel()

	got := CosineSimilarity([]float32{2, 2}, []float32{-2, -2})
	if math.Abs(got-(-1.0)) > 1e-9 {
		t.Errorf("sim of opposite vectors = %v, want -1.0", got)
	}
}

func TestCosineSimilarity_Degenerate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float32
	}{
		{"zero norm left", []float32{0, 0, 0}, []float32{1, 2, 3}},
		{"zero norm right", []float32{1, 2, 3}, []float32{0, 0, 0}},
		{"both zero", []float32{0, 0}, []float32{0, 0}},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}},
		{"both empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CosineSimilarity(tt.a, tt.b); got != 0.0 {
				t.Errorf("CosineSimilarity = %v, want 0.0", got)
			}
		})
	}
}
