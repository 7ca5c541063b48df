// Package vector scores embeddings against each other and ranks corpus records for a query.
package vector

import (
	"github.com/viterin/vek"
)

// Cosine returns dot(a,b) / (|a|*|b|) computed in float64, clamped to [-1, 1].
// Vectors of different or zero length, and vectors with zero norm, score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return cosine64(vek.FromFloat32(a), vek.FromFloat32(b), -1)
}

// cosine64 scores a against b. normA may be passed in when already known; a negative value means compute it.
func cosine64(a, b []float64, normA float64) float64 {
	if normA < 0 {
		normA = vek.Norm(a)
	}
	normB := vek.Norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	s := vek.Dot(a, b) / (normA * normB)
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return s
}

// InnerProduct returns the inner product of two vectors (for normalized vectors equals cosine similarity).
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return vek.Dot(vek.FromFloat32(a), vek.FromFloat32(b))
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	return vek.Norm(vek.FromFloat32(x))
}
