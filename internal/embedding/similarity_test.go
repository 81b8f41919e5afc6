package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine_Identical(t *testing.T) {
	v := []float32{0.5, 0.5, 0.7}
	assert.InDelta(t, 1.0, Cosine(v, v), 1e-9)
}

func TestCosine_Orthogonal(t *testing.T) {
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
}

func TestCosine_Opposite(t *testing.T) {
	assert.InDelta(t, -1.0, Cosine([]float32{1, 2}, []float32{-1, -2}), 1e-9)
}

func TestCosine_Degenerate(t *testing.T) {
	assert.Zero(t, Cosine(nil, []float32{1}), "empty a")
	assert.Zero(t, Cosine([]float32{1}, nil), "empty b")
	assert.Zero(t, Cosine([]float32{1, 2}, []float32{1}), "mismatched lengths")
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}), "zero magnitude")
}

func TestCosine_ScaleInvariant(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{2, 4, 6}
	assert.InDelta(t, 1.0, Cosine(a, b), 1e-9)
}
