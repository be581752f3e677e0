package vector

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine_selfIsOne(t *testing.T) {
	vecs := []Vector{
		{1, 0, 0},
		{0.3, -0.2, 0.9},
		{1e-3, 5, -7},
	}
	for _, v := range vecs {
		got, err := Cosine(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, got, 1e-9)
	}
}

func TestCosine_symmetric(t *testing.T) {
	a := Vector{0.1, 0.7, -0.4, 2}
	b := Vector{-1, 0.25, 0.5, 0.125}
	ab, err := Cosine(a, b)
	require.NoError(t, err)
	ba, err := Cosine(b, a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}

func TestCosine_range(t *testing.T) {
	got, err := Cosine(Vector{1, 0}, Vector{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, got, 1e-12)

	got, err = Cosine(Vector{1, 0}, Vector{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got, 1e-12)
}

func TestCosine_zeroVector(t *testing.T) {
	got, err := Cosine(Vector{0, 0, 0}, Vector{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = Cosine(Vector{1, 2, 3}, Vector{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
	assert.False(t, math.IsNaN(got))
}

func TestCosine_dimensionMismatch(t *testing.T) {
	got, err := Cosine(Vector{1, 2, 3}, Vector{1, 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	assert.Equal(t, 0.0, got)

	var dm *DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Left)
	assert.Equal(t, 2, dm.Right)
}

func TestCosineScorer(t *testing.T) {
	var s Scorer = CosineScorer{}
	got, err := s.Score(Vector{2, 0}, Vector{5, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestDotAndNorm(t *testing.T) {
	dot, err := Dot(Vector{1, 2, 3}, Vector{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 32.0, dot)
	assert.InDelta(t, 5.0, Norm(Vector{3, 4}), 1e-12)

	_, err = Dot(Vector{1}, Vector{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Vector{1, 2}, Vector{1, 2}))
	assert.False(t, Equal(Vector{1, 2}, Vector{1, 3}))
	assert.False(t, Equal(Vector{1, 2}, Vector{1, 2, 0}))
	assert.True(t, Equal(nil, Vector{}))
}

func TestNormalize(t *testing.T) {
	v := Vector{3, 4}
	n := Normalize(v)
	assert.InDelta(t, 1.0, Norm(n), 1e-6)
	assert.Equal(t, Vector{3, 4}, v, "input must not be modified")
	assert.Equal(t, Vector{0, 0}, Normalize(Vector{0, 0}))
}
