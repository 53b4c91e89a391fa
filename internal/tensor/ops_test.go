package tensor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatMul(t *testing.T) {
	a, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)
	b, err := FromSlice([]float64{7, 8, 9, 10, 11, 12}, Shape{3, 2})
	require.NoError(t, err)

	c, err := a.MatMul(b)
	require.NoError(t, err)

	assert.True(t, c.Shape().Equal(Shape{2, 2}))
	assert.Equal(t, []float64{58, 64, 139, 154}, c.Data())
}

func TestMatMul_DimMismatch(t *testing.T) {
	a := New(Shape{2, 3})
	b := New(Shape{2, 3})
	_, err := a.MatMul(b)
	assert.Error(t, err)
}

func TestTranspose2D(t *testing.T) {
	a, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)

	at, err := a.Transpose2D()
	require.NoError(t, err)

	assert.True(t, at.Shape().Equal(Shape{3, 2}))
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, at.Data())
}

func TestScale(t *testing.T) {
	a, err := FromSlice([]float64{1, -2, 3}, Shape{3})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -1, 1.5}, a.Scale(0.5).Data())
}

func TestIndex(t *testing.T) {
	// [2, 2, 3]: batch 0 is 1..6, batch 1 is 7..12.
	a, err := FromSlice([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, Shape{2, 2, 3})
	require.NoError(t, err)

	b1, err := a.Index(1)
	require.NoError(t, err)
	assert.True(t, b1.Shape().Equal(Shape{2, 3}))
	assert.Equal(t, []float64{7, 8, 9, 10, 11, 12}, b1.Data())

	_, err = a.Index(2)
	assert.Error(t, err)
}

func TestStack2D(t *testing.T) {
	m1, err := FromSlice([]float64{1, 2, 3, 4}, Shape{2, 2})
	require.NoError(t, err)
	m2, err := FromSlice([]float64{5, 6, 7, 8}, Shape{2, 2})
	require.NoError(t, err)

	s, err := Stack2D([]*Tensor{m1, m2})
	require.NoError(t, err)
	assert.True(t, s.Shape().Equal(Shape{2, 2, 2}))
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, s.Data())
}

func TestChunkConcatRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	full := Randn(Shape{2, 12, 4}, rng)

	for _, n := range []int{1, 2, 3, 4, 6, 12} {
		chunks, err := ChunkSeq(full, n)
		require.NoError(t, err)
		require.Len(t, chunks, n)

		back, err := ConcatSeq(chunks)
		require.NoError(t, err)
		assert.Equal(t, full.Data(), back.Data(), "n=%d", n)
	}
}

func TestChunkSeq_NotDivisible(t *testing.T) {
	full := New(Shape{1, 10, 2})
	_, err := ChunkSeq(full, 3)
	assert.Error(t, err)
}

func TestConcatSeq_Mismatch(t *testing.T) {
	a := New(Shape{2, 3, 4})
	b := New(Shape{1, 3, 4})
	_, err := ConcatSeq([]*Tensor{a, b})
	assert.Error(t, err)
}
