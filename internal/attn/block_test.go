package attn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/ringattn/internal/tensor"
)

func TestBlock_PreservesShape(t *testing.T) {
	rng := rand.New(rand.NewSource(20))
	x := tensor.Randn(tensor.Shape{2, 7, 5}, rng)

	blk := NewBlock(5, 20, 1)
	y, err := blk.Apply(x)
	require.NoError(t, err)
	assert.True(t, y.Shape().Equal(x.Shape()))
}

func TestBlock_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	x := tensor.Randn(tensor.Shape{1, 4, 6}, rng)

	y1, err := NewBlock(6, 24, 7).Apply(x)
	require.NoError(t, err)
	y2, err := NewBlock(6, 24, 7).Apply(x)
	require.NoError(t, err)

	assert.Equal(t, y1.Data(), y2.Data())

	y3, err := NewBlock(6, 24, 8).Apply(x)
	require.NoError(t, err)
	assert.NotEqual(t, y1.Data(), y3.Data())
}

func TestBlock_Pure(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	x := tensor.Randn(tensor.Shape{1, 3, 4}, rng)
	before := append([]float64(nil), x.Data()...)

	blk := NewBlock(4, 16, 1)
	y1, err := blk.Apply(x)
	require.NoError(t, err)
	y2, err := blk.Apply(x)
	require.NoError(t, err)

	assert.Equal(t, before, x.Data(), "input must not be mutated")
	assert.Equal(t, y1.Data(), y2.Data(), "same block, same input, same output")
}

func TestBlock_DimMismatch(t *testing.T) {
	blk := NewBlock(5, 20, 1)
	_, err := blk.Apply(tensor.New(tensor.Shape{1, 3, 4}))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = blk.Apply(tensor.New(tensor.Shape{3, 5}))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestLayerNorm_Normalizes(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	x := tensor.Randn(tensor.Shape{2, 3, 8}, rng)

	ln := newLayerNorm(8, 1e-5)
	y := ln.forward(x)

	// With gamma=1, beta=0 every row comes out with mean ~0 and unit
	// variance.
	data := y.Data()
	for r := 0; r < 6; r++ {
		row := data[r*8 : (r+1)*8]
		var mean float64
		for _, v := range row {
			mean += v
		}
		mean /= 8

		var variance float64
		for _, v := range row {
			variance += (v - mean) * (v - mean)
		}
		variance /= 8

		assert.InDelta(t, 0.0, mean, 1e-12)
		assert.InDelta(t, 1.0, variance, 1e-3)
	}
}

func TestBlock_SatisfiesTransform(t *testing.T) {
	blk := NewBlock(4, 16, 1)
	var tf Transform = blk.Apply

	rng := rand.New(rand.NewSource(24))
	x := tensor.Randn(tensor.Shape{1, 2, 4}, rng)
	y, err := tf(x)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(y.At(0, 0, 0)))
}
