package attn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/ringattn/internal/tensor"
)

func randomChunks(t *testing.T, n, batch, seq, dim int, seed int64) (q, k, v []*tensor.Tensor) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	total := n * seq

	full := func() *tensor.Tensor { return tensor.Randn(tensor.Shape{batch, total, dim}, rng) }
	split := func(x *tensor.Tensor) []*tensor.Tensor {
		chunks, err := tensor.ChunkSeq(x, n)
		require.NoError(t, err)
		return chunks
	}
	return split(full()), split(full()), split(full())
}

func assertClose(t *testing.T, want, got *tensor.Tensor, tol float64) {
	t.Helper()
	require.True(t, want.Shape().Equal(got.Shape()), "shapes %v vs %v", want.Shape(), got.Shape())
	wd, gd := want.Data(), got.Data()
	for i := range wd {
		assert.InDelta(t, wd[i], gd[i], tol)
	}
}

func TestChunked_MatchesDense(t *testing.T) {
	q, k, v := randomChunks(t, 3, 2, 7, 5, 10)

	outs, err := Chunked(q, k, v, 1.0)
	require.NoError(t, err)
	require.Len(t, outs, 3)

	chunkedFull, err := tensor.ConcatSeq(outs)
	require.NoError(t, err)

	qFull, err := tensor.ConcatSeq(q)
	require.NoError(t, err)
	kFull, err := tensor.ConcatSeq(k)
	require.NoError(t, err)
	vFull, err := tensor.ConcatSeq(v)
	require.NoError(t, err)

	dense, err := Dense(qFull, kFull, vFull, 1.0)
	require.NoError(t, err)

	assertClose(t, dense, chunkedFull, 1e-6)
}

func TestChunked_SingleChunkIsDense(t *testing.T) {
	q, k, v := randomChunks(t, 1, 2, 9, 4, 11)

	outs, err := Chunked(q, k, v, 1.0)
	require.NoError(t, err)
	require.Len(t, outs, 1)

	dense, err := Dense(q[0], k[0], v[0], 1.0)
	require.NoError(t, err)

	assertClose(t, dense, outs[0], 1e-10)
}

func TestChunked_ChunkCountInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	qFull := tensor.Randn(tensor.Shape{2, 12, 4}, rng)
	kFull := tensor.Randn(tensor.Shape{2, 12, 4}, rng)
	vFull := tensor.Randn(tensor.Shape{2, 12, 4}, rng)

	dense, err := Dense(qFull, kFull, vFull, 0)
	require.NoError(t, err)

	for _, n := range []int{1, 2, 3, 4, 6, 12} {
		split := func(x *tensor.Tensor) []*tensor.Tensor {
			chunks, err := tensor.ChunkSeq(x, n)
			require.NoError(t, err)
			return chunks
		}

		outs, err := Chunked(split(qFull), split(kFull), split(vFull), 0)
		require.NoError(t, err)
		got, err := tensor.ConcatSeq(outs)
		require.NoError(t, err)

		assertClose(t, dense, got, 1e-6)
	}
}

func TestChunked_VaryingChunkLengths(t *testing.T) {
	// Key/value chunks of lengths 2, 5 and 3 against query chunks of
	// lengths 4 and 6: chunk lengths only have to agree within a chunk.
	rng := rand.New(rand.NewSource(13))
	batch, dim := 2, 4

	qChunks := []*tensor.Tensor{
		tensor.Randn(tensor.Shape{batch, 4, dim}, rng),
		tensor.Randn(tensor.Shape{batch, 6, dim}, rng),
	}
	kChunks := []*tensor.Tensor{
		tensor.Randn(tensor.Shape{batch, 2, dim}, rng),
		tensor.Randn(tensor.Shape{batch, 5, dim}, rng),
	}
	vChunks := []*tensor.Tensor{
		tensor.Randn(tensor.Shape{batch, 2, dim}, rng),
		tensor.Randn(tensor.Shape{batch, 5, dim}, rng),
	}

	outs, err := Chunked(qChunks, kChunks, vChunks, 1.0)
	require.NoError(t, err)

	qFull, err := tensor.ConcatSeq(qChunks)
	require.NoError(t, err)
	kFull, err := tensor.ConcatSeq(kChunks)
	require.NoError(t, err)
	vFull, err := tensor.ConcatSeq(vChunks)
	require.NoError(t, err)

	dense, err := Dense(qFull, kFull, vFull, 1.0)
	require.NoError(t, err)
	got, err := tensor.ConcatSeq(outs)
	require.NoError(t, err)

	assertClose(t, dense, got, 1e-6)
}

func TestChunked_AutoScale(t *testing.T) {
	q, k, v := randomChunks(t, 2, 1, 4, 16, 14)

	auto, err := Chunked(q, k, v, 0)
	require.NoError(t, err)
	explicit, err := Chunked(q, k, v, 0.25) // 1/sqrt(16)
	require.NoError(t, err)

	for i := range auto {
		assertClose(t, explicit[i], auto[i], 0)
	}
}

func TestValidateChunks(t *testing.T) {
	good := func() (q, k, v []*tensor.Tensor) {
		q = []*tensor.Tensor{tensor.New(tensor.Shape{2, 3, 4})}
		k = []*tensor.Tensor{tensor.New(tensor.Shape{2, 5, 4})}
		v = []*tensor.Tensor{tensor.New(tensor.Shape{2, 5, 4})}
		return
	}

	t.Run("valid", func(t *testing.T) {
		q, k, v := good()
		assert.NoError(t, ValidateChunks(q, k, v))
	})

	t.Run("empty", func(t *testing.T) {
		err := ValidateChunks(nil, nil, nil)
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("length mismatch", func(t *testing.T) {
		q, k, v := good()
		err := ValidateChunks(q, append(k, tensor.New(tensor.Shape{2, 5, 4})), v)
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("batch mismatch", func(t *testing.T) {
		q, k, v := good()
		k[0] = tensor.New(tensor.Shape{3, 5, 4})
		err := ValidateChunks(q, k, v)
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("key value length mismatch", func(t *testing.T) {
		q, k, v := good()
		v[0] = tensor.New(tensor.Shape{2, 6, 4})
		err := ValidateChunks(q, k, v)
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("not 3D", func(t *testing.T) {
		q, k, v := good()
		q[0] = tensor.New(tensor.Shape{3, 4})
		err := ValidateChunks(q, k, v)
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})
}

func TestDense_ShapeErrors(t *testing.T) {
	q := tensor.New(tensor.Shape{2, 3, 4})
	k := tensor.New(tensor.Shape{2, 5, 4})
	v := tensor.New(tensor.Shape{2, 6, 4}) // length disagrees with k

	_, err := Dense(q, k, v, 0)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = Dense(q, k, tensor.New(tensor.Shape{2, 5, 3}), 0)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestScoreBlock(t *testing.T) {
	q, err := tensor.FromSlice([]float64{1, 0, 0, 1}, tensor.Shape{2, 2})
	require.NoError(t, err)
	k, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})
	require.NoError(t, err)

	s, err := ScoreBlock(q, k, 2.0)
	require.NoError(t, err)
	assert.True(t, s.Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, []float64{2, 6, 10, 4, 8, 12}, s.Data())

	_, err = ScoreBlock(q, tensor.New(tensor.Shape{3, 5}), 1.0)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
