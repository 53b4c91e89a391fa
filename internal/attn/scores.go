package attn

import (
	"fmt"
	"math"

	"github.com/born-ml/ringattn/internal/tensor"
)

// ScoreBlock computes the raw attention scores q @ k^T * scale for one
// batch element: q is [seqQ, dim], k is [seqK, dim], the result is
// [seqQ, seqK]. Score blocks are ephemeral — recomputed per chunk pair and
// fed straight into an Accumulator, never persisted.
func ScoreBlock(q, k *tensor.Tensor, scale float64) (*tensor.Tensor, error) {
	qs, ks := q.Shape(), k.Shape()
	if len(qs) != 2 || len(ks) != 2 {
		return nil, fmt.Errorf("%w: ScoreBlock requires 2D tensors, got %v and %v", ErrShapeMismatch, qs, ks)
	}
	if qs[1] != ks[1] {
		return nil, fmt.Errorf("%w: query dim %d != key dim %d", ErrShapeMismatch, qs[1], ks[1])
	}

	seqQ, dim := qs[0], qs[1]
	seqK := ks[0]
	qData, kData := q.Data(), k.Data()

	out := tensor.New(tensor.Shape{seqQ, seqK})
	outData := out.Data()
	for i := 0; i < seqQ; i++ {
		qVec := qData[i*dim : (i+1)*dim]
		for j := 0; j < seqK; j++ {
			kVec := kData[j*dim : (j+1)*dim]
			var score float64
			for d := 0; d < dim; d++ {
				score += qVec[d] * kVec[d]
			}
			outData[i*seqK+j] = score * scale
		}
	}
	return out, nil
}

// resolveScale applies the usual attention convention: a zero scale means
// 1/sqrt(featureDim).
func resolveScale(scale float64, featureDim int) float64 {
	if scale == 0 {
		return 1.0 / math.Sqrt(float64(featureDim))
	}
	return scale
}
