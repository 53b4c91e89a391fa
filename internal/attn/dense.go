package attn

import (
	"fmt"
	"math"

	"github.com/born-ml/ringattn/internal/parallel"
	"github.com/born-ml/ringattn/internal/tensor"
)

// Dense computes standard softmax attention, materializing the full score
// matrix:
//
//	Attention(Q, K, V) = softmax(Q @ K^T * scale) @ V
//
// Shapes: q is [batch, seqQ, dim], k and v are [batch, seqK, dim]; the
// output is [batch, seqQ, dim]. A zero scale means 1/sqrt(dim).
//
// This is the reference the blockwise and ring variants are verified
// against; it is O(seqQ * seqK) in memory and not meant for long sequences.
func Dense(q, k, v *tensor.Tensor, scale float64) (*tensor.Tensor, error) {
	qs, ks, vs := q.Shape(), k.Shape(), v.Shape()
	if len(qs) != 3 || len(ks) != 3 || len(vs) != 3 {
		return nil, fmt.Errorf("%w: Dense requires 3D [batch, seq, dim] tensors", ErrShapeMismatch)
	}
	if qs[0] != ks[0] || qs[0] != vs[0] {
		return nil, fmt.Errorf("%w: batch sizes disagree: %d, %d, %d", ErrShapeMismatch, qs[0], ks[0], vs[0])
	}
	if qs[2] != ks[2] || qs[2] != vs[2] {
		return nil, fmt.Errorf("%w: feature dims disagree: %d, %d, %d", ErrShapeMismatch, qs[2], ks[2], vs[2])
	}
	if ks[1] != vs[1] {
		return nil, fmt.Errorf("%w: key length %d != value length %d", ErrShapeMismatch, ks[1], vs[1])
	}

	batch, seqQ, dim := qs[0], qs[1], qs[2]
	seqK := ks[1]
	scale = resolveScale(scale, dim)

	out := tensor.New(tensor.Shape{batch, seqQ, dim})
	outData := out.Data()
	qData, kData, vData := q.Data(), k.Data(), v.Data()

	parallel.ForRows(batch, seqQ, func(b, i int) {
		qVec := qData[(b*seqQ+i)*dim : (b*seqQ+i+1)*dim]

		// Scores for this query row against every key in the batch element.
		scores := make([]float64, seqK)
		maxScore := math.Inf(-1)
		for j := 0; j < seqK; j++ {
			kVec := kData[(b*seqK+j)*dim : (b*seqK+j+1)*dim]
			var s float64
			for d := 0; d < dim; d++ {
				s += qVec[d] * kVec[d]
			}
			s *= scale
			scores[j] = s
			if s > maxScore {
				maxScore = s
			}
		}

		// Stable softmax-weighted sum over values.
		outRow := outData[(b*seqQ+i)*dim : (b*seqQ+i+1)*dim]
		var sum float64
		for j := 0; j < seqK; j++ {
			w := math.Exp(scores[j] - maxScore)
			sum += w
			vVec := vData[(b*seqK+j)*dim : (b*seqK+j+1)*dim]
			for d := 0; d < dim; d++ {
				outRow[d] += w * vVec[d]
			}
		}
		for d := 0; d < dim; d++ {
			outRow[d] /= sum
		}
	}, parallel.DefaultConfig())

	return out, nil
}
