// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package attn

import (
	"github.com/born-ml/ringattn/internal/attn"
	"github.com/born-ml/ringattn/internal/tensor"
)

// Accumulator computes softmax-weighted value sums incrementally, one
// (scores, values) block at a time.
type Accumulator = attn.Accumulator

// Transform post-processes one finalized attention output chunk.
type Transform = attn.Transform

// Block is the standard post-attention block: LayerNorm → FFN → residual →
// LayerNorm.
type Block = attn.Block

// Sentinel errors, matched with errors.Is.
var (
	ErrShapeMismatch    = attn.ErrShapeMismatch
	ErrEmptyAccumulator = attn.ErrEmptyAccumulator
)

// NewAccumulator creates an accumulator for a query chunk with the given
// row count and feature dimension.
func NewAccumulator(rows, featureDim int) *Accumulator {
	return attn.NewAccumulator(rows, featureDim)
}

// NewBlock creates a post-processing block with deterministic weights.
func NewBlock(dim, hidden int, seed int64) *Block {
	return attn.NewBlock(dim, hidden, seed)
}

// Dense computes standard softmax attention over [batch, seq, dim] tensors.
// A zero scale means 1/sqrt(dim).
func Dense(q, k, v *tensor.Tensor, scale float64) (*tensor.Tensor, error) {
	return attn.Dense(q, k, v, scale)
}

// Chunked computes exact attention blockwise over per-chunk tensor lists,
// returning one output per query chunk in chunk order.
func Chunked(queries, keys, values []*tensor.Tensor, scale float64) ([]*tensor.Tensor, error) {
	return attn.Chunked(queries, keys, values, scale)
}

// ScoreBlock computes raw q @ k^T * scale scores for one batch element.
func ScoreBlock(q, k *tensor.Tensor, scale float64) (*tensor.Tensor, error) {
	return attn.ScoreBlock(q, k, scale)
}
