// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/ringattn/internal/tensor"
)

// Tensor is a dense row-major float64 tensor.
type Tensor = tensor.Tensor

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// New creates a zero-initialized tensor with the given shape.
func New(shape Shape) *Tensor {
	return tensor.New(shape)
}

// FromSlice creates a tensor from a Go slice; the slice is copied.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float64) *Tensor {
	return tensor.Full(shape, value)
}

// Randn creates a tensor with standard-normal values drawn from rng.
func Randn(shape Shape, rng *rand.Rand) *Tensor {
	return tensor.Randn(shape, rng)
}

// Stack2D stacks equally-shaped [seq, dim] tensors into [batch, seq, dim].
func Stack2D(mats []*Tensor) (*Tensor, error) {
	return tensor.Stack2D(mats)
}

// ConcatSeq concatenates [batch, seq_i, dim] tensors along the sequence axis.
func ConcatSeq(chunks []*Tensor) (*Tensor, error) {
	return tensor.ConcatSeq(chunks)
}

// ChunkSeq splits a [batch, seq, dim] tensor into n equal sequence chunks.
func ChunkSeq(t *Tensor, n int) ([]*Tensor, error) {
	return tensor.ChunkSeq(t, n)
}
