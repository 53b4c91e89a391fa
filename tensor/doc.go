// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the float64 tensor type used by the ringattn
// library.
//
// # Overview
//
// This is deliberately a small tensor: dense row-major float64 storage on
// the CPU with exactly the operations the attention kernels need. There is
// no device abstraction, no autodiff and no dtype zoo — the ring attention
// demonstration is double-precision CPU math by design.
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/ringattn/tensor"
//	)
//
//	rng := rand.New(rand.NewSource(42))
//	q := tensor.Randn(tensor.Shape{2, 21, 5}, rng) // [batch, seq, dim]
//	chunks, err := tensor.ChunkSeq(q, 3)           // three sequence chunks
//
// # Chunking
//
// ChunkSeq and ConcatSeq convert between a full [batch, seq, dim] sequence
// and the per-chunk lists consumed by the attn and ring packages; Stack2D
// reassembles per-batch 2D results into a 3D chunk.
package tensor
