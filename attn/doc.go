// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package attn implements blockwise softmax attention.
//
// # Overview
//
// Standard attention materializes the full softmax(Q Kᵀ) matrix, which is
// O(seqQ·seqK) memory. The Accumulator in this package computes the same
// result online: it ingests one (scores, values) block at a time and keeps
// a running maximum, numerator and denominator per query row, rescaling the
// prior accumulation whenever the maximum improves. After any prefix of
// blocks, numerator/denominator is exactly the softmax-weighted value sum
// over the blocks seen so far — the final answer never depends on how the
// keys were chunked or in which order the chunks arrived.
//
// # Components
//
//   - Accumulator: the online softmax reduction (Observe/Finalize).
//   - Chunked: single-process blockwise attention built on Accumulator.
//   - Dense: the O(N²) reference implementation used for verification.
//   - Transform and Block: the injected post-processing collaborator
//     (LayerNorm → FFN → residual → LayerNorm).
//
// The ring package distributes Chunked's key/value loop across concurrent
// workers; the math is identical.
//
// # Basic Usage
//
//	acc := attn.NewAccumulator(seqQ, dim)
//	for _, blk := range blocks {
//	    scores, _ := attn.ScoreBlock(q, blk.K, 1.0)
//	    if err := acc.Observe(scores, blk.V); err != nil {
//	        return err
//	    }
//	}
//	out, err := acc.Finalize() // [seqQ, dim]
package attn
