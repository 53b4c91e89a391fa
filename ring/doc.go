// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ring schedules blockwise attention across N concurrent workers
// arranged in a directed cycle.
//
// # Protocol
//
// Worker i owns query chunk i, an online-softmax accumulator per batch
// element, and initially key/value chunk i. Before any worker starts, each
// worker's own key/value chunk is preloaded onto its successor's inbound
// channel. Every worker then runs exactly N rounds:
//
//  1. Receive a (key, value) chunk from the predecessor.
//  2. Fold it into the accumulators against the fixed query chunk.
//  3. Forward the chunk unmodified to the successor (skipped on the last
//     round, when the worker's own chunk has completed its circuit).
//
// After N receives each worker has seen every chunk exactly once, finalizes
// its accumulators, applies the injected post-processing transform, and
// emits its output chunk. Outputs are collected in chunk-index order, so
// collection is deterministic even though worker completion order is not.
//
// # Failure model
//
// Workers exchange messages only through buffered channels; accumulators are
// never shared. A receive can be bounded with Config.RecvTimeout; a timeout,
// an unexpectedly closed channel or a malformed message is a fatal
// ErrCommunication. The first worker error cancels the remaining workers and
// Run returns a single run-level error — never partial results, never a
// hang.
//
// # Basic Usage
//
//	outs, err := ring.Run(ctx, queryChunks, keyChunks, valueChunks, ring.Config{
//	    Scale:       1.0,
//	    RecvTimeout: 5 * time.Second,
//	})
package ring
