// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ring

import (
	"context"

	"github.com/born-ml/ringattn/internal/ring"
	"github.com/born-ml/ringattn/internal/tensor"
)

// Config controls one ring run. The zero value is usable: auto scale, no
// receive timeout, identity post-processing.
type Config = ring.Config

// ChunkMessage is the unit exchanged over the ring.
type ChunkMessage = ring.ChunkMessage

// ErrCommunication indicates a ring transport failure; fatal to the run.
var ErrCommunication = ring.ErrCommunication

// Run executes ring attention over N chunks with N concurrent workers and
// returns the per-chunk outputs in chunk-index order. Any worker failure
// fails the whole run; no partial results are returned.
func Run(ctx context.Context, queries, keys, values []*tensor.Tensor, cfg Config) ([]*tensor.Tensor, error) {
	return ring.Run(ctx, queries, keys, values, cfg)
}
