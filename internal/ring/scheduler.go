package ring

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/ringattn/internal/attn"
	"github.com/born-ml/ringattn/internal/tensor"
)

// Config controls one ring run. The zero value is usable: auto scale, no
// receive timeout, identity post-processing.
type Config struct {
	// Scale multiplies the raw query–key scores. Zero means 1/sqrt(dim).
	Scale float64

	// RecvTimeout bounds every channel receive. Zero means wait forever;
	// set it in production so a crashed worker fails the run instead of
	// hanging it.
	RecvTimeout time.Duration

	// Transform post-processes each worker's finalized output chunk.
	// Nil means identity.
	Transform attn.Transform
}

// Run executes ring attention over N chunks with N workers.
//
// queries, keys and values are parallel lists of [batch, seq, dim] chunks;
// chunk i seeds worker i. Worker i's outbound channel feeds worker (i+1)%N.
// Before any worker starts, each worker's own key/value chunk is preloaded
// onto its successor's inbound channel; together with forwarding this
// guarantees every worker observes every chunk exactly once in N rounds.
//
// Outputs are returned in chunk-index order regardless of worker completion
// order, so two runs over the same inputs collect identically. Any worker
// error cancels the remaining workers and fails the whole run; Run never
// returns partial results.
func Run(ctx context.Context, queries, keys, values []*tensor.Tensor, cfg Config) ([]*tensor.Tensor, error) {
	if err := attn.ValidateChunks(queries, keys, values); err != nil {
		return nil, err
	}

	n := len(queries)
	dim := queries[0].Shape()[2]
	scale := cfg.Scale
	if scale == 0 {
		scale = 1.0 / math.Sqrt(float64(dim))
	}

	// One inbound channel per worker, fed by its ring predecessor. The
	// buffer holds every chunk in flight at once, so sends never block.
	inbound := make([]chan ChunkMessage, n)
	for i := range inbound {
		inbound[i] = make(chan ChunkMessage, n)
	}

	// Preload each worker's original chunk onto its successor's channel.
	for i := 0; i < n; i++ {
		inbound[(i+1)%n] <- ChunkMessage{Index: i, Key: keys[i], Value: values[i]}
	}

	workers := make([]*worker, n)
	for i := 0; i < n; i++ {
		w, err := newWorker(i, queries[i], inbound[i], inbound[(i+1)%n], scale, cfg.RecvTimeout, cfg.Transform, n)
		if err != nil {
			return nil, err
		}
		workers[i] = w
	}

	results := make([]*tensor.Tensor, n)
	g, ctx := errgroup.WithContext(ctx)
	for i, w := range workers {
		i, w := i, w
		g.Go(func() error {
			out, err := w.run(ctx, n)
			if err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			results[i] = out // Slot i is exclusively this worker's.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
