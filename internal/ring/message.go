// Package ring distributes blockwise softmax attention across N in-process
// workers arranged in a directed cycle.
//
// Each worker owns one query chunk, starts with one key/value chunk and a
// private online-softmax accumulator per batch element. Key/value chunks
// rotate around the ring: a worker receives a chunk from its predecessor,
// folds it into its accumulators, and forwards it unmodified to its
// successor. After N receives every worker has observed every chunk exactly
// once, so the distributed result equals the single-process blockwise
// computation — which in turn equals dense attention over the concatenated
// sequence.
package ring

import (
	"errors"

	"github.com/born-ml/ringattn/internal/tensor"
)

// ErrCommunication indicates a ring transport failure: a receive timed out,
// a channel closed unexpectedly, or a message arrived malformed. It is fatal
// to the run — there are no retries and no partial results.
var ErrCommunication = errors.New("ring: communication failure")

// ChunkMessage is the unit exchanged over the ring: one key/value chunk pair
// plus its originating chunk index. The index is bookkeeping for the
// exactly-once invariant, not an input to the math. Messages are forwarded
// as-is and never mutated by a worker.
type ChunkMessage struct {
	Index int            // Originating chunk (and worker) index.
	Key   *tensor.Tensor // [batch, seqK, dim]
	Value *tensor.Tensor // [batch, seqK, dim]
}
