package ring

import (
	"context"
	"fmt"
	"time"

	"github.com/born-ml/ringattn/internal/attn"
	"github.com/born-ml/ringattn/internal/tensor"
)

// workerState tracks a worker's position in its protocol loop, mostly for
// error messages.
type workerState int

const (
	stateIdle workerState = iota
	stateReceiving
	stateAccumulating
	stateFinalizing
	stateDone
)

func (s workerState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateReceiving:
		return "receiving"
	case stateAccumulating:
		return "accumulating"
	case stateFinalizing:
		return "finalizing"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

// worker executes the ring protocol for one chunk index. It exclusively owns
// its accumulators; the only interaction with other workers is through its
// channel pair.
type worker struct {
	index       int
	queries     []*tensor.Tensor // Per-batch query chunk [seqQ, dim], fixed.
	inbound     <-chan ChunkMessage
	outbound    chan<- ChunkMessage
	accs        []*attn.Accumulator // One per batch element.
	scale       float64
	recvTimeout time.Duration
	transform   attn.Transform
	seen        []bool // Chunk indices observed so far.
	state       workerState
}

func newWorker(
	index int,
	query *tensor.Tensor,
	inbound <-chan ChunkMessage,
	outbound chan<- ChunkMessage,
	scale float64,
	recvTimeout time.Duration,
	transform attn.Transform,
	chunkCount int,
) (*worker, error) {
	batch := query.Shape()[0]
	dim := query.Shape()[2]

	queries := make([]*tensor.Tensor, batch)
	accs := make([]*attn.Accumulator, batch)
	for b := 0; b < batch; b++ {
		qb, err := query.Index(b)
		if err != nil {
			return nil, err
		}
		queries[b] = qb
		accs[b] = attn.NewAccumulator(qb.Shape()[0], dim)
	}

	return &worker{
		index:       index,
		queries:     queries,
		inbound:     inbound,
		outbound:    outbound,
		accs:        accs,
		scale:       scale,
		recvTimeout: recvTimeout,
		transform:   transform,
		seen:        make([]bool, chunkCount),
		state:       stateIdle,
	}, nil
}

// run executes exactly rounds receive→accumulate→forward iterations, then
// finalizes. The chunk received on the last round is the worker's own,
// having completed its full circuit, so it is not forwarded again.
func (w *worker) run(ctx context.Context, rounds int) (*tensor.Tensor, error) {
	for round := 0; round < rounds; round++ {
		w.state = stateReceiving
		msg, err := w.receive(ctx)
		if err != nil {
			return nil, err
		}

		if msg.Index < 0 || msg.Index >= len(w.seen) {
			return nil, fmt.Errorf("%w: worker %d received chunk index %d out of range [0,%d)",
				ErrCommunication, w.index, msg.Index, len(w.seen))
		}
		if w.seen[msg.Index] {
			return nil, fmt.Errorf("%w: worker %d received chunk %d twice",
				ErrCommunication, w.index, msg.Index)
		}
		w.seen[msg.Index] = true

		w.state = stateAccumulating
		if err := w.observe(msg); err != nil {
			return nil, err
		}

		if round < rounds-1 {
			w.outbound <- msg
		}
	}

	w.state = stateFinalizing
	out, err := w.finalize()
	if err != nil {
		return nil, err
	}
	w.state = stateDone
	return out, nil
}

// receive blocks on the inbound channel, bounded by the configured timeout
// and by run-level cancellation. Waiting forever on a crashed peer is the
// failure mode this guards against.
func (w *worker) receive(ctx context.Context) (ChunkMessage, error) {
	var timeout <-chan time.Time
	if w.recvTimeout > 0 {
		timer := time.NewTimer(w.recvTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case msg, ok := <-w.inbound:
		if !ok {
			return ChunkMessage{}, fmt.Errorf("%w: worker %d inbound channel closed", ErrCommunication, w.index)
		}
		return msg, nil
	case <-timeout:
		return ChunkMessage{}, fmt.Errorf("%w: worker %d receive timed out after %v while %s",
			ErrCommunication, w.index, w.recvTimeout, w.state)
	case <-ctx.Done():
		return ChunkMessage{}, ctx.Err()
	}
}

// observe folds the received key/value chunk into this worker's
// accumulators, one batch element at a time.
func (w *worker) observe(msg ChunkMessage) error {
	for b, qb := range w.queries {
		kb, err := msg.Key.Index(b)
		if err != nil {
			return err
		}
		vb, err := msg.Value.Index(b)
		if err != nil {
			return err
		}
		scores, err := attn.ScoreBlock(qb, kb, w.scale)
		if err != nil {
			return err
		}
		if err := w.accs[b].Observe(scores, vb); err != nil {
			return err
		}
	}
	return nil
}

// finalize normalizes every batch element's accumulator, stacks the rows
// back into [batch, seqQ, dim] and applies the post-processing transform.
func (w *worker) finalize() (*tensor.Tensor, error) {
	mats := make([]*tensor.Tensor, len(w.accs))
	for b, acc := range w.accs {
		out, err := acc.Finalize()
		if err != nil {
			return nil, err
		}
		mats[b] = out
	}

	out, err := tensor.Stack2D(mats)
	if err != nil {
		return nil, err
	}
	if w.transform == nil {
		return out, nil
	}
	return w.transform(out)
}
