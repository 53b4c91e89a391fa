package attn

import (
	"fmt"

	"github.com/born-ml/ringattn/internal/parallel"
	"github.com/born-ml/ringattn/internal/tensor"
)

// ValidateChunks checks that query, key and value chunk lists describe a
// consistent blockwise attention problem: equal chunk counts, 3D chunks,
// one shared batch size and feature dimension, and per-chunk key/value
// lengths that agree. Per-chunk sequence lengths may vary chunk to chunk.
func ValidateChunks(queries, keys, values []*tensor.Tensor) error {
	n := len(queries)
	if n == 0 {
		return fmt.Errorf("%w: no chunks", ErrShapeMismatch)
	}
	if len(keys) != n || len(values) != n {
		return fmt.Errorf("%w: %d query chunks but %d key and %d value chunks",
			ErrShapeMismatch, n, len(keys), len(values))
	}

	var batch, dim int
	check := func(t *tensor.Tensor, kind string, i int) error {
		s := t.Shape()
		if len(s) != 3 {
			return fmt.Errorf("%w: %s chunk %d must be 3D [batch, seq, dim], got %v", ErrShapeMismatch, kind, i, s)
		}
		if batch == 0 {
			batch, dim = s[0], s[2]
			return nil
		}
		if s[0] != batch || s[2] != dim {
			return fmt.Errorf("%w: %s chunk %d has shape %v, want batch %d and dim %d",
				ErrShapeMismatch, kind, i, s, batch, dim)
		}
		return nil
	}

	for i := 0; i < n; i++ {
		if err := check(queries[i], "query", i); err != nil {
			return err
		}
		if err := check(keys[i], "key", i); err != nil {
			return err
		}
		if err := check(values[i], "value", i); err != nil {
			return err
		}
		if keys[i].Shape()[1] != values[i].Shape()[1] {
			return fmt.Errorf("%w: chunk %d key length %d != value length %d",
				ErrShapeMismatch, i, keys[i].Shape()[1], values[i].Shape()[1])
		}
	}
	return nil
}

// Chunked computes exact softmax attention blockwise in a single process:
// for every query chunk, an Accumulator per batch element observes all
// key/value chunks in index order. The full score matrix is never
// materialized — only one [seqQ, seqK] block exists at a time.
//
// Outputs are returned in chunk order, each shaped like its query chunk.
// The result equals Dense on the concatenated sequence up to floating-point
// rounding; the ring scheduler produces the same outputs with the chunk
// loop distributed across workers.
func Chunked(queries, keys, values []*tensor.Tensor, scale float64) ([]*tensor.Tensor, error) {
	if err := ValidateChunks(queries, keys, values); err != nil {
		return nil, err
	}

	n := len(queries)
	batch := queries[0].Shape()[0]
	dim := queries[0].Shape()[2]
	scale = resolveScale(scale, dim)

	outputs := make([]*tensor.Tensor, n)
	for i := range outputs {
		outputs[i] = tensor.New(tensor.Shape{batch, queries[i].Shape()[1], dim})
	}
	errs := make([]error, n*batch)

	// Query chunks and batch elements are independent; only the kv-chunk
	// loop inside must stay sequential (it mutates the accumulator).
	parallel.ForRows(n, batch, func(i, b int) {
		out, err := accumulateChunk(queries[i], keys, values, b, scale)
		if err != nil {
			errs[i*batch+b] = err
			return
		}
		seqQ := queries[i].Shape()[1]
		copy(outputs[i].Data()[b*seqQ*dim:(b+1)*seqQ*dim], out.Data())
	}, parallel.DefaultConfig())

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return outputs, nil
}

// accumulateChunk runs the online reduction for one (query chunk, batch
// element) pair over every key/value chunk.
func accumulateChunk(query *tensor.Tensor, keys, values []*tensor.Tensor, b int, scale float64) (*tensor.Tensor, error) {
	qb, err := query.Index(b)
	if err != nil {
		return nil, err
	}

	acc := NewAccumulator(qb.Shape()[0], qb.Shape()[1])
	for j := range keys {
		kb, err := keys[j].Index(b)
		if err != nil {
			return nil, err
		}
		vb, err := values[j].Index(b)
		if err != nil {
			return nil, err
		}
		scores, err := ScoreBlock(qb, kb, scale)
		if err != nil {
			return nil, err
		}
		if err := acc.Observe(scores, vb); err != nil {
			return nil, err
		}
	}
	return acc.Finalize()
}
