// Package attn implements blockwise softmax attention: an online softmax
// accumulator, a chunked single-process driver built on it, and the dense
// reference used to verify both.
package attn

import (
	"fmt"
	"math"

	"github.com/born-ml/ringattn/internal/tensor"
)

// Accumulator computes softmax-weighted value sums incrementally, one
// (scores, values) block at a time, without storing the full score matrix.
//
// It generalizes the classic online softmax to a whole query chunk: every
// query row carries its own running maximum, numerator and denominator, and
// all rows are updated together per observed block.
//
// Algorithm, per query row:
//
//	When observing a new block of scores:
//	  1. block_max = max(scores)
//	  2. new_max = max(running_max, block_max)
//	  3. correction = exp(running_max - new_max)
//	  4. numerator   = correction * numerator   + exp(scores - new_max) @ values
//	  5. denominator = correction * denominator + sum(exp(scores - new_max))
//	  6. running_max = new_max
//
//	After all blocks: output = numerator / denominator
//
// Subtracting the running maximum keeps every exponential in [0, 1], so the
// accumulator never overflows regardless of score magnitude. The invariant
// that numerator/denominator equals the exact softmax-weighted value sum
// over the blocks seen so far holds after every Observe call, not only at
// the end.
//
// An Accumulator is exclusively owned by one caller; it is not safe for
// concurrent use.
type Accumulator struct {
	rows       int       // Query rows in the owning chunk.
	featureDim int       // Feature dimension of the values.
	runningMax []float64 // [rows] maximum raw score seen so far.
	numerator  []float64 // [rows * featureDim] rescaled weighted value sum.
	denom      []float64 // [rows] rescaled weight sum.
	observed   int       // Number of blocks ingested.
}

// NewAccumulator creates an accumulator for a query chunk with the given
// number of rows and feature dimension. The running maxima start at -Inf,
// numerator and denominator at zero.
func NewAccumulator(rows, featureDim int) *Accumulator {
	a := &Accumulator{
		rows:       rows,
		featureDim: featureDim,
		runningMax: make([]float64, rows),
		numerator:  make([]float64, rows*featureDim),
		denom:      make([]float64, rows),
	}
	for i := range a.runningMax {
		a.runningMax[i] = math.Inf(-1)
	}
	return a
}

// Observe ingests one (scores, values) block.
//
// Shapes:
//   - scores: [rows, keysInBlock] raw pre-softmax scores.
//   - values: [keysInBlock, featureDim].
//
// Returns ErrShapeMismatch if the block dimensions disagree with the
// accumulator or with each other; in that case no state is mutated.
func (a *Accumulator) Observe(scores, values *tensor.Tensor) error {
	if err := a.validate(scores, values); err != nil {
		return err
	}

	keys := scores.Shape()[1]
	scoreData := scores.Data()
	valueData := values.Data()

	for i := 0; i < a.rows; i++ {
		row := scoreData[i*keys : (i+1)*keys]

		blockMax := math.Inf(-1)
		for _, s := range row {
			if s > blockMax {
				blockMax = s
			}
		}

		oldMax := a.runningMax[i]
		newMax := math.Max(oldMax, blockMax)

		// Every score seen so far for this row is -Inf: all weights are
		// zero and there is nothing to rescale. Skipping here avoids
		// evaluating exp(-Inf - (-Inf)).
		if math.IsInf(newMax, -1) {
			continue
		}

		num := a.numerator[i*a.featureDim : (i+1)*a.featureDim]

		// Rescale the prior accumulation into the new maximum's frame.
		// On the first finite block oldMax is still -Inf and the prior
		// accumulation is zero, so the multiply is skipped outright.
		if !math.IsInf(oldMax, -1) && oldMax != newMax {
			correction := math.Exp(oldMax - newMax)
			a.denom[i] *= correction
			for d := range num {
				num[d] *= correction
			}
		}

		// Add this block's contribution. A -Inf score (e.g. a masked
		// position) exponentiates to exactly zero.
		for j, s := range row {
			w := math.Exp(s - newMax)
			if w == 0 {
				continue
			}
			a.denom[i] += w
			val := valueData[j*a.featureDim : (j+1)*a.featureDim]
			for d := range num {
				num[d] += w * val[d]
			}
		}

		a.runningMax[i] = newMax
	}

	a.observed++
	return nil
}

// Observed returns the number of blocks ingested so far.
func (a *Accumulator) Observed() int {
	return a.observed
}

// Finalize returns numerator/denominator as a [rows, featureDim] tensor.
//
// Returns ErrEmptyAccumulator if no block was ever observed. A row whose
// denominator is still zero after observations (every score was -Inf) yields
// zeros rather than NaN.
func (a *Accumulator) Finalize() (*tensor.Tensor, error) {
	if a.observed == 0 {
		return nil, ErrEmptyAccumulator
	}

	out := tensor.New(tensor.Shape{a.rows, a.featureDim})
	data := out.Data()
	for i := 0; i < a.rows; i++ {
		den := a.denom[i]
		if den == 0 {
			continue
		}
		for d := 0; d < a.featureDim; d++ {
			data[i*a.featureDim+d] = a.numerator[i*a.featureDim+d] / den
		}
	}
	return out, nil
}

// Reset clears the accumulator for reuse with another query chunk of the
// same dimensions.
func (a *Accumulator) Reset() {
	for i := range a.runningMax {
		a.runningMax[i] = math.Inf(-1)
		a.denom[i] = 0
	}
	for i := range a.numerator {
		a.numerator[i] = 0
	}
	a.observed = 0
}

func (a *Accumulator) validate(scores, values *tensor.Tensor) error {
	ss, vs := scores.Shape(), values.Shape()
	if len(ss) != 2 || len(vs) != 2 {
		return fmt.Errorf("%w: scores and values must be 2D, got %v and %v", ErrShapeMismatch, ss, vs)
	}
	if ss[0] != a.rows {
		return fmt.Errorf("%w: scores have %d rows, accumulator expects %d", ErrShapeMismatch, ss[0], a.rows)
	}
	if ss[1] != vs[0] {
		return fmt.Errorf("%w: scores have %d keys but values have %d", ErrShapeMismatch, ss[1], vs[0])
	}
	if vs[1] != a.featureDim {
		return fmt.Errorf("%w: values have feature dim %d, accumulator expects %d", ErrShapeMismatch, vs[1], a.featureDim)
	}
	return nil
}
