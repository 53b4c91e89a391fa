package attn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/born-ml/ringattn/internal/tensor"
)

// Transform post-processes one finalized attention output chunk. It must be
// pure and shape-preserving. A nil Transform means identity; the ring
// scheduler and tests inject whatever they need here.
type Transform func(*tensor.Tensor) (*tensor.Tensor, error)

// Block is the standard post-attention transformer block:
//
//	y = LayerNorm2(x + FFN(LayerNorm1(x)))
//
// where FFN is Linear → GELU → Linear. Weights are drawn deterministically
// from the given seed, so a Block is a pure function once constructed.
type Block struct {
	dim    int
	hidden int
	ln1    *layerNorm
	ln2    *layerNorm
	w1, b1 []float64 // [dim, hidden] and [hidden]
	w2, b2 []float64 // [hidden, dim] and [dim]
}

// NewBlock creates a post-processing block for feature dimension dim with
// the given FFN hidden width. Linear weights use Xavier initialization.
func NewBlock(dim, hidden int, seed int64) *Block {
	rng := rand.New(rand.NewSource(seed))

	xavier := func(fanIn, fanOut int) []float64 {
		limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
		w := make([]float64, fanIn*fanOut)
		for i := range w {
			w[i] = (rng.Float64()*2 - 1) * limit
		}
		return w
	}

	return &Block{
		dim:    dim,
		hidden: hidden,
		ln1:    newLayerNorm(dim, 1e-5),
		ln2:    newLayerNorm(dim, 1e-5),
		w1:     xavier(dim, hidden),
		b1:     make([]float64, hidden),
		w2:     xavier(hidden, dim),
		b2:     make([]float64, dim),
	}
}

// Apply runs the block on a [batch, seq, dim] chunk. It satisfies Transform.
func (bl *Block) Apply(x *tensor.Tensor) (*tensor.Tensor, error) {
	s := x.Shape()
	if len(s) != 3 || s[2] != bl.dim {
		return nil, fmt.Errorf("%w: Block expects [batch, seq, %d], got %v", ErrShapeMismatch, bl.dim, s)
	}

	h := bl.ln1.forward(x)
	h = bl.ffn(h)

	// Residual connection.
	out := x.Clone()
	outData := out.Data()
	for i, v := range h.Data() {
		outData[i] += v
	}

	return bl.ln2.forward(out), nil
}

// ffn applies Linear → GELU → Linear row-wise over the last dimension.
func (bl *Block) ffn(x *tensor.Tensor) *tensor.Tensor {
	const sqrt2OverPi = 0.7978845608028654 // sqrt(2/pi)
	const coeff = 0.044715

	rows := x.NumElements() / bl.dim
	in := x.Data()
	out := tensor.New(x.Shape())
	outData := out.Data()

	hiddenBuf := make([]float64, bl.hidden)
	for r := 0; r < rows; r++ {
		row := in[r*bl.dim : (r+1)*bl.dim]

		// Expand: [dim] @ [dim, hidden] + b1, then GELU.
		for h := 0; h < bl.hidden; h++ {
			sum := bl.b1[h]
			for d := 0; d < bl.dim; d++ {
				sum += row[d] * bl.w1[d*bl.hidden+h]
			}
			inner := sqrt2OverPi * (sum + coeff*sum*sum*sum)
			hiddenBuf[h] = 0.5 * sum * (1 + math.Tanh(inner))
		}

		// Project: [hidden] @ [hidden, dim] + b2.
		outRow := outData[r*bl.dim : (r+1)*bl.dim]
		for d := 0; d < bl.dim; d++ {
			sum := bl.b2[d]
			for h := 0; h < bl.hidden; h++ {
				sum += hiddenBuf[h] * bl.w2[h*bl.dim+d]
			}
			outRow[d] = sum
		}
	}
	return out
}

// layerNorm normalizes over the last dimension with learnable-shaped scale
// and shift (gamma starts at ones, beta at zeros).
type layerNorm struct {
	gamma   []float64
	beta    []float64
	epsilon float64
}

func newLayerNorm(dim int, epsilon float64) *layerNorm {
	ln := &layerNorm{
		gamma:   make([]float64, dim),
		beta:    make([]float64, dim),
		epsilon: epsilon,
	}
	for i := range ln.gamma {
		ln.gamma[i] = 1
	}
	return ln
}

func (ln *layerNorm) forward(x *tensor.Tensor) *tensor.Tensor {
	dim := len(ln.gamma)
	rows := x.NumElements() / dim
	in := x.Data()
	out := tensor.New(x.Shape())
	outData := out.Data()

	for r := 0; r < rows; r++ {
		row := in[r*dim : (r+1)*dim]

		var mean float64
		for _, v := range row {
			mean += v
		}
		mean /= float64(dim)

		var variance float64
		for _, v := range row {
			d := v - mean
			variance += d * d
		}
		variance /= float64(dim)

		inv := 1.0 / math.Sqrt(variance+ln.epsilon)
		outRow := outData[r*dim : (r+1)*dim]
		for d, v := range row {
			outRow[d] = (v-mean)*inv*ln.gamma[d] + ln.beta[d]
		}
	}
	return out
}
